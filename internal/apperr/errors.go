// Package apperr описывает таксономию ошибок сервиса и их соответствие HTTP-статусам.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Type - категория ошибки.
type Type string

const (
	TypeValidation Type = "VALIDATION"
	TypeNotFound   Type = "NOT_FOUND"
	TypeStorage    Type = "STORAGE"
)

// AppError - ошибка приложения с типом и исходной причиной.
type AppError struct {
	Type    Type
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Validation - клиент прислал недостаточно данных.
func Validation(format string, args ...any) *AppError {
	return &AppError{Type: TypeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound - сущность с указанным id не существует.
func NotFound(resource string) *AppError {
	return &AppError{Type: TypeNotFound, Message: resource + " not found"}
}

// Storage - документ не удалось записать или прочитать.
func Storage(op string, err error) *AppError {
	return &AppError{Type: TypeStorage, Message: op + " failed", Cause: err}
}

// TypeOf возвращает тип ошибки или пустую строку для посторонних ошибок.
func TypeOf(err error) Type {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

func IsValidation(err error) bool { return TypeOf(err) == TypeValidation }

func IsNotFound(err error) bool { return TypeOf(err) == TypeNotFound }

func IsStorage(err error) bool { return TypeOf(err) == TypeStorage }

// HTTPStatus отображает ошибку на код ответа. Всё неизвестное - 500.
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
