package repository

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/UkralStul/modora-posts-service/internal/apperr"
	"github.com/UkralStul/modora-posts-service/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// в сообщениях используем имена полей из JSON: "userId is required"
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("lens", func(fl validator.FieldLevel) bool {
		return domain.Lens(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
	return v
}

// validateStruct проверяет теги validate и превращает нарушения в ошибку VALIDATION.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation("%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "lens":
		return fmt.Sprintf("%s: unknown lens %q", fe.Field(), fe.Value())
	default:
		return fe.Field() + " is invalid"
	}
}

// validateLenses проверяет линзы из частичного обновления.
func validateLenses(lenses []domain.Lens) error {
	for _, l := range lenses {
		if !l.Valid() {
			return apperr.Validation("lenses: unknown lens %q", l)
		}
	}
	return nil
}
