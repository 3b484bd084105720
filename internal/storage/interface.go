package storage

import (
	"context"

	"github.com/UkralStul/modora-posts-service/internal/domain"
)

// DocumentName - имя единственного документа с постами.
const DocumentName = "posts"

// DocumentStore определяет контракт для хранилищ документа {"posts": [...]}.
// Документ всегда читается и пишется целиком.
type DocumentStore interface {
	// Load никогда не возвращает ошибку: сбой чтения или разбора даёт пустой документ.
	Load(ctx context.Context) *domain.Document
	// Save заменяет документ целиком. Ошибка - *apperr.AppError типа STORAGE.
	Save(ctx context.Context, doc *domain.Document) error
}

// UpdateLoader реализуют хранилища, у которых сбой чтения бывает временным (сеть, БД).
// Перед изменением документа репозиторий читает через LoadForUpdate и при ошибке ничего не пишет,
// иначе пустой документ затёр бы настоящий.
type UpdateLoader interface {
	LoadForUpdate(ctx context.Context) (*domain.Document, error)
}
