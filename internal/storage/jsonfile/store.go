package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/UkralStul/modora-posts-service/internal/apperr"
	"github.com/UkralStul/modora-posts-service/internal/domain"
	"github.com/UkralStul/modora-posts-service/internal/storage/codec"
)

// Store хранит документ в одном JSON-файле.
type Store struct {
	path   string
	logger *zap.Logger
}

// New создает хранилище поверх файла path. Файл может ещё не существовать.
func New(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger.Named("jsonfile")}
}

// Path возвращает путь к файлу документа.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(ctx context.Context) *domain.Document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("document file does not exist yet", zap.String("path", s.path))
		} else {
			s.logger.Warn("failed to read document file, using empty document", zap.String("path", s.path), zap.Error(err))
		}
		return domain.NewDocument()
	}

	doc, err := codec.Decode(data)
	if err != nil {
		s.logger.Warn("failed to parse document file, using empty document", zap.String("path", s.path), zap.Error(err))
		return domain.NewDocument()
	}
	return doc
}

// Save пишет во временный файл рядом и переименовывает его поверх целевого,
// поэтому читатели никогда не видят половину документа.
func (s *Store) Save(ctx context.Context, doc *domain.Document) error {
	data, err := codec.Encode(doc)
	if err != nil {
		return apperr.Storage("encode document", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.Storage("create data directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return apperr.Storage("create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // после успешного Rename файла уже нет

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperr.Storage("write document", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperr.Storage("sync document", err)
	}
	if err := tmp.Close(); err != nil {
		return apperr.Storage("close document", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return apperr.Storage("chmod document", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return apperr.Storage(fmt.Sprintf("replace %s", s.path), err)
	}
	return nil
}
