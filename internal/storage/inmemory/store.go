package inmemory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/UkralStul/modora-posts-service/internal/apperr"
	"github.com/UkralStul/modora-posts-service/internal/domain"
	"github.com/UkralStul/modora-posts-service/internal/storage/codec"
)

// Store реализует интерфейс DocumentStore в памяти.
// Документ хранится в закодированном виде, поэтому каждый Load отдаёт независимую копию,
// как и файловое хранилище.
type Store struct {
	mu     sync.RWMutex
	data   []byte
	logger *zap.Logger
}

// New создает новый экземпляр in-memory хранилища.
func New(logger *zap.Logger) *Store {
	return &Store{logger: logger.Named("inmemory")}
}

func (s *Store) Load(ctx context.Context) *domain.Document {
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()

	if data == nil {
		return domain.NewDocument()
	}
	doc, err := codec.Decode(data)
	if err != nil {
		s.logger.Warn("failed to decode in-memory document, using empty document", zap.Error(err))
		return domain.NewDocument()
	}
	return doc
}

func (s *Store) Save(ctx context.Context, doc *domain.Document) error {
	data, err := codec.Encode(doc)
	if err != nil {
		return apperr.Storage("encode document", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

// Bytes возвращает текущий закодированный документ. Удобно в тестах.
func (s *Store) Bytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.data...)
}
