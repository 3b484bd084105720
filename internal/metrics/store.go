package metrics

import (
	"context"
	"time"

	"github.com/UkralStul/modora-posts-service/internal/domain"
	"github.com/UkralStul/modora-posts-service/internal/storage"
)

// instrumentedStore считает операции хранилища и их длительность.
type instrumentedStore struct {
	next      storage.DocumentStore
	collector *Collector
}

// InstrumentStore оборачивает хранилище метриками.
func InstrumentStore(next storage.DocumentStore, collector *Collector) storage.DocumentStore {
	return &instrumentedStore{next: next, collector: collector}
}

func (s *instrumentedStore) Load(ctx context.Context) *domain.Document {
	start := time.Now()
	doc := s.next.Load(ctx)
	s.collector.StoreDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
	s.collector.StoreOperations.WithLabelValues("load", "ok").Inc()
	return doc
}

// LoadForUpdate пробрасывает строгое чтение, если хранилище его поддерживает.
func (s *instrumentedStore) LoadForUpdate(ctx context.Context) (*domain.Document, error) {
	loader, ok := s.next.(storage.UpdateLoader)
	if !ok {
		return s.Load(ctx), nil
	}
	start := time.Now()
	doc, err := loader.LoadForUpdate(ctx)
	s.collector.StoreDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.collector.StoreOperations.WithLabelValues("load", result).Inc()
	return doc, err
}

func (s *instrumentedStore) Save(ctx context.Context, doc *domain.Document) error {
	start := time.Now()
	err := s.next.Save(ctx, doc)
	s.collector.StoreDuration.WithLabelValues("save").Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.collector.StoreOperations.WithLabelValues("save", result).Inc()
	return err
}
