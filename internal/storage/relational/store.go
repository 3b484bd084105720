package relational

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/UkralStul/modora-posts-service/internal/apperr"
	"github.com/UkralStul/modora-posts-service/internal/domain"
	"github.com/UkralStul/modora-posts-service/internal/storage"
	"github.com/UkralStul/modora-posts-service/internal/storage/codec"
)

// documentRecord - строка таблицы documents. Документ с постами занимает ровно одну строку.
type documentRecord struct {
	Name      string    `gorm:"type:varchar(64);primaryKey"`
	Body      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (documentRecord) TableName() string { return "documents" }

// Store реализует интерфейс DocumentStore поверх реляционной БД (PostgreSQL или SQLite).
type Store struct {
	db      *gorm.DB
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// Dialector выбирает драйвер по префиксу DATABASE_URL: postgres:// или sqlite://.
func Dialector(databaseURL string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://")), nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL %q: must start with postgres:// or sqlite://", databaseURL)
	}
}

// Open подключается к БД и выполняет миграцию схемы.
func Open(databaseURL string, log *zap.Logger) (*Store, error) {
	dialector, err := Dialector(databaseURL)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db, log)
}

// New создает хранилище поверх готового соединения.
func New(db *gorm.DB, log *zap.Logger) (*Store, error) {
	if err := db.AutoMigrate(&documentRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log = log.Named("relational")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "document-store",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Store{db: db, breaker: breaker, logger: log}, nil
}

func (s *Store) Load(ctx context.Context) *domain.Document {
	doc, err := s.LoadForUpdate(ctx)
	if err != nil {
		s.logger.Warn("failed to read document row, using empty document", zap.Error(err))
		return domain.NewDocument()
	}
	return doc
}

// LoadForUpdate отличается от Load тем, что сбой запроса к БД возвращается ошибкой.
// Отсутствующая строка и нечитаемое тело по-прежнему дают пустой документ.
func (s *Store) LoadForUpdate(ctx context.Context) (*domain.Document, error) {
	var rec documentRecord
	err := s.db.WithContext(ctx).First(&rec, "name = ?", storage.DocumentName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Debug("document row does not exist yet")
		return domain.NewDocument(), nil
	}
	if err != nil {
		return nil, apperr.Storage("load document", err)
	}

	doc, err := codec.Decode([]byte(rec.Body))
	if err != nil {
		s.logger.Warn("failed to parse document row, using empty document", zap.Error(err))
		return domain.NewDocument(), nil
	}
	return doc, nil
}

// Save делает upsert единственной строки. Запись идёт через circuit breaker:
// после серии отказов БД запросы сразу получают ошибку хранилища.
func (s *Store) Save(ctx context.Context, doc *domain.Document) error {
	data, err := codec.Encode(doc)
	if err != nil {
		return apperr.Storage("encode document", err)
	}

	rec := documentRecord{
		Name:      storage.DocumentName,
		Body:      string(data),
		UpdatedAt: time.Now().UTC(),
	}
	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).Create(&rec).Error
	})
	if err != nil {
		return apperr.Storage("save document", err)
	}
	return nil
}

// Close закрывает соединение с БД.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
