package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/UkralStul/modora-posts-service/internal/api"
	"github.com/UkralStul/modora-posts-service/internal/config"
	"github.com/UkralStul/modora-posts-service/internal/dataloader"
	"github.com/UkralStul/modora-posts-service/internal/metrics"
	"github.com/UkralStul/modora-posts-service/internal/repository"
	"github.com/UkralStul/modora-posts-service/internal/storage"
	"github.com/UkralStul/modora-posts-service/internal/storage/inmemory"
	"github.com/UkralStul/modora-posts-service/internal/storage/jsonfile"
	"github.com/UkralStul/modora-posts-service/internal/storage/relational"
)

const (
	shutdownTimeout     = 5 * time.Second
	loaderWait          = time.Millisecond
	limiterCleanupEvery = time.Minute
	limiterIdleTimeout  = 3 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// openStore выбирает хранилище документа по конфигу. close освобождает ресурсы хранилища.
func openStore(c *config.Config, log *zap.Logger) (storage.DocumentStore, func() error, error) {
	noop := func() error { return nil }
	switch c.Storage {
	case config.StorageInMemory:
		return inmemory.New(log), noop, nil
	case config.StorageSQL:
		s, err := relational.Open(c.DatabaseURL, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return s, s.Close, nil
	default:
		return jsonfile.New(c.DataFile, log), noop, nil
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting server", zap.String("storage", cfg.Storage), zap.String("environment", cfg.Environment))

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close storage", zap.Error(err))
		}
	}()

	collector := metrics.New("modora")
	repo := repository.New(metrics.InstrumentStore(store, collector), logger)
	limiter := api.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	router := api.NewRouter(api.Deps{
		Repo:        repo,
		Loaders:     dataloader.NewLoaders(repo, loaderWait),
		Metrics:     collector,
		Limiter:     limiter,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(limiterCleanupEvery)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := limiter.Cleanup(limiterIdleTimeout); n > 0 {
					logger.Debug("rate limiter cleanup", zap.Int("removed", n))
				}
			}
		}
	})

	if configPath != "" {
		g.Go(func() error {
			if err := config.Watch(gctx, configPath, logger, applyReload); err != nil {
				logger.Warn("config watcher stopped", zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// applyReload применяет то, что можно поменять без перезапуска: уровень логирования.
func applyReload(next *config.Config) {
	level, err := zapcore.ParseLevel(next.LogLevel)
	if err != nil {
		logger.Warn("ignoring invalid log level", zap.String("level", next.LogLevel))
		return
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	logLevel.SetLevel(level)
	logger.Info("log level updated", zap.String("logLevel", level.String()))
}
