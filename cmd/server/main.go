package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/UkralStul/modora-posts-service/internal/config"
)

var (
	configPath  string
	storageType string
	verbose     bool

	cfg      *config.Config
	logger   *zap.Logger
	logLevel zap.AtomicLevel
)

var rootCmd = &cobra.Command{
	Use:   "modora-posts",
	Short: "MODORA posts backend",
	Long: `MODORA posts backend stores posts, votes and comments in a single
JSON document and serves them over a REST API.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			configPath = os.Getenv("CONFIG_FILE")
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if storageType != "" {
			cfg.Storage = storageType
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		logger, err = newLogger(cfg, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&storageType, "storage", "", "document storage: json, in-memory or sql (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, seedCmd)
}

// newLogger строит zap-логгер: JSON в production, консольный вывод в остальных окружениях.
// Уровень хранится в logLevel, чтобы его можно было менять при перечитывании конфига.
func newLogger(c *config.Config, debug bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	if debug {
		level = zapcore.DebugLevel
	}
	logLevel = zap.NewAtomicLevelAt(level)

	zc := zap.NewDevelopmentConfig()
	if c.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = logLevel
	return zc.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
