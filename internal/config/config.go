// Package config собирает настройки сервиса: значения по умолчанию, YAML-файл, .env и переменные окружения
// (в порядке возрастания приоритета).
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Виды хранилища документа.
const (
	StorageJSON     = "json"
	StorageInMemory = "in-memory"
	StorageSQL      = "sql"
)

// Config holds all application configuration
type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	Storage     string `yaml:"storage"`
	DataFile    string `yaml:"data_file"`
	DatabaseURL string `yaml:"database_url"`

	CORSOrigins    []string `yaml:"cors_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`

	// TrustProxy включает разбор X-Forwarded-For/X-Real-IP. Только за доверенным прокси:
	// иначе клиент сам выбирает, под каким IP его ограничивать.
	TrustProxy bool `yaml:"trust_proxy"`
}

// Default возвращает настройки по умолчанию.
func Default() *Config {
	return &Config{
		Port:           "4000",
		Environment:    "development",
		LogLevel:       "info",
		Storage:        StorageJSON,
		DataFile:       "posts.json",
		CORSOrigins:    []string{"*"},
		RateLimitRPS:   1,
		RateLimitBurst: 5,
	}
}

// Load читает YAML-файл (если path не пустой), затем .env и окружение.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// .env необязателен: в проде переменные приходят из окружения
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Storage = getEnv("STORAGE", c.Storage)
	c.DataFile = getEnv("DATA_FILE", c.DataFile)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}
	c.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", c.RateLimitBurst)
	c.TrustProxy = getEnvBool("TRUST_PROXY", c.TrustProxy)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageJSON:
		if c.DataFile == "" {
			return errors.New("DATA_FILE is required for json storage")
		}
	case StorageInMemory:
	case StorageSQL:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set for sql storage")
		}
	default:
		return fmt.Errorf("unknown storage %q: must be one of %s, %s, %s", c.Storage, StorageJSON, StorageInMemory, StorageSQL)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("rate limit must be positive")
	}
	return nil
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Addr - адрес для http.Server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
