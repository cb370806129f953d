package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string        `env:"SERVER_PORT" envDefault:"8000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	ProductsDBPath string `env:"PRODUCTS_DB_PATH" envDefault:"db/product_database.json"`
	UsersDBPath    string `env:"USERS_DB_PATH" envDefault:"db/users_database.json"`
	ImageRoot      string `env:"IMAGE_ROOT" envDefault:"."`

	DisplayConcurrency int      `env:"DISPLAY_CONCURRENCY" envDefault:"8"`
	MaxBodyBytes       int64    `env:"MAX_BODY_BYTES" envDefault:"20971520"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	Gemini struct {
		APIKey      string        `env:"GEMINI_API_KEY"`
		APIURL      string        `env:"GEMINI_API_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
		TextModel   string        `env:"GEMINI_TEXT_MODEL" envDefault:"gemini-2.0-flash"`
		CallTimeout time.Duration `env:"GEMINI_CALL_TIMEOUT" envDefault:"60s"`
	}
}

func Load() (*Config, error) {
	// Load .env file if it exists (useful for local dev)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.ProductsDBPath == "" {
		return nil, fmt.Errorf("PRODUCTS_DB_PATH must be set")
	}
	if cfg.UsersDBPath == "" {
		return nil, fmt.Errorf("USERS_DB_PATH must be set")
	}
	if cfg.DisplayConcurrency < 1 {
		return nil, fmt.Errorf("DISPLAY_CONCURRENCY must be positive, got %d", cfg.DisplayConcurrency)
	}
	if cfg.Gemini.CallTimeout <= 0 {
		return nil, fmt.Errorf("GEMINI_CALL_TIMEOUT must be positive, got %s", cfg.Gemini.CallTimeout)
	}

	// GEMINI_API_KEY is optional: the server starts without it and the
	// try-on endpoint reports the missing key per request.
	return cfg, nil
}

// NewLogger builds the JSON logger used by the server and tools.
func NewLogger(service, level string) *slog.Logger {
	return newLogger(service, level, os.Stdout)
}

func newLogger(service, level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler).With(slog.String("service", service))
}
