package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"edugenie"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Store  Store
	OpenAI OpenAI
	Quiz   Quiz
}

// Store selects and configures the history backend.
type Store struct {
	Backend    string `env:"STORE_BACKEND" envDefault:"sqlite"`
	SQLitePath string `env:"STORE_SQLITE_PATH" envDefault:"edugenie.db"`
	RedisAddr  string `env:"STORE_REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisDB    int    `env:"STORE_REDIS_DB" envDefault:"0"`
	RedisKey   string `env:"STORE_REDIS_KEY"`
}

// OpenAI configures the generation/OCR collaborator.
type OpenAI struct {
	APIKey      string        `env:"OPENAI_API_KEY"`
	Model       string        `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	HTTPTimeout time.Duration `env:"OPENAI_HTTP_TIMEOUT" envDefault:"60s"`
}

// Quiz groups flow defaults.
type Quiz struct {
	MinTextLen        int    `env:"QUIZ_MIN_TEXT_LEN" envDefault:"20"`
	DefaultMCQCount   int    `env:"QUIZ_DEFAULT_MCQ" envDefault:"5"`
	DefaultTFCount    int    `env:"QUIZ_DEFAULT_TF" envDefault:"3"`
	DefaultDifficulty string `env:"QUIZ_DEFAULT_DIFFICULTY" envDefault:"medium"`
	DefaultLanguage   string `env:"QUIZ_DEFAULT_LANGUAGE" envDefault:"ar"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
