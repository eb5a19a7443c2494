package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL string `env:"DATABASE_URL,required"`
	OpenAIKey   string `env:"OPENAI_API_KEY,required"`

	// Local snapshot store (sqlite file standing in for the widget's
	// browser storage)
	SnapshotDBPath string `env:"SNAPSHOT_DB_PATH" envDefault:"briefing_snapshots.db"`

	// Chat completion
	ChatBaseURL   string `env:"CHAT_BASE_URL" envDefault:"https://api.openai.com/v1"`
	ChatModel     string `env:"CHAT_MODEL" envDefault:"gpt-4o-mini"`
	AnalysisModel string `env:"ANALYSIS_MODEL" envDefault:"gpt-4o-mini"`

	// Speech-to-text
	TranscriptionModel string `env:"TRANSCRIPTION_MODEL" envDefault:"whisper-1"`

	// Object storage (Supabase-storage-compatible REST endpoint)
	StorageURL    string `env:"STORAGE_URL"`
	StorageKey    string `env:"STORAGE_KEY"`
	StorageBucket string `env:"STORAGE_BUCKET" envDefault:"client-files"`

	// Server
	Port int `env:"PORT" envDefault:"8080"`

	// CORS origins allowed for the widget; "*" when empty
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
