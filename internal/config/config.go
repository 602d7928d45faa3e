package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" env:"TRIVIA_REDIS_ADDR"`
		Password string `yaml:"password" env:"TRIVIA_REDIS_PASSWORD"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"TRIVIA_POSTGRES_URL"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri" env:"TRIVIA_MONGO_URI"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	// Questions.Source is sheet, postgres, mongo or builtin; empty picks the first one configured.
	Questions struct {
		Path           string `yaml:"path" env:"TRIVIA_QUESTIONS_PATH"`
		Source         string `yaml:"source"`
		TTL            string `yaml:"ttl"`
		ShuffleOptions bool   `yaml:"shuffle_options"`
	} `yaml:"questions"`
	LLM struct {
		BaseURL     string  `yaml:"base_url" env:"TRIVIA_LLM_BASE_URL"`
		APIKey      string  `yaml:"api_key" env:"TRIVIA_LLM_API_KEY"`
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int64   `yaml:"max_tokens"`
		Timeout     string  `yaml:"timeout"`
	} `yaml:"llm"`
	Game struct {
		Engine  string `yaml:"engine"`
		Welcome *bool  `yaml:"welcome"`
	} `yaml:"game"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// Load reads YAML config from path, then overlays environment variables.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// WelcomeEnabled reports whether sessions open with the greeting; it defaults to on.
func (c Config) WelcomeEnabled() bool {
	return c.Game.Welcome == nil || *c.Game.Welcome
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
