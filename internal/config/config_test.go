package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOverlaysEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: "9090"
redis:
  addr: "localhost:6379"
  ttl: "5m"
questions:
  path: "banco.csv"
  shuffle_options: true
llm:
  model: "deepseek-chat"
  temperature: 0.6
  api_key: "from-file"
game:
  engine: conversational
  welcome: false
cors:
  allowed_origins: ["http://localhost:3000"]
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TRIVIA_LLM_API_KEY", "from-env")
	t.Setenv("TRIVIA_REDIS_ADDR", "redis:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.APIKey != "from-env" || cfg.Redis.Addr != "redis:6379" {
		t.Fatalf("expected env to win, got key=%q addr=%q", cfg.LLM.APIKey, cfg.Redis.Addr)
	}
	if cfg.Server.Port != "9090" || cfg.Questions.Path != "banco.csv" || !cfg.Questions.ShuffleOptions {
		t.Fatalf("expected file values kept, got %+v", cfg)
	}
	if cfg.Game.Engine != "conversational" || cfg.WelcomeEnabled() {
		t.Fatalf("unexpected game section %+v", cfg.Game)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 {
		t.Fatalf("expected one allowed origin, got %v", cfg.CORS.AllowedOrigins)
	}
	if got := TTLDuration(cfg.Redis.TTL, time.Minute); got != 5*time.Minute {
		t.Fatalf("expected 5m, got %s", got)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("TRIVIA_QUESTIONS_PATH", "preguntas.xlsx")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Questions.Path != "preguntas.xlsx" || !cfg.WelcomeEnabled() {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %s", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %s", got)
	}
}
