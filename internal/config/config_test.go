package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  run_mode: "longpoll"
leaderboard:
  backend: "redis"
redis:
  addr: "localhost:6379"
quiz:
  catalog_path: "quizzes/volleyball.yaml"
logging:
  level: "debug"
  format: "kv"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Leaderboard.Backend != BackendRedis {
		t.Fatalf("backend = %q", cfg.Leaderboard.Backend)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("redis addr = %q", cfg.Redis.Addr)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "from-file"
`)
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, want env value", cfg.Telegram.Token)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"

	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q, want longpoll", cfg.Telegram.RunMode)
	}
	if cfg.Leaderboard.Backend != BackendMemory {
		t.Fatalf("backend = %q, want memory", cfg.Leaderboard.Backend)
	}
	if cfg.Quiz.CatalogPath != "quizzes/volleyball.yaml" {
		t.Fatalf("catalog_path = %q", cfg.Quiz.CatalogPath)
	}
}

func TestNormalizePollingAlias(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.RunMode = "Polling"

	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q, want longpoll", cfg.Telegram.RunMode)
	}
}

func TestNormalizeErrors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Telegram.Token = "" },
			wantSub: "token",
		},
		{
			name:    "bad run mode",
			mutate:  func(c *Config) { c.Telegram.RunMode = "carrier-pigeon" },
			wantSub: "run_mode",
		},
		{
			name: "webhook without url",
			mutate: func(c *Config) {
				c.Telegram.RunMode = RunModeWebhook
				c.Webhook.Listen = "0.0.0.0"
				c.Webhook.Port = 8443
			},
			wantSub: "webhook.url",
		},
		{
			name: "postgres without host",
			mutate: func(c *Config) {
				c.Leaderboard.Backend = BackendPostgres
				c.Database.Name = "quiz"
			},
			wantSub: "database.host",
		},
		{
			name:    "redis without addr",
			mutate:  func(c *Config) { c.Leaderboard.Backend = BackendRedis },
			wantSub: "redis.addr",
		},
		{
			name:    "bad backend",
			mutate:  func(c *Config) { c.Leaderboard.Backend = "etcd" },
			wantSub: "leaderboard.backend",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.RateLimit.IntervalMS = -1 },
			wantSub: "rate_limit",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Telegram.Token = "123:abc"
			tc.mutate(cfg)

			err := Normalize(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("err = %q, want substring %q", err, tc.wantSub)
			}
		})
	}
}

func TestNormalizePostgresDefaultsMaxConnections(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Leaderboard.Backend = BackendPostgres
	cfg.Database.Host = "localhost"
	cfg.Database.Name = "quiz"

	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Database.MaxConnections != 4 {
		t.Fatalf("max_connections = %d, want 4", cfg.Database.MaxConnections)
	}
}
