package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "memory" || cfg.Trivia.QuestionCount != 5 || cfg.Scoring.DefaultPoints != 20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: "9000"
database:
  driver: sqlite
  url: "file:trivia.db"
auth:
  admin_user_ids: ["a1"]
trivia:
  timer_seconds: 90
scoring:
  mode: weighted
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "9100")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_USER_IDS", "x1, x2 ,")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Fatalf("expected env port override, got %s", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Trivia.TimerSeconds != 90 || cfg.Scoring.Mode != "weighted" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Trivia.QuestionCount != 5 {
		t.Fatalf("expected default question count to survive, got %d", cfg.Trivia.QuestionCount)
	}
	if cfg.Auth.JWTSecret != "s3cret" || len(cfg.Auth.AdminUserIDs) != 2 || cfg.Auth.AdminUserIDs[1] != "x2" {
		t.Fatalf("unexpected auth config: %+v", cfg.Auth)
	}
}

func TestDatabaseURLImpliesPostgres(t *testing.T) {
	cfg := Default()
	env := map[string]string{"DATABASE_URL": "postgres://localhost/trivia"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("expected postgres driver, got %s", cfg.Database.Driver)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "mongo"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
	cfg = Default()
	cfg.Database.Driver = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing url error")
	}
	cfg = Default()
	cfg.Scoring.Mode = "bonus"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected scoring mode error")
	}
}

func TestLoadEnvFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TRIVIA_TEST_VALUE=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("TRIVIA_TEST_VALUE", "")
	os.Unsetenv("TRIVIA_TEST_VALUE")
	if err := LoadEnvFiles(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("load env files: %v", err)
	}
	if got := os.Getenv("TRIVIA_TEST_VALUE"); got != "from-dotenv" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
