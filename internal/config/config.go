package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		// Driver is one of postgres, sqlite or memory.
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret    string   `yaml:"jwt_secret"`
		AdminUserIDs []string `yaml:"admin_user_ids"`
	} `yaml:"auth"`
	OpenAI struct {
		APIKey      string  `yaml:"api_key"`
		Model       string  `yaml:"model"`
		Temperature float32 `yaml:"temperature"`
		BaseURL     string  `yaml:"base_url"`
	} `yaml:"openai"`
	Trivia struct {
		QuestionCount int    `yaml:"question_count"`
		OptionCount   int    `yaml:"option_count"`
		TimerSeconds  int    `yaml:"timer_seconds"`
		SessionType   string `yaml:"session_type"`
		CacheTTL      string `yaml:"cache_ttl"`
	} `yaml:"trivia"`
	Scoring struct {
		Mode          string `yaml:"mode"`
		DefaultPoints int    `yaml:"default_points"`
	} `yaml:"scoring"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the shipped defaults.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Database.Driver = "memory"
	cfg.Redis.TTL = "10m"
	cfg.Trivia.QuestionCount = 5
	cfg.Trivia.OptionCount = 4
	cfg.Trivia.TimerSeconds = 60
	cfg.Trivia.SessionType = "daily"
	cfg.Trivia.CacheTTL = "10m"
	cfg.Scoring.Mode = "uniform"
	cfg.Scoring.DefaultPoints = 20
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// LoadEnvFiles loads .env style files into the process environment. Missing
// files are ignored; variables already set win.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads YAML config from path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("PORT", &cfg.Server.Port)
	set("DATABASE_URL", &cfg.Database.URL)
	set("DATABASE_DRIVER", &cfg.Database.Driver)
	set("REDIS_ADDR", &cfg.Redis.Addr)
	set("REDIS_PASSWORD", &cfg.Redis.Password)
	set("JWT_SECRET", &cfg.Auth.JWTSecret)
	set("OPENAI_API_KEY", &cfg.OpenAI.APIKey)
	set("OPENAI_MODEL", &cfg.OpenAI.Model)
	set("LOG_LEVEL", &cfg.Log.Level)
	if v, ok := lookup("ADMIN_USER_IDS"); ok && v != "" {
		cfg.Auth.AdminUserIDs = splitList(v)
	}
	if v, ok := lookup("REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Redis.DB = db
	}
	// a bare DATABASE_URL implies postgres unless the driver was chosen explicitly
	if _, ok := lookup("DATABASE_DRIVER"); !ok && cfg.Database.URL != "" && cfg.Database.Driver == "memory" {
		cfg.Database.Driver = "postgres"
	}
	return nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "memory":
	case "postgres", "sqlite":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	switch c.Scoring.Mode {
	case "", "uniform", "weighted":
	default:
		return fmt.Errorf("unsupported scoring.mode %q", c.Scoring.Mode)
	}
	if c.Trivia.QuestionCount <= 0 || c.Trivia.OptionCount <= 1 {
		return fmt.Errorf("trivia.question_count and trivia.option_count must be positive")
	}
	if c.Trivia.TimerSeconds <= 0 {
		return fmt.Errorf("trivia.timer_seconds must be positive")
	}
	return nil
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

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
