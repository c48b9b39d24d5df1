package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Piggy"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Storage struct {
		DataDir  string `envconfig:"PIGGY_DATA_DIR" default:"data"`
		Autosave bool   `envconfig:"STORAGE_AUTOSAVE" default:"true"`
	}

	Overview struct {
		UpcomingDays int   `envconfig:"OVERVIEW_UPCOMING_DAYS" default:"30"`
		Periods      []int `envconfig:"OVERVIEW_PERIODS" default:"7,14,30"`
	}

	Log struct {
		Level string `envconfig:"LOG_LEVEL" default:"info"`
		File  string `envconfig:"LOG_FILE" default:"piggy.log"`
	}

	API struct {
		JWTSecret      string   `envconfig:"API_JWT_SECRET"`
		AllowedOrigins []string `envconfig:"API_ALLOWED_ORIGINS" default:"*"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}
}

// AliasesPath is the file learned merchant aliases are kept in.
func (c *Config) AliasesPath() string {
	return filepath.Join(c.Storage.DataDir, "aliases", "merchants.json")
}

// LogLevel maps LOG_LEVEL onto a slog level. Unknown values fall back to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return slog.LevelInfo
	}

	return level
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Overview.UpcomingDays < 0 {
		return nil, fmt.Errorf("OVERVIEW_UPCOMING_DAYS must not be negative, got %d", cfg.Overview.UpcomingDays)
	}

	for _, days := range cfg.Overview.Periods {
		if days <= 0 {
			return nil, fmt.Errorf("OVERVIEW_PERIODS must be positive, got %d", days)
		}
	}

	return &cfg, nil
}
