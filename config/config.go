// config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"reloop/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the runtime configuration of the ReLoop engine.
type Config struct {
	Port           int
	DBDriver       string
	DatabaseURL    string
	ServiceToken   string
	AllowedOrigins []string
	LogLevel       string

	ClassifierURL     string
	ClassifierTimeout time.Duration
	ClassifierRPS     float64

	R2 utils.R2Config

	MissionRetentionDays int
}

// Load reads .env (if present), then the environment, over built-in defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(viper.New())
}

// FromViper builds a Config from v with environment binding and defaults applied.
func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	v.SetDefault("PORT", 5200)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("RELOOP_SERVICE_TOKEN", "")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CLASSIFIER_URL", "https://reloop-ai-scanner.reloop-ai.workers.dev")
	v.SetDefault("CLASSIFIER_TIMEOUT", "30s")
	v.SetDefault("CLASSIFIER_RPS", 2)
	v.SetDefault("CLOUDFLARE_ACCOUNT_ID", "")
	v.SetDefault("R2_ACCESS_KEY_ID", "")
	v.SetDefault("R2_ACCESS_KEY_SECRET", "")
	v.SetDefault("R2_BUCKET_NAME", "")
	v.SetDefault("CDN_BASE_URL", "")
	v.SetDefault("MISSION_RETENTION_DAYS", 30)

	cfg := &Config{
		Port:              v.GetInt("PORT"),
		DBDriver:          strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		ServiceToken:      v.GetString("RELOOP_SERVICE_TOKEN"),
		AllowedOrigins:    splitList(v.GetString("ALLOWED_ORIGINS")),
		LogLevel:          v.GetString("LOG_LEVEL"),
		ClassifierURL:     strings.TrimSpace(v.GetString("CLASSIFIER_URL")),
		ClassifierTimeout: v.GetDuration("CLASSIFIER_TIMEOUT"),
		ClassifierRPS:     v.GetFloat64("CLASSIFIER_RPS"),
		R2: utils.R2Config{
			AccountID:       v.GetString("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
			AccessKeySecret: v.GetString("R2_ACCESS_KEY_SECRET"),
			Bucket:          v.GetString("R2_BUCKET_NAME"),
			CDNBaseURL:      v.GetString("CDN_BASE_URL"),
		},
		MissionRetentionDays: v.GetInt("MISSION_RETENTION_DAYS"),
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable not set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.MissionRetentionDays < 0 {
		return errors.New("MISSION_RETENTION_DAYS must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
