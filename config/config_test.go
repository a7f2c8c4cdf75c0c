package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestFromViperDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/reloop")

	cfg, err := FromViper(viper.New())
	if err != nil {
		t.Fatalf("FromViper: %v", err)
	}
	if cfg.Port != 5200 || cfg.DBDriver != "postgres" || cfg.MissionRetentionDays != 30 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ClassifierTimeout != 30*time.Second || cfg.ClassifierRPS != 2 {
		t.Fatalf("unexpected classifier defaults: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.R2.Enabled() {
		t.Fatal("R2 should be disabled without credentials")
	}
}

func TestFromViperEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:reloop.db")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("PORT", "8080")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("CLASSIFIER_TIMEOUT", "5s")
	t.Setenv("MISSION_RETENTION_DAYS", "0")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acct")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_ACCESS_KEY_SECRET", "secret")
	t.Setenv("R2_BUCKET_NAME", "archives")

	cfg, err := FromViper(viper.New())
	if err != nil {
		t.Fatalf("FromViper: %v", err)
	}
	if cfg.Port != 8080 || cfg.DBDriver != "sqlite" || cfg.ClassifierTimeout != 5*time.Second || cfg.MissionRetentionDays != 0 {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
	if !cfg.R2.Enabled() || cfg.R2.Bucket != "archives" {
		t.Fatalf("unexpected R2 config: %+v", cfg.R2)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]map[string]string{
		"missing dsn":        {"DATABASE_URL": ""},
		"bad driver":         {"DATABASE_URL": "x", "DB_DRIVER": "mysql"},
		"negative retention": {"DATABASE_URL": "x", "MISSION_RETENTION_DAYS": "-1"},
		"bad port":           {"DATABASE_URL": "x", "PORT": "70000"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := FromViper(viper.New()); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}
