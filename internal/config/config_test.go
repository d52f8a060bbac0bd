package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("STREAK_TIMEZONE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.SessionStore != SessionStoreSQLite {
		t.Fatalf("storage = %+v, want sqlite defaults", cfg.Storage)
	}
	if cfg.JWT.Secret == "" {
		t.Fatal("development builds get a default secret")
	}
	if cfg.Streak.Location != time.UTC {
		t.Fatalf("location = %v, want UTC", cfg.Streak.Location)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("CLI_TIMEOUT", "3")
	t.Setenv("STREAK_TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != DriverPostgres || cfg.Storage.SessionStore != SessionStoreRedis {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.JWT.TTL != 2*time.Hour {
		t.Fatalf("ttl = %v", cfg.JWT.TTL)
	}
	if cfg.Context.CLITimeout != 3*time.Second {
		t.Fatalf("cli timeout = %v", cfg.Context.CLITimeout)
	}
	if cfg.Streak.Location.String() != "Europe/Berlin" {
		t.Fatalf("location = %v", cfg.Streak.Location)
	}
	if !strings.HasPrefix(cfg.Database.URL, "postgres://") {
		t.Fatalf("database url = %q", cfg.Database.URL)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo"}, "STORAGE_DRIVER"},
		{"sqlite sessions on postgres", map[string]string{"STORAGE_DRIVER": "postgres", "SESSION_STORE": "sqlite"}, "SESSION_STORE"},
		{"bad timezone", map[string]string{"STREAK_TIMEZONE": "Mars/Olympus"}, "STREAK_TIMEZONE"},
		{"production without secret", map[string]string{"APP_ENV": "production", "JWT_SECRET": ""}, "JWT_SECRET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"STORAGE_DRIVER", "SESSION_STORE", "STREAK_TIMEZONE", "APP_ENV", "JWT_SECRET"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
