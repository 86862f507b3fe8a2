package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	setEnv(t, "DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost:5432/clinic")
	setEnv(t, "ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("expected default max conns 20, got %d", cfg.DBMaxConns)
	}
	if cfg.MigrationsDir != "migrations" {
		t.Errorf("expected default migrations dir, got %s", cfg.MigrationsDir)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode")
	}
}

func TestLoad_ProductionRequiresAuth(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost:5432/clinic")
	setEnv(t, "ENV", "production")
	setEnv(t, "JWT_SECRET", "")
	setEnv(t, "AUTH_ISSUER", "")
	setEnv(t, "AUTH_JWKS_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for production without auth configuration")
	}
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost:5432/clinic")
	setEnv(t, "ENV", "production")
	setEnv(t, "JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsProduction() {
		t.Error("expected production mode")
	}
}
