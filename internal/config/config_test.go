package config

import "testing"

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OTP_SALT", "pepper")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
}

func TestLoadDevelopmentWithoutStores(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Dev() {
		t.Fatalf("expected dev config for APP_ENV=development")
	}
	if cfg.DatabaseURL != "" || cfg.RedisURL != "" {
		t.Fatalf("expected empty store urls, got %q %q", cfg.DatabaseURL, cfg.RedisURL)
	}
}

func TestLoadProductionRequiresStores(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL outside dev")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/kyc")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without REDIS_URL outside dev")
	}

	t.Setenv("REDIS_URL", "redis://localhost:6379")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Dev() {
		t.Fatalf("production config reported dev")
	}
}

func TestLoadAlwaysRequiresOTPSalt(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "development")
	t.Setenv("OTP_SALT", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without OTP_SALT")
	}
}
