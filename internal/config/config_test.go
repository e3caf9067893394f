package config

import (
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
)

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app?sslmode=require")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_ACCESS_TTL_MINUTES", "15")
	t.Setenv("TOKEN_FORMAT", "PASETO")
	t.Setenv("TOKEN_REVOCATION", "true")
	t.Setenv("PASSWORD_REQUIRE_UPPER", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()

	if cfg.Env != "prod" || cfg.Port != 9090 {
		t.Fatalf("unexpected env/port: %q %d", cfg.Env, cfg.Port)
	}
	if cfg.DBURL != "postgres://u:p@db:5432/app?sslmode=require" {
		t.Fatalf("DATABASE_URL should win, got %q", cfg.DBURL)
	}
	if cfg.TokenFormat != auth.FormatPaseto {
		t.Fatalf("token format should be lower-cased, got %q", cfg.TokenFormat)
	}
	if !cfg.TokenRevocation {
		t.Fatalf("expected revocation enabled")
	}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Fatalf("AccessTTL = %v", cfg.AccessTTL())
	}
	if cfg.PasswordPolicy().RequireUpper {
		t.Fatalf("expected upper-case rule disabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}

	ac := cfg.AuthConfig()
	if string(ac.Secret) != "s3cret" || ac.AccessTTL != 15*time.Minute || ac.TokenFormat != auth.FormatPaseto {
		t.Fatalf("unexpected auth config: %+v", ac)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("TOKEN_REVOCATION", "maybe")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Fatalf("expected default port, got %d", cfg.Port)
	}
	if cfg.TokenRevocation {
		t.Fatalf("expected default revocation setting")
	}
}

func TestBuildDBURL_FromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "tasks")
	t.Setenv("DB_SSLMODE", "verify-full")

	want := "postgres://app:pw@pg:6543/tasks?sslmode=verify-full"
	if got := buildDBURL(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func validConfig() Config {
	return Config{
		Env:                 "dev",
		Port:                8080,
		JWTSecret:           defaultJWTSecret,
		JWTAccessTTLMinutes: 30,
		TokenFormat:         auth.FormatJWT,
		PasswordMinLength:   8,
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("dev config should validate: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"default secret in prod", func(c *Config) { c.Env = "prod" }, "JWT_SECRET must be set outside dev"},
		{"empty secret", func(c *Config) { c.JWTSecret = " " }, "JWT_SECRET is required"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "PORT out of range"},
		{"bad ttl", func(c *Config) { c.JWTAccessTTLMinutes = 0 }, "JWT_ACCESS_TTL_MINUTES"},
		{"bad format", func(c *Config) { c.TokenFormat = "saml" }, "TOKEN_FORMAT"},
		{"bad min length", func(c *Config) { c.PasswordMinLength = 0 }, "PASSWORD_MIN_LENGTH"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("got %v, want error containing %q", err, tc.wantMsg)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Port = 0
	cfg.TokenFormat = "saml"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "PORT") || !strings.Contains(err.Error(), "TOKEN_FORMAT") {
		t.Fatalf("expected both problems reported, got %v", err)
	}
}
