package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "dev-secret-change-me"

type Config struct {
	Env   string
	Port  int
	DBURL string

	// empty RedisAddr disables redis (readiness + revocation fall back to memory)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret           string
	JWTAccessTTLMinutes int
	TokenFormat         string
	TokenRevocation     bool
	BcryptCost          int

	PasswordMinLength    int
	PasswordRequireUpper bool
	PasswordRequireLower bool
	PasswordRequireDigit bool

	AdminEmail    string
	AdminUsername string
	AdminPassword string
	AdminFullName string

	OTelEndpoint string
	ServiceName  string

	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	AutoMigrate        bool
}

func Load() Config {
	// .env is optional; real environment always wins
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:           getEnv("JWT_SECRET", defaultJWTSecret),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 30),
		TokenFormat:         strings.ToLower(getEnv("TOKEN_FORMAT", auth.FormatJWT)),
		TokenRevocation:     getEnvBool("TOKEN_REVOCATION", false),
		BcryptCost:          getEnvInt("BCRYPT_COST", 0),

		PasswordMinLength:    getEnvInt("PASSWORD_MIN_LENGTH", 8),
		PasswordRequireUpper: getEnvBool("PASSWORD_REQUIRE_UPPER", true),
		PasswordRequireLower: getEnvBool("PASSWORD_REQUIRE_LOWER", true),
		PasswordRequireDigit: getEnvBool("PASSWORD_REQUIRE_DIGIT", true),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminFullName: getEnv("ADMIN_FULL_NAME", "Administrator"),

		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "taskhub-api"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		AutoMigrate:        getEnvBool("DB_AUTO_MIGRATE", false),
	}
}

// Validate rejects settings the process must not start with.
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Env != "dev" && c.Env != "test" && c.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set outside dev"))
	}
	if c.JWTAccessTTLMinutes <= 0 {
		errs = append(errs, fmt.Errorf("JWT_ACCESS_TTL_MINUTES must be positive, got %d", c.JWTAccessTTLMinutes))
	}
	if c.TokenFormat != auth.FormatJWT && c.TokenFormat != auth.FormatPaseto {
		errs = append(errs, fmt.Errorf("TOKEN_FORMAT must be %q or %q, got %q", auth.FormatJWT, auth.FormatPaseto, c.TokenFormat))
	}
	if c.PasswordMinLength < 1 {
		errs = append(errs, fmt.Errorf("PASSWORD_MIN_LENGTH must be at least 1, got %d", c.PasswordMinLength))
	}

	return errors.Join(errs...)
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) PasswordPolicy() auth.PasswordPolicy {
	return auth.PasswordPolicy{
		MinLength:    c.PasswordMinLength,
		RequireUpper: c.PasswordRequireUpper,
		RequireLower: c.PasswordRequireLower,
		RequireDigit: c.PasswordRequireDigit,
	}
}

// AuthConfig is the explicit configuration object handed to the auth core.
func (c Config) AuthConfig() auth.Config {
	return auth.Config{
		Secret:         []byte(c.JWTSecret),
		AccessTTL:      c.AccessTTL(),
		TokenFormat:    c.TokenFormat,
		PasswordPolicy: c.PasswordPolicy(),
	}
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("env", c.Env),
		slog.Int("port", c.Port),
		slog.String("token_format", c.TokenFormat),
		slog.Bool("token_revocation", c.TokenRevocation),
		slog.Bool("redis", c.RedisAddr != ""),
		slog.Bool("auto_migrate", c.AutoMigrate),
	)
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "taskhub")
	pass := getEnv("DB_PASSWORD", "taskhub")
	name := getEnv("DB_NAME", "taskhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env value, using default", "key", key, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			slog.Warn("invalid boolean env value, using default", "key", key, "default", fallback)
			return fallback
		}

		return b
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		return fallback
	}
	return out
}
