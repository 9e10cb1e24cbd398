package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/till/internal/auth/denylist"
	"github.com/aussiebroadwan/till/internal/mailer"
	"github.com/aussiebroadwan/till/pkg/jwtx"
)

const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

var (
	ErrMissingSecret    = errors.New("config: TILL_JWT_SECRET is required for HS256")
	ErrDenylistTTL      = errors.New("config: denylist TTL must be at least the token TTL")
	ErrUnknownAlgorithm = errors.New("config: unsupported JWT algorithm")
	ErrUnknownDriver    = errors.New("config: unknown driver")
	ErrRedisURL         = errors.New("config: TILL_REDIS_URL is required by the redis drivers")
)

type Config struct {
	JWTSecret    string        // HS256 shared secret
	JWTAlgorithm string        // HS256 or EdDSA (default: HS256)
	JWTKeyFile   string        // Optional: PKCS8 PEM for EdDSA; a key is generated when empty
	JWTKeyID     string        // Optional: kid header
	Issuer       string        // Optional: iss claim, enforced on decode when set
	TokenTTL     time.Duration // Access token lifetime (default: 60m)

	DenylistDriver string        // sqlite or redis (default: sqlite)
	DenylistTTL    time.Duration // Upper bound on denylist entries (default: token TTL)

	PermissionCache     string        // none, memory or redis (default: memory)
	PermissionCacheTTL  time.Duration // default: 5m
	PermissionCacheSize int           // memory cache entries (default: 1024)
	RedisURL            string

	DatabaseFile string // SQLite database path (default: ./till.db)
	PepperFile   string // Password pepper path (default: ./pepper)

	ResetTTL     time.Duration // Password reset token lifetime (default: 60m)
	ResetURL     string        // Front end page that receives token and email
	MailDriver   string        // log or smtp (default: log)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	AdminName     string // Seeded on first start when the users table is empty
	AdminEmail    string
	AdminPassword string

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	tokenTTL := jwtx.TTLFromMinutes(getEnvIntOrDefault("TILL_JWT_TTL_MINUTES", jwtx.DefaultTTLMinutes))

	return Config{
		JWTSecret:    os.Getenv("TILL_JWT_SECRET"),
		JWTAlgorithm: getEnvOrDefault("TILL_JWT_ALGORITHM", jwtx.AlgHS256),
		JWTKeyFile:   os.Getenv("TILL_JWT_KEY_FILE"),
		JWTKeyID:     getEnvOrDefault("TILL_JWT_KEY_ID", "till-1"),
		Issuer:       getEnvOrDefault("TILL_JWT_ISSUER", "till"),
		TokenTTL:     tokenTTL,

		DenylistDriver: getEnvOrDefault("TILL_DENYLIST_DRIVER", denylist.DriverSQLite),
		DenylistTTL: jwtx.TTLFromMinutes(getEnvIntOrDefault("TILL_DENYLIST_TTL_MINUTES",
			int(tokenTTL/time.Minute))),

		PermissionCache:     getEnvOrDefault("TILL_PERMISSION_CACHE", CacheMemory),
		PermissionCacheTTL:  getEnvDurationOrDefault("TILL_PERMISSION_CACHE_TTL", 5*time.Minute),
		PermissionCacheSize: getEnvIntOrDefault("TILL_PERMISSION_CACHE_SIZE", 1024),
		RedisURL:            os.Getenv("TILL_REDIS_URL"),

		DatabaseFile: getEnvOrDefault("TILL_DATABASE_FILE", "till.db"),
		PepperFile:   getEnvOrDefault("TILL_PEPPER_FILE", "pepper"),

		ResetTTL:     jwtx.TTLFromMinutes(getEnvIntOrDefault("TILL_RESET_TTL_MINUTES", 60)),
		ResetURL:     getEnvOrDefault("TILL_RESET_URL", "http://localhost:3000/reset-password"),
		MailDriver:   getEnvOrDefault("TILL_MAIL_DRIVER", mailer.DriverLog),
		SMTPHost:     os.Getenv("TILL_SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("TILL_SMTP_PORT", 587),
		SMTPUsername: os.Getenv("TILL_SMTP_USERNAME"),
		SMTPPassword: os.Getenv("TILL_SMTP_PASSWORD"),
		MailFrom:     getEnvOrDefault("TILL_MAIL_FROM", "no-reply@till.local"),

		AdminName:     getEnvOrDefault("TILL_ADMIN_NAME", "Administrator"),
		AdminEmail:    os.Getenv("TILL_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("TILL_ADMIN_PASSWORD"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// Validate rejects combinations the service cannot run with.
func (c Config) Validate() error {
	switch c.JWTAlgorithm {
	case jwtx.AlgHS256:
		if c.JWTSecret == "" {
			return ErrMissingSecret
		}
	case jwtx.AlgEdDSA:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, c.JWTAlgorithm)
	}

	if c.DenylistTTL < c.TokenTTL {
		return fmt.Errorf("%w (%s < %s)", ErrDenylistTTL, c.DenylistTTL, c.TokenTTL)
	}

	switch c.DenylistDriver {
	case denylist.DriverSQLite, denylist.DriverRedis:
	default:
		return fmt.Errorf("%w: denylist %q", ErrUnknownDriver, c.DenylistDriver)
	}

	switch c.PermissionCache {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("%w: permission cache %q", ErrUnknownDriver, c.PermissionCache)
	}

	switch c.MailDriver {
	case mailer.DriverLog, mailer.DriverSMTP:
	default:
		return fmt.Errorf("%w: mail %q", ErrUnknownDriver, c.MailDriver)
	}

	if c.needsRedis() && c.RedisURL == "" {
		return ErrRedisURL
	}
	return nil
}

func (c Config) needsRedis() bool {
	return c.DenylistDriver == denylist.DriverRedis || c.PermissionCache == CacheRedis
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
