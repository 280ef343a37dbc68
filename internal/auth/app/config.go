package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	JWTSecret string // Required: HS256 signing secret
	Issuer    string // Issuer claim for tokens and TOTP provisioning URIs

	BcryptCost           int           // Password hashing cost (default: 12)
	AccessTokenTTL       time.Duration // Access token lifetime (default: 15m)
	RefreshTokenTTL      time.Duration // Refresh token lifetime (default: 168h)
	VerificationTokenTTL time.Duration // Email verification token lifetime (default: 24h)
	ResetTokenTTL        time.Duration // Password reset token lifetime (default: 1h)
	BackupCodeCount      int           // MFA backup codes issued per enrolment (default: 8)
	BackupCodeLength     int           // Characters per backup code (default: 10)
	HousekeepingInterval time.Duration // Expired refresh token sweep interval (default: 1h)

	DatabaseFile        string        // Path to SQLite database file (default: ./auth.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// ErrMissingJWTSecret aborts startup when no signing secret is configured.
// There is no safe default for it.
var ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET is required")

// LoadConfig reads configuration from the environment, after loading an
// optional .env file for local development.
func LoadConfig() (Config, error) {
	// Missing .env is the normal production case, not an error.
	_ = godotenv.Load()

	cfg := Config{
		JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		Issuer:    getEnvOrDefault("AUTH_ISSUER", "planify-auth"),

		BcryptCost:           getEnvIntOrDefault("AUTH_BCRYPT_COST", 12),
		AccessTokenTTL:       getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:      getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		VerificationTokenTTL: getEnvDurationOrDefault("AUTH_VERIFICATION_TOKEN_TTL", 24*time.Hour),
		ResetTokenTTL:        getEnvDurationOrDefault("AUTH_RESET_TOKEN_TTL", time.Hour),
		BackupCodeCount:      getEnvIntOrDefault("AUTH_BACKUP_CODE_COUNT", 8),
		BackupCodeLength:     getEnvIntOrDefault("AUTH_BACKUP_CODE_LENGTH", 10),
		HousekeepingInterval: getEnvDurationOrDefault("AUTH_HOUSEKEEPING_INTERVAL", time.Hour),

		DatabaseFile:        getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingJWTSecret
	}

	return cfg, nil
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

	// Accept Go duration strings ("1h", "30m", "90s")...
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// ...or bare integers, read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
