package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

// APIConfig holds runtime configuration for the accounts API service.
type APIConfig struct {
	Environment   string
	Addr          string
	LogLevel      string
	StoreDriver   string
	DatabaseURL   string
	MigrationsDir string
	MongoURI      string
	MongoDatabase string

	JWTSecret string
	// AccessTokenTTL of zero issues session tokens without an exp claim.
	AccessTokenTTL       time.Duration
	ResetTokenTTL        time.Duration
	ResetURLBase         string
	ResetTokenInResponse bool

	UploadDir      string
	MaxUploadBytes int64

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:          GetString("APP_ENV", "development"),
		Addr:                 GetString("API_ADDR", ":4000"),
		LogLevel:             GetString("LOG_LEVEL", "info"),
		StoreDriver:          strings.ToLower(strings.TrimSpace(GetString("STORE_DRIVER", StoreDriverPostgres))),
		DatabaseURL:          GetString("DATABASE_URL", "postgres://accounts:accounts@db:5432/accounts?sslmode=disable"),
		MigrationsDir:        GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		MongoURI:             GetString("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:        GetString("MONGO_DATABASE", "accounts"),
		JWTSecret:            GetString("JWT_SECRET", ""),
		AccessTokenTTL:       GetDuration("ACCESS_TOKEN_TTL", 0),
		ResetTokenTTL:        GetDuration("RESET_TOKEN_TTL", time.Hour),
		ResetURLBase:         GetString("RESET_URL_BASE", "http://localhost:5173/reset-password"),
		ResetTokenInResponse: GetBool("RESET_TOKEN_IN_RESPONSE", false),
		UploadDir:            GetString("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:       GetInt64("MAX_UPLOAD_BYTES", 5<<20),
		SMTPHost:             GetString("SMTP_HOST", ""),
		SMTPPort:             GetInt("SMTP_PORT", 587),
		SMTPUsername:         GetString("SMTP_USERNAME", ""),
		SMTPPassword:         GetString("SMTP_PASSWORD", ""),
		MailFrom:             GetString("MAIL_FROM", "admin@accounts.local"),
		MailTimeout:          GetDuration("MAIL_TIMEOUT", 10*time.Second),
		RedisAddr:            GetString("REDIS_ADDR", ""),
		RedisPassword:        GetString("REDIS_PASSWORD", ""),
		RedisDB:              GetInt("REDIS_DB", 0),
	}
}

// Validate reports configuration that would leave the service unable to run safely.
func (c APIConfig) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL must be set for the postgres store")
		}
	case StoreDriverMongo:
		if strings.TrimSpace(c.MongoURI) == "" {
			return errors.New("MONGO_URI must be set for the mongo store")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ResetTokenTTL <= 0 {
		return errors.New("RESET_TOKEN_TTL must be positive")
	}
	if strings.TrimSpace(c.UploadDir) == "" {
		return errors.New("UPLOAD_DIR must be set")
	}
	return nil
}
