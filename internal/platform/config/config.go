package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	liststr "campusgate/pkg/platform/strings"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	RejectPolicyRetain = "retain"
	RejectPolicyDelete = "delete"

	devSigningKey = "dev-secret-key-change-in-production"
)

// Config is the full runtime configuration.
type Config struct {
	Server       Server
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Blob         BlobConfig
	Auth         AuthConfig
	Verification VerificationConfig
	Placement    PlacementConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr               string
	Environment        string
	LogLevel           string
	CORSAllowedOrigins []string
	// MetricsToken, when set, must accompany /metrics scrapes.
	MetricsToken string
}

// DatabaseConfig configures Postgres. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the report cache. An empty URL selects an in-process cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the outbox relay. No brokers disables the relay.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// BlobConfig configures the document store. An empty URL selects an in-memory store.
type BlobConfig struct {
	CloudinaryURL string
	Folder        string
}

type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
}

type VerificationConfig struct {
	// PlatformAdminEmails are bootstrapped as approved platform admins on first sign-in.
	PlatformAdminEmails []string
	// RejectProfilePolicy is "retain" or "delete".
	RejectProfilePolicy string
	UploadTimeout       time.Duration
}

type PlacementConfig struct {
	ReportCacheTTL time.Duration
}

// IsProduction reports whether the service runs with production safeguards.
func (c Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// FromEnv builds the config from environment variables. Outside production a
// .env file in the working directory is loaded first; real env vars win.
func FromEnv() (Config, error) {
	if os.Getenv("APP_ENV") != EnvProduction {
		_ = godotenv.Load()
	}

	cfg := Config{
		Server: Server{
			Addr:               getEnv("CAMPUSGATE_ADDR", ":8080"),
			Environment:        getEnv("APP_ENV", EnvDevelopment),
			LogLevel:           getEnv("LOG_LEVEL", "info"),
			CORSAllowedOrigins: liststr.SplitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
			MetricsToken:       os.Getenv("METRICS_TOKEN"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: liststr.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "campusgate.audit"),
		},
		Blob: BlobConfig{
			CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
			Folder:        getEnv("CLOUDINARY_FOLDER", "campusgate/evidence"),
		},
		Auth: AuthConfig{
			JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
			JWTIssuer:     getEnv("JWT_ISSUER", "campusgate-idp"),
		},
		Verification: VerificationConfig{
			PlatformAdminEmails: liststr.SplitListLower(os.Getenv("PLATFORM_ADMIN_EMAILS")),
			RejectProfilePolicy: strings.ToLower(getEnv("REJECT_PROFILE_POLICY", RejectPolicyRetain)),
			UploadTimeout:       getDuration("UPLOAD_TIMEOUT", 30*time.Second),
		},
		Placement: PlacementConfig{
			ReportCacheTTL: getDuration("REPORT_CACHE_TTL", 5*time.Minute),
		},
	}

	if cfg.Auth.JWTSigningKey == "" {
		if cfg.IsProduction() {
			return Config{}, errors.New("JWT_SIGNING_KEY is required in production")
		}
		// Use a default for development - should be overridden in production
		cfg.Auth.JWTSigningKey = devSigningKey
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Verification.RejectProfilePolicy {
	case RejectPolicyRetain, RejectPolicyDelete:
	default:
		return fmt.Errorf("REJECT_PROFILE_POLICY must be %q or %q, got %q",
			RejectPolicyRetain, RejectPolicyDelete, c.Verification.RejectProfilePolicy)
	}
	if c.Verification.UploadTimeout <= 0 {
		return errors.New("UPLOAD_TIMEOUT must be positive")
	}
	if c.Placement.ReportCacheTTL <= 0 {
		return errors.New("REPORT_CACHE_TTL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
