package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// insecureSecrets are placeholder values shipped in env templates. Running
// with one of these would let anyone mint valid stream signatures.
var insecureSecrets = map[string]struct{}{
	"changeme":           {},
	"tdmedia-dev-secret": {},
}

const minSecretLength = 16

// Config holds the environment driven configuration for the media service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"tdmedia"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPHost        string        `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8285"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database (required, no default)
	DatabaseURL string `env:"DATABASE_URL,notEmpty"`

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Storage Backend Selection
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"local"` // Options: "local" or "s3"

	// Local Storage Configuration
	LocalStoragePath    string `env:"LOCAL_STORAGE_PATH" envDefault:"./media-data"`
	LocalStorageBaseURL string `env:"LOCAL_STORAGE_BASE_URL"`

	// S3 Storage Configuration
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3Region       string `env:"S3_REGION" envDefault:"us-west-2"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3AccessKeyID  string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `env:"S3_USE_PATH_STYLE" envDefault:"true"`

	// Stream Access
	StreamSigningSecret string        `env:"STREAM_SIGNING_SECRET,notEmpty"`
	StreamGrantTTL      time.Duration `env:"STREAM_GRANT_TTL" envDefault:"600s"`
	StreamClockSkew     time.Duration `env:"STREAM_CLOCK_SKEW" envDefault:"0s"`

	// Derivation
	DeriveToolTimeout  time.Duration   `env:"DERIVE_TOOL_TIMEOUT" envDefault:"30s"`
	DeriveFrameOffsets []time.Duration `env:"DERIVE_FRAME_OFFSETS" envSeparator:"," envDefault:"3s,5s"`
	FFmpegPath         string          `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	FFprobePath        string          `env:"FFPROBE_PATH" envDefault:"ffprobe"`

	// Media Configuration
	MaxMediaBytes int64 `env:"MAX_MEDIA_BYTES" envDefault:"2147483648"`

	// Authentication
	AuthEnabled  bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer   string `env:"AUTH_ISSUER"`
	AuthAudience string `env:"AUTH_AUDIENCE"`
	AuthJWKSURL  string `env:"AUTH_JWKS_URL"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	if cfg.MaxMediaBytes <= 0 {
		cfg.MaxMediaBytes = 2 * 1024 * 1024 * 1024
	}

	secret := strings.TrimSpace(cfg.StreamSigningSecret)
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("STREAM_SIGNING_SECRET must be at least %d characters", minSecretLength)
	}
	if _, bad := insecureSecrets[secret]; bad {
		return nil, fmt.Errorf("STREAM_SIGNING_SECRET is set to a well-known placeholder value; generate a real secret")
	}
	cfg.StreamSigningSecret = secret

	if cfg.StreamGrantTTL <= 0 {
		return nil, fmt.Errorf("STREAM_GRANT_TTL must be positive, got %s", cfg.StreamGrantTTL)
	}
	if cfg.StreamClockSkew < 0 {
		return nil, fmt.Errorf("STREAM_CLOCK_SKEW must not be negative, got %s", cfg.StreamClockSkew)
	}

	// External tool invocations need a hard upper bound so a wedged ffmpeg
	// cannot hold a derivation slot forever.
	if cfg.DeriveToolTimeout < 30*time.Second {
		cfg.DeriveToolTimeout = 30 * time.Second
	}
	if cfg.DeriveToolTimeout > 60*time.Second {
		cfg.DeriveToolTimeout = 60 * time.Second
	}
	if len(cfg.DeriveFrameOffsets) == 0 {
		cfg.DeriveFrameOffsets = []time.Duration{3 * time.Second, 5 * time.Second}
	}

	if cfg.IsS3Storage() {
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND is s3")
		}
	}
	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

// IsLocalStorage returns true if the local filesystem backend is configured.
func (c *Config) IsLocalStorage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "local"
}

// IsS3Storage returns true if the S3 backend is configured.
func (c *Config) IsS3Storage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "s3"
}

// IsProduction reports whether the service runs in a production environment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
