package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `env:",prefix=SERVER_"`

	// Database configuration
	Database DatabaseConfig `env:",prefix=DB_"`

	// Application configuration
	App AppConfig `env:",prefix=APP_"`

	// User/role validator collaborator
	Validator ValidatorConfig `env:",prefix=VALIDATOR_"`

	// Promotion notification collaborator
	Notifier NotifierConfig `env:",prefix=NOTIFIER_"`

	// Campaign expiry sweeper
	Sweeper SweeperConfig `env:",prefix=SWEEPER_"`

	// Store image blob storage
	Blob BlobConfig `env:",prefix=BLOB_"`

	// Claim endpoint rate limiting
	Rate RateConfig `env:",prefix=RATE_"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string `env:"PORT,default=8080"`
	Host         string `env:"HOST,default=0.0.0.0"`
	ReadTimeout  int    `env:"READ_TIMEOUT,default=30"`  // seconds
	WriteTimeout int    `env:"WRITE_TIMEOUT,default=30"` // seconds
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=postgres"`
	Password string `env:"PASSWORD,default=postgres"`
	Name     string `env:"NAME,default=promo_service"`
	SSLMode  string `env:"SSL_MODE,default=disable"`
	MaxConns int    `env:"MAX_CONNS,default=25"`
	MinConns int    `env:"MIN_CONNS,default=5"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	Debug       bool   `env:"DEBUG,default=false"`
}

// ValidatorConfig holds the user/role validator client configuration
type ValidatorConfig struct {
	BaseURL   string        `env:"BASE_URL,default=http://localhost:9090"`
	Timeout   time.Duration `env:"TIMEOUT,default=5s"`
	CacheSize int           `env:"CACHE_SIZE,default=1024"`
	CacheTTL  time.Duration `env:"CACHE_TTL,default=30s"`
}

// NotifierConfig holds the promotion notification publisher configuration
type NotifierConfig struct {
	URL     string        `env:"URL,default=http://localhost:9091/notifications"`
	Timeout time.Duration `env:"TIMEOUT,default=5s"`
}

// SweeperConfig holds the expiry sweeper configuration
type SweeperConfig struct {
	Enabled  bool          `env:"ENABLED,default=true"`
	Interval time.Duration `env:"INTERVAL,default=1m"`
}

// BlobConfig holds the S3-compatible store image bucket configuration.
// Blob storage is optional; an empty bucket disables image upload.
type BlobConfig struct {
	Region   string `env:"REGION,default=us-east-1"`
	Bucket   string `env:"BUCKET"`
	Key      string `env:"KEY"`
	Secret   string `env:"SECRET"`
	Endpoint string `env:"ENDPOINT"`
}

// RateConfig holds the claim endpoint rate limit configuration
type RateConfig struct {
	ClaimRPS   float64 `env:"CLAIM_RPS,default=500"`
	ClaimBurst int     `env:"CLAIM_BURST,default=100"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// GetDatabaseURL returns the PostgreSQL connection URL
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if running in development environment
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
