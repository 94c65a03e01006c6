package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/fleetcab/billing-engine/internal/domain"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Ledger    LedgerConfig    `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Billing   BillingConfig   `mapstructure:",squash"`
}

type ServerConfig struct {
	Port string `mapstructure:"SERVER_PORT"`
	Host string `mapstructure:"SERVER_HOST"`
	Env  string `mapstructure:"ENV"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime string `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type LedgerConfig struct {
	BaseURL string `mapstructure:"LEDGER_BASE_URL"`
	Timeout string `mapstructure:"LEDGER_TIMEOUT"`
}

type SchedulerConfig struct {
	PostingCron string `mapstructure:"POSTING_CRON"`
	Timezone    string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BillingConfig struct {
	// MatrixTiers is an ordered "upper:weekly" list. An upper bound of 0
	// marks the open-ended final tier; a weekly amount of 0 means pay in
	// full as a single installment.
	MatrixTiers    string `mapstructure:"MATRIX_TIERS"`
	LoanPrefix     string `mapstructure:"LOAN_ID_PREFIX"`
	RepairPrefix   string `mapstructure:"REPAIR_ID_PREFIX"`
	PostingLockTTL string `mapstructure:"POSTING_LOCK_TTL"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LEDGER_TIMEOUT", "10s")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("MATRIX_TIERS", "200:0,500:100,1000:200,3000:250,0:300")
	viper.SetDefault("LOAN_ID_PREFIX", "DL")
	viper.SetDefault("REPAIR_ID_PREFIX", "RI")
	viper.SetDefault("POSTING_LOCK_TTL", "5m")
	// Posting window: Sundays at 06:00
	viper.SetDefault("POSTING_CRON", "0 0 6 * * SUN")
	viper.SetDefault("SCHEDULER_TIMEZONE", "America/New_York")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Ledger.BaseURL == "" {
		return fmt.Errorf("LEDGER_BASE_URL is required")
	}

	if _, err := time.ParseDuration(c.Database.ConnMaxLifetime); err != nil {
		return fmt.Errorf("DATABASE_CONN_MAX_LIFETIME must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Ledger.Timeout); err != nil {
		return fmt.Errorf("LEDGER_TIMEOUT must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Billing.PostingLockTTL); err != nil {
		return fmt.Errorf("POSTING_LOCK_TTL must be a valid duration: %w", err)
	}

	if _, err := c.Matrix(); err != nil {
		return fmt.Errorf("MATRIX_TIERS is invalid: %w", err)
	}

	return nil
}

// Matrix parses the configured tier table into a repayment matrix.
func (c *Config) Matrix() (*domain.RepaymentMatrix, error) {
	parts := strings.Split(c.Billing.MatrixTiers, ",")
	tiers := make([]domain.RepaymentTier, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		bounds := strings.Split(part, ":")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("tier %q must be upper:weekly", part)
		}

		upper, err := decimal.NewFromString(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("tier %q has an invalid upper bound: %w", part, err)
		}

		weekly, err := decimal.NewFromString(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("tier %q has an invalid weekly amount: %w", part, err)
		}

		tiers = append(tiers, domain.RepaymentTier{UpperBound: upper, Weekly: weekly})
	}

	return domain.NewRepaymentMatrix(tiers)
}

// IDPrefix returns the obligation id prefix for a kind.
func (c *Config) IDPrefix(kind string) string {
	if kind == domain.ObligationKindRepair {
		return c.Billing.RepairPrefix
	}
	return c.Billing.LoanPrefix
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// GetConnMaxLifetime returns the database connection lifetime as duration
func (c *Config) GetConnMaxLifetime() time.Duration {
	d, _ := time.ParseDuration(c.Database.ConnMaxLifetime)
	return d
}

// GetLedgerTimeout returns the ledger client timeout as duration
func (c *Config) GetLedgerTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Ledger.Timeout)
	return d
}

// GetPostingLockTTL returns the posting run lock TTL as duration
func (c *Config) GetPostingLockTTL() time.Duration {
	d, _ := time.ParseDuration(c.Billing.PostingLockTTL)
	return d
}
