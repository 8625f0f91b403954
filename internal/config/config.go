package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Business BusinessConfig `mapstructure:"business"`
	Health   HealthConfig   `mapstructure:"health"`
}

type ServerConfig struct {
	Port string `mapstructure:"SERVER_PORT"`
	Host string `mapstructure:"SERVER_HOST"`
	Env  string `mapstructure:"ENV"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"DATABASE_URL"`
	MaxOpenConns int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

// BusinessConfig carries the billing and lease lifecycle knobs.
type BusinessConfig struct {
	LateFeePerDay             string `mapstructure:"LATE_FEE_PER_DAY"`
	GracePeriodDays           int    `mapstructure:"GRACE_PERIOD_DAYS"`
	DepositWindowHours        int    `mapstructure:"DEPOSIT_WINDOW_HOURS"`
	RentDueDay                int    `mapstructure:"RENT_DUE_DAY"`
	MinBookingDepositFraction string `mapstructure:"MIN_BOOKING_DEPOSIT_FRACTION"`
	ExpiryWarningWindowHours  int    `mapstructure:"EXPIRY_WARNING_WINDOW_HOURS"`
	ReconcileLockTTL          string `mapstructure:"RECONCILE_LOCK_TTL"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LATE_FEE_PER_DAY", "100")
	viper.SetDefault("GRACE_PERIOD_DAYS", 3)
	viper.SetDefault("DEPOSIT_WINDOW_HOURS", 48)
	viper.SetDefault("RENT_DUE_DAY", 5)
	viper.SetDefault("MIN_BOOKING_DEPOSIT_FRACTION", "0.20")
	viper.SetDefault("EXPIRY_WARNING_WINDOW_HOURS", 24)
	viper.SetDefault("RECONCILE_LOCK_TTL", "30s")
	viper.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")

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

	// Validate configuration
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

	if c.Business.GracePeriodDays < 0 {
		return fmt.Errorf("GRACE_PERIOD_DAYS must not be negative")
	}

	if c.Business.DepositWindowHours <= 0 {
		return fmt.Errorf("DEPOSIT_WINDOW_HOURS must be greater than 0")
	}

	if c.Business.RentDueDay < 1 || c.Business.RentDueDay > 28 {
		return fmt.Errorf("RENT_DUE_DAY must be between 1 and 28")
	}

	if fee, err := decimal.NewFromString(c.Business.LateFeePerDay); err != nil || fee.IsNegative() {
		return fmt.Errorf("LATE_FEE_PER_DAY must be a non-negative decimal")
	}

	fraction, err := decimal.NewFromString(c.Business.MinBookingDepositFraction)
	if err != nil || fraction.IsNegative() || fraction.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("MIN_BOOKING_DEPOSIT_FRACTION must be a decimal between 0 and 1")
	}

	if _, err := time.ParseDuration(c.Business.ReconcileLockTTL); err != nil {
		return fmt.Errorf("RECONCILE_LOCK_TTL must be a valid duration: %w", err)
	}

	// Validate health check timeout
	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetLateFeePerDay returns the daily late fee as decimal
func (c *Config) GetLateFeePerDay() decimal.Decimal {
	fee, _ := decimal.NewFromString(c.Business.LateFeePerDay)
	return fee
}

// GetMinBookingDepositFraction returns the minimum booking deposit as a
// fraction of the monthly rent
func (c *Config) GetMinBookingDepositFraction() decimal.Decimal {
	fraction, _ := decimal.NewFromString(c.Business.MinBookingDepositFraction)
	return fraction
}

// GetDepositWindow returns the booking deposit payment window
func (c *Config) GetDepositWindow() time.Duration {
	return time.Duration(c.Business.DepositWindowHours) * time.Hour
}

// GetExpiryWarningWindow returns how far ahead of the deposit deadline a
// warning notification goes out
func (c *Config) GetExpiryWarningWindow() time.Duration {
	return time.Duration(c.Business.ExpiryWarningWindowHours) * time.Hour
}

// GetReconcileLockTTL returns the per-invoice reconciliation lock TTL
func (c *Config) GetReconcileLockTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Business.ReconcileLockTTL)
	return ttl
}

// GetHealthTimeout returns the health check timeout
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}
