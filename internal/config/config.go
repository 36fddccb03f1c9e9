package config

import (
	"fmt"
	"time"

	"github.com/segyhp/rental-engine/internal/domain"
	"github.com/segyhp/rental-engine/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	EventsDriverRedis = "redis"
	EventsDriverLog   = "log"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Events    EventsConfig    `mapstructure:",squash"`
	Ledger    LedgerConfig    `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Business  BusinessConfig  `mapstructure:",squash"`
	Retry     RetryConfig     `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"STORAGE_DRIVER"`
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type EventsConfig struct {
	Driver         string        `mapstructure:"EVENTS_DRIVER"`
	StreamPrefix   string        `mapstructure:"EVENTS_STREAM_PREFIX"`
	PublishTimeout time.Duration `mapstructure:"EVENTS_PUBLISH_TIMEOUT"`
	StreamMaxLen   int64         `mapstructure:"EVENTS_STREAM_MAXLEN"`
}

type LedgerConfig struct {
	URL     string        `mapstructure:"LEDGER_URL"`
	Timeout time.Duration `mapstructure:"LEDGER_TIMEOUT"`
}

type SchedulerConfig struct {
	Spec string `mapstructure:"SCHEDULER_SPEC"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	MaxRentedItems         int    `mapstructure:"MAX_RENTED_ITEMS"`
	PointsPerBook          string `mapstructure:"POINTS_PER_BOOK"`
	LateFeePoints          string `mapstructure:"LATE_FEE_POINTS"`
	RentalPeriodDays       int    `mapstructure:"RENTAL_PERIOD_DAYS"`
	ResetLateFeeOnRent     bool   `mapstructure:"RESET_LATE_FEE_ON_RENT"`
	RevertToOKOnFullReturn bool   `mapstructure:"REVERT_TO_OK_ON_FULL_RETURN"`
	Timezone               string `mapstructure:"BUSINESS_TIMEZONE"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"RETRY_MAX_ATTEMPTS"`
	BaseDelay   time.Duration `mapstructure:"RETRY_BASE_DELAY"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":                 "8080",
	"SERVER_HOST":                 "0.0.0.0",
	"ENV":                         "development",
	"SERVER_READ_TIMEOUT":         "15s",
	"SERVER_WRITE_TIMEOUT":        "15s",
	"STORAGE_DRIVER":              StorageDriverPostgres,
	"DATABASE_URL":                "",
	"DATABASE_MAX_OPEN_CONNS":     25,
	"DATABASE_MAX_IDLE_CONNS":     5,
	"DATABASE_CONN_MAX_LIFETIME":  "5m",
	"REDIS_HOST":                  "localhost",
	"REDIS_PORT":                  "6379",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"EVENTS_DRIVER":               EventsDriverRedis,
	"EVENTS_STREAM_PREFIX":        "rental",
	"EVENTS_PUBLISH_TIMEOUT":      "3s",
	"EVENTS_STREAM_MAXLEN":        10000,
	"LEDGER_URL":                  "http://localhost:8081",
	"LEDGER_TIMEOUT":              "5s",
	"SCHEDULER_SPEC":              "0 0 1 * * *",
	"LOG_LEVEL":                   "info",
	"LOG_FORMAT":                  "json",
	"MAX_RENTED_ITEMS":            5,
	"POINTS_PER_BOOK":             "30",
	"LATE_FEE_POINTS":             "30",
	"RENTAL_PERIOD_DAYS":          14,
	"RESET_LATE_FEE_ON_RENT":      false,
	"REVERT_TO_OK_ON_FULL_RETURN": true,
	"BUSINESS_TIMEZONE":           "UTC",
	"RETRY_MAX_ATTEMPTS":          5,
	"RETRY_BASE_DELAY":            "10ms",
	"HEALTH_CHECK_TIMEOUT":        "5s",
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Don't fail if .env file doesn't exist; real environment variables win
	_ = godotenv.Load()

	return LoadFrom(viper.New())
}

// LoadFrom reads configuration through v, which may already carry overrides.
func LoadFrom(v *viper.Viper) (*Config, error) {
	// Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Read from environment variables
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
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

	switch c.Database.Driver {
	case StorageDriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage driver")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.Database.Driver)
	}

	switch c.Events.Driver {
	case EventsDriverRedis, EventsDriverLog:
	default:
		return fmt.Errorf("EVENTS_DRIVER must be %q or %q, got %q", EventsDriverRedis, EventsDriverLog, c.Events.Driver)
	}

	if c.Business.MaxRentedItems <= 0 {
		return fmt.Errorf("MAX_RENTED_ITEMS must be greater than 0")
	}

	if c.Business.RentalPeriodDays <= 0 {
		return fmt.Errorf("RENTAL_PERIOD_DAYS must be greater than 0")
	}

	// Point amounts are whole, non-negative numbers
	if _, ok := utils.ParsePoints(c.Business.PointsPerBook); !ok {
		return fmt.Errorf("POINTS_PER_BOOK must be a non-negative integer, got %q", c.Business.PointsPerBook)
	}
	if _, ok := utils.ParsePoints(c.Business.LateFeePoints); !ok {
		return fmt.Errorf("LATE_FEE_POINTS must be a non-negative integer, got %q", c.Business.LateFeePoints)
	}

	if _, err := time.LoadLocation(c.Business.Timezone); err != nil {
		return fmt.Errorf("BUSINESS_TIMEZONE must be a valid IANA zone: %w", err)
	}

	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be greater than 0")
	}

	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("RETRY_BASE_DELAY must not be negative")
	}

	if c.Events.PublishTimeout <= 0 {
		return fmt.Errorf("EVENTS_PUBLISH_TIMEOUT must be greater than 0")
	}

	if c.Ledger.Timeout <= 0 {
		return fmt.Errorf("LEDGER_TIMEOUT must be greater than 0")
	}

	// Validate scheduler spec (seconds field included)
	if _, err := cron.NewParser(cronFields).Parse(c.Scheduler.Spec); err != nil {
		return fmt.Errorf("SCHEDULER_SPEC must be a valid cron expression: %w", err)
	}

	return nil
}

// cronFields matches cron.WithSeconds().
const cronFields = cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// Addr is the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// RedisAddr is the host:port of the Redis server
func (c *Config) RedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}

// Location returns the business timezone used to date rentals and returns
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Business.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Policy builds the rental rules from the business settings
func (c *Config) Policy() domain.Policy {
	pointsPerBook, _ := decimal.NewFromString(c.Business.PointsPerBook)
	lateFee, _ := decimal.NewFromString(c.Business.LateFeePoints)

	return domain.Policy{
		MaxItems:               c.Business.MaxRentedItems,
		PointsPerBook:          pointsPerBook,
		LateFeePerOverdue:      lateFee,
		ResetLateFeeOnRent:     c.Business.ResetLateFeeOnRent,
		RevertToOKOnFullReturn: c.Business.RevertToOKOnFullReturn,
	}
}
