package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	Ledger       DatabaseConfig
	ReceiptIndex DatabaseConfig
	Blob         BlobConfig
	Cache        CacheConfig
	Sweep        SweepConfig
}

// DatabaseConfig describes one of the two independent stores. The ledger and
// the receipt index connect separately and share nothing.
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type BlobConfig struct {
	RootDir string
}

type CacheConfig struct {
	Addr      string
	Password  string
	DB        int
	ReportTTL time.Duration
}

type SweepConfig struct {
	Interval    time.Duration
	GracePeriod time.Duration
	RatePerSec  float64
}

// Load builds the configuration from environment variables, reading an
// optional .env file first. Missing values fall back to development defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		Ledger: DatabaseConfig{
			Host:            getEnv("LEDGER_DB_HOST", "localhost"),
			Port:            getEnv("LEDGER_DB_PORT", "5432"),
			User:            getEnv("LEDGER_DB_USER", "expense_user"),
			Password:        getEnv("LEDGER_DB_PASSWORD", ""),
			Name:            getEnv("LEDGER_DB_NAME", "expense_ledger"),
			SSLMode:         getEnv("LEDGER_DB_SSLMODE", "disable"),
			MaxConnections:  getIntEnv("LEDGER_DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:    getIntEnv("LEDGER_DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("LEDGER_DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		ReceiptIndex: DatabaseConfig{
			Host:            getEnv("RECEIPT_DB_HOST", "localhost"),
			Port:            getEnv("RECEIPT_DB_PORT", "5432"),
			User:            getEnv("RECEIPT_DB_USER", "receipt_user"),
			Password:        getEnv("RECEIPT_DB_PASSWORD", ""),
			Name:            getEnv("RECEIPT_DB_NAME", "receipt_index"),
			SSLMode:         getEnv("RECEIPT_DB_SSLMODE", "disable"),
			MaxConnections:  getIntEnv("RECEIPT_DB_MAX_CONNECTIONS", 10),
			MaxIdleConns:    getIntEnv("RECEIPT_DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getDurationEnv("RECEIPT_DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Blob: BlobConfig{
			RootDir: getEnv("BLOB_STORE_ROOT", "data/blobs"),
		},
		Cache: CacheConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getIntEnv("REDIS_DB", 0),
			ReportTTL: getDurationEnv("REPORT_CACHE_TTL", 10*time.Minute),
		},
		Sweep: SweepConfig{
			Interval:    getDurationEnv("ORPHAN_SWEEP_INTERVAL", time.Hour),
			GracePeriod: getDurationEnv("ORPHAN_SWEEP_GRACE", 24*time.Hour),
			RatePerSec:  float64(getIntEnv("ORPHAN_SWEEP_RATE", 50)),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
