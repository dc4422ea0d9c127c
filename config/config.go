package config

import (
	"fmt"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds all application settings, loaded from the environment.
type Config struct {
	Port         string
	DBDriver     string
	DBDSN        string
	PaymentDelay time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		DBDriver:     getEnv("DB_DRIVER", "sqlite"),
		DBDSN:        getEnv("DB_DSN", "foody.db"),
		PaymentDelay: 2 * time.Second,
	}

	if v := os.Getenv("PAYMENT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PaymentDelay = d
		}
	}

	return cfg
}

// InitDB opens the configured database.
func InitDB(cfg Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DBDSN), &gorm.Config{})
	case "mysql":
		return gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
