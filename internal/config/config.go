// Package config reads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port           int
	DatabasePath   string
	LogLevel       string
	DevMode        bool
	RiskFreeRate   float64 // annual, as a decimal
	LookbackDays   int     // price history window for return tables
	RefreshCron    string  // schedule for the factor-loadings refresh job
	FrontierPoints int     // sampled portfolios per frontier request
}

// Load reads configuration from environment variables, honoring a .env file
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnvAsInt("COMPASS_PORT", 8002),
		DatabasePath:   getEnv("DATABASE_PATH", "./data/history.db"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		RiskFreeRate:   getEnvAsFloat("RISK_FREE_RATE", 0.03),
		LookbackDays:   getEnvAsInt("LOOKBACK_DAYS", 252),
		RefreshCron:    getEnv("LOADINGS_REFRESH_CRON", "0 0 6 * * *"),
		FrontierPoints: getEnvAsInt("FRONTIER_POINTS", 50),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required configuration.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.LookbackDays < 2 {
		return fmt.Errorf("LOOKBACK_DAYS must be at least 2, got %d", c.LookbackDays)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
