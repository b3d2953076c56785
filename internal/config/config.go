package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath string
	LogLevel     string
	Port         int
	DevMode      bool

	// RunOnStart triggers a pipeline run immediately at startup.
	RunOnStart bool
	// CronSchedule is the pipeline schedule (6-field cron, seconds first).
	CronSchedule string

	// ScoreFloor is the minimum affinity score for a prediction; members
	// at or below it get the no-interest sentinel.
	ScoreFloor float64

	// Date windows, in months. The scoring reference date is now minus
	// the evaluation window; engagement and RFM windows extend back from
	// the reference date.
	EvalWindowMonths       int
	EngagementWindowMonths int
	RFMShortWindowMonths   int
	RFMLongWindowMonths    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8004),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		DatabasePath: getEnv("DATABASE_PATH", "./data/affinity.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		RunOnStart:   getEnvAsBool("RUN_ON_START", false),
		CronSchedule: getEnv("PIPELINE_SCHEDULE", "0 0 3 * * *"), // 03:00 daily

		ScoreFloor: getEnvAsFloat("SCORE_FLOOR", 0),

		EvalWindowMonths:       getEnvAsInt("EVAL_WINDOW_MONTHS", 4),
		EngagementWindowMonths: getEnvAsInt("ENGAGEMENT_WINDOW_MONTHS", 6),
		RFMShortWindowMonths:   getEnvAsInt("RFM_SHORT_WINDOW_MONTHS", 4),
		RFMLongWindowMonths:    getEnvAsInt("RFM_LONG_WINDOW_MONTHS", 12),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.EvalWindowMonths <= 0 {
		return fmt.Errorf("EVAL_WINDOW_MONTHS must be positive, got %d", c.EvalWindowMonths)
	}
	if c.EngagementWindowMonths <= 0 {
		return fmt.Errorf("ENGAGEMENT_WINDOW_MONTHS must be positive, got %d", c.EngagementWindowMonths)
	}
	if c.RFMShortWindowMonths <= 0 || c.RFMLongWindowMonths <= 0 {
		return fmt.Errorf("RFM window months must be positive")
	}
	if c.RFMShortWindowMonths > c.RFMLongWindowMonths {
		return fmt.Errorf("RFM_SHORT_WINDOW_MONTHS (%d) exceeds RFM_LONG_WINDOW_MONTHS (%d)",
			c.RFMShortWindowMonths, c.RFMLongWindowMonths)
	}
	if c.ScoreFloor < 0 {
		return fmt.Errorf("SCORE_FLOOR must be non-negative, got %v", c.ScoreFloor)
	}
	return nil
}

// Helper functions
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
