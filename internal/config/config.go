package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string `validate:"required,numeric"`
	DatabaseType   string `validate:"omitempty,oneof=sqlite sqlite3 postgres postgresql mysql"`
	DatabasePath   string
	DatabaseURL    string `validate:"required_if=DatabaseType postgres,required_if=DatabaseType postgresql,required_if=DatabaseType mysql"`
	MigrationsPath string `validate:"required"`

	// Roster batching for the admin list and the overview scan
	RosterBatchSize    int `validate:"gte=1,ltefield=RosterMaxBatchSize"`
	RosterMaxBatchSize int `validate:"gte=1"`
	FetchTimeout       time.Duration

	// Requests per minute per client IP on the admin endpoints
	AdminRateLimit int `validate:"gte=1"`

	// Parent digest email (SES)
	AWSRegion    string
	SESFromEmail string `validate:"omitempty,email"`
	SESFromName  string
	AppBaseURL   string `validate:"omitempty,url"`

	Debug bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	return &Config{
		ServerPort:         getEnv("PORT", "8080"),
		DatabaseType:       strings.ToLower(getEnv("DATABASE_TYPE", "sqlite")),
		DatabasePath:       getEnv("DB_PATH", "./mathclub.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MigrationsPath:     getEnv("MIGRATIONS_PATH", "./migrations"),
		RosterBatchSize:    getIntEnv("ROSTER_BATCH_SIZE", 50),
		RosterMaxBatchSize: getIntEnv("ROSTER_MAX_BATCH_SIZE", 200),
		FetchTimeout:       getDurationEnv("FETCH_TIMEOUT", 10*time.Second),
		AdminRateLimit:     getIntEnv("ADMIN_RATE_LIMIT", 120),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:       getEnv("SES_FROM_EMAIL", ""),
		SESFromName:        getEnv("SES_FROM_NAME", "MathClub"),
		AppBaseURL:         getEnv("APP_BASE_URL", "http://localhost:8080"),
		Debug:              getBoolEnv("DEBUG", false),
	}
}

// Validate checks the loaded values for consistency
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
