package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	BackendURL      string
	UploadMaxSize   int64
	RateLimit       int
	RateLimitWindow time.Duration
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:      getEnv("PORT", "3001"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:   os.Getenv("GEMINI_BASE_URL"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:3001"),
		UploadMaxSize:   5 * 1024 * 1024, // 5MB
		RateLimit:       getEnvInt("RATE_LIMIT", 30),
		RateLimitWindow: time.Minute,
	}
}

// Validate checks the configuration a server cannot run without
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return errors.New("missing GEMINI_API_KEY environment variable")
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
