package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds the base configuration
type Config struct {
	Server ServerConfig
	Pool   PoolConfig
	App    AppConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PoolConfig struct {
	// MaxWorkers 0 lets the pool pick a CPU-derived default.
	MaxWorkers int
	NamePrefix string
}

type AppConfig struct {
	LogLevel string
	// SubmitRatePerSec caps task submissions through the HTTP API.
	SubmitRatePerSec int
	SubmitBurst      int
}

type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

// Load loads configuration from environment variables with default values
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", ""),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Pool: PoolConfig{
			MaxWorkers: getEnvInt("POOL_MAX_WORKERS", 0),
			NamePrefix: getEnv("POOL_NAME_PREFIX", "worker"),
		},
		App: AppConfig{
			LogLevel:         getEnv("LOG_LEVEL", "info"),
			SubmitRatePerSec: getEnvInt("SUBMIT_RATE_PER_SEC", 20),
			SubmitBurst:      getEnvInt("SUBMIT_BURST", 5),
		},
		Log: LogConfig{
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 10),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
	}
}

// Helper functions to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
