package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process settings read from the environment.
type Config struct {
	Port         string
	DBPath       string
	LogLevel     string
	LogJSON      bool
	ReapInterval time.Duration
	ReapGrace    time.Duration
}

// Load reads the environment, after loading an optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", "8080"),
		DBPath:       getEnv("DB_PATH", "games.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogJSON:      getBool("LOG_JSON", false),
		ReapInterval: getDuration("REAP_INTERVAL", 10*time.Second),
		ReapGrace:    getDuration("REAP_GRACE", 10*time.Second),
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
