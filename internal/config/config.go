package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the simulation host
type Config struct {
	Redis       RedisConfig
	Interpreter InterpreterConfig
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// InterpreterConfig holds overrides for the effect interpreter limits.
// Zero values mean "use the built-in default".
type InterpreterConfig struct {
	MaxOperations       int
	MaxDepth            int
	MaxEntitiesAffected int
	MaxDamagePerEffect  float64
	MaxSpawnsPerEffect  int
	MaxChainDepth       int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
		},
		Interpreter: InterpreterConfig{
			MaxOperations:       getEnvAsIntOrDefault("EFFECT_MAX_OPERATIONS", 0),
			MaxDepth:            getEnvAsIntOrDefault("EFFECT_MAX_DEPTH", 0),
			MaxEntitiesAffected: getEnvAsIntOrDefault("EFFECT_MAX_ENTITIES", 0),
			MaxDamagePerEffect:  getEnvAsFloatOrDefault("EFFECT_MAX_DAMAGE", 0),
			MaxSpawnsPerEffect:  getEnvAsIntOrDefault("EFFECT_MAX_SPAWNS", 0),
			MaxChainDepth:       getEnvAsIntOrDefault("EFFECT_MAX_CHAIN_DEPTH", 0),
		},
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
