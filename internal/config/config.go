package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the stats worker.
type Config struct {
	MongoURL      string
	MongoDatabase string
	RedisURL      string
	RedisQueue    string
	HTTPAddr      string
	WorkerCount   int
	JobBufferSize int
}

// Load builds a Config from environment variables. A .env file is picked up
// when present; its absence is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		MongoURL:      os.Getenv("MONGODB_URL"),
		MongoDatabase: os.Getenv("MONGODB_NAME"),
		RedisURL:      os.Getenv("REDIS_URL"),
		RedisQueue:    os.Getenv("REDIS_QUEUE"),
		HTTPAddr:      os.Getenv("HTTP_ADDR"),
	}

	if cfg.MongoURL == "" {
		return nil, fmt.Errorf("MONGODB_URL is required")
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = "bishl"
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.RedisQueue == "" {
		cfg.RedisQueue = "recompute_matches"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8085"
	}

	var err error
	cfg.WorkerCount, err = intFromEnv("WORKER_COUNT", 1)
	if err != nil {
		return nil, err
	}
	cfg.JobBufferSize, err = intFromEnv("JOB_BUFFER_SIZE", 16)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func intFromEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if value < 1 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, value)
	}
	return value, nil
}
