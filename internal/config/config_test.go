package config

import (
	"testing"

	"github.com/mstrueby/bishl-backend/internal/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MONGODB_URL", "mongodb://localhost:27017")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("MONGODB_NAME", "")
	t.Setenv("REDIS_QUEUE", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("WORKER_COUNT", "")
	t.Setenv("JOB_BUFFER_SIZE", "")

	cfg, err := Load()
	assert.NilError(t, err)
	assert.Equal(t, cfg.MongoDatabase, "bishl")
	assert.Equal(t, cfg.RedisQueue, "recompute_matches")
	assert.Equal(t, cfg.HTTPAddr, ":8085")
	assert.Equal(t, cfg.WorkerCount, 1)
	assert.Equal(t, cfg.JobBufferSize, 16)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MONGODB_URL", "mongodb://db:27017")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("MONGODB_NAME", "bishl_test")
	t.Setenv("REDIS_QUEUE", "recompute_test")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("WORKER_COUNT", "4")
	t.Setenv("JOB_BUFFER_SIZE", "64")

	cfg, err := Load()
	assert.NilError(t, err)
	assert.Equal(t, cfg.MongoDatabase, "bishl_test")
	assert.Equal(t, cfg.RedisQueue, "recompute_test")
	assert.Equal(t, cfg.HTTPAddr, ":9000")
	assert.Equal(t, cfg.WorkerCount, 4)
	assert.Equal(t, cfg.JobBufferSize, 64)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("MONGODB_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without MONGODB_URL")
	}

	t.Setenv("MONGODB_URL", "mongodb://localhost:27017")
	t.Setenv("REDIS_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without REDIS_URL")
	}
}

func TestLoadInvalidWorkerCount(t *testing.T) {
	t.Setenv("MONGODB_URL", "mongodb://localhost:27017")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	for _, bad := range []string{"zero", "0", "-2"} {
		t.Setenv("WORKER_COUNT", bad)
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for WORKER_COUNT=%q", bad)
		}
	}
}
