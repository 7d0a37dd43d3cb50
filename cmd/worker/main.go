package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/mstrueby/bishl-backend/internal/config"
	"github.com/mstrueby/bishl-backend/internal/db"
	"github.com/mstrueby/bishl-backend/internal/logging"
	"github.com/mstrueby/bishl-backend/internal/processor"
	"github.com/mstrueby/bishl-backend/internal/queue"
	"github.com/mstrueby/bishl-backend/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("config load failed: %v", err)
		os.Exit(1)
	}

	client, err := db.Connect(ctx, cfg.MongoURL)
	if err != nil {
		logger.Errorf("mongodb connection failed: %v", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Errorf("invalid redis url: %v", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	database := client.Database(cfg.MongoDatabase)
	matchReader := db.NewMatchReader(database)
	tournamentReader := db.NewTournamentReader(database)
	derivedWriter := db.NewDerivedWriter(database)

	proc := processor.NewRecomputeProcessor(ctx, matchReader, tournamentReader, derivedWriter)
	q := queue.NewRedisQueue(redisClient)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.New(q, cfg.RedisQueue, tournamentReader).Router(),
	}
	go func() {
		logger.Infof("http listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("http server ended: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	handler := func(payload []byte) error {
		return proc.Handle(payload)
	}

	if cfg.WorkerCount > 1 {
		logger.Infof("starting concurrent consumption with %d workers", cfg.WorkerCount)
		if err := q.ConsumeConcurrent(ctx, cfg.RedisQueue, cfg.WorkerCount, cfg.JobBufferSize, handler); err != nil && ctx.Err() == nil {
			logger.Errorf("queue consumption ended: %v", err)
			os.Exit(1)
		}
	} else {
		logger.Infof("starting single-threaded consumption")
		if err := q.Consume(ctx, cfg.RedisQueue, handler); err != nil && ctx.Err() == nil {
			logger.Errorf("queue consumption ended: %v", err)
			os.Exit(1)
		}
	}
}
