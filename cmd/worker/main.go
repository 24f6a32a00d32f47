package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/Chungws/lmarena-clone/internal/config"
	"github.com/Chungws/lmarena-clone/internal/registry"
	"github.com/Chungws/lmarena-clone/internal/repository"
	"github.com/Chungws/lmarena-clone/internal/service"
	"github.com/Chungws/lmarena-clone/pkg/database"
	"github.com/Chungws/lmarena-clone/pkg/distributed"
	"github.com/Chungws/lmarena-clone/pkg/logger"
)

// Standalone aggregation worker. Run this instead of the in-process
// aggregator when API instances scale horizontally.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting aggregation worker", "interval", cfg.AggregationInterval)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	reg, err := registry.Load(cfg.ModelsConfigPath)
	if err != nil {
		logger.Fatal("Failed to load model registry", "error", err)
	}

	var guard service.RunGuard
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid Redis URL", "error", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		hostname, _ := os.Hostname()
		guard = service.NewRedisRunGuard(distributed.NewRedisLockManager(redisClient), hostname)
	} else {
		logger.Warn("Redis not configured, aggregation run guard disabled")
	}

	voteRepo := repository.NewVoteRepository(db)
	statsRepo := repository.NewModelStatsRepository(db)
	workerStatusRepo := repository.NewWorkerStatusRepository(db)
	eloService := service.NewELOService(cfg.InitialELO, cfg.KFactor)

	aggregator := service.NewAggregatorService(
		voteRepo,
		statsRepo,
		workerStatusRepo,
		eloService,
		reg.Metadata(),
		guard,
		nil,
		cfg.AggregationInterval,
	)
	aggregator.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	aggregator.Stop()
	logger.Info("Worker exited")
}
