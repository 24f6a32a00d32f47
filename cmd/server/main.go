package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Chungws/lmarena-clone/internal/api"
	"github.com/Chungws/lmarena-clone/internal/config"
	"github.com/Chungws/lmarena-clone/internal/registry"
	"github.com/Chungws/lmarena-clone/internal/repository"
	"github.com/Chungws/lmarena-clone/internal/service"
	"github.com/Chungws/lmarena-clone/internal/websocket"
	"github.com/Chungws/lmarena-clone/pkg/database"
	"github.com/Chungws/lmarena-clone/pkg/distributed"
	"github.com/Chungws/lmarena-clone/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting LMArena Backend",
		"port", cfg.Port,
		"env", cfg.Env,
	)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	logger.Info("Database connection established")

	reg, err := registry.Load(cfg.ModelsConfigPath)
	if err != nil {
		logger.Fatal("Failed to load model registry", "error", err)
	}

	logger.Info("Model registry loaded", "activeModels", len(reg.Active()))

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid Redis URL", "error", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	} else {
		logger.Warn("Redis not configured, rate limiting and run guard disabled")
	}

	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Optional in-process aggregation. Disable when running the standalone
	// worker binary instead.
	var aggregator *service.AggregatorService
	if cfg.AggregatorEnabled {
		voteRepo := repository.NewVoteRepository(db)
		statsRepo := repository.NewModelStatsRepository(db)
		workerStatusRepo := repository.NewWorkerStatusRepository(db)
		eloService := service.NewELOService(cfg.InitialELO, cfg.KFactor)

		var guard service.RunGuard
		if redisClient != nil {
			hostname, _ := os.Hostname()
			guard = service.NewRedisRunGuard(distributed.NewRedisLockManager(redisClient), hostname)
		}

		aggregator = service.NewAggregatorService(
			voteRepo,
			statsRepo,
			workerStatusRepo,
			eloService,
			reg.Metadata(),
			guard,
			wsHub,
			cfg.AggregationInterval,
		)
		aggregator.Start()
	}

	router := api.SetupRouter(cfg, db, redisClient, reg, wsHub)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if aggregator != nil {
		aggregator.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
