package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Chungws/lmarena-clone/internal/api/handlers"
	"github.com/Chungws/lmarena-clone/internal/api/middleware"
	"github.com/Chungws/lmarena-clone/internal/config"
	"github.com/Chungws/lmarena-clone/internal/llm"
	"github.com/Chungws/lmarena-clone/internal/registry"
	"github.com/Chungws/lmarena-clone/internal/repository"
	"github.com/Chungws/lmarena-clone/internal/service"
	"github.com/Chungws/lmarena-clone/internal/websocket"
	"github.com/Chungws/lmarena-clone/pkg/database"
	"github.com/Chungws/lmarena-clone/pkg/ratelimit"
)

// SetupRouter wires repositories, services and handlers onto a gin engine.
// The hub is shared with the aggregation worker so leaderboard refreshes
// reach connected clients.
func SetupRouter(cfg *config.Config, db *database.DB, redisClient *redis.Client, reg *registry.Registry, wsHub *websocket.Hub) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	sessionRepo := repository.NewSessionRepository(db)
	battleRepo := repository.NewBattleRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	statsRepo := repository.NewModelStatsRepository(db)
	workerStatusRepo := repository.NewWorkerStatusRepository(db)

	dispatcher := llm.NewClient(llm.Config{
		ConnectTimeout: cfg.LLMConnectTimeout,
		ReadTimeout:    cfg.LLMReadTimeout,
		WriteTimeout:   cfg.LLMWriteTimeout,
		PoolTimeout:    cfg.LLMPoolTimeout,
		RetryAttempts:  cfg.LLMRetryAttempts,
		BackoffBase:    cfg.LLMRetryBackoffBase,
	})

	battleService := service.NewBattleService(sessionRepo, battleRepo, voteRepo, reg, dispatcher, cfg.MaxUserMessages)
	leaderboardService := service.NewLeaderboardService(statsRepo, reg.Names(), cfg.MinLeaderboardVotes)

	sessionHandler := handlers.NewSessionHandler(battleService)
	battleHandler := handlers.NewBattleHandler(battleService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	modelHandler := handlers.NewModelHandler(reg)
	workerStatusHandler := handlers.NewWorkerStatusHandler(workerStatusRepo)
	wsHandler := handlers.NewWebSocketHandler(wsHub)

	// Prompt endpoints are rate limited per IP; reads are not.
	var promptLimit gin.HandlerFunc
	if redisClient != nil {
		limiter := ratelimit.NewRedisRateLimiter(redisClient, "lmarena:ratelimit:")
		promptLimit = middleware.PromptRateLimit(limiter, cfg.PromptRateLimit, cfg.PromptRateWindow)
	} else {
		promptLimit = func(c *gin.Context) { c.Next() }
	}

	router.GET("/health", handlers.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/ws", wsHandler.HandleWebSocket)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", promptLimit, sessionHandler.CreateSession)
			sessions.GET("", sessionHandler.ListSessions)
			sessions.POST("/:sessionId/battles", promptLimit, sessionHandler.CreateBattle)
			sessions.GET("/:sessionId/battles", sessionHandler.ListBattles)
		}

		battles := v1.Group("/battles")
		{
			battles.POST("/:battleId/messages", promptLimit, battleHandler.AddMessage)
			battles.POST("/:battleId/votes", battleHandler.Vote)
		}

		v1.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
		v1.GET("/models", modelHandler.ListModels)
		v1.GET("/worker-status", workerStatusHandler.GetAggregatorStatus)
	}

	return router
}
