package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"casino-miniapp-backend/internal/config"
	"casino-miniapp-backend/internal/events"
	"casino-miniapp-backend/internal/handlers"
	"casino-miniapp-backend/internal/logger"
	"casino-miniapp-backend/internal/middleware"
	"casino-miniapp-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	tables, err := config.LoadGameTables(cfg.Games.TablesFile)
	if err != nil {
		zlog.Fatal("failed to load game tables", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rdb *redis.Client
	if needsRedis(cfg) {
		rdb, err = connectRedis(ctx, cfg)
		if err != nil {
			zlog.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	store, err := openStore(ctx, cfg, rdb, zlog)
	if err != nil {
		zlog.Fatal("failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer store.Close()

	var locker services.AccountLocker = services.NewLocalLocker()
	if cfg.Ledger.Lock == "redis" {
		locker = services.NewRedisLocker(rdb, cfg.Ledger.LockTTL)
	}
	var limiter services.RateLimiter = services.NewLocalRateLimiter()
	if rdb != nil {
		limiter = services.NewRedisRateLimiter(rdb)
	}

	ledger := services.NewLedgerService(store, locker, services.NewBalanceCache(cfg.Ledger.BalanceCacheTTL), zlog)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		kafka, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			zlog.Fatal("failed to create kafka producer", zap.Error(err))
		}
		publisher = kafka
	}
	defer publisher.Close()
	dispatcher := events.NewDispatcher(publisher, cfg.Kafka.MaxRetries, zlog)

	hub := handlers.NewWebSocketHub(zlog)
	go hub.Run(ctx)

	maxBet, _ := cfg.Games.MaxBetAmount()
	gameEngine := services.NewGameEngine(ledger,
		services.WithTables(tables),
		services.WithBroadcaster(hub),
		services.WithEvents(dispatcher),
		services.WithCrashTick(cfg.Games.CrashTick),
		services.WithMaxBet(maxBet),
		services.WithLogger(zlog),
	)
	retrier := services.NewSettlementRetrier(gameEngine, cfg.Ledger.SettlementRetryInterval, zlog)

	rate, _ := cfg.Ledger.Rate()
	sandboxLimit, _ := cfg.Ledger.SandboxLimit()
	deposits := services.NewDepositService(services.NewSandboxGateway(sandboxLimit), ledger, rate, zlog)

	jwtService := services.NewJWTService(cfg.JWT.Secret, cfg.JWT.TTL)

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		dispatcher.Start(ctx)
	}()
	go func() {
		defer workers.Done()
		retrier.Start(ctx)
	}()

	go func() {
		ticker := time.NewTicker(cfg.Games.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := gameEngine.CleanupStaleGames(ctx, cfg.Games.StaleAfter); n > 0 {
					zlog.Info("cleaned up stale rounds", zap.Int("count", n))
				}
			}
		}
	}()

	gameHandler := handlers.NewGameHandler(gameEngine, ledger)
	userHandler := handlers.NewUserHandler(ledger)
	walletHandler := handlers.NewWalletHandler(deposits)
	wsHandler := handlers.NewWebSocketHandler(hub, ledger, zlog)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(zlog))

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(limiter, cfg.RateLimit, zlog))
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.GET("/ws", wsHandler.HandleWebSocket)

		protected.POST("/wallet/deposit", walletHandler.Deposit)

		games := protected.Group("/games")
		{
			games.POST("/bet", gameHandler.PlaceBet)
			games.POST("/cashout", gameHandler.Cashout)
			games.GET("/balance", gameHandler.GetBalance)
			games.GET("/active", gameHandler.GetActiveGames)
			games.GET("/history", gameHandler.GetGameHistory)
			games.GET("/:id", gameHandler.GetRound)
			games.POST("/:id/retry-settlement", gameHandler.RetrySettlement)

			mines := games.Group("/mines")
			{
				mines.POST("/reveal", gameHandler.RevealMine)
				mines.POST("/cashout", gameHandler.Cashout)
			}

			blackjack := games.Group("/blackjack")
			{
				blackjack.POST("/hit", gameHandler.Hit)
				blackjack.POST("/stand", gameHandler.Stand)
			}
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}

	gameEngine.Stop()
	retrier.Stop()
	dispatcher.Stop()
	workers.Wait()
	cancel()

	if n := gameEngine.PendingSettlements(); n > 0 {
		zlog.Warn("exiting with unsettled credits", zap.Int("count", n))
	}
	zlog.Info("server stopped")
}
