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

	"github.com/labstack/echo/v4"

	"onusone/config"
	"onusone/handlers"
	"onusone/middleware"
	"onusone/services"
)

func main() {
	// 1. Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("=== Configuration ===")
	log.Printf("Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Sweep interval: %v, payout interval: %v", cfg.SweepIntervalDuration(), cfg.PayoutIntervalDuration())
	if cfg.Ledger.Endpoint != "" {
		log.Printf("Ledger: %s", cfg.Ledger.Endpoint)
	} else {
		log.Println("⚠️ Ledger not configured, burns will fail until LEDGER_ENDPOINT and LEDGER_TREASURY are set")
	}

	// 2. Core Services
	// MongoDB
	mongoService, err := services.NewMongoService(cfg)
	if err != nil {
		log.Printf("⚠️ MongoDB connection failed: %v", err)
		log.Println("History persistence will be disabled")
		mongoService = nil
	}
	if mongoService != nil {
		defer mongoService.Close()
	}

	// Ledger client
	ledger := services.NewLedgerClient(cfg)

	// Content store
	store := services.NewMemoryContentStore()

	// Orchestration engine
	engine := services.NewEngine(cfg, store, ledger, mongoService)

	// Snapshot cache (Redis with in-memory fallback)
	cache := services.NewSnapshotCache(cfg)

	// Discord notifier
	notifier, err := services.NewDiscordNotifier(cfg.Discord.BotToken, cfg.Discord.ChannelID, engine.SystemStatus)
	if err != nil {
		log.Printf("⚠️ Discord notifier failed to start: %v", err)
		notifier = nil
	}

	// 3. Start Background Services
	log.Println("=== Starting Services ===")
	engine.Start()
	if notifier != nil {
		notifier.Run(engine.Bus)
	}
	log.Println("=== All Services Running ===")

	// 4. Web Server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.LoggerMiddleware())
	e.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Recovered from panic: %v", r)
					c.Error(fmt.Errorf("internal server error"))
				}
			}()
			return next(c)
		}
	})

	// 5. Handlers
	h := handlers.NewHandler(cfg, engine, cache, mongoService)

	// 6. Routes
	// System
	e.GET("/health", h.HealthCheck)

	api := e.Group("/api")

	// Engine control
	api.GET("/status", h.GetStatus)
	api.GET("/economics", h.GetEconomics)
	api.POST("/cycle", h.ForceCycle)
	api.POST("/sweep", h.ForceSweep)
	api.POST("/emergency/reset", h.ResetEmergency)

	// Network metrics
	api.GET("/metrics", h.GetMetrics)
	api.POST("/metrics", h.UpdateMetrics)

	// Content
	content := api.Group("/content")
	content.POST("", h.CreateContent)
	content.GET("", h.ListContent)
	content.GET("/:id", h.GetContent)
	content.POST("/:id/engage", h.EngageContent)
	content.POST("/:id/boost", h.BoostContent)
	content.GET("/:id/burns", h.GetBurnHistory)

	// Payouts
	payouts := api.Group("/payouts")
	payouts.GET("/batches", h.GetPayoutBatches)
	payouts.GET("/users/:id", h.GetUserPayouts)

	// Profiles
	profiles := api.Group("/profiles")
	profiles.POST("", h.CreateProfile)
	profiles.GET("/:id", h.GetProfile)
	profiles.POST("/:id/stake", h.StakeProfile)
	profiles.POST("/:id/unstake", h.UnstakeProfile)
	profiles.POST("/:id/performance", h.UpdatePerformance)

	// 7. Start Server with Graceful Shutdown
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		log.Printf("🚀 Server running on http://%s", serverAddr)

		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("shutting down the server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Graceful shutdown initiated...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop Background Services
	log.Println("Stopping services...")
	if notifier != nil {
		notifier.Stop()
	}
	engine.Shutdown()
	cache.Stop()
	log.Println("✓ All services stopped")

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	log.Println("✓ Server exited cleanly")
}
