package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-service/internal/api/handlers"
	"auction-service/internal/config"
	"auction-service/internal/domain"
	"auction-service/internal/infrastructure/leader"
	"auction-service/internal/infrastructure/listing"
	"auction-service/internal/infrastructure/mongodb"
	appredis "auction-service/internal/infrastructure/redis"
	ws "auction-service/internal/infrastructure/websocket"
	"auction-service/internal/services"
	"auction-service/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting Auction Service")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	log.Info("Configuration loaded", "config", cfg.GetConfigString())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
	defer cancel()

	// Initialize MongoDB
	mongoClient, err := mongodb.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		log.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}()
	log.Info("Connected to MongoDB", "database", cfg.Mongo.Database)

	coll := mongoClient.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	store := mongodb.NewMongoAuctionStore(coll)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Error("Failed to ensure indexes", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize collaborators
	listingClient := listing.NewClient(cfg.Listing.BaseURL, cfg.Listing.Timeout)
	eventPublisher := appredis.NewEventPublisher(rdb)
	eventSubscriber := appredis.NewEventSubscriber(rdb, log)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	// Initialize the lifecycle core
	lifecycle := services.NewAuctionLifecycle(store, listingClient, eventPublisher, log)

	// Initialize the expiry sweeper
	sweeper := services.NewExpirySweeper(
		store,
		lifecycle,
		leaderElection,
		cfg.Instance.ID,
		cfg.Sweeper.Interval,
		log,
	)

	// Live feed: replay events from Redis to websocket watchers
	connManager := ws.NewConnectionManager(log)
	feedHandler := ws.NewFeedHandler(connManager, log)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	go func() {
		err := eventSubscriber.SubscribeToAuctionEvents(runCtx, func(event *domain.AuctionEvent) error {
			return connManager.BroadcastToAuction(event.AuctionID, event)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Event subscriber exited", "error", err)
		}
	}()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
	}))

	// Initialize handlers
	auctionHandler := handlers.NewAuctionHandler(lifecycle, log)

	// API routes
	api := e.Group("/api/v1")
	api.POST("/auctions/generate-from-listings", auctionHandler.GenerateFromListings)
	api.GET("/auctions", auctionHandler.ListAuctions)
	api.GET("/auctions/winner/:winnerId", auctionHandler.ListByWinner)
	api.GET("/auctions/:id", auctionHandler.GetAuction)
	api.POST("/auctions/:id/bid", auctionHandler.PlaceBid)
	api.POST("/auctions/:id/open", auctionHandler.OpenAuction)
	api.POST("/auctions/:id/close", auctionHandler.CloseAuction)
	api.GET("/auctions/:id/winner", auctionHandler.GetWinner)
	api.PUT("/auctions/:id/pickup", auctionHandler.MarkPickedUp)

	// Live feed
	e.GET("/ws/auctions/:id", func(c echo.Context) error {
		return feedHandler.HandleConnection(c.Response(), c.Request(), c.Param("id"))
	})

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-service",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Start background services
	if cfg.Sweeper.Enabled {
		go func() {
			if err := sweeper.Start(runCtx); err != nil {
				log.Error("Failed to start expiry sweeper", "error", err)
			}
		}()
	}

	// Try to become leader
	go func() {
		for {
			became, err := leaderElection.BecomeLeader(runCtx, cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if became {
				log.Info("Became sweeper leader", "instance_id", cfg.Instance.ID)
			}
			select {
			case <-runCtx.Done():
				return
			case <-time.After(10 * time.Second):
			}
		}
	}()

	// Start server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting HTTP server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction service...")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if cfg.Sweeper.Enabled {
		if err := sweeper.Stop(); err != nil {
			log.Error("Failed to stop expiry sweeper", "error", err)
		}
	}
	if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction service stopped")
}
