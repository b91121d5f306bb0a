package main

import (
	"auctionhouse/internal/config"
	"auctionhouse/internal/database/db_client"
	"auctionhouse/internal/http/http_server"
	"auctionhouse/internal/notify"
	"auctionhouse/internal/redis/redis_client"
	"auctionhouse/internal/services/auction"
	"auctionhouse/internal/settler"
	"auctionhouse/internal/ws"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client
	var auctionService auction.IAuctionService

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (fan-out channel + idempotency/settle keys)
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// 4. Postgres db client, sole authority for auction state
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	if err := db_client.Bootstrap(ctx, pgDb); err != nil {
		Log.Fatal("pg-bootstrap", zap.Error(err))
	}

	// 5. Bid engine with the Redis-backed notifier
	notifier := notify.NewRedisNotifier(redisClient)
	auctionService = auction.NewAuctionService(pgDb, redisClient, notifier, cfg.DefaultBidIncrement)

	// 6. Background: settle auctions whose end time passed
	settler.Run(ctx, cfg.SettleInterval, auctionService)

	// 7. WebSockets hub + Redis fan-out
	hub := ws.NewHub()

	// 8. Initialize the WS server
	wsSrv := ws.NewWsServer(hub, redisClient, auctionService)

	// 9. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, auctionService)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
