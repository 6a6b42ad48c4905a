// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"event-ticketing/cmd"
	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/messaging"
	"event-ticketing/internal/usecase"
	"event-ticketing/internal/wire"
	"event-ticketing/pkg/database"
	"event-ticketing/pkg/middleware"
	"event-ticketing/pkg/qrtoken"
	"event-ticketing/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	refs, err := utils.NewRefGenerator(config.Snowflake.Node)
	if err != nil {
		logger.Fatal("Failed to init reference generator", zap.Error(err))
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, refs, logger)

	if n, err := repos.Session.CleanExpiredSessions(context.Background()); err != nil {
		logger.Warn("Failed to clean expired sessions", zap.Error(err))
	} else if n > 0 {
		logger.Info("Expired sessions removed", zap.Int64("count", n))
	}

	deps := wire.Deps{
		Dependencies: usecase.Dependencies{
			Events:     newPublisher(config.RabbitMQ, logger),
			QR:         qrtoken.New(config.QR.Secret),
			HTTPClient: &http.Client{Timeout: config.MoMo.Timeout + 5*time.Second},
		},
	}
	defer deps.Events.Close()

	if rdb := newRedis(config.Redis, logger); rdb != nil {
		defer rdb.Close()
		deps.Limiter = middleware.NewRedisCounter(rdb)
	}

	// Wire all dependencies
	app := wire.Wiring(repos, config, deps, logger)

	if err := cmd.APIServer(app.Router, config.App, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}

// newPublisher connects to RabbitMQ, falling back to a no-op publisher.
func newPublisher(cfg utils.RabbitMQConfig, logger *zap.Logger) messaging.Publisher {
	if cfg.URL == "" {
		logger.Info("RabbitMQ not configured, domain events disabled")
		return messaging.Noop{}
	}
	pub, err := messaging.NewRabbitMQPublisher(cfg.URL, cfg.Exchange, logger)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, domain events disabled", zap.Error(err))
		return messaging.Noop{}
	}
	logger.Info("RabbitMQ connected", zap.String("exchange", cfg.Exchange))
	return pub
}

// newRedis returns nil when Redis is not configured or unreachable.
func newRedis(cfg utils.RedisConfig, logger *zap.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
		rdb.Close()
		return nil
	}
	logger.Info("Redis connected", zap.String("addr", cfg.Addr))
	return rdb
}
