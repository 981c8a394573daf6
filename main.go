package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pricepick/config"
	"pricepick/internal/alerts"
	"pricepick/internal/monitor"
	"pricepick/internal/recorder"
	"pricepick/internal/scraper"
	"pricepick/internal/store"
	"pricepick/logger"
	"pricepick/services/cache"
	"pricepick/services/notifier"
	"pricepick/services/publisher"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("check_interval", cfg.MonitorInterval).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	// Wire the scrape pipeline
	limiter := cache.NewRateLimiter(services.Cache, cfg.RateLimitBlock)
	scrape := scraper.New(services.Store, limiter, cfg)
	record := recorder.New(services.Store)

	dispatcher := notifier.NewDispatcher(buildChannels(cfg, services.Publisher)...)
	alertService := alerts.New(services.Store, dispatcher, cfg)

	mon := monitor.New(services.Store, scrape, record, alertService, services.Publisher, cfg)
	if err := mon.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start monitor")
	}

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().
		Str("signal", sig.String()).
		Msg("Received shutdown signal")
	cancel()

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	mon.Stop()
}

// Services holds all the initialized services
type Services struct {
	Store     store.Store
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg config.Config) (*Services, error) {
	services := &Services{}

	// Open the database
	st, err := store.NewSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	services.Store = st

	logger.Info("Opened database at %s", cfg.DatabasePath)

	// Initialize cache service
	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	if cacheService == nil {
		return nil, fmt.Errorf("failed to create cache service")
	}
	services.Cache = cacheService

	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Initialize publisher
	redisPublisher := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamMaxLen,
	)
	if redisPublisher == nil {
		return nil, fmt.Errorf("failed to create redis publisher")
	}
	services.Publisher = redisPublisher

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	return services, nil
}

// buildChannels assembles the notification channels. Push and SMS are
// always available; email needs SMTP configuration.
func buildChannels(cfg config.Config, pub publisher.Publisher) []notifier.Channel {
	channels := []notifier.Channel{
		notifier.NewPushChannel(pub),
		notifier.NewSMSChannel(),
	}
	if cfg.EnableEmail {
		channels = append(channels, notifier.NewEmailChannel(cfg))
	}
	return channels
}
