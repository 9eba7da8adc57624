package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chromapages/support-gateway/internal/config"
	"github.com/chromapages/support-gateway/internal/models"
	"github.com/chromapages/support-gateway/internal/server"
	"github.com/chromapages/support-gateway/internal/storage"
	"github.com/joho/godotenv"
)

func main() {
	// Load env if it exists
	godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var redis *storage.RedisClient
	if cfg.Redis.Host != "" {
		redis, err = storage.NewRedis(
			cfg.Redis.GetRedisAddr(),
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redis.Close()
		log.Println("Connected to redis")
	}

	var postgres *storage.Postgres
	if cfg.Postgres.DSN != "" {
		postgres, err = storage.NewPostgres(cfg.Postgres.DSN)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer postgres.Close()

		if err := postgres.AutoMigrate(); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		tiers := make([]models.RateLimitTier, 0, len(cfg.RateLimit.Tiers))
		for _, tier := range cfg.RateLimit.Tiers {
			tiers = append(tiers, models.RateLimitTier{
				Name:              tier.Name,
				RequestsPerMinute: tier.RequestsPerMinute,
				RequestsPerHour:   tier.RequestsPerHour,
				TokensPerRequest:  tier.TokensPerRequest,
				Scope:             tier.Scope,
			})
		}
		if err := postgres.SeedTiers(tiers); err != nil {
			log.Fatalf("Failed to seed rate limit tiers: %v", err)
		}
		log.Println("Connected to postgres")
	} else {
		log.Println("No postgres DSN configured, using static API key directory")
	}

	srv := server.New(cfg, redis, postgres)

	go func() {
		addr := ":" + cfg.Server.Port
		if err := srv.Run(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
