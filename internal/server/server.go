package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/chromapages/support-gateway/internal/agent"
	"github.com/chromapages/support-gateway/internal/auth"
	"github.com/chromapages/support-gateway/internal/config"
	"github.com/chromapages/support-gateway/internal/handler"
	"github.com/chromapages/support-gateway/internal/middleware"
	"github.com/chromapages/support-gateway/internal/ratelimit"
	"github.com/chromapages/support-gateway/internal/repository"
	"github.com/chromapages/support-gateway/internal/service"
	"github.com/chromapages/support-gateway/internal/storage"
	"github.com/gin-gonic/gin"
)

type Server struct {
	router   *gin.Engine
	config   *config.Config
	redis    *storage.RedisClient
	postgres *storage.Postgres

	registry   *ratelimit.Registry
	tokens     *auth.TokenService
	dispatcher *agent.BreakerDispatcher

	tokenHandler  *handler.TokenHandler
	chatHandler   *handler.ChatHandler
	quotaHandler  *handler.QuotaHandler
	apiKeyHandler *handler.APIKeyHandler
	adminHandler  *handler.AdminHandler
	usageHandler  *handler.UsageHandler
	adminAuth     *service.AuthService

	httpServer *http.Server
}

// New wires the gateway. Postgres and redis are optional: without them the
// credential directory falls back to the static example keys and the admin
// surface is disabled.
func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	registry := ratelimit.NewRegistry(
		ratelimit.SystemClock(),
		cfg.RateLimit.TierLimits(),
		cfg.RateLimit.MaxTrackedClients,
	)

	var directory auth.KeyDirectory = auth.DefaultStaticDirectory()

	s := &Server{
		router:   router,
		config:   cfg,
		redis:    redis,
		postgres: postgres,
		registry: registry,
	}

	if postgres != nil {
		apiKeyRepo := repository.NewAPIKeyRepository(postgres)
		apiKeyService := service.NewAPIKeyService(apiKeyRepo, redis, cfg.RateLimit.Tiers)
		directory = apiKeyService

		userRepo := repository.NewUserRepository(postgres)
		s.adminAuth = service.NewAuthService(userRepo, cfg.Auth.Secret, 24)

		logRepo := repository.NewRequestLogRepository(postgres)
		middleware.InitRequestLogger(logRepo, 1000)

		tierNames := make([]string, 0, len(cfg.RateLimit.Tiers))
		for _, tier := range cfg.RateLimit.Tiers {
			tierNames = append(tierNames, tier.Name)
		}

		s.apiKeyHandler = handler.NewAPIKeyHandler(apiKeyService)
		s.adminHandler = handler.NewAdminHandler(s.adminAuth)
		s.usageHandler = handler.NewUsageHandler(service.NewUsageService(logRepo, tierNames))
	}

	s.tokens = auth.NewTokenService(directory, cfg.Auth.Secret, cfg.Auth.Algorithm, cfg.Auth.TokenTTLMinutes)
	s.dispatcher = agent.NewBreakerDispatcher(agent.NewStaticDispatcher(), 5, 30*time.Second)

	s.tokenHandler = handler.NewTokenHandler(s.tokens)
	s.chatHandler = handler.NewChatHandler(s.dispatcher)
	s.quotaHandler = handler.NewQuotaHandler(registry)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
	if s.postgres != nil {
		s.router.Use(middleware.RequestLogger())
	}
	s.router.Use(middleware.Throttle(s.config.RateLimit.GlobalRPS, s.config.RateLimit.GlobalBurst))
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.POST("/token", s.tokenHandler.Issue)

	// Everything under /api is identity-resolved and admission-gated. The
	// lowest configured tier is the default for unauthenticated traffic.
	api := s.router.Group("/api")
	api.Use(middleware.BearerToken(s.tokens))
	api.Use(middleware.Admission(s.registry, s.defaultTier()))
	{
		api.GET("/quota", s.quotaHandler.Remaining)
		api.POST("/agents/chat", s.chatHandler.Chat)
	}

	if s.adminHandler != nil {
		s.router.POST("/admin/auth/register", s.adminHandler.Register)
		s.router.POST("/admin/auth/login", s.adminHandler.Login)

		admin := s.router.Group("/admin")
		admin.Use(middleware.RequireAdmin(s.adminAuth))
		{
			admin.GET("/status", s.adminStatus)
			admin.GET("/usage", s.usageHandler.Summary)
			admin.POST("/keys", s.apiKeyHandler.Create)
			admin.GET("/keys", s.apiKeyHandler.List)
			admin.GET("/keys/:id", s.apiKeyHandler.Get)
			admin.PATCH("/keys/:id", s.apiKeyHandler.Update)
			admin.DELETE("/keys/:id", s.apiKeyHandler.Delete)
		}
	}
}

func (s *Server) defaultTier() string {
	// The static tier set always includes "free"; custom configs use their
	// first tier as the floor for unauthenticated callers.
	for _, tier := range s.config.RateLimit.Tiers {
		if tier.Name == "free" {
			return tier.Name
		}
	}
	return s.config.RateLimit.Tiers[0].Name
}

func (s *Server) healthCheck(c *gin.Context) {
	status := "healthy"
	statusCode := http.StatusOK
	checks := gin.H{}

	if s.redis != nil {
		healthy := s.redis.Ping(c.Request.Context()) == nil
		checks["redis"] = healthy
		if !healthy {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}

	if s.postgres != nil {
		healthy := s.postgres.Ping(c.Request.Context()) == nil
		checks["database"] = healthy
		if !healthy {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"service":   "support-gateway",
		"version":   "1.0.0",
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

func (s *Server) adminStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"gateway":         "running",
		"tracked_clients": s.registry.TrackedClients(),
		"agent_breaker":   s.dispatcher.State(),
		"uptime":          time.Since(startTime).Seconds(),
		"timestamp":       time.Now().Unix(),
	})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	log.Printf("Starting support gateway on %s", addr)
	log.Printf("Environment: %s", s.config.Server.Environment)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

var startTime = time.Now()
