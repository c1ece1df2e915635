// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	_ "socialflow/docs" // swagger docs
	"socialflow/internal/cache"
	"socialflow/internal/config"
	"socialflow/internal/featureflags"
	"socialflow/internal/forge"
	"socialflow/internal/middleware"
	"socialflow/internal/models"
	"socialflow/internal/notifications"
	"socialflow/internal/reviewers"
	"socialflow/internal/store"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          *store.Store
	redis          *redis.Client
	roster         *reviewers.Roster
	flags          *featureflags.Manager
	forge          *forge.Service
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	db             *gorm.DB // set only for the gorm store backend
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize Redis
	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	persistence, db, err := buildPersistence(cfg, redisClient)
	if err != nil {
		return nil, err
	}

	roster, err := reviewers.Load(cfg.ReviewersFile)
	if err != nil {
		return nil, fmt.Errorf("load reviewers: %w", err)
	}

	var agent forge.AgentClient
	if cfg.AgentEndpoint != "" {
		agent = forge.NewHTTPAgentClient(forge.ClientConfig{
			Endpoint: cfg.AgentEndpoint,
			APIKey:   cfg.AgentAPIKey,
			OrgID:    cfg.AgentOrgID,
		})
	}
	var image forge.ImageClient
	if cfg.ImageEndpoint != "" {
		image = forge.NewHTTPImageClient(forge.ClientConfig{
			Endpoint: cfg.ImageEndpoint,
			APIKey:   cfg.ImageAPIKey,
		})
	}

	return newServerWith(cfg, persistence, db, redisClient, agent, image, roster)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes persistence, Redis
// and the generation clients explicitly.
func NewServerWithDeps(
	cfg *config.Config,
	persistence store.Persistence,
	redisClient *redis.Client,
	agent forge.AgentClient,
	image forge.ImageClient,
	roster *reviewers.Roster,
) (*Server, error) {
	return newServerWith(cfg, persistence, nil, redisClient, agent, image, roster)
}

func newServerWith(
	cfg *config.Config,
	persistence store.Persistence,
	db *gorm.DB,
	redisClient *redis.Client,
	agent forge.AgentClient,
	image forge.ImageClient,
	roster *reviewers.Roster,
) (*Server, error) {
	if roster == nil {
		roster = &reviewers.Roster{}
	}

	middleware.InitMiddleware(cfg)

	postStore := store.New(persistence, middleware.Logger)
	if err := postStore.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("load post store: %w", err)
	}

	server := &Server{
		config:         cfg,
		store:          postStore,
		redis:          redisClient,
		roster:         roster,
		flags:          featureflags.NewManager(cfg.FeatureFlags),
		forge:          forge.NewService(agent, image, middleware.Logger),
		promMiddleware: middleware.InitMetrics("socialflow-api"),
		hub:            notifications.NewHub(),
		db:             db,
	}
	server.notifier = notifications.NewNotifier(redisClient)

	return server, nil
}

// buildPersistence selects the durable backend per STORE_BACKEND.
func buildPersistence(cfg *config.Config, redisClient *redis.Client) (store.Persistence, *gorm.DB, error) {
	switch cfg.StoreBackend {
	case "memory":
		return store.NewMemoryPersistence(), nil, nil
	case "redis":
		if redisClient == nil {
			return nil, nil, fmt.Errorf("STORE_BACKEND is redis but Redis is unavailable")
		}
		return store.NewRedisPersistence(redisClient, ""), nil, nil
	case "gorm":
		var (
			db  *gorm.DB
			err error
		)
		if cfg.StoreDBDSN != "" {
			db, err = store.OpenPostgres(cfg.StoreDBDSN)
		} else {
			db, err = store.OpenSQLite(cfg.StoreDBPath)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("open store database: %w", err)
		}
		p, err := store.NewGormPersistence(db, "")
		if err != nil {
			return nil, nil, err
		}
		return p, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "SocialFlow Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/me", s.AuthRequired(), s.Me)

	// Protected routes. The group middleware applies to every /api route
	// registered below it, so none of these attach AuthRequired again (a
	// second pass would reject already-consumed WebSocket tickets).
	protected := api.Group("", s.AuthRequired())

	// WebSocket ticket issuance
	protected.Post("/ws/ticket", s.IssueWSTicket)

	// Post routes
	posts := protected.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", s.CreatePost)
	// Define specific /:id/:action routes BEFORE generic /:id routes
	posts.Post("/:id/submit", s.SubmitPost)
	posts.Post("/:id/resubmit", s.ResubmitPost)
	posts.Post("/:id/publish", s.PublishPost)
	posts.Post("/:id/draft", s.ReturnToDraft)
	posts.Post("/:id/approve", middleware.ReviewerRequired, s.ApprovePost)
	posts.Post("/:id/feedback", middleware.ReviewerRequired, s.RequestChanges)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	// Forge routes (external generation), per-user rate limited
	forgeGroup := protected.Group("/forge")
	forgeGroup.Post("/", middleware.RateLimit(
		s.redis, 10, time.Minute, "forge_post"), s.ForgePost)
	forgeGroup.Post("/hashtags", middleware.RateLimit(
		s.redis, 20, time.Minute, "forge_hashtags"), s.ForgeHashtags)
	forgeGroup.Post("/image", middleware.RateLimit(
		s.redis, 5, time.Minute, "forge_image"), s.ForgeImage)

	// Reviewer roster
	protected.Get("/reviewers", s.GetReviewers)

	// Feature flags as evaluated for the calling user
	protected.Get("/flags", s.GetFeatureFlags)

	// Admin routes
	admin := protected.Group("/admin", middleware.ReviewerRequired)
	admin.Get("/review-queue", s.GetReviewQueue)

	// Websocket endpoint for workflow events
	protected.Get("/ws", s.WebsocketHandler())
}

// GetFeatureFlags handles GET /api/flags
// @Summary Feature flags evaluated for the calling user
// @Tags meta
// @Produce json
// @Success 200 {object} object{flags=object}
// @Router /flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"flags": s.flags.Snapshot(currentUserID(c)),
	})
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err != nil {
			storeStatus = "unhealthy"
		} else if err := sqlDB.PingContext(ctx); err != nil {
			storeStatus = "unhealthy"
		}
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// single-instance deployments run without Redis
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "SocialFlow",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"store": storeStatus,
			"redis": redisStatus,
		},
		"posts": s.store.Len(),
		"time":  time.Now(),
	})
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		isWSPath := strings.HasPrefix(path, "/api/ws")

		// 1. Try WebSocket ticket first (short-lived, single-use)
		ticket := c.Query("ticket")
		if ticket != "" && s.redis != nil {
			key := fmt.Sprintf("ws_ticket:%s", ticket)
			payload, err := s.redis.Get(c.Context(), key).Result()
			if err == nil {
				var principal wsTicketPrincipal
				if jsonErr := json.Unmarshal([]byte(payload), &principal); jsonErr == nil && principal.UserID != "" {
					// Delete ticket immediately (single-use)
					s.redis.Del(c.Context(), key)

					middleware.StorePrincipal(c, principal.UserID, models.UserRole(principal.Role), principal.Email)
					return c.Next()
				}
			}
			// If ticket was provided but invalid/expired, we fail if it's a WS path
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. Fall back to JWT (Bearer token or query param)
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Reject token in query param for WS routes (must use ticket)
		if tokenString == "" && !isWSPath {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		return middleware.ValidateToken(c, tokenString)
	}
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "SocialFlow API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Custom error handler
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire the hub to the Redis subscriber if available
	if s.redis != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start workflow event wiring: %v", err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the wiring goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close WebSocket connections gracefully
	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down websocket hub: %v", err)
		}
	}

	// Close database connection
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Printf("error closing sql DB: %v", cerr)
			}
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
