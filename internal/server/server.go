// Package server contains the HTTP and WebSocket handlers of the API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "ainews/docs" // swagger docs
	"ainews/internal/bootstrap"
	"ainews/internal/config"
	"ainews/internal/database"
	"ainews/internal/featureflags"
	"ainews/internal/middleware"
	"ainews/internal/models"
	"ainews/internal/notifications"
	"ainews/internal/repository"
	"ainews/internal/scraper"
	"ainews/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

// Deps are the already-initialized dependencies a Server runs on.
type Deps struct {
	Stores *repository.Stores
	// DB is nil for the memory backend.
	DB    *gorm.DB
	Redis *redis.Client
	// Fetcher defaults to a scraper configured from the config.
	Fetcher service.ArticleFetcher
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	stores         *repository.Stores
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Set
	authService    *service.AuthService
	postService    *service.PostService
	commentService *service.CommentService
	profileService *service.ProfileService
	scrapeService  *service.ScrapeService
	tagService     *service.TagService
}

// NewServer opens the configured store and Redis and builds a Server.
func NewServer(ctx context.Context, cfg *config.Config, opts bootstrap.Options) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, Deps{Stores: rt.Stores, DB: rt.DB, Redis: rt.Redis})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with the memory store and miniredis.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Stores == nil {
		return nil, fmt.Errorf("server: stores are required")
	}

	flags, err := featureflags.Parse(cfg.FeatureFlags)
	if err != nil {
		slog.Warn("feature flags partially applied", "error", err)
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = scraper.New(cfg.ScrapeTimeout(), cfg.ScrapeMaxBodyBytes)
	}

	s := &Server{
		config:         cfg,
		stores:         deps.Stores,
		db:             deps.DB,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("ainews-api"),
		notifier:       notifications.NewNotifier(deps.Redis),
		hub:            notifications.NewHub(),
		featureFlags:   flags,
	}
	s.authService = service.NewAuthService(deps.Stores.Profiles, deps.Redis, service.AuthConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	s.postService = service.NewPostService(deps.Stores.Posts, deps.Stores.Profiles, flags)
	s.commentService = service.NewCommentService(deps.Stores.Comments, deps.Stores.Posts, deps.Stores.Profiles)
	s.tagService = service.NewTagService(deps.Stores.Tags)
	s.profileService = service.NewProfileService(deps.Stores.Profiles)
	s.scrapeService = service.NewScrapeService(fetcher, deps.Stores.Profiles, flags)

	return s, nil
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "AI News API",
		BodyLimit: 1 << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, &models.AppError{Code: codeForStatus(fe.Code), Message: fe.Message})
			}
			slog.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	if s.config.TracingEnabled && s.config.TracingExporter != "none" {
		app.Use(middleware.TracingMiddleware(otel.GetTracerProvider()))
	}

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (300 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
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

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", s.AuthRequired(), s.Refresh)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Public reads; a bearer token, when present, fills in liked/bookmarked.
	api.Get("/posts", s.GetPosts)
	api.Get("/posts/:id/comments", s.GetComments)
	api.Get("/posts/:id", s.GetPost)
	api.Get("/tags", s.GetPopularTags)

	// Protected groups are prefixed so their auth middleware never runs
	// for the public routes above.
	posts := api.Group("/posts", s.AuthRequired())
	posts.Post("/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	// Specific /:id/:action routes before the generic /:id ones
	posts.Post("/:id/like", s.LikePost)
	posts.Post("/:id/archive", s.ArchivePost)
	posts.Post("/:id/pin", s.PinPost)
	posts.Post("/:id/view", s.ViewPost)
	posts.Post("/:id/bookmark", s.BookmarkPost)
	posts.Post("/:id/comments", middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	comments := api.Group("/comments", s.AuthRequired())
	comments.Post("/:commentId/like", s.LikeComment)
	comments.Put("/:commentId", s.UpdateComment)
	comments.Delete("/:commentId", s.DeleteComment)

	// /me routes are registered before the public /:id ones
	me := api.Group("/profiles/me", s.AuthRequired())
	me.Get("/", s.GetMyProfile)
	me.Put("/", s.UpdateMyProfile)
	me.Get("/bookmarks", s.GetMyBookmarks)
	me.Put("/preferences", s.UpdateMyPreferences)
	me.Post("/preferences/reconcile", s.ReconcileMyPreferences)

	api.Get("/profiles/:id/posts", s.GetProfilePosts)
	api.Get("/profiles/:id", s.GetProfile)

	api.Post("/scrape-news", s.AuthRequired(), middleware.RateLimit(s.redis, 20, time.Minute, "scrape_news"), s.ScrapeNews)

	// WebSocket ticket issuance and the realtime feed
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws/feed", s.AuthRequired(), s.FeedHandler())

	// Admin routes
	admin := api.Group("/admin", s.AuthRequired(), s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Put("/feature-flags/:name", s.UpdateFeatureFlag)
	admin.Put("/profiles/:id/role", s.SetProfileRole)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so
// only the database decides readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "memory"
	} else if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	} else if redisStatus != "healthy" {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start wires the realtime feed and listens until Shutdown is called.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier.Enabled() {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			slog.Error("failed to start feed wiring", "error", err)
		}
	}

	slog.Info("server starting", "port", s.config.Port, "backend", s.config.StoreBackend)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stops the feed subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		slog.Error("error shutting down feed hub", "error", err)
	}

	rt := &bootstrap.Runtime{DB: s.db, Redis: s.redis}
	if err := rt.Close(); err != nil {
		slog.Error("error closing connections", "error", err)
	}

	slog.Info("server shutdown complete")
	return nil
}
