// Package server contains the HTTP handlers and routing for the yatube pages.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/bootstrap"
	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/featureflags"
	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/service"
	"yatube/internal/web"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	templates      *web.Templates
	sessions       *middleware.SessionManager
	featureFlags   *featureflags.Manager
	media          *media.Store
	pages          cache.PageCache
	csrfStorage    fiber.Storage
	invalidator    *cache.Invalidator
	stats          *observability.StatsCollector
	groupRepo      repository.GroupRepository
	feedService    *service.FeedService
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	userService    *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// A nil client means Redis is down; the server still runs without it.
	db, redisClient, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{
		SeedGroups: cfg.Env == "development",
	})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding. redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	templates, err := web.NewTemplates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	pages, err := cache.NewPageCache(cfg.PageCacheBackend, redisClient, cfg.IndexCacheTTL())
	if err != nil {
		return nil, fmt.Errorf("page cache: %w", err)
	}
	invalidator := cache.NewInvalidator(pages, redisClient)

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	store := media.NewStore(cfg.MediaDir, cfg.MediaMaxUploadMB)
	sessions := middleware.NewSessionManager(cfg.JWTSecret, cfg.SessionCookie, cfg.SessionTTL(), cfg.IsProduction(), redisClient)
	stats := observability.NewStatsCollector(repository.NewStatsRepository(db), middleware.Logger, cfg.StatsSchedule)

	// Without Redis the CSRF middleware keeps tokens in process memory.
	var csrfStorage fiber.Storage
	if redisClient != nil {
		csrfStorage = cache.NewRedisStorage(redisClient, cache.CSRFTokenPrefix)
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("yatube"),
		templates:      templates,
		sessions:       sessions,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		media:          store,
		pages:          pages,
		csrfStorage:    csrfStorage,
		invalidator:    invalidator,
		stats:          stats,
		groupRepo:      groupRepo,
		feedService:    service.NewFeedService(postRepo, groupRepo, userRepo, followRepo, commentRepo),
		postService:    service.NewPostService(postRepo, groupRepo, store, invalidator.InvalidateIndex),
		commentService: service.NewCommentService(commentRepo),
		followService:  service.NewFollowService(followRepo, userRepo),
		userService:    service.NewUserService(userRepo),
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Resolve the session before the context middleware copies userID into the user context.
	app.Use(s.sessions.LoadSession())

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

	// Anti-forgery tokens on every unsafe request
	app.Use(s.csrfProtection())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static("/media", s.media.Root(), fiber.Static{MaxAge: 3600})

	// Accounts
	auth := app.Group("/auth")
	auth.Get("/login/", s.LoginPage)
	auth.Post("/login/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/signup/", s.SignupPage)
	auth.Post("/signup/", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Get("/logout/", s.Logout)

	// Static pages
	about := app.Group("/about")
	about.Get("/author/", s.AboutAuthor)
	about.Get("/tech/", s.AboutTech)

	// Public listings
	app.Get("/", s.Index)
	app.Get("/group/:slug/", s.GroupPosts)
	app.Get("/profile/:username/", s.Profile)
	app.Get("/posts/:id/", s.PostDetail)

	// Protected routes
	login := middleware.LoginRequired()
	app.Get("/create/", login, s.PostCreatePage)
	app.Post("/create/", login, middleware.RateLimit(s.redis, 5, time.Minute, "create_post"), s.PostCreate)
	app.Get("/posts/:id/edit/", login, s.PostEditPage)
	app.Post("/posts/:id/edit/", login, s.PostEdit)
	app.Post("/posts/:id/comment/", login, middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.AddComment)
	app.Get("/follow/", login, s.FollowIndex)
	app.Get("/profile/:username/follow", login, s.ProfileFollow)
	app.Get("/profile/:username/unfollow", login, s.ProfileUnfollow)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: the
// page cache and rate limits fail open without it, so only the database gates
// readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// NewApp builds the fiber app with views, error handling, middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "yatube",
		Views:        s.templates,
		BodyLimit:    int(s.media.MaxUploadBytes()) + 1<<20,
		ErrorHandler: s.errorHandler,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if err := s.invalidator.Subscribe(s.shutdownCtx, nil); err != nil {
		middleware.Logger.Warn("Cache invalidation subscriber not started", slog.String("error", err.Error()))
	}
	if err := s.stats.Start(); err != nil {
		middleware.Logger.Warn("Stats collector not started", slog.String("error", err.Error()))
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the invalidation subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	s.stats.Stop()

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing sql DB", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
