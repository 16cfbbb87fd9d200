// Package server contains the HTTP handlers and route wiring for the API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "bhreads/docs" // swagger docs
	"bhreads/internal/auth"
	"bhreads/internal/bootstrap"
	"bhreads/internal/config"
	"bhreads/internal/middleware"
	"bhreads/internal/models"
	"bhreads/internal/repository"
	"bhreads/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const appName = "Bhreads API"

// Server holds all dependencies and provides handlers
type Server struct {
	config            *config.Config
	db                *gorm.DB
	redis             *redis.Client
	app               *fiber.App
	promMiddleware    *fiberprometheus.FiberPrometheus
	tokens            *auth.TokenService
	limiter           *middleware.RateLimiter
	userRepo          repository.UserRepository
	postRepo          repository.PostRepository
	authService       *service.AuthService
	userService       *service.UserService
	postService       *service.PostService
	engagementService *service.EngagementService
}

// NewServer connects to the database and Redis and builds a server on top.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("runtime init failed: %w", err)
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Redis client is allowed; rate limiting then fails open.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("config and database are required")
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("bhreads-api"),
		tokens:         tokens,
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env),
		userRepo:       userRepo,
		postRepo:       postRepo,
	}

	server.userService = service.NewUserService(userRepo, postRepo)
	server.authService = service.NewAuthService(userRepo, auth.NewHasher(cfg.BcryptCost), tokens)
	server.postService = service.NewPostService(postRepo, userRepo, server.userService.RoleOf)
	server.engagementService = service.NewEngagementService(postRepo, userRepo, server.userService.RoleOf)

	return server, nil
}

// loginLimitPolicy fails closed once Redis is configured, so an outage cannot
// lift the brute-force limit on login.
func (s *Server) loginLimitPolicy() middleware.FailPolicy {
	if s.config.RedisURL != "" {
		return middleware.FailClosed
	}
	return middleware.FailOpen
}

// NewApp builds the Fiber app with the JSON codec and the error envelope.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:     appName,
		BodyLimit:   10 * 1024 * 1024,
		JSONEncoder: jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder: jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return models.RespondWithError(c, err)
		},
	})
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	s.app = app

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Copies request and trace ids into the request context
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// The bundled pages load avatars and post images from other origins.
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Coarse per-IP ceiling held in process memory; the Redis limiter guards
	// the auth endpoints.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Bhreads Metrics Dashboard",
	}))

	api.Get("/swagger/*", swagger.HandlerDefault)

	authRequired := middleware.AuthRequired(s.tokens)
	optionalAuth := middleware.OptionalAuth(s.tokens)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", s.limiter.Limit(5, 10*time.Minute, "register"), s.Register)
	authGroup.Post("/login", s.limiter.LimitWithPolicy(10, 5*time.Minute, s.loginLimitPolicy(), "login"), s.Login)
	authGroup.Post("/logout", s.Logout)
	authGroup.Get("/me", authRequired, s.Me)
	authGroup.Get("/role", authRequired, s.GetRole)

	posts := api.Group("/posts")
	posts.Get("/", optionalAuth, s.GetPosts)
	posts.Post("/", authRequired, s.CreatePost)
	// Specific /:id/:resource routes before the generic /:id routes
	posts.Post("/:id/like", authRequired, s.LikePost)
	posts.Post("/:id/comments", authRequired, s.limiter.Limit(30, time.Minute, "create_comment"), s.AddComment)
	posts.Post("/:postId/comments/:commentId/like", authRequired, s.LikeComment)
	posts.Delete("/:postId/comments/:commentId", authRequired, s.DeleteComment)
	posts.Post("/:id/repost", authRequired, s.Repost)
	posts.Get("/:id", authRequired, s.GetPost)
	posts.Put("/:id", authRequired, s.UpdatePost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	users := api.Group("/users")
	users.Put("/profile", authRequired, s.UpdateProfile)
	users.Put("/:id/role", authRequired, s.AdminRequired(), s.SetUserRole)
	users.Get("/:id", s.GetUserProfile)

	s.setupPages(app)
}

// LivenessCheck reports whether the process is up
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so
// its absence does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
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
		"message": "Bhreads",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := middleware.UserID(c)
		if !ok {
			return models.RespondWithError(c, models.NewUnauthorizedError("Authorization required"))
		}

		role, err := s.userService.RoleOf(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, err)
		}
		if !role.IsAdmin() {
			return models.RespondWithError(c, models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// Shutdown stops the HTTP server and closes the connection pools.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
