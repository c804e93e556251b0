// Package server contains the HTTP handlers, routes and auth middleware of the PCOS Care API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "pcoscare/docs" // swagger docs
	"pcoscare/internal/assistant"
	"pcoscare/internal/bootstrap"
	"pcoscare/internal/config"
	"pcoscare/internal/database"
	"pcoscare/internal/featureflags"
	"pcoscare/internal/kv"
	"pcoscare/internal/middleware"
	"pcoscare/internal/mlclient"
	"pcoscare/internal/models"
	"pcoscare/internal/notifications"
	"pcoscare/internal/repository"
	"pcoscare/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "pcoscare-api"
	tokenAudience = "pcoscare-client"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config             *config.Config
	db                 *gorm.DB
	redis              *redis.Client
	app                *fiber.App
	promMiddleware     *fiberprometheus.FiberPrometheus
	mlClient           *mlclient.Client
	featureFlags       *featureflags.Manager
	notifier           *notifications.Notifier
	userRepo           repository.UserRepository
	predictionService  *service.PredictionService
	appointmentService *service.AppointmentService
	postService        *service.PostService
	commentService     *service.CommentService
	catalogService     *service.CatalogService
	contactService     *service.ContactService
	chatService        *service.ChatService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// The catalog is seeded on every non-production start; production loads it with cmd/seed.
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedCatalog: !cfg.IsProduction()})
	if err != nil {
		return nil, err
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, redisClient, generator)
}

// newGenerator builds the chat assistant client. A missing API key is not an
// error: the chat endpoint then answers 503.
func newGenerator(cfg *config.Config) (assistant.Generator, error) {
	if cfg.GeminiAPIKey == "" {
		middleware.Logger.Warn("GEMINI_API_KEY not set, chat assistant disabled")
		return nil, nil
	}
	gemini, err := assistant.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("chat assistant init failed: %w", err)
	}
	return gemini, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis. A nil
// generator leaves the chat assistant unconfigured.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, generator assistant.Generator) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	predictionRepo := repository.NewPredictionRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	expertRepo := repository.NewExpertRepository(db)
	eventRepo := repository.NewEventRepository(db)
	testimonialRepo := repository.NewTestimonialRepository(db)
	contactRepo := repository.NewContactRepository(db)

	prom := middleware.InitMetrics("pcoscare-api")
	flags := featureflags.NewManager(cfg.FeatureFlags)
	mlClient := mlclient.New(cfg.MLServiceURL, cfg.MLServiceTimeout())

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		mlClient:       mlClient,
		featureFlags:   flags,
		notifier:       notifications.NewNotifier(redisClient),
		userRepo:       userRepo,
	}

	server.predictionService = service.NewPredictionService(predictionRepo, mlClient, flags)
	server.appointmentService = service.NewAppointmentService(appointmentRepo, expertRepo)
	server.postService = service.NewPostService(postRepo, server.isAdminByUserID)
	server.commentService = service.NewCommentService(commentRepo, postRepo, server.isAdminByUserID)
	server.catalogService = service.NewCatalogService(expertRepo, eventRepo, testimonialRepo)
	server.contactService = service.NewContactService(contactRepo)
	server.chatService = service.NewChatService(generator, flags, cfg.ChatTimeout())

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Propagates request and user ids into the request context for logging.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(middleware.TracingMiddleware())
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Disposition",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health", s.HealthCheck)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "PCOS Care API Metrics Dashboard",
	}))

	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/me", s.AuthRequired(), s.Me)

	// Public reads
	api.Get("/posts", s.GetPosts)
	api.Get("/posts/:id/comments", s.GetComments)
	api.Get("/posts/:id", s.GetPost)
	api.Get("/experts", s.GetExperts)
	api.Get("/experts/:id", s.GetExpert)
	api.Get("/events", s.GetEvents)
	api.Get("/testimonials", s.GetTestimonials)

	// Public writes
	api.Post("/contact", middleware.RateLimit(s.redis, 5, 10*time.Minute, "contact"), s.CreateContact)
	api.Post("/chat", middleware.RateLimit(s.redis, 20, time.Minute, "chat"), s.Chat)

	// Protected routes. Auth is mounted per resource so unknown /api paths
	// still answer 404.
	requireAuth := s.AuthRequired()
	requireAdmin := s.AdminRequired()

	predictions := api.Group("/predictions", requireAuth)
	predictions.Post("/", s.CreatePrediction)
	predictions.Get("/history", s.GetPredictionHistory)
	predictions.Post("/:id/report", s.GeneratePredictionReport)
	predictions.Get("/:id", s.GetPrediction)

	appointments := api.Group("/appointments", requireAuth)
	appointments.Post("/", s.BookAppointment)
	appointments.Get("/my", s.GetMyAppointments)
	appointments.Get("/admin/all", requireAdmin, s.GetAllAppointments)
	appointments.Patch("/:id/status", requireAdmin, s.UpdateAppointmentStatus)

	posts := api.Group("/posts", requireAuth)
	posts.Post("/", s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/like", s.ToggleLike)
	posts.Post("/:id/comments", s.CreateComment)
	posts.Delete("/:id/comments/:commentId", s.DeleteComment)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	// Admin-curated catalog writes
	experts := api.Group("/experts", requireAuth, requireAdmin)
	experts.Post("/", s.CreateExpert)
	experts.Put("/:id", s.UpdateExpert)
	experts.Delete("/:id", s.DeleteExpert)

	events := api.Group("/events", requireAuth, requireAdmin)
	events.Post("/", s.CreateEvent)
	events.Put("/:id", s.UpdateEvent)
	events.Delete("/:id", s.DeleteEvent)

	testimonials := api.Group("/testimonials", requireAuth, requireAdmin)
	testimonials.Post("/", s.CreateTestimonial)
	testimonials.Put("/:id", s.UpdateTestimonial)
	testimonials.Delete("/:id", s.DeleteTestimonial)

	contact := api.Group("/contact", requireAuth, requireAdmin)
	contact.Get("/", s.GetContacts)
	contact.Patch("/:id", s.UpdateContactStatus)
	contact.Delete("/:id", s.DeleteContact)

	api.Group("/admin", requireAuth, requireAdmin).Get("/feature-flags", s.GetFeatureFlags)
}

// HealthCheck answers the plain liveness message older clients poll.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"message": "PCOS Care API is running",
	})
}

// LivenessCheck answers the orchestrator liveness check
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis reachability. The inference
// service is checked too but never fails readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := kv.Ping(ctx, s.redis); err != nil {
		redisStatus = "unhealthy"
	}

	mlStatus := "unknown"
	if s.mlClient != nil {
		mlStatus = "healthy"
		if err := s.mlClient.Health(ctx); err != nil {
			mlStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "PCOS Care API",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database":   dbStatus,
			"redis":      redisStatus,
			"ml_service": mlStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that the user is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok || user == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("No authentication token, access denied"))
		}
		if !user.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Access denied. Admin privileges required."))
		}
		return c.Next()
	}
}

// AuthRequired returns the authentication middleware. It resolves the
// bearer token to a live user and stores it in locals.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// A request that already went through this middleware on an outer group
		// does not need a second lookup.
		if user, ok := c.Locals("user").(*models.User); ok && user != nil {
			return c.Next()
		}

		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("No authentication token, access denied"))
		}

		userID, err := s.parseToken(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token is not valid"))
		}

		user, err := s.userRepo.GetByID(c.UserContext(), userID)
		if err != nil {
			if models.StatusFor(err) == fiber.StatusNotFound {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token is not valid"))
			}
			return models.RespondWithAppError(c, err)
		}

		c.Locals("userID", user.ID)
		c.Locals("user", user)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))

		return c.Next()
	}
}

// optionalUserID attempts to extract userID from Authorization header but does not enforce it.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return 0, false
	}
	userID, err := s.parseToken(tokenString)
	if err != nil {
		return 0, false
	}
	return userID, true
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// parseToken validates signature, expiry, issuer and audience and returns
// the subject as a user id.
func (s *Server) parseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, fmt.Errorf("invalid subject %q", sub)
	}
	return uint(userID), nil
}

// NewApp builds the Fiber app with the error handler, middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "PCOS Care API",
		BodyLimit: 10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, fe)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
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
