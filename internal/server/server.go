// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "devconnect/docs" // swagger docs
	"devconnect/internal/auth"
	"devconnect/internal/config"
	"devconnect/internal/database"
	"devconnect/internal/featureflags"
	"devconnect/internal/middleware"
	"devconnect/internal/models"
	"devconnect/internal/notifications"
	"devconnect/internal/observability"
	"devconnect/internal/repository"
	"devconnect/internal/service"

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

const defaultAllowedOrigins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	gate         *middleware.Gate
	policy       *auth.Policy
	featureFlags *featureflags.Manager

	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	postRepo    repository.PostRepository

	notifier *notifications.Notifier
	hub      *notifications.Hub

	authService    *service.AuthService
	userService    *service.UserService
	profileService *service.ProfileService
	postService    *service.PostService
	adminService   *service.AdminService
}

// NewServerWithDeps creates a Server on connections established by
// bootstrap.InitRuntime or by tests. redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	codec, err := auth.NewCodec(cfg.JWTSecret, time.Duration(cfg.TokenTTLSeconds)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}
	hasher := auth.NewHasher(cfg.BcryptCost)

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db, redisClient)
	postRepo := repository.NewPostRepository(db, redisClient)

	policy := auth.NewPolicy(userRepo, func(reason auth.Reason) {
		observability.PolicyDenials.WithLabelValues(string(reason)).Inc()
	})

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("devconnect-api"),
		gate:           middleware.NewGate(codec, redisClient),
		policy:         policy,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       userRepo,
		profileRepo:    profileRepo,
		postRepo:       postRepo,
	}

	// The activity feed needs Redis pub/sub.
	var events service.ActivityPublisher
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
		events = s.notifier
	}

	s.authService = service.NewAuthService(userRepo, codec, hasher, s.featureFlags)
	s.userService = service.NewUserService(userRepo, profileRepo, hasher, policy)
	s.profileService = service.NewProfileService(profileRepo, userRepo, policy)
	s.postService = service.NewPostService(postRepo, userRepo, policy, events, s.featureFlags)
	s.adminService = service.NewAdminService(userRepo, profileRepo, postRepo, hasher)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Propagate request ID into the user context for the logger.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultAllowedOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, " + middleware.TokenHeader + ", Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests, models.NewTooManyRequestsError())
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api/v1")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "DevConnect Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	authRequired := s.gate.Required()

	// Accounts
	users := api.Group("/users")
	users.Post("/", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	users.Put("/update/:id", authRequired, s.UpdateUser)
	users.Delete("/delete", authRequired, s.DeleteAccount)

	// Sessions
	sessions := api.Group("/auth")
	sessions.Post("/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	sessions.Get("/", authRequired, s.CurrentUser)

	// Profiles. Specific paths before the bare group routes.
	profile := api.Group("/profile")
	profile.Get("/me", authRequired, s.GetMyProfile)
	profile.Get("/user/:user_id", s.GetProfileByUser)
	profile.Put("/experience", authRequired, s.AddExperience)
	profile.Put("/experience/:exp_id", authRequired, s.UpdateExperience)
	profile.Delete("/experience/:exp_id", authRequired, s.RemoveExperience)
	profile.Put("/education", authRequired, s.AddEducation)
	profile.Put("/education/:edu_id", authRequired, s.UpdateEducation)
	profile.Delete("/education/:edu_id", authRequired, s.RemoveEducation)
	profile.Get("/", s.GetProfiles)
	profile.Post("/", authRequired, s.UpsertProfile)
	profile.Delete("/", authRequired, s.DeleteProfile)

	// Posts. Specific /verb/:id routes before the generic /:id routes.
	posts := api.Group("/posts")
	posts.Put("/like/:id", authRequired, s.LikePost)
	posts.Put("/unlike/:id", authRequired, s.UnlikePost)
	posts.Post("/comment/:id", authRequired,
		middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	posts.Delete("/comment/:id/:comment_id", authRequired, s.DeleteComment)
	posts.Get("/", s.GetPosts)
	posts.Post("/", authRequired,
		middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	// Websocket activity feed
	api.Post("/ws/ticket", authRequired, s.IssueWSTicket)
	api.Get("/ws", authRequired, s.WebsocketHandler())

	// Admin routes
	admin := api.Group("/admin", authRequired, s.AdminRequired())
	admin.Get("/", s.AdminDashboard)
	admin.Get("/users", s.AdminListUsers)
	admin.Post("/users/add", s.AdminCreateUser)
	admin.Put("/update/:user_id", s.AdminUpdateUser)
	admin.Delete("/delete/:user_id", s.AdminDeleteUser)
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
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
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "DevConnect API",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects callers whose stored role is not Admin.
// Must be placed after the gate so that the claim is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, ok := middleware.ClaimFrom(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewNoTokenError())
		}
		if err := s.policy.Require(c.UserContext(), claim, models.RoleAdmin, nil); err != nil {
			return s.respondServiceError(c, err)
		}
		return c.Next()
	}
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "DevConnect API",
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler answers errors no handler wrote a response for.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		switch fe.Code {
		case fiber.StatusNotFound:
			return models.RespondWithError(c, fe.Code, models.NewNotFoundMessage(fe.Message))
		case fiber.StatusTooManyRequests:
			return models.RespondWithError(c, fe.Code, models.NewTooManyRequestsError())
		default:
			return models.RespondWithError(c, fe.Code, models.NewValidationError(fe.Message))
		}
	}
	return s.respondServiceError(c, err)
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					slog.String("hub", s.hub.Name()),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stops the hub wiring goroutine.
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub",
				slog.String("hub", s.hub.Name()),
				slog.String("error", err.Error()),
			)
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
