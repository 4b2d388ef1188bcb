// Package server contains the HTTP handlers for the marketplace API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "marketplace/docs" // swagger docs
	"marketplace/internal/auth"
	"marketplace/internal/bootstrap"
	"marketplace/internal/cache"
	"marketplace/internal/config"
	"marketplace/internal/middleware"
	"marketplace/internal/models"
	"marketplace/internal/repository"
	"marketplace/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	cache          cache.Cache
	limiter        middleware.Limiter
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	runtime        *bootstrap.Runtime
	shutdownFn     context.CancelFunc

	authService     *service.AuthService
	userService     *service.UserService
	productService  *service.ProductService
	categoryService *service.CategoryService
	imageService    *service.ImageService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	middleware.ConfigureLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	srv, err := NewServerWithDeps(cfg, rt.DB, rt.Redis, rt.Cache, rt.Limiter)
	if err != nil {
		cancel()
		rt.Close()
		return nil, err
	}
	srv.runtime = rt
	srv.shutdownFn = cancel
	return srv, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil. A nil limiter disables rate limiting.
func NewServerWithDeps(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	c cache.Cache,
	limiter middleware.Limiter,
) (*Server, error) {
	tokens, err := auth.NewTokenManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}
	if !cfg.RateLimitEnabled {
		limiter = nil
	}

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	ttls := cache.TTLsFromConfig(cfg)

	return &Server{
		config:          cfg,
		db:              db,
		redis:           redisClient,
		cache:           c,
		limiter:         limiter,
		promMiddleware:  middleware.InitMetrics("marketplace-api"),
		authService:     service.NewAuthService(userRepo, tokens, c, ttls),
		userService:     service.NewUserService(userRepo, productRepo, c),
		productService:  service.NewProductService(productRepo, categoryRepo, userRepo, c, ttls),
		categoryService: service.NewCategoryService(categoryRepo, productRepo, c, ttls),
		imageService:    service.NewImageService(cfg),
	}, nil
}

// App builds the Fiber application with middleware and routes on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(middleware.TrustProxies(fiber.Config{
		AppName:      "Marketplace API",
		BodyLimit:    s.config.MaxRequestSize,
		ErrorHandler: s.ErrorHandler,
	}, s.config.TrustedProxyList()))
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures global middleware
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		ContentSecurityPolicy: "default-src 'self'",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the per-route limiters so rejected requests still
	// carry CORS headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "X-RateLimit-Limit, X-RateLimit-Remaining, Retry-After",
		AllowCredentials: s.config.AllowedOrigins != "*",
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Root)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Marketplace Backend Metrics Dashboard",
	}))
	app.Get("/swagger/*", swagger.HandlerDefault)

	cfg := s.config
	authRequired := s.AuthRequired()

	authGroup := app.Group("/auth")
	authGroup.Post("/register", s.limit(cfg.RateLimitRegister, "register", middleware.FailClosed), s.Register)
	authGroup.Post("/login", s.limit(cfg.RateLimitLogin, "login", middleware.FailClosed), s.Login)
	authGroup.Get("/me", authRequired, s.Me)
	authGroup.Post("/logout", authRequired, s.Logout)

	users := app.Group("/users")
	users.Get("/profile", authRequired, s.GetProfile)
	users.Put("/profile", authRequired, s.UpdateProfile)
	users.Delete("/profile", authRequired, s.DeleteProfile)
	users.Get("/profile/stats", authRequired, s.GetProfileStats)

	categories := app.Group("/categories")
	categories.Get("/", s.ListCategories)
	categories.Get("/:id/products", s.GetCategoryProducts)
	categories.Get("/:id/stats", s.GetCategoryStats)
	categories.Get("/:id", s.GetCategory)
	categories.Post("/", authRequired, s.CreateCategory)
	categories.Put("/:id", authRequired, s.UpdateCategory)
	categories.Delete("/:id", authRequired, s.DeleteCategory)

	searchLimit := middleware.RateLimitIf(func(c *fiber.Ctx) bool {
		return strings.TrimSpace(c.Query("search")) != ""
	}, s.limit(cfg.RateLimitSearch, "search", middleware.FailOpen))

	products := app.Group("/products")
	products.Get("/", s.limit(cfg.RateLimitProductList, "product_list", middleware.FailOpen), searchLimit, s.ListProducts)
	products.Get("/seller/:seller_id", s.GetSellerProducts)
	products.Get("/:id", s.GetProduct)
	products.Post("/", authRequired, s.limit(cfg.RateLimitProductCreate, "product_create", middleware.FailOpen), s.CreateProduct)
	products.Put("/:id", authRequired, s.limit(cfg.RateLimitProductUpdate, "product_update", middleware.FailOpen), s.UpdateProduct)
	products.Delete("/:id", authRequired, s.DeleteProduct)

	uploads := app.Group("/upload")
	uploads.Post("/image", authRequired, s.limit(cfg.RateLimitUpload, "upload", middleware.FailOpen), s.UploadImage)
	uploads.Get("/images", authRequired, s.ListImages)
	uploads.Get("/images/:filename", s.GetImage)
	uploads.Delete("/images/:filename", authRequired, s.DeleteImage)

	app.Get("/cache/stats", authRequired, s.GetCacheStats)
}

// limit builds the sliding-window limiter for one route from a RATE_LIMIT_* value.
func (s *Server) limit(raw, name string, policy middleware.FailPolicy) fiber.Handler {
	rule := s.config.Rule(raw)
	return middleware.RateLimitWithPolicy(s.limiter, rule.Limit, rule.Window, policy, name)
}

// Root godoc
// @Summary API banner
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func (s *Server) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Welcome to Marketplace API",
		"version": Version,
		"docs":    "/swagger/index.html",
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis only counts when a
// client was configured.
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

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"cache":    s.cacheBackend(),
		},
		"time": time.Now(),
	})
}

func (s *Server) cacheBackend() string {
	if s.cache == nil {
		return "disabled"
	}
	return s.cache.Name()
}

// AuthRequired returns the authentication middleware. It resolves the bearer
// token to a user and stores both the id and the user in locals.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenString == "" {
			return unauthorized(c, models.NewUnauthorizedError("Could not validate credentials"))
		}

		user, err := s.authService.ResolveUser(c.UserContext(), tokenString)
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == models.CodeUnauthorized {
				return unauthorized(c, appErr)
			}
			return models.Respond(c, err)
		}

		c.Locals("userID", user.ID)
		c.Locals("user", user)
		// Sync to UserContext for logging and downstream services
		c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))

		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(c *fiber.Ctx, err error) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return models.RespondWithError(c, fiber.StatusUnauthorized, err)
}

// ErrorHandler renders every error that escapes a handler as {"detail": ...}.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		detail := fe.Message
		if fe.Code == fiber.StatusRequestEntityTooLarge {
			detail = "Request body too large"
		}
		if fe.Code >= fiber.StatusInternalServerError {
			middleware.Logger.ErrorContext(c.UserContext(), "request failed",
				slog.Int("status", fe.Code),
				slog.String("error", fe.Message),
			)
			detail = "Internal server error"
		}
		return c.Status(fe.Code).JSON(models.ErrorResponse{Detail: detail})
	}

	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Status() >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.Respond(c, err)
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.runtime != nil {
		s.runtime.Close()
	}
	middleware.Logger.Info("Server shutdown complete")
	return nil
}
