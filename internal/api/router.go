package api

import (
	"context"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/citydirectory/directory-core/docs"
	"github.com/citydirectory/directory-core/internal/api/handler"
	"github.com/citydirectory/directory-core/internal/api/middleware"
	"github.com/citydirectory/directory-core/internal/core/domain"
	"github.com/citydirectory/directory-core/internal/core/service"
	mongorepo "github.com/citydirectory/directory-core/internal/infrastructure/db/mongo"
	rediscache "github.com/citydirectory/directory-core/internal/infrastructure/db/redis"
	"github.com/citydirectory/directory-core/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(echoprometheus.NewMiddleware("directory"))

	// --- Dependencies ---
	bindingRepo := mongorepo.NewBindingRepository(db)
	membershipRepo := mongorepo.NewMembershipRepository(db)
	authRepo := mongorepo.NewAuthRepository(db)
	ownershipRepo := mongorepo.NewOwnershipRepository(db)

	resolver := rediscache.NewResolutionCache(
		rdb,
		service.NewSlugResolver(bindingRepo),
		cfg.Resolve.CacheTTL,
		log.With().Str("component", "resolution_cache").Logger(),
	)
	gateway := service.NewRoutingGateway(resolver, log.With().Str("component", "routing").Logger())
	permissionService := service.NewPermissionService(membershipRepo, log.With().Str("component", "permissions").Logger())
	bindingService := service.NewBindingService(bindingRepo, resolver, log.With().Str("component", "bindings").Logger())
	authService := service.NewAuthService(authRepo, cfg.JWTSecret, cfg.TokenTTL)

	resolveHandler := handler.NewResolveHandler(gateway)
	permissionHandler := handler.NewPermissionHandler(permissionService)
	bindingHandler := handler.NewBindingHandler(bindingService, permissionService, ownershipRepo)
	authHandler := handler.NewAuthHandler(authService)
	authMiddleware := middleware.Auth(cfg.JWTSecret)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health checks (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(map[string]handler.Pinger{
		"mongodb": handler.PingFunc(func(ctx context.Context) error { return db.Client().Ping(ctx, nil) }),
		"redis":   handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
	})

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API v1 ---
	v1 := e.Group("/v1")
	v1.GET("/resolve/:lang/:site/:slug", resolveHandler.Resolve)

	me := v1.Group("", authMiddleware)
	me.POST("/permissions/check", permissionHandler.Check)
	me.GET("/me/permissions/:action", permissionHandler.ForAction)

	admin := v1.Group("/admin/sites/:site", authMiddleware, middleware.RequirePermission(permissionService, domain.ActionViewDashboard))
	admin.POST("/bindings", bindingHandler.Publish)
	admin.POST("/bindings/rename", bindingHandler.Rename)

	// --- Public navigation ---
	e.GET("/:lang/:site/:slug", resolveHandler.Page)

	return e
}

// requestLogger emits one structured entry per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
