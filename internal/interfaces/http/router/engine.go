package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/payaid/backend/internal/infrastructure/config"
	"github.com/payaid/backend/internal/infrastructure/logger"
	"github.com/payaid/backend/internal/interfaces/http/dto"
	"github.com/payaid/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// EngineConfig selects the cross-cutting middleware of the API engine
type EngineConfig struct {
	Logger      *zap.Logger
	HTTP        config.HTTPConfig
	Production  bool
	ServiceName string
	// Tracing wraps requests in otelgin server spans
	Tracing bool
	// Profiling tags pyroscope samples with the route
	Profiling bool
	// Metrics is optional; when set its scrape handler is served on MetricsPath
	Metrics     *middleware.HTTPMetrics
	MetricsPath string
	// RateLimiter is optional; nil disables per-client limiting
	RateLimiter *middleware.RateLimiter
	JWT         middleware.JWTConfig
	// Swagger serves the API docs under /swagger
	Swagger bool
}

// NewEngine builds the gin engine with the full middleware chain, the health checks
// and every /api/v1 route.
func NewEngine(cfg EngineConfig, h *Handlers, modules ModuleRequirer) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	// Middleware order matters:
	// 1. RequestID first so every later log line and span carries it
	// 2. Recovery before anything that may panic
	// 3. Tracing opens the server span the request log and handlers join
	// 4. Request log and Prometheus metrics observe the final status
	// 5. Security headers, CORS and body limits before any parsing
	// 6. Rate limiting before authentication work
	// 7. JWT then tenant context, then per-group module guards
	engine.Use(middleware.RequestID(), logger.Recovery(cfg.Logger))
	if cfg.Tracing {
		engine.Use(middleware.Tracing(middleware.DefaultTracingConfig(cfg.ServiceName)), middleware.RequestSpanAttributes())
	}
	engine.Use(logger.Middleware(cfg.Logger))
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics.Middleware(cfg.MetricsPath))
	}
	engine.Use(
		middleware.Secure(middleware.DefaultSecurityConfig(cfg.Production)),
		middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	engine.Use(middleware.JWTAuth(cfg.JWT), middleware.TenantContext())
	if cfg.Profiling {
		engine.Use(middleware.Profiling("/health", "/ready", cfg.MetricsPath))
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)
	if cfg.Metrics != nil {
		engine.GET(cfg.MetricsPath, cfg.Metrics.Handler())
	}
	if cfg.Swagger {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(APIGroups(h, modules)...)
	r.Setup()

	return engine, nil
}
