package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/janytree/orderdesk/internal/infrastructure/logger"
	"github.com/janytree/orderdesk/internal/infrastructure/metrics"
	"github.com/janytree/orderdesk/internal/interfaces/http/dto"
	"github.com/janytree/orderdesk/internal/interfaces/http/handler"
	"github.com/janytree/orderdesk/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// EngineConfig holds the HTTP settings the engine needs
type EngineConfig struct {
	CORS        middleware.CORSConfig
	MaxBodySize int64
	// MetricsPath is where the Prometheus registry is served; ignored without a recorder
	MetricsPath string
	Tracing     middleware.TracingConfig
	// WriteLimiter throttles reconcile, sync and publish requests per client; nil disables it
	WriteLimiter *middleware.RateLimiter
}

// Handlers groups everything the engine routes to
type Handlers struct {
	Reconciliation *handler.ReconciliationHandler
	System         *handler.SystemHandler
	// Metrics is optional; nil disables /metrics and request instrumentation
	Metrics *metrics.Recorder
}

// NewEngine builds the gin engine with the middleware chain and all routes.
//
// Middleware order:
//  1. RequestID
//  2. tracing (when enabled)
//  3. Recovery
//  4. request logging
//  5. security headers
//  6. CORS
//  7. body size limit
//  8. request metrics (when enabled)
func NewEngine(log *zap.Logger, cfg EngineConfig, h Handlers) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.Tracing)...)
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize))

	if h.Metrics != nil {
		engine.Use(middleware.HTTPMetrics(h.Metrics.Registry()))
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, h.Metrics.GinHandler())
	}

	engine.GET("/health", h.System.Health)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", c.GetString(logger.RequestIDContextKey)))
	})

	r := NewRouter(engine, WithAPIVersion("v1"))
	var throttle gin.HandlerFunc
	if cfg.WriteLimiter != nil {
		throttle = middleware.RateLimit(cfg.WriteLimiter)
	}
	for _, group := range ReconciliationRoutes(h.Reconciliation, throttle) {
		r.Register(group)
	}
	r.Register(NewDomainGroup("system", "/system").GET("/info", h.System.GetSystemInfo))
	r.Setup()

	return engine
}

// ReconciliationRoutes returns the reconciliation and session route groups.
// throttle, when not nil, runs before the handlers that start work.
func ReconciliationRoutes(h *handler.ReconciliationHandler, throttle gin.HandlerFunc) []*DomainGroup {
	write := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		if throttle == nil {
			return []gin.HandlerFunc{fn}
		}
		return []gin.HandlerFunc{throttle, fn}
	}

	reconciliations := NewDomainGroup("reconciliation", "/reconciliations").
		POST("", write(h.Reconcile)...).
		POST("/sync", write(h.Sync)...).
		GET("", h.ListRuns).
		GET("/:id", h.GetRun)

	sessions := NewDomainGroup("session", "/sessions").
		GET("/:id", h.GetSession).
		DELETE("/:id", h.DeleteSession).
		GET("/:id/lines", h.ListLines).
		GET("/:id/invoices", h.ListInvoices).
		GET("/:id/invoices/export", h.ExportInvoices).
		POST("/:id/invoices/publish", write(h.PublishInvoices)...).
		GET("/:id/report", h.GetReport)

	return []*DomainGroup{reconciliations, sessions}
}
