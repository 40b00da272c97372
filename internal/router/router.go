package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dutycalc/internal/handler"
	"dutycalc/internal/middleware"
	"dutycalc/internal/service"
)

// Options configures the optional parts of the middleware chain.
type Options struct {
	AllowedOrigins []string
	// Verifier enables bearer authentication on /api/v1 when set.
	Verifier service.TokenVerifier
	// RateLimiter limits /api/v1 requests per client when set.
	RateLimiter *middleware.RateLimiter
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	log *zap.Logger,
	opts Options,
	dutyH *handler.DutyHandler,
	commodityH *handler.CommodityHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	if opts.Verifier != nil {
		v1.Use(middleware.Auth(opts.Verifier))
	}
	if opts.RateLimiter != nil {
		v1.Use(opts.RateLimiter.Middleware())
	}

	// Duty calculation
	dutyGroup := v1.Group("/duty")
	dutyGroup.POST("/calculate", dutyH.Calculate)
	dutyGroup.POST("/calculate/batch", dutyH.CalculateBatch)

	// Commodity codes
	commodities := v1.Group("/commodities")
	commodities.GET("", commodityH.Search)
	commodities.GET("/:code", commodityH.Lookup)

	return r
}
