// Package api exposes intake, the staff console routes and the variant
// catalogue over HTTP.
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lead-intake/internal/common/config"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/source"
)

type Handlers struct {
	Intake   *IntakeHandler
	Admin    *AdminHandler
	Variants *VariantHandler
	Health   *HealthHandler
}

// Guard is the "caller is staff" predicate in middleware form.
type Guard interface {
	Middleware() gin.HandlerFunc
}

type RouterConfig struct {
	Server  config.ServerConfig
	Sources *source.Policy
	Staff   Guard
	Logger  logger.Logger
}

func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestID(),
		RequestLogger(cfg.Logger),
		RequestMetrics(),
		ErrorHandler(cfg.Logger),
	)

	if len(cfg.Server.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", source.HeaderName, HeaderRequestID},
			ExposeHeaders:    []string{"Content-Length", HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", h.Health.Live)
	router.GET("/ready", h.Health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(RequestTimeout(config.GetDuration(cfg.Server.RequestTimeout)))
	{
		public := v1.Group("", SourceGuard(cfg.Sources))
		public.POST("/loans", h.Intake.SubmitLoan)
		public.POST("/insurance", h.Intake.SubmitInsurance)
		public.POST("/consultancy", h.Intake.SubmitConsultancy)

		v1.GET("/variants", h.Variants.List)
		v1.GET("/variants/:key", h.Variants.Get)

		admin := v1.Group("/admin", cfg.Staff.Middleware())
		admin.GET("/applications", h.Admin.List)
		admin.GET("/applications/:id", h.Admin.Detail)
		admin.PATCH("/applications/:id/status", h.Admin.UpdateStatus)
	}

	return router
}
