package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/cms-backend/internal/http/handlers"
	httpMW "github.com/yungbote/cms-backend/internal/http/middleware"
	"github.com/yungbote/cms-backend/internal/observability"
	"github.com/yungbote/cms-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware
	CORSOrigins    []string
	HTTPMetrics    *observability.HTTPMetrics
	ServiceName    string
	TracingEnabled bool
	MetricsEnabled bool

	MediaHandler  *httpH.MediaHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = "cms-backend"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.HTTPMetrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	{
		// Media (public)
		if cfg.MediaHandler != nil {
			api.GET("/media/:id", cfg.MediaHandler.GetPublic)
		}
	}

	admin := api.Group("/admin")
	{
		if cfg.AuthMiddleware != nil {
			admin.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Media library
		if cfg.MediaHandler != nil {
			admin.POST("/media", cfg.MediaHandler.Upload)
			admin.GET("/media", cfg.MediaHandler.ListLibrary)
			admin.GET("/media/trash", cfg.MediaHandler.ListTrash)
			admin.GET("/media/cleanup", cfg.MediaHandler.CleanupPreview)
			admin.POST("/media/cleanup", cfg.MediaHandler.RunCleanup)
			admin.GET("/media/:id", cfg.MediaHandler.Get)
			admin.PATCH("/media/:id", cfg.MediaHandler.Update)
			admin.DELETE("/media/:id", cfg.MediaHandler.SoftDelete)
			admin.POST("/media/:id/restore", cfg.MediaHandler.Restore)
			admin.DELETE("/media/:id/permanent", cfg.MediaHandler.PermanentlyDelete)
		}
	}

	// Stored files
	if cfg.MediaHandler != nil {
		r.GET("/media/*key", cfg.MediaHandler.ServeFile)
	}

	return r
}
