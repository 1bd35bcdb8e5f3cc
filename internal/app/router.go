package app

import (
	"net"

	cmshttp "github.com/yungbote/cms-backend/internal/http"
	"github.com/yungbote/cms-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, services Services) *cmshttp.Server {
	return cmshttp.NewServer(net.JoinHostPort("", cfg.Port), cmshttp.RouterConfig{
		Log:            log,
		AuthMiddleware: middleware.Auth,
		CORSOrigins:    cfg.CORSOrigins,
		HTTPMetrics:    services.HTTPMetrics,
		ServiceName:    cfg.OtelServiceName,
		TracingEnabled: cfg.OtelEnabled,
		MetricsEnabled: cfg.MetricsEnabled,
		MediaHandler:   handlers.Media,
		HealthHandler:  handlers.Health,
	})
}
