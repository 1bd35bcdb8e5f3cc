package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/cms-backend/internal/http/handlers"
	httpMW "github.com/yungbote/cms-backend/internal/http/middleware"
	"github.com/yungbote/cms-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health *httpH.HealthHandler
	Media  *httpH.MediaHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(db),
		Media:  httpH.NewMediaHandler(log, services.Media, cfg.RetentionDays),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY is empty; admin media routes are unauthenticated")
	}
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}
