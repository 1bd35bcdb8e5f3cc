package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/cms-backend/internal/data/db"
	cmshttp "github.com/yungbote/cms-backend/internal/http"
	"github.com/yungbote/cms-backend/internal/observability"
	"github.com/yungbote/cms-backend/internal/platform/envutil"
	"github.com/yungbote/cms-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *cmshttp.Server
	Cfg      Config
	Repos    Repos
	Services Services

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// Bootstrap builds the logger, config and catalog shared by the server and the CLIs.
func Bootstrap(ctx context.Context) (*logger.Logger, Config, *gorm.DB, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, Config{}, nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	theDB, err := openCatalog(log, cfg)
	if err != nil {
		log.Sync()
		return nil, Config{}, nil, err
	}
	return log, cfg, theDB, nil
}

func openCatalog(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	var theDB *gorm.DB
	switch cfg.DBDriver {
	case "postgres":
		pg, err := db.NewPostgresService(log, db.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			Name:     cfg.PostgresName,
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		theDB = pg.DB()
	default:
		lite, err := db.NewSQLiteService(log, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		theDB = lite.DB()
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		return nil, fmt.Errorf("catalog automigrate: %w", err)
	}
	return theDB, nil
}

// WireServices is the service graph without the HTTP surface.
func WireServices(ctx context.Context, theDB *gorm.DB, log *logger.Logger, cfg Config) (Repos, Services, error) {
	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(ctx, theDB, log, cfg, reposet)
	return reposet, serviceset, err
}

func New(ctx context.Context) (*App, error) {
	log, cfg, theDB, err := Bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.OtelServiceName,
		Environment: cfg.OtelEnvironment,
		Endpoint:    cfg.OtelEndpoint,
		Headers:     cfg.OtelHeaders,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})

	reposet, serviceset, err := WireServices(ctx, theDB, log, cfg)
	if err != nil {
		serviceset.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(theDB, log, cfg, serviceset)
	middleware := wireMiddleware(log, cfg)
	server := wireServer(log, cfg, handlerset, middleware, serviceset)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	// Trash reaper
	if a.Services.Cleanup != nil {
		a.Services.Cleanup.Start(ctx)
	}
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "port", a.Cfg.Port)
	return a.Server.Run()
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("HTTP shutdown failed", "error", err)
		}
	}
	a.Services.Close()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
