package app

import (
	"context"
	"fmt"
	"io"

	"gorm.io/gorm"

	"github.com/yungbote/cms-backend/internal/jobs/cleanup"
	"github.com/yungbote/cms-backend/internal/modules/media"
	"github.com/yungbote/cms-backend/internal/observability"
	"github.com/yungbote/cms-backend/internal/platform/imagevariant"
	"github.com/yungbote/cms-backend/internal/platform/logger"
	"github.com/yungbote/cms-backend/internal/platform/runlock"
)

type Services struct {
	Media       media.Usecases
	Cleanup     *cleanup.Scheduler
	Locker      runlock.Locker
	HTTPMetrics *observability.HTTPMetrics

	closers []io.Closer
}

func (s Services) Close() {
	for _, c := range s.closers {
		_ = c.Close()
	}
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, repos Repos) (Services, error) {
	log.Info("Wiring services...")
	var out Services

	store, storeCloser, err := resolveMediaStore(ctx, log, cfg)
	if err != nil {
		return out, err
	}
	if storeCloser != nil {
		out.closers = append(out.closers, storeCloser)
	}

	var observer observability.MediaObserver = observability.NopMediaObserver{}
	if cfg.MetricsEnabled {
		po, err := observability.NewPrometheusMediaObserver("", nil)
		if err != nil {
			return out, fmt.Errorf("init media metrics: %w", err)
		}
		observer = po
		out.HTTPMetrics, err = observability.NewHTTPMetrics("", nil)
		if err != nil {
			return out, fmt.Errorf("init http metrics: %w", err)
		}
	}

	out.Media = media.New(media.UsecasesDeps{
		DB:       db,
		Log:      log,
		Assets:   repos.MediaAssets,
		Store:    store,
		Variants: imagevariant.New(log, imagevariant.Config{Quality: float32(cfg.VariantQuality)}),
		Observer: observer,
	})

	locker, lockCloser, err := resolveLocker(log, cfg)
	if err != nil {
		return out, err
	}
	if lockCloser != nil {
		out.closers = append(out.closers, lockCloser)
	}
	out.Locker = locker
	reaper := out.Media.WithLog(log.With("service", "MediaUsecases", "component", "CleanupScheduler"))
	out.Cleanup = cleanup.NewScheduler(log, reaper, locker, cleanup.Config{
		Interval:      cfg.CleanupInterval,
		RetentionDays: cfg.RetentionDays,
	})
	return out, nil
}

// resolveLocker uses Redis when REDIS_ADDR is set so cleanup runs are exclusive across
// processes; otherwise the lock is process-local.
func resolveLocker(log *logger.Logger, cfg Config) (runlock.Locker, io.Closer, error) {
	if cfg.RedisAddr == "" {
		return runlock.NewLocal(), nil, nil
	}
	r, err := runlock.NewRedis(log, cfg.RedisAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("init redis lock: %w", err)
	}
	return r, r, nil
}
