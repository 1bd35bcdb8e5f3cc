package cleanup

import (
	"context"
	"time"

	"github.com/yungbote/cms-backend/internal/modules/media"
	"github.com/yungbote/cms-backend/internal/platform/logger"
	"github.com/yungbote/cms-backend/internal/platform/runlock"
)

// LockName is shared by every process that purges the trash.
const LockName = "cms:media:cleanup"

type Runner interface {
	RunCleanup(ctx context.Context, retentionDays int) (media.CleanupResult, error)
}

type Config struct {
	Interval      time.Duration
	RetentionDays int
	// LockTTL bounds how long a crashed holder blocks other runs. Defaults to 30m.
	LockTTL time.Duration
}

// Scheduler runs the trash reaper on a fixed interval. At most one run is in progress
// across all processes sharing the locker.
type Scheduler struct {
	log    *logger.Logger
	runner Runner
	locker runlock.Locker
	cfg    Config
}

func NewScheduler(baseLog *logger.Logger, runner Runner, locker runlock.Locker, cfg Config) *Scheduler {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Minute
	}
	if cfg.RetentionDays < 0 {
		cfg.RetentionDays = media.DefaultRetentionDays
	}
	if locker == nil {
		locker = runlock.NewLocal()
	}
	return &Scheduler{
		log:    baseLog.With("component", "MediaCleanupScheduler"),
		runner: runner,
		locker: locker,
		cfg:    cfg,
	}
}

// Start launches the loop in a goroutine. It is a no-op when the interval is not positive.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cfg.Interval <= 0 {
		s.log.Info("Media cleanup loop disabled")
		return
	}
	s.log.Info("Starting media cleanup loop", "interval", s.cfg.Interval.String(), "retention_days", s.cfg.RetentionDays)
	go s.runLoop(ctx)
}

func (s *Scheduler) runLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Media cleanup loop stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						s.log.Error("Media cleanup panic", "panic", r)
					}
				}()
				if _, _, err := s.RunOnce(ctx); err != nil {
					s.log.Warn("Media cleanup run failed", "error", err)
				}
			}()
		}
	}
}

// RunOnce performs a single guarded run. ran is false when another holder owns the lock.
func (s *Scheduler) RunOnce(ctx context.Context) (res media.CleanupResult, ran bool, err error) {
	release, ok, err := s.locker.TryAcquire(ctx, LockName, s.cfg.LockTTL)
	if err != nil {
		return res, false, err
	}
	if !ok {
		s.log.Info("Media cleanup skipped, another run holds the lock")
		return res, false, nil
	}
	defer release()

	res, err = s.runner.RunCleanup(ctx, s.cfg.RetentionDays)
	if err != nil {
		return res, true, err
	}
	if res.Failed > 0 {
		s.log.Warn("Media cleanup finished with failures", "cleaned", res.Cleaned, "failed", res.Failed)
	}
	return res, true, nil
}
