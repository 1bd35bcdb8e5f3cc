package cleanup

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/cms-backend/internal/modules/media"
	"github.com/yungbote/cms-backend/internal/platform/logger"
	"github.com/yungbote/cms-backend/internal/platform/runlock"
)

type countingRunner struct {
	calls   atomic.Int32
	gotDays atomic.Int32
	block   chan struct{}
}

func (r *countingRunner) RunCleanup(ctx context.Context, days int) (media.CleanupResult, error) {
	r.calls.Add(1)
	r.gotDays.Store(int32(days))
	if r.block != nil {
		<-r.block
	}
	return media.CleanupResult{Cleaned: 2}, nil
}

func TestRunOnceUsesConfiguredRetention(t *testing.T) {
	t.Parallel()
	r := &countingRunner{}
	s := NewScheduler(logger.Nop(), r, runlock.NewLocal(), Config{RetentionDays: 14})

	res, ran, err := s.RunOnce(context.Background())
	if err != nil || !ran {
		t.Fatalf("RunOnce: ran=%v err=%v", ran, err)
	}
	if res.Cleaned != 2 || r.gotDays.Load() != 14 {
		t.Fatalf("unexpected result=%+v days=%d", res, r.gotDays.Load())
	}
}

func TestRunOnceSkipsWhileLocked(t *testing.T) {
	t.Parallel()
	locker := runlock.NewLocal()
	r := &countingRunner{block: make(chan struct{})}
	s := NewScheduler(logger.Nop(), r, locker, Config{RetentionDays: 30})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, _ = s.RunOnce(context.Background())
	}()

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("first run never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, ran, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if ran {
		t.Fatalf("second run should have been skipped")
	}
	close(r.block)
	wg.Wait()

	if r.calls.Load() != 1 {
		t.Fatalf("runner calls: got=%d want=1", r.calls.Load())
	}
}

func TestStartRunsOnTicker(t *testing.T) {
	t.Parallel()
	r := &countingRunner{}
	s := NewScheduler(logger.Nop(), r, nil, Config{Interval: 10 * time.Millisecond, RetentionDays: 30})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("loop did not tick, calls=%d", r.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
