package media

import (
	"context"
	"time"

	"github.com/yungbote/cms-backend/internal/platform/dbctx"
)

type CleanupError struct {
	ID         uint   `json:"id"`
	StorageKey string `json:"storageKey"`
	Error      string `json:"error"`
}

type CleanupResult struct {
	Cleaned int            `json:"cleaned"`
	Failed  int            `json:"failed"`
	Skipped int            `json:"skipped"`
	Errors  []CleanupError `json:"errors"`
}

// RunCleanup purges every asset trashed longer than retentionDays, one at a time. Each
// candidate is re-claimed before its files are touched; one restored or re-trashed since the
// listing is skipped. A candidate whose files cannot all be removed keeps its row and is
// reported in Errors. Only a failure of the candidate query itself is returned as an error.
func (u Usecases) RunCleanup(ctx context.Context, retentionDays int) (res CleanupResult, err error) {
	res.Errors = []CleanupError{}
	start := time.Now()
	ctx, span := startSpan(ctx, "media.cleanup", retentionAttr(retentionDays))
	defer func() {
		u.deps.Observer.RecordCleanup(res.Cleaned, res.Failed, time.Since(start))
		endSpan(span, err)
	}()

	cutoff := u.cutoff(retentionDays)
	candidates, err := u.expiredBefore(ctx, cutoff)
	if err != nil {
		return res, err
	}
	log := u.deps.Log.With("component", "cleanup", "retention_days", retentionDays)
	log.Info("cleanup started", "candidates", len(candidates))

	for _, asset := range candidates {
		if cerr := ctx.Err(); cerr != nil {
			log.Warn("cleanup interrupted", "error", cerr)
			break
		}
		claimed, rerr := u.reap(ctx, asset.ID, cutoff)
		if rerr != nil {
			res.fail(asset.ID, asset.StorageKey, rerr)
			log.Warn("cleanup purge failed", "media_id", asset.ID, "storage_key", asset.StorageKey, "error", rerr)
			continue
		}
		if !claimed {
			res.Skipped++
			log.Info("cleanup candidate no longer expired", "media_id", asset.ID)
			continue
		}
		res.Cleaned++
	}

	log.Info("cleanup finished", "cleaned", res.Cleaned, "failed", res.Failed, "skipped", res.Skipped, "duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

func (r *CleanupResult) fail(id uint, key string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, CleanupError{ID: id, StorageKey: key, Error: err.Error()})
}

// GetCleanupCount reports how many assets RunCleanup would consider without touching anything.
func (u Usecases) GetCleanupCount(ctx context.Context, retentionDays int) (int64, error) {
	n, err := u.deps.Assets.CountTrashedBefore(dbctx.Context{Ctx: ctx}, u.cutoff(retentionDays))
	if err != nil {
		return 0, catalogError("count expired", err)
	}
	return n, nil
}
