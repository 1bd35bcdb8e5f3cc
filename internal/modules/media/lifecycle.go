package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	mediarepo "github.com/yungbote/cms-backend/internal/data/repos/media"
	types "github.com/yungbote/cms-backend/internal/domain/media"
	"github.com/yungbote/cms-backend/internal/platform/apierr"
	"github.com/yungbote/cms-backend/internal/platform/dbctx"
)

func catalogError(op string, err error) error {
	return apierr.New(http.StatusInternalServerError, "catalog_error", fmt.Errorf("%s: %w", op, err))
}

// Get returns an asset in either lifecycle state.
func (u Usecases) Get(ctx context.Context, id uint) (*Descriptor, error) {
	row, err := u.deps.Assets.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, catalogError("get media", err)
	}
	if row == nil {
		return nil, notFound(id)
	}
	return Describe(row), nil
}

// GetActive hides trashed assets.
func (u Usecases) GetActive(ctx context.Context, id uint) (*Descriptor, error) {
	row, err := u.deps.Assets.GetActiveByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, catalogError("get media", err)
	}
	if row == nil {
		return nil, notFound(id)
	}
	return Describe(row), nil
}

func (u Usecases) ListLibrary(ctx context.Context, page, limit int) (ListResult, error) {
	page, limit = NormalizePage(page, limit)
	rows, total, err := u.deps.Assets.ListActive(dbctx.Context{Ctx: ctx}, mediarepo.Page{Page: page, Limit: limit})
	if err != nil {
		return ListResult{}, catalogError("list library", err)
	}
	return ListResult{Items: describeAll(rows), Pagination: newPagination(page, limit, total)}, nil
}

// ListTrash returns trashed assets, most recently deleted first.
func (u Usecases) ListTrash(ctx context.Context, page, limit int) (ListResult, error) {
	page, limit = NormalizePage(page, limit)
	rows, total, err := u.deps.Assets.ListTrashed(dbctx.Context{Ctx: ctx}, mediarepo.Page{Page: page, Limit: limit})
	if err != nil {
		return ListResult{}, catalogError("list trash", err)
	}
	return ListResult{Items: describeAll(rows), Pagination: newPagination(page, limit, total)}, nil
}

// UpdateAltText sets or clears (nil or blank) the alt text of an active asset.
func (u Usecases) UpdateAltText(ctx context.Context, id uint, alt *string) (*Descriptor, error) {
	dbc := dbctx.Context{Ctx: ctx}
	n, err := u.deps.Assets.UpdateAltText(dbc, id, normalizeAlt(alt))
	if err != nil {
		return nil, catalogError("update alt text", err)
	}
	row, err := u.deps.Assets.GetByID(dbc, id)
	if err != nil {
		return nil, catalogError("get media", err)
	}
	if row == nil {
		return nil, notFound(id)
	}
	if n == 0 && row.IsTrashed() {
		return nil, invalidState(id, "cannot edit a trashed asset")
	}
	return Describe(row), nil
}

// SoftDelete moves an active asset to the trash. Trashing an asset that is already trashed
// leaves its deletedAt untouched.
func (u Usecases) SoftDelete(ctx context.Context, id uint) (out *Descriptor, err error) {
	ctx, span := startSpan(ctx, "media.soft_delete", idAttr(id))
	defer func() {
		u.deps.Observer.RecordTransition("soft_delete", err)
		endSpan(span, err)
	}()

	dbc := dbctx.Context{Ctx: ctx}
	n, err := u.deps.Assets.MarkTrashed(dbc, id, u.now())
	if err != nil {
		return nil, catalogError("soft delete", err)
	}
	row, err := u.deps.Assets.GetByID(dbc, id)
	if err != nil {
		return nil, catalogError("get media", err)
	}
	if row == nil {
		return nil, notFound(id)
	}
	if n == 0 {
		u.deps.Log.Debug("soft delete on trashed asset ignored", "media_id", id)
	} else {
		u.deps.Log.Info("media trashed", "media_id", id, "storage_key", row.StorageKey)
	}
	return Describe(row), nil
}

// Restore returns a trashed asset to the library.
func (u Usecases) Restore(ctx context.Context, id uint) (out *Descriptor, err error) {
	ctx, span := startSpan(ctx, "media.restore", idAttr(id))
	defer func() {
		u.deps.Observer.RecordTransition("restore", err)
		endSpan(span, err)
	}()

	dbc := dbctx.Context{Ctx: ctx}
	n, err := u.deps.Assets.ClearTrashed(dbc, id)
	if err != nil {
		return nil, catalogError("restore", err)
	}
	row, err := u.deps.Assets.GetByID(dbc, id)
	if err != nil {
		return nil, catalogError("get media", err)
	}
	if row == nil {
		return nil, notFound(id)
	}
	if n == 0 {
		return nil, invalidState(id, "asset is not in the trash")
	}
	u.deps.Log.Info("media restored", "media_id", id, "storage_key", row.StorageKey)
	return Describe(row), nil
}

// PermanentlyDelete purges a trashed asset: its row, then its files best-effort. The row is
// removed inside a transaction conditioned on still being trashed, so a concurrent restore
// either wins (and this call fails with an invalid state) or loses. Files are only touched
// after the commit, so a failed commit leaves the asset intact in the trash.
func (u Usecases) PermanentlyDelete(ctx context.Context, id uint) (err error) {
	ctx, span := startSpan(ctx, "media.permanent_delete", idAttr(id))
	defer func() {
		u.deps.Observer.RecordTransition("permanent_delete", err)
		endSpan(span, err)
	}()

	var row *types.Asset
	err = u.tx.InTx(ctx, func(dbc dbctx.Context) error {
		got, err := u.deps.Assets.GetByID(dbc, id)
		if err != nil {
			return catalogError("get media", err)
		}
		if got == nil {
			return notFound(id)
		}
		if !got.IsTrashed() {
			return invalidState(id, "asset must be trashed before permanent deletion")
		}
		n, err := u.deps.Assets.FullDeleteTrashed(dbc, id)
		if err != nil {
			return catalogError("delete media row", err)
		}
		if n == 0 {
			return invalidState(id, "asset changed state during deletion")
		}
		row = got
		return nil
	})
	if err != nil {
		return err
	}
	for _, ferr := range u.removeFiles(ctx, row) {
		u.deps.Log.Warn("delete media file failed", "media_id", id, "storage_key", row.StorageKey, "error", ferr)
	}
	u.deps.Log.Info("media permanently deleted", "media_id", id, "storage_key", row.StorageKey)
	return nil
}

// reap purges one cleanup candidate in a single transaction: it claims the row only if it is
// still trashed before cutoff, removes the files, then deletes the row. A file failure rolls
// the transaction back so the asset stays in the trash. claimed is false when the candidate
// was restored or re-trashed after it was listed.
func (u Usecases) reap(ctx context.Context, id uint, cutoff time.Time) (claimed bool, err error) {
	err = u.tx.InTx(ctx, func(dbc dbctx.Context) error {
		row, err := u.deps.Assets.ClaimExpired(dbc, id, cutoff)
		if err != nil {
			return catalogError("claim expired media", err)
		}
		if row == nil {
			return nil
		}
		claimed = true
		if err := u.DeleteFiles(ctx, row); err != nil {
			return err
		}
		n, err := u.deps.Assets.FullDeleteTrashed(dbc, id)
		if err != nil {
			return catalogError("delete media row", err)
		}
		if n == 0 {
			return invalidState(id, "asset changed state during cleanup")
		}
		return nil
	})
	return claimed, err
}

// DeleteFiles removes the original and every recorded variant of asset, attempting all of
// them even after a failure. Missing files count as removed.
func (u Usecases) DeleteFiles(ctx context.Context, asset *types.Asset) error {
	if asset == nil {
		return nil
	}
	errs := u.removeFiles(ctx, asset)
	if len(errs) == 0 {
		return nil
	}
	return storageFailure(asset.StorageKey, errors.Join(errs...))
}

func (u Usecases) removeFiles(ctx context.Context, asset *types.Asset) []error {
	keys := []string{asset.StorageKey}
	vm, err := asset.VariantMap()
	var errs []error
	if err != nil {
		errs = append(errs, fmt.Errorf("decode variants: %w", err))
	}
	for _, name := range types.VariantNames {
		if v, ok := vm[name]; ok && v.Path != "" {
			keys = append(keys, v.Path)
		}
	}
	for _, k := range keys {
		if rerr := u.deps.Store.Remove(ctx, k); rerr != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", k, rerr))
		}
	}
	return errs
}

// GetExpiredSoftDeleted returns trashed assets whose deletedAt is strictly older than
// now minus olderThanDays, oldest first.
func (u Usecases) GetExpiredSoftDeleted(ctx context.Context, olderThanDays int) ([]*types.Asset, error) {
	return u.expiredBefore(ctx, u.cutoff(olderThanDays))
}

func (u Usecases) expiredBefore(ctx context.Context, cutoff time.Time) ([]*types.Asset, error) {
	rows, err := u.deps.Assets.ListTrashedBefore(dbctx.Context{Ctx: ctx}, cutoff)
	if err != nil {
		return nil, catalogError("list expired", err)
	}
	return rows, nil
}

// cutoff treats a negative retention as the default.
func (u Usecases) cutoff(days int) time.Time {
	if days < 0 {
		days = DefaultRetentionDays
	}
	return u.now().Add(-time.Duration(days) * 24 * time.Hour)
}

func retentionAttr(days int) attribute.KeyValue {
	return attribute.Int("media.retention_days", days)
}
