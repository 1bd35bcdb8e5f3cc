package media

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/cms-backend/internal/domain/media"
	"github.com/yungbote/cms-backend/internal/platform/dbctx"
	"github.com/yungbote/cms-backend/internal/platform/logger"
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Offset assumes the page has already been normalized by the caller.
func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// AssetRepo is the catalog query layer. Every mutating call that changes lifecycle state is
// conditional on the current deleted_at state and reports the number of rows it touched, so
// callers can tell a lost race from a missing row.
type AssetRepo interface {
	Create(dbc dbctx.Context, row *types.Asset) error

	GetByID(dbc dbctx.Context, id uint) (*types.Asset, error)
	GetActiveByID(dbc dbctx.Context, id uint) (*types.Asset, error)
	GetByStorageKey(dbc dbctx.Context, storageKey string) (*types.Asset, error)
	GetByKeyStem(dbc dbctx.Context, stem string) (*types.Asset, error)

	ListActive(dbc dbctx.Context, page Page) ([]*types.Asset, int64, error)
	ListTrashed(dbc dbctx.Context, page Page) ([]*types.Asset, int64, error)
	ListTrashedBefore(dbc dbctx.Context, cutoff time.Time) ([]*types.Asset, error)
	CountTrashedBefore(dbc dbctx.Context, cutoff time.Time) (int64, error)

	MarkTrashed(dbc dbctx.Context, id uint, at time.Time) (int64, error)
	ClearTrashed(dbc dbctx.Context, id uint) (int64, error)
	UpdateAltText(dbc dbctx.Context, id uint, altText *string) (int64, error)
	ClaimExpired(dbc dbctx.Context, id uint, cutoff time.Time) (*types.Asset, error)
	FullDeleteTrashed(dbc dbctx.Context, id uint) (int64, error)
}

type assetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return &assetRepo{db: db, log: baseLog.With("repo", "MediaAssetRepo")}
}

func (r *assetRepo) Create(dbc dbctx.Context, row *types.Asset) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *assetRepo) GetByID(dbc dbctx.Context, id uint) (*types.Asset, error) {
	return r.first(dbc, "id = ?", id)
}

func (r *assetRepo) GetActiveByID(dbc dbctx.Context, id uint) (*types.Asset, error) {
	return r.first(dbc, "id = ? AND deleted_at IS NULL", id)
}

func (r *assetRepo) GetByStorageKey(dbc dbctx.Context, storageKey string) (*types.Asset, error) {
	if storageKey == "" {
		return nil, nil
	}
	return r.first(dbc, "storage_key = ?", storageKey)
}

// GetByKeyStem finds the row whose storage key is stem plus an optional extension. Variant
// keys are derived from that stem.
func (r *assetRepo) GetByKeyStem(dbc dbctx.Context, stem string) (*types.Asset, error) {
	if stem == "" {
		return nil, nil
	}
	return r.first(dbc, "storage_key = ? OR storage_key LIKE ?", stem, stem+".%")
}

func (r *assetRepo) first(dbc dbctx.Context, query string, args ...interface{}) (*types.Asset, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out types.Asset
	err := t.WithContext(dbc.Ctx).Where(query, args...).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *assetRepo) ListActive(dbc dbctx.Context, page Page) ([]*types.Asset, int64, error) {
	return r.list(dbc, page, "deleted_at IS NULL", "created_at DESC, id DESC")
}

func (r *assetRepo) ListTrashed(dbc dbctx.Context, page Page) ([]*types.Asset, int64, error) {
	return r.list(dbc, page, "deleted_at IS NOT NULL", "deleted_at DESC, id DESC")
}

func (r *assetRepo) list(dbc dbctx.Context, page Page, where string, order string) ([]*types.Asset, int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var total int64
	if err := t.WithContext(dbc.Ctx).Model(&types.Asset{}).Where(where).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []*types.Asset{}
	if total == 0 {
		return out, 0, nil
	}
	q := t.WithContext(dbc.Ctx).Where(where).Order(order)
	if page.Limit > 0 {
		q = q.Limit(page.Limit).Offset(page.Offset())
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListTrashedBefore returns trashed rows whose deleted_at is strictly older than cutoff,
// oldest first.
func (r *assetRepo) ListTrashedBefore(dbc dbctx.Context, cutoff time.Time) ([]*types.Asset, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Asset{}
	if err := t.WithContext(dbc.Ctx).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff.UTC()).
		Order("deleted_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assetRepo) CountTrashedBefore(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.Asset{}).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff.UTC()).
		Count(&n).Error
	return n, err
}

// MarkTrashed sets deleted_at only on an active row.
func (r *assetRepo) MarkTrashed(dbc dbctx.Context, id uint, at time.Time) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Asset{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", at.UTC())
	return res.RowsAffected, res.Error
}

// ClearTrashed clears deleted_at only on a trashed row.
func (r *assetRepo) ClearTrashed(dbc dbctx.Context, id uint) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Asset{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	return res.RowsAffected, res.Error
}

func (r *assetRepo) UpdateAltText(dbc dbctx.Context, id uint, altText *string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Asset{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("alt_text", altText)
	return res.RowsAffected, res.Error
}

// ClaimExpired re-reads a row only while it is still trashed with deleted_at strictly older
// than cutoff, and returns nil otherwise. Called inside a transaction; on postgres the row is
// locked until commit so a concurrent restore waits for the purge to finish.
func (r *assetRepo) ClaimExpired(dbc dbctx.Context, id uint, cutoff time.Time) (*types.Asset, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx)
	if t.Dialector != nil && t.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out types.Asset
	err := q.Where("id = ? AND deleted_at IS NOT NULL AND deleted_at < ?", id, cutoff.UTC()).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FullDeleteTrashed removes the row only while it is still trashed.
func (r *assetRepo) FullDeleteTrashed(dbc dbctx.Context, id uint) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Delete(&types.Asset{})
	return res.RowsAffected, res.Error
}
