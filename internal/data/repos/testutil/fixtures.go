package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cms-backend/internal/domain/media"
)

// SeedAsset inserts an active PDF row with a unique storage key.
func SeedAsset(tb testing.TB, ctx context.Context, tx *gorm.DB, filename string) *types.Asset {
	tb.Helper()
	a := &types.Asset{
		Filename:   filename,
		MimeType:   "application/pdf",
		Size:       1024,
		StorageKey: fmt.Sprintf("2025/01/%s-%s", uuid.New().String(), filename),
		CreatedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed asset: %v", err)
	}
	return a
}

// SeedTrashedAsset inserts a row already trashed at deletedAt.
func SeedTrashedAsset(tb testing.TB, ctx context.Context, tx *gorm.DB, filename string, deletedAt time.Time) *types.Asset {
	tb.Helper()
	a := SeedAsset(tb, ctx, tx, filename)
	at := deletedAt.UTC()
	if err := tx.WithContext(ctx).Model(&types.Asset{}).Where("id = ?", a.ID).Update("deleted_at", at).Error; err != nil {
		tb.Fatalf("trash asset: %v", err)
	}
	a.DeletedAt = &at
	return a
}

func PtrString(v string) *string { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
