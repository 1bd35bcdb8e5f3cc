package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/cms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/cms-backend/internal/domain/media"
	"github.com/yungbote/cms-backend/internal/platform/dbctx"
)

func TestAssetRepoLifecycleTransitions(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewAssetRepo(db, testutil.Logger(t))

	a := testutil.SeedAsset(t, ctx, tx, "report.pdf")

	if got, err := repo.GetActiveByID(dbc, a.ID); err != nil || got == nil {
		t.Fatalf("GetActiveByID: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByStorageKey(dbc, a.StorageKey); err != nil || got == nil || got.ID != a.ID {
		t.Fatalf("GetByStorageKey: got=%v err=%v", got, err)
	}

	now := time.Now().UTC()
	if n, err := repo.MarkTrashed(dbc, a.ID, now); err != nil || n != 1 {
		t.Fatalf("MarkTrashed: n=%d err=%v", n, err)
	}
	// A second trash must not touch the row again.
	if n, err := repo.MarkTrashed(dbc, a.ID, now.Add(time.Hour)); err != nil || n != 0 {
		t.Fatalf("MarkTrashed twice: n=%d err=%v", n, err)
	}
	if got, err := repo.GetActiveByID(dbc, a.ID); err != nil || got != nil {
		t.Fatalf("GetActiveByID after trash: got=%v err=%v", got, err)
	}
	got, err := repo.GetByID(dbc, a.ID)
	if err != nil || got == nil || got.DeletedAt == nil {
		t.Fatalf("GetByID after trash: got=%v err=%v", got, err)
	}
	if d := got.DeletedAt.Sub(now); d > time.Second || d < -time.Second {
		t.Fatalf("deleted_at moved on second trash: got=%s want=%s", got.DeletedAt, now)
	}

	if n, err := repo.UpdateAltText(dbc, a.ID, testutil.PtrString("nope")); err != nil || n != 0 {
		t.Fatalf("UpdateAltText on trashed row: n=%d err=%v", n, err)
	}

	if n, err := repo.ClearTrashed(dbc, a.ID); err != nil || n != 1 {
		t.Fatalf("ClearTrashed: n=%d err=%v", n, err)
	}
	if n, err := repo.ClearTrashed(dbc, a.ID); err != nil || n != 0 {
		t.Fatalf("ClearTrashed on active row: n=%d err=%v", n, err)
	}
	if n, err := repo.FullDeleteTrashed(dbc, a.ID); err != nil || n != 0 {
		t.Fatalf("FullDeleteTrashed on active row: n=%d err=%v", n, err)
	}

	if n, err := repo.UpdateAltText(dbc, a.ID, testutil.PtrString("Quarterly report")); err != nil || n != 1 {
		t.Fatalf("UpdateAltText: n=%d err=%v", n, err)
	}
	if got, _ := repo.GetByID(dbc, a.ID); got == nil || got.AltText == nil || *got.AltText != "Quarterly report" {
		t.Fatalf("UpdateAltText verify: got=%v", got)
	}

	if _, err := repo.MarkTrashed(dbc, a.ID, now); err != nil {
		t.Fatalf("MarkTrashed again: %v", err)
	}
	if n, err := repo.FullDeleteTrashed(dbc, a.ID); err != nil || n != 1 {
		t.Fatalf("FullDeleteTrashed: n=%d err=%v", n, err)
	}
	if got, err := repo.GetByID(dbc, a.ID); err != nil || got != nil {
		t.Fatalf("GetByID after full delete: got=%v err=%v", got, err)
	}
}

func TestAssetRepoListingsSplitByState(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewAssetRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	active1 := testutil.SeedAsset(t, ctx, tx, "a.pdf")
	active2 := testutil.SeedAsset(t, ctx, tx, "b.pdf")
	old := testutil.SeedTrashedAsset(t, ctx, tx, "old.pdf", now.AddDate(0, 0, -45))
	recent := testutil.SeedTrashedAsset(t, ctx, tx, "recent.pdf", now.AddDate(0, 0, -2))
	boundary := testutil.SeedTrashedAsset(t, ctx, tx, "edge.pdf", now.AddDate(0, 0, -30).Add(time.Hour))

	rows, total, err := repo.ListActive(dbc, Page{Page: 1, Limit: 10})
	if err != nil || total != 2 || len(rows) != 2 {
		t.Fatalf("ListActive: total=%d len=%d err=%v", total, len(rows), err)
	}
	for _, r := range rows {
		if r.ID != active1.ID && r.ID != active2.ID {
			t.Fatalf("ListActive returned trashed row %d", r.ID)
		}
	}

	rows, total, err = repo.ListTrashed(dbc, Page{Page: 1, Limit: 2})
	if err != nil || total != 3 || len(rows) != 2 {
		t.Fatalf("ListTrashed: total=%d len=%d err=%v", total, len(rows), err)
	}
	if rows[0].ID != recent.ID {
		t.Fatalf("ListTrashed order: first=%d want most recently trashed %d", rows[0].ID, recent.ID)
	}
	rows, _, err = repo.ListTrashed(dbc, Page{Page: 2, Limit: 2})
	if err != nil || len(rows) != 1 || rows[0].ID != old.ID {
		t.Fatalf("ListTrashed page 2: rows=%v err=%v", rows, err)
	}

	cutoff := now.AddDate(0, 0, -30)
	expired, err := repo.ListTrashedBefore(dbc, cutoff)
	if err != nil || len(expired) != 1 || expired[0].ID != old.ID {
		t.Fatalf("ListTrashedBefore: rows=%v err=%v", expired, err)
	}
	if n, err := repo.CountTrashedBefore(dbc, cutoff); err != nil || n != 1 {
		t.Fatalf("CountTrashedBefore: n=%d err=%v", n, err)
	}
	_ = boundary
}

func TestAssetRepoRejectsDuplicateStorageKey(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewAssetRepo(db, testutil.Logger(t))

	a := testutil.SeedAsset(t, ctx, tx, "dup.pdf")
	err := repo.Create(dbc, &types.Asset{
		Filename:   "dup.pdf",
		MimeType:   "application/pdf",
		Size:       1,
		StorageKey: a.StorageKey,
	})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("Create duplicate: got=%v want ErrDuplicatedKey", err)
	}
}

func TestAssetRepoClaimExpired(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewAssetRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -30)
	old := testutil.SeedTrashedAsset(t, ctx, tx, "old.pdf", now.AddDate(0, 0, -45))
	recent := testutil.SeedTrashedAsset(t, ctx, tx, "recent.pdf", now.AddDate(0, 0, -2))
	active := testutil.SeedAsset(t, ctx, tx, "active.pdf")

	got, err := repo.ClaimExpired(dbc, old.ID, cutoff)
	if err != nil || got == nil || got.ID != old.ID {
		t.Fatalf("ClaimExpired expired row: got=%v err=%v", got, err)
	}
	for _, id := range []uint{recent.ID, active.ID, 9999} {
		if got, err := repo.ClaimExpired(dbc, id, cutoff); err != nil || got != nil {
			t.Fatalf("ClaimExpired(%d): got=%v err=%v", id, got, err)
		}
	}

	// Restored then trashed again after the cutoff was taken: no longer expired.
	if n, err := repo.ClearTrashed(dbc, old.ID); err != nil || n != 1 {
		t.Fatalf("ClearTrashed: n=%d err=%v", n, err)
	}
	if got, err := repo.ClaimExpired(dbc, old.ID, cutoff); err != nil || got != nil {
		t.Fatalf("ClaimExpired restored row: got=%v err=%v", got, err)
	}
	if _, err := repo.MarkTrashed(dbc, old.ID, now); err != nil {
		t.Fatalf("MarkTrashed: %v", err)
	}
	if got, err := repo.ClaimExpired(dbc, old.ID, cutoff); err != nil || got != nil {
		t.Fatalf("ClaimExpired re-trashed row: got=%v err=%v", got, err)
	}
}
