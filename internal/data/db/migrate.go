package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/cms-backend/internal/domain/media"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// =========================
		// Media catalog
		// =========================
		&media.Asset{},
	); err != nil {
		return err
	}
	return EnsureMediaIndexes(db)
}

// EnsureMediaIndexes backs the lookups the lifecycle relies on: unique storage keys and
// the retention scan over deleted_at. AutoMigrate creates both from struct tags; these
// statements keep older catalogs created without them in line.
func EnsureMediaIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_media_storage_key ON media(storage_key);`).Error; err != nil {
		return fmt.Errorf("create idx_media_storage_key: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_media_deleted_at ON media(deleted_at);`).Error; err != nil {
		return fmt.Errorf("create idx_media_deleted_at: %w", err)
	}
	return nil
}
