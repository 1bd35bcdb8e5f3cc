package media

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	VariantThumb  = "thumb"
	VariantMedium = "medium"
	VariantLarge  = "large"
)

// VariantNames is the fixed rendition set, smallest first.
var VariantNames = []string{VariantThumb, VariantMedium, VariantLarge}

// Variant is one stored WebP rendition of a raster asset.
type Variant struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Asset is a row of the media catalog. DeletedAt is managed explicitly (not gorm.DeletedAt)
// so every lifecycle transition can be written as a conditional update.
type Asset struct {
	ID         uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename   string         `gorm:"column:filename;not null" json:"filename"`
	MimeType   string         `gorm:"column:mime_type;not null" json:"mime_type"`
	Size       int64          `gorm:"column:size;not null" json:"size"`
	StorageKey string         `gorm:"column:storage_key;not null;uniqueIndex:idx_media_storage_key" json:"storage_key"`
	AltText    *string        `gorm:"column:alt_text" json:"alt_text,omitempty"`
	Width      *int           `gorm:"column:width" json:"width,omitempty"`
	Height     *int           `gorm:"column:height" json:"height,omitempty"`
	Variants   datatypes.JSON `gorm:"column:variants" json:"variants,omitempty"`
	CreatedAt  time.Time      `gorm:"column:created_at;not null" json:"created_at"`
	DeletedAt  *time.Time     `gorm:"column:deleted_at;index:idx_media_deleted_at" json:"deleted_at,omitempty"`
}

func (Asset) TableName() string { return "media" }

func (a *Asset) IsTrashed() bool { return a != nil && a.DeletedAt != nil }

// VariantMap decodes the variants column. A NULL column yields an empty map.
func (a *Asset) VariantMap() (map[string]Variant, error) {
	out := map[string]Variant{}
	if a == nil || len(a.Variants) == 0 || string(a.Variants) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(a.Variants, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeVariants returns nil for an empty set so the column stays NULL.
func EncodeVariants(v map[string]Variant) (datatypes.JSON, error) {
	if len(v) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
