package media

import (
	"time"

	types "github.com/yungbote/cms-backend/internal/domain/media"
)

// VariantDescriptor is a rendition as exposed to API clients.
type VariantDescriptor struct {
	Path   string `json:"path"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Descriptor is the API shape of an asset. Timestamps serialize as RFC 3339.
type Descriptor struct {
	ID         uint                         `json:"id"`
	Filename   string                       `json:"filename"`
	MimeType   string                       `json:"mimeType"`
	Size       int64                        `json:"size"`
	StorageKey string                       `json:"storageKey"`
	URL        string                       `json:"url"`
	AltText    *string                      `json:"altText"`
	Width      *int                         `json:"width"`
	Height     *int                         `json:"height"`
	Variants   map[string]VariantDescriptor `json:"variants,omitempty"`
	CreatedAt  time.Time                    `json:"createdAt"`
	DeletedAt  *time.Time                   `json:"deletedAt"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type ListResult struct {
	Items      []*Descriptor
	Pagination Pagination
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NormalizePage applies the default page and limit and caps the limit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func newPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// Describe converts a catalog row. A malformed variants column is reported as no variants.
func Describe(a *types.Asset) *Descriptor {
	if a == nil {
		return nil
	}
	d := &Descriptor{
		ID:         a.ID,
		Filename:   a.Filename,
		MimeType:   a.MimeType,
		Size:       a.Size,
		StorageKey: a.StorageKey,
		URL:        GetPublicURL(a.StorageKey),
		AltText:    a.AltText,
		Width:      a.Width,
		Height:     a.Height,
		CreatedAt:  a.CreatedAt.UTC(),
	}
	if a.DeletedAt != nil {
		at := a.DeletedAt.UTC()
		d.DeletedAt = &at
	}
	vm, err := a.VariantMap()
	if err == nil && len(vm) > 0 {
		d.Variants = make(map[string]VariantDescriptor, len(vm))
		for name, v := range vm {
			d.Variants[name] = VariantDescriptor{Path: v.Path, URL: GetPublicURL(v.Path), Width: v.Width, Height: v.Height}
		}
	}
	return d
}

func describeAll(rows []*types.Asset) []*Descriptor {
	out := make([]*Descriptor, 0, len(rows))
	for _, r := range rows {
		out = append(out, Describe(r))
	}
	return out
}
