package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	types "github.com/yungbote/cms-backend/internal/domain/media"
	"github.com/yungbote/cms-backend/internal/platform/apierr"
	"github.com/yungbote/cms-backend/internal/platform/dbctx"
)

// OpenFile streams a stored original or variant by storage key. Only files owned by an active
// catalog row are served; trashed assets and orphans are reported as missing. The caller
// closes the reader.
func (u Usecases) OpenFile(ctx context.Context, key string) (io.ReadCloser, string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") {
		return nil, "", apierr.New(http.StatusNotFound, "file_not_found", fmt.Errorf("invalid key %q", key))
	}
	owner, err := u.ownerOf(ctx, key)
	if err != nil {
		return nil, "", catalogError("get media by key", err)
	}
	if owner == nil || owner.IsTrashed() {
		return nil, "", apierr.New(http.StatusNotFound, "file_not_found", fmt.Errorf("no active media owns %q", key))
	}
	rc, err := u.deps.Store.Open(ctx, key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", apierr.New(http.StatusNotFound, "file_not_found", err)
	}
	if err != nil {
		return nil, "", apierr.New(http.StatusInternalServerError, "storage_read_failure", err)
	}
	ct := mime.TypeByExtension(path.Ext(key))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return rc, ct, nil
}

// ownerOf resolves the row a storage key belongs to, either as its original or as one of its
// variants.
func (u Usecases) ownerOf(ctx context.Context, key string) (*types.Asset, error) {
	dbc := dbctx.Context{Ctx: ctx}
	row, err := u.deps.Assets.GetByStorageKey(dbc, key)
	if err != nil || row != nil {
		return row, err
	}
	for _, name := range types.VariantNames {
		suffix := "-" + name + ".webp"
		if !strings.HasSuffix(key, suffix) {
			continue
		}
		row, err := u.deps.Assets.GetByKeyStem(dbc, strings.TrimSuffix(key, suffix))
		if err != nil {
			return nil, err
		}
		if row != nil && GetVariantKey(row.StorageKey, name) == key {
			return row, nil
		}
	}
	return nil, nil
}
