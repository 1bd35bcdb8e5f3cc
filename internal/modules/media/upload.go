package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	types "github.com/yungbote/cms-backend/internal/domain/media"
	"github.com/yungbote/cms-backend/internal/platform/apierr"
	"github.com/yungbote/cms-backend/internal/platform/dbctx"
	"github.com/yungbote/cms-backend/internal/platform/logger"
)

type UploadInput struct {
	Filename string
	MimeType string
	// Size is the declared byte length. The stored size is the number of bytes actually read.
	Size    int64
	Content io.Reader
	AltText *string
}

// Upload validates, stores and catalogs one file. Nothing is written when validation fails,
// and no row is created when the original cannot be stored. Variant failures only reduce
// the variant set.
func (u Usecases) Upload(ctx context.Context, in UploadInput) (out *Descriptor, err error) {
	mime := strings.ToLower(strings.TrimSpace(in.MimeType))
	start := time.Now()
	ctx, span := startSpan(ctx, "media.upload",
		attribute.String("media.mime_type", mime),
		attribute.Int64("media.size", in.Size),
	)
	var stored int64
	defer func() {
		u.deps.Observer.RecordUpload(Category(mime), stored, time.Since(start), err)
		endSpan(span, err)
	}()

	if err := validate(mime, in.Size); err != nil {
		return nil, err
	}
	if in.Content == nil {
		return nil, apierr.New(http.StatusBadRequest, "missing_file", errors.New("no file content"))
	}

	limit := SizeLimit(mime)
	data, err := io.ReadAll(io.LimitReader(in.Content, limit+1))
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, "read_failed", fmt.Errorf("read upload: %w", err))
	}
	if int64(len(data)) > limit {
		return nil, tooLarge(mime, int64(len(data)), limit)
	}

	filename := strings.TrimSpace(in.Filename)
	if filename == "" {
		filename = "file"
	}
	key := GenerateStorageKeyAt(filename, u.now())
	log := u.deps.Log.With("storage_key", key, "mime_type", mime)
	span.SetAttributes(attribute.String("media.storage_key", key))

	if err := u.deps.Store.Put(ctx, key, bytes.NewReader(data), mime); err != nil {
		log.Error("store original failed", "error", err)
		return nil, storageFailure(key, err)
	}
	written := []string{key}

	row := &types.Asset{
		Filename:   filename,
		MimeType:   mime,
		Size:       int64(len(data)),
		StorageKey: key,
		AltText:    normalizeAlt(in.AltText),
		CreatedAt:  u.now(),
	}

	if IsRasterImage(mime) {
		variants, variantKeys := u.renderVariants(ctx, log, key, data, row)
		written = append(written, variantKeys...)
		encoded, encErr := types.EncodeVariants(variants)
		if encErr != nil {
			log.Warn("encode variants failed", "error", encErr)
		} else {
			row.Variants = encoded
		}
	}

	if err := u.deps.Assets.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		u.discard(ctx, log, written)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, constraintViolation(key, err)
		}
		log.Error("catalog insert failed", "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "catalog_insert_failed", err)
	}

	stored = row.Size
	log.Info("media uploaded", "media_id", row.ID, "size", row.Size)
	return Describe(row), nil
}

// renderVariants fills row's dimensions and stores every rendition that could be produced.
// It returns the stored variants and the keys it wrote.
func (u Usecases) renderVariants(ctx context.Context, log *logger.Logger, key string, data []byte, row *types.Asset) (map[string]types.Variant, []string) {
	if u.deps.Variants == nil {
		return nil, nil
	}
	res, err := u.deps.Variants.Generate(ctx, data)
	if err != nil {
		log.Warn("variant generation skipped", "error", err)
		for _, name := range types.VariantNames {
			u.deps.Observer.RecordVariantFailure(name)
		}
		return nil, nil
	}
	if res.Width > 0 && res.Height > 0 {
		w, h := res.Width, res.Height
		row.Width, row.Height = &w, &h
	}

	out := map[string]types.Variant{}
	var keys []string
	for _, r := range res.Renditions {
		if r.Err != nil {
			log.Warn("variant generation failed", "variant", r.Name, "error", r.Err)
			u.deps.Observer.RecordVariantFailure(r.Name)
			continue
		}
		vk := GetVariantKey(key, r.Name)
		if err := u.deps.Store.Put(ctx, vk, bytes.NewReader(r.Data), "image/webp"); err != nil {
			log.Warn("store variant failed", "variant", r.Name, "error", err)
			u.deps.Observer.RecordVariantFailure(r.Name)
			continue
		}
		keys = append(keys, vk)
		out[r.Name] = types.Variant{Path: vk, Width: r.Width, Height: r.Height}
	}
	return out, keys
}

// discard removes files written for an upload whose row could not be inserted.
func (u Usecases) discard(ctx context.Context, log *logger.Logger, keys []string) {
	for _, k := range keys {
		if err := u.deps.Store.Remove(ctx, k); err != nil {
			log.Warn("remove orphaned file failed", "key", k, "error", err)
		}
	}
}

func normalizeAlt(alt *string) *string {
	if alt == nil {
		return nil
	}
	v := strings.TrimSpace(*alt)
	if v == "" {
		return nil
	}
	return &v
}
