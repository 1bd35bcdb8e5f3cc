package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	mediarepo "github.com/yungbote/cms-backend/internal/data/repos/media"
	"github.com/yungbote/cms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/cms-backend/internal/domain/media"
	"github.com/yungbote/cms-backend/internal/platform/dbctx"
	"github.com/yungbote/cms-backend/internal/platform/imagevariant"
)

// memStore is an in-memory Store with per-key fault injection.
type memStore struct {
	mu        sync.Mutex
	files     map[string][]byte
	putErr    map[string]error
	removeErr map[string]error
	removed   []string
}

func newMemStore() *memStore {
	return &memStore{
		files:     map[string][]byte{},
		putErr:    map[string]error{},
		removeErr: map[string]error{},
	}
}

func (s *memStore) Put(_ context.Context, key string, r io.Reader, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.putErr[key]; err != nil {
		return err
	}
	if err := s.putErr["*"]; err != nil {
		return err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.files[key] = b
	return nil
}

func (s *memStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[key]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", key, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.removeErr[key]; err != nil {
		return err
	}
	delete(s.files, key)
	s.removed = append(s.removed, key)
	return nil
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[key]
	return ok
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// stubVariants returns fixed renditions; failing names get an error instead.
type stubVariants struct {
	decodeErr error
	failing   map[string]bool
	calls     int
}

func (g *stubVariants) Generate(_ context.Context, _ []byte) (imagevariant.Result, error) {
	g.calls++
	if g.decodeErr != nil {
		return imagevariant.Result{}, g.decodeErr
	}
	res := imagevariant.Result{Width: 2000, Height: 1000}
	for _, name := range types.VariantNames {
		edge := imagevariant.DefaultMaxEdges[name]
		w, h := imagevariant.Fit(2000, 1000, edge)
		r := imagevariant.Rendition{Name: name, Width: w, Height: h, Data: []byte("webp-" + name)}
		if g.failing[name] {
			r = imagevariant.Rendition{Name: name, Err: errors.New("encode failed")}
		}
		res.Renditions = append(res.Renditions, r)
	}
	return res, nil
}

type harness struct {
	db       *gorm.DB
	repo     mediarepo.AssetRepo
	store    *memStore
	variants *stubVariants
	uc       Usecases
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{
		db:       db,
		repo:     mediarepo.NewAssetRepo(db, log),
		store:    newMemStore(),
		variants: &stubVariants{failing: map[string]bool{}},
		now:      time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC),
	}
	h.uc = New(UsecasesDeps{
		DB:       db,
		Log:      log,
		Assets:   h.repo,
		Store:    h.store,
		Variants: h.variants,
		Now:      func() time.Time { return h.now },
	})
	return h
}

// usecasesWith builds usecases over the harness store and clock with a different catalog layer.
func (h *harness) usecasesWith(assets mediarepo.AssetRepo) Usecases {
	return New(UsecasesDeps{
		DB:       h.db,
		Log:      h.uc.deps.Log,
		Assets:   assets,
		Store:    h.store,
		Variants: h.variants,
		Now:      func() time.Time { return h.now },
	})
}

func (h *harness) uploadPDF(t *testing.T, name string) *Descriptor {
	t.Helper()
	body := []byte("%PDF-1.7 test")
	d, err := h.uc.Upload(context.Background(), UploadInput{
		Filename: name,
		MimeType: "application/pdf",
		Size:     int64(len(body)),
		Content:  bytes.NewReader(body),
	})
	if err != nil {
		t.Fatalf("upload %s: %v", name, err)
	}
	return d
}

func (h *harness) trashAt(t *testing.T, id uint, at time.Time) {
	t.Helper()
	if err := h.db.Model(&types.Asset{}).Where("id = ?", id).Update("deleted_at", at.UTC()).Error; err != nil {
		t.Fatalf("trash %d: %v", id, err)
	}
}

func ctxDBC() dbctx.Context { return dbctx.Context{Ctx: context.Background()} }

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }
