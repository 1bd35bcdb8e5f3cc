package localmedia

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/cms-backend/internal/platform/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(logger.Nop(), t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestStorePutCreatesPartitionDirs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	key := "2025/01/abc-photo.jpg"
	if err := s.Put(ctx, key, bytes.NewReader([]byte("jpeg-bytes")), "image/jpeg"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(s.Root(), "2025", "01", "abc-photo.jpg"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(raw) != "jpeg-bytes" {
		t.Fatalf("unexpected content: %q", raw)
	}

	entries, err := os.ReadDir(filepath.Join(s.Root(), "2025", "01"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}

	rc, err := s.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "jpeg-bytes" {
		t.Fatalf("Open content: %q", got)
	}
}

func TestStoreRemoveIsIdempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	key := "2025/02/x-doc.pdf"
	if err := s.Put(ctx, key, bytes.NewReader([]byte("%PDF")), "application/pdf"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Remove(ctx, key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(ctx, key); err != nil {
		t.Fatalf("Remove missing file: %v", err)
	}
	if _, err := s.Open(ctx, key); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Open after remove: got=%v want fs.ErrNotExist", err)
	}
}

func TestStoreRejectsEscapingKeys(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, key := range []string{"../etc/passwd", "2025/../../x", "", ".."} {
		if _, err := s.Path(key); err == nil {
			t.Fatalf("Path(%q): expected error", key)
		}
	}
}
