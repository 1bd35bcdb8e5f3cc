package media

import (
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

var keyPattern = regexp.MustCompile(`^\d{4}/\d{2}/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}-my-photo-1\.jpg$`)

func TestGenerateStorageKeySanitizes(t *testing.T) {
	t.Parallel()
	key := GenerateStorageKey("My Photo (1).jpg")
	if strings.ContainsAny(key, " ()") {
		t.Fatalf("key contains forbidden characters: %q", key)
	}
	if !keyPattern.MatchString(key) {
		t.Fatalf("unexpected key shape: %q", key)
	}
}

func TestGenerateStorageKeyAtUsesMonthPartition(t *testing.T) {
	t.Parallel()
	key := GenerateStorageKeyAt("a.png", time.Date(2025, time.January, 9, 0, 0, 0, 0, time.UTC))
	if !strings.HasPrefix(key, "2025/01/") || !strings.HasSuffix(key, "-a.png") {
		t.Fatalf("unexpected key: %q", key)
	}
}

func TestGenerateStorageKeyUnique(t *testing.T) {
	t.Parallel()
	a := GenerateStorageKey("same.pdf")
	b := GenerateStorageKey("same.pdf")
	if a == b {
		t.Fatalf("expected distinct keys, got %q twice", a)
	}
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"My Photo (1).jpg":      "my-photo-1.jpg",
		"  Report -- FINAL.PDF": "report-final.pdf",
		"weird__name!!.png":     "weird-name.png",
		"../../etc/passwd":      "passwd",
		"a/b.jpg":               "b.jpg",
		`C:\Users\me\pic.png`:   "pic.png",
		"noext":                 "noext",
		"(((.gif":               "file.gif",
		"café menu.webp":        "caf-menu.webp",
	}
	for in, want := range tests {
		if got := SanitizeFilename(in); got != want {
			t.Fatalf("SanitizeFilename(%q)=%q want %q", in, got, want)
		}
	}
}

func TestGetVariantKey(t *testing.T) {
	t.Parallel()
	if got := GetVariantKey("2025/01/abc-photo.jpg", "thumb"); got != "2025/01/abc-photo-thumb.webp" {
		t.Fatalf("GetVariantKey=%q", got)
	}
	if got := GetVariantKey("2025/01/abc-photo.webp", "large"); got != "2025/01/abc-photo-large.webp" {
		t.Fatalf("GetVariantKey=%q", got)
	}
}

func TestGetPublicURLAndFilePath(t *testing.T) {
	t.Parallel()
	if got := GetPublicURL("2025/01/abc-photo.jpg"); got != "/media/2025/01/abc-photo.jpg" {
		t.Fatalf("GetPublicURL=%q", got)
	}
	want := filepath.Join("/srv/uploads", "2025", "01", "abc-photo.jpg")
	if got := GetFilePath("/srv/uploads", "2025/01/abc-photo.jpg"); got != want {
		t.Fatalf("GetFilePath=%q want %q", got, want)
	}
}
