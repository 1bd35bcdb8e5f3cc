package media

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	nonKeyChars = regexp.MustCompile(`[^a-z0-9.-]+`)
	hyphenRuns  = regexp.MustCompile(`-{2,}`)
)

// GenerateStorageKey returns {yyyy}/{mm}/{uuid}-{sanitized filename} for the current UTC month.
func GenerateStorageKey(filename string) string {
	return GenerateStorageKeyAt(filename, time.Now().UTC())
}

func GenerateStorageKeyAt(filename string, now time.Time) string {
	return fmt.Sprintf("%04d/%02d/%s-%s", now.Year(), int(now.Month()), uuid.New().String(), SanitizeFilename(filename))
}

// SanitizeFilename lowercases name and reduces it to [a-z0-9.-], keeping the extension.
func SanitizeFilename(name string) string {
	name = strings.ToLower(strings.TrimSpace(path.Base(strings.ReplaceAll(name, "\\", "/"))))
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	ext = clean(strings.TrimPrefix(ext, "."))

	stem = clean(stem)
	if stem == "" {
		stem = "file"
	}
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}

func clean(s string) string {
	s = nonKeyChars.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-.")
}

// GetVariantKey strips the extension from storageKey and appends -{variant}.webp.
func GetVariantKey(storageKey, variant string) string {
	return strings.TrimSuffix(storageKey, path.Ext(storageKey)) + "-" + variant + ".webp"
}

func GetPublicURL(storageKey string) string {
	return "/media/" + storageKey
}

func GetFilePath(uploadsRoot, storageKey string) string {
	return filepath.Join(uploadsRoot, filepath.FromSlash(storageKey))
}
