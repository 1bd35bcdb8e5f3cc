package media

import "strings"

const (
	MaxImageBytes int64 = 10 << 20
	MaxPDFBytes   int64 = 25 << 20
)

var rasterTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

var allowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/gif":       true,
	"image/svg+xml":   true,
	"application/pdf": true,
}

// ValidateFileType reports whether mime is on the upload allow-list.
func ValidateFileType(mime string) bool {
	return allowedTypes[mime]
}

// SizeLimit returns the inclusive byte ceiling for mime's category, or 0 if the type is not accepted.
func SizeLimit(mime string) int64 {
	switch {
	case !ValidateFileType(mime):
		return 0
	case strings.HasPrefix(mime, "image/"):
		return MaxImageBytes
	case mime == "application/pdf":
		return MaxPDFBytes
	default:
		return 0
	}
}

func ValidateFileSize(mime string, size int64) bool {
	limit := SizeLimit(mime)
	return limit > 0 && size >= 0 && size <= limit
}

// IsRasterImage is true only for types that get dimensions and variants.
func IsRasterImage(mime string) bool {
	return rasterTypes[mime]
}

// Category groups accepted types for metrics and logs.
func Category(mime string) string {
	switch {
	case mime == "image/svg+xml":
		return "vector"
	case IsRasterImage(mime):
		return "image"
	case mime == "application/pdf":
		return "pdf"
	default:
		return "other"
	}
}

func validate(mime string, size int64) error {
	if !ValidateFileType(mime) {
		return unsupportedType(mime)
	}
	if size < 0 {
		return invalidSize(size)
	}
	if !ValidateFileSize(mime, size) {
		return tooLarge(mime, size, SizeLimit(mime))
	}
	return nil
}
