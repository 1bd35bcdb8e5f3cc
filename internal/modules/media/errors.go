package media

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/cms-backend/internal/platform/apierr"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("file exceeds size limit")
	ErrInvalidSize          = errors.New("invalid file size")
	ErrNotFound             = errors.New("media not found")
	ErrInvalidState         = errors.New("media is in the wrong lifecycle state")
	ErrStorageWriteFailure  = errors.New("storage write failed")
	ErrConstraintViolation  = errors.New("catalog constraint violation")
)

func unsupportedType(mime string) error {
	return apierr.New(http.StatusUnsupportedMediaType, "unsupported_media_type",
		fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mime))
}

func tooLarge(mime string, size, limit int64) error {
	return apierr.New(http.StatusRequestEntityTooLarge, "payload_too_large",
		fmt.Errorf("%w: %s is %d bytes, limit %d", ErrPayloadTooLarge, mime, size, limit))
}

func invalidSize(size int64) error {
	return apierr.New(http.StatusBadRequest, "invalid_size", fmt.Errorf("%w: %d", ErrInvalidSize, size))
}

func notFound(id uint) error {
	return apierr.New(http.StatusNotFound, "media_not_found", fmt.Errorf("%w: id=%d", ErrNotFound, id))
}

func invalidState(id uint, msg string) error {
	return apierr.New(http.StatusConflict, "invalid_state", fmt.Errorf("%w: id=%d: %s", ErrInvalidState, id, msg))
}

func storageFailure(key string, err error) error {
	return apierr.New(http.StatusInternalServerError, "storage_write_failure",
		fmt.Errorf("%w: %s: %v", ErrStorageWriteFailure, key, err))
}

func constraintViolation(key string, err error) error {
	return apierr.New(http.StatusConflict, "constraint_violation",
		fmt.Errorf("%w: %s: %v", ErrConstraintViolation, key, err))
}
