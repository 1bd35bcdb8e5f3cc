package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/yungbote/cms-backend/internal/modules/media"
	"github.com/yungbote/cms-backend/internal/platform/gcp"
	"github.com/yungbote/cms-backend/internal/platform/localmedia"
	"github.com/yungbote/cms-backend/internal/platform/logger"
)

var newBucketStore = func(ctx context.Context, log *logger.Logger, cfg gcp.ObjectStorageConfig) (media.Store, io.Closer, error) {
	s, err := gcp.NewBucketStore(ctx, log, cfg)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "media storage bootstrap failed"
	}
	return fmt.Sprintf(
		"media storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveMediaStore picks the local uploads directory or a GCS bucket from STORAGE_MODE.
// The returned closer is nil for the local store.
func resolveMediaStore(ctx context.Context, log *logger.Logger, cfg Config) (media.Store, io.Closer, error) {
	mode, err := gcp.ParseObjectStorageMode(cfg.StorageMode)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageMode(cfg.StorageMode)}, err)
		log.Error("Media storage provider selection failed", "mode", cfg.StorageMode, "error", classified)
		return nil, nil, classified
	}
	storageCfg := gcp.ObjectStorageConfig{
		Mode:         mode,
		Bucket:       cfg.GCSBucket,
		Prefix:       cfg.GCSPrefix,
		EmulatorHost: cfg.StorageEmulatorHost,
		Credentials:  cfg.GCSCredentials,
	}

	if !storageCfg.IsBucketMode() {
		log.Info("Selecting media storage provider", "mode", mode, "uploads_root", cfg.UploadsRoot)
		store, err := localmedia.New(log, cfg.UploadsRoot)
		if err != nil {
			return nil, nil, &StorageProviderBootstrapError{Code: StorageProviderBootstrapErrorConnectFailed, Mode: string(mode), Cause: err}
		}
		return store, nil, nil
	}

	log.Info(
		"Selecting media storage provider",
		"mode", mode,
		"bucket", storageCfg.Bucket,
		"emulator_host", storageCfg.EmulatorHost,
	)
	store, closer, err := newBucketStore(ctx, log, storageCfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Media storage provider bootstrap failed",
			"mode", mode,
			"bucket", storageCfg.Bucket,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, nil, classified
	}
	return store, closer, nil
}

func classifyStorageProviderBootstrapError(storageCfg gcp.ObjectStorageConfig, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case gcp.ObjectStorageConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case gcp.ObjectStorageConfigErrorMissingBucket:
			code = StorageProviderBootstrapErrorMissingBucket
		case gcp.ObjectStorageConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case gcp.ObjectStorageConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StorageProviderBootstrapErrorConnectFailed
}
