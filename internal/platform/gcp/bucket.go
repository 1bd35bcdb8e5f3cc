package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/cms-backend/internal/platform/logger"
)

// BucketStore keeps media objects in one GCS bucket, optionally below a key prefix.
// Object names mirror storage keys, so the {year}/{month} partitioning carries over.
type BucketStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
	prefix string
}

func NewBucketStore(ctx context.Context, log *logger.Logger, cfg ObjectStorageConfig) (*BucketStore, error) {
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	if !cfg.IsBucketMode() {
		return nil, fmt.Errorf("storage mode %q is not bucket backed", cfg.Mode)
	}
	client, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog := log.With("service", "BucketStore")
	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Mode,
		"bucket", cfg.Bucket,
		"prefix", cfg.Prefix,
		"emulator_host", cfg.EmulatorHost,
	)
	return &BucketStore{
		log:    serviceLog,
		client: client,
		bucket: strings.TrimSpace(cfg.Bucket),
		prefix: strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
	}, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig) (*storage.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptions(cfg.Credentials)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

// ObjectName maps a storage key to the object name inside the bucket.
func (s *BucketStore) ObjectName(key string) string {
	return objectName(s.prefix, key)
}

func objectName(prefix, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}

func (s *BucketStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(s.ObjectName(key)).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", key, err)
	}
	return nil
}

// Open wraps storage.ErrObjectNotExist in fs.ErrNotExist so callers treat both stores alike.
func (s *BucketStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.client.Bucket(s.bucket).Object(s.ObjectName(key)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", key, fs.ErrNotExist)
	}
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// Remove deletes the object. A missing object counts as removed.
func (s *BucketStore) Remove(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(s.ObjectName(key)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *BucketStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
