package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMediaObserverCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := NewPrometheusMediaObserver("test_media", reg)
	if err != nil {
		t.Fatalf("NewPrometheusMediaObserver: %v", err)
	}

	o.RecordUpload("image", 2048, 10*time.Millisecond, nil)
	o.RecordUpload("image", 0, time.Millisecond, errors.New("boom"))
	o.RecordVariantFailure("thumb")
	o.RecordTransition("restore", nil)
	o.RecordCleanup(3, 1, time.Second)

	if got := testutil.ToFloat64(o.uploads.WithLabelValues("image", "ok")); got != 1 {
		t.Fatalf("uploads ok: got=%v", got)
	}
	if got := testutil.ToFloat64(o.uploads.WithLabelValues("image", "error")); got != 1 {
		t.Fatalf("uploads error: got=%v", got)
	}
	if got := testutil.ToFloat64(o.uploadBytes); got != 2048 {
		t.Fatalf("uploaded bytes: got=%v", got)
	}
	if got := testutil.ToFloat64(o.cleanupAssets.WithLabelValues("cleaned")); got != 3 {
		t.Fatalf("cleanup cleaned: got=%v", got)
	}

	// Registering twice against the same registry reuses the existing collectors.
	if _, err := NewPrometheusMediaObserver("test_media", reg); err != nil {
		t.Fatalf("second registration: %v", err)
	}
}
