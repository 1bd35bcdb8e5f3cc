package observability

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MediaObserver captures telemetry for the media lifecycle.
type MediaObserver interface {
	RecordUpload(category string, sizeBytes int64, duration time.Duration, err error)
	RecordVariantFailure(variant string)
	RecordTransition(op string, err error)
	RecordCleanup(cleaned, failed int, duration time.Duration)
}

// NopMediaObserver discards everything.
type NopMediaObserver struct{}

func (NopMediaObserver) RecordUpload(string, int64, time.Duration, error) {}
func (NopMediaObserver) RecordVariantFailure(string)                      {}
func (NopMediaObserver) RecordTransition(string, error)                   {}
func (NopMediaObserver) RecordCleanup(int, int, time.Duration)            {}

// PrometheusMediaObserver exports media metrics to Prometheus.
type PrometheusMediaObserver struct {
	uploads         *prometheus.CounterVec
	uploadBytes     prometheus.Counter
	uploadDuration  *prometheus.HistogramVec
	variantFailures *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	cleanupAssets   *prometheus.CounterVec
	cleanupDuration prometheus.Histogram
}

func NewPrometheusMediaObserver(namespace string, reg prometheus.Registerer) (*PrometheusMediaObserver, error) {
	if namespace == "" {
		namespace = "cms_media"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusMediaObserver{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload attempts by media category and result.",
		}, []string{"category", "result"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative size of successfully stored originals.",
		}),
		uploadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "End-to-end upload latency including variant generation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"category"}),
		variantFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variant_failures_total",
			Help:      "Variants that could not be generated or stored.",
		}, []string{"variant"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_transitions_total",
			Help:      "Lifecycle operations by operation and result.",
		}, []string{"op", "result"}),
		cleanupAssets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_assets_total",
			Help:      "Assets processed by cleanup runs by outcome.",
		}, []string{"outcome"}),
		cleanupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cleanup_duration_seconds",
			Help:      "Duration of cleanup runs.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	collectors := []prometheus.Collector{
		o.uploads, o.uploadBytes, o.uploadDuration, o.variantFailures,
		o.transitions, o.cleanupAssets, o.cleanupDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("register media metric: %w", err)
		}
	}
	return o, nil
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (o *PrometheusMediaObserver) RecordUpload(category string, sizeBytes int64, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.uploads.WithLabelValues(category, result(err)).Inc()
	o.uploadDuration.WithLabelValues(category).Observe(duration.Seconds())
	if err == nil && sizeBytes > 0 {
		o.uploadBytes.Add(float64(sizeBytes))
	}
}

func (o *PrometheusMediaObserver) RecordVariantFailure(variant string) {
	if o == nil {
		return
	}
	o.variantFailures.WithLabelValues(variant).Inc()
}

func (o *PrometheusMediaObserver) RecordTransition(op string, err error) {
	if o == nil {
		return
	}
	o.transitions.WithLabelValues(op, result(err)).Inc()
}

func (o *PrometheusMediaObserver) RecordCleanup(cleaned, failed int, duration time.Duration) {
	if o == nil {
		return
	}
	o.cleanupAssets.WithLabelValues("cleaned").Add(float64(cleaned))
	o.cleanupAssets.WithLabelValues("failed").Add(float64(failed))
	o.cleanupDuration.Observe(duration.Seconds())
}
