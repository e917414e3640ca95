// Package metrics exposes the pipeline's Prometheus counters and gauges,
// registered against the default registry the way the rest of the pack's
// services do.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SegmentsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srec_segments_written_total",
		Help: "Total number of segment files finalized.",
	}, []string{"engine"})

	BytesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srec_bytes_written_total",
		Help: "Total bytes written across all segment files.",
	}, []string{"engine"})

	GapSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srec_gap_skips_total",
		Help: "Total number of HLS sequence gaps skipped without recovery.",
	}, []string{"strategy"})

	SegmentTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srec_segment_timeouts_total",
		Help: "Total number of HLS per-sequence stall timeouts observed.",
	}, []string{"reason"})

	RunErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srec_run_errors_total",
		Help: "Total number of recording runs that ended in error, by error kind.",
	}, []string{"kind"})

	ActiveRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "srec_active_runs",
		Help: "Number of recording runs currently in progress.",
	})

	SegmentWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "srec_segment_write_duration_seconds",
		Help:    "Wall-clock duration of one finalized segment file.",
		Buckets: prometheus.DefBuckets,
	})
)

// RecordSegmentClosed updates the per-segment counters/histogram when the
// writer finalizes one segment file.
func RecordSegmentClosed(engineName string, bytes int64, durationSeconds float64) {
	SegmentsWritten.WithLabelValues(engineName).Inc()
	BytesWritten.WithLabelValues(engineName).Add(float64(bytes))
	SegmentWriteDuration.Observe(durationSeconds)
}

// RecordGapSkip updates the gap-skip counter for the strategy that
// triggered it.
func RecordGapSkip(strategy string) {
	GapSkips.WithLabelValues(strategy).Inc()
}

// RecordSegmentTimeout updates the segment-timeout counter.
func RecordSegmentTimeout(reason string) {
	SegmentTimeouts.WithLabelValues(reason).Inc()
}

// RecordRunError updates the run-error counter for the given PipelineError
// kind string.
func RecordRunError(kind string) {
	RunErrors.WithLabelValues(kind).Inc()
}
