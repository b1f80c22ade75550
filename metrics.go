package volseg

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    extractCounter   prometheus.Counter
//	    extractHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordExtract(voxels int, duration time.Duration, err error) {
//	    p.extractCounter.Inc()
//	    p.extractHistogram.Observe(duration.Seconds())
//	}
type MetricsCollector interface {
	// RecordBuild is called once after the engine is constructed.
	RecordBuild(duration time.Duration, err error)

	// RecordBoundingBoxes is called after each scan of the lattice.
	// segments is the number of boxes produced.
	RecordBoundingBoxes(segments int, duration time.Duration)

	// RecordExtract is called after each mask extraction. voxels is the size
	// of the mask, err is nil if successful.
	RecordExtract(voxels int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(time.Duration, error)         {}
func (NoopMetricsCollector) RecordBoundingBoxes(int, time.Duration)   {}
func (NoopMetricsCollector) RecordExtract(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount        atomic.Int64
	BuildErrors       atomic.Int64
	BuildTotalNanos   atomic.Int64
	ScanCount         atomic.Int64
	ScanTotalNanos    atomic.Int64
	ExtractCount      atomic.Int64
	ExtractErrors     atomic.Int64
	ExtractVoxels     atomic.Int64
	ExtractTotalNanos atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordBoundingBoxes implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBoundingBoxes(_ int, duration time.Duration) {
	b.ScanCount.Add(1)
	b.ScanTotalNanos.Add(duration.Nanoseconds())
}

// RecordExtract implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExtract(voxels int, duration time.Duration, err error) {
	b.ExtractCount.Add(1)
	b.ExtractTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ExtractErrors.Add(1)
		return
	}
	b.ExtractVoxels.Add(int64(voxels))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:      b.BuildCount.Load(),
		BuildErrors:     b.BuildErrors.Load(),
		ScanCount:       b.ScanCount.Load(),
		ScanAvgNanos:    avg(b.ScanTotalNanos.Load(), b.ScanCount.Load()),
		ExtractCount:    b.ExtractCount.Load(),
		ExtractErrors:   b.ExtractErrors.Load(),
		ExtractVoxels:   b.ExtractVoxels.Load(),
		ExtractAvgNanos: avg(b.ExtractTotalNanos.Load(), b.ExtractCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount      int64
	BuildErrors     int64
	ScanCount       int64
	ScanAvgNanos    int64
	ExtractCount    int64
	ExtractErrors   int64
	ExtractVoxels   int64
	ExtractAvgNanos int64
}
