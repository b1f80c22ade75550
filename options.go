package volseg

import (
	"log/slog"

	"github.com/hupe1980/volseg/codec"
	"github.com/hupe1980/volseg/internal/segmentation"
	"github.com/hupe1980/volseg/resource"
)

type options struct {
	codec            codec.Codec
	compression      codec.Compression
	metricsCollector MetricsCollector
	logger           *Logger
	padding          segmentation.Padding
	measuredStats    bool
	eagerBoxes       bool
	rc               *resource.Controller
}

// Option configures Engine construction.
type Option func(*options)

// WithCodec configures the codec used for persisted volume headers.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the block compression of persisted masks.
func WithCompression(c codec.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithPadding sets how many empty layers are added below and above each
// segment's bounding box before cropping. The default is 2 below and 1 above,
// which the marching-cubes consumer needs to close surfaces at the crop edge.
func WithPadding(lower, upper int) Option {
	return func(o *options) {
		o.padding = segmentation.Padding{Lower: lower, Upper: upper}
	}
}

// WithMeasuredStats makes extracted masks report their real mean and sigma
// instead of the nominal {0, 1, 0, 1}.
func WithMeasuredStats() Option {
	return func(o *options) {
		o.measuredStats = true
	}
}

// WithEagerBoundingBoxes scans the lattice during New instead of on the
// first extraction.
func WithEagerBoundingBoxes() Option {
	return func(o *options) {
		o.eagerBoxes = true
	}
}

// WithResourceController bounds memory, concurrency and persistence
// bandwidth of extractions.
//
// Example:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:         256 << 20,
//	    MaxConcurrentExtractions: 4,
//	})
//	eng, _ := volseg.New(grid, sets, volseg.WithResourceController(rc))
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &volseg.BasicMetricsCollector{}
//	eng, _ := volseg.New(grid, sets, volseg.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Extracts: %d, Avg latency: %dns\n", stats.ExtractCount, stats.ExtractAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := volseg.NewJSONLogger(slog.LevelInfo)
//	eng, _ := volseg.New(grid, sets, volseg.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		compression:      codec.CompressionZSTD,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		padding:          segmentation.DefaultPadding,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
