package volseg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/volseg/blobstore"
	"github.com/hupe1980/volseg/internal/segmentation"
	"github.com/hupe1980/volseg/lattice"
	"github.com/hupe1980/volseg/multimap"
	"github.com/hupe1980/volseg/resource"
	"github.com/hupe1980/volseg/volume"
)

// Engine answers bounding box and mask queries over one segmented lattice.
//
// The lattice and its set table must not be mutated after New. All methods
// are safe for concurrent use.
type Engine struct {
	seg     *segmentation.Segmentation
	opts    options
	metrics MetricsCollector
	logger  *Logger
	rc      *resource.Controller
}

// New builds an engine over grid. sets maps each set id stored in the grid
// to the segments it belongs to.
func New(grid *lattice.Grid, sets *multimap.Multimap, optFns ...Option) (*Engine, error) {
	return newEngine(context.Background(), grid, sets, applyOptions(optFns))
}

// NewFromColumns builds an engine from the raw set/segment table, given as
// two parallel columns.
func NewFromColumns(grid *lattice.Grid, setIDs, segmentIDs []int64, optFns ...Option) (*Engine, error) {
	opts := applyOptions(optFns)
	sets, err := multimap.New(setIDs, segmentIDs)
	if err != nil {
		err = translateError(err)
		opts.metricsCollector.RecordBuild(0, err)
		opts.logger.LogBuild(context.Background(), gridDims(grid), len(setIDs), 0, err)
		return nil, err
	}
	return newEngine(context.Background(), grid, sets, opts)
}

func newEngine(ctx context.Context, grid *lattice.Grid, sets *multimap.Multimap, opts options) (*Engine, error) {
	start := time.Now()
	s, err := segmentation.New(grid, sets, segmentation.Config{
		Padding:       opts.padding,
		MeasuredStats: opts.measuredStats,
	})
	if err != nil {
		err = translateError(err)
		opts.metricsCollector.RecordBuild(time.Since(start), err)
		opts.logger.LogBuild(ctx, gridDims(grid), sets.Len(), 0, err)
		return nil, err
	}

	e := &Engine{
		seg:     s,
		opts:    opts,
		metrics: opts.metricsCollector,
		logger:  opts.logger,
		rc:      opts.rc,
	}
	if opts.eagerBoxes {
		e.boxes(ctx)
	}

	e.metrics.RecordBuild(time.Since(start), nil)
	e.logger.LogBuild(ctx, grid.Dims, sets.Len(), s.Segments().Len(), nil)
	return e, nil
}

func gridDims(g *lattice.Grid) [3]int {
	if g == nil {
		return [3]int{}
	}
	return g.Dims
}

// boxes returns the memoized boxes and reports the scan if this call ran it.
func (e *Engine) boxes(ctx context.Context) *segmentation.Boxes {
	b, computed := e.seg.BoundingBoxes()
	if computed {
		e.metrics.RecordBoundingBoxes(b.Len(), b.Elapsed)
		e.logger.LogBoundingBoxes(ctx, b.Len(), b.Elapsed)
	}
	return b
}

// Grid returns the source lattice.
func (e *Engine) Grid() *lattice.Grid {
	return e.seg.Grid()
}

// BoundingBox returns the voxel box of segment id. Segments with no voxels
// report the unit box (0,1,0,1,0,1). ok is false for unknown segments.
func (e *Engine) BoundingBox(id uint32) (box lattice.Box, ok bool) {
	return e.boxes(context.Background()).Get(id)
}

// BoundingBoxes returns every segment's box keyed by segment id.
func (e *Engine) BoundingBoxes() map[uint32]lattice.Box {
	return e.boxes(context.Background()).All()
}

// VoxelCount returns how many lattice voxels belong to segment id.
func (e *Engine) VoxelCount(id uint32) (int64, bool) {
	return e.boxes(context.Background()).VoxelCount(id)
}

// Segments returns all segment ids in ascending order.
func (e *Engine) Segments() []uint32 {
	return e.seg.Segments().Keys()
}

// Sets returns all set ids in ascending order.
func (e *Engine) Sets() []uint32 {
	return e.seg.Sets().Keys()
}

// SegmentsOfSet returns the segments set belongs to.
func (e *Engine) SegmentsOfSet(set uint32) []uint32 {
	return e.seg.Sets().Values(set)
}

// SetsOfSegment returns the sets making up segment id.
func (e *Engine) SetsOfSegment(id uint32) []uint32 {
	return e.seg.Segments().Values(id)
}

// Extract returns the cropped binary mask of segment id, positioned in the
// lattice's fractional frame.
//
// It fails with ErrSegmentNotFound for unknown ids and with
// ErrUnsupportedTransform when the lattice carries a matrix transform.
func (e *Engine) Extract(ctx context.Context, id uint32) (*volume.Volume, error) {
	start := time.Now()
	v, err := e.extract(ctx, id)
	err = translateError(err)

	voxels := 0
	if err == nil {
		voxels = len(v.Grid.Data)
	}
	e.metrics.RecordExtract(voxels, time.Since(start), err)
	if err != nil {
		e.logger.LogExtract(ctx, id, lattice.Box{}, 0, err)
		return nil, err
	}
	e.logger.LogExtract(ctx, id, v.Crop, v.Ones, nil)
	return v, nil
}

func (e *Engine) extract(ctx context.Context, id uint32) (*volume.Volume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.boxes(ctx)

	crop, err := e.seg.CropBox(id)
	if err != nil {
		return nil, err
	}
	size := int64(crop.Volume())
	if err := e.rc.AcquireMemory(ctx, size); err != nil {
		return nil, err
	}
	defer e.rc.ReleaseMemory(size)

	x, err := e.seg.Extract(id)
	if err != nil {
		return nil, err
	}
	return &volume.Volume{
		SegmentID: x.SegmentID,
		Crop:      x.Crop,
		Ones:      x.Ones,
		Grid:      x.Mask,
	}, nil
}

// ExtractMany extracts the given segments concurrently. Parallelism is
// bounded by the resource controller's worker slots, or GOMAXPROCS without
// one. The first error cancels the remaining extractions.
func (e *Engine) ExtractMany(ctx context.Context, ids []uint32) ([]*volume.Volume, error) {
	out := make([]*volume.Volume, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if e.rc == nil {
		g.SetLimit(runtime.GOMAXPROCS(0))
	}
	for i, id := range ids {
		if err := e.rc.AcquireWorker(gctx); err != nil {
			break
		}
		g.Go(func() error {
			defer e.rc.ReleaseWorker()
			v, err := e.Extract(gctx, id)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteMask extracts segment id and streams its encoded volume to w,
// throttled by the resource controller's IO limit.
func (e *Engine) WriteMask(ctx context.Context, w io.Writer, id uint32) error {
	v, err := e.Extract(ctx, id)
	if err != nil {
		return err
	}
	return v.Encode(resource.NewRateLimitedWriter(ctx, w, e.rc), e.encodeOptions())
}

// Persist extracts segment id and stores it in store under volume.Name(id).
// It returns the blob name.
func (e *Engine) Persist(ctx context.Context, store blobstore.BlobStore, id uint32) (string, error) {
	name := volume.Name(id)

	var buf bytes.Buffer
	err := e.WriteMask(ctx, &buf, id)
	if err == nil {
		err = store.Put(ctx, name, buf.Bytes())
	}
	e.logger.LogPersist(ctx, id, name, buf.Len(), err)
	if err != nil {
		return "", err
	}
	return name, nil
}

// WriteLattice writes a snapshot of the source lattice to w.
func (e *Engine) WriteLattice(ctx context.Context, w io.Writer) error {
	err := lattice.EncodeGrid(resource.NewRateLimitedWriter(ctx, w, e.rc), e.seg.Grid(), e.encodeOptions())
	return translateError(err)
}

func (e *Engine) encodeOptions() lattice.EncodeOptions {
	return lattice.EncodeOptions{Codec: e.opts.codec, Compression: e.opts.compression}
}

// BenchmarkResult reports repeated bounding box reconstructions.
type BenchmarkResult struct {
	Runs     int
	Segments int
	Total    time.Duration
	Min      time.Duration
	Max      time.Duration
}

// Mean returns the average reconstruction time.
func (r BenchmarkResult) Mean() time.Duration {
	if r.Runs == 0 {
		return 0
	}
	return r.Total / time.Duration(r.Runs)
}

func (r BenchmarkResult) String() string {
	return fmt.Sprintf("%d runs over %d segments: mean %s, min %s, max %s", r.Runs, r.Segments, r.Mean(), r.Min, r.Max)
}

// Benchmark drops the cached bounding boxes and recomputes them n times.
// The cache holds the result of the last run afterwards.
func (e *Engine) Benchmark(ctx context.Context, n int) (BenchmarkResult, error) {
	res := BenchmarkResult{}
	for range n {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		e.seg.Reset()
		b := e.boxes(ctx)

		if res.Runs == 0 || b.Elapsed < res.Min {
			res.Min = b.Elapsed
		}
		res.Max = max(res.Max, b.Elapsed)
		res.Total += b.Elapsed
		res.Segments = b.Len()
		res.Runs++
	}
	e.logger.InfoContext(ctx, "benchmark completed", "result", res.String())
	return res, nil
}
