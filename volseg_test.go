package volseg

import (
	"bytes"
	"context"
	"testing"

	"github.com/hupe1980/volseg/blobstore"
	"github.com/hupe1980/volseg/lattice"
	"github.com/hupe1980/volseg/multimap"
	"github.com/hupe1980/volseg/resource"
	"github.com/hupe1980/volseg/testutil"
	"github.com/hupe1980/volseg/volume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubCubeEngine(t *testing.T, optFns ...Option) *Engine {
	t.Helper()
	fx := testutil.SubCube(12, 4, 4, lattice.DefaultAxisOrder)
	eng, err := NewFromColumns(fx.Grid, fx.SetIDs, fx.SegmentIDs, optFns...)
	require.NoError(t, err)
	return eng
}

func TestEngine_BoundingBoxes(t *testing.T) {
	eng := newSubCubeEngine(t)

	box, ok := eng.BoundingBox(10)
	require.True(t, ok)
	assert.Equal(t, lattice.NewBox(4, 8, 4, 8, 4, 8), box)

	box, ok = eng.BoundingBox(20)
	require.True(t, ok)
	assert.Equal(t, lattice.NewBox(11, 12, 11, 12, 11, 12), box)

	box, ok = eng.BoundingBox(30)
	require.True(t, ok)
	assert.Equal(t, lattice.UnitBox, box)

	_, ok = eng.BoundingBox(99)
	assert.False(t, ok)

	all := eng.BoundingBoxes()
	assert.Len(t, all, 3)

	n, ok := eng.VoxelCount(10)
	require.True(t, ok)
	assert.Equal(t, int64(64), n)
}

func TestEngine_Introspection(t *testing.T) {
	eng := newSubCubeEngine(t)

	assert.Equal(t, []uint32{10, 20, 30}, eng.Segments())
	assert.Equal(t, []uint32{1, 2, 3, 4}, eng.Sets())
	assert.Equal(t, []uint32{10}, eng.SegmentsOfSet(2))
	assert.ElementsMatch(t, []uint32{1, 2}, eng.SetsOfSegment(10))
	assert.Empty(t, eng.SetsOfSegment(99))
}

func TestEngine_Extract(t *testing.T) {
	ctx := context.Background()
	eng := newSubCubeEngine(t)

	v, err := eng.Extract(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, uint32(10), v.SegmentID)
	assert.Equal(t, lattice.NewBox(2, 9, 2, 9, 2, 9), v.Crop)
	assert.Equal(t, [3]int{7, 7, 7}, v.Grid.Dims)
	assert.Equal(t, 64, v.Ones)
	assert.Equal(t, 64, v.Grid.Count())
	assert.Equal(t, uint8(1), v.Grid.Get(2, 2, 2))
	assert.Equal(t, uint8(0), v.Grid.Get(1, 2, 2))
	assert.Equal(t, lattice.Stats{Min: 0, Max: 1, Mean: 0, Sigma: 1}, v.Grid.Stats)

	tr, ok := v.Grid.Transform.(*lattice.SpacegroupTransform)
	require.True(t, ok)
	assert.InDelta(t, 2.0/12, tr.FractionalBox.Min.X, 1e-12)
	assert.InDelta(t, 9.0/12, tr.FractionalBox.Max.Z, 1e-12)
}

func TestEngine_ExtractErrors(t *testing.T) {
	ctx := context.Background()
	eng := newSubCubeEngine(t)

	_, err := eng.Extract(ctx, 99)
	require.ErrorIs(t, err, ErrSegmentNotFound)
	var missing *ErrSegmentMissing
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, uint32(99), missing.SegmentID)

	fx := testutil.SubCube(6, 1, 2, lattice.DefaultAxisOrder)
	fx.Grid.Transform = &lattice.MatrixTransform{Matrix: [16]float64{0: 1, 5: 1, 10: 1, 15: 1}}
	eng, err = New(fx.Grid, fx.Sets)
	require.NoError(t, err)
	_, err = eng.Extract(ctx, 10)
	assert.ErrorIs(t, err, ErrUnsupportedTransform)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = eng.Extract(canceled, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Options(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	eng := newSubCubeEngine(t,
		WithPadding(0, 0),
		WithMeasuredStats(),
		WithEagerBoundingBoxes(),
		WithMetricsCollector(metrics),
		WithLogger(nil),
	)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Equal(t, int64(1), stats.ScanCount, "eager build scans the lattice")

	v, err := eng.Extract(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, lattice.NewBox(4, 8, 4, 8, 4, 8), v.Crop)
	assert.Equal(t, lattice.Stats{Min: 1, Max: 1, Mean: 1, Sigma: 0}, v.Grid.Stats)

	_, err = eng.Extract(ctx, 99)
	require.Error(t, err)

	stats = metrics.GetStats()
	assert.Equal(t, int64(1), stats.ScanCount)
	assert.Equal(t, int64(2), stats.ExtractCount)
	assert.Equal(t, int64(1), stats.ExtractErrors)
	assert.Equal(t, int64(64), stats.ExtractVoxels)
}

func TestNew_Malformed(t *testing.T) {
	fx := testutil.SubCube(6, 1, 2, lattice.DefaultAxisOrder)
	metrics := &BasicMetricsCollector{}

	_, err := NewFromColumns(fx.Grid, []int64{1, 2}, []int64{10}, WithMetricsCollector(metrics))
	require.ErrorIs(t, err, ErrMalformedInput)
	var mismatch *ErrColumnLengthMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.SetIDs)
	assert.Equal(t, 1, mismatch.SegmentIDs)

	_, err = New(nil, fx.Sets, WithMetricsCollector(metrics))
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = New(fx.Grid, nil)
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = New(fx.Grid, fx.Sets, WithPadding(-1, 0))
	assert.ErrorIs(t, err, ErrMalformedInput)

	assert.Equal(t, int64(2), metrics.GetStats().BuildErrors)
}

func TestEngine_ExtractMany(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(7)
	fx := rng.RandomLattice(testutil.LatticeSpec{
		Dims:              [3]int{10, 9, 8},
		AxisOrder:         [3]int{1, 2, 0},
		Sets:              20,
		Segments:          8,
		MaxSegmentsPerSet: 3,
	})

	rcs := map[string]*resource.Controller{
		"unbounded": nil,
		"bounded": resource.NewController(resource.Config{
			MemoryLimitBytes:         int64(fx.Grid.Len()),
			MaxConcurrentExtractions: 3,
		}),
	}
	for name, rc := range rcs {
		t.Run(name, func(t *testing.T) {
			eng, err := New(fx.Grid, fx.Sets, WithResourceController(rc))
			require.NoError(t, err)

			ids := eng.Segments()
			vols, err := eng.ExtractMany(ctx, ids)
			require.NoError(t, err)
			require.Len(t, vols, len(ids))

			for i, id := range ids {
				want, err := eng.Extract(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, want, vols[i])
			}
			assert.Zero(t, rc.MemoryUsage())
		})
	}
}

func TestEngine_ExtractManyFails(t *testing.T) {
	eng := newSubCubeEngine(t)
	_, err := eng.ExtractMany(context.Background(), []uint32{10, 99, 20})
	assert.ErrorIs(t, err, ErrSegmentNotFound)
}

func TestEngine_ExtractMemoryLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 30})
	eng := newSubCubeEngine(t, WithResourceController(rc))

	_, err := eng.Extract(context.Background(), 20)
	require.NoError(t, err, "the corner crop is 3x3x3")

	_, err = eng.Extract(context.Background(), 10)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
}

func TestEngine_Persist(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	eng := newSubCubeEngine(t)

	name, err := eng.Persist(ctx, store, 10)
	require.NoError(t, err)
	assert.Equal(t, volume.Name(10), name)

	got, err := volume.Load(ctx, store, name)
	require.NoError(t, err)
	want, err := eng.Extract(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = eng.Persist(ctx, store, 99)
	assert.ErrorIs(t, err, ErrSegmentNotFound)
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{name}, names)
}

func TestEngine_WriteLattice(t *testing.T) {
	eng := newSubCubeEngine(t)

	var buf bytes.Buffer
	require.NoError(t, eng.WriteLattice(context.Background(), &buf))

	g, err := lattice.DecodeGrid(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, eng.Grid().Data, g.Data)

	sets, err := multimap.New([]int64{1, 2, 3, 4}, []int64{10, 10, 20, 30})
	require.NoError(t, err)
	restored, err := New(g, sets)
	require.NoError(t, err)
	assert.Equal(t, eng.BoundingBoxes(), restored.BoundingBoxes())
}

func TestEngine_Benchmark(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	eng := newSubCubeEngine(t, WithMetricsCollector(metrics))

	res, err := eng.Benchmark(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Runs)
	assert.Equal(t, 3, res.Segments)
	assert.LessOrEqual(t, res.Min, res.Mean())
	assert.LessOrEqual(t, res.Mean(), res.Max)
	assert.Equal(t, int64(5), metrics.GetStats().ScanCount)

	box, ok := eng.BoundingBox(10)
	require.True(t, ok)
	assert.Equal(t, lattice.NewBox(4, 8, 4, 8, 4, 8), box)
}
