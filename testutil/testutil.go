package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/volseg/lattice"
	"github.com/hupe1980/volseg/multimap"
	"gonum.org/v1/gonum/spatial/r3"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UnitTransform places a grid on the whole unit cell of a P 1 spacegroup.
func UnitTransform() *lattice.SpacegroupTransform {
	return &lattice.SpacegroupTransform{
		Cell:          lattice.Cell{Spacegroup: 1, Name: "P 1", Size: r3.Vec{X: 1, Y: 1, Z: 1}, Angles: r3.Vec{X: 1.5707963267948966, Y: 1.5707963267948966, Z: 1.5707963267948966}},
		FractionalBox: r3.Box{Max: r3.Vec{X: 1, Y: 1, Z: 1}},
	}
}

// Fixture is a lattice together with its set → segment table.
type Fixture struct {
	Grid *lattice.Grid
	// Sets is the forward set → segment map.
	Sets *multimap.Multimap
	// SetIDs and SegmentIDs are the raw table columns Sets was built from.
	SetIDs     []int64
	SegmentIDs []int64
}

// LatticeSpec describes a random fixture.
type LatticeSpec struct {
	Dims      [3]int
	AxisOrder [3]int
	// Sets is the number of distinct set ids; ids are 1..Sets and 0 is background.
	Sets int
	// Segments is the number of distinct segment ids, 1..Segments.
	Segments int
	// MaxSegmentsPerSet bounds how many segments share one set. Defaults to 2.
	MaxSegmentsPerSet int
	// Background is the fraction of voxels left at 0.
	Background float64
	// Unused is the number of extra segment ids listed in the table whose sets never occur in the grid.
	Unused int
}

// RandomLattice fills a grid with random axis-aligned blobs, one per set, and
// relates each set to random segments.
func (r *RNG) RandomLattice(spec LatticeSpec) *Fixture {
	if spec.AxisOrder == ([3]int{}) {
		spec.AxisOrder = lattice.DefaultAxisOrder
	}
	if spec.MaxSegmentsPerSet <= 0 {
		spec.MaxSegmentsPerSet = 2
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	space := lattice.Space{Dims: spec.Dims, AxisOrder: spec.AxisOrder}
	data := make([]uint32, space.Len())
	for set := 1; set <= spec.Sets; set++ {
		var b lattice.Box
		for i := 0; i < 3; i++ {
			b.Min[i] = r.rand.Intn(spec.Dims[i])
			b.Max[i] = b.Min[i] + 1 + r.rand.Intn(max(1, spec.Dims[i]/3))
		}
		b = b.Confine(space.Box())
		for x := b.Min[0]; x < b.Max[0]; x++ {
			for y := b.Min[1]; y < b.Max[1]; y++ {
				for z := b.Min[2]; z < b.Max[2]; z++ {
					if r.rand.Float64() >= spec.Background {
						data[space.Offset(x, y, z)] = uint32(set)
					}
				}
			}
		}
	}

	fx := &Fixture{}
	for set := 1; set <= spec.Sets; set++ {
		n := 1 + r.rand.Intn(spec.MaxSegmentsPerSet)
		for j := 0; j < n; j++ {
			fx.SetIDs = append(fx.SetIDs, int64(set))
			fx.SegmentIDs = append(fx.SegmentIDs, int64(1+r.rand.Intn(spec.Segments)))
		}
	}
	for u := 0; u < spec.Unused; u++ {
		// Set ids above Sets never occur in the grid.
		fx.SetIDs = append(fx.SetIDs, int64(spec.Sets+1+u))
		fx.SegmentIDs = append(fx.SegmentIDs, int64(spec.Segments+1+u))
	}

	return fx.build(spec.Dims, spec.AxisOrder, data)
}

func (fx *Fixture) build(dims, order [3]int, data []uint32) *Fixture {
	g, err := lattice.NewGrid(dims, order, data, UnitTransform())
	if err != nil {
		panic(err)
	}
	mm, err := multimap.New(fx.SetIDs, fx.SegmentIDs)
	if err != nil {
		panic(err)
	}
	fx.Grid = g
	fx.Sets = mm
	return fx
}

// SubCube builds an n^3 lattice where the cube [from, from+size)^3 is split
// between set ids 1 and 2, both belonging to segment 10. Set 3 (segment 20)
// fills one corner voxel outside the cube and segment 30 has set 4, which
// never occurs.
func SubCube(n, from, size int, order [3]int) *Fixture {
	space := lattice.Space{Dims: [3]int{n, n, n}, AxisOrder: order}
	data := make([]uint32, space.Len())
	for x := from; x < from+size; x++ {
		for y := from; y < from+size; y++ {
			for z := from; z < from+size; z++ {
				id := uint32(1)
				if z >= from+size/2 {
					id = 2
				}
				data[space.Offset(x, y, z)] = id
			}
		}
	}
	data[space.Offset(n-1, n-1, n-1)] = 3

	fx := &Fixture{
		SetIDs:     []int64{1, 2, 3, 4},
		SegmentIDs: []int64{10, 10, 20, 30},
	}
	return fx.build(space.Dims, order, data)
}

// BruteForceBoxes computes every segment's bounding box by checking each
// voxel against each segment. Segments without voxels get lattice.UnitBox.
func BruteForceBoxes(g *lattice.Grid, sets *multimap.Multimap) map[uint32]lattice.Box {
	inv := sets.Invert()
	out := make(map[uint32]lattice.Box, inv.Len())
	for _, seg := range inv.Keys() {
		found := false
		var b lattice.Box
		for x := 0; x < g.Dims[0]; x++ {
			for y := 0; y < g.Dims[1]; y++ {
				for z := 0; z < g.Dims[2]; z++ {
					if !inv.Contains(seg, g.Get(x, y, z)) {
						continue
					}
					v := lattice.NewBox(x, x+1, y, y+1, z, z+1)
					if !found {
						b, found = v, true
					} else {
						b = b.Cover(v)
					}
				}
			}
		}
		if !found {
			b = lattice.UnitBox
		}
		out[seg] = b
	}
	return out
}

// BruteForceMask returns the membership of every voxel of crop in segment seg,
// indexed as [x][y][z] relative to crop.Min.
func BruteForceMask(g *lattice.Grid, sets *multimap.Multimap, seg uint32, crop lattice.Box) [][][]uint8 {
	size := crop.Size()
	out := make([][][]uint8, size[0])
	for x := range out {
		out[x] = make([][]uint8, size[1])
		for y := range out[x] {
			out[x][y] = make([]uint8, size[2])
			for z := range out[x][y] {
				if sets.Contains(g.Get(crop.Min[0]+x, crop.Min[1]+y, crop.Min[2]+z), seg) {
					out[x][y][z] = 1
				}
			}
		}
	}
	return out
}
