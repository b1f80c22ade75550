package segmentation

import (
	"time"

	"github.com/hupe1980/volseg/lattice"
	"github.com/hupe1980/volseg/multimap"
)

// Boxes holds the memoized bounding boxes of one segmentation.
type Boxes struct {
	segments *denseIndex
	boxes    []lattice.Box
	voxels   []int64
	// Elapsed is the time the grid scan and segment fold took.
	Elapsed time.Duration
}

// Get returns the bounding box of segment seg.
func (b *Boxes) Get(seg uint32) (lattice.Box, bool) {
	i, ok := b.segments.index(seg)
	if !ok {
		return lattice.Box{}, false
	}
	return b.boxes[i], true
}

// VoxelCount returns how many voxels belong to segment seg.
func (b *Boxes) VoxelCount(seg uint32) (int64, bool) {
	i, ok := b.segments.index(seg)
	if !ok {
		return 0, false
	}
	return b.voxels[i], true
}

// Len returns the number of segments.
func (b *Boxes) Len() int {
	return b.segments.len()
}

// All returns a copy of every segment box keyed by segment id.
func (b *Boxes) All() map[uint32]lattice.Box {
	out := make(map[uint32]lattice.Box, len(b.boxes))
	for i, box := range b.boxes {
		out[b.segments.id(int32(i))] = box
	}
	return out
}

// emptyBox is the inclusive-end accumulator start: Min at the far side, Max at -1.
func emptyBox(dims [3]int) lattice.Box {
	return lattice.Box{Min: dims, Max: [3]int{-1, -1, -1}}
}

func addPointInclusiveEnd(b *lattice.Box, p [3]int) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// computeBoxes scans g once in storage order and derives every segment box
// as the cover of its sets' boxes.
func computeBoxes(g *lattice.Grid, sets *denseIndex, segments *multimap.Multimap) *Boxes {
	start := time.Now()

	setBoxes := make([]lattice.Box, sets.len())
	setVoxels := make([]int64, sets.len())
	for i := range setBoxes {
		setBoxes[i] = emptyBox(g.Dims)
	}

	a0, a1, a2 := g.AxisOrder[0], g.AxisOrder[1], g.AxisOrder[2]
	data := g.Data
	var p [3]int
	off := 0
	for i0 := 0; i0 < g.Dims[a0]; i0++ {
		p[a0] = i0
		for i1 := 0; i1 < g.Dims[a1]; i1++ {
			p[a1] = i1
			for i2 := 0; i2 < g.Dims[a2]; i2++ {
				p[a2] = i2
				if d, ok := sets.index(data[off]); ok {
					addPointInclusiveEnd(&setBoxes[d], p)
					setVoxels[d]++
				}
				off++
			}
		}
	}

	segIndex := newDenseIndex(segments.Keys())
	out := &Boxes{
		segments: segIndex,
		boxes:    make([]lattice.Box, segIndex.len()),
		voxels:   make([]int64, segIndex.len()),
	}
	for i, seg := range segIndex.ids {
		box := emptyBox(g.Dims)
		var n int64
		bm, _ := segments.Bitmap(seg)
		it := bm.Iterator()
		for it.HasNext() {
			d, ok := sets.index(it.Next())
			if !ok {
				continue
			}
			box = box.Cover(setBoxes[d])
			n += setVoxels[d]
		}

		if box.Max[2] == -1 {
			box = lattice.UnitBox
		} else {
			box.Max = [3]int{box.Max[0] + 1, box.Max[1] + 1, box.Max[2] + 1}
		}
		out.boxes[i] = box
		out.voxels[i] = n
	}

	out.Elapsed = time.Since(start)
	return out
}
