package segmentation

import (
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/volseg/lattice"
)

// Extraction is the cropped mask of one segment.
type Extraction struct {
	SegmentID uint32
	Mask      *lattice.MaskGrid
	// Crop is the region of the source lattice the mask covers.
	Crop lattice.Box
	// Ones is the number of voxels set in the mask.
	Ones int
}

// NominalStats are reported for masks unless measured stats are requested.
var NominalStats = lattice.Stats{Min: 0, Max: 1, Mean: 0, Sigma: 1}

// CropBox returns the padded, grid-confined region Extract would copy for seg.
func (s *Segmentation) CropBox(seg uint32) (lattice.Box, error) {
	if !s.segments.Has(seg) {
		return lattice.Box{}, &ErrSegmentMissing{SegmentID: seg}
	}
	box, _ := s.BoundingBox(seg)
	return box.Expand(s.cfg.Padding.Lower, s.cfg.Padding.Upper).Confine(s.grid.Box()), nil
}

// Extract builds the binary mask of seg and a transform re-anchored to the crop.
func (s *Segmentation) Extract(seg uint32) (*Extraction, error) {
	crop, err := s.CropBox(seg)
	if err != nil {
		return nil, err
	}
	transform, err := s.cropTransform(crop)
	if err != nil {
		return nil, err
	}

	space := lattice.Space{Dims: crop.Size(), AxisOrder: s.grid.AxisOrder}
	mask := make([]uint8, space.Len())
	ones := s.fill(mask, crop, s.memberSets(seg))

	stats := NominalStats
	if s.cfg.MeasuredStats {
		stats = measuredStats(ones, len(mask))
	}

	return &Extraction{
		SegmentID: seg,
		Mask: &lattice.MaskGrid{
			Space:     space,
			Data:      mask,
			Transform: transform,
			Stats:     stats,
		},
		Crop: crop,
		Ones: ones,
	}, nil
}

// memberSets marks the dense index of every set belonging to seg.
func (s *Segmentation) memberSets(seg uint32) *bitset.BitSet {
	members := bitset.New(uint(s.setIndex.len()))
	bm, _ := s.segments.Bitmap(seg)
	it := bm.Iterator()
	for it.HasNext() {
		if d, ok := s.setIndex.index(it.Next()); ok {
			members.Set(uint(d))
		}
	}
	return members
}

// fill writes 1 for every voxel of crop whose set is in members. The mask
// shares the grid's axis order, so it is written sequentially while the
// source is read row by row along the fastest axis.
func (s *Segmentation) fill(mask []uint8, crop lattice.Box, members *bitset.BitSet) int {
	g := s.grid
	st := g.Strides()
	a0, a1, a2 := g.AxisOrder[0], g.AxisOrder[1], g.AxisOrder[2]
	lo, hi := crop.Min, crop.Max

	ones := 0
	out := 0
	var p [3]int
	for i0 := lo[a0]; i0 < hi[a0]; i0++ {
		p[a0] = i0
		for i1 := lo[a1]; i1 < hi[a1]; i1++ {
			p[a1] = i1
			p[a2] = lo[a2]
			src := p[0]*st[0] + p[1]*st[1] + p[2]*st[2]
			for i2 := lo[a2]; i2 < hi[a2]; i2++ {
				if d, ok := s.setIndex.index(g.Data[src]); ok && members.Test(uint(d)) {
					mask[out] = 1
					ones++
				}
				out++
				src += st[a2]
			}
		}
	}
	return ones
}

// cropTransform expresses crop in the source transform's fractional frame.
func (s *Segmentation) cropTransform(crop lattice.Box) (lattice.Transform, error) {
	switch src := s.grid.Transform.(type) {
	case *lattice.SpacegroupTransform:
		frac := lattice.ToFractional(crop, s.grid.Box())
		return &lattice.SpacegroupTransform{
			Cell:          src.Cell,
			FractionalBox: lattice.TranslateFractional(frac, src.FractionalBox.Min),
		}, nil
	case *lattice.MatrixTransform:
		// Fail fast: a cropped mask under an affine transform would need its
		// origin moved to crop.Min, which is not supported.
		return nil, &ErrTransformKind{Kind: src.Kind()}
	default:
		return nil, &ErrTransformKind{}
	}
}

func measuredStats(ones, n int) lattice.Stats {
	if n == 0 {
		return NominalStats
	}
	mean := float64(ones) / float64(n)
	st := lattice.Stats{Mean: mean, Sigma: math.Sqrt(mean * (1 - mean))}
	if ones > 0 {
		st.Max = 1
	}
	if ones == n {
		st.Min = 1
	}
	return st
}
