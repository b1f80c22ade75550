package lattice

import "gonum.org/v1/gonum/spatial/r3"

// ToFractional maps box into [0,1]^3 coordinates relative to ref.
//
// ref must have a positive size on every axis; the full grid extent always does.
func ToFractional(box, ref Box) r3.Box {
	size := ref.Size()
	frac := func(v, axis int) float64 {
		return float64(v-ref.Min[axis]) / float64(size[axis])
	}
	return r3.Box{
		Min: r3.Vec{X: frac(box.Min[0], 0), Y: frac(box.Min[1], 1), Z: frac(box.Min[2], 2)},
		Max: r3.Vec{X: frac(box.Max[0], 0), Y: frac(box.Max[1], 1), Z: frac(box.Max[2], 2)},
	}
}

// TranslateFractional moves both corners of b by v.
func TranslateFractional(b r3.Box, v r3.Vec) r3.Box {
	return r3.Box{
		Min: r3.Add(b.Min, v),
		Max: r3.Add(b.Max, v),
	}
}
