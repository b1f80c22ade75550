package lattice

import "fmt"

// Box is an axis-aligned integer region of a lattice.
//
// Min is inclusive and Max is exclusive on every axis, so a box covering the
// single voxel (1,2,3) is {Min: [1 2 3], Max: [2 3 4]}.
type Box struct {
	Min [3]int
	Max [3]int
}

// NewBox builds a box from per-axis [from, to) ranges.
func NewBox(xFrom, xTo, yFrom, yTo, zFrom, zTo int) Box {
	return Box{
		Min: [3]int{xFrom, yFrom, zFrom},
		Max: [3]int{xTo, yTo, zTo},
	}
}

// UnitBox is the degenerate box reported for segments without voxels.
var UnitBox = NewBox(0, 1, 0, 1, 0, 1)

// String returns the box as (xFrom,xTo,yFrom,yTo,zFrom,zTo).
func (b Box) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d,%d,%d)", b.Min[0], b.Max[0], b.Min[1], b.Max[1], b.Min[2], b.Max[2])
}

// Origin returns the inclusive lower corner.
func (b Box) Origin() [3]int {
	return b.Min
}

// Size returns the extent along each axis. Inverted axes report a negative size.
func (b Box) Size() [3]int {
	return [3]int{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

// Volume returns the number of voxels in the box, or 0 for an empty box.
func (b Box) Volume() int {
	if b.IsEmpty() {
		return 0
	}
	s := b.Size()
	return s[0] * s[1] * s[2]
}

// IsEmpty reports whether any axis has a non-positive extent.
func (b Box) IsEmpty() bool {
	return b.Max[0] <= b.Min[0] || b.Max[1] <= b.Min[1] || b.Max[2] <= b.Min[2]
}

// Equal reports whether two boxes cover the same region description.
func (b Box) Equal(other Box) bool {
	return b == other
}

// Contains reports whether voxel p lies inside the box.
func (b Box) Contains(p [3]int) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] >= b.Max[i] {
			return false
		}
	}
	return true
}

// Expand grows the box by lo layers below Min and hi layers above Max on every axis.
func (b Box) Expand(lo, hi int) Box {
	for i := 0; i < 3; i++ {
		b.Min[i] -= lo
		b.Max[i] += hi
	}
	return b
}

// Confine clamps b to lie within other.
func (b Box) Confine(other Box) Box {
	for i := 0; i < 3; i++ {
		b.Min[i] = max(b.Min[i], other.Min[i])
		b.Max[i] = min(b.Max[i], other.Max[i])
	}
	return b
}

// Cover returns the smallest box containing both b and other.
func (b Box) Cover(other Box) Box {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], other.Min[i])
		b.Max[i] = max(b.Max[i], other.Max[i])
	}
	return b
}
