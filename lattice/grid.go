package lattice

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedInput is returned when a grid description is inconsistent.
var ErrMalformedInput = errors.New("malformed input")

// DefaultAxisOrder stores z slowest and x fastest.
var DefaultAxisOrder = [3]int{2, 1, 0}

// Space describes the shape and memory layout of a 3D array.
//
// AxisOrder lists the axes from slowest to fastest varying in the flat buffer.
type Space struct {
	Dims      [3]int
	AxisOrder [3]int
}

// NewSpace returns a Space for dims with the given axis order.
func NewSpace(dims, axisOrder [3]int) (Space, error) {
	s := Space{Dims: dims, AxisOrder: axisOrder}
	if err := s.Validate(); err != nil {
		return Space{}, err
	}
	return s, nil
}

// Validate checks that every dimension is positive, the voxel count fits in
// an int and AxisOrder is a permutation of {0,1,2}.
func (s Space) Validate() error {
	n := 1
	for i, d := range s.Dims {
		if d <= 0 {
			return fmt.Errorf("%w: dimension %d is %d", ErrMalformedInput, i, d)
		}
		if n > math.MaxInt/d {
			return fmt.Errorf("%w: dimensions %v overflow the voxel count", ErrMalformedInput, s.Dims)
		}
		n *= d
	}
	var seen [3]bool
	for _, a := range s.AxisOrder {
		if a < 0 || a > 2 || seen[a] {
			return fmt.Errorf("%w: axis order %v is not a permutation", ErrMalformedInput, s.AxisOrder)
		}
		seen[a] = true
	}
	return nil
}

// Len returns the number of voxels.
func (s Space) Len() int {
	return s.Dims[0] * s.Dims[1] * s.Dims[2]
}

// Box returns the full extent [0, nx) x [0, ny) x [0, nz).
func (s Space) Box() Box {
	return Box{Max: s.Dims}
}

// Strides returns the flat-buffer step for a unit move along each axis.
func (s Space) Strides() [3]int {
	var st [3]int
	step := 1
	for i := 2; i >= 0; i-- {
		a := s.AxisOrder[i]
		st[a] = step
		step *= s.Dims[a]
	}
	return st
}

// Offset returns the flat-buffer index of voxel (x, y, z).
func (s Space) Offset(x, y, z int) int {
	st := s.Strides()
	return x*st[0] + y*st[1] + z*st[2]
}

// Grid is a lattice of set ids.
type Grid struct {
	Space
	Data      []uint32
	Transform Transform
}

// NewGrid validates the layout and wraps data without copying it.
func NewGrid(dims, axisOrder [3]int, data []uint32, transform Transform) (*Grid, error) {
	s, err := NewSpace(dims, axisOrder)
	if err != nil {
		return nil, err
	}
	if len(data) != s.Len() {
		return nil, fmt.Errorf("%w: data has %d voxels, dimensions %v need %d", ErrMalformedInput, len(data), dims, s.Len())
	}
	if transform == nil {
		return nil, fmt.Errorf("%w: grid has no transform", ErrMalformedInput)
	}
	return &Grid{Space: s, Data: data, Transform: transform}, nil
}

// Get returns the set id stored at (x, y, z).
func (g *Grid) Get(x, y, z int) uint32 {
	return g.Data[g.Offset(x, y, z)]
}

// Set stores id at (x, y, z).
func (g *Grid) Set(x, y, z int, id uint32) {
	g.Data[g.Offset(x, y, z)] = id
}

// Stats summarizes the values of a grid.
type Stats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Sigma float64 `json:"sigma"`
}

// MaskGrid is a binary (0/1) grid derived from a lattice.
type MaskGrid struct {
	Space
	Data      []uint8
	Transform Transform
	Stats     Stats
}

// Get returns the mask value at (x, y, z).
func (m *MaskGrid) Get(x, y, z int) uint8 {
	return m.Data[m.Offset(x, y, z)]
}

// Count returns the number of set voxels.
func (m *MaskGrid) Count() int {
	n := 0
	for _, v := range m.Data {
		n += int(v)
	}
	return n
}
