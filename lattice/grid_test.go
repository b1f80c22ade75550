package lattice

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func unitTransform() Transform {
	return &SpacegroupTransform{
		Cell:          Cell{Spacegroup: 1, Name: "P 1", Size: r3.Vec{X: 1, Y: 1, Z: 1}},
		FractionalBox: r3.Box{Max: r3.Vec{X: 1, Y: 1, Z: 1}},
	}
}

func TestSpaceStrides(t *testing.T) {
	s, err := NewSpace([3]int{2, 3, 4}, [3]int{2, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, [3]int{1, 2, 6}, s.Strides())
	assert.Equal(t, 1+2*2+3*6, s.Offset(1, 2, 3))

	s, err = NewSpace([3]int{2, 3, 4}, [3]int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, [3]int{12, 4, 1}, s.Strides())

	s, err = NewSpace([3]int{2, 3, 4}, [3]int{1, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, [3]int{4, 8, 1}, s.Strides())
	assert.Equal(t, 24, s.Len())
	assert.Equal(t, NewBox(0, 2, 0, 3, 0, 4), s.Box())
}

func TestSpaceOffsetsAreABijection(t *testing.T) {
	for _, order := range [][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}} {
		s, err := NewSpace([3]int{3, 4, 5}, order)
		require.NoError(t, err)

		seen := make([]bool, s.Len())
		for x := 0; x < 3; x++ {
			for y := 0; y < 4; y++ {
				for z := 0; z < 5; z++ {
					off := s.Offset(x, y, z)
					require.False(t, seen[off], "order %v", order)
					seen[off] = true
				}
			}
		}
	}
}

func TestSpaceValidate(t *testing.T) {
	_, err := NewSpace([3]int{0, 1, 1}, DefaultAxisOrder)
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = NewSpace([3]int{1, 1, 1}, [3]int{0, 0, 1})
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = NewSpace([3]int{1, 1, 1}, [3]int{0, 1, 3})
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestSpaceValidateOverflow(t *testing.T) {
	huge := [][3]int{
		{1 << 21, 1 << 21, 1 << 22},
		{math.MaxInt, 2, 1},
		{1, math.MaxInt/2 + 1, 2},
	}
	for _, dims := range huge {
		_, err := NewSpace(dims, DefaultAxisOrder)
		assert.ErrorIs(t, err, ErrMalformedInput, "dims %v", dims)

		_, err = NewGrid(dims, DefaultAxisOrder, nil, unitTransform())
		assert.ErrorIs(t, err, ErrMalformedInput, "dims %v", dims)
	}

	_, err := NewSpace([3]int{math.MaxInt, 1, 1}, DefaultAxisOrder)
	assert.NoError(t, err)
}

func TestGrid(t *testing.T) {
	g, err := NewGrid([3]int{2, 2, 2}, DefaultAxisOrder, make([]uint32, 8), unitTransform())
	require.NoError(t, err)

	g.Set(1, 0, 1, 42)
	assert.Equal(t, uint32(42), g.Get(1, 0, 1))
	assert.Equal(t, uint32(42), g.Data[1+4])

	_, err = NewGrid([3]int{2, 2, 2}, DefaultAxisOrder, make([]uint32, 7), unitTransform())
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = NewGrid([3]int{2, 2, 2}, DefaultAxisOrder, make([]uint32, 8), nil)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestMaskGridCount(t *testing.T) {
	m := MaskGrid{Space: Space{Dims: [3]int{2, 1, 1}, AxisOrder: DefaultAxisOrder}, Data: []uint8{0, 1}}
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, uint8(1), m.Get(1, 0, 0))
}

func TestTransformClone(t *testing.T) {
	src := unitTransform().(*SpacegroupTransform)
	c := src.Clone().(*SpacegroupTransform)
	c.FractionalBox.Min.X = 5
	assert.Equal(t, 0.0, src.FractionalBox.Min.X)

	m := &MatrixTransform{Matrix: [16]float64{0: 1, 5: 1, 10: 1, 15: 1}}
	mc := m.Clone().(*MatrixTransform)
	mc.Matrix[0] = 2
	assert.Equal(t, 1.0, m.Matrix[0])
	assert.Equal(t, "matrix", m.Kind().String())
	assert.Equal(t, "spacegroup", src.Kind().String())
}
