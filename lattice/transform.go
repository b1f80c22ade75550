package lattice

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// TransformKind identifies the variant of a Transform.
type TransformKind uint8

const (
	// TransformMatrix is an affine voxel-to-world matrix.
	TransformMatrix TransformKind = iota + 1
	// TransformSpacegroup places the grid in a crystallographic cell via a fractional box.
	TransformSpacegroup
)

func (k TransformKind) String() string {
	switch k {
	case TransformMatrix:
		return "matrix"
	case TransformSpacegroup:
		return "spacegroup"
	default:
		return fmt.Sprintf("TransformKind(%d)", uint8(k))
	}
}

// Transform places a grid in space. The set of implementations is closed:
// *MatrixTransform and *SpacegroupTransform.
type Transform interface {
	Kind() TransformKind
	// Clone returns a deep copy.
	Clone() Transform

	isTransform()
}

// MatrixTransform is a column-major 4x4 affine matrix.
//
// It is carried through load and persistence, but cropping a grid under a
// matrix transform is not implemented.
type MatrixTransform struct {
	Matrix [16]float64
}

// Kind implements Transform.
func (*MatrixTransform) Kind() TransformKind { return TransformMatrix }

// Clone implements Transform.
func (t *MatrixTransform) Clone() Transform {
	c := *t
	return &c
}

func (*MatrixTransform) isTransform() {}

// Cell describes a crystallographic unit cell.
type Cell struct {
	// Spacegroup is the space group number (1 for P 1).
	Spacegroup int    `json:"spacegroup"`
	Name       string `json:"name,omitempty"`
	// Size holds the a, b, c cell edge lengths.
	Size r3.Vec `json:"size"`
	// Angles holds alpha, beta, gamma in radians.
	Angles r3.Vec `json:"angles"`
}

// SpacegroupTransform locates the grid inside Cell using FractionalBox.
type SpacegroupTransform struct {
	Cell          Cell
	FractionalBox r3.Box
}

// Kind implements Transform.
func (*SpacegroupTransform) Kind() TransformKind { return TransformSpacegroup }

// Clone implements Transform.
func (t *SpacegroupTransform) Clone() Transform {
	c := *t
	return &c
}

func (*SpacegroupTransform) isTransform() {}
