package lattice

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/volseg/codec"
	"github.com/hupe1980/volseg/internal/frame"
	"gonum.org/v1/gonum/spatial/r3"
)

var gridMagic = [4]byte{'V', 'S', 'L', 'G'}

// EncodeOptions configures EncodeGrid and the mask encoders built on it.
type EncodeOptions struct {
	// Codec encodes the header. Nil selects codec.Default.
	Codec codec.Codec
	// Compression is applied to the voxel payload.
	Compression codec.Compression
	// BlockSize is the uncompressed payload block size; <= 0 uses the default.
	BlockSize int
}

func (o EncodeOptions) frame() frame.Options {
	return frame.Options{Codec: o.Codec, Compression: o.Compression, BlockSize: o.BlockSize}
}

// TransformHeader is the serialized form of a Transform.
type TransformHeader struct {
	Kind          string       `json:"kind"`
	Matrix        *[16]float64 `json:"matrix,omitempty"`
	Cell          *Cell        `json:"cell,omitempty"`
	FractionalBox *[2]r3.Vec   `json:"fractional_box,omitempty"`
}

// NewTransformHeader converts t for serialization.
func NewTransformHeader(t Transform) (TransformHeader, error) {
	switch t := t.(type) {
	case *MatrixTransform:
		m := t.Matrix
		return TransformHeader{Kind: TransformMatrix.String(), Matrix: &m}, nil
	case *SpacegroupTransform:
		cell := t.Cell
		return TransformHeader{
			Kind:          TransformSpacegroup.String(),
			Cell:          &cell,
			FractionalBox: &[2]r3.Vec{t.FractionalBox.Min, t.FractionalBox.Max},
		}, nil
	default:
		return TransformHeader{}, fmt.Errorf("%w: transform %T", ErrMalformedInput, t)
	}
}

// Transform rebuilds the Transform described by h.
func (h TransformHeader) Transform() (Transform, error) {
	switch h.Kind {
	case TransformMatrix.String():
		if h.Matrix == nil {
			return nil, fmt.Errorf("%w: matrix transform without matrix", ErrMalformedInput)
		}
		return &MatrixTransform{Matrix: *h.Matrix}, nil
	case TransformSpacegroup.String():
		if h.Cell == nil || h.FractionalBox == nil {
			return nil, fmt.Errorf("%w: spacegroup transform without cell or fractional box", ErrMalformedInput)
		}
		return &SpacegroupTransform{
			Cell:          *h.Cell,
			FractionalBox: r3.Box{Min: h.FractionalBox[0], Max: h.FractionalBox[1]},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown transform kind %q", ErrMalformedInput, h.Kind)
	}
}

type gridHeader struct {
	Dims      [3]int          `json:"dims"`
	AxisOrder [3]int          `json:"axis_order"`
	Transform TransformHeader `json:"transform"`
}

// EncodeGrid writes a snapshot of g to w.
func EncodeGrid(w io.Writer, g *Grid, opts EncodeOptions) error {
	th, err := NewTransformHeader(g.Transform)
	if err != nil {
		return err
	}
	payload := make([]byte, 0, 4*len(g.Data))
	for _, v := range g.Data {
		payload = binary.LittleEndian.AppendUint32(payload, v)
	}
	return frame.Write(w, gridMagic, opts.frame(), gridHeader{
		Dims:      g.Dims,
		AxisOrder: g.AxisOrder,
		Transform: th,
	}, payload)
}

// DecodeGrid restores a grid written by EncodeGrid.
func DecodeGrid(data []byte) (*Grid, error) {
	var hdr gridHeader
	payload, err := frame.Read(data, gridMagic, &hdr, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	t, err := hdr.Transform.Transform()
	if err != nil {
		return nil, err
	}
	if len(payload)%4 != 0 {
		return nil, fmt.Errorf("%w: payload length %d is not a multiple of 4", ErrMalformedInput, len(payload))
	}
	ids := make([]uint32, len(payload)/4)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint32(payload[4*i:])
	}
	return NewGrid(hdr.Dims, hdr.AxisOrder, ids, t)
}
