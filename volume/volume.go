// Package volume is the hand-off format between segmentation and the
// rendering layer: one segment's binary mask with its placement.
package volume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/volseg/blobstore"
	"github.com/hupe1980/volseg/internal/frame"
	"github.com/hupe1980/volseg/lattice"
)

var volumeMagic = [4]byte{'V', 'S', 'M', 'K'}

// ErrMalformedVolume is returned when persisted bytes are not a valid volume.
var ErrMalformedVolume = errors.New("malformed volume")

// Volume is the cropped binary mask of one segment.
type Volume struct {
	SegmentID uint32
	// Crop is the region of the source lattice the mask covers.
	Crop lattice.Box
	// Ones is the number of voxels inside the segment.
	Ones int
	Grid *lattice.MaskGrid
}

// Name returns the conventional blob name of a segment's volume.
func Name(segmentID uint32) string {
	return fmt.Sprintf("masks/%d.vsm", segmentID)
}

type header struct {
	SegmentID uint32                  `json:"segment_id"`
	Crop      [2][3]int               `json:"crop"`
	Ones      int                     `json:"ones"`
	Dims      [3]int                  `json:"dims"`
	AxisOrder [3]int                  `json:"axis_order"`
	Transform lattice.TransformHeader `json:"transform"`
	Stats     lattice.Stats           `json:"stats"`
}

// Encode writes v to w.
func (v *Volume) Encode(w io.Writer, opts lattice.EncodeOptions) error {
	if v.Grid == nil {
		return fmt.Errorf("%w: volume without grid", ErrMalformedVolume)
	}
	th, err := lattice.NewTransformHeader(v.Grid.Transform)
	if err != nil {
		return err
	}
	return frame.Write(w, volumeMagic, frame.Options{
		Codec:       opts.Codec,
		Compression: opts.Compression,
		BlockSize:   opts.BlockSize,
	}, header{
		SegmentID: v.SegmentID,
		Crop:      [2][3]int{v.Crop.Min, v.Crop.Max},
		Ones:      v.Ones,
		Dims:      v.Grid.Dims,
		AxisOrder: v.Grid.AxisOrder,
		Transform: th,
		Stats:     v.Grid.Stats,
	}, v.Grid.Data)
}

// Bytes returns the encoded form of v.
func (v *Volume) Bytes(opts lattice.EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.Encode(&buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a volume written by Encode. The mask is copied out of data.
func Decode(data []byte) (*Volume, error) {
	var hdr header
	payload, err := frame.Read(data, volumeMagic, &hdr, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedVolume, err)
	}

	space, err := lattice.NewSpace(hdr.Dims, hdr.AxisOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedVolume, err)
	}
	if len(payload) != space.Len() {
		return nil, fmt.Errorf("%w: payload has %d voxels, dimensions %v need %d", ErrMalformedVolume, len(payload), hdr.Dims, space.Len())
	}
	ones := 0
	for i, b := range payload {
		if b > 1 {
			return nil, fmt.Errorf("%w: voxel %d has mask value %d", ErrMalformedVolume, i, b)
		}
		ones += int(b)
	}
	if ones != hdr.Ones {
		return nil, fmt.Errorf("%w: header records %d ones, mask has %d", ErrMalformedVolume, hdr.Ones, ones)
	}
	t, err := hdr.Transform.Transform()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedVolume, err)
	}

	return &Volume{
		SegmentID: hdr.SegmentID,
		Crop:      lattice.Box{Min: hdr.Crop[0], Max: hdr.Crop[1]},
		Ones:      hdr.Ones,
		Grid: &lattice.MaskGrid{
			Space:     space,
			Data:      payload,
			Transform: t,
			Stats:     hdr.Stats,
		},
	}, nil
}

// Save encodes v and stores it under name.
func Save(ctx context.Context, store blobstore.BlobStore, name string, v *Volume, opts lattice.EncodeOptions) error {
	data, err := v.Bytes(opts)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}

// Load reads and decodes the volume stored under name.
func Load(ctx context.Context, store blobstore.BlobStore, name string) (*Volume, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
