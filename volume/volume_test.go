package volume

import (
	"bytes"
	"context"
	"testing"

	"github.com/hupe1980/volseg/blobstore"
	"github.com/hupe1980/volseg/codec"
	"github.com/hupe1980/volseg/lattice"
	"github.com/hupe1980/volseg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleVolume(t *testing.T) *Volume {
	t.Helper()
	space, err := lattice.NewSpace([3]int{3, 4, 5}, lattice.DefaultAxisOrder)
	require.NoError(t, err)

	data := make([]uint8, space.Len())
	for i := range data {
		if i%3 == 0 {
			data[i] = 1
		}
	}
	m := &lattice.MaskGrid{
		Space:     space,
		Data:      data,
		Transform: testutil.UnitTransform(),
		Stats:     lattice.Stats{Min: 0, Max: 1, Mean: 0, Sigma: 1},
	}
	return &Volume{
		SegmentID: 42,
		Crop:      lattice.NewBox(1, 4, 0, 4, 2, 7),
		Ones:      m.Count(),
		Grid:      m,
	}
}

func TestEncodeDecode(t *testing.T) {
	v := sampleVolume(t)

	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		for _, comp := range []codec.Compression{codec.CompressionNone, codec.CompressionLZ4, codec.CompressionZSTD} {
			t.Run(c.Name()+"/"+comp.String(), func(t *testing.T) {
				var buf bytes.Buffer
				require.NoError(t, v.Encode(&buf, lattice.EncodeOptions{Codec: c, Compression: comp, BlockSize: 16}))

				got, err := Decode(buf.Bytes())
				require.NoError(t, err)
				assert.Equal(t, v, got)
			})
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte("VSMK"))
	assert.ErrorIs(t, err, ErrMalformedVolume)

	v := sampleVolume(t)
	var grid bytes.Buffer
	g, err := lattice.NewGrid([3]int{1, 1, 1}, lattice.DefaultAxisOrder, []uint32{1}, testutil.UnitTransform())
	require.NoError(t, err)
	require.NoError(t, lattice.EncodeGrid(&grid, g, lattice.EncodeOptions{}))
	_, err = Decode(grid.Bytes())
	assert.ErrorIs(t, err, ErrMalformedVolume, "a lattice snapshot is not a volume")

	data, err := v.Bytes(lattice.EncodeOptions{})
	require.NoError(t, err)
	_, err = Decode(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrMalformedVolume)

	miscounted := sampleVolume(t)
	miscounted.Ones++
	data, err = miscounted.Bytes(lattice.EncodeOptions{})
	require.NoError(t, err)
	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrMalformedVolume, "ones must match the mask")

	nonBinary := sampleVolume(t)
	nonBinary.Grid.Data[1] = 2
	nonBinary.Ones = 0
	for _, b := range nonBinary.Grid.Data {
		nonBinary.Ones += int(b)
	}
	data, err = nonBinary.Bytes(lattice.EncodeOptions{Compression: codec.CompressionLZ4})
	require.NoError(t, err)
	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrMalformedVolume, "mask values must be 0 or 1")
}

func TestEncodeWithoutGrid(t *testing.T) {
	err := (&Volume{SegmentID: 1}).Encode(&bytes.Buffer{}, lattice.EncodeOptions{})
	assert.ErrorIs(t, err, ErrMalformedVolume)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	v := sampleVolume(t)

	stores := map[string]blobstore.BlobStore{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, Save(ctx, store, Name(v.SegmentID), v, lattice.EncodeOptions{Compression: codec.CompressionZSTD}))

			got, err := Load(ctx, store, Name(v.SegmentID))
			require.NoError(t, err)
			assert.Equal(t, v, got)

			_, err = Load(ctx, store, Name(7))
			assert.ErrorIs(t, err, blobstore.ErrNotFound)
		})
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "masks/42.vsm", Name(42))
}
