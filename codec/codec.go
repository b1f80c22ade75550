// Package codec centralizes encoding of volume and lattice headers.
//
// A header section records the codec name next to the encoded header, so a
// file written with one codec is always decoded with the same one. Changing
// codec.Default only affects newly written files.
//
// Section layout (little endian):
//
//	[name len u8][name][header len u32][header]
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Codec encodes/decodes header values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for newly written headers.
var Default Codec = GoJSON{}

var builtin = map[string]Codec{
	JSON{}.Name():   JSON{},
	GoJSON{}.Name(): GoJSON{},
}

var (
	// ErrUnknownCodec is returned for a header section naming no built-in codec.
	ErrUnknownCodec = errors.New("codec: unknown codec")
	// ErrInvalidHeader is returned when a header section cannot be written or read.
	ErrInvalidHeader = errors.New("codec: invalid header section")

	errTrailingData = errors.New("trailing data after header")
)

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	c, ok := builtin[name]
	return c, ok
}

// AppendHeader appends the header section for v, encoded with c, to dst.
// A nil c selects Default.
func AppendHeader(dst []byte, c Codec, v any) ([]byte, error) {
	if c == nil {
		c = Default
	}
	name := c.Name()
	if _, ok := builtin[name]; !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCodec, name)
	}

	b, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidHeader, name, err)
	}
	if uint64(len(b)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: header of %d bytes", ErrInvalidHeader, len(b))
	}

	dst = append(dst, byte(len(name)))
	dst = append(dst, name...)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(b)))
	return append(dst, b...), nil
}

// ReadHeader decodes the header section at the start of data into v using
// the codec recorded in it. It returns the number of bytes consumed.
func ReadHeader(data []byte, v any) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrInvalidHeader)
	}
	off := 1
	nameLen := int(data[0])
	if len(data)-off < nameLen+4 {
		return 0, fmt.Errorf("%w: truncated codec name", ErrInvalidHeader)
	}
	name := string(data[off : off+nameLen])
	off += nameLen
	c, ok := ByName(name)
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownCodec, name)
	}

	size := binary.LittleEndian.Uint32(data[off:])
	off += 4
	if uint64(size) > uint64(len(data)-off) {
		return 0, fmt.Errorf("%w: %d byte header, %d bytes left", ErrInvalidHeader, size, len(data)-off)
	}
	end := off + int(size)
	if err := c.Unmarshal(data[off:end], v); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidHeader, name, err)
	}
	return end, nil
}
