// Package frame implements the self-describing container shared by persisted
// lattices and mask volumes.
//
// Layout (little endian):
//
//	[magic 4B][version u8][compression u8]
//	[codec header section, see package codec]
//	[payload crc32c u32][block-compressed payload]
//
// The checksum covers the uncompressed payload.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/hupe1980/volseg/codec"
	"github.com/hupe1980/volseg/internal/compress"
)

// Version is the current container version.
const Version = 2

const prefixSize = 4 + 1 + 1

// ErrInvalidFrame is returned when data is not a readable container.
var ErrInvalidFrame = errors.New("invalid frame")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func checksum(payload []byte) uint32 {
	return crc32.Checksum(payload, castagnoli)
}

// Options configures Write.
type Options struct {
	Codec       codec.Codec
	Compression compress.Type
	BlockSize   int
}

// Write encodes header with opts.Codec and payload with opts.Compression.
func Write(w io.Writer, magic [4]byte, opts Options, header any, payload []byte) error {
	if !opts.Compression.Valid() {
		return fmt.Errorf("%w: unknown compression %s", ErrInvalidFrame, opts.Compression)
	}

	prefix := make([]byte, 0, 256)
	prefix = append(prefix, magic[:]...)
	prefix = append(prefix, Version, byte(opts.Compression))
	prefix, err := codec.AppendHeader(prefix, opts.Codec, header)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	prefix = binary.LittleEndian.AppendUint32(prefix, checksum(payload))
	if _, err := w.Write(prefix); err != nil {
		return err
	}

	cw := compress.NewWriter(w, opts.Compression, opts.BlockSize)
	if _, err := cw.Write(payload); err != nil {
		return err
	}
	return cw.Flush()
}

// Read parses data, decodes the header into header and returns the
// decompressed payload. sizeHint preallocates the payload buffer.
func Read(data []byte, magic [4]byte, header any, sizeHint int) ([]byte, error) {
	if len(data) < prefixSize || [4]byte(data[:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidFrame)
	}
	if data[4] != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFrame, data[4])
	}
	t := compress.Type(data[5])
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidFrame, uint8(t))
	}

	n, err := codec.ReadHeader(data[prefixSize:], header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	off := prefixSize + n
	if off+4 > len(data) {
		return nil, fmt.Errorf("%w: missing checksum", ErrInvalidFrame)
	}
	sum := binary.LittleEndian.Uint32(data[off:])
	off += 4

	payload, err := compress.Decode(data[off:], t, sizeHint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	if got := checksum(payload); got != sum {
		return nil, fmt.Errorf("%w: checksum mismatch: stored %08x, computed %08x", ErrInvalidFrame, sum, got)
	}
	return payload, nil
}
