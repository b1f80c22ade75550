// Package compress implements the block compression used for persisted voxel payloads.
//
// A payload is split into fixed-size blocks. Each block is written as
// [UncompressedSize uint32][CompressedSize uint32][Data...]; CompressedSize 0
// means the block is stored raw because compression did not pay off.
package compress

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type defines the compression algorithm used.
type Type uint8

const (
	// None stores blocks raw.
	None Type = 0
	// LZ4 is fast; masks compress extremely well with it.
	LZ4 Type = 1
	// ZSTD has the better ratio and suits lattice snapshots.
	ZSTD Type = 2
)

// String returns the algorithm name.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Valid reports whether t is a known algorithm.
func (t Type) Valid() bool {
	return t <= ZSTD
}

const (
	// DefaultBlockSize is used when a writer is created with blockSize <= 0.
	DefaultBlockSize = 256 * 1024
	// MaxBlockSize bounds the uncompressed size of a single block. Writers
	// clamp to it and Decode rejects larger blocks before allocating.
	MaxBlockSize = 16 << 20
)

const blockHeaderSize = 8

var (
	// ErrCorrupt is returned when a block stream cannot be decoded.
	ErrCorrupt = errors.New("compress: corrupt block stream")

	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxBlockSize))
	return dec
}

func compressBlock(data []byte, t Type) []byte {
	var compressed []byte
	switch t {
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err == nil && n > 0 {
			compressed = buf[:n]
		}
	case ZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	}

	// Keep the raw bytes unless compression saves at least 10%.
	if t == None || len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		out := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		copy(out[blockHeaderSize:], data)
		return out
	}

	out := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[blockHeaderSize:], compressed)
	return out
}

func decompressBlock(compressed []byte, uncompressedSize uint32, t Type) ([]byte, error) {
	result := make([]byte, uncompressedSize)
	switch t {
	case ZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		decoded, err := dec.DecodeAll(compressed, result[:0])
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != uncompressedSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return decoded, nil
	case LZ4:
		n, err := lz4.UncompressBlock(compressed, result)
		if err != nil {
			return nil, err
		}
		if uint32(n) != uncompressedSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("%w: compressed block under %s", ErrCorrupt, t)
	}
}

// Writer compresses everything written to it into blocks on w.
type Writer struct {
	w         io.Writer
	t         Type
	blockSize int
	buffer    *bytes.Buffer
	written   int64
}

// NewWriter creates a block writer.
func NewWriter(w io.Writer, t Type, blockSize int) *Writer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	blockSize = min(blockSize, MaxBlockSize)
	return &Writer{
		w:         w,
		t:         t,
		blockSize: blockSize,
		buffer:    bytes.NewBuffer(make([]byte, 0, blockSize)),
	}
}

// Write buffers p, flushing full blocks.
func (c *Writer) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		space := c.blockSize - c.buffer.Len()
		if space <= 0 {
			if err := c.Flush(); err != nil {
				return total, err
			}
			space = c.blockSize
		}

		n, _ := c.buffer.Write(p[:min(len(p), space)])
		total += n
		p = p[n:]
	}
	return total, nil
}

// Flush compresses and writes the buffered block, if any.
func (c *Writer) Flush() error {
	if c.buffer.Len() == 0 {
		return nil
	}
	n, err := c.w.Write(compressBlock(c.buffer.Bytes(), c.t))
	c.written += int64(n)
	if err != nil {
		return err
	}
	c.buffer.Reset()
	return nil
}

// BytesWritten returns the total compressed bytes written.
func (c *Writer) BytesWritten() int64 {
	return c.written
}

// Decode decompresses a complete block stream produced by Writer.
// sizeHint preallocates the output when the uncompressed length is known.
func Decode(data []byte, t Type, sizeHint int) ([]byte, error) {
	out := make([]byte, 0, sizeHint)
	for off := 0; off < len(data); {
		if off+blockHeaderSize > len(data) {
			return nil, fmt.Errorf("%w: truncated block header at %d", ErrCorrupt, off)
		}
		uncompressedSize := binary.LittleEndian.Uint32(data[off:])
		compressedSize := binary.LittleEndian.Uint32(data[off+4:])
		off += blockHeaderSize
		if uncompressedSize > MaxBlockSize {
			return nil, fmt.Errorf("%w: block of %d bytes exceeds the %d byte limit", ErrCorrupt, uncompressedSize, MaxBlockSize)
		}

		if compressedSize == 0 {
			end := off + int(uncompressedSize)
			if end > len(data) {
				return nil, fmt.Errorf("%w: block extends beyond data", ErrCorrupt)
			}
			out = append(out, data[off:end]...)
			off = end
			continue
		}

		end := off + int(compressedSize)
		if end > len(data) {
			return nil, fmt.Errorf("%w: compressed block extends beyond data", ErrCorrupt)
		}
		block, err := decompressBlock(data[off:end], uncompressedSize, t)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
		off = end
	}
	return out, nil
}
