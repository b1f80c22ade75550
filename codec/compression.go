package codec

import "github.com/hupe1980/volseg/internal/compress"

// Compression selects the block compression of persisted voxel payloads.
type Compression = compress.Type

const (
	// CompressionNone stores payload blocks raw.
	CompressionNone = compress.None
	// CompressionLZ4 favors encode/decode speed.
	CompressionLZ4 = compress.LZ4
	// CompressionZSTD favors ratio.
	CompressionZSTD = compress.ZSTD
)
