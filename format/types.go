// Package format defines the small set of wire-visible enums shared by the
// compress and persist packages.
package format

// CompressionType identifies the byte compressor applied to a persisted
// Encoded column image.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0x1 // CompressionNone stores the column uncompressed.
	CompressionZstd CompressionType = 0x2 // CompressionZstd uses Zstandard.
	CompressionS2   CompressionType = 0x3 // CompressionS2 uses S2 (Snappy-compatible, faster).
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 uses LZ4.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
