// Package compress provides pluggable byte compressors for the Encoded column's
// persisted image.
//
// The Dictionary's forward/reverse maps are already small relative to the column
// (one entry per distinct Value, not per row), so only the Encoded column —
// L identifiers of 4 bytes each — is worth compressing. This package defines the
// Codec abstraction persist uses for that image and ships four implementations:
//
//	None: fastest, no space savings
//	S2:   fast, Snappy-compatible, the default for Save
//	Zstd: best ratio, recommended for cold/archival saves
//	LZ4:  fast decompression, moderate ratio
//
// # Architecture
//
//	type Compressor interface { Compress(data []byte) ([]byte, error) }
//	type Decompressor interface { Decompress(data []byte) ([]byte, error) }
//	type Codec interface { Compressor; Decompressor }
//
// CreateCodec builds a Codec from a format.CompressionType. The persisted
// image's fixed byte layout carries no compression type tag; persist.Load
// must be given the same CompressionType persist.Save used, via
// WithDecompression.
//
// # Thread safety
//
// All four implementations are safe for concurrent use; none retain the input
// slice across calls except NoOpCompressor, which is documented as doing so.
package compress
