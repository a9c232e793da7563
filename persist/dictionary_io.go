// Package persist implements the on-disk image of a Dictionary and Encoded
// column: little-endian u64 N, N records of {u64 len; bytes; u32 id}, then a
// u64 compressed length and the compressed Encoded column.
//
// The canonical layout never records which compress.Codec produced the
// compressed payload; Load must be given the same compression type Save
// used, via WithCompression/WithDecompression, or decompression fails as
// errs.ErrPersistenceCorrupt. A separate xxHash64 sidecar file guards
// against bit-rot; it is not part of the canonical layout and its absence
// is not an error.
package persist

import (
	"fmt"
	"os"
	"time"

	"github.com/dictcol/dictcol/column"
	"github.com/dictcol/dictcol/compress"
	"github.com/dictcol/dictcol/dict"
	"github.com/dictcol/dictcol/endian"
	"github.com/dictcol/dictcol/errs"
	"github.com/dictcol/dictcol/format"
	"github.com/dictcol/dictcol/internal/hash"
	"github.com/dictcol/dictcol/internal/options"
	"github.com/dictcol/dictcol/internal/pool"
)

type saveConfig struct {
	compression format.CompressionType
}

// SaveOption configures a Save call.
type SaveOption = options.Option[*saveConfig]

// WithCompression selects the byte compressor applied to the Encoded column.
// Defaults to format.CompressionS2.
func WithCompression(t format.CompressionType) SaveOption {
	return options.NoError(func(c *saveConfig) { c.compression = t })
}

func defaultSaveConfig() *saveConfig {
	return &saveConfig{compression: format.CompressionS2}
}

type loadConfig struct {
	compression format.CompressionType
}

// LoadOption configures a Load call.
type LoadOption = options.Option[*loadConfig]

// WithDecompression selects the byte decompressor applied to the Encoded
// column. Must match the compression Save used. Defaults to
// format.CompressionS2.
func WithDecompression(t format.CompressionType) LoadOption {
	return options.NoError(func(c *loadConfig) { c.compression = t })
}

func defaultLoadConfig() *loadConfig {
	return &loadConfig{compression: format.CompressionS2}
}

// Save writes D and the Encoded column to path in the canonical layout, and
// writes an xxHash64 sidecar of the full image alongside it. It reports a
// compress.CompressionStats for the Encoded column's compression step.
func Save(path string, d *dict.Dictionary, col *column.Column, opts ...SaveOption) (compress.CompressionStats, error) {
	cfg := defaultSaveConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return compress.CompressionStats{}, err
	}

	codec, err := compress.CreateCodec(cfg.compression, "persist")
	if err != nil {
		return compress.CompressionStats{}, err
	}

	engine := endian.GetLittleEndianEngine()

	values := d.ReverseDictionary()

	header := pool.GetPersistBuffer()
	defer pool.PutPersistBuffer(header)

	header.B = engine.AppendUint64(header.B, uint64(len(values)))
	for id, value := range values {
		header.B = engine.AppendUint64(header.B, uint64(len(value)))
		header.B = append(header.B, value...)
		header.B = engine.AppendUint32(header.B, uint32(id))
	}

	colBuf := pool.GetPersistBuffer()
	defer pool.PutPersistBuffer(colBuf)
	for _, id := range col.Raw() {
		colBuf.B = engine.AppendUint32(colBuf.B, id)
	}

	start := time.Now()
	compressed, err := codec.Compress(colBuf.Bytes())
	elapsed := time.Since(start)
	if err != nil {
		return compress.CompressionStats{}, fmt.Errorf("%w: %s: compressing encoded column: %v", errs.ErrPersistenceCorrupt, path, err)
	}

	stats := compress.CompressionStats{
		Algorithm:         cfg.compression,
		OriginalSize:      int64(len(colBuf.Bytes())),
		CompressedSize:    int64(len(compressed)),
		CompressionTimeNs: elapsed.Nanoseconds(),
	}

	header.B = engine.AppendUint64(header.B, uint64(len(compressed)))
	header.B = append(header.B, compressed...)

	if err := os.WriteFile(path, header.Bytes(), 0o644); err != nil {
		return compress.CompressionStats{}, fmt.Errorf("%w: %s: %v", errs.ErrInputUnavailable, path, err)
	}

	if err := writeChecksumSidecar(path, hash.Checksum(header.Bytes())); err != nil {
		return compress.CompressionStats{}, err
	}

	return stats, nil
}

// Load reads path and reconstructs a fresh Dictionary and Encoded column.
// It asserts every identifier recorded in the Dictionary is < N, and
// rejects a truncated record or a decompression failure as
// errs.ErrPersistenceCorrupt.
func Load(path string, opts ...LoadOption) (*dict.Dictionary, *column.Column, error) {
	cfg := defaultLoadConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, nil, err
	}

	codec, err := compress.CreateCodec(cfg.compression, "persist")
	if err != nil {
		return nil, nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", errs.ErrInputUnavailable, path, err)
	}

	if err := verifyChecksumSidecar(path, raw); err != nil {
		return nil, nil, err
	}

	engine := endian.GetLittleEndianEngine()

	if len(raw) < 8 {
		return nil, nil, fmt.Errorf("%w: %s: truncated header", errs.ErrPersistenceCorrupt, path)
	}
	n := engine.Uint64(raw)
	offset := 8

	// Every record takes at least 12 bytes (u64 length + u32 id), so a count
	// the remaining bytes cannot hold means the records are truncated.
	if n > uint64(len(raw)-offset)/12 {
		return nil, nil, fmt.Errorf("%w: %s: truncated records: %d declared", errs.ErrPersistenceCorrupt, path, n)
	}

	values := make([]string, n)
	seen := make([]bool, n)

	for i := uint64(0); i < n; i++ {
		if offset+8 > len(raw) {
			return nil, nil, fmt.Errorf("%w: %s: truncated record %d", errs.ErrPersistenceCorrupt, path, i)
		}
		length := engine.Uint64(raw[offset:])
		offset += 8

		if uint64(offset)+length+4 > uint64(len(raw)) {
			return nil, nil, fmt.Errorf("%w: %s: truncated record %d", errs.ErrPersistenceCorrupt, path, i)
		}
		value := string(raw[offset : offset+int(length)])
		offset += int(length)

		id := engine.Uint32(raw[offset:])
		offset += 4

		if uint64(id) >= n {
			return nil, nil, fmt.Errorf("%w: %s: identifier %d out of range [0, %d)", errs.ErrPersistenceCorrupt, path, id, n)
		}
		if seen[id] {
			return nil, nil, fmt.Errorf("%w: %s: identifier %d recorded twice", errs.ErrPersistenceCorrupt, path, id)
		}

		seen[id] = true
		values[id] = value
	}
	for i, ok := range seen {
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s: identifier %d never recorded", errs.ErrPersistenceCorrupt, path, i)
		}
	}

	if offset+8 > len(raw) {
		return nil, nil, fmt.Errorf("%w: %s: truncated compressed length", errs.ErrPersistenceCorrupt, path)
	}
	compressedLen := engine.Uint64(raw[offset:])
	offset += 8

	if uint64(offset)+compressedLen > uint64(len(raw)) {
		return nil, nil, fmt.Errorf("%w: %s: truncated compressed payload", errs.ErrPersistenceCorrupt, path)
	}
	compressed := raw[offset : offset+int(compressedLen)]

	decompressed, err := codec.Decompress(compressed)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: decompressing encoded column: %v", errs.ErrPersistenceCorrupt, path, err)
	}
	if len(decompressed)%4 != 0 {
		return nil, nil, fmt.Errorf("%w: %s: encoded column byte length %d is not a multiple of 4", errs.ErrPersistenceCorrupt, path, len(decompressed))
	}

	l := len(decompressed) / 4
	ids := make([]uint32, l)
	for i := 0; i < l; i++ {
		ids[i] = engine.Uint32(decompressed[i*4:])
	}

	d, err := dict.New(dict.WithReserve(int(n)))
	if err != nil {
		return nil, nil, err
	}

	var insertErr error
	d.WithWriteLock(func(insertOrGet func(string) (uint32, error)) {
		for _, v := range values {
			if _, err := insertOrGet(v); err != nil {
				insertErr = err
				return
			}
		}
	})
	if insertErr != nil {
		return nil, nil, fmt.Errorf("%w: %s: reconstructing dictionary: %v", errs.ErrPersistenceCorrupt, path, insertErr)
	}

	return d, column.FromSlice(ids), nil
}

func sidecarPath(path string) string {
	return path + ".xxh64"
}

func writeChecksumSidecar(path string, checksum uint64) error {
	engine := endian.GetLittleEndianEngine()
	buf := engine.AppendUint64(nil, checksum)

	if err := os.WriteFile(sidecarPath(path), buf, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", errs.ErrInputUnavailable, sidecarPath(path), err)
	}

	return nil
}

func verifyChecksumSidecar(path string, raw []byte) error {
	sidecar, err := os.ReadFile(sidecarPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %s: %v", errs.ErrInputUnavailable, sidecarPath(path), err)
	}
	if len(sidecar) != 8 {
		return fmt.Errorf("%w: %s: malformed checksum sidecar", errs.ErrPersistenceCorrupt, sidecarPath(path))
	}

	want := endian.GetLittleEndianEngine().Uint64(sidecar)
	got := hash.Checksum(raw)
	if want != got {
		return fmt.Errorf("%w: %s: checksum mismatch", errs.ErrPersistenceCorrupt, path)
	}

	return nil
}
