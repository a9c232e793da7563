// Package dictcol provides a dictionary codec engine: it replaces each value
// in a column of text (one value per input line) with a compact 32-bit
// identifier drawn from a dictionary of distinct values, then answers exact
// and prefix membership queries against the resulting identifier column at
// substantially higher throughput than a scan of the raw strings.
//
// # Basic usage
//
//	codec, err := dictcol.Build("access.log", build.WithWorkers(8))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	positions, _ := codec.LookupExact("GET", dictcol.VariantScalar)
//	matches, _ := codec.LookupPrefix("sta", dictcol.VariantScalar)
//	for _, m := range matches {
//	    fmt.Println(m.Value, m.Positions)
//	}
//
// # Package structure
//
// This file is a convenience wrapper over the dict, column, build, query and
// persist packages. Use those packages directly for fine-grained control
// over worker counts, retained originals, and persistence codecs.
package dictcol

import (
	"github.com/dictcol/dictcol/build"
	"github.com/dictcol/dictcol/column"
	"github.com/dictcol/dictcol/compress"
	"github.com/dictcol/dictcol/dict"
	"github.com/dictcol/dictcol/persist"
	"github.com/dictcol/dictcol/query"
)

// SearchVariant selects which of the three equivalent search implementations
// LookupExact and LookupPrefix use. All variants return the same values and
// positions; they differ in throughput, in what they require of the Codec,
// and in one ordering detail: baseline prefix search orders its pairs by
// first occurrence in the input, the others by identifier, and the two
// orders coincide for a single-worker build.
type SearchVariant int

const (
	// VariantScalar translates the query to an Identifier and scans the
	// Encoded column one entry at a time. Always available.
	VariantScalar SearchVariant = iota
	// VariantSIMD scans the Encoded column eight identifiers per step,
	// falling back to a scalar sweep for the unaligned tail. Always
	// available; throughput benefits from query.HasWideCompare.
	VariantSIMD
	// VariantBaseline scans the retained original values directly. Only
	// available when the Codec was built with build.WithRetainOriginals;
	// otherwise it returns errs.ErrUnsupported.
	VariantBaseline
)

// Codec holds a built Dictionary and Encoded column pair, and optionally the
// retained original input lines.
type Codec struct {
	dictionary *dict.Dictionary
	column     *column.Column
	originals  []string
}

// Build ingests path and returns a Codec wrapping the resulting Dictionary
// and Encoded column. See the build package for available options
// (worker count, chunk sizing, retained originals, progress reporting).
func Build(path string, opts ...build.BuildOption) (*Codec, error) {
	result, err := build.Build(path, opts...)
	if err != nil {
		return nil, err
	}

	return &Codec{
		dictionary: result.Dictionary,
		column:     result.Column,
		originals:  result.Originals,
	}, nil
}

// Load reads a persisted image written by Save and reconstructs a Codec.
// The decompression option given must match whatever compression Save used.
func Load(path string, opts ...persist.LoadOption) (*Codec, error) {
	d, col, err := persist.Load(path, opts...)
	if err != nil {
		return nil, err
	}

	return &Codec{dictionary: d, column: col}, nil
}

// Save persists the Codec's Dictionary and Encoded column to path, reporting
// a compress.CompressionStats for the Encoded column's compression step.
func (c *Codec) Save(path string, opts ...persist.SaveOption) (compress.CompressionStats, error) {
	return persist.Save(path, c.dictionary, c.column, opts...)
}

// Dictionary returns the underlying Dictionary for callers that need direct
// access (e.g. to batch inserts under WithWriteLock).
func (c *Codec) Dictionary() *dict.Dictionary {
	return c.dictionary
}

// Column returns the underlying Encoded column.
func (c *Codec) Column() *column.Column {
	return c.column
}

// Originals returns the retained input lines, or nil if the Codec was built
// without build.WithRetainOriginals.
func (c *Codec) Originals() []string {
	return c.originals
}

// DictionarySize returns N, the number of distinct values.
func (c *Codec) DictionarySize() int {
	return c.dictionary.Size()
}

// EncodedLength returns L, the input line count.
func (c *Codec) EncodedLength() int {
	return c.column.Len()
}

// ReverseDictionary returns a defensive copy of the id-to-value sequence.
func (c *Codec) ReverseDictionary() []string {
	return c.dictionary.ReverseDictionary()
}

// MemoryUsage estimates the Codec's resident memory: the Dictionary, the
// Encoded column's backing array, and the retained originals if present.
func (c *Codec) MemoryUsage() uint64 {
	total := c.dictionary.MemoryUsage()
	total += uint64(c.column.Len()) * 4

	for _, v := range c.originals {
		total += uint64(len(v))
	}

	return total
}

// CompressionRatio returns total original bytes divided by (dictionary bytes
// + 4*L), the single formula this module adopts in place of the reference
// implementation's two inconsistent ones. Original bytes are recovered by
// summing each Encoded position's dictionary value length, so the ratio is
// available whether or not originals were retained.
func (c *Codec) CompressionRatio() float64 {
	rev := c.dictionary.ReverseDictionary()
	lengths := make([]int, len(rev))
	for i, v := range rev {
		lengths[i] = len(v)
	}

	var originalBytes uint64
	for _, id := range c.column.Raw() {
		originalBytes += uint64(lengths[id])
	}

	denominator := c.dictionary.MemoryUsage() + uint64(c.column.Len())*4
	if denominator == 0 {
		return 0
	}

	return float64(originalBytes) / float64(denominator)
}

// LookupExact returns the sorted ascending positions whose Encoded column
// entry denotes value, using the given search variant. An unknown value is
// not an error; it yields a nil position list. VariantBaseline returns
// errs.ErrUnsupported if originals were not retained.
func (c *Codec) LookupExact(value string, variant SearchVariant) ([]int, error) {
	switch variant {
	case VariantBaseline:
		return query.ExactBaseline(c.dictionary, c.originals, value)
	case VariantSIMD:
		return query.ExactSIMD(c.dictionary, c.column, value), nil
	default:
		return query.ExactScalar(c.dictionary, c.column, value), nil
	}
}

// LookupPrefix returns (value, position list) pairs for every Dictionary
// value with prefix as a byte-exact prefix, using the given search variant.
// An empty prefix yields a nil result, not an error. VariantBaseline
// returns errs.ErrUnsupported if originals were not retained.
func (c *Codec) LookupPrefix(prefix string, variant SearchVariant) ([]query.PrefixMatch, error) {
	switch variant {
	case VariantBaseline:
		return query.PrefixBaseline(c.dictionary, c.originals, prefix)
	case VariantSIMD:
		return query.PrefixSIMD(c.dictionary, c.column, prefix), nil
	default:
		return query.PrefixScalar(c.dictionary, c.column, prefix), nil
	}
}
