// Package column implements the Encoded column: a fixed-length, positional
// sequence of Identifiers aligned one-to-one with input lines.
package column

import "fmt"

// Column is the Encoded column: an ordered sequence of Identifiers, one per
// input line. It is allocated to full length before ingestion and each
// position is written exactly once by the Builder; no lock is needed for
// writes because workers own disjoint index ranges.
type Column struct {
	ids []uint32
}

// New allocates a Column of exactly length entries, all zero-valued until
// the Builder writes them.
func New(length int) *Column {
	return &Column{ids: make([]uint32, length)}
}

// FromSlice wraps an existing []uint32 as a Column without copying,
// transferring ownership of ids to the Column. Used by persist.Load to
// avoid an extra allocation when restoring a decompressed image.
func FromSlice(ids []uint32) *Column {
	return &Column{ids: ids}
}

// Len returns L, the encoded length (equal to the input line count).
func (c *Column) Len() int {
	return len(c.ids)
}

// Set writes id at position j. Panics if j is out of range; this is a
// programmer error (each worker's index range is computed, not supplied by
// a caller), not a recoverable input error.
func (c *Column) Set(j int, id uint32) {
	if j < 0 || j >= len(c.ids) {
		panic(fmt.Sprintf("column: Set: position %d out of range [0, %d)", j, len(c.ids)))
	}
	c.ids[j] = id
}

// At returns the Identifier stored at position j. Panics if j is out of
// range.
func (c *Column) At(j int) uint32 {
	if j < 0 || j >= len(c.ids) {
		panic(fmt.Sprintf("column: At: position %d out of range [0, %d)", j, len(c.ids)))
	}
	return c.ids[j]
}

// Raw returns the backing []uint32 without copying. Callers must not mutate
// it outside the Builder's disjoint-range writes; the query engine and
// persist package use it read-only.
func (c *Column) Raw() []uint32 {
	return c.ids
}
