package query

import (
	"fmt"

	"github.com/dictcol/dictcol/column"
	"github.com/dictcol/dictcol/dict"
	"github.com/dictcol/dictcol/errs"
)

// PrefixMatch pairs a Dictionary value matching a queried prefix with the
// ascending-order positions in the Encoded column bound to that value.
type PrefixMatch struct {
	Value     string
	Positions []int
}

// wideThreshold is the set-size cutoff at or above which the wide-compare prefix
// scan falls back to a single scalar pass, matching the reference
// implementation's "iterate a broadcast-compare per identifier when the
// matching set is small" strategy.
const wideThreshold = 8

// PrefixBaseline scans the retained original values, grouping every line
// whose value has prefix as a byte-exact prefix by that value, in the order
// each distinct value was first encountered. It requires retained
// originals; returns errs.ErrUnsupported otherwise. An empty prefix yields a
// nil result, not an error.
func PrefixBaseline(d *dict.Dictionary, originals []string, prefix string) ([]PrefixMatch, error) {
	if prefix == "" {
		return nil, nil
	}
	if originals == nil {
		return nil, fmt.Errorf("%w: baseline prefix search requires retained originals", errs.ErrUnsupported)
	}

	d.RLock()
	defer d.RUnlock()

	bucketIndex := make(map[string]int)
	var matches []PrefixMatch

	for i, v := range originals {
		if len(v) < len(prefix) || v[:len(prefix)] != prefix {
			continue
		}

		idx, ok := bucketIndex[v]
		if !ok {
			idx = len(matches)
			bucketIndex[v] = idx
			matches = append(matches, PrefixMatch{Value: v})
		}
		matches[idx].Positions = append(matches[idx].Positions, i)
	}

	return matches, nil
}

// PrefixScalar collects the Dictionary entries matching prefix, then scans
// col once, bucketing every position whose identifier belongs to a
// collected entry. Pairs are returned in the order their identifiers were
// first collected.
func PrefixScalar(d *dict.Dictionary, col *column.Column, prefix string) []PrefixMatch {
	d.RLock()
	defer d.RUnlock()

	var ids []uint32
	var matches []PrefixMatch
	d.EachPrefix(prefix, func(value string, id uint32) {
		matches = append(matches, PrefixMatch{Value: value})
		ids = append(ids, id)
	})
	if len(matches) == 0 {
		return matches
	}

	bucketIndex := make(map[uint32]int, len(ids))
	for i, id := range ids {
		bucketIndex[id] = i
	}

	for j, id := range col.Raw() {
		if idx, ok := bucketIndex[id]; ok {
			matches[idx].Positions = append(matches[idx].Positions, j)
		}
	}

	return matches
}

// PrefixSIMD accelerates step two of PrefixScalar's algorithm with a
// broadcast-compare-per-identifier wide scan when the matching set is
// smaller than wideThreshold, falling back to the same single scalar pass
// PrefixScalar uses otherwise. Results are identical to PrefixScalar
// regardless of which path is taken. PrefixBaseline returns the same
// (value, positions) pairs, ordered by first occurrence in the input rather
// than by identifier; the two orders coincide for a single-worker build.
func PrefixSIMD(d *dict.Dictionary, col *column.Column, prefix string) []PrefixMatch {
	d.RLock()
	defer d.RUnlock()

	var ids []uint32
	var matches []PrefixMatch
	d.EachPrefix(prefix, func(value string, id uint32) {
		matches = append(matches, PrefixMatch{Value: value})
		ids = append(ids, id)
	})
	if len(matches) == 0 {
		return matches
	}

	rawIDs := col.Raw()

	if len(ids) < wideThreshold {
		for i, id := range ids {
			scanWide(rawIDs, id, func(pos int) {
				matches[i].Positions = append(matches[i].Positions, pos)
			})
		}
		return matches
	}

	bucketIndex := make(map[uint32]int, len(ids))
	for i, id := range ids {
		bucketIndex[id] = i
	}

	for j, id := range rawIDs {
		if idx, ok := bucketIndex[id]; ok {
			matches[idx].Positions = append(matches[idx].Positions, j)
		}
	}

	return matches
}
