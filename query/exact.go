package query

import (
	"fmt"

	"github.com/dictcol/dictcol/column"
	"github.com/dictcol/dictcol/dict"
	"github.com/dictcol/dictcol/errs"
)

// ExactBaseline scans the retained original values for a byte-exact match
// with value. It requires the Builder to have been run with
// build.WithRetainOriginals; when originals is nil it returns
// errs.ErrUnsupported rather than silently returning an empty list, so
// callers can distinguish "no match" from "not retained".
func ExactBaseline(d *dict.Dictionary, originals []string, value string) ([]int, error) {
	if originals == nil {
		return nil, fmt.Errorf("%w: baseline exact search requires retained originals", errs.ErrUnsupported)
	}

	d.RLock()
	defer d.RUnlock()

	var positions []int
	for i, v := range originals {
		if v == value {
			positions = append(positions, i)
		}
	}

	return positions, nil
}

// ExactScalar translates value to its Identifier under the Dictionary's read
// lock, then scans col once for matching entries. An unknown value is not an
// error; it yields a nil (empty) position list.
func ExactScalar(d *dict.Dictionary, col *column.Column, value string) []int {
	d.RLock()
	defer d.RUnlock()

	id, ok := d.LookupLocked(value)
	if !ok {
		return nil
	}

	var positions []int
	for i, v := range col.Raw() {
		if v == id {
			positions = append(positions, i)
		}
	}

	return positions
}

// ExactSIMD is semantically identical to ExactScalar but scans col eight
// identifiers at a time via scanWide. Results are byte-for-byte identical
// to ExactScalar and ExactBaseline on every host; HasWideCompare only
// indicates whether the host can usefully exploit the lane width.
func ExactSIMD(d *dict.Dictionary, col *column.Column, value string) []int {
	d.RLock()
	defer d.RUnlock()

	id, ok := d.LookupLocked(value)
	if !ok {
		return nil
	}

	var positions []int
	scanWide(col.Raw(), id, func(pos int) {
		positions = append(positions, pos)
	})

	return positions
}
