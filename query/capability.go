// Package query implements the read-only exact and prefix search operations
// against a dict.Dictionary and column.Column pair.
package query

import "github.com/klauspost/cpuid/v2"

// hasWideCompare records, once at package init, whether the host can usefully
// run the 8-wide lane scan. Go has no portable SIMD intrinsics, so the "wide"
// path here is a manually unrolled, branch-light 8-at-a-time scan rather than
// hand-written assembly. The flag is only reported through HasWideCompare;
// nothing in this package selects a variant from it, since the scan is
// correct (just not wider) on any host.
var hasWideCompare = cpuid.CPU.Has(cpuid.AVX2)

// HasWideCompare reports whether the host CPU has the vector capability the
// wide-compare scan targets (AVX2, an 8-wide 32-bit lane). The scalar and
// wide-compare code paths are equivalent on every host; a caller may use
// this to choose which variant to prefer for throughput.
func HasWideCompare() bool {
	return hasWideCompare
}
