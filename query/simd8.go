package query

import "math/bits"

// laneWidth is the number of 32-bit identifiers processed per wide-compare
// step, matching the reference AVX2 implementation's 256-bit lane.
const laneWidth = 8

// laneMask compares each of the eight identifiers in lane against target and
// returns a bitmask with bit i set when lane[i] == target, mirroring
// _mm256_cmpeq_epi32 followed by _mm256_movemask_ps. lane must have at least
// laneWidth elements.
func laneMask(lane []uint32, target uint32) uint8 {
	var mask uint8
	if lane[0] == target {
		mask |= 1 << 0
	}
	if lane[1] == target {
		mask |= 1 << 1
	}
	if lane[2] == target {
		mask |= 1 << 2
	}
	if lane[3] == target {
		mask |= 1 << 3
	}
	if lane[4] == target {
		mask |= 1 << 4
	}
	if lane[5] == target {
		mask |= 1 << 5
	}
	if lane[6] == target {
		mask |= 1 << 6
	}
	if lane[7] == target {
		mask |= 1 << 7
	}
	return mask
}

// scanWide calls emit(pos) for every position in ids whose value equals
// target, processing ids in full eight-wide lanes and sweeping the
// unaligned tail with a scalar comparison. Positions are emitted in
// ascending order. Semantically identical to a plain scalar scan; the lane
// processing only changes how the comparisons are batched.
func scanWide(ids []uint32, target uint32, emit func(pos int)) {
	n := len(ids)
	aligned := n - n%laneWidth

	for i := 0; i < aligned; i += laneWidth {
		mask := laneMask(ids[i:i+laneWidth], target)
		for mask != 0 {
			idx := bits.TrailingZeros8(mask)
			emit(i + idx)
			mask &= mask - 1
		}
	}

	for i := aligned; i < n; i++ {
		if ids[i] == target {
			emit(i)
		}
	}
}
