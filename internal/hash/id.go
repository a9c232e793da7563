package hash

import "github.com/cespare/xxhash/v2"

// Checksum computes the xxHash64 of the given bytes.
//
// The persist package uses this as a sidecar integrity check over a
// dictionary image's bytes. It is not part of the on-disk wire format;
// callers that want tamper/truncation detection store it alongside the
// image and compare on load.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
