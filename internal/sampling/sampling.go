// Package sampling decides which keys are mirrored into the cache's
// shadow caches. Hashing the key rather than using it directly keeps the
// sampled subset decorrelated from any structure in the key space (e.g.
// monotonically increasing IDs).
package sampling

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// ShouldSample reports whether key belongs to the sampled subset: its
// 64-bit hash, masked by mask, is zero. mask is typically a run of low
// set bits (e.g. 0xf samples 1 in 16 keys).
func ShouldSample(key uint64, mask uint64) bool {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	return xxh3.Hash(buf[:])&mask == 0
}
