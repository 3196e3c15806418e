// Package onimage is the mutator engine: bitmap-based allocation, directory
// codec, path resolution, block-pointer management, and the locking
// discipline that keeps a mounted ext2 image consistent under concurrent
// namespace operations. It operates directly on byte slices carved out of
// the mmap'd image; nothing in this package owns the mapping itself, that's
// the root package's job (see Mount).
package onimage

import bitmap "github.com/boljen/go-bitmap"

// Bits wraps a byte-packed, LSB-first bitmap that lives in place inside the
// mmap'd image (bit n is bit (n mod 8) of byte n/8, per the on-disk
// contract). It's a thin named-vocabulary layer over go-bitmap, whose
// Bitmap type is itself just a []byte, so wrapping the image's bitmap
// blocks is a zero-copy type conversion.
type Bits struct {
	bm bitmap.Bitmap
}

// WrapBits treats raw as a bitmap in place; mutations through the returned
// Bits are mutations of raw.
func WrapBits(raw []byte) Bits {
	return Bits{bm: bitmap.Bitmap(raw)}
}

func (b Bits) Test(n int) bool {
	return b.bm.Get(n)
}

func (b Bits) Set(n int) {
	b.bm.Set(n, true)
}

func (b Bits) Clear(n int) {
	b.bm.Set(n, false)
}

// Popcount returns the number of set bits in the first n bits of the map.
func (b Bits) Popcount(n int) int {
	count := 0
	for i := 0; i < n; i++ {
		if b.bm.Get(i) {
			count++
		}
	}
	return count
}
