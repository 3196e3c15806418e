package ext2fsal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/ext2fsal/internal/layout"
)

// TestConcurrentCopyIn_S6 copies two distinct host files to two distinct
// destinations under the same parent directory from separate goroutines.
// Both must succeed, both entries must be independently findable afterward,
// and the bitmaps must account for exactly the blocks the two files (plus
// any directory growth) actually consumed.
func TestConcurrentCopyIn_S6(t *testing.T) {
	img := newFixtureImageSized(t, 256, 32, 3)
	hostA := writeHostFile(t, 500)
	hostB := writeHostFile(t, 700)

	var wg sync.WaitGroup
	errs := make([]*MutatorError, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = img.CopyIn(hostA, "/a")
	}()
	go func() {
		defer wg.Done()
		errs[1] = img.CopyIn(hostB, "/b")
	}()
	wg.Wait()

	require.Nil(t, errs[0])
	require.Nil(t, errs[1])

	inoA, foundA := img.engine.FindEntry(layout.RootInodeNum, "a")
	inoB, foundB := img.engine.FindEntry(layout.RootInodeNum, "b")
	require.True(t, foundA)
	require.True(t, foundB)
	assert.NotEqual(t, inoA, inoB)

	assert.EqualValues(t, 500, img.engine.ReadInode(inoA).Size)
	assert.EqualValues(t, 700, img.engine.ReadInode(inoB).Size)

	popcountInodes := img.engine.InodeBitmap.Popcount(int(img.engine.TotalInodes))
	assert.EqualValues(t, img.engine.TotalInodes-img.engine.SB.FreeInodesCount, popcountInodes)

	popcountBlocks := img.engine.BlockBitmap.Popcount(int(img.engine.TotalBlocks))
	assert.EqualValues(t, img.engine.TotalBlocks-img.engine.SB.FreeBlocksCount, popcountBlocks)
}
