package ext2fsal

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/ext2fsal/internal/layout"
	"github.com/dargueta/ext2fsal/internal/onimage"
)

func writeHostFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.bin")
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestCopyIn_S4_SpansIndirectBlock(t *testing.T) {
	// The 32-inode/128-block fixture has 118 free data blocks, enough for
	// the 21 this copy needs (20 data blocks plus the indirect block); this
	// scenario still uses a bigger fixture for headroom.
	img := newFixtureImageSized(t, 512, 32, 3)
	hostPath := writeHostFile(t, 20*1024)
	require.Nil(t, img.CopyIn(hostPath, "/big"))

	ino, found := img.engine.FindEntry(layout.RootInodeNum, "big")
	require.True(t, found)

	in := img.engine.ReadInode(ino)
	assert.EqualValues(t, 20*1024, in.Size)
	assert.EqualValues(t, 20*(layout.BlockSize/512), in.Blocks)
	for i := 0; i < layout.DirectPointers; i++ {
		assert.NotZero(t, in.Block[i], "direct pointer %d should be set", i)
	}
	require.NotZero(t, in.Block[layout.IndirectPointerIndex])

	indirect := img.engine.ReadBlock(in.Block[layout.IndirectPointerIndex])
	nonZero := 0
	for off := 0; off < layout.BlockSize; off += 4 {
		if binary.LittleEndian.Uint32(indirect[off:]) != 0 {
			nonZero++
		}
	}
	assert.Equal(t, 8, nonZero, "20KiB - 12 direct blocks leaves 8 blocks in the indirect array")
}

func TestCopyIn_OverwritesExistingRegularFile(t *testing.T) {
	img := newFixtureImage(t)
	first := writeHostFile(t, 100)
	second := writeHostFile(t, 4000)

	require.Nil(t, img.CopyIn(first, "/f"))
	ino1, _ := img.engine.FindEntry(layout.RootInodeNum, "f")

	require.Nil(t, img.CopyIn(second, "/f"))
	ino2, found := img.engine.FindEntry(layout.RootInodeNum, "f")
	require.True(t, found)

	assert.Equal(t, ino1, ino2, "overwrite must reuse the existing inode number")
	in := img.engine.ReadInode(ino2)
	assert.EqualValues(t, 4000, in.Size)
}

func TestCopyIn_DestinationDirectoryUsesBaseName(t *testing.T) {
	img := newFixtureImage(t)
	require.Nil(t, img.Mkdir("/dir"))
	hostPath := writeHostFile(t, 10)

	require.Nil(t, img.CopyIn(hostPath, "/dir/"))

	dirIno, _ := img.engine.FindEntry(layout.RootInodeNum, "dir")
	_, found := img.engine.FindEntry(dirIno, filepath.Base(hostPath))
	assert.True(t, found)
}

func TestCopyIn_ExistingDirectoryRecursesIntoIt(t *testing.T) {
	img := newFixtureImage(t)
	require.Nil(t, img.Mkdir("/dir"))
	hostPath := writeHostFile(t, 10)

	// No trailing slash, but "/dir" already names a directory: the file
	// lands inside it under the host file's base name rather than erroring.
	require.Nil(t, img.CopyIn(hostPath, "/dir"))

	dirIno, _ := img.engine.FindEntry(layout.RootInodeNum, "dir")
	_, found := img.engine.FindEntry(dirIno, filepath.Base(hostPath))
	assert.True(t, found)
}

// newFixtureImageSized builds a formatted image with a caller-chosen block
// count, for scenarios (like S4) that need more data blocks than the
// default fixture provides.
func newFixtureImageSized(t *testing.T, totalBlocks, totalInodes, firstInode uint32) *Image {
	t.Helper()
	data := onimage.Format(totalBlocks, totalInodes, firstInode)
	return &Image{data: data, engine: onimage.New(data)}
}
