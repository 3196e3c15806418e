package ext2fsal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/ext2fsal/internal/layout"
	"github.com/dargueta/ext2fsal/internal/onimage"
)

// newFixtureImage builds a freshly formatted 128-block, 32-inode image with
// a reserved-inode floor of 3, matching boundary scenario S1.
func newFixtureImage(t *testing.T) *Image {
	t.Helper()
	data := onimage.Format(128, 32, 3)
	return &Image{data: data, engine: onimage.New(data)}
}

func TestMkdir_S1_FreshImage(t *testing.T) {
	img := newFixtureImage(t)

	err := img.Mkdir("/a")
	require.Nil(t, err)

	childIno, found := img.engine.FindEntry(layout.RootInodeNum, "a")
	require.True(t, found)
	assert.EqualValues(t, 3, childIno, "first non-reserved inode should be 3")

	child := img.engine.ReadInode(childIno)
	assert.True(t, child.IsDir())
	assert.EqualValues(t, layout.ModeDir|0o755, child.Mode)
	assert.EqualValues(t, 2, child.LinksCount)
	assert.EqualValues(t, layout.BlockSize, child.Size)
	require.NotZero(t, child.Block[0])

	block := img.engine.ReadBlock(child.Block[0])
	dot := layout.NewDirentView(block, 0)
	assert.EqualValues(t, childIno, dot.Inode())
	assert.Equal(t, 12, dot.RecLen())
	assert.Equal(t, ".", string(dot.Name()))

	dotdot, ok := dot.Next()
	require.True(t, ok)
	assert.EqualValues(t, layout.RootInodeNum, dotdot.Inode())
	assert.Equal(t, 1012, dotdot.RecLen())
	assert.Equal(t, "..", string(dotdot.Name()))
}

func TestMkdir_S2_DuplicateIsEEXIST(t *testing.T) {
	img := newFixtureImage(t)
	require.Nil(t, img.Mkdir("/a"))

	err := img.Mkdir("/a")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrExists)

	err = img.Mkdir("/a/")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrExists)
}

func TestMkdir_MissingParent(t *testing.T) {
	img := newFixtureImage(t)

	err := img.Mkdir("/no/such/dir")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMkdir_ExhaustsInodesWithENOSPC(t *testing.T) {
	img := newFixtureImage(t)
	require.Nil(t, img.Mkdir("/a"))

	// Only inodes 3..32 are allocatable (reserved floor 3, 32 total); one
	// more is already spent on "/a" itself, so this loop must eventually
	// fail with ENOSPC rather than silently wrapping around or corrupting
	// the free-inode counters.
	var last *MutatorError
	for i := 0; i < 32; i++ {
		last = img.Mkdir("/a/d" + string(rune('a'+i)))
		if last != nil {
			break
		}
	}
	require.NotNil(t, last)
	assert.ErrorIs(t, last, ErrNoSpace)
	assert.EqualValues(t, 0, img.engine.SB.FreeInodesCount)
}
