package onimage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/ext2fsal/internal/layout"
)

func newTestEngine(t *testing.T, totalBlocks, totalInodes, firstInode uint32) *Engine {
	t.Helper()
	data := Format(totalBlocks, totalInodes, firstInode)
	return New(data)
}

// newEmptyDir allocates a fresh inode tagged as a directory with no data
// blocks yet, so AddEntry's case A (no blocks) path can be exercised
// directly — the root directory always has one block by the time Format
// returns, so it can never hit case A itself.
func newEmptyDir(t *testing.T, e *Engine) uint32 {
	t.Helper()
	ino, aerr := e.AllocInode()
	require.Nil(t, aerr)
	e.WriteInode(ino, &layout.Inode{Mode: layout.ModeDir | 0o755, LinksCount: 2})
	return ino
}

func TestAddEntry_CaseA_NoBlocksYet(t *testing.T) {
	e := newTestEngine(t, 128, 32, 3)
	dirIno := newEmptyDir(t, e)

	childIno, aerr := e.AllocInode()
	require.Nil(t, aerr)
	require.Nil(t, e.AddEntry(dirIno, "a", childIno, layout.FileTypeDir))

	found, ok := e.FindEntry(dirIno, "a")
	require.True(t, ok)
	assert.Equal(t, childIno, found)

	dir := e.ReadInode(dirIno)
	require.NotZero(t, dir.Block[0])
	assert.EqualValues(t, layout.BlockSize, dir.Size)

	block := e.ReadBlock(dir.Block[0])
	entry := layout.NewDirentView(block, 0)
	assert.Equal(t, layout.BlockSize, entry.RecLen(), "sole entry absorbs the whole block")
}

func TestAddEntry_CaseB_RoomInTailBlock(t *testing.T) {
	e := newTestEngine(t, 128, 32, 3)

	ino1, _ := e.AllocInode()
	require.Nil(t, e.AddEntry(layout.RootInodeNum, "one", ino1, layout.FileTypeRegular))
	ino2, _ := e.AllocInode()
	require.Nil(t, e.AddEntry(layout.RootInodeNum, "two", ino2, layout.FileTypeRegular))

	root := e.ReadInode(layout.RootInodeNum)
	nonZeroBlocks := 0
	for _, b := range root.Block {
		if b != 0 {
			nonZeroBlocks++
		}
	}
	assert.Equal(t, 1, nonZeroBlocks, "both entries should fit in root's existing block")

	gotOne, ok := e.FindEntry(layout.RootInodeNum, "one")
	require.True(t, ok)
	assert.Equal(t, ino1, gotOne)
	gotTwo, ok := e.FindEntry(layout.RootInodeNum, "two")
	require.True(t, ok)
	assert.Equal(t, ino2, gotTwo)
}

func TestRemoveEntry_TombstonesFirstEntry(t *testing.T) {
	e := newTestEngine(t, 128, 32, 3)
	dirIno := newEmptyDir(t, e)
	childIno, _ := e.AllocInode()
	require.Nil(t, e.AddEntry(dirIno, "onlyentry", childIno, layout.FileTypeRegular))

	dir := e.ReadInode(dirIno)
	before := layout.NewDirentView(e.ReadBlock(dir.Block[0]), 0)
	beforeRecLen := before.RecLen()

	removed, rerr := e.RemoveEntry(dirIno, "onlyentry")
	require.Nil(t, rerr)
	assert.Equal(t, childIno, removed)

	after := layout.NewDirentView(e.ReadBlock(dir.Block[0]), 0)
	assert.EqualValues(t, 0, after.Inode(), "sole entry is tombstoned, not spliced")
	assert.Equal(t, beforeRecLen, after.RecLen(), "rec_len is unchanged by a tombstone")
}

func TestRemoveEntry_SplicesNonFirstEntry(t *testing.T) {
	e := newTestEngine(t, 128, 32, 3)
	ino1, _ := e.AllocInode()
	require.Nil(t, e.AddEntry(layout.RootInodeNum, "one", ino1, layout.FileTypeRegular))
	ino2, _ := e.AllocInode()
	require.Nil(t, e.AddEntry(layout.RootInodeNum, "two", ino2, layout.FileTypeRegular))

	removed, rerr := e.RemoveEntry(layout.RootInodeNum, "two")
	require.Nil(t, rerr)
	assert.Equal(t, ino2, removed)

	_, found := e.FindEntry(layout.RootInodeNum, "two")
	assert.False(t, found)
	_, found = e.FindEntry(layout.RootInodeNum, "one")
	assert.True(t, found)
}
