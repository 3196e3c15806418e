package ext2fsal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkHard_S3_MissingSourceIsENOENT(t *testing.T) {
	img := newFixtureImage(t)

	err := img.LinkHard("/etc/host", "/etc/link")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkHard_S3_LinkCountAndUnlinkOrder(t *testing.T) {
	img := newFixtureImage(t)
	require.Nil(t, img.Mkdir("/etc"))
	require.Nil(t, img.CopyIn(writeHostFile(t, 64), "/etc/host"))

	hostIno, _ := img.engine.FindEntry(mustResolve(t, img, "/etc"), "host")
	require.EqualValues(t, 1, img.engine.ReadInode(hostIno).LinksCount)

	require.Nil(t, img.LinkHard("/etc/host", "/etc/link"))
	assert.EqualValues(t, 2, img.engine.ReadInode(hostIno).LinksCount)

	require.Nil(t, img.Unlink("/etc/host"))
	assert.EqualValues(t, 1, img.engine.ReadInode(hostIno).LinksCount)
	assert.True(t, img.engine.InodeBitmap.Test(int(hostIno-1)), "inode must stay allocated while a link remains")

	require.Nil(t, img.Unlink("/etc/link"))
	assert.False(t, img.engine.InodeBitmap.Test(int(hostIno-1)), "inode must be freed once the last link is gone")
	assert.NotZero(t, img.engine.ReadInode(hostIno).DTime, "dtime is set on the call that drops the last link")
}

func TestLinkHard_TargetIsDirectoryIsEISDIR(t *testing.T) {
	img := newFixtureImage(t)
	require.Nil(t, img.Mkdir("/a"))

	err := img.LinkHard("/a", "/b")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrIsDirectory)
}

func TestLinkHard_ExistingNameIsEEXIST(t *testing.T) {
	img := newFixtureImage(t)
	require.Nil(t, img.CopyIn(writeHostFile(t, 16), "/f"))
	require.Nil(t, img.CopyIn(writeHostFile(t, 16), "/g"))

	err := img.LinkHard("/f", "/g")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrExists)
}

func mustResolve(t *testing.T, img *Image, path string) uint32 {
	t.Helper()
	ino, err := img.engine.Resolve(path)
	require.Nil(t, err)
	return ino
}
