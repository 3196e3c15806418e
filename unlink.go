package ext2fsal

import (
	"time"

	"github.com/dargueta/ext2fsal/internal/onimage"
)

// Unlink removes the directory entry named by path (spec §4.8, "rm"). It
// never recurses and never removes a directory — path must name a regular
// file or symlink. The victim is always found by name, never by inode
// number, so removing one hard link's name never disturbs another name
// pointing at the same inode.
//
// When the target's link count reaches zero, its data blocks and inode are
// freed; until then, the inode and its contents are left untouched.
func (img *Image) Unlink(path string) *MutatorError {
	parentPath, name, serr := onimage.SplitParentName(path)
	if serr != nil {
		return adaptErr(serr)
	}
	parentIno, rerr := img.engine.Resolve(parentPath)
	if rerr != nil {
		return adaptErr(rerr)
	}

	targetIno, found := img.engine.FindEntry(parentIno, name)
	if !found {
		return NewError(ErrNotFound)
	}
	target := img.engine.ReadInode(targetIno)
	if target.IsDir() {
		return NewErrorf(ErrIsDirectory, "%s is a directory", path)
	}
	if onimage.HadTrailingSlash(path) {
		return NewError(ErrNotFound)
	}

	if _, rerr := img.engine.RemoveEntry(parentIno, name); rerr != nil {
		return adaptErr(rerr)
	}

	remaining := img.engine.AdjustLinkCount(targetIno, -1)
	if remaining > 0 {
		return nil
	}

	now := uint32(time.Now().Unix())
	in := img.engine.ReadInode(targetIno)
	in.DTime = now
	img.engine.WriteInode(targetIno, in)

	if merr := adaptErr(img.engine.FreeInodeBlocks(targetIno)); merr != nil {
		return merr
	}
	if aerr := img.engine.FreeInode(targetIno); aerr != nil {
		return adaptErr(aerr)
	}
	return nil
}
