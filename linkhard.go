package ext2fsal

import (
	"github.com/dargueta/ext2fsal/internal/layout"
	"github.com/dargueta/ext2fsal/internal/onimage"
)

// LinkHard creates a new name, dst, referring to the same inode as src
// (spec §4.8, "ln-hard"). src must already exist and must not be a
// directory. The directory-entry insertion is the commit point; the
// inode's link count is bumped only after it succeeds.
func (img *Image) LinkHard(src, dst string) *MutatorError {
	srcIno, rerr := img.engine.Resolve(src)
	if rerr != nil {
		return adaptErr(rerr)
	}
	srcInode := img.engine.ReadInode(srcIno)
	if srcInode.IsDir() {
		return NewErrorf(ErrIsDirectory, "%s is a directory", src)
	}

	parentPath, name, serr := onimage.SplitParentName(dst)
	if serr != nil {
		return adaptErr(serr)
	}
	parentIno, rerr := img.engine.Resolve(parentPath)
	if rerr != nil {
		return adaptErr(rerr)
	}
	if !img.engine.ReadInode(parentIno).IsDir() {
		return NewError(ErrNotFound)
	}

	if existingIno, found := img.engine.FindEntry(parentIno, name); found {
		if img.engine.ReadInode(existingIno).IsDir() {
			return NewErrorf(ErrIsDirectory, "%s is a directory", dst)
		}
		return NewErrorf(ErrExists, "%s already exists", dst)
	}

	fileType := uint8(layout.FileTypeRegular)
	if srcInode.IsSymlink() {
		fileType = layout.FileTypeSymlink
	}

	if aerr := img.engine.AddEntry(parentIno, name, srcIno, fileType); aerr != nil {
		return adaptErr(aerr)
	}
	img.engine.AdjustLinkCount(srcIno, 1)
	return nil
}
