package ext2fsal

import (
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/dargueta/ext2fsal/internal/layout"
	"github.com/dargueta/ext2fsal/internal/onimage"
)

// Mkdir creates a new, empty directory at the given absolute path (spec
// §4.8). The parent must exist and be a directory; name must not already be
// taken by anything.
//
// On any failure after allocation, the freshly allocated inode and block
// are freed before the error is returned — the directory-entry insertion in
// the parent is the commit point (spec §7).
func (img *Image) Mkdir(path string) *MutatorError {
	parentPath, name, serr := onimage.SplitParentName(path)
	if serr != nil {
		return adaptErr(serr)
	}

	parentIno, rerr := img.engine.Resolve(parentPath)
	if rerr != nil {
		return adaptErr(rerr)
	}
	parent := img.engine.ReadInode(parentIno)
	if !parent.IsDir() {
		return NewError(ErrNotFound)
	}

	if existing, found := img.engine.FindEntry(parentIno, name); found {
		child := img.engine.ReadInode(existing)
		if child.IsDir() {
			return NewErrorf(ErrExists, "%s already exists", path)
		}
		if onimage.HadTrailingSlash(path) {
			return NewError(ErrNotFound)
		}
		return NewErrorf(ErrExists, "%s already exists", path)
	}

	childIno, aerr := img.engine.AllocInode()
	if aerr != nil {
		return adaptErr(aerr)
	}
	blk, aerr := img.engine.AllocBlock()
	if aerr != nil {
		var cleanup *multierror.Error
		if ferr := img.engine.FreeInode(childIno); ferr != nil {
			cleanup = multierror.Append(cleanup, ferr)
		}
		return withRollbackFailures(adaptErr(aerr), cleanup)
	}

	img.engine.WriteInitialDirBlock(blk, childIno, parentIno)

	now := uint32(time.Now().Unix())
	in := &layout.Inode{
		Mode:       layout.ModeDir | 0o755,
		LinksCount: 2,
		Size:       layout.BlockSize,
		Blocks:     layout.SectorsPerBlock,
		ATime:      now,
		CTime:      now,
		MTime:      now,
	}
	in.Block[0] = blk
	img.engine.WriteInode(childIno, in)

	if aerr := img.engine.AddEntry(parentIno, name, childIno, layout.FileTypeDir); aerr != nil {
		var cleanup *multierror.Error
		if ferr := img.engine.FreeBlock(blk); ferr != nil {
			cleanup = multierror.Append(cleanup, ferr)
		}
		if ferr := img.engine.FreeInode(childIno); ferr != nil {
			cleanup = multierror.Append(cleanup, ferr)
		}
		return withRollbackFailures(adaptErr(aerr), cleanup)
	}
	img.engine.AdjustLinkCount(parentIno, 1)
	return nil
}
