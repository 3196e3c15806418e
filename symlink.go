package ext2fsal

import (
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/dargueta/ext2fsal/internal/layout"
	"github.com/dargueta/ext2fsal/internal/onimage"
)

// SymLink creates a symbolic link at dst whose target text is target (spec
// §4.8, "ln-symbolic"). target is opaque text and is never validated or
// resolved — it need not exist, and may not even be a well-formed path.
func (img *Image) SymLink(target, dst string) *MutatorError {
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

	if len(target) > layout.BlockSize {
		return NewErrorf(ErrNameTooLong, "symlink target too long")
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

	img.engine.ZeroBlock(blk)
	img.engine.WriteBlock(blk, []byte(target))

	now := uint32(time.Now().Unix())
	in := &layout.Inode{
		Mode:       layout.ModeSymlink | 0o777,
		LinksCount: 1,
		Size:       uint32(len(target)),
		Blocks:     layout.SectorsPerBlock,
		ATime:      now,
		CTime:      now,
		MTime:      now,
	}
	in.Block[0] = blk
	img.engine.WriteInode(childIno, in)

	if aerr := img.engine.AddEntry(parentIno, name, childIno, layout.FileTypeSymlink); aerr != nil {
		var cleanup *multierror.Error
		if ferr := img.engine.FreeBlock(blk); ferr != nil {
			cleanup = multierror.Append(cleanup, ferr)
		}
		if ferr := img.engine.FreeInode(childIno); ferr != nil {
			cleanup = multierror.Append(cleanup, ferr)
		}
		return withRollbackFailures(adaptErr(aerr), cleanup)
	}
	return nil
}
