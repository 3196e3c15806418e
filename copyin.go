package ext2fsal

import (
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/dargueta/ext2fsal/internal/layout"
	"github.com/dargueta/ext2fsal/internal/onimage"
)

// CopyIn reads the regular file at hostSrcPath on the host filesystem and
// writes its contents into the image at dst (spec §4.8, "cp").
//
// If dst names an existing directory (or ends in "/"), the copy lands
// inside that directory under the host file's base name — this also
// covers a dst whose final component names an existing subdirectory, since
// resolving dst as a whole already finds it. An existing symlink is
// rejected; an existing regular file is overwritten in place (its old data
// blocks are freed and a fresh set allocated, keeping the same inode number
// so other hard links to it keep working); otherwise a fresh inode is
// allocated.
func (img *Image) CopyIn(hostSrcPath, dst string) *MutatorError {
	src, err := os.Open(hostSrcPath)
	if err != nil {
		return NewErrorf(ErrIO, "opening host source: %s", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return NewErrorf(ErrIO, "statting host source: %s", err)
	}
	if !info.Mode().IsRegular() {
		return NewErrorf(ErrIO, "%s is not a regular file", hostSrcPath)
	}

	parentIno, name, merr := img.resolveCopyDestination(dst, hostSrcPath)
	if merr != nil {
		return merr
	}

	var targetIno uint32
	var freshlyAllocated bool

	existingIno, found := img.engine.FindEntry(parentIno, name)
	if found {
		existing := img.engine.ReadInode(existingIno)
		switch {
		case existing.IsSymlink():
			return NewErrorf(ErrExists, "%s already exists", dst)
		case existing.IsDir():
			return NewErrorf(ErrIsDirectory, "%s is a directory", dst)
		default:
			if merr := adaptErr(img.engine.FreeInodeBlocks(existingIno)); merr != nil {
				return merr
			}
			targetIno = existingIno
		}
	} else {
		childIno, aerr := img.engine.AllocInode()
		if aerr != nil {
			return adaptErr(aerr)
		}
		targetIno = childIno
		freshlyAllocated = true
	}

	if _, serr := src.Seek(0, 0); serr != nil {
		var cleanup *multierror.Error
		if freshlyAllocated {
			if ferr := img.engine.FreeInode(targetIno); ferr != nil {
				cleanup = multierror.Append(cleanup, ferr)
			}
		}
		return withRollbackFailures(NewErrorf(ErrIO, "rewinding host source: %s", serr), cleanup)
	}

	in, allocated, werr := img.engine.WriteFileData(src, info.Size())
	if werr != nil {
		var cleanup *multierror.Error
		for _, b := range allocated {
			if ferr := img.engine.FreeBlock(b); ferr != nil {
				cleanup = multierror.Append(cleanup, ferr)
			}
		}
		if freshlyAllocated {
			if ferr := img.engine.FreeInode(targetIno); ferr != nil {
				cleanup = multierror.Append(cleanup, ferr)
			}
		}
		return withRollbackFailures(adaptErr(werr), cleanup)
	}

	now := uint32(time.Now().Unix())
	in.Mode = layout.ModeRegular | 0o644
	in.LinksCount = 1
	if !freshlyAllocated {
		// An overwrite keeps every existing name that refers to this inode.
		in.LinksCount = img.engine.ReadInode(targetIno).LinksCount
	}
	in.ATime = now
	in.CTime = now
	in.MTime = now
	img.engine.WriteInode(targetIno, in)

	if freshlyAllocated {
		if aerr := img.engine.AddEntry(parentIno, name, targetIno, layout.FileTypeRegular); aerr != nil {
			var cleanup *multierror.Error
			for _, b := range allocated {
				if ferr := img.engine.FreeBlock(b); ferr != nil {
					cleanup = multierror.Append(cleanup, ferr)
				}
			}
			if ferr := img.engine.FreeInode(targetIno); ferr != nil {
				cleanup = multierror.Append(cleanup, ferr)
			}
			return withRollbackFailures(adaptErr(aerr), cleanup)
		}
	}
	return nil
}

// resolveCopyDestination implements the destination-splitting half of "cp":
// a directory destination (named explicitly or via a trailing slash) copies
// under the source's base name; anything else splits into parent/name.
func (img *Image) resolveCopyDestination(dst, hostSrcPath string) (uint32, string, *MutatorError) {
	if onimage.HadTrailingSlash(dst) {
		dirIno, rerr := img.engine.Resolve(dst)
		if rerr != nil {
			return 0, "", adaptErr(rerr)
		}
		return dirIno, filepath.Base(hostSrcPath), nil
	}

	if dirIno, rerr := img.engine.Resolve(dst); rerr == nil {
		if img.engine.ReadInode(dirIno).IsDir() {
			return dirIno, filepath.Base(hostSrcPath), nil
		}
	}

	parentPath, name, serr := onimage.SplitParentName(dst)
	if serr != nil {
		return 0, "", adaptErr(serr)
	}
	parentIno, rerr := img.engine.Resolve(parentPath)
	if rerr != nil {
		return 0, "", adaptErr(rerr)
	}
	if !img.engine.ReadInode(parentIno).IsDir() {
		return 0, "", NewError(ErrNotFound)
	}
	return parentIno, name, nil
}
