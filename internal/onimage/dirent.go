package onimage

import "github.com/dargueta/ext2fsal/internal/layout"

// tailBlockIndex returns the highest-indexed non-zero direct pointer
// (0..11) in a directory inode, or -1 if none are set yet.
func tailBlockIndex(in *layout.Inode) int {
	last := -1
	for i := 0; i < layout.DirectPointers; i++ {
		if in.Block[i] != 0 {
			last = i
		}
	}
	return last
}

// findLastEntry walks the rec_len chain in block to the entry whose rec_len
// reaches the block's end (spec §4.5 "last-entry detection").
func findLastEntry(block []byte) layout.DirentView {
	v := layout.NewDirentView(block, 0)
	for {
		next, ok := v.Next()
		if !ok {
			return v
		}
		v = next
	}
}

// writeFreshDirEntryBlock builds a single directory entry spanning a whole
// block in a private staging buffer, then commits it in one copy under b's
// lock (via WriteBlock) — the body shared by add-entry's case A (no blocks
// yet) and case C (tail block full, grow). Staging the content before the
// lock is taken keeps the block lock held only for the commit copy, not for
// the field-by-field encoding.
func (e *Engine) writeFreshDirEntryBlock(b uint32, childIno uint32, fileType uint8, name string) {
	staged := make([]byte, layout.BlockSize)
	layout.NewDirentView(staged, 0).WriteHeader(childIno, layout.BlockSize, fileType, name)
	e.WriteBlock(b, staged)
}

// WriteInitialDirBlock stages "." (selfIno) and ".." (parentIno) as a fresh
// block's first two entries in a private buffer, then commits it in one
// copy under b's lock: "." gets the minimum rec_len, ".." absorbs the
// remainder of the block. Used by Mkdir to build a brand new directory's
// sole data block.
func (e *Engine) WriteInitialDirBlock(b uint32, selfIno, parentIno uint32) {
	staged := make([]byte, layout.BlockSize)
	dotLen := layout.MinRecLen(1)
	layout.NewDirentView(staged, 0).WriteHeader(selfIno, dotLen, layout.FileTypeDir, ".")
	layout.NewDirentView(staged, dotLen).WriteHeader(parentIno, layout.BlockSize-dotLen, layout.FileTypeDir, "..")
	e.WriteBlock(b, staged)
}

// AddEntry inserts {name -> childIno, fileType} into the directory named by
// parentIno, following the case A/B/C protocol of spec §4.5. On success, if
// fileType is a directory, the group descriptor's used-directories count is
// bumped here — add-entry is the commit point for a new child, so this is
// the one place that counter changes (spec §4.9 design note).
func (e *Engine) AddEntry(parentIno uint32, name string, childIno uint32, fileType uint8) *mutatorError {
	if len(name) == 0 || len(name) > layout.MaxNameLength {
		return errNameTooLong("component name too long")
	}
	needed := layout.MinRecLen(len(name))

	for {
		e.Locks.LockInode(parentIno)
		parent := e.ReadInode(parentIno)
		tail := tailBlockIndex(parent)

		if tail < 0 {
			// Case A: the directory has no data blocks yet.
			e.Locks.UnlockInode(parentIno)
			blk, err := e.AllocBlock()
			if err != nil {
				return err
			}
			e.Locks.LockInode(parentIno)
			parent = e.ReadInode(parentIno)
			if tailBlockIndex(parent) >= 0 {
				// Lost a race to another inserter; retry from scratch.
				e.Locks.UnlockInode(parentIno)
				e.FreeBlock(blk)
				continue
			}
			e.writeFreshDirEntryBlock(blk, childIno, fileType, name)
			parent.Block[0] = blk
			parent.Size = uint32(layout.BlockSize)
			parent.Blocks += layout.SectorsPerBlock
			layout.WriteInode(e.inodeRaw(parentIno), parent)
			if fileType == layout.FileTypeDir {
				e.IncrementUsedDirs()
			}
			e.Locks.UnlockInode(parentIno)
			return nil
		}

		// Case B: does the tail block have room?
		blockNum := parent.Block[tail]
		e.Locks.LockBlock(blockNum)
		block := e.ReadBlock(blockNum)
		last := findLastEntry(block)
		slack := last.RecLen() - layout.MinRecLen(last.NameLen())
		if slack >= needed {
			last.SetRecLen(layout.MinRecLen(last.NameLen()))
			layout.NewDirentView(block, last.Offset()+last.RecLen()).
				WriteHeader(childIno, slack, fileType, name)
			e.Locks.UnlockBlock(blockNum)
			if fileType == layout.FileTypeDir {
				e.IncrementUsedDirs()
			}
			e.Locks.UnlockInode(parentIno)
			return nil
		}
		e.Locks.UnlockBlock(blockNum)

		// Case C: tail block is full; grow, unless we're out of direct slots.
		if tail == layout.DirectPointers-1 {
			e.Locks.UnlockInode(parentIno)
			return &mutatorError{Code: ENOSPC, Message: "directory has no free direct block slots"}
		}
		e.Locks.UnlockInode(parentIno)
		blk, err := e.AllocBlock()
		if err != nil {
			return err
		}
		e.Locks.LockInode(parentIno)
		parent = e.ReadInode(parentIno)
		if tailBlockIndex(parent) != tail {
			// Directory's tail changed shape under us; retry from scratch.
			e.Locks.UnlockInode(parentIno)
			e.FreeBlock(blk)
			continue
		}
		e.writeFreshDirEntryBlock(blk, childIno, fileType, name)
		parent.Block[tail+1] = blk
		parent.Size = uint32((tail + 2) * layout.BlockSize)
		parent.Blocks += layout.SectorsPerBlock
		layout.WriteInode(e.inodeRaw(parentIno), parent)
		if fileType == layout.FileTypeDir {
			e.IncrementUsedDirs()
		}
		e.Locks.UnlockInode(parentIno)
		return nil
	}
}

// FindEntry looks up name inside the directory named by parentIno. It locks
// each directory block it scans so it's safe to call without the caller
// holding any lock of its own.
func (e *Engine) FindEntry(parentIno uint32, name string) (uint32, bool) {
	parent := e.ReadInode(parentIno)
	for _, blockNum := range parent.Block {
		if blockNum == 0 {
			continue
		}
		e.Locks.LockBlock(blockNum)
		ino, found := scanBlockForName(e.ReadBlock(blockNum), name)
		e.Locks.UnlockBlock(blockNum)
		if found {
			return ino, true
		}
	}
	return 0, false
}

func scanBlockForName(block []byte, name string) (uint32, bool) {
	v := layout.NewDirentView(block, 0)
	for {
		if v.Inode() != 0 && v.NameLen() == len(name) && string(v.Name()) == name {
			return v.Inode(), true
		}
		next, ok := v.Next()
		if !ok {
			return 0, false
		}
		v = next
	}
}

// RemoveEntry splices the entry named name out of the directory named by
// parentIno, matching by name (never by inode number, so that removing one
// hard link's name leaves every other name referencing the same inode
// intact). It locks the parent inode for the whole scan-then-splice so a
// concurrent Unlink can't act on a stale view of the directory.
func (e *Engine) RemoveEntry(parentIno uint32, name string) (uint32, *mutatorError) {
	e.Locks.LockInode(parentIno)
	defer e.Locks.UnlockInode(parentIno)

	parent := e.ReadInode(parentIno)
	for _, blockNum := range parent.Block {
		if blockNum == 0 {
			continue
		}
		e.Locks.LockBlock(blockNum)
		block := e.ReadBlock(blockNum)
		childIno, removed := spliceEntry(block, name)
		e.Locks.UnlockBlock(blockNum)
		if removed {
			return childIno, nil
		}
	}
	return 0, errNotFound("directory entry not found")
}

func spliceEntry(block []byte, name string) (uint32, bool) {
	var prev layout.DirentView
	havePrev := false
	v := layout.NewDirentView(block, 0)
	for {
		if v.Inode() != 0 && v.NameLen() == len(name) && string(v.Name()) == name {
			childIno := v.Inode()
			if havePrev {
				prev.SetRecLen(prev.RecLen() + v.RecLen())
			} else {
				v.SetInode(0)
			}
			return childIno, true
		}
		next, ok := v.Next()
		if !ok {
			return 0, false
		}
		prev = v
		havePrev = true
		v = next
	}
}
