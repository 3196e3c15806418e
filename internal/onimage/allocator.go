package onimage

// sentinelInode is returned by AllocInode on ENOSPC; 0 is never a valid
// inode number (inode numbers are 1-based) so it doubles as the sentinel.
const sentinelInode = 0

// AllocInode scans the inode bitmap from the reserved floor upward for the
// first free inode, marks it allocated, and decrements both the
// superblock's and the group descriptor's free-inode counters. It returns
// ENOSPC if none are free.
//
// Must be called without holding any other lock: it takes the inode bitmap
// lock itself, first in the lock order.
func (e *Engine) AllocInode() (uint32, *mutatorError) {
	e.Locks.LockInodeBitmap()
	defer e.Locks.UnlockInodeBitmap()

	for i := e.FirstInode - 1; i < e.TotalInodes; i++ {
		if !e.InodeBitmap.Test(int(i)) {
			e.InodeBitmap.Set(int(i))
			e.SB.FreeInodesCount--
			e.GD.FreeInodesCount--
			e.flushSuperblockFreeInodes()
			e.flushGroupDescriptorFreeInodes()
			return i + 1, nil
		}
	}
	return sentinelInode, errNoSpace()
}

// FreeInode clears ino's bit and restores the free-inode counters. The
// caller must have already removed every directory entry and data block
// reference to ino. Freeing an already-free inode is a caller bug and is
// reported as EALREADY rather than silently corrupting the counters,
// mirroring the teacher's Allocator.FreeBlock double-free guard.
func (e *Engine) FreeInode(ino uint32) *mutatorError {
	e.Locks.LockInodeBitmap()
	defer e.Locks.UnlockInodeBitmap()

	if !e.InodeBitmap.Test(int(ino - 1)) {
		return &mutatorError{Code: EALREADY, Message: "inode already free"}
	}
	e.InodeBitmap.Clear(int(ino - 1))
	e.SB.FreeInodesCount++
	e.GD.FreeInodesCount++
	e.flushSuperblockFreeInodes()
	e.flushGroupDescriptorFreeInodes()
	return nil
}

// AllocBlock scans the block bitmap from 0 upward for the first free block,
// marks it allocated, and decrements both free-block counters.
func (e *Engine) AllocBlock() (uint32, *mutatorError) {
	e.Locks.LockBlockBitmap()
	defer e.Locks.UnlockBlockBitmap()

	for b := uint32(0); b < e.TotalBlocks; b++ {
		if !e.BlockBitmap.Test(int(b)) {
			e.BlockBitmap.Set(int(b))
			e.SB.FreeBlocksCount--
			e.GD.FreeBlocksCount--
			e.flushSuperblockFreeBlocks()
			e.flushGroupDescriptorFreeBlocks()
			return b, nil
		}
	}
	return 0, errNoSpace()
}

// FreeBlock clears b's bit and restores the free-block counters. The caller
// must have already cleared any inode pointer referencing b.
func (e *Engine) FreeBlock(b uint32) *mutatorError {
	e.Locks.LockBlockBitmap()
	defer e.Locks.UnlockBlockBitmap()

	if !e.BlockBitmap.Test(int(b)) {
		return &mutatorError{Code: EALREADY, Message: "block already free"}
	}
	e.BlockBitmap.Clear(int(b))
	e.SB.FreeBlocksCount++
	e.GD.FreeBlocksCount++
	e.flushSuperblockFreeBlocks()
	e.flushGroupDescriptorFreeBlocks()
	return nil
}

// IncrementUsedDirs bumps the group descriptor's used-directories counter.
// Called from the directory codec's add-entry path — the commit point for a
// new directory child — under the parent inode's lock, per spec. This
// counter is owned by the parent-inode lock, not either bitmap lock, so it
// gets its own single-field flush rather than sharing one with the bitmap
// counters above.
func (e *Engine) IncrementUsedDirs() {
	e.GD.UsedDirsCount++
	e.flushGroupDescriptorUsedDirs()
}

// mutatorError is a tiny local indirection so this package doesn't import
// the root package (which imports onimage) just to construct errors; the
// root package adapts these into *ext2fsal.MutatorError at its boundary.
type mutatorError struct {
	Code    int
	Message string
}

func (e *mutatorError) Error() string { return e.Message }

func errNoSpace() *mutatorError {
	return &mutatorError{Code: ENOSPC, Message: "no space left on device"}
}

// Mirrors of the root package's errno taxonomy (spec §7), duplicated here
// as plain ints; Errno (errmap.go) maps each of these back to its
// syscall.Errno value one-for-one.
const (
	ENOENT = iota + 1
	EEXIST
	EISDIR
	ENOSPC
	ENAMETOOLONG
	EIO
	EALREADY
)

func errNotFound(msg string) *mutatorError    { return &mutatorError{Code: ENOENT, Message: msg} }
func errExists(msg string) *mutatorError      { return &mutatorError{Code: EEXIST, Message: msg} }
func errIsDirectory(msg string) *mutatorError { return &mutatorError{Code: EISDIR, Message: msg} }
func errNameTooLong(msg string) *mutatorError {
	return &mutatorError{Code: ENAMETOOLONG, Message: msg}
}
func errIO(msg string) *mutatorError { return &mutatorError{Code: EIO, Message: msg} }
