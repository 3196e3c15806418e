package onimage

import "sync"

// LockManager owns every mutex the engine needs to keep concurrent
// namespace operations race-free: one mutex per inode, one per block, and
// two standalone mutexes guarding the bitmaps (and their paired counters in
// the superblock/group descriptor).
//
// Lock ordering, enforced by convention at every call site in this package,
// never by the manager itself: bitmap lock -> parent inode lock -> block
// lock -> child inode lock. No caller holds both bitmap locks at once, and
// no caller holds two inode locks at once except in the strict
// parent-then-child order a namespace op needs.
type LockManager struct {
	inodeBitmapLock sync.Mutex
	blockBitmapLock sync.Mutex
	inodeLocks      []sync.Mutex
	blockLocks      []sync.Mutex
}

// NewLockManager builds the lock arrays for an image with the given inode
// and block counts. Construction failure has no recovery path in this
// design: a mutex array is a slice allocation, and if that panics (out of
// memory) the process is not in a state where it can safely continue, so
// callers let it propagate as a fatal error during Mount.
func NewLockManager(totalInodes, totalBlocks uint32) *LockManager {
	return &LockManager{
		inodeLocks: make([]sync.Mutex, totalInodes),
		blockLocks: make([]sync.Mutex, totalBlocks),
	}
}

func (lm *LockManager) LockInodeBitmap()   { lm.inodeBitmapLock.Lock() }
func (lm *LockManager) UnlockInodeBitmap() { lm.inodeBitmapLock.Unlock() }
func (lm *LockManager) LockBlockBitmap()   { lm.blockBitmapLock.Lock() }
func (lm *LockManager) UnlockBlockBitmap() { lm.blockBitmapLock.Unlock() }

// LockInode locks the mutex guarding the contents (block pointers, link
// count) of 1-based inode number ino.
func (lm *LockManager) LockInode(ino uint32) {
	lm.inodeLocks[ino-1].Lock()
}

func (lm *LockManager) UnlockInode(ino uint32) {
	lm.inodeLocks[ino-1].Unlock()
}

// LockBlock locks the mutex guarding the bytes of 0-based block number b.
func (lm *LockManager) LockBlock(b uint32) {
	lm.blockLocks[b].Lock()
}

func (lm *LockManager) UnlockBlock(b uint32) {
	lm.blockLocks[b].Unlock()
}
