package onimage

import "github.com/dargueta/ext2fsal/internal/layout"

// inodeRaw returns the 128-byte raw record for 1-based inode number ino.
// Reads are unlocked: callers needing a consistent view acquire the inode
// lock themselves (see spec §4.4).
func (e *Engine) inodeRaw(ino uint32) []byte {
	off := int(ino-1) * layout.InodeRecordSize
	return e.InodeTable[off : off+layout.InodeRecordSize]
}

// ReadInode decodes inode number ino without taking any lock.
func (e *Engine) ReadInode(ino uint32) *layout.Inode {
	return layout.ReadInode(e.inodeRaw(ino))
}

// WriteInode copies in into the inode table under ino's lock.
func (e *Engine) WriteInode(ino uint32, in *layout.Inode) {
	e.Locks.LockInode(ino)
	defer e.Locks.UnlockInode(ino)
	layout.WriteInode(e.inodeRaw(ino), in)
}

// ReadBlock returns the raw byte range for 0-based block number b, unlocked.
func (e *Engine) ReadBlock(b uint32) []byte {
	return e.BlockAt(b)
}

// WriteBlock copies src (exactly one block's worth of bytes) into block b
// under b's lock.
func (e *Engine) WriteBlock(b uint32, src []byte) {
	e.Locks.LockBlock(b)
	defer e.Locks.UnlockBlock(b)
	copy(e.BlockAt(b), src)
}

// ZeroBlock clears block b's bytes to zero under b's lock.
func (e *Engine) ZeroBlock(b uint32) {
	e.Locks.LockBlock(b)
	defer e.Locks.UnlockBlock(b)
	dst := e.BlockAt(b)
	for i := range dst {
		dst[i] = 0
	}
}
