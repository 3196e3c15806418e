package onimage

import "github.com/dargueta/ext2fsal/internal/layout"

// AdjustLinkCount changes ino's link count by delta under ino's own lock and
// returns the new value. Used by the directory codec's caller whenever a
// name is added or removed pointing at an existing inode: Mkdir bumps the
// parent by one for the child's "..", LinkHard bumps the target by one, and
// Unlink drops the target by one (spec §4.8).
func (e *Engine) AdjustLinkCount(ino uint32, delta int) uint16 {
	e.Locks.LockInode(ino)
	defer e.Locks.UnlockInode(ino)

	in := e.ReadInode(ino)
	in.LinksCount = uint16(int(in.LinksCount) + delta)
	layout.WriteInode(e.inodeRaw(ino), in)
	return in.LinksCount
}
