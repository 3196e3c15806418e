package onimage

import (
	"github.com/dargueta/ext2fsal/internal/layout"
)

// Engine holds every pointer the mutator needs into a mounted image's
// backing bytes: the superblock, group descriptor, both bitmaps, and the
// inode table, plus the lock manager that serializes access to them. It has
// no notion of an open file descriptor or an mmap handle — the root package
// owns those and hands Engine a plain byte slice.
type Engine struct {
	Data []byte // the entire mapped image

	SB *layout.Superblock
	GD *layout.GroupDescriptor

	sbBlock []byte // raw bytes backing SB, for write-back
	gdBlock []byte // raw bytes backing GD, for write-back

	InodeBitmap Bits
	BlockBitmap Bits
	InodeTable  []byte

	TotalInodes uint32
	TotalBlocks uint32
	FirstInode  uint32 // reserved-inode floor: lowest allocatable inode number

	Locks *LockManager
}

// New wires an Engine up from a freshly mmap'd image. It assumes the image
// was already formatted: the superblock and group descriptor are read as-is
// and trusted.
func New(data []byte) *Engine {
	sbBlock := blockSlice(data, layout.SuperblockBlockNum)
	gdBlock := blockSlice(data, layout.GroupDescBlockNum)

	sb := layout.ReadSuperblock(sbBlock)
	gd := layout.ReadGroupDescriptor(gdBlock)

	e := &Engine{
		Data:        data,
		SB:          sb,
		GD:          gd,
		sbBlock:     sbBlock,
		gdBlock:     gdBlock,
		InodeBitmap: WrapBits(blockSlice(data, gd.InodeBitmapBlock)),
		BlockBitmap: WrapBits(blockSlice(data, gd.BlockBitmapBlock)),
		InodeTable:  data[int(gd.InodeTableBlock)*layout.BlockSize:],
		TotalInodes: sb.InodesCount,
		TotalBlocks: sb.BlocksCount,
		FirstInode:  sb.FirstInode,
	}
	e.Locks = NewLockManager(e.TotalInodes, e.TotalBlocks)
	return e
}

func blockSlice(data []byte, blockNum uint32) []byte {
	start := int(blockNum) * layout.BlockSize
	return data[start : start+layout.BlockSize]
}

// BlockAt returns the byte range for 0-based block number b.
func (e *Engine) BlockAt(b uint32) []byte {
	return blockSlice(e.Data, b)
}

// flushSuperblockFreeInodes and its siblings below re-encode exactly one
// counter field back into the superblock/group-descriptor's backing bytes.
// SB and GD are shared across every lock in the engine, so a whole-struct
// flush would re-serialize fields owned by a lock the caller isn't holding
// — a data race against whichever goroutine is concurrently updating that
// other field under its own lock. Each of these touches only the bytes of
// the one counter the caller's lock actually owns (spec §5).
func (e *Engine) flushSuperblockFreeInodes() {
	layout.WriteSuperblockFreeInodesCount(e.sbBlock, e.SB.FreeInodesCount)
}

func (e *Engine) flushSuperblockFreeBlocks() {
	layout.WriteSuperblockFreeBlocksCount(e.sbBlock, e.SB.FreeBlocksCount)
}

func (e *Engine) flushGroupDescriptorFreeInodes() {
	layout.WriteGroupDescriptorFreeInodesCount(e.gdBlock, e.GD.FreeInodesCount)
}

func (e *Engine) flushGroupDescriptorFreeBlocks() {
	layout.WriteGroupDescriptorFreeBlocksCount(e.gdBlock, e.GD.FreeBlocksCount)
}

func (e *Engine) flushGroupDescriptorUsedDirs() {
	layout.WriteGroupDescriptorUsedDirsCount(e.gdBlock, e.GD.UsedDirsCount)
}
