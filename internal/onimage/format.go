package onimage

import "github.com/dargueta/ext2fsal/internal/layout"

// Format lays out a fresh, minimal single-group ext2 image in memory:
// superblock, group descriptor, both bitmaps, an inode table sized for
// totalInodes, and the root directory's sole data block, with every
// metadata block's bit already marked used. It is test-fixture support —
// this package's own contract starts from an already-formatted image (spec
// §1 treats the format as a given external contract) — grounded on the
// teacher's own from-scratch image builder (formattingdriver.go's Format),
// adapted from that driver's layout to ext2's.
//
// firstInode is the reserved-inode floor (spec boundary scenario S1 uses 3
// on a 32-inode image); totalBlocks must be large enough to hold the
// metadata and at least one data block.
func Format(totalBlocks, totalInodes, firstInode uint32) []byte {
	data := make([]byte, int(totalBlocks)*layout.BlockSize)

	inodeTableBlocks := (totalInodes*layout.InodeRecordSize + layout.BlockSize - 1) / layout.BlockSize
	blockBitmapBlock := uint32(3)
	inodeBitmapBlock := uint32(4)
	inodeTableBlock := uint32(5)
	rootDataBlock := inodeTableBlock + inodeTableBlocks

	sb := &layout.Superblock{
		InodesCount:     totalInodes,
		BlocksCount:     totalBlocks,
		FreeBlocksCount: totalBlocks - (rootDataBlock + 1),
		FreeInodesCount: totalInodes - 2, // bad-blocks and root inodes are pre-allocated
		FirstDataBlock:  1,
		BlocksPerGroup:  totalBlocks,
		InodesPerGroup:  totalInodes,
		Magic:           layout.Ext2Magic,
		RevLevel:        0,
		FirstInode:      firstInode,
	}
	layout.WriteSuperblock(data[layout.SuperblockBlockNum*layout.BlockSize:], sb)

	gd := &layout.GroupDescriptor{
		BlockBitmapBlock: blockBitmapBlock,
		InodeBitmapBlock: inodeBitmapBlock,
		InodeTableBlock:  inodeTableBlock,
		FreeBlocksCount:  sb.FreeBlocksCount,
		FreeInodesCount:  sb.FreeInodesCount,
		UsedDirsCount:    1, // root
	}
	layout.WriteGroupDescriptor(data[layout.GroupDescBlockNum*layout.BlockSize:], gd)

	blockBits := WrapBits(data[int(blockBitmapBlock)*layout.BlockSize : int(blockBitmapBlock+1)*layout.BlockSize])
	for b := uint32(0); b <= rootDataBlock; b++ {
		blockBits.Set(int(b))
	}

	inodeBits := WrapBits(data[int(inodeBitmapBlock)*layout.BlockSize : int(inodeBitmapBlock+1)*layout.BlockSize])
	inodeBits.Set(int(layout.BadBlocksInodeNum - 1))
	inodeBits.Set(int(layout.RootInodeNum - 1))

	inodeTable := data[int(inodeTableBlock)*layout.BlockSize:]
	rootInode := &layout.Inode{
		Mode:       layout.ModeDir | 0o755,
		LinksCount: 2,
		Size:       layout.BlockSize,
		Blocks:     layout.SectorsPerBlock,
	}
	rootInode.Block[0] = rootDataBlock
	rootOff := int(layout.RootInodeNum-1) * layout.InodeRecordSize
	layout.WriteInode(inodeTable[rootOff:rootOff+layout.InodeRecordSize], rootInode)

	rootBlock := data[int(rootDataBlock)*layout.BlockSize : int(rootDataBlock+1)*layout.BlockSize]
	dotLen := layout.MinRecLen(1)
	layout.NewDirentView(rootBlock, 0).WriteHeader(layout.RootInodeNum, dotLen, layout.FileTypeDir, ".")
	layout.NewDirentView(rootBlock, dotLen).WriteHeader(layout.RootInodeNum, layout.BlockSize-dotLen, layout.FileTypeDir, "..")

	return data
}
