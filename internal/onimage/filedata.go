package onimage

import (
	"encoding/binary"
	"io"

	"github.com/dargueta/ext2fsal/internal/layout"
	"github.com/hashicorp/go-multierror"
	"github.com/noxer/bytewriter"
)

// WriteFileData streams up to size bytes from src into a fresh inode's
// direct and single-indirect blocks, per spec §4.7. It returns the inode
// record to be written (size/blocks/pointers populated) along with every
// block number it allocated along the way — including on failure, so the
// caller can free them (this function never unwinds its own partial work;
// that's the namespace op's job, per spec §7).
//
// Each block is read into a private buffer and only committed to the image
// under that block's lock (WriteBlock), so no core lock is ever held across
// a blocking read from src.
func (e *Engine) WriteFileData(src io.Reader, size int64) (*layout.Inode, []uint32, *mutatorError) {
	in := &layout.Inode{}
	var allocated []uint32
	var written uint32
	remaining := size

	buf := make([]byte, layout.BlockSize)
	readBlock := func() *mutatorError {
		n, err := io.ReadFull(src, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return errIO(err.Error())
		}
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		return nil
	}
	shrink := func() {
		remaining -= layout.BlockSize
		if remaining < 0 {
			remaining = 0
		}
	}

	for i := 0; i < layout.DirectPointers && remaining > 0; i++ {
		blk, aerr := e.AllocBlock()
		if aerr != nil {
			return in, allocated, aerr
		}
		allocated = append(allocated, blk)

		if rerr := readBlock(); rerr != nil {
			return in, allocated, rerr
		}
		e.WriteBlock(blk, buf)
		in.Block[i] = blk
		written++
		shrink()
	}

	if remaining > 0 {
		indirectBlock, aerr := e.AllocBlock()
		if aerr != nil {
			return in, allocated, aerr
		}
		allocated = append(allocated, indirectBlock)

		ptrBuf := make([]byte, layout.BlockSize)
		w := bytewriter.New(ptrBuf)
		var numBuf [4]byte

		for slot := 0; slot < layout.PointersPerIndirect && remaining > 0; slot++ {
			blk, aerr := e.AllocBlock()
			if aerr != nil {
				return in, allocated, aerr
			}
			allocated = append(allocated, blk)

			if rerr := readBlock(); rerr != nil {
				return in, allocated, rerr
			}
			e.WriteBlock(blk, buf)

			binary.LittleEndian.PutUint32(numBuf[:], blk)
			_, _ = w.Write(numBuf[:])
			written++
			shrink()
		}

		e.WriteBlock(indirectBlock, ptrBuf)
		in.Block[layout.IndirectPointerIndex] = indirectBlock
	}

	in.Size = uint32(size)
	in.Blocks = written * layout.SectorsPerBlock
	return in, allocated, nil
}

// FreeInodeBlocks frees every data block referenced by inode ino (direct
// and single-indirect) and zeroes its size/block-count/pointer fields.
//
// The pointer array is cleared while holding ino's lock (spec §4.7), but
// the actual FreeBlock calls happen after that lock is released: FreeBlock
// takes the block bitmap lock, and the lock order (bitmap < inode) forbids
// acquiring the bitmap lock while an inode lock is held.
//
// A given block can only be freed here once (each appears in toFree at most
// once), so a FreeBlock failure means the bitmap was already corrupt before
// this call, not a bug in this function. Errors are still aggregated rather
// than ignored, so a caller rolling back a partially-built inode can see
// exactly which blocks didn't come free.
func (e *Engine) FreeInodeBlocks(ino uint32) error {
	e.Locks.LockInode(ino)
	in := e.ReadInode(ino)

	var toFree []uint32
	for i := 0; i < layout.DirectPointers; i++ {
		if in.Block[i] != 0 {
			toFree = append(toFree, in.Block[i])
		}
	}
	if indirect := in.Block[layout.IndirectPointerIndex]; indirect != 0 {
		ptrBlock := e.ReadBlock(indirect)
		for off := 0; off < layout.BlockSize; off += 4 {
			if p := binary.LittleEndian.Uint32(ptrBlock[off:]); p != 0 {
				toFree = append(toFree, p)
			}
		}
		toFree = append(toFree, indirect)
	}

	for i := range in.Block {
		in.Block[i] = 0
	}
	in.Size = 0
	in.Blocks = 0
	layout.WriteInode(e.inodeRaw(ino), in)
	e.Locks.UnlockInode(ino)

	var result error
	for _, b := range toFree {
		if ferr := e.FreeBlock(b); ferr != nil {
			result = multierror.Append(result, ferr)
		}
	}
	return result
}
