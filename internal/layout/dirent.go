package layout

// MinRecLen returns the minimum record length for a directory entry with a
// name of the given length: 8 bytes of fixed header plus the name, rounded
// up to a 4-byte boundary.
func MinRecLen(nameLen int) int {
	return align4(DirentHeaderSize + nameLen)
}

func align4(n int) int {
	return (n + DirentAlignment - 1) &^ (DirentAlignment - 1)
}

// DirentView is a cursor onto one variable-length directory entry record
// living inside a directory block's byte range. It does not copy the name;
// Name() slices the backing block.
type DirentView struct {
	block  []byte
	offset int
}

// NewDirentView returns a cursor at the given byte offset within block.
func NewDirentView(block []byte, offset int) DirentView {
	return DirentView{block: block, offset: offset}
}

func (d DirentView) Offset() int { return d.offset }

func (d DirentView) Inode() uint32 {
	return le32(d.block[d.offset:])
}

func (d DirentView) SetInode(n uint32) {
	putLE32(d.block[d.offset:], n)
}

func (d DirentView) RecLen() int {
	return int(le16(d.block[d.offset+4:]))
}

func (d DirentView) SetRecLen(n int) {
	putLE16(d.block[d.offset+4:], uint16(n))
}

func (d DirentView) NameLen() int {
	return int(d.block[d.offset+6])
}

func (d DirentView) FileType() uint8 {
	return d.block[d.offset+7]
}

func (d DirentView) Name() []byte {
	n := d.NameLen()
	start := d.offset + DirentHeaderSize
	return d.block[start : start+n]
}

// WriteHeader stamps the inode/rec_len/name_len/file_type/name fields of the
// entry at this cursor's offset. recLen must be >= MinRecLen(len(name)).
func (d DirentView) WriteHeader(inode uint32, recLen int, fileType uint8, name string) {
	putLE32(d.block[d.offset:], inode)
	putLE16(d.block[d.offset+4:], uint16(recLen))
	d.block[d.offset+6] = byte(len(name))
	d.block[d.offset+7] = fileType
	copy(d.block[d.offset+DirentHeaderSize:], name)
}

// Next returns a cursor onto the entry immediately following this one, and
// whether that cursor is still inside the block (i.e. whether this entry
// was the last one — rec_len reaching the block's end).
func (d DirentView) Next() (DirentView, bool) {
	next := d.offset + d.RecLen()
	if next >= len(d.block) {
		return DirentView{}, false
	}
	return NewDirentView(d.block, next), true
}
