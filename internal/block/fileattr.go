package block

import "encoding/binary"

// isDirBit is the high bit of FileAttr.Size, holding the is-directory
// flag so the field can be read back with a single u64 load.
const isDirBit uint64 = 1 << 63

// FileAttr is the fixed-size directory-entry record: a name, its child
// inode's global offset and id, and the attributes needed to answer a
// stat without resolving the child inode.
type FileAttr struct {
	Name       string
	Size       uint64
	CreateTime uint64
	IsDir      bool
	Offset     uint64 // global offset of the child inode
	InodeID    uint64
}

// serializeInto writes fa into exactly FileAttrSize bytes of dst.
func (fa FileAttr) serializeInto(dst []byte) {
	if len(fa.Name) > MaxNameLength {
		panic("block: FileAttr name exceeds MaxNameLength")
	}

	dst[0] = byte(len(fa.Name))
	copy(dst[1:1+len(fa.Name)], fa.Name)

	pos := 1 + MaxNameLength
	size := fa.Size
	if fa.IsDir {
		size |= isDirBit
	}
	binary.LittleEndian.PutUint64(dst[pos:pos+8], size)
	binary.LittleEndian.PutUint64(dst[pos+8:pos+16], fa.CreateTime)
	binary.LittleEndian.PutUint64(dst[pos+16:pos+24], fa.Offset)
	binary.LittleEndian.PutUint64(dst[pos+24:pos+32], fa.InodeID)
}

func deserializeFileAttr(src []byte) (FileAttr, error) {
	if len(src) != FileAttrSize {
		return FileAttr{}, errCorruption("malformed FileAttr record length")
	}

	nameLen := int(src[0])
	if nameLen > MaxNameLength {
		return FileAttr{}, errCorruption("FileAttr name length prefix exceeds field width")
	}

	pos := 1 + MaxNameLength
	rawSize := binary.LittleEndian.Uint64(src[pos : pos+8])

	return FileAttr{
		Name:       string(src[1 : 1+nameLen]),
		Size:       rawSize &^ isDirBit,
		IsDir:      rawSize&isDirBit != 0,
		CreateTime: binary.LittleEndian.Uint64(src[pos+8 : pos+16]),
		Offset:     binary.LittleEndian.Uint64(src[pos+16 : pos+24]),
		InodeID:    binary.LittleEndian.Uint64(src[pos+24 : pos+32]),
	}, nil
}
