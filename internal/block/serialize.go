package block

import (
	"encoding/binary"

	"github.com/znsfs/znsfs/pkg/errors"
)

// inodeHeaderLen is the byte length of an inode block's fixed header
// before its offsets list: tag(1) + next(8) + prev(8) + id(8).
const inodeHeaderLen = 1 + 8 + 8 + 8

// dirNameFieldLen is the byte length of a DIR_INODE's name field: a
// one-byte length prefix plus the fixed MaxNameLength bytes.
const dirNameFieldLen = 1 + MaxNameLength

// dataBlockHeaderLen is the byte length of a DIR_DATA/FILE_DATA block's
// header: tag(1) + content_size(8), preceding the variant body.
const dataBlockHeaderLen = 1 + 8

// Serialize encodes b into a byte slice. FILE_INODE and DIR_INODE
// blocks are padded to exactly lbaSize bytes; DIR_DATA and FILE_DATA
// are length-prefixed and not LBA-aligned.
func Serialize(b *Block, lbaSize uint32) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	switch b.Type {
	case FileInode, DirInode:
		return serializeInode(b, lbaSize)
	case DirData:
		return serializeDirData(b), nil
	case FileData:
		return serializeFileData(b), nil
	default:
		return nil, errCorruption("cannot serialize block with unknown type")
	}
}

func serializeInode(b *Block, lbaSize uint32) ([]byte, error) {
	header := inodeHeaderLen
	if b.Type == DirInode {
		header += dirNameFieldLen
	}

	if uint32(header+8) > lbaSize {
		return nil, errCorruption("LBA size too small to hold an inode header")
	}

	out := make([]byte, lbaSize)
	out[0] = typeTagByte(b.Type)
	binary.LittleEndian.PutUint64(out[1:9], b.Inode.Next)
	binary.LittleEndian.PutUint64(out[9:17], b.Inode.Prev)
	binary.LittleEndian.PutUint64(out[17:25], b.Inode.ID)

	pos := inodeHeaderLen
	if b.Type == DirInode {
		if len(b.Inode.Name) > MaxNameLength {
			return nil, errNameTooLong(b.Inode.Name)
		}
		out[pos] = byte(len(b.Inode.Name))
		copy(out[pos+1:pos+1+len(b.Inode.Name)], b.Inode.Name)
		pos += dirNameFieldLen
	}

	maxOffsets := (int(lbaSize)-pos)/8 - 1
	if maxOffsets < 0 {
		maxOffsets = 0
	}
	if len(b.Inode.Offsets) > maxOffsets {
		return nil, errCorruption("inode owns more data blocks than fit in one LBA-sized record")
	}

	for _, off := range b.Inode.Offsets {
		binary.LittleEndian.PutUint64(out[pos:pos+8], off)
		pos += 8
	}
	// Zero-terminator: the buffer is already zero-initialized at pos.

	return out, nil
}

func serializeDirData(b *Block) []byte {
	out := make([]byte, dataBlockHeaderLen+len(b.DirData.Entries)*FileAttrSize)
	out[0] = typeTagByte(DirData)
	binary.LittleEndian.PutUint64(out[1:9], uint64(len(b.DirData.Entries)*FileAttrSize))
	pos := dataBlockHeaderLen
	for _, fa := range b.DirData.Entries {
		fa.serializeInto(out[pos : pos+FileAttrSize])
		pos += FileAttrSize
	}
	return out
}

func serializeFileData(b *Block) []byte {
	out := make([]byte, dataBlockHeaderLen+len(b.FileData.Content))
	out[0] = typeTagByte(FileData)
	binary.LittleEndian.PutUint64(out[1:9], uint64(len(b.FileData.Content)))
	copy(out[dataBlockHeaderLen:], b.FileData.Content)
	return out
}

// Deserialize decodes a block from raw bytes. The caller supplies exactly
// the bytes belonging to the block: lbaSize bytes for inode types, or
// dataBlockHeaderLen+content_size bytes for DIR_DATA/FILE_DATA (ActualSize
// of a previously-read header tells the caller how much more to read).
func Deserialize(data []byte) (*Block, error) {
	if len(data) == 0 {
		return nil, errCorruption("empty block buffer")
	}

	t := typeFromTagByte(data[0])
	switch t {
	case FileInode, DirInode:
		return deserializeInode(t, data)
	case DirData:
		return deserializeDirData(data)
	case FileData:
		return deserializeFileData(data)
	default:
		return nil, errCorruption("unknown block type tag on read")
	}
}

func deserializeInode(t Type, data []byte) (*Block, error) {
	if len(data) < inodeHeaderLen {
		return nil, errCorruption("truncated inode header")
	}

	body := &InodeBody{
		Next: binary.LittleEndian.Uint64(data[1:9]),
		Prev: binary.LittleEndian.Uint64(data[9:17]),
		ID:   binary.LittleEndian.Uint64(data[17:25]),
	}

	pos := inodeHeaderLen
	if t == DirInode {
		if len(data) < pos+dirNameFieldLen {
			return nil, errCorruption("truncated directory inode name field")
		}
		nameLen := int(data[pos])
		if nameLen > MaxNameLength {
			return nil, errCorruption("directory inode name length prefix exceeds field width")
		}
		body.Name = string(data[pos+1 : pos+1+nameLen])
		pos += dirNameFieldLen
	}

	for pos+8 <= len(data) {
		off := binary.LittleEndian.Uint64(data[pos : pos+8])
		pos += 8
		if off == 0 {
			break
		}
		body.Offsets = append(body.Offsets, off)
	}

	return &Block{Type: t, ID: body.ID, Loaded: true, Inode: body}, nil
}

func deserializeDirData(data []byte) (*Block, error) {
	if len(data) < dataBlockHeaderLen {
		return nil, errCorruption("truncated directory data length prefix")
	}
	size := binary.LittleEndian.Uint64(data[1:9])
	if uint64(len(data)) < uint64(dataBlockHeaderLen)+size {
		return nil, errCorruption("truncated directory data body")
	}
	if size%FileAttrSize != 0 {
		return nil, errCorruption("directory data size is not a multiple of the FileAttr record size")
	}

	count := int(size) / FileAttrSize
	entries := make([]FileAttr, 0, count)
	pos := dataBlockHeaderLen
	for i := 0; i < count; i++ {
		fa, err := deserializeFileAttr(data[pos : pos+FileAttrSize])
		if err != nil {
			return nil, err
		}
		entries = append(entries, fa)
		pos += FileAttrSize
	}

	return &Block{Type: DirData, Loaded: true, DirData: &DirDataBody{Entries: entries}}, nil
}

func deserializeFileData(data []byte) (*Block, error) {
	if len(data) < dataBlockHeaderLen {
		return nil, errCorruption("truncated file data length prefix")
	}
	size := binary.LittleEndian.Uint64(data[1:9])
	if uint64(len(data)) < uint64(dataBlockHeaderLen)+size {
		return nil, errCorruption("truncated file data body")
	}

	content := make([]byte, size)
	copy(content, data[dataBlockHeaderLen:uint64(dataBlockHeaderLen)+size])
	return &Block{Type: FileData, Loaded: true, FileData: &FileDataBody{Content: content}}, nil
}

// ActualSize returns the number of bytes b currently occupies on media.
func ActualSize(b *Block, lbaSize uint32) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	switch b.Type {
	case FileInode, DirInode:
		return int(lbaSize)
	case DirData:
		return dataBlockHeaderLen + len(b.DirData.Entries)*FileAttrSize
	case FileData:
		return dataBlockHeaderLen + len(b.FileData.Content)
	default:
		return 0
	}
}

func errCorruption(msg string) error {
	return errors.NewSegmentError(nil, errors.ErrorCodeCorruption, msg)
}

func errNameTooLong(name string) error {
	return errors.NewNameTooLongError(name, MaxNameLength)
}
