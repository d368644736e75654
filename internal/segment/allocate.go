package segment

import (
	"time"

	"github.com/znsfs/znsfs/internal/block"
)

// dataBlockHeaderLen mirrors block.dataBlockHeaderLen (tag + content_size)
// without exporting it from the block package.
const dataBlockHeaderLen = 1 + 8

// AllocateNew places a fresh FILE_INODE or DIR_INODE block at the
// segment's current bump-pointer position, drawing a new id from the
// shared counter. Building a FileAttr for the new inode and appending
// it to the parent directory happens in internal/inode, after this
// call returns and its lock is released.
func (s *Segment) AllocateNew(t block.Type, name string) (*block.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t != block.FileInode && t != block.DirInode {
		return nil, errInvalidArgument("AllocateNew requires a FILE_INODE or DIR_INODE type")
	}
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	if s.curSize+uint64(s.lbaSize) >= s.sizeBytes {
		return nil, errNoSpace("segment has no room left for another inode")
	}
	if len(s.inodeMap) >= s.maxInodeMapEntries() {
		return nil, errNoSpace("segment inode map is full")
	}

	id := s.counter.Next()
	b := block.NewInode(t, id, name)
	data, err := block.Serialize(b, s.lbaSize)
	if err != nil {
		return nil, err
	}

	off := s.curSize
	// The fresh block's fields settle before it becomes reachable
	// through s.blocks, so no block lock is needed for them.
	b.SegmentAddr = s.addrStart
	b.GlobalOffset = s.addrStart*uint64(s.lbaSize) + off

	copy(s.buffer[off:off+uint64(len(data))], data)
	s.blocks[off] = b
	s.inodeMap[id] = off
	s.curSize += uint64(len(data))
	s.dirty = true
	s.lastModify = time.Now()

	if err := s.flushRangeLocked(off, off+uint64(len(data))); err != nil {
		return nil, err
	}
	if err := s.flushHeader(); err != nil {
		return nil, err
	}

	s.log.Debugw("segment: allocated inode", "segment", s.index, "inode", id, "type", t, "offset", off)
	return b, nil
}

// AllocateData appends a DIR_DATA or FILE_DATA block owned by inodeID,
// truncating FILE_DATA content to whatever room remains (the caller
// retries the remainder elsewhere) and refusing to split a DIR_DATA
// batch mid-record. Returns the number of content bytes actually
// written.
func (s *Segment) AllocateData(inodeID uint64, b *block.Block) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.Type != block.DirData && b.Type != block.FileData {
		return 0, errInvalidArgument("AllocateData requires a DIR_DATA or FILE_DATA block")
	}
	if err := s.ensureLoadedLocked(); err != nil {
		return 0, err
	}
	inodeOff, ok := s.inodeMap[inodeID]
	if !ok {
		return 0, errNotFound("owning inode not present in this segment")
	}
	if s.sizeBytes-s.curSize < uint64(dataBlockHeaderLen)+1 {
		return 0, errNoSpace("segment has no room left for a data block")
	}

	maxContent := int(s.sizeBytes-s.curSize) - dataBlockHeaderLen

	switch b.Type {
	case block.FileData:
		content := b.FileData.Content
		if len(content) > maxContent {
			content = content[:maxContent]
		}
		b = block.NewFileData(content)
	case block.DirData:
		if len(b.DirData.Entries)*block.FileAttrSize > maxContent {
			return 0, errNoSpace("directory data batch does not fit in remaining segment space")
		}
	}

	data, err := block.Serialize(b, s.lbaSize)
	if err != nil {
		return 0, err
	}

	off := s.curSize
	b.SegmentAddr = s.addrStart
	b.GlobalOffset = s.addrStart*uint64(s.lbaSize) + off

	copy(s.buffer[off:off+uint64(len(data))], data)
	s.blocks[off] = b
	if b.Type == block.DirData {
		for _, fa := range b.DirData.Entries {
			s.indexEntryLocked(fa)
		}
	}

	inodeBlock, err := s.blockAt(inodeOff)
	if err != nil {
		return 0, err
	}
	// Chain traversals snapshot Offsets under the block's read lock
	// without holding s.mu, so the append needs the writer side. The
	// lock is released before flushBlockLocked re-serializes under the
	// read lock.
	inodeBlock.Lock()
	inodeBlock.Inode.Offsets = append(inodeBlock.Inode.Offsets, b.GlobalOffset)
	inodeBlock.Unlock()

	s.curSize += uint64(len(data))
	s.dirty = true
	s.lastModify = time.Now()

	if err := s.flushRangeLocked(off, off+uint64(len(data))); err != nil {
		return 0, err
	}
	if err := s.flushBlockLocked(inodeOff, inodeBlock); err != nil {
		return 0, err
	}

	return len(data) - dataBlockHeaderLen, nil
}
