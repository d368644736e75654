package segment

import (
	"time"

	"github.com/znsfs/znsfs/internal/block"
)

// GrowLastDirData appends one more FileAttr directly into the DIR_DATA
// block at in-segment offset off, without allocating a new block, when
// that block is still the last thing allocated in the segment and room
// remains. It reports ok=false (never an error) when the fast path does
// not apply, so internal/inode's DirectoryAppend can fall back to
// allocating a fresh DIR_DATA block via AllocateData.
func (s *Segment) GrowLastDirData(off uint64, fa block.FileAttr) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return false, err
	}

	b, err := s.blockAt(off)
	if err != nil {
		return false, err
	}
	if b.Type != block.DirData {
		return false, errInvalidArgument("GrowLastDirData requires a DIR_DATA block")
	}

	b.RLock()
	curLen := uint64(dataBlockHeaderLen + len(b.DirData.Entries)*block.FileAttrSize)
	b.RUnlock()
	if off+curLen != s.curSize {
		return false, nil // another block was allocated after this one; not growable in place
	}
	if s.sizeBytes-s.curSize < uint64(block.FileAttrSize) {
		return false, nil
	}

	b.Lock()
	b.DirData.Entries = append(b.DirData.Entries, fa)
	b.Unlock()
	s.curSize += uint64(block.FileAttrSize)
	s.dirty = true
	s.lastModify = time.Now()
	s.indexEntryLocked(fa)

	// Re-serialize: the block's in-buffer image still has the old entry
	// count and no trailing record.
	if err := s.flushBlockLocked(off, b); err != nil {
		return false, err
	}
	if err := s.flushHeader(); err != nil {
		return false, err
	}
	return true, nil
}

// GrowLastFileData appends up to len(content) bytes directly into the
// FILE_DATA block at in-segment offset off, under the same "still the
// last block in the segment" condition GrowLastDirData uses. It returns
// the number of bytes actually written (possibly fewer than len(content)
// if the segment fills up) and ok=false if the fast path doesn't apply.
func (s *Segment) GrowLastFileData(off uint64, content []byte) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return 0, false, err
	}

	b, err := s.blockAt(off)
	if err != nil {
		return 0, false, err
	}
	if b.Type != block.FileData {
		return 0, false, errInvalidArgument("GrowLastFileData requires a FILE_DATA block")
	}

	b.RLock()
	curLen := uint64(dataBlockHeaderLen + len(b.FileData.Content))
	b.RUnlock()
	if off+curLen != s.curSize {
		return 0, false, nil
	}
	avail := s.sizeBytes - s.curSize
	if avail == 0 {
		return 0, false, nil
	}

	n := uint64(len(content))
	if n > avail {
		n = avail
	}

	b.Lock()
	b.FileData.Content = append(b.FileData.Content, content[:n]...)
	b.Unlock()
	s.curSize += n
	s.dirty = true
	s.lastModify = time.Now()

	// Re-serialize: the block's in-buffer image still has the old
	// content_size and none of the appended bytes.
	if err := s.flushBlockLocked(off, b); err != nil {
		return 0, false, err
	}
	if err := s.flushHeader(); err != nil {
		return 0, false, err
	}
	return int(n), true, nil
}

// indexEntryLocked records fa's name in nameToInode. Callers must hold s.mu.
func (s *Segment) indexEntryLocked(fa block.FileAttr) {
	s.nameToInode[fa.Name] = fa.InodeID
}
