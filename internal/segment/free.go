package segment

import "time"

// FreeInode removes an inode's entry from this segment's inode map and
// header. The chain-wide walk that visits every inode in a file's or
// directory's next-chain lives in internal/inode, which calls FreeInode
// once per segment a chain link resides in. The inode's data blocks are
// left in place; they become unreachable and are reclaimed the next
// time OnGC repacks this segment.
func (s *Segment) FreeInode(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}

	off, ok := s.inodeMap[id]
	if !ok {
		return errNotFound("inode not present in this segment's inode map")
	}

	delete(s.inodeMap, id)
	delete(s.blocks, off)
	for name, inodeID := range s.nameToInode {
		if inodeID == id {
			delete(s.nameToInode, name)
		}
	}

	s.dirty = true
	s.lastModify = time.Now()
	return s.flushHeader()
}
