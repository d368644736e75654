package segment

import "time"

// NeighborPatcher lets OnGC fix up a chain neighbor living in a different
// segment once this segment relocates one of its own inodes during
// compaction. internal/filesystem implements it over its segment cache;
// internal/segment never imports that package, avoiding an import cycle.
type NeighborPatcher interface {
	SetNext(neighborGlobalOffset, newValue uint64) error
	SetPrev(neighborGlobalOffset, newValue uint64) error
}

// SetInodeNext patches the Next pointer of the inode at in-segment offset
// localOffset and flushes it.
func (s *Segment) SetInodeNext(localOffset, newValue uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setInodeLinkLocked(localOffset, newValue, true)
}

// SetInodePrev patches the Prev pointer of the inode at in-segment offset
// localOffset and flushes it.
func (s *Segment) SetInodePrev(localOffset, newValue uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setInodeLinkLocked(localOffset, newValue, false)
}

func (s *Segment) setInodeLinkLocked(localOffset, newValue uint64, next bool) error {
	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}
	b, err := s.blockAt(localOffset)
	if err != nil {
		return err
	}
	if b.Inode == nil {
		return errInvalidArgument("target block is not an inode")
	}
	b.Lock()
	if next {
		b.Inode.Next = newValue
	} else {
		b.Inode.Prev = newValue
	}
	b.Unlock()
	s.dirty = true
	s.lastModify = time.Now()
	return s.flushBlockLocked(localOffset, b)
}
