package segment

import (
	"time"

	"github.com/znsfs/znsfs/internal/block"
)

// RenameEntry rewrites a FileAttr's Name in place within the DIR_DATA
// block at in-segment offset dataOff. Every FileAttr record occupies a
// fixed FileAttrSize regardless of the actual name length, so the
// rewrite never changes the block's total size and no relocation is
// required.
func (s *Segment) RenameEntry(dataOff uint64, oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(newName) > block.MaxNameLength {
		return errInvalidArgument("renamed entry exceeds the maximum name length")
	}
	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}

	b, err := s.blockAt(dataOff)
	if err != nil {
		return err
	}
	if b.Type != block.DirData {
		return errInvalidArgument("RenameEntry requires a DIR_DATA block")
	}

	b.Lock()
	found := false
	for i := range b.DirData.Entries {
		if b.DirData.Entries[i].Name == oldName {
			b.DirData.Entries[i].Name = newName
			found = true
			break
		}
	}
	b.Unlock()
	if !found {
		return errNotFound("directory entry not present in the given data block")
	}

	if id, ok := s.nameToInode[oldName]; ok {
		delete(s.nameToInode, oldName)
		s.nameToInode[newName] = id
	}

	s.dirty = true
	s.lastModify = time.Now()
	return s.flushBlockLocked(dataOff, b)
}
