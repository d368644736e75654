package inode

import "github.com/znsfs/znsfs/internal/block"

// DirectoryLookUp walks head's DIR_DATA blocks — and, if the name isn't
// found there, every inode in head's Next chain — looking for an entry
// named name, returning the resolved child inode block.
func DirectoryLookUp(cache Cache, head *block.Block, name string) (*block.Block, error) {
	cur := head
	for cur != nil {
		cur.RLock()
		if cur.Type != block.DirInode {
			cur.RUnlock()
			return nil, errNotADirectory()
		}
		offsets := append([]uint64(nil), cur.Inode.Offsets...)
		nextOff := cur.Inode.Next
		cur.RUnlock()

		for _, off := range offsets {
			fa, ok, err := lookupEntry(cache, off, name)
			if err != nil {
				return nil, err
			}
			if ok {
				return resolveChildInode(cache, fa)
			}
		}

		if nextOff == 0 {
			break
		}
		next, err := resolveBlock(cache, nextOff)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return nil, errNotFound("directory entry not found")
}

// ReadChildren collects every entry name across head's chain of DIR_DATA
// blocks, in encounter order.
func ReadChildren(cache Cache, head *block.Block) ([]string, error) {
	var names []string

	cur := head
	for cur != nil {
		cur.RLock()
		if cur.Type != block.DirInode {
			cur.RUnlock()
			return nil, errNotADirectory()
		}
		offsets := append([]uint64(nil), cur.Inode.Offsets...)
		nextOff := cur.Inode.Next
		cur.RUnlock()

		for _, off := range offsets {
			db, err := resolveBlock(cache, off)
			if err != nil {
				return nil, err
			}
			db.RLock()
			for _, fa := range db.DirData.Entries {
				if fa.Name == "" {
					continue
				}
				names = append(names, fa.Name)
			}
			db.RUnlock()
		}

		if nextOff == 0 {
			break
		}
		next, err := resolveBlock(cache, nextOff)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	return names, nil
}

// Free walks head's entire Next chain and removes each inode from its
// owning segment's inode map. The data blocks an inode owned are left
// in place; they become unreachable garbage that the owning segment's
// next OnGC pass reclaims.
func Free(cache Cache, head *block.Block) error {
	cur := head
	for cur != nil {
		cur.RLock()
		id := cur.ID
		segAddr := cur.SegmentAddr
		nextOff := cur.Inode.Next
		cur.RUnlock()

		seg, err := cache.SegmentAt(segAddr)
		if err != nil {
			return err
		}
		if err := seg.FreeInode(id); err != nil {
			return err
		}

		if nextOff == 0 {
			break
		}
		next, err := resolveBlock(cache, nextOff)
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

// LookupAttr returns the raw directory entry named name from head's
// chain of DIR_DATA blocks, without resolving the child inode it points
// to.
func LookupAttr(cache Cache, head *block.Block, name string) (block.FileAttr, error) {
	cur := head
	for cur != nil {
		cur.RLock()
		if cur.Type != block.DirInode {
			cur.RUnlock()
			return block.FileAttr{}, errNotADirectory()
		}
		offsets := append([]uint64(nil), cur.Inode.Offsets...)
		nextOff := cur.Inode.Next
		cur.RUnlock()

		for _, off := range offsets {
			fa, ok, err := lookupEntry(cache, off, name)
			if err != nil {
				return block.FileAttr{}, err
			}
			if ok {
				return fa, nil
			}
		}

		if nextOff == 0 {
			break
		}
		next, err := resolveBlock(cache, nextOff)
		if err != nil {
			return block.FileAttr{}, err
		}
		cur = next
	}
	return block.FileAttr{}, errNotFound("directory entry not found")
}

// resolveChildInode resolves a directory entry to its child inode. The
// entry's Offset records where the inode sat when the entry was
// written; a later compaction of the child's segment may have moved it.
// Inodes never leave their segment, so the stored offset still
// identifies the owning segment, and that segment's inode map gives the
// current offset by id — a stale entry self-heals here instead of
// resolving to whatever bytes now occupy the old offset.
func resolveChildInode(cache Cache, fa block.FileAttr) (*block.Block, error) {
	seg, err := cache.SegmentForOffset(fa.Offset)
	if err != nil {
		return nil, err
	}
	off, ok := seg.InodeOffset(fa.InodeID)
	if !ok {
		return nil, errNotFound("directory entry points to a freed inode")
	}
	return seg.BlockAt(off)
}

// lookupEntry resolves the DIR_DATA block at global offset off and
// returns the FileAttr named name within it, if present.
func lookupEntry(cache Cache, off uint64, name string) (block.FileAttr, bool, error) {
	db, err := resolveBlock(cache, off)
	if err != nil {
		return block.FileAttr{}, false, err
	}
	db.RLock()
	defer db.RUnlock()
	for _, fa := range db.DirData.Entries {
		if fa.Name != "" && fa.Name == name {
			return fa, true, nil
		}
	}
	return block.FileAttr{}, false, nil
}

// spliceNext links a freshly allocated inode onto cur's chain as its
// Next, and cur as the new inode's Prev, persisting both sides. The
// pointer writes happen inside each segment's SetInode* call, under
// that segment's lock.
func spliceNext(curSeg segmentLike, cur *block.Block, nextSeg segmentLike, next *block.Block) error {
	curLocal, ok := curSeg.Owns(cur.GlobalOffset)
	if !ok {
		return errCorruption("splice: cur does not belong to its own segment")
	}
	nextLocal, ok := nextSeg.Owns(next.GlobalOffset)
	if !ok {
		return errCorruption("splice: next does not belong to its own segment")
	}

	if err := curSeg.SetInodeNext(curLocal, next.GlobalOffset); err != nil {
		return err
	}
	return nextSeg.SetInodePrev(nextLocal, cur.GlobalOffset)
}

// segmentLike is the narrow slice of *segment.Segment's API spliceNext
// needs; *segment.Segment satisfies it structurally.
type segmentLike interface {
	Owns(globalOffset uint64) (uint64, bool)
	SetInodeNext(localOffset, newValue uint64) error
	SetInodePrev(localOffset, newValue uint64) error
}
