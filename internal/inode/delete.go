package inode

import "github.com/znsfs/znsfs/internal/block"

// DeleteChild removes the entry named name from parent's directory-data
// chain and frees the inode chain it pointed to. Because DIR_DATA
// records are fixed-size and appended in place, the entry itself cannot
// be compacted out of its block; it
// is tombstoned by renaming it to the empty name, which every lookup
// and listing path treats as absent. The space is only reclaimed when
// the owning segment's next OnGC pass repacks it.
func DeleteChild(cache Cache, parent *block.Block, name string) error {
	child, err := DirectoryLookUp(cache, parent, name)
	if err != nil {
		return err
	}
	if err := Free(cache, child); err != nil {
		return err
	}
	return tombstoneEntry(cache, parent, name)
}

// tombstoneEntry finds name within parent's chain of DIR_DATA blocks and
// rewrites it to the empty name in place.
func tombstoneEntry(cache Cache, head *block.Block, name string) error {
	cur := head
	for cur != nil {
		cur.RLock()
		if cur.Type != block.DirInode {
			cur.RUnlock()
			return errNotADirectory()
		}
		offsets := append([]uint64(nil), cur.Inode.Offsets...)
		nextOff := cur.Inode.Next
		cur.RUnlock()

		for _, off := range offsets {
			_, ok, err := lookupEntry(cache, off, name)
			if err != nil {
				return err
			}
			if ok {
				seg, err := cache.SegmentForOffset(off)
				if err != nil {
					return err
				}
				local, owned := seg.Owns(off)
				if !owned {
					return errCorruption("segment cache returned a segment that does not own the requested offset")
				}
				return seg.RenameEntry(local, name, "")
			}
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
	return errNotFound("entry to delete not found")
}
