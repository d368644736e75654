package inode

import (
	"github.com/znsfs/znsfs/internal/block"
	"github.com/znsfs/znsfs/internal/segment"
)

// DirectoryAppend adds fa to head's chain of DIR_DATA blocks: grow the
// tail inode's last DIR_DATA block in place if it still has room, else
// allocate a fresh DIR_DATA block, else splice a new DIR_INODE onto the
// chain in another segment and retry there.
//
// Block locks are taken only for short field snapshots, never across a
// segment call: segment operations re-serialize the blocks they touch
// and take the block's read lock themselves to do it.
func DirectoryAppend(cache Cache, head *block.Block, fa block.FileAttr) error {
	cur := head

	for {
		cur.RLock()
		curType := cur.Type
		curID := cur.ID
		segAddr := cur.SegmentAddr
		curName := cur.Inode.Name
		cur.RUnlock()

		if curType != block.DirInode {
			return errNotADirectory()
		}

		seg, err := cache.SegmentAt(segAddr)
		if err != nil {
			return err
		}

		if grew, err := tryGrowLastDirData(seg, cur, fa); err != nil {
			return err
		} else if grew {
			return nil
		}

		db := block.NewDirData()
		db.DirData.Entries = []block.FileAttr{fa}
		if _, err := seg.AllocateData(curID, db); err == nil {
			return nil
		} else if !isNoSpace(err) {
			return err
		}

		next, err := advanceOrSplice(cache, seg, cur, block.DirInode, curName)
		if err != nil {
			return err
		}
		cur = next
	}
}

// RenameChild finds the FileAttr named oldName anywhere in head's chain
// of DIR_DATA blocks and renames it to newName in place.
func RenameChild(cache Cache, head *block.Block, oldName, newName string) error {
	if len(newName) > block.MaxNameLength {
		return errInvalidArgument("renamed entry exceeds the maximum name length")
	}

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
			_, ok, err := lookupEntry(cache, off, oldName)
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
				return seg.RenameEntry(local, oldName, newName)
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
	return errNotFound("rename source entry not found")
}

// CreateChild allocates a fresh inode of type t named name in a
// non-full segment and appends a FileAttr pointing to it onto parent's
// directory-data chain.
func CreateChild(cache Cache, parent *block.Block, t block.Type, name string, isDir bool, createTime uint64) (*block.Block, error) {
	if name == "" || len(name) > block.MaxNameLength {
		return nil, errBadName(name)
	}

	seg, err := cache.FindNonFullSegment()
	if err != nil {
		return nil, err
	}

	child, err := seg.AllocateNew(t, name)
	if err != nil {
		return nil, err
	}

	fa := block.FileAttr{
		Name:       name,
		CreateTime: createTime,
		IsDir:      isDir,
		Offset:     child.GlobalOffset,
		InodeID:    child.ID,
	}
	if err := DirectoryAppend(cache, parent, fa); err != nil {
		return nil, err
	}

	return child, nil
}

func tryGrowLastDirData(seg *segment.Segment, cur *block.Block, fa block.FileAttr) (bool, error) {
	cur.RLock()
	n := len(cur.Inode.Offsets)
	var lastGlobal uint64
	if n > 0 {
		lastGlobal = cur.Inode.Offsets[n-1]
	}
	cur.RUnlock()

	if n == 0 {
		return false, nil
	}
	lastLocal, owned := seg.Owns(lastGlobal)
	if !owned {
		return false, nil
	}
	return seg.GrowLastDirData(lastLocal, fa)
}

// advanceOrSplice follows cur's existing Next link if present, else
// allocates a fresh inode of type t in a non-full segment and splices it
// on as cur's Next, returning the new tail either way.
func advanceOrSplice(cache Cache, curSeg *segment.Segment, cur *block.Block, t block.Type, name string) (*block.Block, error) {
	cur.RLock()
	nextOff := cur.Inode.Next
	cur.RUnlock()

	if nextOff != 0 {
		return resolveBlock(cache, nextOff)
	}

	newSeg, err := cache.FindNonFullSegment()
	if err != nil {
		return nil, err
	}
	next, err := newSeg.AllocateNew(t, name)
	if err != nil {
		return nil, err
	}
	if err := spliceNext(curSeg, cur, newSeg, next); err != nil {
		return nil, err
	}
	return next, nil
}
