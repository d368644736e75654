package inode

import (
	"io"

	"github.com/znsfs/znsfs/internal/block"
	"github.com/znsfs/znsfs/internal/segment"
)

// DataAppend appends content to head's chain of FILE_DATA blocks,
// splitting across as many FILE_DATA blocks and chained FILE_INODE
// segments as needed. As in DirectoryAppend, block locks are taken only
// for short field snapshots, never across a segment call.
func DataAppend(cache Cache, head *block.Block, content []byte) error {
	remaining := content
	cur := head

	for len(remaining) > 0 {
		cur.RLock()
		curType := cur.Type
		curID := cur.ID
		segAddr := cur.SegmentAddr
		cur.RUnlock()

		if curType != block.FileInode {
			return errNotAFile()
		}

		seg, err := cache.SegmentAt(segAddr)
		if err != nil {
			return err
		}

		wrote, err := tryGrowLastFileData(seg, cur, remaining)
		if err != nil {
			return err
		}

		if wrote == 0 {
			db := block.NewFileData(remaining)
			n, err := seg.AllocateData(curID, db)
			if err != nil {
				if !isNoSpace(err) {
					return err
				}
			} else {
				wrote = n
			}
		}

		if wrote > 0 {
			remaining = remaining[wrote:]
			continue
		}

		next, err := advanceOrSplice(cache, seg, cur, block.FileInode, "")
		if err != nil {
			return err
		}
		cur = next
	}

	return nil
}

// Read copies bytes covering the logical range [offset, offset+len(buf))
// of head's chained data into buf, returning how many bytes were copied.
// It returns io.EOF if offset is at or past the end of the file's data.
func Read(cache Cache, head *block.Block, buf []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, errInvalidArgument("read offset must be non-negative")
	}
	if len(buf) == 0 {
		return 0, nil
	}

	cur := head
	logicalPos := int64(0)
	copied := 0

	for cur != nil {
		cur.RLock()
		if cur.Type != block.FileInode {
			cur.RUnlock()
			return copied, errNotAFile()
		}
		offsets := append([]uint64(nil), cur.Inode.Offsets...)
		nextOff := cur.Inode.Next
		cur.RUnlock()

		for _, off := range offsets {
			db, err := resolveBlock(cache, off)
			if err != nil {
				return copied, err
			}
			db.RLock()
			content := db.FileData.Content
			db.RUnlock()

			blockStart := logicalPos
			blockEnd := logicalPos + int64(len(content))
			logicalPos = blockEnd

			wantEnd := offset + int64(len(buf))
			if blockEnd <= offset || blockStart >= wantEnd {
				continue
			}

			srcStart := max64(offset, blockStart) - blockStart
			srcEnd := min64(wantEnd, blockEnd) - blockStart
			dstStart := max64(offset, blockStart) - offset
			copied += copy(buf[dstStart:dstStart+(srcEnd-srcStart)], content[srcStart:srcEnd])
		}

		if nextOff == 0 {
			break
		}
		next, err := resolveBlock(cache, nextOff)
		if err != nil {
			return copied, err
		}
		cur = next
	}

	if copied == 0 && offset >= logicalPos {
		return 0, io.EOF
	}
	return copied, nil
}

// FileSize walks head's chain and sums the content length of every
// FILE_DATA block it owns, giving the file's live logical size.
func FileSize(cache Cache, head *block.Block) (int64, error) {
	var total int64

	cur := head
	for cur != nil {
		cur.RLock()
		if cur.Type != block.FileInode {
			cur.RUnlock()
			return 0, errNotAFile()
		}
		offsets := append([]uint64(nil), cur.Inode.Offsets...)
		nextOff := cur.Inode.Next
		cur.RUnlock()

		for _, off := range offsets {
			db, err := resolveBlock(cache, off)
			if err != nil {
				return 0, err
			}
			db.RLock()
			total += int64(len(db.FileData.Content))
			db.RUnlock()
		}

		if nextOff == 0 {
			break
		}
		next, err := resolveBlock(cache, nextOff)
		if err != nil {
			return 0, err
		}
		cur = next
	}

	return total, nil
}

func tryGrowLastFileData(seg *segment.Segment, cur *block.Block, content []byte) (int, error) {
	cur.RLock()
	n := len(cur.Inode.Offsets)
	var lastGlobal uint64
	if n > 0 {
		lastGlobal = cur.Inode.Offsets[n-1]
	}
	cur.RUnlock()

	if n == 0 {
		return 0, nil
	}
	lastLocal, owned := seg.Owns(lastGlobal)
	if !owned {
		return 0, nil
	}
	wrote, ok, err := seg.GrowLastFileData(lastLocal, content)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return wrote, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
