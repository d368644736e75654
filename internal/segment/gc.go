package segment

import (
	"sort"
	"time"

	"github.com/znsfs/znsfs/internal/block"
)

// OnGC compacts this segment in place: every live inode (and the data
// blocks it owns) is reassigned a dense offset starting at
// reserveForInode, in ascending order of its current offset, discarding
// any block not reachable from the inode map. patch may be nil (tests
// exercising a segment with no cross-segment chain links); when
// non-nil, it is used to fix up a relocated inode's chain neighbor that
// lives in a different segment.
//
// Directory entries in other segments that point at a relocated inode
// are deliberately not rewritten here: lookups resolve a child through
// its segment's inode map by id, so a stale stored offset self-heals on
// the next access. Entries inside this segment are still rewritten so
// the on-media image stays accurate.
//
// Field mutations on relocated blocks happen under each block's writer
// lock; concurrent chain traversals snapshot those fields under the
// matching read lock without holding the segment lock.
func (s *Segment) OnGC(patch NeighborPatcher) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}

	type inodeEntry struct {
		id     uint64
		oldOff uint64
		blk    *block.Block
	}

	entries := make([]inodeEntry, 0, len(s.inodeMap))
	for id, off := range s.inodeMap {
		b, err := s.blockAt(off)
		if err != nil {
			s.log.Warnw("segment: dropping unreadable inode during GC", "segment", s.index, "inode", id, "error", err)
			continue
		}
		entries = append(entries, inodeEntry{id: id, oldOff: off, blk: b})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].oldOff < entries[j].oldOff })

	remap := make(map[uint64]uint64, len(entries)) // old in-segment offset -> new in-segment offset
	newInodeMap := make(map[uint64]uint64, len(entries))
	newBuffer := make([]byte, s.sizeBytes)
	cursor := s.reserveForInode

	type dataReloc struct {
		blk    *block.Block
		oldOff uint64
		newOff uint64
	}
	var movedData []dataReloc

	for i := range entries {
		e := &entries[i]
		newInodeOff := cursor
		remap[e.oldOff] = newInodeOff
		newInodeMap[e.id] = newInodeOff
		cursor += uint64(s.lbaSize)

		for _, dataOff := range e.blk.Inode.Offsets {
			localOld, owned := s.Owns(dataOff)
			if !owned {
				continue // data block lives in another segment's address range: leave untouched
			}
			db, err := s.blockAt(localOld)
			if err != nil {
				continue // unreadable/dangling reference: dropped by the rewrite below
			}
			sz := uint64(block.ActualSize(db, s.lbaSize))
			newOff := cursor
			cursor += sz
			remap[localOld] = newOff
			movedData = append(movedData, dataReloc{blk: db, oldOff: localOld, newOff: newOff})
		}
	}

	if cursor > s.sizeBytes {
		return errNoSpace("segment GC: live data no longer fits in segment capacity")
	}

	for i := range entries {
		e := &entries[i]
		b := e.blk
		newSelf := s.GlobalOffset(remap[e.oldOff])

		b.Lock()
		newOffsets := make([]uint64, 0, len(b.Inode.Offsets))
		for _, dataOff := range b.Inode.Offsets {
			localOld, owned := s.Owns(dataOff)
			if !owned {
				newOffsets = append(newOffsets, dataOff) // foreign data block, offset unaffected
				continue
			}
			if newLocal, ok := remap[localOld]; ok {
				newOffsets = append(newOffsets, s.GlobalOffset(newLocal))
			}
			// else: dangling reference, dropped
		}
		b.Inode.Offsets = newOffsets

		if b.Inode.Next != 0 {
			if localOld, owned := s.Owns(b.Inode.Next); owned {
				if newLocal, ok := remap[localOld]; ok {
					b.Inode.Next = s.GlobalOffset(newLocal)
				}
			}
		}
		if b.Inode.Prev != 0 {
			if localOld, owned := s.Owns(b.Inode.Prev); owned {
				if newLocal, ok := remap[localOld]; ok {
					b.Inode.Prev = s.GlobalOffset(newLocal)
				}
			}
		}
		b.GlobalOffset = newSelf
		nextNeighbor, prevNeighbor := b.Inode.Next, b.Inode.Prev
		b.Unlock()

		// Chain neighbors in other segments hold reciprocal pointers to
		// this inode's old offset; their segments re-aim them.
		if patch != nil {
			if nextNeighbor != 0 {
				if _, owned := s.Owns(nextNeighbor); !owned {
					if err := patch.SetPrev(nextNeighbor, newSelf); err != nil {
						return err
					}
				}
			}
			if prevNeighbor != 0 {
				if _, owned := s.Owns(prevNeighbor); !owned {
					if err := patch.SetNext(prevNeighbor, newSelf); err != nil {
						return err
					}
				}
			}
		}

		data, err := block.Serialize(b, s.lbaSize)
		if err != nil {
			return err
		}
		newOff := remap[e.oldOff]
		copy(newBuffer[newOff:newOff+uint64(len(data))], data)
	}

	for _, md := range movedData {
		md.blk.Lock()
		if md.blk.Type == block.DirData {
			for i := range md.blk.DirData.Entries {
				fa := &md.blk.DirData.Entries[i]
				if localOld, owned := s.Owns(fa.Offset); owned {
					if newLocal, ok := remap[localOld]; ok {
						fa.Offset = s.GlobalOffset(newLocal)
					}
				}
			}
		}
		md.blk.GlobalOffset = s.GlobalOffset(md.newOff)
		md.blk.Unlock()

		data, err := block.Serialize(md.blk, s.lbaSize)
		if err != nil {
			return err
		}
		copy(newBuffer[md.newOff:md.newOff+uint64(len(data))], data)
	}

	s.buffer = newBuffer
	s.curSize = cursor
	s.inodeMap = newInodeMap
	s.blocks = make(map[uint64]*block.Block, len(entries)+len(movedData))
	for i := range entries {
		off := remap[entries[i].oldOff]
		s.blocks[off] = entries[i].blk
	}
	for _, md := range movedData {
		s.blocks[md.newOff] = md.blk
	}
	s.rebuildNameIndexLocked()

	s.dirty = true
	s.lastModify = time.Now()

	if err := s.flushLocked(); err != nil {
		return err
	}
	return s.offloadLocked()
}

// rebuildNameIndexLocked recomputes nameToInode from the current DIR_DATA
// blocks after a compaction pass. Callers must hold s.mu.
func (s *Segment) rebuildNameIndexLocked() {
	s.nameToInode = make(map[string]uint64)
	for _, b := range s.blocks {
		if b.Type != block.DirData {
			continue
		}
		for _, fa := range b.DirData.Entries {
			s.nameToInode[fa.Name] = fa.InodeID
		}
	}
}
