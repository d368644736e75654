// Package inode implements the chain-traversal operations over the
// block/segment layer: directory lookup and append, file data append
// and read, rename, child listing, and chain-wide free. A single file
// or directory can outgrow one segment, at which point its inode chains
// onto a fresh inode in another segment via the Next/Prev global-offset
// links block.InodeBody carries — every operation here walks that
// chain, which is exactly why this package, rather than
// internal/segment itself, owns them: crossing segment boundaries needs
// a cache of every mounted segment, and internal/segment cannot import
// the package that would supply one without an import cycle.
package inode

import (
	"github.com/znsfs/znsfs/internal/block"
	"github.com/znsfs/znsfs/internal/segment"
)

// Cache resolves segments by address, so chain-traversal can follow a
// Next/Prev link or a FileAttr.Offset into whichever segment currently
// holds it, and can find room for a freshly spliced inode.
type Cache interface {
	// SegmentAt returns the segment whose base LBA is addrStart.
	SegmentAt(addrStart uint64) (*segment.Segment, error)

	// SegmentForOffset returns the segment owning the given global byte
	// offset.
	SegmentForOffset(globalOffset uint64) (*segment.Segment, error)

	// FindNonFullSegment returns a segment with room for at least one
	// more inode allocation, running GC across mounted segments if
	// necessary.
	FindNonFullSegment() (*segment.Segment, error)
}

// resolveBlock follows a global offset to its block, wherever its
// segment happens to be mounted.
func resolveBlock(cache Cache, globalOffset uint64) (*block.Block, error) {
	seg, err := cache.SegmentForOffset(globalOffset)
	if err != nil {
		return nil, err
	}
	local, owned := seg.Owns(globalOffset)
	if !owned {
		return nil, errCorruption("segment cache returned a segment that does not own the requested offset")
	}
	return seg.BlockAt(local)
}
