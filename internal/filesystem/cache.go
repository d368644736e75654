package filesystem

import (
	"github.com/znsfs/znsfs/internal/segment"
)

// SegmentAt implements inode.Cache.
func (fs *Filesystem) SegmentAt(addrStart uint64) (*segment.Segment, error) {
	seg, ok := fs.segByAddr[addrStart]
	if !ok {
		return nil, errCorruption("no mounted segment at the requested base address")
	}
	return seg, nil
}

// SegmentForOffset implements inode.Cache by finding whichever mounted
// segment owns the given global byte offset.
func (fs *Filesystem) SegmentForOffset(globalOffset uint64) (*segment.Segment, error) {
	for _, seg := range fs.order {
		if _, ok := seg.Owns(globalOffset); ok {
			return seg, nil
		}
	}
	return nil, errCorruption("no mounted segment owns the requested offset")
}

// FindNonFullSegment implements inode.Cache: scan forward from the
// last segment an allocation landed in, wrapping around; if nothing has
// room, run OnGC across every segment and scan again; fail NoSpace only
// if that still finds nothing.
func (fs *Filesystem) FindNonFullSegment() (*segment.Segment, error) {
	fs.cacheMu.Lock()
	n := len(fs.order)
	start := fs.wpIdx
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if fs.order[idx].HasRoom() {
			fs.wpIdx = idx
			fs.cacheMu.Unlock()
			return fs.order[idx], nil
		}
	}
	fs.cacheMu.Unlock()

	fs.log.Warnw("filesystem: no segment has room, running GC across every segment")
	patch := &neighborPatcher{fs: fs}
	fs.gcMu.Lock()
	for _, seg := range fs.order {
		if err := seg.OnGC(patch); err != nil {
			fs.gcMu.Unlock()
			return nil, err
		}
	}
	fs.gcMu.Unlock()

	fs.cacheMu.Lock()
	defer fs.cacheMu.Unlock()
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if fs.order[idx].HasRoom() {
			fs.wpIdx = idx
			return fs.order[idx], nil
		}
	}
	return nil, errNoSpace()
}

// neighborPatcher implements segment.NeighborPatcher over this
// Filesystem's segment cache, letting one segment's OnGC pass fix up a
// chain neighbor's pointer when that neighbor lives in a different
// segment.
type neighborPatcher struct {
	fs *Filesystem
}

func (p *neighborPatcher) SetNext(neighborGlobalOffset, newValue uint64) error {
	seg, err := p.fs.SegmentForOffset(neighborGlobalOffset)
	if err != nil {
		return err
	}
	local, ok := seg.Owns(neighborGlobalOffset)
	if !ok {
		return errCorruption("neighbor patcher: segment does not own the given offset")
	}
	return seg.SetInodeNext(local, newValue)
}

func (p *neighborPatcher) SetPrev(neighborGlobalOffset, newValue uint64) error {
	seg, err := p.fs.SegmentForOffset(neighborGlobalOffset)
	if err != nil {
		return err
	}
	local, ok := seg.Owns(neighborGlobalOffset)
	if !ok {
		return errCorruption("neighbor patcher: segment does not own the given offset")
	}
	return seg.SetInodePrev(local, newValue)
}
