package segment

import (
	"encoding/binary"

	"github.com/znsfs/znsfs/internal/block"
	"github.com/znsfs/znsfs/pkg/errors"
)

// readZeroFilling reads the LBA range covering buf one block at a time,
// zero-filling any block the translation layer has no mapping for. A
// blank or partially-flushed segment is indistinguishable on media from
// one whose untouched tail was explicitly zeroed, so an unmapped block
// reads as zeros rather than failing the whole load.
func (s *Segment) readZeroFilling(lba uint64, buf []byte) error {
	lbaSize := uint64(s.lbaSize)
	for off := uint64(0); off < uint64(len(buf)); off += lbaSize {
		sub := buf[off : off+lbaSize]
		if err := s.dev.Read(lba+off/lbaSize, sub); err != nil {
			if errors.StatusOf(err) == errors.StatusNotFound {
				for i := range sub {
					sub[i] = 0
				}
				continue
			}
			return err
		}
	}
	return nil
}

// EnsureLoaded materializes the segment's full byte image from media if
// it hasn't been already.
func (s *Segment) EnsureLoaded() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoadedLocked()
}

func (s *Segment) ensureLoadedLocked() error {
	if s.loaded {
		return nil
	}

	buf := make([]byte, s.sizeBytes)
	if err := s.readZeroFilling(s.addrStart, buf); err != nil {
		return err
	}

	s.buffer = buf
	s.loaded = true
	return nil
}

// blockAt returns the materialized block at in-segment byte offset off,
// decoding it from the buffer on first access. It assumes the caller
// already holds s.mu and has ensured the buffer is loaded.
func (s *Segment) blockAt(off uint64) (*block.Block, error) {
	if b, ok := s.blocks[off]; ok && b != nil {
		return b, nil
	}

	if off >= uint64(len(s.buffer)) {
		return nil, errCorruption("block offset out of range")
	}

	tag := s.buffer[off]
	t := block.Type(tag >> 4)

	var region []byte
	switch t {
	case block.FileInode, block.DirInode:
		end := off + uint64(s.lbaSize)
		if end > uint64(len(s.buffer)) {
			return nil, errCorruption("inode block extends past segment buffer")
		}
		region = s.buffer[off:end]
	case block.DirData, block.FileData:
		const dataBlockHeaderLen = 1 + 8
		if off+dataBlockHeaderLen > uint64(len(s.buffer)) {
			return nil, errCorruption("data block length prefix extends past segment buffer")
		}
		size := binary.LittleEndian.Uint64(s.buffer[off+1 : off+9])
		end := off + dataBlockHeaderLen + size
		if end > uint64(len(s.buffer)) {
			return nil, errCorruption("data block body extends past segment buffer")
		}
		region = s.buffer[off:end]
	default:
		s.log.Warnw("segment: unknown block type tag on read, skipping", "segment", s.index, "offset", off, "tag", tag)
		return nil, errCorruption("unknown block type tag")
	}

	b, err := block.Deserialize(region)
	if err != nil {
		s.log.Warnw("segment: failed to decode block, skipping", "segment", s.index, "offset", off, "error", err)
		return nil, err
	}

	b.SegmentAddr = s.addrStart
	b.GlobalOffset = s.addrStart*uint64(s.lbaSize) + off
	s.blocks[off] = b
	return b, nil
}

// BlockAt materializes and returns the block at in-segment byte offset
// off, loading the full segment buffer first if needed.
func (s *Segment) BlockAt(off uint64) (*block.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	return s.blockAt(off)
}

// InodeOffset returns the in-segment byte offset of the inode with the
// given id, if this segment's inode map knows it.
func (s *Segment) InodeOffset(id uint64) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	off, ok := s.inodeMap[id]
	return off, ok
}
