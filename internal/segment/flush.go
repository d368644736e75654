package segment

import "github.com/znsfs/znsfs/internal/block"

// flushRangeLocked writes the LBA-aligned region covering [startByte,
// endByte) back to the device. Callers must hold s.mu and have a loaded
// buffer.
func (s *Segment) flushRangeLocked(startByte, endByte uint64) error {
	lbaSize := uint64(s.lbaSize)
	alignedStart := (startByte / lbaSize) * lbaSize
	alignedEnd := ((endByte + lbaSize - 1) / lbaSize) * lbaSize
	if alignedEnd > uint64(len(s.buffer)) {
		alignedEnd = uint64(len(s.buffer))
	}

	lba := s.addrStart + alignedStart/lbaSize
	return s.dev.Write(lba, s.buffer[alignedStart:alignedEnd])
}

// flushBlockLocked re-serializes b in place at in-segment offset off and
// flushes its LBA range. Used when an existing inode's Offsets list grows
// without moving the inode itself.
func (s *Segment) flushBlockLocked(off uint64, b *block.Block) error {
	data, err := block.Serialize(b, s.lbaSize)
	if err != nil {
		return err
	}
	if off+uint64(len(data)) > uint64(len(s.buffer)) {
		return errCorruption("re-serialized block no longer fits its original slot")
	}
	copy(s.buffer[off:off+uint64(len(data))], data)
	return s.flushRangeLocked(off, off+uint64(len(data)))
}

// Flush writes the segment's header and full byte image back to the
// device if anything has changed since the last flush.
func (s *Segment) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Segment) flushLocked() error {
	if !s.dirty || !s.loaded {
		return nil
	}
	header := s.encodeHeader()
	copy(s.buffer[:len(header)], header)
	if err := s.dev.Write(s.addrStart, s.buffer); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Offload flushes outstanding changes, then releases the segment's full
// byte image and cached block decodings, keeping only the header-derived
// inode map and cur_size resident.
func (s *Segment) Offload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(); err != nil {
		return err
	}
	return s.offloadLocked()
}

// offloadLocked performs the actual offload step without flushing first;
// callers that have already flushed as part of a larger operation (e.g.
// OnGC) use this to avoid a redundant write. Callers must hold s.mu.
func (s *Segment) offloadLocked() error {
	for _, b := range s.blocks {
		b.Offload()
	}
	s.blocks = make(map[uint64]*block.Block)
	s.buffer = nil
	s.loaded = false
	return nil
}
