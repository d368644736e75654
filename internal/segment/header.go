package segment

import "encoding/binary"

// maxInodeMapEntries returns how many (id, offset) pairs fit in the
// reserved header region, leaving room for the zero-pair terminator.
func (s *Segment) maxInodeMapEntries() int {
	avail := int64(s.reserveForInode) - int64(s.headerFixedSize())
	if avail <= 0 {
		return 0
	}
	n := avail/inodeMapEntrySize - 1
	if n < 0 {
		return 0
	}
	return int(n)
}

// loadHeader reads the segment's leading reserved region: the persisted
// id counter (segment 0 only), cur_size, and the inode map, terminated
// by a zero (id, offset) pair.
func (s *Segment) loadHeader() error {
	buf := make([]byte, s.reserveForInode)
	if err := s.readZeroFilling(s.addrStart, buf); err != nil {
		return err
	}

	pos := 0
	if s.isSegmentZero {
		persisted := binary.LittleEndian.Uint64(buf[0:8])
		s.counter.SeedFrom(persisted)
		pos = 8
	}
	s.curSize = binary.LittleEndian.Uint64(buf[pos : pos+8])
	pos += 8

	if s.curSize < s.reserveForInode {
		// A blank segment, never flushed: cur_size defaults to the
		// reserved header region so the first allocation lands right
		// after it.
		s.curSize = s.reserveForInode
	}

	for pos+inodeMapEntrySize <= len(buf) {
		id := binary.LittleEndian.Uint64(buf[pos : pos+8])
		off := binary.LittleEndian.Uint64(buf[pos+8 : pos+16])
		pos += inodeMapEntrySize
		if id == 0 && off == 0 {
			break
		}
		s.inodeMap[id] = off
	}

	return nil
}

// encodeHeader renders the current id counter, cur_size, and inode map
// into a reserveForInode-byte buffer ready for a device write.
func (s *Segment) encodeHeader() []byte {
	buf := make([]byte, s.reserveForInode)

	pos := 0
	if s.isSegmentZero {
		binary.LittleEndian.PutUint64(buf[0:8], s.counter.Load())
		pos = 8
	}
	binary.LittleEndian.PutUint64(buf[pos:pos+8], s.curSize)
	pos += 8

	for id, off := range s.inodeMap {
		binary.LittleEndian.PutUint64(buf[pos:pos+8], id)
		binary.LittleEndian.PutUint64(buf[pos+8:pos+16], off)
		pos += inodeMapEntrySize
	}
	// Zero-pair terminator: buf is already zero past pos.

	return buf
}

// flushHeader writes the header region back to the device.
func (s *Segment) flushHeader() error {
	return s.dev.Write(s.addrStart, s.encodeHeader())
}
