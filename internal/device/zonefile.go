package device

import (
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/znsfs/znsfs/pkg/errors"
)

// zoneHeaderSize is the size, in bytes, of the out-of-band header this
// simulator prepends to every zone's backing file. It holds the zone's
// write pointer (in blocks) so a restart can recover append state without
// scanning the zone's content, mirroring how a real ZNS drive tracks its
// own write pointer in firmware rather than in the addressable LBA space.
const zoneHeaderSize = 8

// zoneFile is one zone's on-host backing file plus its in-memory write
// pointer. Every operation on a single zone is serialized by mu, matching
// the append-only, single-writer-at-a-time nature of a real zone.
type zoneFile struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	writePtr uint64 // blocks already written, i.e. the zone's current write pointer
	capacity uint64 // blocks per zone
}

// openZoneFile opens (or creates) the backing file for one zone at `path`,
// sized for `capacity` blocks of `lbaSize` bytes, and recovers its write
// pointer from the header.
func openZoneFile(path string, capacity uint64, lbaSize uint32) (*zoneFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, path)
	}

	total := int64(zoneHeaderSize + capacity*uint64(lbaSize))
	if err := f.Truncate(total); err != nil {
		f.Close()
		return nil, errors.NewSegmentError(err, errors.ErrorCodeIO, "failed to size zone image file").WithPath(path)
	}

	zf := &zoneFile{file: f, path: path, capacity: capacity}
	if err := zf.loadHeader(); err != nil {
		f.Close()
		return nil, err
	}

	return zf, nil
}

// loadHeader reads the persisted write pointer, treating an all-zero or
// short header as a fresh zone (write pointer zero).
func (zf *zoneFile) loadHeader() error {
	buf := make([]byte, zoneHeaderSize)
	if _, err := zf.file.ReadAt(buf, 0); err != nil && err != io.EOF {
		return errors.NewSegmentError(err, errors.ErrorCodeIO, "failed to read zone header").WithPath(zf.path)
	}
	zf.writePtr = binary.LittleEndian.Uint64(buf)
	if zf.writePtr > zf.capacity {
		// A corrupted or foreign header; treat defensively as full so a
		// stray append doesn't silently overwrite unrelated data.
		zf.writePtr = zf.capacity
	}
	return nil
}

// persistHeader writes the current write pointer back to the header.
func (zf *zoneFile) persistHeader() error {
	buf := make([]byte, zoneHeaderSize)
	binary.LittleEndian.PutUint64(buf, zf.writePtr)
	if _, err := zf.file.WriteAt(buf, 0); err != nil {
		return errors.ClassifySyncError(err, zf.path, zf.path, 0)
	}
	return nil
}

// dataOffset returns the byte offset of block `blockInZone` within this
// zone's backing file, past the header.
func (zf *zoneFile) dataOffset(blockInZone uint64, lbaSize uint32) int64 {
	return int64(zoneHeaderSize) + int64(blockInZone)*int64(lbaSize)
}

func (zf *zoneFile) close() error {
	return zf.file.Close()
}
