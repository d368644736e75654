// Package segment implements the zone-sized on-media container: an
// inode map plus a packed byte image of blocks, with lazy load, durable
// flush, and GC-driven compaction. One Segment exists per physical
// data-area zone; Segment 0 additionally carries the persisted global
// inode-id counter.
//
// A Segment talks to storage exclusively through the Device interface
// below, which *ftl.FTL already satisfies — segments never address the
// underlying ZNS zones directly.
package segment

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/znsfs/znsfs/internal/block"
	"github.com/znsfs/znsfs/pkg/errors"
)

// Device is the narrow read/write surface a Segment needs. *ftl.FTL
// satisfies it directly.
type Device interface {
	Read(lba uint64, buf []byte) error
	Write(lba uint64, buf []byte) error
}

// reserveLBAs is how many LBA-sized blocks of leading space every
// segment reserves for its header (id counter, cur_size, inode map).
// After the header fields, two LBAs hold an inode map of
// (2*L - header)/16 - 1 entries: 62 with 512-byte LBAs, 510 with
// 4096-byte LBAs.
const reserveLBAs = 2

// idCounterSize, curSizeFieldSize are the fixed header field widths.
const (
	idCounterSize     = 8
	curSizeFieldSize  = 8
	inodeMapEntrySize = 16 // id:u64 + offset:u64
)

// Segment is one zone-sized container of packed blocks.
type Segment struct {
	mu sync.RWMutex

	index         uint32 // 0-based data-segment index
	addrStart     uint64 // base LBA in the FTL's external address space
	lbaSize       uint32
	blocksPerZone uint32
	sizeBytes     uint64

	reserveForInode uint64 // leading bytes reserved for header + inode map
	curSize         uint64

	isSegmentZero bool
	counter       *IDCounter // shared across every segment; only segment 0 persists it

	inodeMap map[uint64]uint64 // inode id -> in-segment byte offset

	// nameToInode indexes directory-entry names whose FileAttr currently
	// lives in one of this segment's DIR_DATA blocks, mapping to the
	// child's inode id. DirectoryLookUp in internal/inode does not consult
	// it; lookups always scan the DIR_DATA entries linearly, so a stale or
	// incomplete index here does not affect lookup results.
	nameToInode map[string]uint64

	blocks map[uint64]*block.Block // in-segment byte offset -> cached block
	buffer []byte                  // full segment byte image, lazily populated
	loaded bool
	dirty  bool

	lastModify time.Time

	dev Device
	log *zap.SugaredLogger
}

// Config describes one segment's placement and backing device.
type Config struct {
	Index         uint32
	LBASize       uint32
	BlocksPerZone uint32
	Device        Device
	Counter       *IDCounter
	Logger        *zap.SugaredLogger
}

// New constructs a Segment descriptor and loads its header (cur_size +
// inode map) from media, without materializing the full block set; the
// packed block image is demand-loaded on first access.
func New(cfg *Config) (*Segment, error) {
	if cfg == nil || cfg.Device == nil || cfg.Logger == nil || cfg.Counter == nil || cfg.LBASize == 0 || cfg.BlocksPerZone == 0 {
		return nil, errInvalidArgument("segment config, device, counter, and logger are required")
	}

	s := &Segment{
		index:           cfg.Index,
		addrStart:       uint64(cfg.Index) * uint64(cfg.BlocksPerZone),
		lbaSize:         cfg.LBASize,
		blocksPerZone:   cfg.BlocksPerZone,
		sizeBytes:       uint64(cfg.BlocksPerZone) * uint64(cfg.LBASize),
		reserveForInode: uint64(reserveLBAs) * uint64(cfg.LBASize),
		isSegmentZero:   cfg.Index == 0,
		counter:         cfg.Counter,
		inodeMap:        make(map[uint64]uint64),
		nameToInode:     make(map[string]uint64),
		blocks:          make(map[uint64]*block.Block),
		dev:             cfg.Device,
		log:             cfg.Logger,
		lastModify:      time.Now(),
	}

	if err := s.loadHeader(); err != nil {
		return nil, err
	}

	return s, nil
}

// AddrStart returns the segment's base LBA in the FTL's address space.
func (s *Segment) AddrStart() uint64 { return s.addrStart }

// LBASize returns the device's LBA size in bytes, needed by callers that
// translate between global offsets and in-segment offsets.
func (s *Segment) LBASize() uint32 { return s.lbaSize }

// Index returns the segment's 0-based data-segment index.
func (s *Segment) Index() uint32 { return s.index }

// LastModify returns the timestamp of the segment's last mutation, used
// by the filesystem layer's idle-segment GC scan.
func (s *Segment) LastModify() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastModify
}

// Owns reports whether globalOffset falls within this segment's address
// range, and if so returns the corresponding in-segment byte offset.
func (s *Segment) Owns(globalOffset uint64) (uint64, bool) {
	base := s.addrStart * uint64(s.lbaSize)
	end := base + s.sizeBytes
	if globalOffset < base || globalOffset >= end {
		return 0, false
	}
	return globalOffset - base, true
}

// GlobalOffset renders an in-segment byte offset as a global offset in
// this segment's address range.
func (s *Segment) GlobalOffset(localOffset uint64) uint64 {
	return s.addrStart*uint64(s.lbaSize) + localOffset
}

// CurSize returns the segment's current bump-pointer position.
func (s *Segment) CurSize() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.curSize
}

// SegmentSizeBytes returns the total usable byte capacity of the segment.
func (s *Segment) SegmentSizeBytes() uint64 { return s.sizeBytes }

// HasRoom reports whether the segment can accept one more inode
// allocation. A segment filled to within one LBA of capacity still has
// room for exactly one more inode.
func (s *Segment) HasRoom() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.curSize+uint64(s.lbaSize) < s.sizeBytes
}

func (s *Segment) headerFixedSize() uint64 {
	if s.isSegmentZero {
		return idCounterSize + curSizeFieldSize
	}
	return curSizeFieldSize
}

func errInvalidArgument(msg string) error {
	return errors.NewSegmentError(nil, errors.ErrorCodeInvalidInput, msg)
}

func errNoSpace(msg string) error {
	return errors.NewSegmentError(nil, errors.ErrorCodeNoSpace, msg)
}

func errNotFound(msg string) error {
	return errors.NewSegmentError(nil, errors.ErrorCodeNotFound, msg)
}

func errCorruption(msg string) error {
	return errors.NewSegmentError(nil, errors.ErrorCodeCorruption, msg)
}
