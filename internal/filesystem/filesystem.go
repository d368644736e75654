// Package filesystem implements the namespace layer: a cache of every
// mounted segment, the path resolver, non-full segment search, and the
// full external operation set the embedding KV engine consumes.
package filesystem

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/znsfs/znsfs/internal/block"
	"github.com/znsfs/znsfs/internal/segment"
	"github.com/znsfs/znsfs/internal/threadpool"
	"github.com/znsfs/znsfs/pkg/errors"
)

// rootInodeID is the id the very first inode this filesystem ever
// allocates always receives: mounting seeds the shared counter at 0 and
// creates the root directory before any other allocation can occur, so
// the root is always id 1. A re-mount recovers the same id from segment
// 0's persisted inode map instead of allocating a second root.
const rootInodeID = 1

// Config describes the segments this Filesystem mounts and the
// background facilities (worker pool, idle-segment GC scan) it runs
// alongside them.
type Config struct {
	// Device is the FTL instance every segment reads and writes through.
	Device segment.Device

	// DataZones is the number of data-area zones to mount, indexed
	// 0..DataZones-1 in the FTL's external address space.
	DataZones uint32

	BlocksPerZone uint32
	LBASize       uint32

	// Pool runs background segment flush and GC scan work.
	Pool *threadpool.Pool

	// GCIdleThreshold is how long a segment must go unmodified before
	// the background scan loop considers it a GC candidate.
	GCIdleThreshold time.Duration

	// GCScanInterval is how often the background scan loop wakes to check
	// every segment's idle time.
	GCScanInterval time.Duration

	Logger *zap.SugaredLogger
}

// Filesystem is the mounted namespace: every data-area segment, indexed
// for inode.Cache lookups, plus the root directory inode and the
// advisory lock table.
type Filesystem struct {
	cfg *Config
	log *zap.SugaredLogger

	segByAddr map[uint64]*segment.Segment
	order     []*segment.Segment // stable index order, used by FindNonFullSegment's round robin

	cacheMu sync.Mutex // guards wpIdx; segments guard their own state
	wpIdx   int

	// gcMu serializes whole-segment OnGC passes. A compaction in segment
	// A may patch a chain neighbor in segment B while holding A's lock;
	// two concurrent passes patching into each other would deadlock.
	gcMu sync.Mutex

	root *block.Block

	locksMu sync.Mutex
	locks   map[string]string // path -> owner token

	stopScan chan struct{}
	scanDone chan struct{}

	closeOnce sync.Once
	closed    atomic.Bool
}

// New mounts every configured data-area segment, bootstraps (or
// recovers) the root directory, and starts the background idle-segment
// GC scan loop.
func New(cfg *Config) (*Filesystem, error) {
	if cfg == nil || cfg.Device == nil || cfg.Pool == nil || cfg.Logger == nil {
		return nil, errInvalidArgument("filesystem config, device, pool, and logger are required")
	}
	if cfg.DataZones == 0 || cfg.BlocksPerZone == 0 || cfg.LBASize == 0 {
		return nil, errInvalidArgument("filesystem requires a non-zero data zone count and geometry")
	}
	if cfg.GCIdleThreshold <= 0 {
		cfg.GCIdleThreshold = 5 * time.Minute
	}
	if cfg.GCScanInterval <= 0 {
		cfg.GCScanInterval = 30 * time.Second
	}

	fs := &Filesystem{
		cfg:       cfg,
		log:       cfg.Logger,
		segByAddr: make(map[uint64]*segment.Segment, cfg.DataZones),
		locks:     make(map[string]string),
		stopScan:  make(chan struct{}),
		scanDone:  make(chan struct{}),
	}

	counter := segment.NewIDCounter(0)
	for i := uint32(0); i < cfg.DataZones; i++ {
		seg, err := segment.New(&segment.Config{
			Index:         i,
			LBASize:       cfg.LBASize,
			BlocksPerZone: cfg.BlocksPerZone,
			Device:        cfg.Device,
			Counter:       counter,
			Logger:        cfg.Logger,
		})
		if err != nil {
			return nil, err
		}
		fs.segByAddr[seg.AddrStart()] = seg
		fs.order = append(fs.order, seg)
	}

	root, err := fs.bootstrapRoot()
	if err != nil {
		return nil, err
	}
	fs.root = root

	go fs.gcScanLoop()

	fs.log.Infow("filesystem mounted", "dataZones", cfg.DataZones, "rootInode", root.ID)
	return fs, nil
}

// bootstrapRoot returns segment 0's existing root inode if one was
// recovered from media, else allocates a fresh one.
func (fs *Filesystem) bootstrapRoot() (*block.Block, error) {
	seg0 := fs.order[0]
	if off, ok := seg0.InodeOffset(rootInodeID); ok {
		root, err := seg0.BlockAt(off)
		if err != nil {
			return nil, err
		}
		fs.log.Debugw("filesystem: recovered existing root inode", "offset", off)
		return root, nil
	}
	return seg0.AllocateNew(block.DirInode, "/")
}

// Close stops the background GC scan loop and the worker pool. It does
// not close the underlying device; pkg/znsfs owns that lifetime.
func (fs *Filesystem) Close() error {
	var err error
	fs.closeOnce.Do(func() {
		fs.closed.Store(true)
		close(fs.stopScan)
		<-fs.scanDone
		err = fs.cfg.Pool.Close()
	})
	return err
}

func errInvalidArgument(msg string) error {
	return errors.NewFSError(nil, errors.ErrorCodeInvalidInput, msg)
}

func errPathNotFound(path string) error {
	return errors.NewPathNotFoundError(path)
}

func errAlreadyExists(path string) error {
	return errors.NewFSError(nil, errors.ErrorCodeAlreadyExists, "path already exists").WithPath(path).WithOperation("Create")
}

func errNotADirectory(path string) error {
	return errors.NewFSError(nil, errors.ErrorCodeNotADirectory, "path component is not a directory").WithPath(path)
}

func errNotAFile(path string) error {
	return errors.NewFSError(nil, errors.ErrorCodeInvalidInput, "path is a directory, not a file").WithPath(path)
}

func errLockHeld(path string) error {
	return errors.NewFSError(nil, errors.ErrorCodeLockHeld, "lock already held by another caller").WithPath(path).WithOperation("Lock")
}

func errNotLockOwner(path string) error {
	return errors.NewFSError(nil, errors.ErrorCodeNotLockOwner, "unlock attempted by a caller that does not hold the lock").WithPath(path).WithOperation("Unlock")
}

func errFilesystemClosed() error {
	return errors.NewFSError(nil, errors.ErrorCodeFilesystemClosed, "filesystem is closed")
}

func errCorruption(msg string) error {
	return errors.NewFSError(nil, errors.ErrorCodeCorruption, msg)
}

func errNoSpace() error {
	return errors.NewFSError(nil, errors.ErrorCodeNoSpace, "no mounted segment has room, even after GC")
}
