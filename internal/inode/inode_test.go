package inode

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/znsfs/znsfs/internal/block"
	"github.com/znsfs/znsfs/internal/device"
	"github.com/znsfs/znsfs/internal/ftl"
	"github.com/znsfs/znsfs/internal/segment"
)

// fakeCache is the minimal segment cache this package's Cache interface
// needs, backed by a fixed, pre-mounted slice of segments — the same
// shape internal/filesystem's real cache presents, without its mount
// bootstrap and background GC scan.
type fakeCache struct {
	segs []*segment.Segment
}

func (c *fakeCache) SegmentAt(addrStart uint64) (*segment.Segment, error) {
	for _, s := range c.segs {
		if s.AddrStart() == addrStart {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no segment at addr %d", addrStart)
}

func (c *fakeCache) SegmentForOffset(off uint64) (*segment.Segment, error) {
	for _, s := range c.segs {
		if _, ok := s.Owns(off); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no segment owns offset %d", off)
}

func (c *fakeCache) FindNonFullSegment() (*segment.Segment, error) {
	for _, s := range c.segs {
		if s.HasRoom() {
			return s, nil
		}
	}
	for _, s := range c.segs {
		if err := s.OnGC(nil); err != nil {
			return nil, err
		}
		if s.HasRoom() {
			return s, nil
		}
	}
	return nil, fmt.Errorf("disk full")
}

// newTestCache builds a tiny stack of dataSegments data segments: real device, real
// FTL, real segments, small enough that a handful of writes force
// multi-block and multi-segment chaining.
func newTestCache(t *testing.T, dataSegments int) (*fakeCache, func()) {
	t.Helper()

	logger := zap.NewNop().Sugar()
	logZones := uint32(1)
	zones := logZones + uint32(dataSegments)
	blocksPerZone := uint32(8)

	dev, err := device.Open(&device.Config{
		Geometry: device.Geometry{Zones: zones, BlocksPerZone: blocksPerZone, LBASize: 512, MDTS: 1024},
		ImageDir: filepath.Join(t.TempDir(), "zones"),
		Prefix:   "zone",
		Logger:   logger,
	})
	require.NoError(t, err)

	f, err := ftl.Init(&ftl.Config{Device: dev, Logger: logger, LogZones: logZones, GCWatermark: 0.25})
	require.NoError(t, err)

	counter := segment.NewIDCounter(0)
	cache := &fakeCache{}
	for i := 0; i < dataSegments; i++ {
		seg, err := segment.New(&segment.Config{
			Index:         uint32(i),
			LBASize:       512,
			BlocksPerZone: blocksPerZone,
			Device:        f,
			Counter:       counter,
			Logger:        logger,
		})
		require.NoError(t, err)
		cache.segs = append(cache.segs, seg)
	}

	cleanup := func() {
		_ = f.Deinit()
		_ = dev.Close()
	}
	return cache, cleanup
}

func TestCreateChildAndLookUp(t *testing.T) {
	cache, cleanup := newTestCache(t, 1)
	defer cleanup()

	root, err := cache.segs[0].AllocateNew(block.DirInode, "/")
	require.NoError(t, err)

	child, err := CreateChild(cache, root, block.FileInode, "hello.txt", false, 42)
	require.NoError(t, err)
	require.NotNil(t, child)

	found, err := DirectoryLookUp(cache, root, "hello.txt")
	require.NoError(t, err)
	require.Equal(t, child.ID, found.ID)

	names, err := ReadChildren(cache, root)
	require.NoError(t, err)
	require.Equal(t, []string{"hello.txt"}, names)
}

func TestDataAppendAndRead(t *testing.T) {
	cache, cleanup := newTestCache(t, 1)
	defer cleanup()

	root, err := cache.segs[0].AllocateNew(block.DirInode, "/")
	require.NoError(t, err)

	file, err := CreateChild(cache, root, block.FileInode, "data.bin", false, 1)
	require.NoError(t, err)

	payload := []byte("the quick brown fox jumps over the lazy dog")
	require.NoError(t, DataAppend(cache, file, payload))

	buf := make([]byte, len(payload))
	n, err := Read(cache, file, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, buf)
}

func TestDataAppendSpansSegmentsViaChaining(t *testing.T) {
	cache, cleanup := newTestCache(t, 2)
	defer cleanup()

	root, err := cache.segs[0].AllocateNew(block.DirInode, "/")
	require.NoError(t, err)

	file, err := CreateChild(cache, root, block.FileInode, "big.bin", false, 1)
	require.NoError(t, err)

	// Each data segment here is 4096 bytes, with the root inode, the
	// file's inode, and a directory entry already ahead of the data;
	// 4000 bytes overflows what segment 0 can hold and forces DataAppend
	// to splice a chained FILE_INODE into the second segment.
	payload := make([]byte, 4000)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	require.NoError(t, DataAppend(cache, file, payload))
	require.NotZero(t, file.Inode.Next)

	buf := make([]byte, len(payload))
	n, err := Read(cache, file, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, buf)
}

func TestRenameChild(t *testing.T) {
	cache, cleanup := newTestCache(t, 1)
	defer cleanup()

	root, err := cache.segs[0].AllocateNew(block.DirInode, "/")
	require.NoError(t, err)

	_, err = CreateChild(cache, root, block.FileInode, "old.txt", false, 1)
	require.NoError(t, err)

	require.NoError(t, RenameChild(cache, root, "old.txt", "new.txt"))

	_, err = DirectoryLookUp(cache, root, "old.txt")
	require.Error(t, err)

	found, err := DirectoryLookUp(cache, root, "new.txt")
	require.NoError(t, err)
	require.NotNil(t, found)
}

func TestFreeRemovesInodeFromSegment(t *testing.T) {
	cache, cleanup := newTestCache(t, 1)
	defer cleanup()

	root, err := cache.segs[0].AllocateNew(block.DirInode, "/")
	require.NoError(t, err)

	child, err := CreateChild(cache, root, block.FileInode, "gone.txt", false, 1)
	require.NoError(t, err)

	require.NoError(t, Free(cache, child))

	_, ok := cache.segs[0].InodeOffset(child.ID)
	require.False(t, ok)
}

func TestSplicedChainLinksBackAndForth(t *testing.T) {
	cache, cleanup := newTestCache(t, 2)
	defer cleanup()

	root, err := cache.segs[0].AllocateNew(block.DirInode, "/")
	require.NoError(t, err)

	file, err := CreateChild(cache, root, block.FileInode, "big.bin", false, 1)
	require.NoError(t, err)

	payload := make([]byte, 4000)
	require.NoError(t, DataAppend(cache, file, payload))
	require.NotZero(t, file.Inode.Next)

	// Following Next and then Prev must return to the origin inode.
	next, err := resolveBlock(cache, file.Inode.Next)
	require.NoError(t, err)
	require.Equal(t, file.GlobalOffset, next.Inode.Prev)
	back, err := resolveBlock(cache, next.Inode.Prev)
	require.NoError(t, err)
	require.Equal(t, file.ID, back.ID)
}

func TestDeleteChildThenSpaceReusableAfterGC(t *testing.T) {
	cache, cleanup := newTestCache(t, 1)
	defer cleanup()

	root, err := cache.segs[0].AllocateNew(block.DirInode, "/")
	require.NoError(t, err)

	file, err := CreateChild(cache, root, block.FileInode, "big.bin", false, 1)
	require.NoError(t, err)

	// Fill most of the lone segment, delete the file, compact, and the
	// reclaimed space must accept a second file of the same size.
	payload := make([]byte, 1200)
	require.NoError(t, DataAppend(cache, file, payload))
	require.NoError(t, DeleteChild(cache, root, "big.bin"))
	require.NoError(t, cache.segs[0].OnGC(nil))

	again, err := CreateChild(cache, root, block.FileInode, "again.bin", false, 2)
	require.NoError(t, err)
	require.NoError(t, DataAppend(cache, again, payload))

	buf := make([]byte, len(payload))
	n, err := Read(cache, again, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
}

func TestReadChildrenSkipsTombstonedEntries(t *testing.T) {
	cache, cleanup := newTestCache(t, 1)
	defer cleanup()

	root, err := cache.segs[0].AllocateNew(block.DirInode, "/")
	require.NoError(t, err)

	_, err = CreateChild(cache, root, block.FileInode, "keep.txt", false, 1)
	require.NoError(t, err)
	_, err = CreateChild(cache, root, block.FileInode, "drop.txt", false, 2)
	require.NoError(t, err)

	require.NoError(t, DeleteChild(cache, root, "drop.txt"))

	names, err := ReadChildren(cache, root)
	require.NoError(t, err)
	require.Equal(t, []string{"keep.txt"}, names)

	_, err = DirectoryLookUp(cache, root, "drop.txt")
	require.Error(t, err)
}

func TestReadPastEndOfFileIsShort(t *testing.T) {
	cache, cleanup := newTestCache(t, 1)
	defer cleanup()

	root, err := cache.segs[0].AllocateNew(block.DirInode, "/")
	require.NoError(t, err)
	file, err := CreateChild(cache, root, block.FileInode, "short.txt", false, 1)
	require.NoError(t, err)
	require.NoError(t, DataAppend(cache, file, []byte("abcde")))

	// Straddling the end yields the available tail, not an error.
	buf := make([]byte, 16)
	n, err := Read(cache, file, buf, 3)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "de", string(buf[:n]))
}

func TestLookupSurvivesChildSegmentCompaction(t *testing.T) {
	cache, cleanup := newTestCache(t, 2)
	defer cleanup()

	root, err := cache.segs[0].AllocateNew(block.DirInode, "/")
	require.NoError(t, err)

	// Fill segment 0 past the point where another inode fits, so the
	// next child lands in segment 1 while its directory entry stays in
	// segment 0's DIR_DATA.
	filler, err := CreateChild(cache, root, block.FileInode, "filler.bin", false, 1)
	require.NoError(t, err)
	require.NoError(t, DataAppend(cache, filler, make([]byte, 1300)))

	// A throwaway inode ahead of the child makes the child relocate
	// when its segment compacts.
	scratch, err := cache.segs[1].AllocateNew(block.FileInode, "")
	require.NoError(t, err)

	child, err := CreateChild(cache, root, block.FileInode, "child.bin", false, 2)
	require.NoError(t, err)
	require.Equal(t, cache.segs[1].AddrStart(), child.SegmentAddr)
	require.NoError(t, DataAppend(cache, child, []byte("payload")))

	oldOffset := child.GlobalOffset
	require.NoError(t, cache.segs[1].FreeInode(scratch.ID))
	require.NoError(t, cache.segs[1].OnGC(nil))
	require.NotEqual(t, oldOffset, child.GlobalOffset)

	// The entry in segment 0 still stores the child's old offset; the
	// lookup must resolve the relocated inode all the same.
	found, err := DirectoryLookUp(cache, root, "child.bin")
	require.NoError(t, err)
	require.Equal(t, child.ID, found.ID)

	buf := make([]byte, 7)
	n, err := Read(cache, found, buf, 0)
	require.NoError(t, err)
	require.Equal(t, "payload", string(buf[:n]))
}
