package ftl

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/znsfs/znsfs/internal/device"
	"github.com/znsfs/znsfs/pkg/errors"
)

func newTestFTL(t *testing.T, zones, blocksPerZone, logZones uint32, watermark float64) *FTL {
	t.Helper()

	dev, err := device.Open(&device.Config{
		Geometry: device.Geometry{Zones: zones, BlocksPerZone: blocksPerZone, LBASize: 512, MDTS: 1024},
		ImageDir: filepath.Join(t.TempDir(), "zones"),
		Prefix:   "zone",
		Logger:   zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })

	f, err := Init(&Config{Device: dev, Logger: zap.NewNop().Sugar(), LogZones: logZones, GCWatermark: watermark})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Deinit() })

	return f
}

func TestWriteThenReadSameAddress(t *testing.T) {
	f := newTestFTL(t, 6, 4, 2, 0.25)

	payload := make([]byte, 512)
	for i := range payload {
		payload[i] = 0xAB
	}

	require.NoError(t, f.Write(0, payload))

	out := make([]byte, 512)
	require.NoError(t, f.Read(0, out))
	assert.Equal(t, payload, out)
}

func TestMostRecentWriteWins(t *testing.T) {
	f := newTestFTL(t, 6, 4, 2, 0.25)

	v1 := make([]byte, 512)
	v2 := make([]byte, 512)
	for i := range v1 {
		v1[i] = 1
		v2[i] = 2
	}

	require.NoError(t, f.Write(0, v1))
	require.NoError(t, f.Write(0, v2))

	out := make([]byte, 512)
	require.NoError(t, f.Read(0, out))
	assert.Equal(t, v2, out)
}

func TestReadUnmappedLBAFails(t *testing.T) {
	f := newTestFTL(t, 6, 4, 2, 0.25)

	out := make([]byte, 512)
	err := f.Read(0, out)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorCodeMappingMiss, errors.GetErrorCode(err))
}

func TestGCTriggersUnderWatermarkAndPreservesData(t *testing.T) {
	// 2 log zones * 4 blocks = 8 log blocks total; watermark 0.5 * B(4) = 2.
	f := newTestFTL(t, 6, 4, 2, 0.5)

	written := make(map[uint64][]byte)
	for i := uint64(0); i < 8; i++ {
		buf := make([]byte, 512)
		for j := range buf {
			buf[j] = byte(i + 1)
		}
		require.NoError(t, f.Write(i, buf))
		written[i] = buf
	}

	for lba, want := range written {
		out := make([]byte, 512)
		require.NoError(t, f.Read(lba, out), "lba %d", lba)
		assert.Equal(t, want, out, "lba %d", lba)
	}
}

func TestWriteRejectsUnalignedBuffer(t *testing.T) {
	f := newTestFTL(t, 6, 4, 2, 0.25)
	err := f.Write(0, make([]byte, 511))
	require.Error(t, err)
	assert.Equal(t, errors.ErrorCodeUnaligned, errors.GetErrorCode(err))
}

func TestWriteZeroBytesIsNoop(t *testing.T) {
	f := newTestFTL(t, 6, 4, 2, 0.25)
	require.NoError(t, f.Write(0, nil))
}

func TestConcurrentWritesToDisjointRangesSurviveGC(t *testing.T) {
	// (20 - 4) data zones * 50 blocks/zone = 800-block address space, wide
	// enough for two disjoint 200-block writer ranges.
	f := newTestFTL(t, 20, 50, 4, 0.25)

	const perWriter = 200
	var wg sync.WaitGroup
	errs := make(chan error, perWriter*2)

	writer := func(base uint64) {
		defer wg.Done()
		for i := uint64(0); i < perWriter; i++ {
			buf := make([]byte, 512)
			for j := range buf {
				buf[j] = byte((base + i) % 251)
			}
			if err := f.Write(base+i, buf); err != nil {
				errs <- fmt.Errorf("write %d: %w", base+i, err)
			}
		}
	}

	wg.Add(2)
	go writer(0)
	go writer(300)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatal(err)
	}

	check := func(base uint64) {
		for i := uint64(0); i < perWriter; i++ {
			out := make([]byte, 512)
			require.NoError(t, f.Read(base+i, out))
			for j := range out {
				assert.Equal(t, byte((base+i)%251), out[j])
			}
		}
	}
	check(0)
	check(300)
}

func TestWriteSpanningLogZoneBoundarySplitsAppends(t *testing.T) {
	// 2 log zones * 4 blocks: a 6-block write cannot fit one zone_append
	// and must split at the zone boundary, yet read back contiguously.
	f := newTestFTL(t, 8, 4, 2, 0.25)

	payload := make([]byte, 6*512)
	for i := range payload {
		payload[i] = byte(i % 253)
	}
	require.NoError(t, f.Write(0, payload))

	out := make([]byte, len(payload))
	require.NoError(t, f.Read(0, out))
	assert.Equal(t, payload, out)
}

func TestFreeLogSpaceRestoredAfterGC(t *testing.T) {
	f := newTestFTL(t, 6, 4, 2, 0.5)

	total := uint64(2 * 4)
	f.mu.Lock()
	assert.Equal(t, total, f.freeLogBlocksLocked())
	f.mu.Unlock()

	// Six writes leave exactly the watermark's worth of free blocks; the
	// seventh must block on a full GC drain before landing, so the ring
	// comes out of it holding only that one write.
	buf := make([]byte, 512)
	for i := uint64(0); i < 7; i++ {
		require.NoError(t, f.Write(i, buf))
	}

	f.mu.Lock()
	free := f.freeLogBlocksLocked()
	f.mu.Unlock()
	assert.Equal(t, total-1, free)
}

func TestOverwriteSurvivesForcedGCCycles(t *testing.T) {
	f := newTestFTL(t, 6, 4, 2, 0.5)

	x := make([]byte, 512)
	y := make([]byte, 512)
	for i := range x {
		x[i] = 0x11
		y[i] = 0x22
	}

	require.NoError(t, f.Write(0, x))
	require.NoError(t, f.Write(0, y))

	// Push enough distinct blocks through the ring that the original
	// writes to LBA 0 are merged into a data zone behind our back.
	filler := make([]byte, 512)
	for i := uint64(1); i < 8; i++ {
		for round := 0; round < 3; round++ {
			filler[0] = byte(round)
			require.NoError(t, f.Write(i, filler))
		}
	}

	out := make([]byte, 512)
	require.NoError(t, f.Read(0, out))
	assert.Equal(t, y, out)
}
