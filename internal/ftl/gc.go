package ftl

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// maxConcurrentBucketReads bounds how many log-zone reads a single GC
// merge step fans out at once, via a weighted semaphore shared by the
// errgroup below.
const maxConcurrentBucketReads = 16

// gcLoop is the single background GC worker. It runs an explicit
// {idle -> requested -> running -> idle} state machine rather than
// gating on a bare boolean, so a spurious condition-variable wakeup can
// never start a cycle nobody asked for.
func (f *FTL) gcLoop() {
	defer close(f.gcExit)

	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		for f.gcState != gcRequested && !f.closed {
			f.gcWake.Wait()
		}
		if f.closed {
			return
		}

		f.gcState = gcRunning
		f.runCycleLocked()
		f.gcState = gcIdle
		f.gcDone.Broadcast()
	}
}

// runCycleLocked performs one GC pass. It is called with f.mu held for the
// entire cycle: this serializes GC against both readers and writers,
// trading per-cycle concurrency for the simple correctness guarantee that
// no reader ever observes the window between a cleared logMapping entry
// and its corresponding dataMapping update.
func (f *FTL) runCycleLocked() {
	buckets := make(map[uint32]map[uint64]uint64)
	for lba, phys := range f.logMapping {
		vz := uint32(lba/uint64(f.geom.BlocksPerZone)) + f.logZones
		offset := lba % uint64(f.geom.BlocksPerZone)
		if buckets[vz] == nil {
			buckets[vz] = make(map[uint64]uint64)
		}
		buckets[vz][offset] = phys
	}

	f.logMapping = make(map[uint64]uint64)
	oldStart, oldEnd := f.logZoneStart, f.logZoneEnd

	for vz, bucket := range buckets {
		if err := f.mergeVirtualZoneLocked(vz, bucket); err != nil {
			f.log.Errorw("gc: merge failed for virtual zone", "vz", vz, "error", err)
			continue
		}
	}

	blocksPerLogRegion := uint64(f.logZones) * uint64(f.geom.BlocksPerZone)
	for pos := oldStart; pos < oldEnd; pos += uint64(f.geom.BlocksPerZone) {
		zoneIdx := uint32((pos % blocksPerLogRegion) / uint64(f.geom.BlocksPerZone))
		if err := f.dev.Reset(f.geom.ZoneStartLBA(zoneIdx)); err != nil {
			f.log.Errorw("gc: failed to reset drained log zone", "zone", zoneIdx, "error", err)
		}
	}

	// Every log block written before this cycle is now dead, so the ring
	// is empty. Both pointers jump together to the next zone boundary:
	// the zone holding oldEnd was just reset, and restarting mid-zone
	// would put the ring position ahead of that zone's rewound device
	// write pointer.
	b := uint64(f.geom.BlocksPerZone)
	aligned := (oldEnd + b - 1) / b * b
	f.logZoneStart = aligned
	f.logZoneEnd = aligned

	f.log.Infow("gc cycle complete", "virtualZonesMerged", len(buckets), "logBlocksFreed", oldEnd-oldStart)
}

// mergeVirtualZoneLocked folds one virtual zone's log bucket into a
// fresh data zone image: read the current image (if any), overlay the
// bucketed log blocks, write the result to an empty zone, and retire
// the old one. When no empty zone remains, the zone is rebuilt in
// place from the in-memory staging buffer instead.
func (f *FTL) mergeVirtualZoneLocked(vz uint32, bucket map[uint64]uint64) error {
	oldStart, hadOld := f.dataMapping[vz]

	newPhys, ok := f.findEmptyZoneLocked(vz)
	if !ok {
		// Every data zone holds a live image. Rewrite this virtual
		// zone's own backing zone in place: the merged image is staged
		// in memory first, so the zone can be reset and rewritten from
		// scratch.
		if !hadOld {
			return errNoSpace(vz, "no empty data zone available for GC merge")
		}
		newPhys = f.geom.ZoneOf(oldStart)
	}

	zoneBytes := make([]byte, f.geom.ZoneSizeBytes())
	if hadOld {
		if err := f.dev.Read(oldStart, zoneBytes); err != nil {
			return err
		}
	}

	if err := f.overlayBucket(zoneBytes, bucket); err != nil {
		return err
	}

	oldPhys := f.geom.ZoneOf(oldStart)
	if hadOld && oldPhys == newPhys {
		if err := f.dev.Reset(oldStart); err != nil {
			return err
		}
	}

	newStart := f.geom.ZoneStartLBA(newPhys)
	if _, err := f.dev.Append(newStart, zoneBytes); err != nil {
		return err
	}

	f.zoneStates[newPhys] = zoneFull
	f.dataMapping[vz] = newStart

	if hadOld && oldPhys != newPhys {
		if err := f.dev.Reset(oldStart); err != nil {
			return err
		}
		f.zoneStates[oldPhys] = zoneEmpty
	}

	return nil
}

// overlayBucket reads each bucketed log LBA concurrently into its slot in
// zoneBytes, bounded by a weighted semaphore, preserving the first error
// via errgroup.
func (f *FTL) overlayBucket(zoneBytes []byte, bucket map[uint64]uint64) error {
	if len(bucket) == 0 {
		return nil
	}

	sem := semaphore.NewWeighted(maxConcurrentBucketReads)
	g, ctx := errgroup.WithContext(context.Background())

	lbaSize := uint64(f.geom.LBASize)
	for offset, physLBA := range bucket {
		offset, physLBA := offset, physLBA
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			slot := zoneBytes[offset*lbaSize : (offset+1)*lbaSize]
			return f.dev.Read(physLBA, slot)
		})
	}

	return g.Wait()
}

// findEmptyZoneLocked returns a physical data zone index currently marked
// EMPTY, preferring the zone that identity-maps to `preferred` (so the
// common case never remaps a virtual zone away from its natural home).
func (f *FTL) findEmptyZoneLocked(preferred uint32) (uint32, bool) {
	if state, ok := f.zoneStates[preferred]; ok && state == zoneEmpty {
		return preferred, true
	}
	for vz := f.logZones; vz < f.geom.Zones; vz++ {
		if f.zoneStates[vz] == zoneEmpty {
			return vz, true
		}
	}
	return 0, false
}
