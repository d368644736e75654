package ftl

import (
	"sync"

	"go.uber.org/zap"

	"github.com/znsfs/znsfs/internal/device"
	"github.com/znsfs/znsfs/pkg/errors"
)

// Config holds everything required to bring up an FTL instance.
type Config struct {
	Device      device.Device
	Logger      *zap.SugaredLogger
	LogZones    uint32
	GCWatermark float64
}

// FTL is the hybrid log/data zone flash translation layer. It presents
// a randomly-writable LBA space of capacity (zones - logZones) *
// blocksPerZone * lbaSize bytes over an append-only ZNS device.
type FTL struct {
	dev    device.Device
	geom   device.Geometry
	log    *zap.SugaredLogger
	closed bool

	logZones    uint32
	gcWatermark float64

	mu sync.Mutex

	// logMapping maps an external LBA to the physical LBA most recently
	// written for it. Absence means "not mapped" — see entryInvalid.
	logMapping map[uint64]uint64

	// dataMapping maps a virtual zone number (lba/blocksPerZone +
	// logZones, so its domain is [logZones, zones)) to the physical
	// start LBA of the data zone currently backing it.
	dataMapping map[uint32]uint64

	// zoneStates tracks EMPTY/FULL for every physical data-area zone
	// index, keyed the same way dataMapping's values resolve to a zone
	// index via geom.ZoneOf.
	zoneStates map[uint32]zoneState

	logZoneStart uint64 // ring pointer, blocks, monotonically advancing
	logZoneEnd   uint64

	gcState gcPhase
	gcWake  *sync.Cond // GC worker waits here for gcState == gcRequested
	gcDone  *sync.Cond // writers wait here for free space after a GC cycle

	gcExit chan struct{}
}

// Init brings up the FTL over an already-open device, validating
// geometry and starting from blank mapping state. Mapping tables live
// only in memory and are not recovered from media, so after Init every
// LBA reads as unmapped until it is written through this instance.
func Init(cfg *Config) (*FTL, error) {
	if cfg == nil || cfg.Device == nil || cfg.Logger == nil {
		return nil, errInvalidArgument("ftl config, device, and logger are required")
	}

	geom := cfg.Device.Geometry()
	if err := geom.Validate(cfg.LogZones); err != nil {
		return nil, err
	}
	if cfg.GCWatermark < 0 || cfg.GCWatermark > 1 {
		return nil, errInvalidArgument("gc_watermark must be in [0, 1]")
	}
	if uint64(cfg.GCWatermark*float64(geom.BlocksPerZone)) >= uint64(cfg.LogZones)*uint64(geom.BlocksPerZone) {
		return nil, errInvalidArgument("gc_watermark leaves no usable log space for the configured log zone count")
	}

	f := &FTL{
		dev:         cfg.Device,
		geom:        geom,
		log:         cfg.Logger,
		logZones:    cfg.LogZones,
		gcWatermark: cfg.GCWatermark,
		logMapping:  make(map[uint64]uint64),
		dataMapping: make(map[uint32]uint64),
		zoneStates:  make(map[uint32]zoneState),
		gcExit:      make(chan struct{}),
	}
	f.gcWake = sync.NewCond(&f.mu)
	f.gcDone = sync.NewCond(&f.mu)

	for vz := cfg.LogZones; vz < geom.Zones; vz++ {
		f.zoneStates[vz] = zoneEmpty
	}

	cfg.Logger.Infow(
		"ftl initialized",
		"zones", geom.Zones,
		"logZones", cfg.LogZones,
		"dataZones", geom.Zones-cfg.LogZones,
		"gcWatermark", cfg.GCWatermark,
		"capacityBytes", f.Capacity(),
	)

	go f.gcLoop()

	return f, nil
}

// Capacity returns the byte size of the address space the FTL presents.
func (f *FTL) Capacity() uint64 {
	dataZones := uint64(f.geom.Zones - f.logZones)
	return dataZones * uint64(f.geom.BlocksPerZone) * uint64(f.geom.LBASize)
}

func (f *FTL) blockCapacity() uint64 {
	return uint64(f.geom.Zones-f.logZones) * uint64(f.geom.BlocksPerZone)
}

// Read resolves and fetches the blocks covering [lba, lba+len(buf)/L).
func (f *FTL) Read(lba uint64, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if uint32(len(buf))%f.geom.LBASize != 0 {
		return errors.NewFTLError(nil, errors.ErrorCodeUnaligned, "read size must be a multiple of the LBA size")
	}

	blocks := uint64(len(buf)) / uint64(f.geom.LBASize)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return errClosed()
	}
	resolved := make([]uint64, blocks)
	for i := uint64(0); i < blocks; i++ {
		cur := lba + i
		if cur >= f.blockCapacity() {
			f.mu.Unlock()
			return errors.NewFTLError(nil, errors.ErrorCodeNotFound, "LBA beyond FTL capacity").WithLBA(cur)
		}
		if p, ok := f.logMapping[cur]; ok && p&entryInvalid == 0 {
			resolved[i] = p
			continue
		}
		vz := cur/uint64(f.geom.BlocksPerZone) + uint64(f.logZones)
		start, ok := f.dataMapping[uint32(vz)]
		if !ok {
			f.mu.Unlock()
			return errMappingMiss(cur)
		}
		resolved[i] = start + cur%uint64(f.geom.BlocksPerZone)
	}
	f.mu.Unlock()

	for i := uint64(0); i < blocks; {
		j := i + 1
		for j < blocks && resolved[j] == resolved[j-1]+1 {
			j++
		}
		sub := buf[i*uint64(f.geom.LBASize) : j*uint64(f.geom.LBASize)]
		if err := f.dev.Read(resolved[i], sub); err != nil {
			return err
		}
		i = j
	}

	return nil
}

// Write appends len(buf)/L blocks at external address lba through the
// log ring, splitting at log-zone boundaries so no single zone_append
// ever spans two zones, and waiting on GC when free log space drops to
// the watermark.
func (f *FTL) Write(lba uint64, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if uint32(len(buf))%f.geom.LBASize != 0 {
		return errors.NewFTLError(nil, errors.ErrorCodeUnaligned, "write size must be a multiple of the LBA size")
	}

	blocksNeeded := uint64(len(buf)) / uint64(f.geom.LBASize)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return errClosed()
	}
	if lba+blocksNeeded > f.blockCapacity() {
		return errors.NewFTLError(nil, errors.ErrorCodeInvalidInput, "write beyond FTL capacity").WithLBA(lba)
	}

	blocksPerLogRegion := uint64(f.logZones) * uint64(f.geom.BlocksPerZone)
	watermarkBlocks := uint64(f.gcWatermark * float64(f.geom.BlocksPerZone))

	if blocksNeeded > blocksPerLogRegion {
		return errors.NewFTLError(nil, errors.ErrorCodeInvalidInput, "write exceeds total log-zone capacity").WithLBA(lba)
	}

	// Wait until the ring clears both the GC watermark and this write's
	// own footprint; a write admitted with less free space than it needs
	// would lap un-drained log zones.
	for f.freeLogBlocksLocked() <= watermarkBlocks || f.freeLogBlocksLocked() < blocksNeeded {
		if f.gcState == gcIdle {
			f.gcState = gcRequested
			f.gcWake.Signal()
		}
		f.gcDone.Wait()
		if f.closed {
			return errClosed()
		}
	}

	bufOff := uint64(0)
	remaining := blocksNeeded
	consumed := uint64(0)

	for remaining > 0 {
		ringPos := f.logZoneEnd % blocksPerLogRegion
		zoneIdx := uint32(ringPos / uint64(f.geom.BlocksPerZone))
		offsetInZone := ringPos % uint64(f.geom.BlocksPerZone)
		available := uint64(f.geom.BlocksPerZone) - offsetInZone
		chunkBlocks := available
		if chunkBlocks > remaining {
			chunkBlocks = remaining
		}

		chunkBytes := chunkBlocks * uint64(f.geom.LBASize)
		sub := buf[bufOff : bufOff+chunkBytes]

		p, err := f.dev.Append(f.geom.ZoneStartLBA(zoneIdx), sub)
		if err != nil {
			return err
		}

		for i := uint64(0); i < chunkBlocks; i++ {
			f.logMapping[lba+consumed+i] = p + i
		}

		f.logZoneEnd += chunkBlocks
		bufOff += chunkBytes
		remaining -= chunkBlocks
		consumed += chunkBlocks
	}

	return nil
}

// Deinit stops the GC worker. It does not close the underlying device.
func (f *FTL) Deinit() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.gcDone.Broadcast()
	f.gcWake.Signal()
	f.mu.Unlock()

	<-f.gcExit

	f.log.Infow("ftl deinitialized")
	return nil
}

func (f *FTL) freeLogBlocksLocked() uint64 {
	total := uint64(f.logZones) * uint64(f.geom.BlocksPerZone)
	used := f.logZoneEnd - f.logZoneStart
	if used > total {
		return 0
	}
	return total - used
}
