// Package device provides the ZNS device facade the FTL consumes:
// zone_report (via Geometry), zone_reset, zone_append, and read
// primitives, plus MDTS-aware chunking for large I/O. A real NVMe/ZNS
// driver lives outside this module; this package supplies a
// host-file-backed simulator that honors the same contract so the FTL,
// and its tests, have a concrete device to run against.
package device

import (
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/znsfs/znsfs/pkg/errors"
	"github.com/znsfs/znsfs/pkg/zoneimage"
)

// Device is the narrow interface the FTL depends on. It exposes only
// what a zoned device offers — no host-filesystem detail leaks through.
type Device interface {
	// Geometry returns the device's immutable shape.
	Geometry() Geometry

	// Read fills buf from the given logical block address. len(buf) must
	// be a multiple of the LBA size.
	Read(lba uint64, buf []byte) error

	// Append writes buf to the current write pointer of the zone
	// starting at zoneSLBA, returning the LBA the write began at.
	// zoneSLBA must be a zone's start LBA, and len(buf) must be a
	// multiple of the LBA size and must not exceed the zone's remaining
	// capacity.
	Append(zoneSLBA uint64, buf []byte) (uint64, error)

	// Reset resets the zone starting at zoneSLBA to empty, rewinding its
	// write pointer to zero.
	Reset(zoneSLBA uint64) error

	// Close releases the device's host resources.
	Close() error
}

// Config holds the parameters needed to open or create a simulated device.
type Config struct {
	Geometry   Geometry
	ImageDir   string // host directory holding per-zone backing files
	Prefix     string // filename prefix for zone image files
	ForceReset bool   // wipe any existing image and start blank
	Logger     *zap.SugaredLogger
}

// simDevice is a host-file-backed ZNS simulator: one backing file per
// zone, each with an out-of-band header tracking its write pointer.
type simDevice struct {
	geometry Geometry
	dir      string
	prefix   string
	log      *zap.SugaredLogger

	mu    sync.RWMutex
	zones []*zoneFile
}

// Open creates or recovers a simulated device at cfg.ImageDir.
func Open(cfg *Config) (Device, error) {
	if cfg == nil || cfg.Logger == nil {
		return nil, errors.NewDeviceError(nil, errors.ErrorCodeInvalidInput, "device config and logger are required")
	}
	if err := cfg.Geometry.Validate(0); err != nil {
		return nil, err
	}

	if cfg.ForceReset {
		cfg.Logger.Infow("force_reset requested, wiping existing device image", "dir", cfg.ImageDir)
		if err := wipeDir(cfg.ImageDir); err != nil {
			return nil, err
		}
	}

	if err := zoneimage.EnsureDir(cfg.ImageDir); err != nil {
		return nil, errors.ClassifyDirectoryCreationError(err, cfg.ImageDir)
	}

	existing, err := zoneimage.Discover(cfg.ImageDir, cfg.Prefix)
	if err != nil {
		return nil, errors.NewDeviceError(err, errors.ErrorCodeIO, "failed to discover existing zone images").WithDetail("dir", cfg.ImageDir)
	}

	d := &simDevice{
		geometry: cfg.Geometry,
		dir:      cfg.ImageDir,
		prefix:   cfg.Prefix,
		log:      cfg.Logger,
		zones:    make([]*zoneFile, cfg.Geometry.Zones),
	}

	for i := uint32(0); i < cfg.Geometry.Zones; i++ {
		path := zoneimage.PathFor(cfg.ImageDir, cfg.Prefix, i, existing)
		zf, err := openZoneFile(path, uint64(cfg.Geometry.BlocksPerZone), cfg.Geometry.LBASize)
		if err != nil {
			d.closeOpened(i)
			return nil, err
		}
		d.zones[i] = zf
	}

	cfg.Logger.Infow(
		"device opened",
		"zones", cfg.Geometry.Zones,
		"blocksPerZone", cfg.Geometry.BlocksPerZone,
		"lbaSize", cfg.Geometry.LBASize,
		"mdts", cfg.Geometry.MDTS,
		"capacityBytes", cfg.Geometry.CapacityBytes(),
	)

	return d, nil
}

func (d *simDevice) closeOpened(upTo uint32) {
	for i := uint32(0); i < upTo; i++ {
		if d.zones[i] != nil {
			d.zones[i].close()
		}
	}
}

func wipeDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.NewDeviceError(err, errors.ErrorCodeIO, "failed to wipe device image directory").WithDetail("dir", dir)
	}
	return nil
}

func (d *simDevice) Geometry() Geometry {
	return d.geometry
}

func (d *simDevice) zoneAt(idx uint32) *zoneFile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.zones[idx]
}

// Read implements Device.Read. It translates the global LBA range into
// per-zone byte ranges — a read may legitimately span multiple zones,
// since only appends are confined to a single zone — and chunks each
// zone-confined segment to MDTS.
func (d *simDevice) Read(lba uint64, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if uint32(len(buf))%d.geometry.LBASize != 0 {
		return errUnaligned("read size must be a multiple of the LBA size")
	}

	blocksPerZone := uint64(d.geometry.BlocksPerZone)
	remainingBlocks := uint64(len(buf)) / uint64(d.geometry.LBASize)
	cur := lba
	pos := 0

	for remainingBlocks > 0 {
		zoneIdx := d.geometry.ZoneOf(cur)
		if zoneIdx >= d.geometry.Zones {
			return errors.NewDeviceError(nil, errors.ErrorCodeNotFound, "LBA beyond device capacity").WithLBA(cur)
		}
		offInZone := d.geometry.OffsetInZone(cur)
		blocksInZone := blocksPerZone - offInZone
		if blocksInZone > remainingBlocks {
			blocksInZone = remainingBlocks
		}

		zf := d.zoneAt(zoneIdx)
		byteLen := blocksInZone * uint64(d.geometry.LBASize)
		sub := buf[pos : uint64(pos)+byteLen]

		zf.mu.Lock()
		err := chunkedReadAt(zf.file, zf.dataOffset(offInZone, d.geometry.LBASize), sub, d.geometry.MDTS)
		zf.mu.Unlock()
		if err != nil {
			return errors.NewDeviceError(err, errors.ErrorCodeIO, "zone read failed").WithZone(uint32(d.geometry.ZoneStartLBA(zoneIdx))).WithLBA(cur)
		}

		pos += int(byteLen)
		cur += blocksInZone
		remainingBlocks -= blocksInZone
	}

	return nil
}

// Append implements Device.Append.
func (d *simDevice) Append(zoneSLBA uint64, buf []byte) (uint64, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if uint32(len(buf))%d.geometry.LBASize != 0 {
		return 0, errUnaligned("append size must be a multiple of the LBA size")
	}

	zoneIdx := d.geometry.ZoneOf(zoneSLBA)
	if zoneIdx >= d.geometry.Zones || d.geometry.OffsetInZone(zoneSLBA) != 0 {
		return 0, errors.NewDeviceError(nil, errors.ErrorCodeInvalidInput, "zoneSLBA must be a zone start address").WithLBA(zoneSLBA)
	}

	blocks := uint64(len(buf)) / uint64(d.geometry.LBASize)
	zf := d.zoneAt(zoneIdx)

	zf.mu.Lock()
	defer zf.mu.Unlock()

	if zf.writePtr+blocks > zf.capacity {
		return 0, errZoneFull(uint32(zoneSLBA), "zone_append would exceed zone capacity")
	}

	startLBA := zoneSLBA + zf.writePtr
	off := zf.dataOffset(zf.writePtr, d.geometry.LBASize)
	if err := chunkedWriteAt(zf.file, off, buf, d.geometry.MDTS); err != nil {
		return 0, errors.NewDeviceError(err, errors.ErrorCodeIO, "zone append failed").WithZone(uint32(zoneSLBA))
	}

	zf.writePtr += blocks
	if err := zf.persistHeader(); err != nil {
		return 0, err
	}

	return startLBA, nil
}

// Reset implements Device.Reset.
func (d *simDevice) Reset(zoneSLBA uint64) error {
	zoneIdx := d.geometry.ZoneOf(zoneSLBA)
	if zoneIdx >= d.geometry.Zones || d.geometry.OffsetInZone(zoneSLBA) != 0 {
		return errors.NewDeviceError(nil, errors.ErrorCodeInvalidInput, "zoneSLBA must be a zone start address").WithLBA(zoneSLBA)
	}

	zf := d.zoneAt(zoneIdx)
	zf.mu.Lock()
	defer zf.mu.Unlock()

	zf.writePtr = 0
	return zf.persistHeader()
}

// Close releases every zone's backing file handle.
func (d *simDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var first error
	for _, zf := range d.zones {
		if zf == nil {
			continue
		}
		if err := zf.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
