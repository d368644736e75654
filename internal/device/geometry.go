package device

// Geometry describes the immutable shape of a ZNS device: the number
// of zones, the number of LBA-sized blocks per zone, the byte size of
// one LBA, and the maximum data transfer size for a single device I/O.
type Geometry struct {
	Zones         uint32 // Z
	BlocksPerZone uint32 // B
	LBASize       uint32 // L, in bytes
	MDTS          uint32 // max bytes per single device I/O
}

// ZoneSizeBytes returns the usable byte capacity of a single zone.
func (g Geometry) ZoneSizeBytes() uint64 {
	return uint64(g.BlocksPerZone) * uint64(g.LBASize)
}

// CapacityBytes returns the total addressable byte capacity across all
// zones.
func (g Geometry) CapacityBytes() uint64 {
	return uint64(g.Zones) * g.ZoneSizeBytes()
}

// ZoneOf returns the zone index containing the given LBA.
func (g Geometry) ZoneOf(lba uint64) uint32 {
	return uint32(lba / uint64(g.BlocksPerZone))
}

// ZoneStartLBA returns the first LBA of the given zone index.
func (g Geometry) ZoneStartLBA(zoneIdx uint32) uint64 {
	return uint64(zoneIdx) * uint64(g.BlocksPerZone)
}

// OffsetInZone returns the block offset of lba within its zone.
func (g Geometry) OffsetInZone(lba uint64) uint64 {
	return lba % uint64(g.BlocksPerZone)
}

// Validate checks that the geometry can support a device with
// `logZones` reserved log zones.
func (g Geometry) Validate(logZones uint32) error {
	if g.Zones == 0 || g.BlocksPerZone == 0 || g.LBASize == 0 {
		return errInvalidGeometry("device geometry must have non-zero zones, blocks-per-zone, and LBA size")
	}
	if g.MDTS == 0 || g.MDTS%g.LBASize != 0 {
		return errInvalidGeometry("MDTS must be a non-zero multiple of the LBA size")
	}
	if logZones >= g.Zones {
		return errInvalidGeometry("log_zones must leave at least one data zone")
	}
	return nil
}
