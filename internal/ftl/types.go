// Package ftl implements the hybrid log/data zone flash translation layer
// that turns an append-only ZNS device into a randomly-writable, stably
// addressed block device. It owns the two address maps (logMapping,
// dataMapping), the zone-state table, and the background GC worker that
// merges log-zone contents into data zones.
package ftl

import "github.com/znsfs/znsfs/internal/device"

// entryInvalid is the high-bit sentinel a logMapping entry carries to
// mark itself stale. This implementation never stores invalid entries —
// an absent key already means "not mapped" — but the read path still
// treats an entry with the bit set as absent, so the two encodings stay
// interchangeable.
const entryInvalid uint64 = 1 << 63

// zoneState tracks each data-area zone as either EMPTY (reset,
// write-pointer-at-zero) or FULL (holds a live image). Log zones aren't
// tracked here; the ring pointers alone describe their state.
type zoneState int

const (
	zoneEmpty zoneState = iota
	zoneFull
)

func (s zoneState) String() string {
	if s == zoneEmpty {
		return "EMPTY"
	}
	return "FULL"
}

// gcPhase is the GC worker's explicit state machine. Writers wait for
// idle, the worker waits for requested; neither can be fooled by a
// spurious wakeup into acting on a stale request.
type gcPhase int

const (
	gcIdle gcPhase = iota
	gcRequested
	gcRunning
)

// Geometry re-exports the device geometry so callers of this package
// don't need to import internal/device directly for read-only inspection.
type Geometry = device.Geometry
