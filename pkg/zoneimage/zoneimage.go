// Package zoneimage names and discovers the per-zone backing files the
// simulated ZNS device (internal/device) persists to the host filesystem.
//
// Filename format: prefix_NNNNN_timestamp.zns
//
// Where:
//   - prefix: a configurable string identifying the device image (e.g. "zone").
//   - NNNNN: a zero-padded 5-digit zone index (00000, 00001, ...).
//   - timestamp: a nanosecond-precision Unix timestamp, assigned once when
//     the zone file is first created, kept for traceability across resets.
//   - .zns: a fixed file extension.
//
// Example filenames:
//
//	zone_00000_1678881234567890.zns
//	zone_00017_1678881298765432.zns
package zoneimage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/znsfs/znsfs/pkg/filesys"
)

// GenerateName creates a properly formatted filename for the backing file
// of zone `id`.
func GenerateName(id uint32, prefix string) string {
	if prefix == "" {
		return fmt.Sprintf("INVALID_PREFIX_%05d_%d.zns", id, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s_%05d_%d.zns", prefix, id, time.Now().UnixNano())
}

// ParseZoneID extracts the zone index from a zone image filename.
func ParseZoneID(fullPath, prefix string) (uint32, error) {
	_, filename := filepath.Split(fullPath)

	if !strings.HasPrefix(filename, prefix) {
		return 0, fmt.Errorf("filename %s does not start with expected prefix %s", filename, prefix)
	}

	withoutPrefix := strings.TrimPrefix(filename, prefix)
	withoutExtension := strings.Split(withoutPrefix, ".")[0]

	// Example: "_00017_1678881298765432" -> ["", "00017", "1678881298765432"]
	parts := strings.Split(withoutExtension, "_")
	if len(parts) < 3 {
		return 0, fmt.Errorf("filename %s has unexpected format, expected prefix_ID_timestamp.zns", filename)
	}

	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("failed to parse zone ID %q as integer: %w", parts[1], err)
	}

	return uint32(id), nil
}

// Discover scans `dir` for existing zone image files matching `prefix`
// and returns a map from zone index to full path. It is used at mount
// time to recover an existing device image instead of starting from a
// blank zone set; every zone's file is live simultaneously, so all of
// them are returned rather than only the newest.
func Discover(dir, prefix string) (map[uint32]string, error) {
	pattern := filepath.Join(dir, prefix+"_*.zns")

	matches, err := filesys.ReadDir(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob zone image directory %s: %w", pattern, err)
	}

	found := make(map[uint32]string, len(matches))
	for _, path := range matches {
		id, err := ParseZoneID(path, prefix)
		if err != nil {
			continue
		}
		found[id] = path
	}

	return found, nil
}

// PathFor returns the path a zone's image file would have under `dir`,
// generating a fresh name if one isn't already known via `existing`.
func PathFor(dir, prefix string, id uint32, existing map[uint32]string) string {
	if path, ok := existing[id]; ok {
		return path
	}
	return filepath.Join(dir, GenerateName(id, prefix))
}

// EnsureDir creates the zone image directory if it doesn't already exist.
func EnsureDir(dir string) error {
	return filesys.CreateDir(dir, os.FileMode(0o755), true)
}
