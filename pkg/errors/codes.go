package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any boundary in the storage stack.
const (
	// ErrorCodeIO represents failures in input/output operations: device
	// reads/appends/resets, segment image access, or any other syscall
	// level failure.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents caller errors where the provided
	// data doesn't meet the system's requirements: unaligned LBA ranges,
	// oversized names, malformed paths.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected failures that don't fit
	// into any other category: invariant violations, assertion failures.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"

	// ErrorCodeNotFound represents a missing path, inode, or LBA mapping.
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrorCodeNoSpace represents exhaustion of segment, zone, or log
	// space.
	ErrorCodeNoSpace ErrorCode = "NO_SPACE"

	// ErrorCodeCorruption represents an on-media record that fails to
	// decode: an unknown block type tag, a truncated record.
	ErrorCodeCorruption ErrorCode = "CORRUPTION"
)

// Device-specific error codes cover the ZNS device facade: zone geometry
// violations, append-pointer misuse, and reset failures.
const (
	// ErrorCodeZoneFull indicates a zone_append would cross the end of
	// its zone's write-pointer region.
	ErrorCodeZoneFull ErrorCode = "ZONE_FULL"

	// ErrorCodeUnaligned indicates an I/O size or offset that isn't a
	// multiple of the device's LBA size.
	ErrorCodeUnaligned ErrorCode = "UNALIGNED_IO"

	// ErrorCodeInvalidGeometry indicates a device geometry that cannot
	// support the requested log_zones/data-zone split.
	ErrorCodeInvalidGeometry ErrorCode = "INVALID_GEOMETRY"
)

// FTL-specific error codes cover the log/data mapping engine and its GC worker.
const (
	// ErrorCodeMappingMiss indicates an LBA resolves through neither the
	// log mapping nor the data mapping.
	ErrorCodeMappingMiss ErrorCode = "MAPPING_MISS"

	// ErrorCodeGCFailed indicates a garbage-collection cycle could not
	// make progress on a virtual zone because no empty data zone was
	// available.
	ErrorCodeGCFailed ErrorCode = "GC_FAILED"

	// ErrorCodeFTLClosed indicates an operation was attempted after deinit.
	ErrorCodeFTLClosed ErrorCode = "FTL_CLOSED"
)

// Segment-specific error codes extend the base taxonomy to handle the
// unique failure modes of the on-media segment container: block
// allocation, flush, and compaction.
const (
	// ErrorCodeSegmentCorrupted indicates a segment's header or block
	// stream has been damaged or is internally inconsistent.
	ErrorCodeSegmentCorrupted ErrorCode = "SEGMENT_CORRUPTED"

	// ErrorCodeHeaderReadFailure occurs when the system cannot read the
	// inode-map header of a segment, preventing access to the entire
	// segment.
	ErrorCodeHeaderReadFailure ErrorCode = "HEADER_READ_FAILURE"

	// ErrorCodeBlockReadFailure indicates a problem materializing a
	// specific block after a successful header read.
	ErrorCodeBlockReadFailure ErrorCode = "BLOCK_READ_FAILURE"

	// ErrorCodeSegmentFull indicates a segment has no room for the
	// requested allocation.
	ErrorCodeSegmentFull ErrorCode = "SEGMENT_FULL"

	// ErrorCodePermissionDenied indicates insufficient permissions to
	// access the device image backing a segment.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates the host filesystem backing the
	// simulated device has run out of space.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates the host filesystem backing
	// the simulated device is mounted read-only.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"
)

// Filesystem-specific error codes address the namespace/inode layer:
// path resolution, locking, and chain traversal.
const (
	// ErrorCodePathNotFound indicates a path component could not be
	// resolved to an inode.
	ErrorCodePathNotFound ErrorCode = "PATH_NOT_FOUND"

	// ErrorCodeNameTooLong indicates a path component exceeds
	// MAX_NAME_LENGTH bytes.
	ErrorCodeNameTooLong ErrorCode = "NAME_TOO_LONG"

	// ErrorCodeNotADirectory indicates a path component that should be a
	// directory resolved to a file inode instead.
	ErrorCodeNotADirectory ErrorCode = "NOT_A_DIRECTORY"

	// ErrorCodeNotAFile indicates an operation that requires a regular
	// file (data append, random read) was given a directory inode instead.
	ErrorCodeNotAFile ErrorCode = "NOT_A_FILE"

	// ErrorCodeAlreadyExists indicates a create/rename target collides
	// with an existing directory entry.
	ErrorCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// ErrorCodeLockHeld indicates a lock file is already held by another
	// caller.
	ErrorCodeLockHeld ErrorCode = "LOCK_HELD"

	// ErrorCodeNotLockOwner indicates an Unlock call from a caller that
	// does not hold the lock.
	ErrorCodeNotLockOwner ErrorCode = "NOT_LOCK_OWNER"

	// ErrorCodeFilesystemClosed indicates an operation was attempted
	// after Unmount.
	ErrorCodeFilesystemClosed ErrorCode = "FILESYSTEM_CLOSED"
)
