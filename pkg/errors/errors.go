// Package errors gives every layer of the storage stack — the simulated
// ZNS device, the FTL mapping engine, the on-media segment container, and
// the namespace/filesystem layer — a consistent way to report what failed,
// where, and why, instead of an opaque `error`.
//
// Architecture and design philosophy:
//
// The error system is built around a hierarchical structure that starts
// with a foundational baseError and extends into domain-specific error
// types: DeviceError, FTLError, SegmentError, and FSError. Each embeds
// baseError to inherit chaining, structured details, and error codes,
// while adding the context specific to its domain — a device error knows
// which zone and LBA were involved, an FTL error knows which virtual zone
// a mapping lookup targeted, a segment error knows the segment address and
// byte offset, and an FSError knows the path and operation.
//
// StatusOf (see status.go) maps any of these errors to a Status so the
// public API (pkg/znsfs) can collapse any internal failure into the
// three-valued {OK, NotFound, IOError} contract the embedding KV engine
// expects, without every call site re-deriving that mapping.
package errors

import (
	stdErrors "errors"
	"os"
	"syscall"
)

// IsDeviceError checks if the given error is a DeviceError or contains one
// in its error chain.
func IsDeviceError(err error) bool {
	var de *DeviceError
	return stdErrors.As(err, &de)
}

// IsFTLError checks if the given error is an FTLError or contains one in
// its error chain.
func IsFTLError(err error) bool {
	var fe *FTLError
	return stdErrors.As(err, &fe)
}

// IsSegmentError determines if an error is related to segment operations,
// such as block allocation, flush, or compaction.
func IsSegmentError(err error) bool {
	var se *SegmentError
	return stdErrors.As(err, &se)
}

// IsFSError identifies errors that occurred during namespace operations
// such as path resolution, rename, or locking.
func IsFSError(err error) bool {
	var fe *FSError
	return stdErrors.As(err, &fe)
}

// IsValidationError checks if the given error is a ValidationError or
// contains one in its error chain.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}

// AsDeviceError safely extracts a DeviceError from an error chain.
func AsDeviceError(err error) (*DeviceError, bool) {
	var de *DeviceError
	if stdErrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// AsFTLError safely extracts an FTLError from an error chain.
func AsFTLError(err error) (*FTLError, bool) {
	var fe *FTLError
	if stdErrors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// AsSegmentError safely extracts a SegmentError from an error chain.
func AsSegmentError(err error) (*SegmentError, bool) {
	var se *SegmentError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsFSError safely extracts an FSError from an error chain.
func AsFSError(err error) (*FSError, bool) {
	var fe *FSError
	if stdErrors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// AsValidationError safely extracts a ValidationError from an error chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stdErrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from any error produced by this
// package, or returns ErrorCodeInternal for errors that don't carry one.
func GetErrorCode(err error) ErrorCode {
	if de, ok := AsDeviceError(err); ok {
		return de.Code()
	}
	if fe, ok := AsFTLError(err); ok {
		return fe.Code()
	}
	if se, ok := AsSegmentError(err); ok {
		return se.Code()
	}
	if fe, ok := AsFSError(err); ok {
		return fe.Code()
	}
	if ve, ok := AsValidationError(err); ok {
		return ve.Code()
	}
	return ErrorCodeInternal
}

// GetErrorDetails extracts structured details from any error that supports
// them, returning an empty map for errors without details.
func GetErrorDetails(err error) map[string]any {
	if de, ok := AsDeviceError(err); ok && de.Details() != nil {
		return de.Details()
	}
	if fe, ok := AsFTLError(err); ok && fe.Details() != nil {
		return fe.Details()
	}
	if se, ok := AsSegmentError(err); ok && se.Details() != nil {
		return se.Details()
	}
	if fe, ok := AsFSError(err); ok && fe.Details() != nil {
		return fe.Details()
	}
	if ve, ok := AsValidationError(err); ok && ve.Details() != nil {
		return ve.Details()
	}
	return make(map[string]any)
}

// ClassifyDirectoryCreationError analyzes directory creation failures for
// the simulated device's image directory and returns an appropriately
// coded SegmentError.
func ClassifyDirectoryCreationError(err error, path string) error {
	if os.IsPermission(err) {
		return NewSegmentError(
			err, ErrorCodePermissionDenied,
			"insufficient permissions to create device image directory",
		).WithPath(path).WithDetail("operation", "directory_creation")
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewSegmentError(
					err, ErrorCodeDiskFull,
					"insufficient disk space to create device image directory",
				).WithPath(path).WithDetail("operation", "directory_creation")
			case syscall.EROFS:
				return NewSegmentError(
					err, ErrorCodeFilesystemReadonly,
					"cannot create directory on read-only filesystem",
				).WithPath(path).WithDetail("operation", "directory_creation")
			}
		}
	}

	return NewSegmentError(err, ErrorCodeIO, "failed to create device image directory").
		WithPath(path).WithDetail("operation", "directory_creation")
}

// ClassifyFileOpenError analyzes file opening failures for a zone image
// file and returns an appropriately coded SegmentError.
func ClassifyFileOpenError(err error, filePath, fileName string) error {
	if os.IsPermission(err) {
		return NewSegmentError(
			err, ErrorCodePermissionDenied, "insufficient permissions to open zone image file",
		).WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewSegmentError(
					err, ErrorCodeDiskFull, "insufficient disk space to create zone image file",
				).WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
			case syscall.EROFS:
				return NewSegmentError(
					err, ErrorCodeFilesystemReadonly, "cannot create file on read-only filesystem",
				).WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
			}
		}
	}

	return NewSegmentError(err, ErrorCodeIO, "failed to open zone image file").
		WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
}

// ClassifySyncError analyzes fsync/flush failures for a zone image file
// and returns an appropriately coded SegmentError.
func ClassifySyncError(err error, fileName, filePath string, offset uint64) error {
	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewSegmentError(
					err, ErrorCodeDiskFull, "cannot sync zone image: insufficient disk space",
				).WithFileName(fileName).WithPath(filePath).WithOffset(offset).WithDetail("operation", "file_sync")
			case syscall.EROFS:
				return NewSegmentError(
					err, ErrorCodeFilesystemReadonly, "cannot sync zone image: filesystem is read-only",
				).WithFileName(fileName).WithPath(filePath).WithOffset(offset).WithDetail("operation", "file_sync")
			case syscall.EIO:
				return NewSegmentError(
					err, ErrorCodeIO, "I/O error during zone image sync",
				).WithFileName(fileName).WithPath(filePath).WithOffset(offset).WithDetail("operation", "file_sync").
					WithDetail("severity", "high")
			}
		}
	}

	return NewSegmentError(
		err, ErrorCodeIO, "failed to sync zone image file to disk",
	).WithFileName(fileName).WithPath(filePath).WithOffset(offset).WithDetail("operation", "file_sync")
}
