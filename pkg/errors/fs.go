package errors

// FSError provides specialized error handling for namespace-level
// operations: path resolution, directory append, rename, and locking.
// It extends the base error system with the path/inode context that
// makes these failures diagnosable without re-walking the namespace.
type FSError struct {
	*baseError

	// path identifies which path was being resolved or modified when the
	// error occurred.
	path string

	// operation describes what filesystem operation was being performed
	// (e.g. "CreateDir", "Rename", "Lock").
	operation string

	// inodeID identifies which inode was involved, if resolution reached one.
	inodeID uint64
}

// NewFSError creates a new filesystem-specific error with the provided context.
func NewFSError(err error, code ErrorCode, msg string) *FSError {
	return &FSError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the FSError type.
func (fe *FSError) WithMessage(msg string) *FSError {
	fe.baseError.WithMessage(msg)
	return fe
}

// WithDetail adds contextual information while maintaining the FSError type.
func (fe *FSError) WithDetail(key string, value any) *FSError {
	fe.baseError.WithDetail(key, value)
	return fe
}

// WithPath records which path was being resolved or modified.
func (fe *FSError) WithPath(path string) *FSError {
	fe.path = path
	return fe
}

// WithOperation records what filesystem operation was being performed.
func (fe *FSError) WithOperation(operation string) *FSError {
	fe.operation = operation
	return fe
}

// WithInodeID records which inode was involved in the error.
func (fe *FSError) WithInodeID(id uint64) *FSError {
	fe.inodeID = id
	return fe
}

// Path returns the path that was being processed when the error occurred.
func (fe *FSError) Path() string {
	return fe.path
}

// Operation returns the name of the operation that was being performed.
func (fe *FSError) Operation() string {
	return fe.operation
}

// InodeID returns the inode identifier associated with the error.
func (fe *FSError) InodeID() uint64 {
	return fe.inodeID
}

// NewPathNotFoundError creates a specialized error for an unresolvable path.
func NewPathNotFoundError(path string) *FSError {
	return NewFSError(nil, ErrorCodePathNotFound, "path could not be resolved").
		WithPath(path).
		WithOperation("Resolve")
}

// NewNameTooLongError creates an error for a path component that exceeds
// the maximum on-media name length.
func NewNameTooLongError(name string, maxLen int) *FSError {
	return NewFSError(nil, ErrorCodeNameTooLong, "path component exceeds maximum name length").
		WithDetail("name", name).
		WithDetail("maxLength", maxLen).
		WithOperation("Validate")
}
