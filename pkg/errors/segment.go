package errors

// SegmentError is a specialized error type for segment-container
// operations (allocation, flush, offload, compaction). It embeds
// baseError to inherit the standard error functionality, then adds
// segment-specific fields that help pinpoint exactly where a problem
// occurred on media.
type SegmentError struct {
	*baseError
	segmentAddr uint64 // Base LBA of the segment being accessed.
	offset      uint64 // Byte offset within the segment where the problem happened.
	fileName    string // Name of the backing image file, if any.
	path        string // Path of the backing image file, if any.
}

// NewSegmentError creates a new segment-specific error.
func NewSegmentError(err error, code ErrorCode, msg string) *SegmentError {
	return &SegmentError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while preserving the SegmentError type.
func (se *SegmentError) WithMessage(msg string) *SegmentError {
	se.baseError.WithMessage(msg)
	return se
}

// WithDetail adds contextual information while preserving the SegmentError type.
func (se *SegmentError) WithDetail(key string, value any) *SegmentError {
	se.baseError.WithDetail(key, value)
	return se
}

// WithSegmentAddr records the base LBA of the segment involved.
func (se *SegmentError) WithSegmentAddr(addr uint64) *SegmentError {
	se.segmentAddr = addr
	return se
}

// WithOffset records the byte position within the segment where the error occurred.
func (se *SegmentError) WithOffset(offset uint64) *SegmentError {
	se.offset = offset
	return se
}

// WithFileName captures which backing image file was being processed.
func (se *SegmentError) WithFileName(fileName string) *SegmentError {
	se.fileName = fileName
	return se
}

// WithPath captures which path was being processed.
func (se *SegmentError) WithPath(path string) *SegmentError {
	se.path = path
	return se
}

// SegmentAddr returns the base LBA of the segment where the error occurred.
func (se *SegmentError) SegmentAddr() uint64 {
	return se.segmentAddr
}

// Offset returns the byte offset within the segment where the error happened.
func (se *SegmentError) Offset() uint64 {
	return se.offset
}

// FileName returns the name of the backing image file, if any.
func (se *SegmentError) FileName() string {
	return se.fileName
}

// Path returns the path of the backing image file, if any.
func (se *SegmentError) Path() string {
	return se.path
}
