package errors

// FTLError is a specialized error type for the flash translation layer:
// address-translation misses, GC failures, and lifecycle errors. It
// embeds baseError and adds the LBA/virtual-zone context needed to
// diagnose a mapping problem without re-deriving it from the caller.
type FTLError struct {
	*baseError
	lba         uint64 // Logical block address being translated, if any.
	virtualZone uint32 // Virtual zone number involved, if any.
	hasVirtZone bool
}

// NewFTLError creates a new FTL-specific error.
func NewFTLError(err error, code ErrorCode, msg string) *FTLError {
	return &FTLError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while preserving the FTLError type.
func (fe *FTLError) WithMessage(msg string) *FTLError {
	fe.baseError.WithMessage(msg)
	return fe
}

// WithDetail adds contextual information while preserving the FTLError type.
func (fe *FTLError) WithDetail(key string, value any) *FTLError {
	fe.baseError.WithDetail(key, value)
	return fe
}

// WithLBA records the logical block address involved in the error.
func (fe *FTLError) WithLBA(lba uint64) *FTLError {
	fe.lba = lba
	return fe
}

// WithVirtualZone records the virtual zone number involved in the error.
func (fe *FTLError) WithVirtualZone(vz uint32) *FTLError {
	fe.virtualZone = vz
	fe.hasVirtZone = true
	return fe
}

// LBA returns the logical block address involved in the error, if any.
func (fe *FTLError) LBA() uint64 {
	return fe.lba
}

// VirtualZone returns the virtual zone number and whether one was recorded.
func (fe *FTLError) VirtualZone() (uint32, bool) {
	return fe.virtualZone, fe.hasVirtZone
}
