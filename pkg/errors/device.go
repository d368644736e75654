package errors

// DeviceError is a specialized error type for the ZNS device facade:
// zone_report, zone_reset, zone_append and read failures. It embeds
// baseError to inherit the standard chaining/detail machinery and adds
// zone/LBA context that pinpoints exactly where the device-level failure
// occurred.
type DeviceError struct {
	*baseError
	zone uint32 // Start LBA of the zone involved, if any.
	lba  uint64 // LBA involved in the failed read/append, if any.
}

// NewDeviceError creates a new device-specific error.
func NewDeviceError(err error, code ErrorCode, msg string) *DeviceError {
	return &DeviceError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while preserving the DeviceError type.
func (de *DeviceError) WithMessage(msg string) *DeviceError {
	de.baseError.WithMessage(msg)
	return de
}

// WithDetail adds contextual information while preserving the DeviceError type.
func (de *DeviceError) WithDetail(key string, value any) *DeviceError {
	de.baseError.WithDetail(key, value)
	return de
}

// WithZone records which zone (identified by its start LBA) was involved.
func (de *DeviceError) WithZone(zoneSLBA uint32) *DeviceError {
	de.zone = zoneSLBA
	return de
}

// WithLBA records which logical block address was involved.
func (de *DeviceError) WithLBA(lba uint64) *DeviceError {
	de.lba = lba
	return de
}

// Zone returns the start LBA of the zone involved in the error, if any.
func (de *DeviceError) Zone() uint32 {
	return de.zone
}

// LBA returns the logical block address involved in the error, if any.
func (de *DeviceError) LBA() uint64 {
	return de.lba
}
