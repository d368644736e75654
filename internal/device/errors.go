package device

import (
	"github.com/znsfs/znsfs/pkg/errors"
)

func errInvalidGeometry(msg string) error {
	return errors.NewDeviceError(nil, errors.ErrorCodeInvalidGeometry, msg)
}

func errUnaligned(msg string) error {
	return errors.NewDeviceError(nil, errors.ErrorCodeUnaligned, msg)
}

func errZoneFull(zoneSLBA uint32, msg string) error {
	return errors.NewDeviceError(nil, errors.ErrorCodeZoneFull, msg).WithZone(zoneSLBA)
}
