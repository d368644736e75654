package ftl

import "github.com/znsfs/znsfs/pkg/errors"

func errInvalidArgument(msg string) error {
	return errors.NewFTLError(nil, errors.ErrorCodeInvalidInput, msg)
}

func errMappingMiss(lba uint64) error {
	return errors.NewFTLError(nil, errors.ErrorCodeMappingMiss, "no log or data mapping for LBA").WithLBA(lba)
}

func errNoSpace(vz uint32, msg string) error {
	return errors.NewFTLError(nil, errors.ErrorCodeNoSpace, msg).WithVirtualZone(vz)
}

func errGCFailed(vz uint32, cause error) error {
	return errors.NewFTLError(cause, errors.ErrorCodeGCFailed, "garbage collection failed for virtual zone").WithVirtualZone(vz)
}

func errClosed() error {
	return errors.NewFTLError(nil, errors.ErrorCodeFTLClosed, "FTL is closed")
}
