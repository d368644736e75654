package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOfClassifiesByErrorCode(t *testing.T) {
	assert.Equal(t, StatusOK, StatusOf(nil))

	assert.Equal(t, StatusNotFound,
		StatusOf(NewFSError(nil, ErrorCodePathNotFound, "missing")))
	assert.Equal(t, StatusNotFound,
		StatusOf(NewFTLError(nil, ErrorCodeMappingMiss, "unmapped")))

	assert.Equal(t, StatusNoSpace,
		StatusOf(NewSegmentError(nil, ErrorCodeSegmentFull, "full")))
	assert.Equal(t, StatusNoSpace,
		StatusOf(NewDeviceError(nil, ErrorCodeZoneFull, "full")))

	assert.Equal(t, StatusInvalidArgument,
		StatusOf(NewDeviceError(nil, ErrorCodeUnaligned, "odd size")))
	assert.Equal(t, StatusCorruption,
		StatusOf(NewSegmentError(nil, ErrorCodeCorruption, "bad tag")))
	assert.Equal(t, StatusIOError,
		StatusOf(NewDeviceError(nil, ErrorCodeIO, "io")))
}

func TestExternalCollapsesToThreeValues(t *testing.T) {
	assert.Equal(t, StatusOK, StatusOK.External())
	assert.Equal(t, StatusNotFound, StatusNotFound.External())
	assert.Equal(t, StatusIOError, StatusNoSpace.External())
	assert.Equal(t, StatusIOError, StatusInvalidArgument.External())
	assert.Equal(t, StatusIOError, StatusCorruption.External())
}

func TestErrorChainCarriesContext(t *testing.T) {
	err := NewSegmentError(nil, ErrorCodeBlockReadFailure, "decode failed").
		WithSegmentAddr(64).
		WithOffset(1024).
		WithDetail("blockType", "FILE_DATA")

	se, ok := AsSegmentError(err)
	assert.True(t, ok)
	assert.Equal(t, uint64(64), se.SegmentAddr())
	assert.Equal(t, uint64(1024), se.Offset())
	assert.Equal(t, ErrorCodeBlockReadFailure, GetErrorCode(err))
	assert.Equal(t, "FILE_DATA", GetErrorDetails(err)["blockType"])
}

func TestValidationErrorContext(t *testing.T) {
	err := NewFieldRangeError("gcWatermark", 1.5, 0.0, 1.0)
	ve, ok := AsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, "gcWatermark", ve.Field())
	assert.Equal(t, "range", ve.Rule())
	assert.Equal(t, StatusInvalidArgument, StatusOf(err))
}
