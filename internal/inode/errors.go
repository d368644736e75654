package inode

import (
	"github.com/znsfs/znsfs/internal/block"
	"github.com/znsfs/znsfs/pkg/errors"
)

func errNotADirectory() error {
	return errors.NewFSError(nil, errors.ErrorCodeNotADirectory, "inode is not a directory")
}

func errNotAFile() error {
	return errors.NewFSError(nil, errors.ErrorCodeNotAFile, "inode is not a regular file")
}

func errNotFound(msg string) error {
	return errors.NewFSError(nil, errors.ErrorCodePathNotFound, msg)
}

func errCorruption(msg string) error {
	return errors.NewFSError(nil, errors.ErrorCodeCorruption, msg).WithOperation("ChainTraversal")
}

func errInvalidArgument(msg string) error {
	return errors.NewFSError(nil, errors.ErrorCodeInvalidInput, msg)
}

func errBadName(name string) error {
	if name == "" {
		return errors.NewFSError(nil, errors.ErrorCodeInvalidInput, "entry name must not be empty")
	}
	return errors.NewNameTooLongError(name, block.MaxNameLength)
}

func isNoSpace(err error) bool {
	code := errors.GetErrorCode(err)
	return code == errors.ErrorCodeNoSpace || code == errors.ErrorCodeSegmentFull
}
