package filesystem

import (
	"path"
	"time"

	"github.com/znsfs/znsfs/internal/block"
	"github.com/znsfs/znsfs/internal/inode"
	"github.com/znsfs/znsfs/pkg/errors"
)

// Exists reports whether path resolves to a live file or directory.
func (fs *Filesystem) Exists(p string) bool {
	_, err := fs.fileExists(p, false)
	return err == nil
}

// NewSequentialFile opens an existing file for front-to-back reads.
func (fs *Filesystem) NewSequentialFile(p string) (*SequentialFile, errors.Status) {
	target, err := fs.fileExists(p, false)
	if err != nil {
		return nil, errors.StatusOf(err).External()
	}
	if target.Type != block.FileInode {
		return nil, errors.StatusOf(errNotAFile(p)).External()
	}
	return &SequentialFile{fs: fs, inode: target}, errors.StatusOK
}

// NewRandomAccessFile opens an existing file for offset-addressed reads.
func (fs *Filesystem) NewRandomAccessFile(p string) (*RandomAccessFile, errors.Status) {
	target, err := fs.fileExists(p, false)
	if err != nil {
		return nil, errors.StatusOf(err).External()
	}
	if target.Type != block.FileInode {
		return nil, errors.StatusOf(errNotAFile(p)).External()
	}
	return &RandomAccessFile{fs: fs, inode: target}, errors.StatusOK
}

// NewWritableFile creates a fresh file at path, deleting any
// pre-existing file there first, ready for Append.
func (fs *Filesystem) NewWritableFile(p string) (*WritableFile, errors.Status) {
	if existing, err := fs.fileExists(p, false); err == nil {
		if existing.Type != block.FileInode {
			return nil, errors.StatusOf(errNotAFile(p)).External()
		}
		parent, perr := fs.fileExists(p, true)
		if perr != nil {
			return nil, errors.StatusOf(perr).External()
		}
		if err := inode.DeleteChild(fs, parent, baseName(p)); err != nil {
			return nil, errors.StatusOf(err).External()
		}
	}

	parent, err := fs.fileExists(p, true)
	if err != nil {
		return nil, errors.StatusOf(err).External()
	}
	if parent.Type != block.DirInode {
		return nil, errors.StatusOf(errNotADirectory(p)).External()
	}

	child, err := inode.CreateChild(fs, parent, block.FileInode, baseName(p), false, uint64(time.Now().Unix()))
	if err != nil {
		return nil, errors.StatusOf(err).External()
	}
	return &WritableFile{fs: fs, inode: child}, errors.StatusOK
}

// NewDirectory opens an existing directory for listing.
func (fs *Filesystem) NewDirectory(p string) (*Directory, errors.Status) {
	target, err := fs.fileExists(p, false)
	if err != nil {
		return nil, errors.StatusOf(err).External()
	}
	if target.Type != block.DirInode {
		return nil, errors.StatusOf(errNotADirectory(p)).External()
	}
	return &Directory{fs: fs, inode: target}, errors.StatusOK
}

// CreateDir creates a new directory at path. Its parent must already
// exist; it is an error if path already exists.
func (fs *Filesystem) CreateDir(p string) errors.Status {
	if fs.Exists(p) {
		return errors.StatusOf(errAlreadyExists(p)).External()
	}
	parent, err := fs.fileExists(p, true)
	if err != nil {
		return errors.StatusOf(err).External()
	}
	if parent.Type != block.DirInode {
		return errors.StatusOf(errNotADirectory(p)).External()
	}

	_, err = inode.CreateChild(fs, parent, block.DirInode, baseName(p), true, uint64(time.Now().Unix()))
	return errors.StatusOf(err).External()
}

// CreateDirIfMissing creates path's directory (and succeeds silently) if
// it doesn't already exist; it fails if path exists but isn't a
// directory.
func (fs *Filesystem) CreateDirIfMissing(p string) errors.Status {
	if target, err := fs.fileExists(p, false); err == nil {
		if target.Type != block.DirInode {
			return errors.StatusOf(errNotADirectory(p)).External()
		}
		return errors.StatusOK
	}
	return fs.CreateDir(p)
}

// GetChildren lists every live entry directly under the directory at
// path.
func (fs *Filesystem) GetChildren(p string) ([]string, errors.Status) {
	target, err := fs.fileExists(p, false)
	if err != nil {
		return nil, errors.StatusOf(err).External()
	}
	if target.Type != block.DirInode {
		return nil, errors.StatusOf(errNotADirectory(p)).External()
	}
	names, err := inode.ReadChildren(fs, target)
	if err != nil {
		return nil, errors.StatusOf(err).External()
	}
	return names, errors.StatusOK
}

// Rename moves the entry at oldPath to newPath. Both must share the same
// parent directory's chain reachability; only the leaf name changes, per
// internal/inode.RenameChild's fixed-size in-place rewrite.
func (fs *Filesystem) Rename(oldPath, newPath string) errors.Status {
	oldParent, err := fs.fileExists(oldPath, true)
	if err != nil {
		return errors.StatusOf(err).External()
	}
	newParent, err := fs.fileExists(newPath, true)
	if err != nil {
		return errors.StatusOf(err).External()
	}
	if oldParent.ID != newParent.ID {
		return errors.StatusOf(errInvalidArgument("rename across different parent directories is not supported")).External()
	}
	if fs.Exists(newPath) {
		return errors.StatusOf(errAlreadyExists(newPath)).External()
	}

	err = inode.RenameChild(fs, oldParent, baseName(oldPath), baseName(newPath))
	return errors.StatusOf(err).External()
}

// Delete removes the file or empty directory at path.
func (fs *Filesystem) Delete(p string) errors.Status {
	target, err := fs.fileExists(p, false)
	if err != nil {
		return errors.StatusOf(err).External()
	}
	if target.Type == block.DirInode {
		children, err := inode.ReadChildren(fs, target)
		if err != nil {
			return errors.StatusOf(err).External()
		}
		if len(children) > 0 {
			return errors.StatusOf(errInvalidArgument("directory is not empty")).External()
		}
	}

	parent, err := fs.fileExists(p, true)
	if err != nil {
		return errors.StatusOf(err).External()
	}
	err = inode.DeleteChild(fs, parent, baseName(p))
	return errors.StatusOf(err).External()
}

// GetAbsolutePath joins path against this filesystem's fixed mount
// root ("/"): pure string manipulation, no device interaction.
func (fs *Filesystem) GetAbsolutePath(p string) string {
	return path.Join("/", p)
}
