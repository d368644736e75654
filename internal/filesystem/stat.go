package filesystem

import (
	"github.com/znsfs/znsfs/internal/inode"
	"github.com/znsfs/znsfs/pkg/errors"
)

// Attr is the stat-shaped view of one directory entry.
type Attr struct {
	Name       string
	Size       int64
	CreateTime uint64
	IsDir      bool
}

// Stat resolves path and reports its entry attributes. Directory sizes
// are reported as zero. File sizes are computed from the live data
// chain rather than the stored directory entry, which only records the
// size known when the entry was written.
func (fs *Filesystem) Stat(p string) (Attr, errors.Status) {
	comps := splitComponents(p)
	if len(comps) == 0 {
		if fs.closed.Load() {
			return Attr{}, errors.StatusIOError
		}
		return Attr{Name: "/", IsDir: true}, errors.StatusOK
	}

	parent, err := fs.fileExists(p, true)
	if err != nil {
		return Attr{}, errors.StatusOf(err).External()
	}

	fa, err := inode.LookupAttr(fs, parent, baseName(p))
	if err != nil {
		return Attr{}, errors.StatusOf(err).External()
	}

	attr := Attr{Name: fa.Name, CreateTime: fa.CreateTime, IsDir: fa.IsDir}
	if !fa.IsDir {
		target, err := fs.fileExists(p, false)
		if err != nil {
			return Attr{}, errors.StatusOf(err).External()
		}
		size, err := inode.FileSize(fs, target)
		if err != nil {
			return Attr{}, errors.StatusOf(err).External()
		}
		attr.Size = size
	}
	return attr, errors.StatusOK
}
