package filesystem

import (
	"strings"

	"github.com/znsfs/znsfs/internal/block"
	"github.com/znsfs/znsfs/internal/inode"
)

// splitComponents splits a slash-separated path into its non-empty
// components, so "/a/b/" and "a/b" both resolve identically.
func splitComponents(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// baseName returns the final path component, the name a directory
// entry stores for its child.
func baseName(path string) string {
	comps := splitComponents(path)
	if len(comps) == 0 {
		return ""
	}
	return comps[len(comps)-1]
}

// fileExists walks path's components from the root, one
// DirectoryLookUp per component. With setParent false it returns the
// resolved target,
// NotFound if any component (including the last) is missing. With
// setParent true it returns the parent directory of the final
// component without checking whether that final component itself
// exists — the shape every create/rename/delete operation needs before
// deciding what to do with the last component's name.
func (fs *Filesystem) fileExists(path string, setParent bool) (*block.Block, error) {
	if fs.closed.Load() {
		return nil, errFilesystemClosed()
	}

	comps := splitComponents(path)
	if len(comps) == 0 {
		if setParent {
			return nil, errInvalidArgument("root has no parent")
		}
		return fs.root, nil
	}

	cur := fs.root
	for i, name := range comps {
		last := i == len(comps)-1
		if last && setParent {
			return cur, nil
		}

		child, err := inode.DirectoryLookUp(fs, cur, name)
		if err != nil {
			return nil, errPathNotFound(path)
		}
		if !last && child.Type != block.DirInode {
			return nil, errNotADirectory(path)
		}
		cur = child
	}
	return cur, nil
}
