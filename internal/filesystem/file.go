package filesystem

import (
	"io"

	"github.com/znsfs/znsfs/internal/block"
	"github.com/znsfs/znsfs/internal/inode"
)

// SequentialFile reads a file's data chain from front to back,
// advancing an internal cursor on every call.
type SequentialFile struct {
	fs    *Filesystem
	inode *block.Block
	pos   int64
}

// Read copies the next len(buf) bytes (or fewer, at EOF) into buf.
func (f *SequentialFile) Read(buf []byte) (int, error) {
	n, err := inode.Read(f.fs, f.inode, buf, f.pos)
	f.pos += int64(n)
	if err == io.EOF {
		return n, io.EOF
	}
	return n, err
}

// Skip advances the read cursor by n bytes without reading them.
func (f *SequentialFile) Skip(n int64) { f.pos += n }

// Close is a no-op: this file holds no OS resource beyond the inode
// block already cached in its segment.
func (f *SequentialFile) Close() error { return nil }

// RandomAccessFile reads a file's data chain at arbitrary offsets.
type RandomAccessFile struct {
	fs    *Filesystem
	inode *block.Block
}

// ReadAt copies len(buf) bytes (or fewer, at EOF) starting at offset.
func (f *RandomAccessFile) ReadAt(buf []byte, offset int64) (int, error) {
	return inode.Read(f.fs, f.inode, buf, offset)
}

func (f *RandomAccessFile) Close() error { return nil }

// WritableFile appends to a file's data chain. It never supports
// random-access writes or truncation, matching the append-only on-media
// layout.
type WritableFile struct {
	fs    *Filesystem
	inode *block.Block
}

// Append writes p to the end of the file's data chain, splicing in a new
// chained inode if the current one runs out of room in its segment.
func (f *WritableFile) Append(p []byte) error {
	return inode.DataAppend(f.fs, f.inode, p)
}

// Sync is a no-op: every DataAppend already flushes its affected blocks
// durably before returning.
func (f *WritableFile) Sync() error { return nil }

func (f *WritableFile) Close() error { return nil }

// Directory lists and iterates a directory's children.
type Directory struct {
	fs    *Filesystem
	inode *block.Block
}

// GetChildren returns every live entry name directly under this
// directory.
func (d *Directory) GetChildren() ([]string, error) {
	return inode.ReadChildren(d.fs, d.inode)
}

func (d *Directory) Close() error { return nil }
