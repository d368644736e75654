package filesystem

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/znsfs/znsfs/internal/threadpool"
	"github.com/znsfs/znsfs/pkg/errors"
)

// memDevice is a flat in-memory stand-in for *ftl.FTL, satisfying
// segment.Device without pulling in the full device/FTL stack — the same
// fake shape internal/segment's own tests use.
type memDevice struct {
	mu      sync.Mutex
	lbaSize uint32
	buf     []byte
}

func newMemDevice(lbaSize uint32, totalLBAs uint64) *memDevice {
	return &memDevice{lbaSize: lbaSize, buf: make([]byte, totalLBAs*uint64(lbaSize))}
}

func (d *memDevice) Read(lba uint64, out []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	off := lba * uint64(d.lbaSize)
	copy(out, d.buf[off:off+uint64(len(out))])
	return nil
}

func (d *memDevice) Write(lba uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	off := lba * uint64(d.lbaSize)
	copy(d.buf[off:off+uint64(len(data))], data)
	return nil
}

const testLBASize = 512

func newTestFilesystem(t *testing.T, dataZones, blocksPerZone uint32) *Filesystem {
	t.Helper()

	dev := newMemDevice(testLBASize, uint64(dataZones)*uint64(blocksPerZone))
	pool, err := threadpool.New(&threadpool.Config{Size: 1, MaxSize: 2, Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)

	fs, err := New(&Config{
		Device:          dev,
		DataZones:       dataZones,
		BlocksPerZone:   blocksPerZone,
		LBASize:         testLBASize,
		Pool:            pool,
		GCIdleThreshold: time.Millisecond,
		GCScanInterval:  time.Millisecond,
		Logger:          zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fs.Close() })

	return fs
}

func TestMountBootstrapsRootDirectory(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)
	assert.True(t, fs.Exists("/"))
}

func TestCreateDirRejectsMissingParent(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)
	status := fs.CreateDir("/a/b")
	assert.Equal(t, errors.StatusNotFound, status)
}

func TestCreateDirThenNestedFile(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)

	require.Equal(t, errors.StatusOK, fs.CreateDir("/a"))
	require.Equal(t, errors.StatusOK, fs.CreateDir("/a/b"))

	wf, status := fs.NewWritableFile("/a/b/file.txt")
	require.Equal(t, errors.StatusOK, status)
	require.NoError(t, wf.Append([]byte("payload")))
	require.NoError(t, wf.Close())

	assert.True(t, fs.Exists("/a/b/file.txt"))

	children, status := fs.GetChildren("/a/b")
	require.Equal(t, errors.StatusOK, status)
	assert.ElementsMatch(t, []string{"file.txt"}, children)
}

func TestCreateDirIfMissingIsIdempotent(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)

	require.Equal(t, errors.StatusOK, fs.CreateDirIfMissing("/a"))
	require.Equal(t, errors.StatusOK, fs.CreateDirIfMissing("/a"))

	_, status := fs.NewWritableFile("/a/f")
	require.Equal(t, errors.StatusOK, status)
	assert.NotEqual(t, errors.StatusOK, fs.CreateDirIfMissing("/a/f"))
}

func TestNewWritableFileReplacesExisting(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)

	wf, status := fs.NewWritableFile("/f")
	require.Equal(t, errors.StatusOK, status)
	require.NoError(t, wf.Append([]byte("first")))
	require.NoError(t, wf.Close())

	wf2, status := fs.NewWritableFile("/f")
	require.Equal(t, errors.StatusOK, status)
	require.NoError(t, wf2.Close())

	sf, status := fs.NewSequentialFile("/f")
	require.Equal(t, errors.StatusOK, status)
	buf := make([]byte, 16)
	n, _ := sf.Read(buf)
	assert.Equal(t, 0, n, "replaced file should start empty")
}

func TestRandomAccessFileReadsAtOffset(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)

	wf, status := fs.NewWritableFile("/f")
	require.Equal(t, errors.StatusOK, status)
	require.NoError(t, wf.Append([]byte("0123456789")))
	require.NoError(t, wf.Close())

	rf, status := fs.NewRandomAccessFile("/f")
	require.Equal(t, errors.StatusOK, status)

	buf := make([]byte, 4)
	n, err := rf.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, "3456", string(buf[:n]))
}

func TestRenameMovesEntryWithinSameParent(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)

	_, status := fs.NewWritableFile("/old.txt")
	require.Equal(t, errors.StatusOK, status)

	status = fs.Rename("/old.txt", "/new.txt")
	require.Equal(t, errors.StatusOK, status)

	assert.False(t, fs.Exists("/old.txt"))
	assert.True(t, fs.Exists("/new.txt"))
}

func TestRenameRejectsExistingDestination(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)

	_, status := fs.NewWritableFile("/a.txt")
	require.Equal(t, errors.StatusOK, status)
	_, status = fs.NewWritableFile("/b.txt")
	require.Equal(t, errors.StatusOK, status)

	status = fs.Rename("/a.txt", "/b.txt")
	assert.NotEqual(t, errors.StatusOK, status)
}

func TestDeleteRejectsNonEmptyDirectory(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)

	require.Equal(t, errors.StatusOK, fs.CreateDir("/d"))
	_, status := fs.NewWritableFile("/d/f")
	require.Equal(t, errors.StatusOK, status)

	status = fs.Delete("/d")
	assert.NotEqual(t, errors.StatusOK, status)

	require.Equal(t, errors.StatusOK, fs.Delete("/d/f"))
	require.Equal(t, errors.StatusOK, fs.Delete("/d"))
	assert.False(t, fs.Exists("/d"))
}

func TestGetAbsolutePathJoinsAgainstRoot(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)
	assert.Equal(t, "/a/b", fs.GetAbsolutePath("a/b"))
	assert.Equal(t, "/", fs.GetAbsolutePath(""))
}

func TestCloseIsIdempotent(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)
	require.NoError(t, fs.Close())
	require.NoError(t, fs.Close())
}

func TestGetChildrenExcludesDeletedEntries(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)

	require.Equal(t, errors.StatusOK, fs.CreateDir("/d"))
	_, status := fs.NewWritableFile("/d/a")
	require.Equal(t, errors.StatusOK, status)
	_, status = fs.NewWritableFile("/d/b")
	require.Equal(t, errors.StatusOK, status)

	require.Equal(t, errors.StatusOK, fs.Delete("/d/a"))

	children, status := fs.GetChildren("/d")
	require.Equal(t, errors.StatusOK, status)
	assert.ElementsMatch(t, []string{"b"}, children)
	assert.False(t, fs.Exists("/d/a"))
	assert.True(t, fs.Exists("/d/b"))
}

func TestManyEntriesInOneDirectory(t *testing.T) {
	fs := newTestFilesystem(t, 4, 32)

	require.Equal(t, errors.StatusOK, fs.CreateDir("/d"))
	want := make([]string, 0, 8)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		_, status := fs.NewWritableFile("/d/" + name)
		require.Equal(t, errors.StatusOK, status)
		want = append(want, name)
	}

	children, status := fs.GetChildren("/d")
	require.Equal(t, errors.StatusOK, status)
	assert.ElementsMatch(t, want, children)
}

func TestOperationsAfterCloseFail(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)
	require.NoError(t, fs.Close())

	assert.False(t, fs.Exists("/"))
	status := fs.CreateDir("/late")
	assert.Equal(t, errors.StatusIOError, status)
}

func TestSequentialReadTracksCursor(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)

	wf, status := fs.NewWritableFile("/f")
	require.Equal(t, errors.StatusOK, status)
	require.NoError(t, wf.Append([]byte("0123456789")))

	sf, status := fs.NewSequentialFile("/f")
	require.Equal(t, errors.StatusOK, status)

	buf := make([]byte, 4)
	n, err := sf.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(buf[:n]))

	sf.Skip(2)
	n, err = sf.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "6789", string(buf[:n]))
}

func TestStatReportsSizeAndKind(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)

	require.Equal(t, errors.StatusOK, fs.CreateDir("/d"))
	wf, status := fs.NewWritableFile("/d/f")
	require.Equal(t, errors.StatusOK, status)
	require.NoError(t, wf.Append([]byte("0123456789")))
	require.NoError(t, wf.Append([]byte("abcdef")))

	attr, status := fs.Stat("/d/f")
	require.Equal(t, errors.StatusOK, status)
	assert.Equal(t, "f", attr.Name)
	assert.False(t, attr.IsDir)
	assert.Equal(t, int64(16), attr.Size)

	dirAttr, status := fs.Stat("/d")
	require.Equal(t, errors.StatusOK, status)
	assert.True(t, dirAttr.IsDir)
	assert.Equal(t, int64(0), dirAttr.Size)

	rootAttr, status := fs.Stat("/")
	require.Equal(t, errors.StatusOK, status)
	assert.True(t, rootAttr.IsDir)

	_, status = fs.Stat("/missing")
	assert.Equal(t, errors.StatusNotFound, status)
}

func TestNameLengthBoundary(t *testing.T) {
	fs := newTestFilesystem(t, 2, 16)

	exact := strings.Repeat("n", 255)
	_, status := fs.NewWritableFile("/" + exact)
	assert.Equal(t, errors.StatusOK, status)

	tooLong := strings.Repeat("n", 256)
	_, status = fs.NewWritableFile("/" + tooLong)
	assert.NotEqual(t, errors.StatusOK, status)
}
