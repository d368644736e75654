package block

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLBASize = 4096

func TestFileInodeRoundTrip(t *testing.T) {
	b := NewInode(FileInode, 7, "")
	b.Inode.Next = 100
	b.Inode.Prev = 50
	b.Inode.Offsets = []uint64{10, 20, 30}

	data, err := Serialize(b, testLBASize)
	require.NoError(t, err)
	assert.Len(t, data, testLBASize)

	out, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, b.Type, out.Type)
	assert.Equal(t, b.Inode.Next, out.Inode.Next)
	assert.Equal(t, b.Inode.Prev, out.Inode.Prev)
	assert.Equal(t, b.Inode.ID, out.Inode.ID)
	assert.Equal(t, b.Inode.Offsets, out.Inode.Offsets)
}

func TestDirInodeRoundTripWithMaxLengthName(t *testing.T) {
	name := strings.Repeat("a", MaxNameLength)
	b := NewInode(DirInode, 3, name)

	data, err := Serialize(b, testLBASize)
	require.NoError(t, err)

	out, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, name, out.Inode.Name)
}

func TestDirInodeNameTooLongFails(t *testing.T) {
	name := strings.Repeat("a", MaxNameLength+1)
	b := NewInode(DirInode, 3, name)

	_, err := Serialize(b, testLBASize)
	require.Error(t, err)
}

func TestDirDataRoundTrip(t *testing.T) {
	b := NewDirData()
	b.DirData.Entries = []FileAttr{
		{Name: "a", Size: 10, CreateTime: 1, IsDir: false, Offset: 111, InodeID: 1},
		{Name: "subdir", Size: 0, CreateTime: 2, IsDir: true, Offset: 222, InodeID: 2},
	}

	data, err := Serialize(b, testLBASize)
	require.NoError(t, err)

	out, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, b.DirData.Entries, out.DirData.Entries)
}

func TestFileDataRoundTrip(t *testing.T) {
	b := NewFileData([]byte("hello world"))

	data, err := Serialize(b, testLBASize)
	require.NoError(t, err)

	out, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, b.FileData.Content, out.FileData.Content)
}

func TestFileAttrRoundTrip(t *testing.T) {
	fa := FileAttr{Name: "report.txt", Size: 4096, CreateTime: 123456789, IsDir: false, Offset: 9000, InodeID: 42}

	buf := make([]byte, FileAttrSize)
	fa.serializeInto(buf)

	out, err := deserializeFileAttr(buf)
	require.NoError(t, err)
	assert.Equal(t, fa, out)
}

func TestUnknownTypeTagIsCorruption(t *testing.T) {
	data := make([]byte, testLBASize)
	data[0] = 0xF0 // type nibble 15, unused
	_, err := Deserialize(data)
	require.Error(t, err)
}

func TestOffloadClearsPayload(t *testing.T) {
	b := NewFileData([]byte("content"))
	b.Offload()
	assert.False(t, b.Loaded)
	assert.Nil(t, b.FileData.Content)
}
