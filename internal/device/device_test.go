package device

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/znsfs/znsfs/pkg/errors"
)

func testGeometry() Geometry {
	return Geometry{Zones: 4, BlocksPerZone: 8, LBASize: 512, MDTS: 1024}
}

func openTestDevice(t *testing.T, geom Geometry) Device {
	t.Helper()
	dev, err := Open(&Config{
		Geometry: geom,
		ImageDir: filepath.Join(t.TempDir(), "zones"),
		Prefix:   "zone",
		Logger:   zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })
	return dev
}

func TestOpenRejectsInvalidGeometry(t *testing.T) {
	_, err := Open(&Config{
		Geometry: Geometry{},
		ImageDir: t.TempDir(),
		Prefix:   "zone",
		Logger:   zap.NewNop().Sugar(),
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorCodeInvalidGeometry, errors.GetErrorCode(err))
}

func TestAppendAndReadRoundTrip(t *testing.T) {
	geom := testGeometry()
	dev := openTestDevice(t, geom)

	payload := make([]byte, geom.LBASize*3)
	for i := range payload {
		payload[i] = byte(i)
	}

	lba, err := dev.Append(geom.ZoneStartLBA(1), payload)
	require.NoError(t, err)
	assert.Equal(t, geom.ZoneStartLBA(1), lba)

	out := make([]byte, len(payload))
	require.NoError(t, dev.Read(lba, out))
	assert.Equal(t, payload, out)
}

func TestAppendFailsPastZoneCapacity(t *testing.T) {
	geom := testGeometry()
	dev := openTestDevice(t, geom)

	full := make([]byte, geom.ZoneSizeBytes())
	_, err := dev.Append(geom.ZoneStartLBA(0), full)
	require.NoError(t, err)

	_, err = dev.Append(geom.ZoneStartLBA(0), make([]byte, geom.LBASize))
	require.Error(t, err)
	assert.Equal(t, errors.ErrorCodeZoneFull, errors.GetErrorCode(err))
}

func TestAppendRejectsNonZoneStartLBA(t *testing.T) {
	geom := testGeometry()
	dev := openTestDevice(t, geom)

	_, err := dev.Append(geom.ZoneStartLBA(0)+1, make([]byte, geom.LBASize))
	require.Error(t, err)
	assert.Equal(t, errors.ErrorCodeInvalidInput, errors.GetErrorCode(err))
}

func TestAppendRejectsUnalignedBuffer(t *testing.T) {
	geom := testGeometry()
	dev := openTestDevice(t, geom)

	_, err := dev.Append(geom.ZoneStartLBA(0), make([]byte, geom.LBASize-1))
	require.Error(t, err)
	assert.Equal(t, errors.ErrorCodeUnaligned, errors.GetErrorCode(err))
}

func TestResetRewindsWritePointer(t *testing.T) {
	geom := testGeometry()
	dev := openTestDevice(t, geom)

	_, err := dev.Append(geom.ZoneStartLBA(2), make([]byte, geom.LBASize*2))
	require.NoError(t, err)

	require.NoError(t, dev.Reset(geom.ZoneStartLBA(2)))

	lba, err := dev.Append(geom.ZoneStartLBA(2), make([]byte, geom.LBASize))
	require.NoError(t, err)
	assert.Equal(t, geom.ZoneStartLBA(2), lba)
}

func TestReadSpansZoneBoundary(t *testing.T) {
	geom := testGeometry()
	dev := openTestDevice(t, geom)

	for z := uint32(0); z < 2; z++ {
		buf := make([]byte, geom.ZoneSizeBytes())
		for i := range buf {
			buf[i] = byte(z + 1)
		}
		_, err := dev.Append(geom.ZoneStartLBA(z), buf)
		require.NoError(t, err)
	}

	out := make([]byte, geom.ZoneSizeBytes()*2)
	require.NoError(t, dev.Read(0, out))

	assert.Equal(t, byte(1), out[0])
	assert.Equal(t, byte(2), out[len(out)-1])
}

func TestWritePointerSurvivesReopen(t *testing.T) {
	geom := testGeometry()
	dir := filepath.Join(t.TempDir(), "zones")

	dev, err := Open(&Config{Geometry: geom, ImageDir: dir, Prefix: "zone", Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)

	_, err = dev.Append(geom.ZoneStartLBA(0), make([]byte, geom.LBASize*2))
	require.NoError(t, err)
	require.NoError(t, dev.Close())

	reopened, err := Open(&Config{Geometry: geom, ImageDir: dir, Prefix: "zone", Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)
	defer reopened.Close()

	remaining := int(geom.ZoneSizeBytes()) - 2*int(geom.LBASize)
	_, err = reopened.Append(geom.ZoneStartLBA(0), make([]byte, remaining))
	assert.NoError(t, err)
}

func TestForceResetWipesExistingImage(t *testing.T) {
	geom := testGeometry()
	dir := filepath.Join(t.TempDir(), "zones")

	dev, err := Open(&Config{Geometry: geom, ImageDir: dir, Prefix: "zone", Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)
	_, err = dev.Append(geom.ZoneStartLBA(0), make([]byte, geom.LBASize))
	require.NoError(t, err)
	require.NoError(t, dev.Close())

	reset, err := Open(&Config{Geometry: geom, ImageDir: dir, Prefix: "zone", ForceReset: true, Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)
	defer reset.Close()

	lba, err := reset.Append(geom.ZoneStartLBA(0), make([]byte, geom.LBASize))
	require.NoError(t, err)
	assert.Equal(t, geom.ZoneStartLBA(0), lba)
}
