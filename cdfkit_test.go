package cdfkit

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bgrewell/cdf-kit/pkg/consts"
	"github.com/stretchr/testify/require"
)

// cdfBuilder assembles a minimal well-formed NetCDF-3 classic file (header
// plus one variable's data body) so tests never depend on a real fixture.
type cdfBuilder struct {
	buf bytes.Buffer
}

func (b *cdfBuilder) i32(v int32) *cdfBuilder {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	b.buf.Write(tmp[:])
	return b
}

func padLen(n int) int {
	if rem := n % 4; rem != 0 {
		return 4 - rem
	}
	return 0
}

func (b *cdfBuilder) str(s string) *cdfBuilder {
	b.i32(int32(len(s)))
	b.buf.WriteString(s)
	b.buf.Write(make([]byte, padLen(len(s))))
	return b
}

// writeVolumeFile writes a single-shard "CDF\001" file to dir/name with
// one variable "vol" of the given dtype and (z,y,x) shape, body filled
// with data (or zero-filled if data is nil).
func writeVolumeFile(t *testing.T, dir, name string, nct consts.NcType, x, y, z int64, data []byte) string {
	t.Helper()
	b := &cdfBuilder{}
	b.buf.WriteString("CDF\x01")
	b.i32(0) // num_records

	b.i32(int32(consts.TAG_DIMENSION)).i32(3)
	b.str("z").i32(int32(z))
	b.str("y").i32(int32(y))
	b.str("x").i32(int32(x))

	b.i32(int32(consts.TAG_ABSENT)).i32(0) // global attributes

	b.i32(int32(consts.TAG_VARIABLE)).i32(1)
	b.str("vol")
	b.i32(3)
	b.i32(0) // -> z
	b.i32(1) // -> y
	b.i32(2) // -> x
	b.i32(int32(consts.TAG_ABSENT)).i32(0) // variable attributes
	b.i32(int32(nct))
	elemSize := nct.ElementSize()
	b.i32(int32(x * y * z * int64(elemSize)))
	beginOffset := b.buf.Len()
	b.i32(0) // begin, patched below

	headerLen := b.buf.Len()
	raw := b.buf.Bytes()
	binary.BigEndian.PutUint32(raw[beginOffset:beginOffset+4], uint32(headerLen))

	body := data
	if body == nil {
		body = make([]byte, x*y*z*int64(elemSize))
	}
	full := append(append([]byte(nil), raw...), body...)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, full, 0o644))
	return path
}

func TestOpenDecodesHeaderAndDiscoversShards(t *testing.T) {
	dir := t.TempDir()
	path := writeVolumeFile(t, dir, "vol_nc", consts.NC_BYTE, 12, 12, 12, nil)

	k, err := Open(path)
	require.NoError(t, err)
	require.NotNil(t, k.Header())
	require.Len(t, k.Header().Variables, 1)

	shards, err := k.Shards()
	require.NoError(t, err)
	require.Equal(t, []string{path}, shards)
}

func TestSlicesRendersAllThreeAxesAsAdd(t *testing.T) {
	dir := t.TempDir()
	path := writeVolumeFile(t, dir, "vol_nc", consts.NC_BYTE, 12, 12, 12, nil)

	k, err := Open(path)
	require.NoError(t, err)

	images, err := k.Slices("dataset", nil)
	require.NoError(t, err)
	require.Len(t, images, 3)
	for _, img := range images {
		require.Equal(t, ActionAdd, img.Action)
		require.NotEmpty(t, img.Bytes)
	}
}

func TestSlicesSuppressesThinAxes(t *testing.T) {
	dir := t.TempDir()
	path := writeVolumeFile(t, dir, "vol_nc", consts.NC_BYTE, 4, 4, 4, nil)

	k, err := Open(path)
	require.NoError(t, err)

	images, err := k.Slices("dataset", nil)
	require.NoError(t, err)
	require.Empty(t, images)
}

func TestSlicesSkipsExistingOutputsWithoutReplace(t *testing.T) {
	dir := t.TempDir()
	path := writeVolumeFile(t, dir, "vol_nc", consts.NC_BYTE, 12, 12, 12, nil)

	k, err := Open(path)
	require.NoError(t, err)

	probe, err := k.Slices("dataset", nil)
	require.NoError(t, err)
	existing := map[string]bool{}
	for _, img := range probe {
		existing[img.Name] = true
	}

	k2, err := Open(path)
	require.NoError(t, err)
	images, err := k2.Slices("dataset", existing)
	require.NoError(t, err)
	require.Empty(t, images)
}

func TestSlicesReplacesExistingOutputsWhenReplaceSet(t *testing.T) {
	dir := t.TempDir()
	path := writeVolumeFile(t, dir, "vol_nc", consts.NC_BYTE, 12, 12, 12, nil)

	k, err := Open(path, WithReplace(true))
	require.NoError(t, err)

	existing := map[string]bool{"sliceX5_dataset.png": true, "sliceY5_dataset.png": true, "sliceZ5_dataset.png": true}
	images, err := k.Slices("dataset", existing)
	require.NoError(t, err)
	require.Len(t, images, 3)
	for _, img := range images {
		require.Equal(t, ActionReplace, img.Action)
	}
}

func TestSlicesDryRunEmitsDummyPlaceholders(t *testing.T) {
	dir := t.TempDir()
	path := writeVolumeFile(t, dir, "vol_nc", consts.NC_BYTE, 12, 12, 12, nil)

	k, err := Open(path, WithDryRun(true), WithThumbnailSizes(32))
	require.NoError(t, err)

	images, err := k.Slices("dataset", nil)
	require.NoError(t, err)
	// 3 axes x (1 full + 1 thumbnail) = 6
	require.Len(t, images, 6)
}

func TestSlicesReturnsNilWhenNoEligibleVariable(t *testing.T) {
	dir := t.TempDir()
	b := &cdfBuilder{}
	b.buf.WriteString("CDF\x01")
	b.i32(0)
	b.i32(int32(consts.TAG_DIMENSION)).i32(2)
	b.str("y").i32(4)
	b.str("x").i32(4)
	b.i32(int32(consts.TAG_ABSENT)).i32(0)
	b.i32(int32(consts.TAG_VARIABLE)).i32(1)
	b.str("flat")
	b.i32(2)
	b.i32(0)
	b.i32(1)
	b.i32(int32(consts.TAG_ABSENT)).i32(0)
	b.i32(int32(consts.NC_BYTE))
	b.i32(16)
	beginOffset := b.buf.Len()
	b.i32(0)
	headerLen := b.buf.Len()
	raw := b.buf.Bytes()
	binary.BigEndian.PutUint32(raw[beginOffset:beginOffset+4], uint32(headerLen))
	full := append(append([]byte(nil), raw...), make([]byte, 16)...)
	path := filepath.Join(dir, "flat_nc")
	require.NoError(t, os.WriteFile(path, full, 0o644))

	k, err := Open(path)
	require.NoError(t, err)
	images, err := k.Slices("dataset", nil)
	require.NoError(t, err)
	require.Nil(t, images)
}

func TestProvenanceEmitsSortedJSONArray(t *testing.T) {
	dir := t.TempDir()
	b := &cdfBuilder{}
	b.buf.WriteString("CDF\x01")
	b.i32(0)
	b.i32(int32(consts.TAG_ABSENT)).i32(0) // dims

	history := "COMMAND: /usr/bin/recon input_nc output_nc\nDATE: 2020/01/01 12:00:00\n"
	b.i32(int32(consts.TAG_ATTRIBUTE)).i32(1)
	b.str("history_20200101_120000").i32(int32(consts.NC_CHAR)).i32(int32(len(history)))
	b.buf.WriteString(history)
	b.buf.Write(make([]byte, padLen(len(history))))

	b.i32(int32(consts.TAG_ABSENT)).i32(0) // vars
	path := filepath.Join(dir, "prov_nc")
	require.NoError(t, os.WriteFile(path, b.buf.Bytes(), 0o644))

	k, err := Open(path)
	require.NoError(t, err)

	data, err := k.Provenance("output", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
}
