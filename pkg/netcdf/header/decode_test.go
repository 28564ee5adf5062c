package header

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/bgrewell/cdf-kit/pkg/cdferr"
	"github.com/bgrewell/cdf-kit/pkg/consts"
	"github.com/stretchr/testify/require"
)

// builder assembles a well-formed NetCDF-3 classic header byte-by-byte so
// tests never depend on a real fixture file.
type builder struct {
	buf bytes.Buffer
}

func (b *builder) i32(v int32) *builder {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	b.buf.Write(tmp[:])
	return b
}

func (b *builder) str(s string) *builder {
	b.i32(int32(len(s)))
	b.buf.WriteString(s)
	if pad := padLen(int64(len(s))); pad > 0 {
		b.buf.Write(make([]byte, pad))
	}
	return b
}

func (b *builder) bytesSource() *memSrc {
	return &memSrc{Reader: bytes.NewReader(b.buf.Bytes())}
}

type memSrc struct {
	*bytes.Reader
}

func (m *memSrc) Close() error { return nil }

// minimal builds the smallest legal header: magic, zero records, and
// absent dimension/attribute/variable lists.
func minimal() *builder {
	b := &builder{}
	b.buf.WriteString("CDF\x01")
	b.i32(0) // num_records
	b.i32(int32(consts.TAG_ABSENT)).i32(0) // dim_list
	b.i32(int32(consts.TAG_ABSENT)).i32(0) // att_list
	b.i32(int32(consts.TAG_ABSENT)).i32(0) // var_list
	return b
}

func TestDecodeMinimalHeader(t *testing.T) {
	b := minimal()
	h, err := Decode(b.bytesSource())
	require.NoError(t, err)
	require.Equal(t, int64(0), h.NumRecords)
	require.Empty(t, h.Dimensions)
	require.Empty(t, h.Attributes)
	require.Empty(t, h.Variables)
	require.Equal(t, int64(b.buf.Len()), h.HeaderSize)
	require.NotEmpty(t, h.Fingerprint)
}

func TestDecodeBadMagic(t *testing.T) {
	src := &memSrc{Reader: bytes.NewReader([]byte("NOPE1234567890"))}
	_, err := Decode(src)
	require.ErrorIs(t, err, cdferr.ErrBadMagic)
}

func TestDecodeDimensionsAttributesVariables(t *testing.T) {
	b := &builder{}
	b.buf.WriteString("CDF\x01")
	b.i32(0)

	// dimensions: x=4, z=2
	b.i32(int32(consts.TAG_DIMENSION)).i32(2)
	b.str("x").i32(4)
	b.str("z").i32(2)

	// global attributes: one CHAR, one LONG sequence
	b.i32(int32(consts.TAG_ATTRIBUTE)).i32(2)
	b.str("title").i32(int32(consts.NC_CHAR)).i32(5)
	b.buf.WriteString("hello")
	b.buf.Write(make([]byte, padLen(5)))
	b.str("zdim_total").i32(int32(consts.NC_LONG)).i32(1)
	b.i32(2)

	// variables: one var "vol" over dims x,z, one attribute, type BYTE
	b.i32(int32(consts.TAG_VARIABLE)).i32(1)
	b.str("vol").i32(2)
	b.i32(0) // dim index -> x
	b.i32(1) // dim index -> z
	b.i32(int32(consts.TAG_ATTRIBUTE)).i32(1)
	b.str("units").i32(int32(consts.NC_CHAR)).i32(2)
	b.buf.WriteString("mm")
	b.buf.Write(make([]byte, padLen(2)))
	b.i32(int32(consts.NC_BYTE)) // nc_type
	b.i32(8)                     // vsize
	b.i32(100)                   // begin

	h, err := Decode(b.bytesSource())
	require.NoError(t, err)

	require.Len(t, h.Dimensions, 2)
	require.Equal(t, "x", h.Dimensions[0].Name)
	require.Equal(t, int64(4), h.Dimensions[0].Value)
	require.Equal(t, "z", h.Dimensions[1].Name)
	require.Equal(t, int64(2), h.Dimensions[1].Value)

	title, ok := h.Attribute("title")
	require.True(t, ok)
	require.True(t, title.IsChar())
	require.Equal(t, "hello", title.Text)

	zt, ok := h.Attribute("zdim_total")
	require.True(t, ok)
	require.Equal(t, []int64{2}, zt.Ints())

	require.Len(t, h.Variables, 1)
	v := h.Variables[0]
	require.Equal(t, "vol", v.Name)
	require.Equal(t, consts.NC_BYTE, v.NcType)
	require.Equal(t, int64(8), v.DataSize)
	require.Equal(t, int64(100), v.DataStart)
	require.Len(t, v.Dimensions, 2)
	require.Same(t, h.Dimensions[0], v.Dimensions[0])
	require.Same(t, h.Dimensions[1], v.Dimensions[1])

	units, ok := v.Attribute("units")
	require.True(t, ok)
	require.Equal(t, "mm", units.Text)

	cdl := h.CDL("test")
	require.Contains(t, cdl, "netcdf test {")
	require.Contains(t, cdl, "x = 4 ;")
	require.Contains(t, cdl, "byte vol(x, z) ;")
	require.Contains(t, cdl, `vol:units = "mm" ;`)
	require.Contains(t, cdl, `:title = "hello" ;`)
}

func TestDecodeUnexpectedTagFails(t *testing.T) {
	b := &builder{}
	b.buf.WriteString("CDF\x01")
	b.i32(0)
	b.i32(99).i32(1) // bogus dim_list tag with nonzero count
	_, err := Decode(b.bytesSource())
	require.ErrorIs(t, err, cdferr.ErrFormat)
}

func TestDecodeTruncatedFails(t *testing.T) {
	b := minimal()
	data := b.buf.Bytes()
	src := &memSrc{Reader: bytes.NewReader(data[:len(data)-2])}
	_, err := Decode(src)
	require.Error(t, err)
}

func TestDecodeDimIndexOutOfRange(t *testing.T) {
	b := &builder{}
	b.buf.WriteString("CDF\x01")
	b.i32(0)
	b.i32(int32(consts.TAG_ABSENT)).i32(0) // no dims
	b.i32(int32(consts.TAG_ABSENT)).i32(0) // no global attrs
	b.i32(int32(consts.TAG_VARIABLE)).i32(1)
	b.str("v").i32(1)
	b.i32(0) // dim index 0, but there are no dims
	b.i32(int32(consts.TAG_ABSENT)).i32(0)
	b.i32(int32(consts.NC_BYTE))
	b.i32(1)
	b.i32(0)

	_, err := Decode(b.bytesSource())
	require.ErrorIs(t, err, cdferr.ErrFormat)
}
