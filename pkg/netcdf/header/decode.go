package header

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bgrewell/cdf-kit/pkg/cdferr"
	"github.com/bgrewell/cdf-kit/pkg/consts"
	"github.com/bgrewell/cdf-kit/pkg/netcdf/reader"
)

var magic = [4]byte{'C', 'D', 'F', consts.NC_VERSION}

// Decode reads and parses one NetCDF-3 classic header from src, returning
// the decoded Header together with HeaderSize and Fingerprint populated
// from the underlying reader.Fingerprint once the variable list has been
// fully consumed (§4.3).
func Decode(src reader.Source) (*Header, error) {
	fp := reader.New(src)
	d := &decoder{fp: fp}

	if err := d.readMagic(); err != nil {
		return nil, err
	}
	numRecords, err := d.readInt32()
	if err != nil {
		return nil, fmt.Errorf("header: reading num_records: %w", err)
	}

	h := &Header{NumRecords: int64(numRecords)}

	h.Dimensions, err = d.readDimensionList()
	if err != nil {
		return nil, err
	}
	h.Attributes, err = d.readAttributeList()
	if err != nil {
		return nil, err
	}
	h.Variables, err = d.readVariableList(h.Dimensions)
	if err != nil {
		return nil, err
	}

	h.HeaderSize = fp.BytesRead()
	h.Fingerprint = fp.Digest()
	return h, nil
}

type decoder struct {
	fp *reader.Fingerprint
}

func (d *decoder) readMagic() error {
	got, err := d.fp.ReadFull(4)
	if err != nil {
		return fmt.Errorf("header: reading magic: %w", err)
	}
	if [4]byte(got) != magic {
		return fmt.Errorf("header: bad magic %q: %w", got, cdferr.ErrBadMagic)
	}
	return nil
}

func (d *decoder) readInt32() (int32, error) {
	b, err := d.fp.ReadFull(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// readNonNegative reads an int32 that the format requires to be >= 0
// (counts, lengths, dimension sizes, data_size, data_start).
func (d *decoder) readNonNegative() (int64, error) {
	v, err := d.readInt32()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("header: negative count/size %d: %w", v, cdferr.ErrFormat)
	}
	return int64(v), nil
}

func (d *decoder) readTag() (consts.ListTag, error) {
	v, err := d.readInt32()
	if err != nil {
		return 0, err
	}
	return consts.ListTag(v), nil
}

// readString reads a NetCDF "name" value: a non-negative length, that
// many raw bytes, then zero-padding out to the next multiple of 4 (§4.1).
func (d *decoder) readString() (string, error) {
	n, err := d.readNonNegative()
	if err != nil {
		return "", fmt.Errorf("header: reading string length: %w", err)
	}
	raw, err := d.fp.ReadFull(int(n))
	if err != nil {
		return "", fmt.Errorf("header: reading string body: %w", err)
	}
	if pad := padLen(n); pad > 0 {
		if _, err := d.fp.ReadFull(pad); err != nil {
			return "", fmt.Errorf("header: reading string padding: %w", err)
		}
	}
	return string(raw), nil
}

// padLen returns the number of zero-padding bytes that follow n bytes of
// payload to bring the total to a multiple of 4.
func padLen(n int64) int {
	if rem := n % 4; rem != 0 {
		return int(4 - rem)
	}
	return 0
}

// readValues reads count elements of nct, plus trailing padding to a
// 4-byte boundary, and returns them as an Attribute payload.
func (d *decoder) readValues(nct consts.NcType, count int64) (Attribute, error) {
	a := Attribute{Type: nct}
	size := int64(nct.ElementSize())
	if size == 0 {
		return a, fmt.Errorf("header: unknown element type %d: %w", nct, cdferr.ErrFormat)
	}
	total := size * count
	raw, err := d.fp.ReadFull(int(total))
	if err != nil {
		return a, fmt.Errorf("header: reading values: %w", err)
	}
	if pad := padLen(total); pad > 0 {
		if _, err := d.fp.ReadFull(pad); err != nil {
			return a, fmt.Errorf("header: reading value padding: %w", err)
		}
	}

	if nct == consts.NC_CHAR {
		a.Text = string(raw)
		return a, nil
	}

	a.Values = make([]float64, count)
	for i := int64(0); i < count; i++ {
		chunk := raw[i*size : (i+1)*size]
		switch nct {
		case consts.NC_BYTE:
			a.Values[i] = float64(int8(chunk[0]))
		case consts.NC_SHORT:
			a.Values[i] = float64(int16(binary.BigEndian.Uint16(chunk)))
		case consts.NC_LONG:
			a.Values[i] = float64(int32(binary.BigEndian.Uint32(chunk)))
		case consts.NC_FLOAT:
			a.Values[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(chunk)))
		case consts.NC_DOUBLE:
			a.Values[i] = math.Float64frombits(binary.BigEndian.Uint64(chunk))
		}
	}
	return a, nil
}

func (d *decoder) readDimensionList() ([]*Dimension, error) {
	tag, err := d.readTag()
	if err != nil {
		return nil, fmt.Errorf("header: reading dim_list tag: %w", err)
	}
	count, err := d.readNonNegative()
	if err != nil {
		return nil, fmt.Errorf("header: reading dim_list count: %w", err)
	}
	if tag != consts.TAG_DIMENSION {
		if tag == consts.TAG_ABSENT && count == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("header: dim_list tag %d count %d: %w", tag, count, cdferr.ErrFormat)
	}

	dims := make([]*Dimension, count)
	for i := range dims {
		name, err := d.readString()
		if err != nil {
			return nil, fmt.Errorf("header: dimension %d name: %w", i, err)
		}
		value, err := d.readNonNegative()
		if err != nil {
			return nil, fmt.Errorf("header: dimension %d value: %w", i, err)
		}
		dims[i] = &Dimension{Name: name, Value: value}
	}
	return dims, nil
}

func (d *decoder) readAttributeList() ([]Attribute, error) {
	tag, err := d.readTag()
	if err != nil {
		return nil, fmt.Errorf("header: reading att_list tag: %w", err)
	}
	count, err := d.readNonNegative()
	if err != nil {
		return nil, fmt.Errorf("header: reading att_list count: %w", err)
	}
	if tag != consts.TAG_ATTRIBUTE {
		if tag == consts.TAG_ABSENT && count == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("header: att_list tag %d count %d: %w", tag, count, cdferr.ErrFormat)
	}

	attrs := make([]Attribute, count)
	for i := range attrs {
		name, err := d.readString()
		if err != nil {
			return nil, fmt.Errorf("header: attribute %d name: %w", i, err)
		}
		typeVal, err := d.readInt32()
		if err != nil {
			return nil, fmt.Errorf("header: attribute %d type: %w", i, err)
		}
		nct := consts.NcType(typeVal)
		if !nct.Valid() {
			return nil, fmt.Errorf("header: attribute %d has invalid type %d: %w", i, typeVal, cdferr.ErrFormat)
		}
		nelems, err := d.readNonNegative()
		if err != nil {
			return nil, fmt.Errorf("header: attribute %d count: %w", i, err)
		}
		val, err := d.readValues(nct, nelems)
		if err != nil {
			return nil, fmt.Errorf("header: attribute %d %q values: %w", i, name, err)
		}
		val.Name = name
		attrs[i] = val
	}
	return attrs, nil
}

func (d *decoder) readVariableList(dims []*Dimension) ([]*Variable, error) {
	tag, err := d.readTag()
	if err != nil {
		return nil, fmt.Errorf("header: reading var_list tag: %w", err)
	}
	count, err := d.readNonNegative()
	if err != nil {
		return nil, fmt.Errorf("header: reading var_list count: %w", err)
	}
	if tag != consts.TAG_VARIABLE {
		if tag == consts.TAG_ABSENT && count == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("header: var_list tag %d count %d: %w", tag, count, cdferr.ErrFormat)
	}

	vars := make([]*Variable, count)
	for i := range vars {
		name, err := d.readString()
		if err != nil {
			return nil, fmt.Errorf("header: variable %d name: %w", i, err)
		}
		ndims, err := d.readNonNegative()
		if err != nil {
			return nil, fmt.Errorf("header: variable %d ndims: %w", i, err)
		}
		vdims := make([]*Dimension, ndims)
		for j := range vdims {
			idx, err := d.readNonNegative()
			if err != nil {
				return nil, fmt.Errorf("header: variable %d dim index %d: %w", i, j, err)
			}
			if idx >= int64(len(dims)) {
				return nil, fmt.Errorf("header: variable %d dim index %d out of range (have %d): %w", i, idx, len(dims), cdferr.ErrFormat)
			}
			vdims[j] = dims[idx]
		}
		vattrs, err := d.readAttributeList()
		if err != nil {
			return nil, fmt.Errorf("header: variable %d %q attributes: %w", i, name, err)
		}
		typeVal, err := d.readInt32()
		if err != nil {
			return nil, fmt.Errorf("header: variable %d type: %w", i, err)
		}
		nct := consts.NcType(typeVal)
		if !nct.Valid() {
			return nil, fmt.Errorf("header: variable %d has invalid type %d: %w", i, typeVal, cdferr.ErrFormat)
		}
		dataSize, err := d.readNonNegative()
		if err != nil {
			return nil, fmt.Errorf("header: variable %d vsize: %w", i, err)
		}
		dataStart, err := d.readNonNegative()
		if err != nil {
			return nil, fmt.Errorf("header: variable %d begin: %w", i, err)
		}
		vars[i] = &Variable{
			Name:       name,
			Dimensions: vdims,
			Attributes: vattrs,
			NcType:     nct,
			DataSize:   dataSize,
			DataStart:  dataStart,
		}
	}
	return vars, nil
}
