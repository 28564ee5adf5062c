// Package slab implements the z-slab streamer (§4.6 / C6): for one
// shard, it locates the volume variable, verifies it agrees with the
// volume descriptor established by earlier shards, and yields successive
// z-plane 2-D arrays, decompressing bzip2 shards transparently.
package slab

import (
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/bgrewell/cdf-kit/pkg/cdferr"
	"github.com/bgrewell/cdf-kit/pkg/netcdf/header"
	"github.com/bgrewell/cdf-kit/pkg/netcdf/volume"
)

// Plane is one z-level's raw sample bytes, shape (Y, X) at volume.Dtype
// element size, still in on-disk big-endian byte order.
type Plane struct {
	Z    int64
	Data []byte
}

// Stream opens shardPath, decodes its header, and yields one Plane per z
// in the shard's z-range, in ascending order. desc is the volume
// descriptor established by the first shard in the set; Stream verifies
// this shard's variable agrees with it before streaming any data.
//
// fn is called once per plane; returning a non-nil error stops the
// stream and is propagated. A short read at end of shard yields
// cdferr.ErrShortSlab instead of silently truncating.
func Stream(shardPath string, desc volume.Descriptor, fn func(Plane) error) error {
	hdrSrc, err := os.Open(shardPath)
	if err != nil {
		return fmt.Errorf("slab: opening %s: %w", shardPath, err)
	}
	h, err := header.Decode(osSource{hdrSrc})
	closeErr := hdrSrc.Close()
	if err != nil {
		return fmt.Errorf("slab: decoding header of %s: %w", shardPath, err)
	}
	if closeErr != nil {
		return fmt.Errorf("slab: closing %s: %w", shardPath, closeErr)
	}

	got, v, err := volume.Describe(h, desc.Name)
	if err != nil {
		return fmt.Errorf("slab: %s: %w", shardPath, err)
	}
	if err := volume.CheckEquivalent(desc, got); err != nil {
		return fmt.Errorf("slab: %s: %w", shardPath, err)
	}

	lo, hi := volume.ZRange(h, v, desc)
	bytesPerPlane := desc.SizeX * desc.SizeY * int64(desc.Dtype.ElementSize())

	raw, err := os.Open(shardPath)
	if err != nil {
		return fmt.Errorf("slab: reopening %s: %w", shardPath, err)
	}
	defer raw.Close()

	var body io.Reader = raw
	if strings.HasSuffix(shardPath, ".bz2") {
		body = bzip2.NewReader(raw)
		if _, err := io.CopyN(io.Discard, body, v.DataStart); err != nil {
			return fmt.Errorf("slab: seeking to data start in %s: %w", shardPath, err)
		}
	} else {
		if _, err := raw.Seek(v.DataStart, io.SeekStart); err != nil {
			return fmt.Errorf("slab: seeking to data start in %s: %w", shardPath, err)
		}
	}

	buf := make([]byte, bytesPerPlane)
	for z := lo; z <= hi; z++ {
		n, err := io.ReadFull(body, buf)
		if err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				return fmt.Errorf("slab: %s at z=%d (read %d of %d bytes): %w", shardPath, z, n, bytesPerPlane, cdferr.ErrShortSlab)
			}
			return fmt.Errorf("slab: reading plane z=%d from %s: %w", z, shardPath, err)
		}
		plane := Plane{Z: z, Data: append([]byte(nil), buf...)}
		if err := fn(plane); err != nil {
			return err
		}
	}
	return nil
}

// osSource adapts *os.File to reader.Source for header decoding; every
// method is promoted directly from the embedded file.
type osSource struct{ *os.File }

// DataRange is the first pass of the float32 two-pass scheme: one
// streaming min/max scan over every shard's float32 samples, needed
// before float-mode histogram construction can assign its (offset,
// binsize) (§4.7). It exists purely to establish (min, max) ahead of the
// real streaming pass.
func DataRange(shardPaths []string, desc volume.Descriptor) (min, max float32, err error) {
	first := true
	err = eachFloat32(shardPaths, desc, func(v float32) {
		if first {
			min, max = v, v
			first = false
			return
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	})
	return min, max, err
}

func eachFloat32(shardPaths []string, desc volume.Descriptor, visit func(float32)) error {
	for _, path := range shardPaths {
		err := Stream(path, desc, func(p Plane) error {
			for i := 0; i+4 <= len(p.Data); i += 4 {
				bits := uint32(p.Data[i])<<24 | uint32(p.Data[i+1])<<16 | uint32(p.Data[i+2])<<8 | uint32(p.Data[i+3])
				visit(math.Float32frombits(bits))
			}
			return nil
		})
		if err != nil && !errors.Is(err, cdferr.ErrShortSlab) {
			return err
		}
	}
	return nil
}
