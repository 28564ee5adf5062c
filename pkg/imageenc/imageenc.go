// Package imageenc implements the image encoder (§4.9 / C9): it turns
// one decoded 2-D sample array into a PNG, choosing among four
// conversion modes by dtype, and can resample the result down to a
// requested thumbnail size.
package imageenc

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/bgrewell/cdf-kit/pkg/netcdf/volume"
)

// Mode is one of the four pixel-conversion schemes selected by dtype.
type Mode int

const (
	Grayscale Mode = iota
	BlackAndWhite
	ColorCoded
	ColorCodedFixed
)

// SelectMode implements the dtype → mode table of §4.9.
func SelectMode(dtype volume.Dtype, hi float64) Mode {
	switch dtype {
	case volume.U8:
		if hi <= 1 {
			return BlackAndWhite
		}
		return ColorCodedFixed
	case volume.I32:
		return ColorCoded
	default: // U16, F32
		return Grayscale
	}
}

// bmap translates the low 15 bits of a label value into destination RGBA
// bit positions for the color-coded modes (§4.9).
var bmap = [15]uint{7, 15, 23, 6, 14, 22, 5, 13, 21, 4, 12, 20, 3, 11, 19}

// fixedColormap is the palette used by COLOR_CODED_FIXED for labels 1..10.
var fixedColormap = [11]uint32{
	0,
	0x00ff00, 0x0000ff, 0xff0000, 0x00ffff, 0xffff00,
	0x007f00, 0x00007f, 0x7f0000, 0x007f7f, 0x7f7f00,
}

// Encode converts one (height x width) plane of raw int64 samples into a
// PNG according to mode, masking any sample equal to maskValue (§4.9).
func Encode(samples []int64, width, height int, lo, hi float64, maskValue int64, mode Mode) ([]byte, error) {
	var img image.Image
	switch mode {
	case Grayscale:
		img = convertGrayscale(samples, width, height, lo, hi, maskValue)
	case BlackAndWhite:
		img = convertBlackAndWhite(samples, width, height, maskValue)
	case ColorCoded:
		img = convertColorCoded(samples, width, height, maskValue, false)
	case ColorCodedFixed:
		img = convertColorCoded(samples, width, height, maskValue, true)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func convertGrayscale(samples []int64, width, height int, lo, hi float64, maskValue int64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	scale := 65535.0 / (hi - lo) / 256.0
	for i, v := range samples {
		masked := v == maskValue
		data := float64(v)
		if masked {
			data = 0
		}
		if data < lo {
			data = lo
		}
		out := (data - lo) * scale
		if out > 255 {
			out = 255
		}
		if out < 0 {
			out = 0
		}
		px := uint8(out)
		if masked {
			px |= 80
		}
		img.Pix[i] = px
	}
	return img
}

func convertBlackAndWhite(samples []int64, width, height int, maskValue int64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i, v := range samples {
		masked := v == maskValue
		data := v
		if masked {
			data = 0
		}
		var px uint8
		if data > 0 {
			px = 0xff
		}
		if masked {
			px |= 80
		}
		img.Pix[i] = px
	}
	return img
}

func convertColorCoded(samples []int64, width, height int, maskValue int64, useFixed bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, v := range samples {
		masked := v == maskValue
		data := v
		if masked {
			data = 0
		}

		out := uint32(0xff000000)
		if masked {
			out |= 0x505050
		}

		if useFixed && data >= 1 && data < int64(len(fixedColormap)) {
			out |= fixedColormap[data]
			data = 0
		}

		for bit := 0; bit < 15; bit++ {
			if (data>>uint(bit))&1 != 0 {
				out |= 1 << bmap[bit]
			}
		}

		px := i * 4
		img.Pix[px+0] = byte(out >> 16) // R
		img.Pix[px+1] = byte(out >> 8)  // G
		img.Pix[px+2] = byte(out)       // B
		img.Pix[px+3] = byte(out >> 24) // A
	}
	return img
}

// Thumbnail resamples src (via the nearest-neighbor method the teacher's
// corpus uses for fixed-size previews) down to the target width/height
// and re-encodes as PNG.
func Thumbnail(src []byte, width, height int) ([]byte, error) {
	decoded, err := png.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	srcBounds := decoded.Bounds()
	for y := 0; y < height; y++ {
		sy := srcBounds.Min.Y + y*srcBounds.Dy()/height
		for x := 0; x < width; x++ {
			sx := srcBounds.Min.X + x*srcBounds.Dx()/width
			dst.Set(x, y, decoded.At(sx, sy))
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MakeDummy renders a placeholder grey image stamped with a blocky
// stencil of label, used by dry-run mode where no real sample data is
// ever streamed. The teacher's corpus has no font-rendering dependency
// to draw real text with, so the stencil is a simple filled rectangle
// sized to the label's length rather than legible glyphs — good enough
// to distinguish placeholders from real output at a glance.
func MakeDummy(label string, width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	gray := color.RGBA{0x80, 0x80, 0x80, 0xff}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: gray}, image.Point{}, draw.Src)

	stencil := color.RGBA{0x20, 0x20, 0x20, 0xff}
	barWidth := len(label) * 8
	if barWidth > width-32 {
		barWidth = width - 32
	}
	if barWidth < 0 {
		barWidth = 0
	}
	bar := image.Rect(16, height/2-4, 16+barWidth, height/2+4)
	draw.Draw(img, bar, &image.Uniform{C: stencil}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
