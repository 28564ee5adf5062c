package imageenc

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/bgrewell/cdf-kit/pkg/netcdf/volume"
	"github.com/stretchr/testify/require"
)

func TestSelectMode(t *testing.T) {
	require.Equal(t, BlackAndWhite, SelectMode(volume.U8, 1))
	require.Equal(t, ColorCodedFixed, SelectMode(volume.U8, 5))
	require.Equal(t, Grayscale, SelectMode(volume.U16, 100))
	require.Equal(t, ColorCoded, SelectMode(volume.I32, 100))
	require.Equal(t, Grayscale, SelectMode(volume.F32, 100))
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestEncodeGrayscaleMasksAndStretches(t *testing.T) {
	samples := []int64{0, 128, 255, 255} // last is masked
	data, err := Encode(samples, 2, 2, 0, 254, 255, Grayscale)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	img := decodePNG(t, data)
	require.Equal(t, 2, img.Bounds().Dx())
	require.Equal(t, 2, img.Bounds().Dy())

	gray := img.(*image.Gray)
	require.Equal(t, uint8(0), gray.GrayAt(0, 0).Y)
	require.Equal(t, uint8(129), gray.GrayAt(1, 0).Y) // 128 * 65535/254/256, truncated
	require.Equal(t, uint8(80), gray.GrayAt(0, 1).Y)  // masked
	require.Equal(t, uint8(80), gray.GrayAt(1, 1).Y)  // masked
}

func TestEncodeBlackAndWhite(t *testing.T) {
	samples := []int64{0, 1, 5, 255}
	data, err := Encode(samples, 2, 2, 0, 1, 255, BlackAndWhite)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestEncodeColorCodedFixed(t *testing.T) {
	samples := []int64{0, 1, 2, 11}
	data, err := Encode(samples, 2, 2, 0, 11, -1, ColorCodedFixed)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	img := decodePNG(t, data)
	require.Equal(t, 2, img.Bounds().Dx())
}

func TestMakeDummyProducesValidPNG(t *testing.T) {
	data, err := MakeDummy("no data", 64, 64)
	require.NoError(t, err)
	img := decodePNG(t, data)
	require.Equal(t, 64, img.Bounds().Dx())
	require.Equal(t, 64, img.Bounds().Dy())
}

func TestThumbnailResizes(t *testing.T) {
	full, err := MakeDummy("x", 256, 256)
	require.NoError(t, err)
	thumb, err := Thumbnail(full, 32, 32)
	require.NoError(t, err)
	img := decodePNG(t, thumb)
	require.Equal(t, 32, img.Bounds().Dx())
	require.Equal(t, 32, img.Bounds().Dy())
}
