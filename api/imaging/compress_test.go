package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompress_DownscalesWideImages(t *testing.T) {
	c := NewCompressor(800, 70)
	out, err := c.Compress(bytes.NewReader(pngOf(t, 1600, 1200)))
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
}

func TestCompress_KeepsNarrowImageSize(t *testing.T) {
	c := NewCompressor(800, 70)
	out, err := c.Compress(bytes.NewReader(pngOf(t, 320, 200)))
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestCompress_RejectsNonImage(t *testing.T) {
	_, err := NewCompressor(0, 0).Compress(strings.NewReader("%PDF-1.7"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestNewCompressor_Defaults(t *testing.T) {
	c := NewCompressor(-1, 500)
	assert.Equal(t, DefaultMaxWidth, c.MaxWidth)
	assert.Equal(t, DefaultQuality, c.Quality)
}

func TestDataURL(t *testing.T) {
	url, err := NewCompressor(100, 80).DataURL(bytes.NewReader(pngOf(t, 50, 50)))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}
