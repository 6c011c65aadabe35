// Package imaging shrinks payment-proof photos before they are uploaded.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

// ErrUnsupportedImage is returned when the input is not a decodable png, jpeg or gif.
var ErrUnsupportedImage = errors.New("unsupported image")

const (
	DefaultMaxWidth = 800
	DefaultQuality  = 70
)

// Compressor downscales to at most MaxWidth pixels wide, keeping the aspect
// ratio, and re-encodes as JPEG at Quality (1-100).
type Compressor struct {
	MaxWidth int
	Quality  int
}

func NewCompressor(maxWidth, quality int) *Compressor {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Compressor{MaxWidth: maxWidth, Quality: quality}
}

// Compress returns the JPEG encoding of the (possibly downscaled) image read from r.
func (c *Compressor) Compress(r io.Reader) ([]byte, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	dst := c.resize(src)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: c.Quality}); err != nil {
		return nil, fmt.Errorf("encoding %s as jpeg: %w", format, err)
	}
	return buf.Bytes(), nil
}

func (c *Compressor) resize(src image.Image) image.Image {
	b := src.Bounds()
	if b.Dx() <= c.MaxWidth {
		return src
	}
	h := b.Dy() * c.MaxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, c.MaxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// DataURL compresses the image and returns it as a base64 data URL.
func (c *Compressor) DataURL(r io.Reader) (string, error) {
	raw, err := c.Compress(r)
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw), nil
}
