package qrcodec

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ericlevine/qrcodec/bitutil"
)

// GrayLuminanceSource is a LuminanceSource over a row-major 8-bit buffer.
type GrayLuminanceSource struct {
	luminances []byte
	width      int
	height     int
}

// NewGrayLuminanceSource wraps pix, which must hold width*height samples.
// The buffer is copied.
func NewGrayLuminanceSource(pix []byte, width, height int) (*GrayLuminanceSource, error) {
	if width <= 0 || height <= 0 || len(pix) < width*height {
		return nil, fmt.Errorf("luminance buffer of %d bytes does not fit %dx%d", len(pix), width, height)
	}
	lum := make([]byte, width*height)
	copy(lum, pix)
	return &GrayLuminanceSource{luminances: lum, width: width, height: height}, nil
}

// NewImageLuminanceSource creates a LuminanceSource from an image.Image.
// Pixels are converted once with (306*R + 601*G + 117*B + 0x200) >> 10 on
// 8-bit components; fully transparent pixels are white.
func NewImageLuminanceSource(img image.Image) *GrayLuminanceSource {
	if gray, ok := img.(*image.Gray); ok {
		return newGrayImageSource(gray)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	luminances := make([]byte, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if a == 0 {
				luminances[y*w+x] = 0xFF
				continue
			}
			r8, g8, b8 := r>>8, g>>8, b>>8
			luminances[y*w+x] = byte((306*r8 + 601*g8 + 117*b8 + 0x200) >> 10)
		}
	}
	return &GrayLuminanceSource{luminances: luminances, width: w, height: h}
}

func newGrayImageSource(img *image.Gray) *GrayLuminanceSource {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	luminances := make([]byte, w*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		copy(luminances[y*w:], img.Pix[off:off+w])
	}
	return &GrayLuminanceSource{luminances: luminances, width: w, height: h}
}

// Row returns a row of luminance data.
func (s *GrayLuminanceSource) Row(y int, row []byte) []byte {
	if y < 0 || y >= s.height {
		return nil
	}
	if len(row) < s.width {
		row = make([]byte, s.width)
	}
	offset := y * s.width
	copy(row, s.luminances[offset:offset+s.width])
	return row
}

// Matrix returns a copy of the entire luminance matrix.
func (s *GrayLuminanceSource) Matrix() []byte {
	result := make([]byte, len(s.luminances))
	copy(result, s.luminances)
	return result
}

func (s *GrayLuminanceSource) Width() int  { return s.width }
func (s *GrayLuminanceSource) Height() int { return s.height }

// BitMatrixToImage renders a BitMatrix one pixel per module: set bits are
// black, unset bits white.
func BitMatrixToImage(matrix *bitutil.BitMatrix) *image.Gray {
	w, h := matrix.Width(), matrix.Height()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if matrix.Get(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}
