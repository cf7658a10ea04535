// Package qrcodec reads and writes QR Code symbols.
//
// The root package holds the types shared by every stage of the pipeline:
// luminance sources, the binarizer contract, result points and the error
// kinds. The reader and writer live in the qrcode package.
package qrcodec

import "github.com/ericlevine/qrcodec/bitutil"

// LuminanceSource is a greyscale image, one byte per pixel, 0 black and
// 255 white.
type LuminanceSource interface {
	// Matrix returns every pixel, row-major. Callers may keep the slice
	// but must not modify it.
	Matrix() []byte
	Width() int
	Height() int
}

// Binarizer thresholds a LuminanceSource into dark and light pixels.
type Binarizer interface {
	// BlackMatrix returns the thresholded image; set bits are dark.
	BlackMatrix() (*bitutil.BitMatrix, error)
	LuminanceSource() LuminanceSource
	Width() int
	Height() int
}

// BinaryBitmap caches the black matrix produced by a Binarizer.
type BinaryBitmap struct {
	binarizer Binarizer
	matrix    *bitutil.BitMatrix
}

// NewBinaryBitmap creates a new BinaryBitmap from the given Binarizer.
func NewBinaryBitmap(binarizer Binarizer) *BinaryBitmap {
	return &BinaryBitmap{binarizer: binarizer}
}

// NewBinaryBitmapFromMatrix wraps an already binarized matrix.
func NewBinaryBitmapFromMatrix(matrix *bitutil.BitMatrix) *BinaryBitmap {
	return &BinaryBitmap{matrix: matrix}
}

// Width returns the width of the bitmap.
func (b *BinaryBitmap) Width() int {
	if b.matrix != nil {
		return b.matrix.Width()
	}
	return b.binarizer.Width()
}

// Height returns the height of the bitmap.
func (b *BinaryBitmap) Height() int {
	if b.matrix != nil {
		return b.matrix.Height()
	}
	return b.binarizer.Height()
}

// BlackMatrix returns the 2D matrix of black/white values. The matrix is
// computed once; callers must not modify it.
func (b *BinaryBitmap) BlackMatrix() (*bitutil.BitMatrix, error) {
	if b.matrix != nil {
		return b.matrix, nil
	}
	m, err := b.binarizer.BlackMatrix()
	if err != nil {
		return nil, err
	}
	b.matrix = m
	return m, nil
}
