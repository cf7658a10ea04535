package bitutil

import (
	"fmt"
	"math/bits"
	"strings"
)

// BitMatrix is a 2D matrix of bits, packed row-major into uint32 words.
// x is the column, y is the row, the origin is the top-left corner. A set
// bit is a dark pixel or module.
type BitMatrix struct {
	width   int
	height  int
	rowSize int
	data    []uint32
}

// NewBitMatrix creates a new square BitMatrix with the given dimension.
func NewBitMatrix(dimension int) *BitMatrix {
	return NewBitMatrixWithSize(dimension, dimension)
}

// NewBitMatrixWithSize creates a new BitMatrix with the given width and height.
func NewBitMatrixWithSize(width, height int) *BitMatrix {
	if width < 1 || height < 1 {
		panic("bitmatrix: dimensions must be greater than 0")
	}
	rowSize := (width + 31) >> 5
	return &BitMatrix{
		width:   width,
		height:  height,
		rowSize: rowSize,
		data:    make([]uint32, rowSize*height),
	}
}

// ParseBoolMatrix creates a BitMatrix from rows of booleans, true is set.
// Every row must have the same, non-zero length.
func ParseBoolMatrix(image [][]bool) (*BitMatrix, error) {
	if len(image) == 0 || len(image[0]) == 0 {
		return nil, fmt.Errorf("bitmatrix: empty input")
	}
	width := len(image[0])
	for y, row := range image {
		if len(row) != width {
			return nil, fmt.Errorf("bitmatrix: row %d has %d cells, want %d", y, len(row), width)
		}
	}
	bm := NewBitMatrixWithSize(width, len(image))
	for y, row := range image {
		for x, v := range row {
			if v {
				bm.Set(x, y)
			}
		}
	}
	return bm, nil
}

// locate returns the word holding (x, y) and the bit within it.
func (bm *BitMatrix) locate(x, y int) (int, uint32) {
	return y*bm.rowSize + x>>5, 1 << uint(x&31)
}

// Get reports whether the bit at (x, y) is set.
func (bm *BitMatrix) Get(x, y int) bool {
	i, mask := bm.locate(x, y)
	return bm.data[i]&mask != 0
}

// Set sets the bit at (x, y).
func (bm *BitMatrix) Set(x, y int) {
	i, mask := bm.locate(x, y)
	bm.data[i] |= mask
}

// SetTo sets the bit at (x, y) to v.
func (bm *BitMatrix) SetTo(x, y int, v bool) {
	if v {
		bm.Set(x, y)
	} else {
		bm.Unset(x, y)
	}
}

// Unset clears the bit at (x, y).
func (bm *BitMatrix) Unset(x, y int) {
	i, mask := bm.locate(x, y)
	bm.data[i] &^= mask
}

// Flip inverts the bit at (x, y).
func (bm *BitMatrix) Flip(x, y int) {
	i, mask := bm.locate(x, y)
	bm.data[i] ^= mask
}

// SetRegion sets a rectangular region of bits.
func (bm *BitMatrix) SetRegion(left, top, width, height int) {
	if top < 0 || left < 0 {
		panic("bitmatrix: left and top must be nonnegative")
	}
	if height < 1 || width < 1 {
		panic("bitmatrix: height and width must be at least 1")
	}
	right := left + width
	bottom := top + height
	if bottom > bm.height || right > bm.width {
		panic("bitmatrix: region must fit inside the matrix")
	}
	for y := top; y < bottom; y++ {
		for x := left; x < right; x++ {
			bm.Set(x, y)
		}
	}
}

// Transpose swaps rows and columns of a square matrix in place.
func (bm *BitMatrix) Transpose() {
	if bm.width != bm.height {
		panic("bitmatrix: transpose needs a square matrix")
	}
	for y := 0; y < bm.height; y++ {
		for x := y + 1; x < bm.width; x++ {
			a, b := bm.Get(x, y), bm.Get(y, x)
			bm.SetTo(x, y, b)
			bm.SetTo(y, x, a)
		}
	}
}

// TopLeftOnBit returns the [x, y] of the first set bit in reading order,
// or nil if none is set.
func (bm *BitMatrix) TopLeftOnBit() []int {
	offset := 0
	for offset < len(bm.data) && bm.data[offset] == 0 {
		offset++
	}
	if offset == len(bm.data) {
		return nil
	}
	y := offset / bm.rowSize
	x := (offset%bm.rowSize)*32 + bits.TrailingZeros32(bm.data[offset])
	return []int{x, y}
}

// BottomRightOnBit returns the [x, y] of the last set bit in reading order,
// or nil if none is set.
func (bm *BitMatrix) BottomRightOnBit() []int {
	offset := len(bm.data) - 1
	for offset >= 0 && bm.data[offset] == 0 {
		offset--
	}
	if offset < 0 {
		return nil
	}
	y := offset / bm.rowSize
	x := (offset%bm.rowSize)*32 + 31 - bits.LeadingZeros32(bm.data[offset])
	return []int{x, y}
}

// Width returns the width.
func (bm *BitMatrix) Width() int { return bm.width }

// Height returns the height.
func (bm *BitMatrix) Height() int { return bm.height }

// Clone returns a deep copy of the BitMatrix.
func (bm *BitMatrix) Clone() *BitMatrix {
	d := make([]uint32, len(bm.data))
	copy(d, bm.data)
	return &BitMatrix{width: bm.width, height: bm.height, rowSize: bm.rowSize, data: d}
}

// String returns a string representation using "X " for set and "  " for unset.
func (bm *BitMatrix) String() string {
	return bm.StringWithChars("X ", "  ")
}

// StringWithChars returns a string representation using the given set/unset strings.
func (bm *BitMatrix) StringWithChars(setString, unsetString string) string {
	var sb strings.Builder
	sb.Grow(bm.height * (bm.width*len(setString) + 1))
	for y := 0; y < bm.height; y++ {
		for x := 0; x < bm.width; x++ {
			if bm.Get(x, y) {
				sb.WriteString(setString)
			} else {
				sb.WriteString(unsetString)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Equals returns true if two BitMatrices have the same size and bits.
func (bm *BitMatrix) Equals(other *BitMatrix) bool {
	if bm.width != other.width || bm.height != other.height {
		return false
	}
	for i := range bm.data {
		if bm.data[i] != other.data[i] {
			return false
		}
	}
	return true
}
