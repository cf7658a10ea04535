// Package bittest builds and reorients bit matrices for tests.
package bittest

import (
	"fmt"
	"strings"

	"github.com/ericlevine/qrcodec/bitutil"
)

// Parse reads the output of BitMatrix.StringWithChars back into a matrix.
func Parse(repr, setStr, unsetStr string) (*bitutil.BitMatrix, error) {
	var cells []bool
	rowLength := -1
	rows := 0
	rowStart := 0
	endRow := func() error {
		n := len(cells) - rowStart
		if n == 0 {
			return nil
		}
		if rowLength == -1 {
			rowLength = n
		} else if n != rowLength {
			return fmt.Errorf("bittest: row %d has %d cells, want %d", rows, n, rowLength)
		}
		rowStart = len(cells)
		rows++
		return nil
	}
	for pos := 0; pos < len(repr); {
		switch {
		case repr[pos] == '\n' || repr[pos] == '\r':
			if err := endRow(); err != nil {
				return nil, err
			}
			pos++
		case strings.HasPrefix(repr[pos:], setStr):
			cells = append(cells, true)
			pos += len(setStr)
		case strings.HasPrefix(repr[pos:], unsetStr):
			cells = append(cells, false)
			pos += len(unsetStr)
		default:
			return nil, fmt.Errorf("bittest: illegal character %q at %d", repr[pos], pos)
		}
	}
	if err := endRow(); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("bittest: empty input")
	}
	m := bitutil.NewBitMatrixWithSize(rowLength, rows)
	for i, v := range cells {
		if v {
			m.Set(i%rowLength, i/rowLength)
		}
	}
	return m, nil
}

// Rotate90 returns bm turned 90 degrees counterclockwise.
func Rotate90(bm *bitutil.BitMatrix) *bitutil.BitMatrix {
	w, h := bm.Width(), bm.Height()
	return remap(bm, h, w, func(x, y int) (int, int) { return y, w - 1 - x })
}

// Rotate180 returns bm turned upside down.
func Rotate180(bm *bitutil.BitMatrix) *bitutil.BitMatrix {
	w, h := bm.Width(), bm.Height()
	return remap(bm, w, h, func(x, y int) (int, int) { return w - 1 - x, h - 1 - y })
}

// FlipHorizontal returns bm mirrored left to right.
func FlipHorizontal(bm *bitutil.BitMatrix) *bitutil.BitMatrix {
	w, h := bm.Width(), bm.Height()
	return remap(bm, w, h, func(x, y int) (int, int) { return w - 1 - x, y })
}

func remap(bm *bitutil.BitMatrix, width, height int, to func(x, y int) (int, int)) *bitutil.BitMatrix {
	out := bitutil.NewBitMatrixWithSize(width, height)
	for y := 0; y < bm.Height(); y++ {
		for x := 0; x < bm.Width(); x++ {
			if bm.Get(x, y) {
				out.Set(to(x, y))
			}
		}
	}
	return out
}
