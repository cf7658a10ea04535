package decoder

import "github.com/ericlevine/qrcodec/bitutil"

// DataMask is one of the eight data mask patterns, 0 to 7.
type DataMask int

// IsMasked reports whether the module at row i, column j is inverted by
// the mask.
func (m DataMask) IsMasked(i, j int) bool {
	switch m {
	case 0:
		return (i+j)&0x01 == 0
	case 1:
		return i&0x01 == 0
	case 2:
		return j%3 == 0
	case 3:
		return (i+j)%3 == 0
	case 4:
		return (i/2+j/3)&0x01 == 0
	case 5:
		return (i*j)%6 == 0
	case 6:
		return (i*j)%6 < 3
	case 7:
		return (i+j+(i*j)%3)&0x01 == 0
	}
	panic("decoder: data mask out of range")
}

// Unmask flips every masked module that is not part of the function
// pattern. Applying it twice restores the matrix.
func Unmask(bits *bitutil.BitMatrix, mask DataMask, functionPattern *bitutil.BitMatrix) {
	dimension := bits.Height()
	for i := 0; i < dimension; i++ {
		for j := 0; j < dimension; j++ {
			if mask.IsMasked(i, j) && !functionPattern.Get(j, i) {
				bits.Flip(j, i)
			}
		}
	}
}
