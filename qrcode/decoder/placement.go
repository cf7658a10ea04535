package decoder

import "github.com/ericlevine/qrcodec/bitutil"

// ForEachDataModule calls fn for every module outside the function
// pattern in codeword placement order: two-column strips from the right
// edge to the left, skipping the vertical timing column, alternately
// upward and downward. Within a strip the right column comes first.
func ForEachDataModule(dimension int, functionPattern *bitutil.BitMatrix, fn func(x, y int)) {
	readingUp := true
	for j := dimension - 1; j > 0; j -= 2 {
		if j == 6 {
			j--
		}
		for count := 0; count < dimension; count++ {
			i := count
			if readingUp {
				i = dimension - 1 - count
			}
			for col := 0; col < 2; col++ {
				if !functionPattern.Get(j-col, i) {
					fn(j-col, i)
				}
			}
		}
		readingUp = !readingUp
	}
}
