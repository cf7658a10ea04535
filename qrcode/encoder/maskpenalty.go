package encoder

import (
	"math"

	"github.com/ericlevine/qrcodec/bitutil"
	"github.com/ericlevine/qrcodec/qrcode/decoder"
)

// Penalty weights for the four mask evaluation rules.
const (
	penaltyN1 = 3
	penaltyN2 = 3
	penaltyN3 = 40
	penaltyN4 = 10
)

func chooseMaskPattern(codewords []byte, ecLevel decoder.ErrorCorrectionLevel, version *decoder.Version,
	functionPattern *bitutil.BitMatrix,
) decoder.DataMask {
	minPenalty := math.MaxInt
	best := decoder.DataMask(0)
	for mask := decoder.DataMask(0); mask < 8; mask++ {
		matrix := buildMatrix(codewords, ecLevel, version, mask, functionPattern)
		if penalty := calculateMaskPenalty(matrix); penalty < minPenalty {
			minPenalty = penalty
			best = mask
		}
	}
	return best
}

func calculateMaskPenalty(matrix *bitutil.BitMatrix) int {
	return applyMaskPenaltyRule1(matrix) +
		applyMaskPenaltyRule2(matrix) +
		applyMaskPenaltyRule3(matrix) +
		applyMaskPenaltyRule4(matrix)
}

// applyMaskPenaltyRule1 penalizes runs of five or more same-colored
// modules in a row or column.
func applyMaskPenaltyRule1(matrix *bitutil.BitMatrix) int {
	return applyMaskPenaltyRule1Internal(matrix, true) + applyMaskPenaltyRule1Internal(matrix, false)
}

func applyMaskPenaltyRule1Internal(matrix *bitutil.BitMatrix, isHorizontal bool) int {
	penalty := 0
	iLimit, jLimit := matrix.Height(), matrix.Width()
	if !isHorizontal {
		iLimit, jLimit = jLimit, iLimit
	}
	for i := 0; i < iLimit; i++ {
		numSameBitCells := 0
		prevBit := false
		for j := 0; j < jLimit; j++ {
			var bit bool
			if isHorizontal {
				bit = matrix.Get(j, i)
			} else {
				bit = matrix.Get(i, j)
			}
			if j > 0 && bit == prevBit {
				numSameBitCells++
				continue
			}
			if numSameBitCells >= 5 {
				penalty += penaltyN1 + (numSameBitCells - 5)
			}
			numSameBitCells = 1
			prevBit = bit
		}
		if numSameBitCells >= 5 {
			penalty += penaltyN1 + (numSameBitCells - 5)
		}
	}
	return penalty
}

// applyMaskPenaltyRule2 penalizes every 2x2 block of one color.
func applyMaskPenaltyRule2(matrix *bitutil.BitMatrix) int {
	penalty := 0
	for y := 0; y < matrix.Height()-1; y++ {
		for x := 0; x < matrix.Width()-1; x++ {
			value := matrix.Get(x, y)
			if value == matrix.Get(x+1, y) && value == matrix.Get(x, y+1) && value == matrix.Get(x+1, y+1) {
				penalty++
			}
		}
	}
	return penaltyN2 * penalty
}

// applyMaskPenaltyRule3 penalizes 1:1:3:1:1 runs with four light modules
// on either side, which look like finder patterns. Modules beyond the
// edge count as light.
func applyMaskPenaltyRule3(matrix *bitutil.BitMatrix) int {
	numPenalties := 0
	width, height := matrix.Width(), matrix.Height()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x+6 < width &&
				matrix.Get(x, y) && !matrix.Get(x+1, y) && matrix.Get(x+2, y) && matrix.Get(x+3, y) &&
				matrix.Get(x+4, y) && !matrix.Get(x+5, y) && matrix.Get(x+6, y) &&
				(isWhiteHorizontal(matrix, y, x-4, x) || isWhiteHorizontal(matrix, y, x+7, x+11)) {
				numPenalties++
			}
			if y+6 < height &&
				matrix.Get(x, y) && !matrix.Get(x, y+1) && matrix.Get(x, y+2) && matrix.Get(x, y+3) &&
				matrix.Get(x, y+4) && !matrix.Get(x, y+5) && matrix.Get(x, y+6) &&
				(isWhiteVertical(matrix, x, y-4, y) || isWhiteVertical(matrix, x, y+7, y+11)) {
				numPenalties++
			}
		}
	}
	return numPenalties * penaltyN3
}

func isWhiteHorizontal(matrix *bitutil.BitMatrix, y, from, to int) bool {
	from = max(from, 0)
	to = min(to, matrix.Width())
	for x := from; x < to; x++ {
		if matrix.Get(x, y) {
			return false
		}
	}
	return true
}

func isWhiteVertical(matrix *bitutil.BitMatrix, x, from, to int) bool {
	from = max(from, 0)
	to = min(to, matrix.Height())
	for y := from; y < to; y++ {
		if matrix.Get(x, y) {
			return false
		}
	}
	return true
}

// applyMaskPenaltyRule4 penalizes the dark module ratio's distance from
// one half, 10 points per 5%.
func applyMaskPenaltyRule4(matrix *bitutil.BitMatrix) int {
	numDarkCells := 0
	width, height := matrix.Width(), matrix.Height()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if matrix.Get(x, y) {
				numDarkCells++
			}
		}
	}
	numTotalCells := width * height
	fivePercentVariances := abs(numDarkCells*2-numTotalCells) * 10 / numTotalCells
	return fivePercentVariances * penaltyN4
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
