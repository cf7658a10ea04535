package encoder

import (
	"github.com/ericlevine/qrcodec/bitutil"
	"github.com/ericlevine/qrcodec/qrcode/decoder"
)

const (
	typeInfoPoly    = 0x537
	versionInfoPoly = 0x1f25
)

var positionDetectionPattern = [7][7]bool{
	{true, true, true, true, true, true, true},
	{true, false, false, false, false, false, true},
	{true, false, true, true, true, false, true},
	{true, false, true, true, true, false, true},
	{true, false, true, true, true, false, true},
	{true, false, false, false, false, false, true},
	{true, true, true, true, true, true, true},
}

var positionAdjustmentPattern = [5][5]bool{
	{true, true, true, true, true},
	{true, false, false, false, true},
	{true, false, true, false, true},
	{true, false, false, false, true},
	{true, true, true, true, true},
}

// buildMatrix lays out a complete symbol. Function pattern modules that
// are light, such as separators, are simply left unset.
func buildMatrix(codewords []byte, ecLevel decoder.ErrorCorrectionLevel, version *decoder.Version,
	mask decoder.DataMask, functionPattern *bitutil.BitMatrix,
) *bitutil.BitMatrix {
	dimension := version.Dimension()
	matrix := bitutil.NewBitMatrix(dimension)
	embedBasicPatterns(version, matrix)
	embedTypeInfo(ecLevel, mask, matrix)
	maybeEmbedVersionInfo(version, matrix)
	embedDataBits(codewords, mask, functionPattern, matrix)
	return matrix
}

func embedBasicPatterns(version *decoder.Version, matrix *bitutil.BitMatrix) {
	dimension := matrix.Height()
	embedPositionDetectionPattern(0, 0, matrix)
	embedPositionDetectionPattern(dimension-7, 0, matrix)
	embedPositionDetectionPattern(0, dimension-7, matrix)

	centers := version.AlignmentPatternCenters()
	n := len(centers)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			// Skip the three positions under the finder patterns.
			if (x == 0 && (y == 0 || y == n-1)) || (x == n-1 && y == 0) {
				continue
			}
			embedPositionAdjustmentPattern(centers[x]-2, centers[y]-2, matrix)
		}
	}

	for i := 8; i < dimension-8; i += 2 {
		matrix.Set(i, 6)
		matrix.Set(6, i)
	}

	// The dark module.
	matrix.Set(8, dimension-8)
}

func embedPositionDetectionPattern(xStart, yStart int, matrix *bitutil.BitMatrix) {
	for y := 0; y < 7; y++ {
		for x := 0; x < 7; x++ {
			matrix.SetTo(xStart+x, yStart+y, positionDetectionPattern[y][x])
		}
	}
}

func embedPositionAdjustmentPattern(xStart, yStart int, matrix *bitutil.BitMatrix) {
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			matrix.SetTo(xStart+x, yStart+y, positionAdjustmentPattern[y][x])
		}
	}
}

// typeInfoCoordinates places bit i of the format field around the
// top-left finder pattern, least significant bit first.
var typeInfoCoordinates = [15][2]int{
	{8, 0}, {8, 1}, {8, 2}, {8, 3}, {8, 4}, {8, 5}, {8, 7}, {8, 8},
	{7, 8}, {5, 8}, {4, 8}, {3, 8}, {2, 8}, {1, 8}, {0, 8},
}

func embedTypeInfo(ecLevel decoder.ErrorCorrectionLevel, mask decoder.DataMask, matrix *bitutil.BitMatrix) {
	typeInfoBits := makeTypeInfoBits(ecLevel, mask)
	dimension := matrix.Height()
	for i := 0; i < 15; i++ {
		bit := (typeInfoBits>>uint(i))&1 == 1
		coord := typeInfoCoordinates[i]
		matrix.SetTo(coord[0], coord[1], bit)
		// The second copy is split between the other two finders.
		if i < 8 {
			matrix.SetTo(dimension-1-i, 8, bit)
		} else {
			matrix.SetTo(8, dimension-7+(i-8), bit)
		}
	}
}

func makeTypeInfoBits(ecLevel decoder.ErrorCorrectionLevel, mask decoder.DataMask) int {
	typeInfo := ecLevel.Bits()<<3 | int(mask)
	return (typeInfo<<10 | calculateBCHCode(typeInfo, typeInfoPoly)) ^ decoder.FormatInfoMask
}

func makeVersionInfoBits(version *decoder.Version) int {
	return version.Number<<12 | calculateBCHCode(version.Number, versionInfoPoly)
}

// maybeEmbedVersionInfo writes both 6x3 copies of the version field for
// versions 7 and up.
func maybeEmbedVersionInfo(version *decoder.Version, matrix *bitutil.BitMatrix) {
	if version.Number < 7 {
		return
	}
	versionInfoBits := makeVersionInfoBits(version)
	dimension := matrix.Height()
	bitIndex := 0
	for i := 0; i < 6; i++ {
		for j := 0; j < 3; j++ {
			bit := (versionInfoBits>>uint(bitIndex))&1 == 1
			bitIndex++
			matrix.SetTo(i, dimension-11+j, bit)
			matrix.SetTo(dimension-11+j, i, bit)
		}
	}
}

// embedDataBits places the codewords most significant bit first in
// placement order and applies the mask. Remainder modules stay light
// before masking.
func embedDataBits(codewords []byte, mask decoder.DataMask, functionPattern, matrix *bitutil.BitMatrix) {
	bitIndex := 0
	numBits := len(codewords) * 8
	decoder.ForEachDataModule(matrix.Height(), functionPattern, func(x, y int) {
		bit := false
		if bitIndex < numBits {
			bit = codewords[bitIndex/8]&(0x80>>uint(bitIndex%8)) != 0
			bitIndex++
		}
		if mask.IsMasked(y, x) {
			bit = !bit
		}
		matrix.SetTo(x, y, bit)
	})
}

// calculateBCHCode returns the remainder of value·x^(deg poly) divided
// by poly over GF(2).
func calculateBCHCode(value, poly int) int {
	msbSetInPoly := findMSBSet(poly)
	value <<= uint(msbSetInPoly - 1)
	for findMSBSet(value) >= msbSetInPoly {
		value ^= poly << uint(findMSBSet(value)-msbSetInPoly)
	}
	return value
}

func findMSBSet(value int) int {
	count := 0
	for value != 0 {
		value >>= 1
		count++
	}
	return count
}
