package decoder

import (
	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/bitutil"
)

// BitMatrixParser reads the format field, the version and the codewords
// out of a sampled symbol. It unmasks the matrix it is given in place.
type BitMatrixParser struct {
	bitMatrix        *bitutil.BitMatrix
	parsedVersion    *Version
	parsedFormatInfo *FormatInformation
	functionPattern  *bitutil.BitMatrix
	unmasked         bool
	mirror           bool
}

// NewBitMatrixParser checks that bitMatrix has a legal symbol size.
func NewBitMatrixParser(bitMatrix *bitutil.BitMatrix) (*BitMatrixParser, error) {
	dimension := bitMatrix.Height()
	if bitMatrix.Width() != dimension || dimension < 21 || dimension > 177 || dimension&0x03 != 1 {
		return nil, formatError(qrcodec.StageFormat, dimension, "matrix is not a legal symbol size")
	}
	return &BitMatrixParser{bitMatrix: bitMatrix}, nil
}

// ReadFormatInformation reads both copies of the format field: the one
// around the top-left finder pattern and the one split between the
// top-right and bottom-left finder patterns.
func (p *BitMatrixParser) ReadFormatInformation() (*FormatInformation, error) {
	if p.parsedFormatInfo != nil {
		return p.parsedFormatInfo, nil
	}

	formatInfoBits1 := 0
	for i := 0; i < 6; i++ {
		formatInfoBits1 = p.copyBit(i, 8, formatInfoBits1)
	}
	// Column 6 is the timing pattern.
	formatInfoBits1 = p.copyBit(7, 8, formatInfoBits1)
	formatInfoBits1 = p.copyBit(8, 8, formatInfoBits1)
	formatInfoBits1 = p.copyBit(8, 7, formatInfoBits1)
	for j := 5; j >= 0; j-- {
		formatInfoBits1 = p.copyBit(8, j, formatInfoBits1)
	}

	dimension := p.bitMatrix.Height()
	formatInfoBits2 := 0
	jMin := dimension - 7
	for j := dimension - 1; j >= jMin; j-- {
		formatInfoBits2 = p.copyBit(8, j, formatInfoBits2)
	}
	for i := dimension - 8; i < dimension; i++ {
		formatInfoBits2 = p.copyBit(i, 8, formatInfoBits2)
	}

	fi, err := DecodeFormatInformation(formatInfoBits1, formatInfoBits2)
	if err != nil {
		return nil, err
	}
	p.parsedFormatInfo = fi
	return fi, nil
}

// ReadVersion returns the version implied by the matrix size, confirmed
// by the version field for versions 7 and up. The top-right copy is tried
// first, then the bottom-left one.
func (p *BitMatrixParser) ReadVersion() (*Version, error) {
	if p.parsedVersion != nil {
		return p.parsedVersion, nil
	}

	dimension := p.bitMatrix.Height()
	provisional, err := ProvisionalVersionForDimension(dimension)
	if err != nil {
		return nil, err
	}
	if provisional.Number <= 6 {
		p.parsedVersion = provisional
		return provisional, nil
	}

	if v, err := DecodeVersionInformation(readVersionBits(p.bitMatrix, p.mirror, false)); err == nil && v.Dimension() == dimension {
		p.parsedVersion = v
		return v, nil
	}
	v, err := DecodeVersionInformation(readVersionBits(p.bitMatrix, p.mirror, true))
	if err != nil {
		return nil, err
	}
	if v.Dimension() != dimension {
		return nil, formatError(qrcodec.StageVersion, v.Number, "version field disagrees with symbol size %d", dimension)
	}
	p.parsedVersion = v
	return v, nil
}

// ReadVersionField decodes the version field of a sampled symbol without
// checking it against the symbol size, so a detector can correct a grid
// it sampled with the wrong dimension. The top-right copy is tried first.
func ReadVersionField(bits *bitutil.BitMatrix, mirror bool) (*Version, error) {
	dimension := bits.Height()
	if bits.Width() != dimension || dimension < 21 {
		return nil, formatError(qrcodec.StageVersion, dimension, "matrix too small for a version field")
	}
	if v, err := DecodeVersionInformation(readVersionBits(bits, mirror, false)); err == nil {
		return v, nil
	}
	return DecodeVersionInformation(readVersionBits(bits, mirror, true))
}

// readVersionBits reads one 18-bit copy of the version field: the 3 wide
// by 6 tall block left of the top-right finder, or the 6 wide by 3 tall
// block above the bottom-left one.
func readVersionBits(bits *bitutil.BitMatrix, mirror, bottomLeft bool) int {
	dimension := bits.Height()
	versionBits := 0
	for a := 5; a >= 0; a-- {
		for b := dimension - 9; b >= dimension-11; b-- {
			x, y := b, a
			if bottomLeft {
				x, y = a, b
			}
			if mirror {
				x, y = y, x
			}
			versionBits <<= 1
			if bits.Get(x, y) {
				versionBits |= 1
			}
		}
	}
	return versionBits
}

func (p *BitMatrixParser) copyBit(i, j, versionBits int) int {
	var bit bool
	if p.mirror {
		bit = p.bitMatrix.Get(j, i)
	} else {
		bit = p.bitMatrix.Get(i, j)
	}
	if bit {
		return versionBits<<1 | 0x1
	}
	return versionBits << 1
}

// ReadCodewords unmasks the data region and reads the codewords in
// placement order, most significant bit first.
func (p *BitMatrixParser) ReadCodewords() ([]byte, error) {
	formatInfo, err := p.ReadFormatInformation()
	if err != nil {
		return nil, err
	}
	version, err := p.ReadVersion()
	if err != nil {
		return nil, err
	}

	p.functionPattern = version.BuildFunctionPattern()
	Unmask(p.bitMatrix, formatInfo.DataMask, p.functionPattern)
	p.unmasked = true

	result := make([]byte, 0, version.TotalCodewords)
	currentByte := 0
	bitsRead := 0
	ForEachDataModule(p.bitMatrix.Height(), p.functionPattern, func(x, y int) {
		currentByte <<= 1
		if p.bitMatrix.Get(x, y) {
			currentByte |= 1
		}
		bitsRead++
		if bitsRead == 8 {
			result = append(result, byte(currentByte))
			bitsRead = 0
			currentByte = 0
		}
	})

	// Remainder bits are not part of any codeword.
	if len(result) != version.TotalCodewords {
		return nil, formatError(qrcodec.StageCodewords, len(result), "read %d codewords, want %d", len(result), version.TotalCodewords)
	}
	return result, nil
}

// Remask restores the matrix to its state before ReadCodewords.
func (p *BitMatrixParser) Remask() {
	if !p.unmasked {
		return
	}
	Unmask(p.bitMatrix, p.parsedFormatInfo.DataMask, p.functionPattern)
	p.unmasked = false
}

// SetMirror switches format and version reads to transposed coordinates
// and forgets anything parsed so far.
func (p *BitMatrixParser) SetMirror(mirror bool) {
	p.parsedVersion = nil
	p.parsedFormatInfo = nil
	p.mirror = mirror
}

// Mirror transposes the matrix for a second reading of a mirrored symbol.
func (p *BitMatrixParser) Mirror() {
	p.bitMatrix.Transpose()
}
