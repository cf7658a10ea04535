// Package encoder builds QR symbols: it picks a mode and version, adds
// error correction, places the codewords and chooses a mask.
package encoder

import (
	"unicode/utf8"

	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/bitutil"
	"github.com/ericlevine/qrcodec/charset"
	"github.com/ericlevine/qrcodec/qrcode/decoder"
	"github.com/ericlevine/qrcodec/reedsolomon"
)

var rsEncoder = reedsolomon.NewEncoder(reedsolomon.QRCodeField256)

// Options tunes encoding. nil picks everything automatically.
type Options struct {
	// Version forces a version (1..40); 0 picks the smallest that fits.
	Version int
	// Mask forces a data mask (0..7); nil picks the lowest penalty.
	Mask *int
	// Charset is used for byte mode. When set, or when the content needs
	// anything but ISO-8859-1, an ECI segment names it.
	Charset *charset.ECI
	// GS1 marks the content as GS1 data with an FNC1 in first position.
	GS1 bool
}

// QRCode is an encoded symbol.
type QRCode struct {
	Mode    decoder.Mode
	ECLevel decoder.ErrorCorrectionLevel
	Version *decoder.Version
	Mask    decoder.DataMask
	// ECI is the character set announced for byte mode, nil for none.
	ECI *charset.ECI
	// Matrix holds one bit per module, set for dark modules.
	Matrix *bitutil.BitMatrix
}

func writerError(value any, format string, args ...any) error {
	return qrcodec.NewStageError(qrcodec.StageEncoder, qrcodec.ErrWriter, value, format, args...)
}

var alphanumericTable = [128]int{
	-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1,
	36, -1, -1, -1, 37, 38, -1, -1, -1, -1, 39, 40, -1, 41, 42, 43,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 44, -1, -1, -1, -1, -1,
	-1, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24,
	25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, -1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1,
}

// AlphanumericCode returns the alphanumeric mode value of c, or -1.
func AlphanumericCode(c rune) int {
	if c >= 0 && c < 128 {
		return alphanumericTable[c]
	}
	return -1
}

// ChooseMode picks the densest single mode able to hold content. Kanji
// mode is only considered when the byte charset is Shift_JIS or unset.
func ChooseMode(content string, eci *charset.ECI) decoder.Mode {
	if (eci == nil || eci == charset.ShiftJIS) && isOnlyDoubleByteKanji(content) {
		return decoder.ModeKanji
	}
	if content == "" {
		return decoder.ModeByte
	}
	hasAlphanumeric := false
	for _, c := range content {
		switch {
		case c >= '0' && c <= '9':
		case AlphanumericCode(c) != -1:
			hasAlphanumeric = true
		default:
			return decoder.ModeByte
		}
	}
	if hasAlphanumeric {
		return decoder.ModeAlphanumeric
	}
	return decoder.ModeNumeric
}

func isOnlyDoubleByteKanji(content string) bool {
	if content == "" {
		return false
	}
	b, err := charset.Encode(content, charset.ShiftJIS)
	if err != nil || len(b)%2 != 0 {
		return false
	}
	for i := 0; i < len(b); i += 2 {
		if b[i] < 0x81 || (b[i] > 0x9F && b[i] < 0xE0) || b[i] > 0xEB {
			return false
		}
	}
	return true
}

// Encode encodes content at the given error correction level.
func Encode(content string, ecLevel decoder.ErrorCorrectionLevel, opts *Options) (*QRCode, error) {
	if opts == nil {
		opts = &Options{}
	}
	if !ecLevel.Valid() {
		return nil, writerError(int(ecLevel), "invalid error correction level")
	}

	mode := ChooseMode(content, opts.Charset)
	var eci *charset.ECI
	dataBits := bitutil.NewBitArray(0)
	numLetters := utf8.RuneCountInString(content)

	switch mode {
	case decoder.ModeNumeric:
		appendNumericBytes(content, dataBits)
	case decoder.ModeAlphanumeric:
		if err := appendAlphanumericBytes(content, dataBits); err != nil {
			return nil, err
		}
	case decoder.ModeKanji:
		if err := appendKanjiBytes(content, dataBits); err != nil {
			return nil, err
		}
	default:
		eci = opts.Charset
		if eci == nil && !charset.CanEncode(content, charset.ISO8859_1) {
			eci = charset.UTF8
		}
		b, err := charset.Encode(content, eci)
		if err != nil {
			return nil, writerError(content, "content not representable: %v", err)
		}
		for _, c := range b {
			dataBits.AppendBits(uint32(c), 8)
		}
		numLetters = len(b)
	}

	headerBits := bitutil.NewBitArray(0)
	if eci != nil {
		appendECI(eci.Value(), headerBits)
	}
	if opts.GS1 {
		headerBits.AppendBits(uint32(decoder.ModeFNC1FirstPosition.Bits()), 4)
	}
	headerBits.AppendBits(uint32(mode.Bits()), 4)

	var version *decoder.Version
	if opts.Version != 0 {
		v, err := decoder.VersionForNumber(opts.Version)
		if err != nil {
			return nil, writerError(opts.Version, "invalid version")
		}
		if !willFit(v, ecLevel, mode, headerBits.Size(), dataBits.Size(), numLetters) {
			return nil, writerError(opts.Version, "data does not fit version %d-%s", v.Number, ecLevel)
		}
		version = v
	} else {
		v, err := chooseVersion(ecLevel, mode, headerBits.Size(), dataBits.Size(), numLetters)
		if err != nil {
			return nil, err
		}
		version = v
	}

	bits := headerBits
	bits.AppendBits(uint32(numLetters), mode.CharacterCountBits(version))
	bits.AppendBitArray(dataBits)

	ecBlocks := version.ECBlocksForLevel(ecLevel)
	numDataBytes := ecBlocks.TotalDataCodewords()
	if err := terminateBits(numDataBytes, bits); err != nil {
		return nil, err
	}
	codewords := interleaveWithECBytes(bits.Bytes(), ecBlocks)

	functionPattern := version.BuildFunctionPattern()
	var mask decoder.DataMask
	if opts.Mask != nil {
		if *opts.Mask < 0 || *opts.Mask > 7 {
			return nil, writerError(*opts.Mask, "invalid mask pattern")
		}
		mask = decoder.DataMask(*opts.Mask)
	} else {
		mask = chooseMaskPattern(codewords, ecLevel, version, functionPattern)
	}

	return &QRCode{
		Mode:    mode,
		ECLevel: ecLevel,
		Version: version,
		Mask:    mask,
		ECI:     eci,
		Matrix:  buildMatrix(codewords, ecLevel, version, mask, functionPattern),
	}, nil
}

func willFit(version *decoder.Version, ecLevel decoder.ErrorCorrectionLevel, mode decoder.Mode, headerBits, dataBits, numLetters int) bool {
	countBits := mode.CharacterCountBits(version)
	if numLetters >= 1<<countBits {
		return false
	}
	capacity := 8 * version.ECBlocksForLevel(ecLevel).TotalDataCodewords()
	return headerBits+countBits+dataBits <= capacity
}

func chooseVersion(ecLevel decoder.ErrorCorrectionLevel, mode decoder.Mode, headerBits, dataBits, numLetters int) (*decoder.Version, error) {
	for n := 1; n <= 40; n++ {
		version, _ := decoder.VersionForNumber(n)
		if willFit(version, ecLevel, mode, headerBits, dataBits, numLetters) {
			return version, nil
		}
	}
	return nil, writerError(numLetters, "data too big for any version at level %s", ecLevel)
}

// terminateBits appends up to four terminator bits, pads to a byte
// boundary and fills the remaining capacity with 0xEC 0x11 pairs.
func terminateBits(numDataBytes int, bits *bitutil.BitArray) error {
	capacity := numDataBytes * 8
	if bits.Size() > capacity {
		return writerError(bits.Size(), "data bits exceed capacity %d", capacity)
	}
	for i := 0; i < 4 && bits.Size() < capacity; i++ {
		bits.AppendBit(false)
	}
	if numBitsInLastByte := bits.Size() & 0x07; numBitsInLastByte > 0 {
		for i := numBitsInLastByte; i < 8; i++ {
			bits.AppendBit(false)
		}
	}
	numPaddingBytes := numDataBytes - bits.SizeInBytes()
	for i := 0; i < numPaddingBytes; i++ {
		if i&0x01 == 0 {
			bits.AppendBits(0xEC, 8)
		} else {
			bits.AppendBits(0x11, 8)
		}
	}
	return nil
}

func appendECI(value int, bits *bitutil.BitArray) {
	bits.AppendBits(uint32(decoder.ModeECI.Bits()), 4)
	switch {
	case value < 1<<7:
		bits.AppendBits(uint32(value), 8)
	case value < 1<<14:
		bits.AppendBits(0x2, 2)
		bits.AppendBits(uint32(value), 14)
	default:
		bits.AppendBits(0x6, 3)
		bits.AppendBits(uint32(value), 21)
	}
}

func appendNumericBytes(content string, bits *bitutil.BitArray) {
	length := len(content)
	for i := 0; i < length; {
		num1 := int(content[i] - '0')
		switch {
		case i+2 < length:
			num2 := int(content[i+1] - '0')
			num3 := int(content[i+2] - '0')
			bits.AppendBits(uint32(num1*100+num2*10+num3), 10)
			i += 3
		case i+1 < length:
			num2 := int(content[i+1] - '0')
			bits.AppendBits(uint32(num1*10+num2), 7)
			i += 2
		default:
			bits.AppendBits(uint32(num1), 4)
			i++
		}
	}
}

func appendAlphanumericBytes(content string, bits *bitutil.BitArray) error {
	length := len(content)
	for i := 0; i < length; {
		code1 := AlphanumericCode(rune(content[i]))
		if code1 == -1 {
			return writerError(content[i], "invalid alphanumeric character")
		}
		if i+1 < length {
			code2 := AlphanumericCode(rune(content[i+1]))
			if code2 == -1 {
				return writerError(content[i+1], "invalid alphanumeric character")
			}
			bits.AppendBits(uint32(code1*45+code2), 11)
			i += 2
		} else {
			bits.AppendBits(uint32(code1), 6)
			i++
		}
	}
	return nil
}

// appendKanjiBytes packs each Shift_JIS double-byte character into 13
// bits: the code is rebased at 0x8140 or 0xC140 and its high byte scaled
// by 0xC0.
func appendKanjiBytes(content string, bits *bitutil.BitArray) error {
	b, err := charset.Encode(content, charset.ShiftJIS)
	if err != nil {
		return writerError(content, "content not representable in Shift_JIS: %v", err)
	}
	if len(b)%2 != 0 {
		return writerError(len(b), "kanji byte length is odd")
	}
	for i := 0; i < len(b); i += 2 {
		code := int(b[i])<<8 | int(b[i+1])
		subtracted := -1
		switch {
		case code >= 0x8140 && code <= 0x9FFC:
			subtracted = code - 0x8140
		case code >= 0xE040 && code <= 0xEBBF:
			subtracted = code - 0xC140
		}
		if subtracted == -1 {
			return writerError(code, "invalid kanji byte sequence")
		}
		bits.AppendBits(uint32((subtracted>>8)*0xC0+(subtracted&0xFF)), 13)
	}
	return nil
}

// interleaveWithECBytes splits the data codewords into the version's
// blocks, computes each block's error correction codewords and
// interleaves the result.
func interleaveWithECBytes(dataBytes []byte, ecBlocks *decoder.ECBlocks) []byte {
	ecPerBlock := ecBlocks.ECCodewordsPerBlock
	blocks := make([]decoder.DataBlock, 0, ecBlocks.NumBlocks())
	offset := 0
	for _, group := range ecBlocks.Blocks {
		for i := 0; i < group.Count; i++ {
			n := group.DataCodewords
			toEncode := make([]int, n+ecPerBlock)
			for j := 0; j < n; j++ {
				toEncode[j] = int(dataBytes[offset+j])
			}
			rsEncoder.Encode(toEncode, ecPerBlock)
			codewords := make([]byte, len(toEncode))
			for j, c := range toEncode {
				codewords[j] = byte(c)
			}
			blocks = append(blocks, decoder.DataBlock{NumDataCodewords: n, Codewords: codewords})
			offset += n
		}
	}
	return decoder.InterleaveBlocks(blocks)
}
