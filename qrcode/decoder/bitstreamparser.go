package decoder

import (
	"strconv"
	"strings"

	"github.com/ericlevine/qrcodec/bitutil"
	"github.com/ericlevine/qrcodec/charset"
)

const alphanumericChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

// gb2312Subset is the only hanzi subset defined.
const gb2312Subset = 1

// DecodeBitStream parses the corrected data codewords of a symbol into its
// segments. Byte segments are decoded with the character set of the last
// ECI segment, else hint, else a guess from the bytes themselves.
func DecodeBitStream(bytes []byte, version *Version, ecLevel ErrorCorrectionLevel, hint *charset.ECI) (*DecoderResult, error) {
	bs := bitutil.NewBitSource(bytes)
	var text strings.Builder
	var segments []Segment
	var byteSegments [][]byte
	symbolSequence := -1
	parityData := -1

	var currentECI *charset.ECI
	fnc1InEffect := false
	hasFNC1First := false
	hasFNC1Second := false

	for {
		// Fewer than 4 bits left is an implicit terminator.
		mode := ModeTerminator
		if bs.Available() >= 4 {
			modeBits, _ := bs.ReadBits(4)
			m, err := ModeForBits(modeBits)
			if err != nil {
				return nil, err
			}
			mode = m
		}
		if mode == ModeTerminator {
			break
		}

		switch mode {
		case ModeFNC1FirstPosition:
			hasFNC1First = true
			fnc1InEffect = true
		case ModeFNC1SecondPosition:
			// The application indicator byte is not part of the text.
			if _, err := readBits(bs, 8, mode); err != nil {
				return nil, err
			}
			hasFNC1Second = true
			fnc1InEffect = true
		case ModeStructuredAppend:
			seq, err := readBits(bs, 8, mode)
			if err != nil {
				return nil, err
			}
			par, err := readBits(bs, 8, mode)
			if err != nil {
				return nil, err
			}
			symbolSequence = seq
			parityData = par
		case ModeECI:
			value, err := parseECIValue(bs)
			if err != nil {
				return nil, err
			}
			eci, err := charset.ECIForValue(value)
			if err != nil || eci == nil {
				return nil, dataError(value, "unsupported ECI designator")
			}
			currentECI = eci
		case ModeHanzi:
			subset, err := readBits(bs, 4, mode)
			if err != nil {
				return nil, err
			}
			if subset != gb2312Subset {
				return nil, dataError(subset, "unknown hanzi subset")
			}
			count, err := readBits(bs, mode.CharacterCountBits(version), mode)
			if err != nil {
				return nil, err
			}
			seg, err := decodeHanziSegment(bs, count)
			if err != nil {
				return nil, err
			}
			text.WriteString(seg.Text)
			segments = append(segments, seg)
		default:
			count, err := readBits(bs, mode.CharacterCountBits(version), mode)
			if err != nil {
				return nil, err
			}
			var seg Segment
			switch mode {
			case ModeNumeric:
				seg, err = decodeNumericSegment(bs, count)
			case ModeAlphanumeric:
				seg, err = decodeAlphanumericSegment(bs, count, fnc1InEffect)
			case ModeByte:
				seg, err = decodeByteSegment(bs, count, currentECI, hint)
				if err == nil {
					byteSegments = append(byteSegments, seg.Bytes)
				}
			case ModeKanji:
				seg, err = decodeKanjiSegment(bs, count)
			}
			if err != nil {
				return nil, err
			}
			text.WriteString(seg.Text)
			segments = append(segments, seg)
		}
	}

	return &DecoderResult{
		RawBytes:                 bytes,
		Text:                     text.String(),
		Segments:                 segments,
		ByteSegments:             byteSegments,
		ECLevel:                  ecLevel,
		Version:                  version,
		StructuredAppendSequence: symbolSequence,
		StructuredAppendParity:   parityData,
		SymbologyModifier:        symbologyModifier(currentECI != nil, hasFNC1First, hasFNC1Second),
	}, nil
}

// symbologyModifier returns the AIM symbology identifier modifier, the
// digit after "]Q".
func symbologyModifier(hasECI, fnc1First, fnc1Second bool) int {
	m := 1
	switch {
	case fnc1First:
		m = 3
	case fnc1Second:
		m = 5
	}
	if hasECI {
		m++
	}
	return m
}

func readBits(bs *bitutil.BitSource, n int, mode Mode) (int, error) {
	v, err := bs.ReadBits(n)
	if err != nil {
		return 0, dataError(mode.String(), "segment runs past the end of the data: %v", err)
	}
	return v, nil
}

func checkAvailable(bs *bitutil.BitSource, need int, mode Mode) error {
	if need > bs.Available() {
		return dataError(mode.String(), "segment needs %d bits, %d available", need, bs.Available())
	}
	return nil
}

func decodeHanziSegment(bs *bitutil.BitSource, count int) (Segment, error) {
	if err := checkAvailable(bs, count*13, ModeHanzi); err != nil {
		return Segment{}, err
	}
	buf := make([]byte, 0, 2*count)
	for i := 0; i < count; i++ {
		twoBytes, _ := bs.ReadBits(13)
		assembled := (twoBytes/0x060)<<8 | twoBytes%0x060
		if assembled < 0x00A00 {
			assembled += 0x0A1A1
		} else {
			assembled += 0x0A6A1
		}
		buf = append(buf, byte(assembled>>8), byte(assembled))
	}
	s, err := charset.Decode(buf, charset.GB18030)
	if err != nil {
		return Segment{}, dataError(ModeHanzi.String(), "%v", err)
	}
	return Segment{Mode: ModeHanzi, Count: count, Bytes: buf, Text: s, Charset: charset.GB18030.Name}, nil
}

func decodeKanjiSegment(bs *bitutil.BitSource, count int) (Segment, error) {
	if err := checkAvailable(bs, count*13, ModeKanji); err != nil {
		return Segment{}, err
	}
	buf := make([]byte, 0, 2*count)
	for i := 0; i < count; i++ {
		twoBytes, _ := bs.ReadBits(13)
		assembled := (twoBytes/0x0C0)<<8 | twoBytes%0x0C0
		if assembled < 0x01F00 {
			assembled += 0x08140
		} else {
			assembled += 0x0C140
		}
		buf = append(buf, byte(assembled>>8), byte(assembled))
	}
	s, err := charset.Decode(buf, charset.ShiftJIS)
	if err != nil {
		return Segment{}, dataError(ModeKanji.String(), "%v", err)
	}
	return Segment{Mode: ModeKanji, Count: count, Bytes: buf, Text: s, Charset: charset.ShiftJIS.Name}, nil
}

func decodeByteSegment(bs *bitutil.BitSource, count int, currentECI, hint *charset.ECI) (Segment, error) {
	if err := checkAvailable(bs, 8*count, ModeByte); err != nil {
		return Segment{}, err
	}
	readBytes := make([]byte, count)
	for i := range readBytes {
		v, _ := bs.ReadBits(8)
		readBytes[i] = byte(v)
	}

	eci := currentECI
	if eci == nil {
		eci = charset.GuessEncoding(readBytes, hint)
	}
	s, err := charset.Decode(readBytes, eci)
	if err != nil {
		return Segment{}, dataError(ModeByte.String(), "%v", err)
	}
	return Segment{Mode: ModeByte, Count: count, Bytes: readBytes, Text: s, Charset: eci.Name}, nil
}

func toAlphanumericChar(value int) (byte, error) {
	if value >= len(alphanumericChars) {
		return 0, dataError(value, "invalid alphanumeric value")
	}
	return alphanumericChars[value], nil
}

func decodeAlphanumericSegment(bs *bitutil.BitSource, count int, fnc1InEffect bool) (Segment, error) {
	need := 11*(count/2) + 6*(count%2)
	if err := checkAvailable(bs, need, ModeAlphanumeric); err != nil {
		return Segment{}, err
	}
	out := make([]byte, 0, count)
	for n := count; n > 1; n -= 2 {
		nextTwo, _ := bs.ReadBits(11)
		c1, err := toAlphanumericChar(nextTwo / 45)
		if err != nil {
			return Segment{}, err
		}
		c2, err := toAlphanumericChar(nextTwo % 45)
		if err != nil {
			return Segment{}, err
		}
		out = append(out, c1, c2)
	}
	if count%2 == 1 {
		v, _ := bs.ReadBits(6)
		c, err := toAlphanumericChar(v)
		if err != nil {
			return Segment{}, err
		}
		out = append(out, c)
	}
	if fnc1InEffect {
		out = expandFNC1(out)
	}
	return Segment{Mode: ModeAlphanumeric, Count: count, Text: string(out)}, nil
}

// expandFNC1 applies the FNC1 convention to alphanumeric data: "%%" is a
// literal percent sign, a lone "%" is the GS separator.
func expandFNC1(in []byte) []byte {
	out := make([]byte, 0, len(in))
	for i := 0; i < len(in); i++ {
		if in[i] != '%' {
			out = append(out, in[i])
			continue
		}
		if i+1 < len(in) && in[i+1] == '%' {
			out = append(out, '%')
			i++
		} else {
			out = append(out, 0x1D)
		}
	}
	return out
}

func decodeNumericSegment(bs *bitutil.BitSource, count int) (Segment, error) {
	need := 10 * (count / 3)
	switch count % 3 {
	case 1:
		need += 4
	case 2:
		need += 7
	}
	if err := checkAvailable(bs, need, ModeNumeric); err != nil {
		return Segment{}, err
	}
	out := make([]byte, 0, count)
	for n := count; n >= 3; n -= 3 {
		threeDigits, _ := bs.ReadBits(10)
		if threeDigits >= 1000 {
			return Segment{}, dataError(threeDigits, "invalid numeric triple")
		}
		out = appendPadded(out, threeDigits, 3)
	}
	switch count % 3 {
	case 2:
		twoDigits, _ := bs.ReadBits(7)
		if twoDigits >= 100 {
			return Segment{}, dataError(twoDigits, "invalid numeric pair")
		}
		out = appendPadded(out, twoDigits, 2)
	case 1:
		digit, _ := bs.ReadBits(4)
		if digit >= 10 {
			return Segment{}, dataError(digit, "invalid numeric digit")
		}
		out = append(out, byte('0'+digit))
	}
	return Segment{Mode: ModeNumeric, Count: count, Text: string(out)}, nil
}

func appendPadded(out []byte, v, width int) []byte {
	s := strconv.Itoa(v)
	for i := len(s); i < width; i++ {
		out = append(out, '0')
	}
	return append(out, s...)
}

// parseECIValue reads a 1, 2 or 3 byte ECI designator.
func parseECIValue(bs *bitutil.BitSource) (int, error) {
	firstByte, err := readBits(bs, 8, ModeECI)
	if err != nil {
		return 0, err
	}
	switch {
	case firstByte&0x80 == 0:
		return firstByte & 0x7F, nil
	case firstByte&0xC0 == 0x80:
		secondByte, err := readBits(bs, 8, ModeECI)
		if err != nil {
			return 0, err
		}
		return (firstByte&0x3F)<<8 | secondByte, nil
	case firstByte&0xE0 == 0xC0:
		secondThirdBytes, err := readBits(bs, 16, ModeECI)
		if err != nil {
			return 0, err
		}
		return (firstByte&0x1F)<<16 | secondThirdBytes, nil
	}
	return 0, dataError(firstByte, "bad ECI designator")
}
