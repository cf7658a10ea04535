// Package decoder turns a sampled QR Code module matrix into its payload:
// format and version information, unmasking, codeword extraction,
// Reed-Solomon correction and bitstream parsing.
package decoder

import "strings"

// ErrorCorrectionLevel is one of the four QR Code error correction levels,
// in increasing order of redundancy.
type ErrorCorrectionLevel int

const (
	ECLevelL ErrorCorrectionLevel = iota // about 7% of codewords recoverable
	ECLevelM                             // about 15%
	ECLevelQ                             // about 25%
	ECLevelH                             // about 30%
)

// ErrorCorrectionLevels lists the levels in ordinal order.
var ErrorCorrectionLevels = [4]ErrorCorrectionLevel{ECLevelL, ECLevelM, ECLevelQ, ECLevelH}

const levelNames = "LMQH"

// formatBits is the 2-bit field each level is written as, indexed by
// ordinal. The field is not in ordinal order.
var formatBits = [4]int{0x01, 0x00, 0x03, 0x02}

// Bits returns the 2-bit encoding of the level in the format information.
func (ecl ErrorCorrectionLevel) Bits() int {
	if !ecl.Valid() {
		return 0
	}
	return formatBits[ecl]
}

// Ordinal returns the position of the level in ErrorCorrectionLevels.
func (ecl ErrorCorrectionLevel) Ordinal() int {
	return int(ecl)
}

func (ecl ErrorCorrectionLevel) String() string {
	if !ecl.Valid() {
		return "?"
	}
	return levelNames[ecl : ecl+1]
}

// Valid reports whether ecl is one of the four levels.
func (ecl ErrorCorrectionLevel) Valid() bool {
	return ecl >= ECLevelL && ecl <= ECLevelH
}

// ECLevelForBits returns the level encoded by a 2-bit format field value.
func ECLevelForBits(bits int) (ErrorCorrectionLevel, error) {
	for _, level := range ErrorCorrectionLevels {
		if formatBits[level] == bits {
			return level, nil
		}
	}
	return 0, checksumError(bits, "error correction level bits out of range")
}

// ParseErrorCorrectionLevel parses "L", "M", "Q" or "H", ignoring case and
// surrounding space.
func ParseErrorCorrectionLevel(s string) (ErrorCorrectionLevel, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 1 {
		if i := strings.IndexByte(levelNames, s[0]); i >= 0 {
			return ErrorCorrectionLevel(i), nil
		}
	}
	return 0, checksumError(s, "unknown error correction level")
}
