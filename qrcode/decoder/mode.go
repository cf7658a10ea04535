package decoder

// Mode is a segment mode; its value is the 4-bit mode indicator.
type Mode int

const (
	ModeTerminator         Mode = 0x00
	ModeNumeric            Mode = 0x01
	ModeAlphanumeric       Mode = 0x02
	ModeStructuredAppend   Mode = 0x03
	ModeByte               Mode = 0x04
	ModeFNC1FirstPosition  Mode = 0x05
	ModeECI                Mode = 0x07
	ModeKanji              Mode = 0x08
	ModeFNC1SecondPosition Mode = 0x09
	ModeHanzi              Mode = 0x0D
)

// characterCountBits holds the count field width for versions 1-9,
// 10-26 and 27-40.
var characterCountBits = map[Mode][3]int{
	ModeNumeric:      {10, 12, 14},
	ModeAlphanumeric: {9, 11, 13},
	ModeByte:         {8, 16, 16},
	ModeKanji:        {8, 10, 12},
	ModeHanzi:        {8, 10, 12},
}

// ModeForBits returns the Mode for a 4-bit mode indicator.
func ModeForBits(bits int) (Mode, error) {
	switch m := Mode(bits); m {
	case ModeTerminator, ModeNumeric, ModeAlphanumeric, ModeStructuredAppend,
		ModeByte, ModeFNC1FirstPosition, ModeECI, ModeKanji,
		ModeFNC1SecondPosition, ModeHanzi:
		return m, nil
	}
	return 0, dataError(bits, "unknown mode indicator")
}

// CharacterCountBits returns the width of the character count field for
// this mode in the given version. Modes without a count return 0.
func (m Mode) CharacterCountBits(version *Version) int {
	return characterCountBits[m][versionBand(version.Number)]
}

func versionBand(number int) int {
	switch {
	case number <= 9:
		return 0
	case number <= 26:
		return 1
	}
	return 2
}

// Bits returns the 4-bit mode indicator.
func (m Mode) Bits() int {
	return int(m)
}

func (m Mode) String() string {
	switch m {
	case ModeTerminator:
		return "TERMINATOR"
	case ModeNumeric:
		return "NUMERIC"
	case ModeAlphanumeric:
		return "ALPHANUMERIC"
	case ModeStructuredAppend:
		return "STRUCTURED_APPEND"
	case ModeByte:
		return "BYTE"
	case ModeFNC1FirstPosition:
		return "FNC1_FIRST_POSITION"
	case ModeECI:
		return "ECI"
	case ModeKanji:
		return "KANJI"
	case ModeFNC1SecondPosition:
		return "FNC1_SECOND_POSITION"
	case ModeHanzi:
		return "HANZI"
	}
	return "UNKNOWN"
}
