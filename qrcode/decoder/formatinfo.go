package decoder

import (
	"math/bits"

	qrcodec "github.com/ericlevine/qrcodec"
)

// FormatInfoMask is XORed onto the 15-bit format field so that it is
// never all zero.
const FormatInfoMask = 0x5412

// FormatInformation is the decoded 15-bit format field.
type FormatInformation struct {
	ECLevel  ErrorCorrectionLevel
	DataMask DataMask
}

// formatInfoDecodeLookup pairs every legal masked format field with the
// 5 data bits it carries.
var formatInfoDecodeLookup = [32][2]int{
	{0x5412, 0x00}, {0x5125, 0x01}, {0x5E7C, 0x02}, {0x5B4B, 0x03},
	{0x45F9, 0x04}, {0x40CE, 0x05}, {0x4F97, 0x06}, {0x4AA0, 0x07},
	{0x77C4, 0x08}, {0x72F3, 0x09}, {0x7DAA, 0x0A}, {0x789D, 0x0B},
	{0x662F, 0x0C}, {0x6318, 0x0D}, {0x6C41, 0x0E}, {0x6976, 0x0F},
	{0x1689, 0x10}, {0x13BE, 0x11}, {0x1CE7, 0x12}, {0x19D0, 0x13},
	{0x0762, 0x14}, {0x0255, 0x15}, {0x0D0C, 0x16}, {0x083B, 0x17},
	{0x355F, 0x18}, {0x3068, 0x19}, {0x3F31, 0x1A}, {0x3A06, 0x1B},
	{0x24B4, 0x1C}, {0x2183, 0x1D}, {0x2EDA, 0x1E}, {0x2BED, 0x1F},
}

// FormatInfoBits returns the masked 15-bit format field for a level and
// mask as it appears in a symbol.
func FormatInfoBits(ecLevel ErrorCorrectionLevel, mask DataMask) int {
	data := ecLevel.Bits()<<3 | int(mask)
	for _, entry := range formatInfoDecodeLookup {
		if entry[1] == data {
			return entry[0]
		}
	}
	return 0
}

func newFormatInformation(formatInfo int) *FormatInformation {
	// Two bits can only name a valid level.
	ecLevel, _ := ECLevelForBits((formatInfo >> 3) & 0x03)
	return &FormatInformation{
		ECLevel:  ecLevel,
		DataMask: DataMask(formatInfo & 0x07),
	}
}

// DecodeFormatInformation decodes the two copies of the format field read
// from a symbol. The nearest legal field to either copy wins if it is at
// most 3 bits away. Symbols that forgot to apply the format mask are
// accepted as a last resort.
func DecodeFormatInformation(maskedFormatInfo1, maskedFormatInfo2 int) (*FormatInformation, error) {
	if fi := doDecodeFormatInformation(maskedFormatInfo1, maskedFormatInfo2); fi != nil {
		return fi, nil
	}
	if fi := doDecodeFormatInformation(maskedFormatInfo1^FormatInfoMask, maskedFormatInfo2^FormatInfoMask); fi != nil {
		return fi, nil
	}
	return nil, formatError(qrcodec.StageFormat, maskedFormatInfo1, "format information not correctable")
}

func doDecodeFormatInformation(maskedFormatInfo1, maskedFormatInfo2 int) *FormatInformation {
	bestDifference := 32
	bestFormatInfo := 0
	for _, entry := range formatInfoDecodeLookup {
		target := entry[0]
		if target == maskedFormatInfo1 || target == maskedFormatInfo2 {
			return newFormatInformation(entry[1])
		}
		if d := bits.OnesCount32(uint32(maskedFormatInfo1 ^ target)); d < bestDifference {
			bestFormatInfo = entry[1]
			bestDifference = d
		}
		if maskedFormatInfo1 != maskedFormatInfo2 {
			if d := bits.OnesCount32(uint32(maskedFormatInfo2 ^ target)); d < bestDifference {
				bestFormatInfo = entry[1]
				bestDifference = d
			}
		}
	}
	if bestDifference <= 3 {
		return newFormatInformation(bestFormatInfo)
	}
	return nil
}
