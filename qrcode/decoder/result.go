package decoder

// Segment is one decoded data segment of a symbol.
type Segment struct {
	Mode Mode
	// Count is the value of the character count field.
	Count int
	// Bytes holds the raw payload of byte, kanji and hanzi segments.
	Bytes []byte
	Text  string
	// Charset names the character set used to decode Bytes.
	Charset string
}

// DecoderResult is everything recovered from one symbol matrix.
type DecoderResult struct {
	// RawBytes holds the corrected data codewords.
	RawBytes []byte
	Text     string
	Segments []Segment
	// ByteSegments holds the payload of every byte segment in order.
	ByteSegments    [][]byte
	ECLevel         ErrorCorrectionLevel
	Version         *Version
	Mask            DataMask
	ErrorsCorrected int
	Mirrored        bool

	// StructuredAppendSequence and StructuredAppendParity are -1 unless
	// the symbol is part of a structured append set.
	StructuredAppendSequence int
	StructuredAppendParity   int
	SymbologyModifier        int
}

// HasStructuredAppend reports whether the symbol carried a structured
// append header.
func (r *DecoderResult) HasStructuredAppend() bool {
	return r.StructuredAppendParity >= 0 && r.StructuredAppendSequence >= 0
}
