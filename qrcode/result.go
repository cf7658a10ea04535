package qrcode

import (
	"strconv"

	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/qrcode/decoder"
)

// Result is one decoded symbol. It is not modified after it is returned.
type Result struct {
	Text string
	// RawBytes holds the corrected data codewords.
	RawBytes []byte
	Segments []decoder.Segment
	// Version is the symbol version, 1 through 40.
	Version         int
	ECLevel         decoder.ErrorCorrectionLevel
	Mask            int
	Mirrored        bool
	ErrorsCorrected int
	// Points holds the finder pattern centers as bottom-left, top-left,
	// top-right, followed by the alignment pattern when one was used.
	// It is empty for DecodeBits and the pure fast path.
	Points []qrcodec.ResultPoint
	// StructuredAppend is nil unless the symbol is part of a set.
	StructuredAppend *StructuredAppend
	// SymbologyIdentifier is the AIM identifier, "]Q1" through "]Q6".
	SymbologyIdentifier string
}

// StructuredAppend describes a symbol's position in a structured append
// set.
type StructuredAppend struct {
	// Sequence packs the position in the high nibble and the total count
	// minus one in the low nibble.
	Sequence int
	// Parity is the XOR of every byte of the whole message.
	Parity int
}

// Index returns the zero-based position of the symbol in its set.
func (s *StructuredAppend) Index() int {
	return s.Sequence >> 4
}

// Total returns the number of symbols in the set.
func (s *StructuredAppend) Total() int {
	return s.Sequence&0x0F + 1
}

func newResult(dr *decoder.DecoderResult, points []qrcodec.ResultPoint) *Result {
	r := &Result{
		Text:                dr.Text,
		RawBytes:            dr.RawBytes,
		Segments:            dr.Segments,
		Version:             dr.Version.Number,
		ECLevel:             dr.ECLevel,
		Mask:                int(dr.Mask),
		Mirrored:            dr.Mirrored,
		ErrorsCorrected:     dr.ErrorsCorrected,
		Points:              points,
		SymbologyIdentifier: "]Q" + strconv.Itoa(dr.SymbologyModifier),
	}
	if dr.HasStructuredAppend() {
		r.StructuredAppend = &StructuredAppend{
			Sequence: dr.StructuredAppendSequence,
			Parity:   dr.StructuredAppendParity,
		}
	}
	return r
}
