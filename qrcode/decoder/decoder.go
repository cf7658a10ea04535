package decoder

import (
	"log/slog"

	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/bitutil"
	"github.com/ericlevine/qrcodec/charset"
	"github.com/ericlevine/qrcodec/reedsolomon"
)

// Options tunes a single decode.
type Options struct {
	// CharsetHint decodes byte segments that carry no ECI designator.
	CharsetHint *charset.ECI
	// Logger receives debug records; nil is silent.
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return discardLogger
	}
	return o.Logger
}

func (o *Options) hint() *charset.ECI {
	if o == nil {
		return nil
	}
	return o.CharsetHint
}

var discardLogger = slog.New(slog.DiscardHandler)

// Decoder turns a clean module matrix into a DecoderResult. It holds no
// per-decode state and is safe for concurrent use.
type Decoder struct {
	rsDecoder *reedsolomon.Decoder
}

// NewDecoder creates a new QR Code Decoder.
func NewDecoder() *Decoder {
	return &Decoder{
		rsDecoder: reedsolomon.NewDecoder(reedsolomon.QRCodeField256),
	}
}

// DecodeBools decodes a matrix given as rows of booleans, true is dark.
// Empty, ragged or non-square input is a format error.
func (d *Decoder) DecodeBools(image [][]bool, opts *Options) (*DecoderResult, error) {
	bits, err := bitutil.ParseBoolMatrix(image)
	if err != nil {
		return nil, formatError(qrcodec.StageFormat, len(image), "%v", err)
	}
	return d.Decode(bits, opts)
}

// Decode decodes a square module matrix without a quiet zone. bits is
// left untouched. When the normal reading fails the matrix is read again
// as a mirror image; if that fails too the first error is returned.
func (d *Decoder) Decode(bits *bitutil.BitMatrix, opts *Options) (*DecoderResult, error) {
	log := opts.logger()
	parser, err := NewBitMatrixParser(bits.Clone())
	if err != nil {
		return nil, err
	}

	result, err := d.decodeParser(parser, opts)
	if err == nil {
		return result, nil
	}
	log.Debug("normal reading failed, trying mirrored", "stage", qrcodec.StageOf(err), "error", err)

	parser.Remask()
	parser.SetMirror(true)
	if _, verr := parser.ReadVersion(); verr != nil {
		return nil, err
	}
	if _, ferr := parser.ReadFormatInformation(); ferr != nil {
		return nil, err
	}
	parser.Mirror()

	result, mirrorErr := d.decodeParser(parser, opts)
	if mirrorErr != nil {
		log.Debug("mirrored reading failed", "stage", qrcodec.StageOf(mirrorErr), "error", mirrorErr)
		return nil, err
	}
	result.Mirrored = true
	return result, nil
}

func (d *Decoder) decodeParser(parser *BitMatrixParser, opts *Options) (*DecoderResult, error) {
	log := opts.logger()
	version, err := parser.ReadVersion()
	if err != nil {
		return nil, err
	}
	formatInfo, err := parser.ReadFormatInformation()
	if err != nil {
		return nil, err
	}
	ecLevel := formatInfo.ECLevel
	log.Debug("format information", "version", version.Number, "ec_level", ecLevel.String(), "mask", int(formatInfo.DataMask))

	codewords, err := parser.ReadCodewords()
	if err != nil {
		return nil, err
	}
	dataBlocks, err := DataBlocks(codewords, version, ecLevel)
	if err != nil {
		return nil, err
	}

	totalBytes := 0
	for _, db := range dataBlocks {
		totalBytes += db.NumDataCodewords
	}
	resultBytes := make([]byte, 0, totalBytes)

	errorsCorrected := 0
	for i, db := range dataBlocks {
		corrected, err := d.correctErrors(db.Codewords, db.NumDataCodewords)
		if err != nil {
			log.Debug("block not correctable", "block", i, "error", err)
			return nil, err
		}
		errorsCorrected += corrected
		resultBytes = append(resultBytes, db.Codewords[:db.NumDataCodewords]...)
	}
	if errorsCorrected > 0 {
		log.Debug("corrected codewords", "count", errorsCorrected)
	}

	result, err := DecodeBitStream(resultBytes, version, ecLevel, opts.hint())
	if err != nil {
		return nil, err
	}
	result.Mask = formatInfo.DataMask
	result.ErrorsCorrected = errorsCorrected
	return result, nil
}

// correctErrors corrects one block in place and returns the number of
// codewords changed.
func (d *Decoder) correctErrors(codewordBytes []byte, numDataCodewords int) (int, error) {
	codewordsInts := make([]int, len(codewordBytes))
	for i, b := range codewordBytes {
		codewordsInts[i] = int(b)
	}
	corrected, err := d.rsDecoder.Decode(codewordsInts, len(codewordBytes)-numDataCodewords)
	if err != nil {
		return 0, err
	}
	for i := 0; i < numDataCodewords; i++ {
		codewordBytes[i] = byte(codewordsInts[i])
	}
	return corrected, nil
}
