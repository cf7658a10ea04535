package qrcode

import (
	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/bitutil"
	"github.com/ericlevine/qrcodec/charset"
	"github.com/ericlevine/qrcodec/qrcode/decoder"
	"github.com/ericlevine/qrcodec/qrcode/encoder"
)

const defaultQuietZoneSize = 4

// EncodeOptions configures the Writer. A nil *EncodeOptions encodes at
// level L with a four module quiet zone and automatic version and mask.
type EncodeOptions struct {
	// ErrorCorrection is "L", "M", "Q" or "H"; empty means L.
	ErrorCorrection string

	// Margin is the quiet zone in modules.
	Margin *int

	// Version forces a symbol version, 1 through 40. Zero picks the
	// smallest that fits.
	Version int

	// Mask forces a data mask, 0 through 7.
	Mask *int

	// Charset names the character set for byte mode, such as "UTF-8" or
	// "Shift_JIS". Empty uses ISO-8859-1 when the text fits it and UTF-8
	// otherwise.
	Charset string

	// GS1 marks the data as GS1 formatted with an FNC1 first position
	// indicator.
	GS1 bool
}

// Writer encodes QR codes.
type Writer struct{}

// NewWriter creates a new QR code Writer.
func NewWriter() *Writer {
	return &Writer{}
}

func writerError(value any, format string, args ...any) error {
	return qrcodec.NewStageError(qrcodec.StageEncoder, qrcodec.ErrWriter, value, format, args...)
}

// EncodeSymbol builds the module matrix for contents without rendering
// it.
func (w *Writer) EncodeSymbol(contents string, opts *EncodeOptions) (*encoder.QRCode, error) {
	if contents == "" {
		return nil, writerError(nil, "found empty contents")
	}

	ecLevel := decoder.ECLevelL
	encOpts := &encoder.Options{}
	if opts != nil {
		if opts.ErrorCorrection != "" {
			level, err := decoder.ParseErrorCorrectionLevel(opts.ErrorCorrection)
			if err != nil {
				return nil, writerError(opts.ErrorCorrection, "unknown error correction level")
			}
			ecLevel = level
		}
		if opts.Charset != "" {
			eci := charset.ECIForName(opts.Charset)
			if eci == nil {
				return nil, writerError(opts.Charset, "unknown character set")
			}
			encOpts.Charset = eci
		}
		encOpts.Version = opts.Version
		encOpts.Mask = opts.Mask
		encOpts.GS1 = opts.GS1
	}
	return encoder.Encode(contents, ecLevel, encOpts)
}

// Encode encodes contents and renders it to at least width x height
// pixels, each module an integer number of pixels wide.
func (w *Writer) Encode(contents string, width, height int, opts *EncodeOptions) (*bitutil.BitMatrix, error) {
	if width < 0 || height < 0 {
		return nil, writerError(nil, "requested dimensions are too small: %dx%d", width, height)
	}
	quietZone := defaultQuietZoneSize
	if opts != nil && opts.Margin != nil {
		if *opts.Margin < 0 {
			return nil, writerError(*opts.Margin, "negative margin")
		}
		quietZone = *opts.Margin
	}

	code, err := w.EncodeSymbol(contents, opts)
	if err != nil {
		return nil, err
	}
	return encoder.RenderResult(code, width, height, quietZone), nil
}
