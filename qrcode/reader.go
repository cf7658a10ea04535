// Package qrcode provides QR code reading and writing.
package qrcode

import (
	"image"
	"log/slog"
	"math"

	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/binarizer"
	"github.com/ericlevine/qrcodec/bitutil"
	"github.com/ericlevine/qrcodec/charset"
	"github.com/ericlevine/qrcodec/qrcode/decoder"
	"github.com/ericlevine/qrcodec/qrcode/detector"
)

// DecodeOptions configures a decode. A nil *DecodeOptions uses the
// defaults.
type DecodeOptions struct {
	// Pure hints that the image holds only an unrotated symbol with a
	// light border. The symbol is read straight off its bounding box
	// before the finder search is tried.
	Pure bool

	// TryHarder scans every row for finder patterns.
	TryHarder bool

	// CharsetHint decodes byte segments that carry no ECI designator.
	// Nil guesses the character set from the bytes.
	CharsetHint *charset.ECI

	// Logger receives debug records from every stage; nil is silent.
	Logger *slog.Logger
}

func (o *DecodeOptions) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return discardLogger
	}
	return o.Logger
}

func (o *DecodeOptions) pure() bool {
	return o != nil && o.Pure
}

func (o *DecodeOptions) detectorOptions() *detector.Options {
	if o == nil {
		return nil
	}
	return &detector.Options{Pure: o.Pure, TryHarder: o.TryHarder, Logger: o.Logger}
}

func (o *DecodeOptions) decoderOptions() *decoder.Options {
	if o == nil {
		return nil
	}
	return &decoder.Options{CharsetHint: o.CharsetHint, Logger: o.Logger}
}

var discardLogger = slog.New(slog.DiscardHandler)

// Reader decodes QR codes from binary images. It holds no per-decode
// state and is safe for concurrent use.
type Reader struct {
	dec *decoder.Decoder
}

// NewReader creates a new QR code Reader.
func NewReader() *Reader {
	return &Reader{
		dec: decoder.NewDecoder(),
	}
}

// Decode locates and decodes a QR code in the given image.
func (r *Reader) Decode(image *qrcodec.BinaryBitmap, opts *DecodeOptions) (*Result, error) {
	log := opts.logger()
	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}

	if opts.pure() {
		result, err := r.decodePure(matrix, opts)
		if err == nil {
			return result, nil
		}
		log.Debug("pure extraction failed, searching for finder patterns", "stage", qrcodec.StageOf(err), "error", err)
	}

	det := detector.NewDetector(matrix)
	detectorResult, err := det.Detect(opts.detectorOptions())
	if err != nil {
		return nil, err
	}
	dr, err := r.dec.Decode(detectorResult.Bits, opts.decoderOptions())
	if err != nil {
		return nil, err
	}
	return newResult(dr, detectorResult.Points), nil
}

func (r *Reader) decodePure(matrix *bitutil.BitMatrix, opts *DecodeOptions) (*Result, error) {
	bits, err := extractPureBits(matrix)
	if err != nil {
		return nil, err
	}
	dr, err := r.dec.Decode(bits, opts.decoderOptions())
	if err != nil {
		return nil, err
	}
	return newResult(dr, nil), nil
}

// DecodeImage converts img to luminance and decodes it with the hybrid
// binarizer, then once more with the global binarizer if that fails. The
// error of the first attempt is returned when both fail.
func (r *Reader) DecodeImage(img image.Image, opts *DecodeOptions) (*Result, error) {
	source := qrcodec.NewImageLuminanceSource(img)
	result, err := r.Decode(qrcodec.NewBinaryBitmap(binarizer.NewHybrid(source)), opts)
	if err == nil {
		return result, nil
	}
	opts.logger().Debug("hybrid binarizer failed, retrying with global", "stage", qrcodec.StageOf(err), "error", err)

	result, globalErr := r.Decode(qrcodec.NewBinaryBitmap(binarizer.NewGlobal(source)), opts)
	if globalErr != nil {
		return nil, err
	}
	return result, nil
}

// DecodeBits decodes a clean module matrix, one bit per module and no
// quiet zone. bits is left untouched.
func (r *Reader) DecodeBits(bits *bitutil.BitMatrix, opts *DecodeOptions) (*Result, error) {
	dr, err := r.dec.Decode(bits, opts.decoderOptions())
	if err != nil {
		return nil, err
	}
	return newResult(dr, nil), nil
}

func pureNotFound(format string, args ...any) error {
	return qrcodec.NewStageError(qrcodec.StageFinder, qrcodec.ErrNotFound, nil, format, args...)
}

// extractPureBits reads a symbol off a "pure" image, one that contains
// only the unrotated, unskewed symbol with some light border.
func extractPureBits(image *bitutil.BitMatrix) (*bitutil.BitMatrix, error) {
	leftTopBlack := image.TopLeftOnBit()
	rightBottomBlack := image.BottomRightOnBit()
	if leftTopBlack == nil || rightBottomBlack == nil {
		return nil, pureNotFound("image has no dark pixels")
	}

	moduleSize, err := moduleSizePure(leftTopBlack, image)
	if err != nil {
		return nil, err
	}

	top := leftTopBlack[1]
	bottom := rightBottomBlack[1]
	left := leftTopBlack[0]
	right := rightBottomBlack[0]

	if left >= right || top >= bottom {
		return nil, pureNotFound("degenerate bounding box")
	}

	if bottom-top != right-left {
		// The bottom-right corner has no finder, so trust the height.
		right = left + (bottom - top)
		if right >= image.Width() {
			return nil, pureNotFound("bounding box is not square")
		}
	}

	matrixWidth := int(math.Round(float64(right-left+1) / moduleSize))
	matrixHeight := int(math.Round(float64(bottom-top+1) / moduleSize))
	if matrixWidth <= 0 || matrixHeight <= 0 || matrixHeight != matrixWidth {
		return nil, pureNotFound("%dx%d modules", matrixWidth, matrixHeight)
	}
	if matrixWidth < 21 || matrixWidth > 177 || matrixWidth&3 != 1 {
		return nil, pureNotFound("%d modules is not a symbol size", matrixWidth)
	}

	// Sample the middle of each module.
	nudge := int(moduleSize / 2.0)
	top += nudge
	left += nudge

	nudgedTooFarRight := left + int(float64(matrixWidth-1)*moduleSize) - right
	if nudgedTooFarRight > 0 {
		if nudgedTooFarRight > nudge {
			return nil, pureNotFound("grid runs past the right edge")
		}
		left -= nudgedTooFarRight
	}
	nudgedTooFarDown := top + int(float64(matrixHeight-1)*moduleSize) - bottom
	if nudgedTooFarDown > 0 {
		if nudgedTooFarDown > nudge {
			return nil, pureNotFound("grid runs past the bottom edge")
		}
		top -= nudgedTooFarDown
	}

	bits := bitutil.NewBitMatrix(matrixWidth)
	for y := 0; y < matrixHeight; y++ {
		iOffset := top + int(float64(y)*moduleSize)
		for x := 0; x < matrixWidth; x++ {
			if image.Get(left+int(float64(x)*moduleSize), iOffset) {
				bits.Set(x, y)
			}
		}
	}
	return bits, nil
}

// moduleSizePure walks the diagonal of the top-left finder pattern and
// divides the distance to its fifth transition by seven.
func moduleSizePure(leftTopBlack []int, image *bitutil.BitMatrix) (float64, error) {
	height := image.Height()
	width := image.Width()
	x := leftTopBlack[0]
	y := leftTopBlack[1]
	inBlack := true
	transitions := 0
	for x < width && y < height {
		if inBlack != image.Get(x, y) {
			transitions++
			if transitions == 5 {
				break
			}
			inBlack = !inBlack
		}
		x++
		y++
	}
	if x == width || y == height {
		return 0, pureNotFound("finder pattern diagonal runs off the image")
	}
	return float64(x-leftTopBlack[0]) / 7.0, nil
}
