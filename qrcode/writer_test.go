package qrcode

import (
	"errors"
	"testing"

	"github.com/disintegration/imaging"
	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/qrcode/decoder"
	"github.com/liyue201/goqr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterEncode(t *testing.T) {
	w := NewWriter()
	result, err := w.Encode("Hello", 100, 100, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Width(), 100)
	assert.GreaterOrEqual(t, result.Height(), 100)

	decoded, err := NewReader().DecodeImage(qrcodec.BitMatrixToImage(result), nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello", decoded.Text)
	assert.Equal(t, decoder.ECLevelL, decoded.ECLevel)
}

func TestWriterEncodeWithOptions(t *testing.T) {
	w := NewWriter()
	margin := 2
	mask := 5
	opts := &EncodeOptions{
		ErrorCorrection: "h",
		Margin:          &margin,
		Version:         6,
		Mask:            &mask,
		Charset:         "Shift_JIS",
	}
	result, err := w.Encode("ｶﾀｶﾅ and ascii", 0, 0, opts)
	require.NoError(t, err)
	// Version 6 is 41 modules, plus the two module margin on each side.
	assert.Equal(t, 45, result.Width())
	assert.False(t, result.Get(0, 0))
	assert.True(t, result.Get(2, 2))

	img := imaging.Resize(qrcodec.BitMatrixToImage(result), 45*4, 0, imaging.NearestNeighbor)
	decoded, err := NewReader().DecodeImage(img, nil)
	require.NoError(t, err)
	assert.Equal(t, "ｶﾀｶﾅ and ascii", decoded.Text)
	assert.Equal(t, 6, decoded.Version)
	assert.Equal(t, decoder.ECLevelH, decoded.ECLevel)
	assert.Equal(t, 5, decoded.Mask)
}

func TestWriterEncodeSymbolGS1(t *testing.T) {
	code, err := NewWriter().EncodeSymbol("01095060001343521010ABC", &EncodeOptions{GS1: true})
	require.NoError(t, err)
	result, err := NewReader().DecodeBits(code.Matrix, nil)
	require.NoError(t, err)
	assert.Equal(t, "]Q3", result.SymbologyIdentifier)
}

func TestWriterErrors(t *testing.T) {
	negative := -1
	tests := []struct {
		name     string
		contents string
		width    int
		opts     *EncodeOptions
	}{
		{"empty contents", "", 100, nil},
		{"negative size", "Hello", -1, nil},
		{"negative margin", "Hello", 100, &EncodeOptions{Margin: &negative}},
		{"unknown level", "Hello", 100, &EncodeOptions{ErrorCorrection: "X"}},
		{"unknown charset", "Hello", 100, &EncodeOptions{Charset: "EBCDIC-XX"}},
		{"version too small", "this does not fit in version one", 100, &EncodeOptions{Version: 1, ErrorCorrection: "H"}},
	}
	w := NewWriter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.Encode(tt.contents, tt.width, tt.width, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, qrcodec.ErrWriter))
			assert.Equal(t, qrcodec.StageEncoder, qrcodec.StageOf(err))
		})
	}
}

func TestWrittenSymbolsReadByIndependentDecoder(t *testing.T) {
	contents := []string{
		"Hello, independent reader!",
		"0123456789",
		"HTTPS://EXAMPLE.COM/ABC",
	}
	w := NewWriter()
	for _, content := range contents {
		t.Run(content, func(t *testing.T) {
			matrix, err := w.Encode(content, 250, 250, &EncodeOptions{ErrorCorrection: "M"})
			require.NoError(t, err)
			codes, err := goqr.Recognize(qrcodec.BitMatrixToImage(matrix))
			require.NoError(t, err)
			require.Len(t, codes, 1)
			assert.Equal(t, content, string(codes[0].Payload))
		})
	}
}
