package qrcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/bitutil"
	"github.com/ericlevine/qrcodec/charset"
	"github.com/ericlevine/qrcodec/internal/bittest"
	"github.com/ericlevine/qrcodec/qrcode/decoder"
	"github.com/ericlevine/qrcodec/qrcode/encoder"
	skip2 "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const testQuietZone = 4

func encode(t testing.TB, content string, level decoder.ErrorCorrectionLevel, opts *encoder.Options) *encoder.QRCode {
	t.Helper()
	code, err := encoder.Encode(content, level, opts)
	require.NoError(t, err)
	return code
}

// renderImage draws a symbol scale pixels per module with a four module
// quiet zone.
func renderImage(code *encoder.QRCode, scale int) *image.Gray {
	return qrcodec.BitMatrixToImage(renderBits(code, scale))
}

func renderBits(code *encoder.QRCode, scale int) *bitutil.BitMatrix {
	size := (code.Matrix.Width() + 2*testQuietZone) * scale
	return encoder.RenderResult(code, size, size, testQuietZone)
}

func TestDecodeBitsMaxCapacity(t *testing.T) {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	reader := NewReader()
	for n := 1; n <= 40; n++ {
		v, err := decoder.VersionForNumber(n)
		require.NoError(t, err)
		for _, level := range decoder.ErrorCorrectionLevels {
			capacity, err := v.MaxLength(decoder.ModeByte, level)
			require.NoError(t, err)
			content := strings.Repeat(alphabet, capacity/len(alphabet)+1)[:capacity]

			code := encode(t, content, level, &encoder.Options{Version: n})
			result, err := reader.DecodeBits(code.Matrix, nil)
			require.NoError(t, err, "%d-%s", n, level)
			assert.Equal(t, content, result.Text, "%d-%s", n, level)
			assert.Equal(t, n, result.Version)
			assert.Equal(t, level, result.ECLevel)
			assert.Equal(t, int(code.Mask), result.Mask)
			assert.Zero(t, result.ErrorsCorrected)
		}
	}
}

func TestDecodeExamples(t *testing.T) {
	tests := []struct {
		content string
		level   decoder.ErrorCorrectionLevel
		mode    decoder.Mode
		version int
	}{
		{"Hello world!", decoder.ECLevelM, decoder.ModeByte, 1},
		{"01234567", decoder.ECLevelM, decoder.ModeNumeric, 1},
		{"123456789012345678901234567890", decoder.ECLevelM, decoder.ModeNumeric, 1},
		{"AC-42", decoder.ECLevelH, decoder.ModeAlphanumeric, 1},
		{"ABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890 $%*+-./:", decoder.ECLevelM, decoder.ModeAlphanumeric, 3},
		{"茗荷茗荷茗荷茗荷", decoder.ECLevelM, decoder.ModeKanji, 1},
	}
	reader := NewReader()
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			code := encode(t, tt.content, tt.level, nil)
			result, err := reader.DecodeImage(renderImage(code, 4), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.content, result.Text)
			assert.Equal(t, tt.version, result.Version)
			assert.Equal(t, tt.level, result.ECLevel)
			assert.False(t, result.Mirrored)
			assert.Equal(t, "]Q1", result.SymbologyIdentifier)
			assert.Nil(t, result.StructuredAppend)
			require.Len(t, result.Segments, 1)
			assert.Equal(t, tt.mode, result.Segments[0].Mode)
			if tt.version == 1 {
				assert.Len(t, result.Points, 3)
			} else {
				assert.Len(t, result.Points, 4, "alignment pattern reported")
			}
		})
	}
}

func TestDecodeUTF8ECI(t *testing.T) {
	content := "Grüße aus Köln, 東京 und Москва"
	code := encode(t, content, decoder.ECLevelM, nil)
	require.Equal(t, charset.UTF8, code.ECI)

	result, err := NewReader().DecodeImage(renderImage(code, 3), nil)
	require.NoError(t, err)
	assert.Equal(t, content, result.Text)
	assert.Equal(t, "]Q2", result.SymbologyIdentifier)
	require.Len(t, result.Segments, 1)
	assert.Equal(t, charset.UTF8.Name, result.Segments[0].Charset)
}

func TestDecodeCharsetHint(t *testing.T) {
	// windows-1251 bytes without an ECI segment need the hint.
	raw, err := charset.Encode("Привет", charset.Cp1251)
	require.NoError(t, err)
	latin1, err := charset.Decode(raw, nil)
	require.NoError(t, err)
	code := encode(t, latin1, decoder.ECLevelM, nil)
	require.Nil(t, code.ECI)

	result, err := NewReader().DecodeBits(code.Matrix, &DecodeOptions{CharsetHint: charset.Cp1251})
	require.NoError(t, err)
	assert.Equal(t, "Привет", result.Text)
}

func TestDecodeRenderedVersions(t *testing.T) {
	reader := NewReader()
	for _, n := range []int{1, 2, 7, 10, 25, 40} {
		t.Run(fmt.Sprintf("version %d", n), func(t *testing.T) {
			content := fmt.Sprintf("version %d symbol", n)
			code := encode(t, content, decoder.ECLevelQ, &encoder.Options{Version: n})
			result, err := reader.DecodeImage(renderImage(code, 3), nil)
			require.NoError(t, err)
			assert.Equal(t, content, result.Text)
			assert.Equal(t, n, result.Version)
		})
	}
}

func TestDecodeRotations(t *testing.T) {
	code := encode(t, "ROTATED 90 180 270", decoder.ECLevelM, &encoder.Options{Version: 3})
	img := renderImage(code, 4)
	rotations := map[string]image.Image{
		"90":  imaging.Rotate90(img),
		"180": imaging.Rotate180(img),
		"270": imaging.Rotate270(img),
	}
	reader := NewReader()
	for name, rotated := range rotations {
		t.Run(name, func(t *testing.T) {
			result, err := reader.DecodeImage(rotated, nil)
			require.NoError(t, err)
			assert.Equal(t, "ROTATED 90 180 270", result.Text)
			assert.False(t, result.Mirrored)
		})
	}
}

func TestDecodeMirrored(t *testing.T) {
	code := encode(t, "mirror image", decoder.ECLevelM, &encoder.Options{Version: 2})
	mirrored := imaging.FlipH(renderImage(code, 4))

	result, err := NewReader().DecodeImage(mirrored, nil)
	require.NoError(t, err)
	assert.Equal(t, "mirror image", result.Text)
	assert.True(t, result.Mirrored)
}

func TestDecodeTilted(t *testing.T) {
	code := encode(t, "tilted symbol", decoder.ECLevelM, &encoder.Options{Version: 2})
	img := renderImage(code, 5)
	reader := NewReader()
	for _, angle := range []float64{8, 20} {
		t.Run(fmt.Sprintf("%v degrees", angle), func(t *testing.T) {
			tilted := imaging.Rotate(img, angle, color.White)
			result, err := reader.DecodeImage(tilted, &DecodeOptions{TryHarder: true})
			require.NoError(t, err)
			assert.Equal(t, "tilted symbol", result.Text)
		})
	}
}

func TestDecodeDownscaled(t *testing.T) {
	code := encode(t, "downscaled", decoder.ECLevelM, &encoder.Options{Version: 3})
	img := renderImage(code, 6)
	small := imaging.Resize(img, img.Bounds().Dx()/2, 0, imaging.Lanczos)

	result, err := NewReader().DecodeImage(small, nil)
	require.NoError(t, err)
	assert.Equal(t, "downscaled", result.Text)
}

func TestDecodeDamaged(t *testing.T) {
	const content = "DAMAGED SYMBOL 0123456789"
	code := encode(t, content, decoder.ECLevelH, &encoder.Options{Version: 5})
	damaged := *code
	damaged.Matrix = code.Matrix.Clone()
	for y := 20; y < 24; y++ {
		for x := 20; x < 24; x++ {
			damaged.Matrix.Flip(x, y)
		}
	}

	result, err := NewReader().DecodeImage(renderImage(&damaged, 4), nil)
	require.NoError(t, err)
	assert.Equal(t, content, result.Text)
	assert.Positive(t, result.ErrorsCorrected)
}

func TestDecodePure(t *testing.T) {
	code := encode(t, "pure symbol", decoder.ECLevelL, &encoder.Options{Version: 4})
	bitmap := qrcodec.NewBinaryBitmapFromMatrix(renderBits(code, 3))

	result, err := NewReader().Decode(bitmap, &DecodeOptions{Pure: true})
	require.NoError(t, err)
	assert.Equal(t, "pure symbol", result.Text)
	assert.Empty(t, result.Points)
}

func TestDecodePureFallsBackToDetector(t *testing.T) {
	code := encode(t, "pure but rotated", decoder.ECLevelL, &encoder.Options{Version: 2})
	bits := bittest.Rotate180(renderBits(code, 3))

	result, err := NewReader().Decode(qrcodec.NewBinaryBitmapFromMatrix(bits), &DecodeOptions{Pure: true})
	require.NoError(t, err)
	assert.Equal(t, "pure but rotated", result.Text)
	assert.Len(t, result.Points, 4)
}

func TestDecodeNotFound(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 100, 100))
	for i := range blank.Pix {
		blank.Pix[i] = 0xFF
	}
	_, err := NewReader().DecodeImage(blank, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, qrcodec.ErrNotFound))
}

func TestDecodeBitsRejectsIllegalSize(t *testing.T) {
	_, err := NewReader().DecodeBits(bitutil.NewBitMatrix(20), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, qrcodec.ErrFormat))
	assert.Equal(t, qrcodec.StageFormat, qrcodec.StageOf(err))
}

func TestDecodeLogsMirrorRetry(t *testing.T) {
	code := encode(t, "logged", decoder.ECLevelM, nil)
	bits := code.Matrix.Clone()
	bits.Transpose()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	result, err := NewReader().DecodeBits(bits, &DecodeOptions{Logger: logger})
	require.NoError(t, err)
	assert.True(t, result.Mirrored)
	assert.Contains(t, buf.String(), "trying mirrored")
}

func TestDecodeConcurrently(t *testing.T) {
	reader := NewReader()
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(8)
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			content := fmt.Sprintf("concurrent symbol %02d", i)
			code, err := encoder.Encode(content, decoder.ErrorCorrectionLevels[i%4], nil)
			if err != nil {
				return err
			}
			result, err := reader.DecodeImage(renderImage(code, 3), nil)
			if err != nil {
				return fmt.Errorf("symbol %d: %w", i, err)
			}
			if result.Text != content {
				return fmt.Errorf("symbol %d: got %q", i, result.Text)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestDecodeSymbolsFromIndependentEncoder(t *testing.T) {
	contents := []string{
		"https://example.com/qr?id=42",
		"0123456789012345678901234567890",
		"HELLO FROM ANOTHER ENCODER",
		strings.Repeat("payload ", 20),
	}
	reader := NewReader()
	for _, content := range contents {
		t.Run(content, func(t *testing.T) {
			q, err := skip2.New(content, skip2.Medium)
			require.NoError(t, err)
			result, err := reader.DecodeImage(q.Image(512), nil)
			require.NoError(t, err)
			assert.Equal(t, content, result.Text)
			assert.Equal(t, decoder.ECLevelM, result.ECLevel)
		})
	}
}

func TestStructuredAppendResult(t *testing.T) {
	v, err := decoder.VersionForNumber(1)
	require.NoError(t, err)
	r := newResult(&decoder.DecoderResult{
		Text:                     "part",
		Version:                  v,
		StructuredAppendSequence: 0x23,
		StructuredAppendParity:   0x5A,
		SymbologyModifier:        1,
	}, nil)
	require.NotNil(t, r.StructuredAppend)
	assert.Equal(t, 2, r.StructuredAppend.Index())
	assert.Equal(t, 4, r.StructuredAppend.Total())
	assert.Equal(t, 0x5A, r.StructuredAppend.Parity)
}

func BenchmarkDecodeImage(b *testing.B) {
	code := encode(b, "benchmark payload 0123456789", decoder.ECLevelM, &encoder.Options{Version: 5})
	img := renderImage(code, 4)
	reader := NewReader()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := reader.DecodeImage(img, nil); err != nil {
			b.Fatal(err)
		}
	}
}
