package detector

import (
	"errors"
	"fmt"
	"math"
	"testing"

	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/bitutil"
	"github.com/ericlevine/qrcodec/internal/bittest"
	"github.com/ericlevine/qrcodec/qrcode/decoder"
	"github.com/ericlevine/qrcodec/qrcode/encoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMargin = 4

// render encodes content and draws it scale pixels per module with a
// four module quiet zone.
func render(t *testing.T, content string, version, scale int) (*encoder.QRCode, *bitutil.BitMatrix) {
	t.Helper()
	code, err := encoder.Encode(content, decoder.ECLevelM, &encoder.Options{Version: version})
	require.NoError(t, err)
	size := (code.Matrix.Width() + 2*testMargin) * scale
	return code, encoder.RenderResult(code, size, size, testMargin)
}

func TestDetectVersions(t *testing.T) {
	for _, version := range []int{1, 2, 6, 7, 10, 20} {
		t.Run(decoderVersionName(version), func(t *testing.T) {
			code, image := render(t, "DETECTOR TEST 12345", version, 3)
			result, err := NewDetector(image).Detect(nil)
			require.NoError(t, err)
			assert.True(t, code.Matrix.Equals(result.Bits), "sampled grid differs from the symbol")
			assert.InDelta(t, 3.0, result.ModuleSize, 0.2)
			if version == 1 {
				assert.Len(t, result.Points, 3)
			} else {
				assert.Len(t, result.Points, 4)
			}
		})
	}
}

func decoderVersionName(n int) string {
	v, _ := decoder.VersionForNumber(n)
	return "version " + v.String()
}

func TestDetectPoints(t *testing.T) {
	_, image := render(t, "POINTS", 2, 4)
	result, err := NewDetector(image).Detect(&Options{TryHarder: true})
	require.NoError(t, err)
	// Module (3, 3) spans pixels 28..31 after the 16 pixel quiet zone.
	center := float64(testMargin*4) + 3.5*4
	far := float64(testMargin*4) + (25-3.5)*4
	align := float64(testMargin*4) + (25-6.5)*4
	want := []qrcodec.ResultPoint{
		{X: center, Y: far},
		{X: center, Y: center},
		{X: far, Y: center},
		{X: align, Y: align},
	}
	require.Len(t, result.Points, 4)
	for i, p := range want {
		assert.InDelta(t, p.X, result.Points[i].X, 1.0, "point %d x", i)
		assert.InDelta(t, p.Y, result.Points[i].Y, 1.0, "point %d y", i)
	}

	x, y := result.Transform.Transform(3.5, 3.5)
	assert.InDelta(t, center, x, 1.0)
	assert.InDelta(t, center, y, 1.0)
}

func TestDetectRotated(t *testing.T) {
	code, image := render(t, "ROTATION", 3, 3)
	for turns := 1; turns <= 3; turns++ {
		image = bittest.Rotate90(image)
		result, err := NewDetector(image).Detect(nil)
		require.NoError(t, err, "after %d quarter turns", turns)
		assert.True(t, code.Matrix.Equals(result.Bits), "after %d quarter turns", turns)
	}
}

func TestDetectMirroredSamplesTranspose(t *testing.T) {
	code, image := render(t, "MIRROR", 2, 3)
	image = bittest.FlipHorizontal(image)
	result, err := NewDetector(image).Detect(nil)
	require.NoError(t, err)

	want := code.Matrix.Clone()
	want.Transpose()
	assert.True(t, want.Equals(result.Bits))
}

func TestCorrectDimensionFromVersionField(t *testing.T) {
	for _, version := range []int{10, 20} {
		code, image := render(t, "VERSION FIELD 0123456789", version, 4)
		dimension := code.Matrix.Width()
		d := NewDetector(image)
		info, err := FindFinderPatterns(image, nil)
		require.NoError(t, err)
		moduleSize := d.calculateModuleSize(info.TopLeft, info.TopRight, info.BottomLeft)

		for _, delta := range []int{-4, 4} {
			t.Run(fmt.Sprintf("version %d sampled at %d", version, dimension+delta), func(t *testing.T) {
				misfit, err := d.sample(info, moduleSize, dimension+delta, nil)
				require.NoError(t, err)
				require.Equal(t, dimension+delta, misfit.Bits.Height())

				corrected, err := d.correctDimension(info, misfit, nil)
				require.NoError(t, err)
				assert.True(t, code.Matrix.Equals(corrected.Bits), "corrected grid differs from the symbol")
			})
		}
	}
}

func TestReadVersionNearFinders(t *testing.T) {
	code, image := render(t, "VERSION FIELD 0123456789", 10, 4)
	for _, mirrored := range []bool{false, true} {
		if mirrored {
			image = image.Clone()
			image.Transpose()
		}
		info, err := FindFinderPatterns(image, nil)
		require.NoError(t, err)
		v, err := NewDetector(image).readVersionNearFinders(info)
		require.NoError(t, err, "mirrored %v", mirrored)
		assert.Equal(t, code.Version.Number, v.Number, "mirrored %v", mirrored)
	}

	// Light modules beside the finder patterns are no version field.
	blank := bitutil.NewBitMatrix((25 + 2*testMargin) * 4)
	drawFinder(blank, 0, 0)
	drawFinder(blank, 18, 0)
	drawFinder(blank, 0, 18)
	info, err := FindFinderPatterns(blank, nil)
	require.NoError(t, err)
	_, err = NewDetector(blank).readVersionNearFinders(info)
	assert.ErrorIs(t, err, qrcodec.ErrFormat)
}

func TestDetectPureEveryRow(t *testing.T) {
	code, image := render(t, "PURE", 1, 2)
	result, err := NewDetector(image).Detect(&Options{Pure: true})
	require.NoError(t, err)
	assert.True(t, code.Matrix.Equals(result.Bits))
}

func TestDetectNotFound(t *testing.T) {
	blank := bitutil.NewBitMatrix(120)

	stripes := bitutil.NewBitMatrix(120)
	// 1:1:3:1:1 bars spanning the full height never pass the vertical check.
	for _, bar := range [][2]int{{10, 4}, {18, 12}, {34, 4}} {
		stripes.SetRegion(bar[0], 0, bar[1], 120)
	}

	for name, image := range map[string]*bitutil.BitMatrix{"blank": blank, "stripes": stripes} {
		t.Run(name, func(t *testing.T) {
			_, err := NewDetector(image).Detect(&Options{TryHarder: true})
			require.Error(t, err)
			assert.True(t, errors.Is(err, qrcodec.ErrNotFound))
			assert.Equal(t, qrcodec.StageFinder, qrcodec.StageOf(err))
		})
	}
}

// drawFinder draws a 7x7 finder pattern with its top-left module at
// (mx, my) on a canvas with a 4 pixel module and a 16 pixel offset.
func drawFinder(image *bitutil.BitMatrix, mx, my int) {
	const scale, offset = 4, testMargin * 4
	x, y := offset+mx*scale, offset+my*scale
	image.SetRegion(x, y, 7*scale, 7*scale)
	for i := scale; i < 6*scale; i++ {
		for j := scale; j < 6*scale; j++ {
			image.Unset(x+i, y+j)
		}
	}
	image.SetRegion(x+2*scale, y+2*scale, 3*scale, 3*scale)
}

func TestDetectMissingAlignmentPattern(t *testing.T) {
	// Finder patterns of a version 2 symbol and nothing else.
	image := bitutil.NewBitMatrix((25 + 2*testMargin) * 4)
	drawFinder(image, 0, 0)
	drawFinder(image, 18, 0)
	drawFinder(image, 0, 18)

	info, err := FindFinderPatterns(image, nil)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, info.TopLeft.X, 1.0)
	assert.InDelta(t, 102.0, info.TopRight.X, 1.0)
	assert.InDelta(t, 102.0, info.BottomLeft.Y, 1.0)

	_, err = NewDetector(image).Detect(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, qrcodec.ErrNotFound))
	assert.Equal(t, qrcodec.StageSampler, qrcodec.StageOf(err))
}

func TestFoundFinderPattern(t *testing.T) {
	assert.True(t, foundFinderPattern([5]int{1, 1, 3, 1, 1}))
	assert.True(t, foundFinderPattern([5]int{4, 4, 12, 4, 4}))
	assert.True(t, foundFinderPattern([5]int{5, 3, 12, 4, 4}))
	assert.False(t, foundFinderPattern([5]int{4, 4, 4, 4, 4}))
	assert.False(t, foundFinderPattern([5]int{4, 0, 12, 4, 4}))
	assert.False(t, foundFinderPattern([5]int{1, 1, 2, 1, 1}))

	assert.True(t, foundPatternDiagonal([5]int{6, 6, 17, 6, 6}))
	assert.True(t, foundPatternDiagonal([5]int{7, 3, 17, 6, 6}))
	assert.False(t, foundPatternDiagonal([5]int{20, 2, 4, 2, 20}))
}

func TestAboutEquals(t *testing.T) {
	fp := &FinderPattern{X: 100, Y: 50, ModuleSize: 4, Count: 1}
	assert.True(t, fp.AboutEquals(4, 52, 103))
	assert.False(t, fp.AboutEquals(4, 55, 100))
	assert.False(t, fp.AboutEquals(10, 50, 100))

	combined := fp.combineEstimate(52, 104, 6)
	assert.Equal(t, 2, combined.Count)
	assert.InDelta(t, 102.0, combined.X, 1e-9)
	assert.InDelta(t, 51.0, combined.Y, 1e-9)
	assert.InDelta(t, 5.0, combined.ModuleSize, 1e-9)
}

func TestSelectBestTriple(t *testing.T) {
	a := &FinderPattern{X: 100, Y: 100, ModuleSize: 4, Count: 3}
	b := &FinderPattern{X: 300, Y: 100, ModuleSize: 4, Count: 3}
	c := &FinderPattern{X: 100, Y: 300, ModuleSize: 4, Count: 3}
	wrongSize := &FinderPattern{X: 500, Y: 500, ModuleSize: 8, Count: 3}
	nearMiss := &FinderPattern{X: 300, Y: 300, ModuleSize: 4.1, Count: 1}

	info, err := selectBestTriple([]*FinderPattern{wrongSize, nearMiss, c, b, a})
	require.NoError(t, err)
	assert.Same(t, c, info.BottomLeft)
	assert.Same(t, a, info.TopLeft)
	assert.Same(t, b, info.TopRight)
}

func TestSelectBestTripleRejectsGeometry(t *testing.T) {
	tests := []struct {
		name     string
		patterns []*FinderPattern
	}{
		{"too few", []*FinderPattern{
			{X: 100, Y: 100, ModuleSize: 4}, {X: 300, Y: 100, ModuleSize: 4},
		}},
		{"not square", []*FinderPattern{
			{X: 100, Y: 100, ModuleSize: 4}, {X: 300, Y: 100, ModuleSize: 4}, {X: 200, Y: 273, ModuleSize: 4},
		}},
		{"unequal arms", []*FinderPattern{
			{X: 100, Y: 100, ModuleSize: 4}, {X: 300, Y: 100, ModuleSize: 4}, {X: 100, Y: 420, ModuleSize: 4},
		}},
		{"module sizes", []*FinderPattern{
			{X: 100, Y: 100, ModuleSize: 2}, {X: 300, Y: 100, ModuleSize: 4}, {X: 100, Y: 300, ModuleSize: 4},
		}},
		{"too small", []*FinderPattern{
			{X: 100, Y: 100, ModuleSize: 4}, {X: 140, Y: 100, ModuleSize: 4}, {X: 100, Y: 140, ModuleSize: 4},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := selectBestTriple(tt.patterns)
			require.Error(t, err)
			assert.True(t, errors.Is(err, qrcodec.ErrNotFound))
			assert.Equal(t, qrcodec.StageFinder, qrcodec.StageOf(err))
		})
	}
}

func TestComputeDimension(t *testing.T) {
	tl := &FinderPattern{X: 0, Y: 0}
	tests := []struct {
		arm  float64
		want int
	}{
		{14 * 4, 21},
		{18 * 4, 25},
		{19 * 4, 25},
		{17 * 4, 25},
		{170 * 4, 177},
	}
	for _, tt := range tests {
		tr := &FinderPattern{X: tt.arm, Y: 0}
		bl := &FinderPattern{X: 0, Y: tt.arm}
		got, err := computeDimension(tl, tr, bl, 4)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "arm %v", tt.arm)
	}

	tr := &FinderPattern{X: 16 * 4, Y: 0}
	bl := &FinderPattern{X: 0, Y: 16 * 4}
	_, err := computeDimension(tl, tr, bl, 4)
	assert.True(t, errors.Is(err, qrcodec.ErrNotFound))
}

func TestFindAlignmentPattern(t *testing.T) {
	_, image := render(t, "ALIGN", 2, 4)
	offset := float64(testMargin * 4)
	want := offset + 18.5*4
	ap, err := FindAlignmentPattern(image, 4, want+6, want-5)
	require.NoError(t, err)
	assert.InDelta(t, want, ap.X, 1.0)
	assert.InDelta(t, want, ap.Y, 1.0)
	assert.False(t, math.IsNaN(ap.ModuleSize))
}
