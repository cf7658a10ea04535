// Package binarizer converts luminance data to a black and white bitmap.
// Hybrid thresholds locally and copes with shadows and lighting
// gradients; Global uses one threshold for the whole image.
package binarizer

import (
	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/bitutil"
)

const (
	luminanceBits    = 5
	luminanceShift   = 8 - luminanceBits
	luminanceBuckets = 1 << luminanceBits
)

// MinDynamicRange is the luminance range a region must exceed to be
// considered as holding both ink and background.
const MinDynamicRange = 24

// Global binarizes with a single Otsu threshold over the whole image. It
// suits small images and evenly lit scenes.
type Global struct {
	source qrcodec.LuminanceSource
}

// NewGlobal creates a new Global binarizer.
func NewGlobal(source qrcodec.LuminanceSource) *Global {
	return &Global{source: source}
}

// LuminanceSource returns the underlying source.
func (g *Global) LuminanceSource() qrcodec.LuminanceSource {
	return g.source
}

// Width returns the image width.
func (g *Global) Width() int { return g.source.Width() }

// Height returns the image height.
func (g *Global) Height() int { return g.source.Height() }

// BlackMatrix returns the binarized image. It fails with ErrNotFound when
// the image is flat or its histogram has no two separated peaks.
func (g *Global) BlackMatrix() (*bitutil.BitMatrix, error) {
	width, height := g.source.Width(), g.source.Height()
	luminances := g.source.Matrix()

	threshold, err := globalThreshold(luminances)
	if err != nil {
		return nil, err
	}
	var coarse [luminanceBuckets]int
	for _, l := range luminances {
		coarse[l>>luminanceShift]++
	}
	if err := bimodal(coarse[:]); err != nil {
		return nil, err
	}

	matrix := bitutil.NewBitMatrixWithSize(width, height)
	for y := 0; y < height; y++ {
		offset := y * width
		for x := 0; x < width; x++ {
			if int(luminances[offset+x]) <= threshold {
				matrix.Set(x, y)
			}
		}
	}
	return matrix, nil
}

// globalThreshold returns the Otsu threshold of the image, failing when
// the whole image does not exceed MinDynamicRange.
func globalThreshold(luminances []byte) (int, error) {
	var histogram [256]int
	mn, mx := 0xFF, 0
	for _, l := range luminances {
		histogram[l]++
		mn = min(mn, int(l))
		mx = max(mx, int(l))
	}
	spread := 0
	if len(luminances) > 0 {
		spread = mx - mn
	}
	if spread <= MinDynamicRange {
		return 0, qrcodec.NewStageError(qrcodec.StageBinarizer, qrcodec.ErrNotFound, spread, "image has no contrast")
	}
	return Otsu(histogram[:]), nil
}

// Otsu returns the threshold t maximising the between-class variance of
// the classes [0, t] and [t+1, len(histogram)-1].
func Otsu(histogram []int) int {
	total, sum := 0, 0
	for i, c := range histogram {
		total += c
		sum += i * c
	}
	if total == 0 {
		return 0
	}

	best, bestVariance := 0, -1.0
	weightBelow, sumBelow := 0, 0
	for t := 0; t < len(histogram)-1; t++ {
		weightBelow += histogram[t]
		sumBelow += t * histogram[t]
		weightAbove := total - weightBelow
		if weightBelow == 0 {
			continue
		}
		if weightAbove == 0 {
			break
		}
		meanBelow := float64(sumBelow) / float64(weightBelow)
		meanAbove := float64(sum-sumBelow) / float64(weightAbove)
		d := meanBelow - meanAbove
		variance := float64(weightBelow) * float64(weightAbove) * d * d
		if variance > bestVariance {
			best, bestVariance = t, variance
		}
	}
	return best
}

// bimodal fails when the two dominant peaks of a coarse histogram are
// too close for the image to hold both ink and background.
func bimodal(buckets []int) error {
	firstPeak, secondPeak := dominantPeaks(buckets)
	if firstPeak > secondPeak {
		firstPeak, secondPeak = secondPeak, firstPeak
	}
	if secondPeak-firstPeak <= len(buckets)/16 {
		return qrcodec.NewStageError(qrcodec.StageBinarizer, qrcodec.ErrNotFound, secondPeak-firstPeak,
			"luminance histogram is not bimodal")
	}
	return nil
}

// dominantPeaks returns the tallest bucket and the bucket that best
// balances height against distance from it.
func dominantPeaks(buckets []int) (first, second int) {
	firstSize := 0
	for x, c := range buckets {
		if c > firstSize {
			first, firstSize = x, c
		}
	}
	secondScore := 0
	for x, c := range buckets {
		dist := x - first
		if score := c * dist * dist; score > secondScore {
			second, secondScore = x, score
		}
	}
	return first, second
}
