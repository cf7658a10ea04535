package binarizer

import (
	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/bitutil"
)

// BlockSizePower sets the side of the square blocks Hybrid computes one
// threshold for, as a power of two.
const BlockSizePower = 3

// BlockSize is the side of a threshold block in pixels.
const BlockSize = 1 << BlockSizePower

const (
	blockSizeMask    = BlockSize - 1
	minimumDimension = BlockSize * 5
	// Blocks whose dominant peaks are this many buckets apart or closer
	// fall back to the global threshold.
	minPeakSeparation = 1
)

// Hybrid computes a threshold per BlockSize square from its luminance
// histogram and smooths it over the surrounding 5x5 blocks. Images
// smaller than five blocks in either direction are handed to Global.
type Hybrid struct {
	Global
}

// NewHybrid creates a new Hybrid binarizer.
func NewHybrid(source qrcodec.LuminanceSource) *Hybrid {
	return &Hybrid{Global: Global{source: source}}
}

// BlackMatrix returns the binarized image, true is dark.
func (h *Hybrid) BlackMatrix() (*bitutil.BitMatrix, error) {
	source := h.LuminanceSource()
	width, height := source.Width(), source.Height()
	if width < minimumDimension || height < minimumDimension {
		return h.Global.BlackMatrix()
	}

	luminances := source.Matrix()
	global, err := globalThreshold(luminances)
	if err != nil {
		return nil, err
	}
	subWidth := width >> BlockSizePower
	if width&blockSizeMask != 0 {
		subWidth++
	}
	subHeight := height >> BlockSizePower
	if height&blockSizeMask != 0 {
		subHeight++
	}
	thresholds := calculateBlockThresholds(luminances, subWidth, subHeight, width, height, global)

	matrix := bitutil.NewBitMatrixWithSize(width, height)
	applyThresholds(luminances, subWidth, subHeight, width, height, thresholds, matrix)
	return matrix, nil
}

// applyThresholds binarizes every block against the mean threshold of the
// 5x5 blocks around it, clamped at the image edges.
func applyThresholds(luminances []byte, subWidth, subHeight, width, height int,
	thresholds [][]int, matrix *bitutil.BitMatrix) {
	maxYOffset := height - BlockSize
	maxXOffset := width - BlockSize
	for y := 0; y < subHeight; y++ {
		yoffset := min(y<<BlockSizePower, maxYOffset)
		top := clampBlock(y, subHeight-3)
		for x := 0; x < subWidth; x++ {
			xoffset := min(x<<BlockSizePower, maxXOffset)
			left := clampBlock(x, subWidth-3)
			sum := 0
			for z := -2; z <= 2; z++ {
				row := thresholds[top+z]
				sum += row[left-2] + row[left-1] + row[left] + row[left+1] + row[left+2]
			}
			thresholdBlock(luminances, xoffset, yoffset, sum/25, width, matrix)
		}
	}
}

func clampBlock(value, hi int) int {
	if value < 2 {
		return 2
	}
	return min(value, hi)
}

func thresholdBlock(luminances []byte, xoffset, yoffset, threshold, stride int, matrix *bitutil.BitMatrix) {
	for y, offset := 0, yoffset*stride+xoffset; y < BlockSize; y, offset = y+1, offset+stride {
		for x := 0; x < BlockSize; x++ {
			if int(luminances[offset+x]) <= threshold {
				matrix.Set(xoffset+x, yoffset+y)
			}
		}
	}
}

// calculateBlockThresholds derives one threshold per block:
//   - a block with range above MinDynamicRange uses the midpoint of its
//     two dominant histogram peaks, or the global threshold when those
//     peaks are adjacent;
//   - a flat block inherits the mean threshold of its upper and left
//     neighbours when its darkest pixel is below it, as inside a large
//     dark area, and is otherwise treated as background.
func calculateBlockThresholds(luminances []byte, subWidth, subHeight, width, height, global int) [][]int {
	maxYOffset := height - BlockSize
	maxXOffset := width - BlockSize
	thresholds := make([][]int, subHeight)
	for i := range thresholds {
		thresholds[i] = make([]int, subWidth)
	}

	var histogram [luminanceBuckets]int
	for y := 0; y < subHeight; y++ {
		yoffset := min(y<<BlockSizePower, maxYOffset)
		for x := 0; x < subWidth; x++ {
			xoffset := min(x<<BlockSizePower, maxXOffset)
			histogram = [luminanceBuckets]int{}
			mn, mx := 0xFF, 0
			for yy, offset := 0, yoffset*width+xoffset; yy < BlockSize; yy, offset = yy+1, offset+width {
				for xx := 0; xx < BlockSize; xx++ {
					pixel := int(luminances[offset+xx])
					histogram[pixel>>luminanceShift]++
					mn = min(mn, pixel)
					mx = max(mx, pixel)
				}
			}

			var threshold int
			if mx-mn > MinDynamicRange {
				first, second := dominantPeaks(histogram[:])
				if abs(second-first) <= minPeakSeparation {
					threshold = global
				} else {
					threshold = (first+second)<<(luminanceShift-1) + 1<<(luminanceShift-1)
				}
			} else {
				threshold = mn / 2
				if neighbours, ok := neighbourThreshold(thresholds, x, y); ok && mn < neighbours {
					threshold = neighbours
				}
			}
			thresholds[y][x] = threshold
		}
	}
	return thresholds
}

// neighbourThreshold averages the already computed thresholds above and
// to the left of block (x, y), weighting the left block twice.
func neighbourThreshold(thresholds [][]int, x, y int) (int, bool) {
	switch {
	case x > 0 && y > 0:
		return (thresholds[y-1][x] + 2*thresholds[y][x-1] + thresholds[y-1][x-1]) / 4, true
	case y > 0:
		return thresholds[y-1][x], true
	case x > 0:
		return thresholds[y][x-1], true
	}
	return 0, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
