package detector

import (
	"math"

	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/bitutil"
)

// alignmentAllowances are the successive search radii, in module sizes,
// around the predicted alignment pattern center.
var alignmentAllowances = [...]float64{4, 8, 16}

// AlignmentPattern is the located bottom-right alignment pattern.
type AlignmentPattern struct {
	X, Y       float64
	ModuleSize float64
}

func (ap *AlignmentPattern) aboutEquals(moduleSize, i, j float64) bool {
	if math.Abs(i-ap.Y) <= moduleSize && math.Abs(j-ap.X) <= moduleSize {
		moduleSizeDiff := math.Abs(moduleSize - ap.ModuleSize)
		return moduleSizeDiff <= 1.0 || moduleSizeDiff <= ap.ModuleSize
	}
	return false
}

func (ap *AlignmentPattern) combineEstimate(i, j, newModuleSize float64) *AlignmentPattern {
	return &AlignmentPattern{
		X:          (ap.X + j) / 2.0,
		Y:          (ap.Y + i) / 2.0,
		ModuleSize: (ap.ModuleSize + newModuleSize) / 2.0,
	}
}

// FindAlignmentPattern searches for an alignment pattern around
// (estX, estY), widening the search region from 4 to 8 to 16 module
// sizes. It fails with ErrNotFound when no region holds one.
func FindAlignmentPattern(image *bitutil.BitMatrix, moduleSize, estX, estY float64) (*AlignmentPattern, error) {
	for _, factor := range alignmentAllowances {
		if ap := findAlignmentInRegion(image, moduleSize, int(estX), int(estY), factor); ap != nil {
			return ap, nil
		}
	}
	return nil, qrcodec.NewStageError(qrcodec.StageSampler, qrcodec.ErrNotFound,
		qrcodec.ResultPoint{X: estX, Y: estY}, "no alignment pattern near (%.1f, %.1f)", estX, estY)
}

func findAlignmentInRegion(image *bitutil.BitMatrix, moduleSize float64, estX, estY int, allowanceFactor float64) *AlignmentPattern {
	allowance := int(allowanceFactor * moduleSize)
	left := max(0, estX-allowance)
	top := max(0, estY-allowance)
	right := min(image.Width()-1, estX+allowance)
	bottom := min(image.Height()-1, estY+allowance)
	if float64(right-left) < moduleSize*3 || float64(bottom-top) < moduleSize*3 {
		return nil
	}

	f := &alignmentPatternFinder{
		image:      image,
		startX:     left,
		startY:     top,
		width:      right - left,
		height:     bottom - top,
		moduleSize: moduleSize,
	}
	return f.find(float64(estX), float64(estY))
}

// alignmentPatternFinder looks for the white-black-white 1:1:1 run
// through the center module of an alignment pattern, scanning rows
// outward from the middle of its region.
type alignmentPatternFinder struct {
	image           *bitutil.BitMatrix
	startX, startY  int
	width, height   int
	moduleSize      float64
	possibleCenters []*AlignmentPattern
}

func (f *alignmentPatternFinder) find(estX, estY float64) *AlignmentPattern {
	maxJ := f.startX + f.width
	middleI := f.startY + f.height/2
	for iGen := 0; iGen < f.height; iGen++ {
		i := middleI
		if iGen&1 == 0 {
			i += (iGen + 1) / 2
		} else {
			i -= (iGen + 1) / 2
		}

		var stateCount [3]int
		j := f.startX
		// A white run touching the region edge has unknown length.
		for j < maxJ && !f.image.Get(j, i) {
			j++
		}
		state := 0
		for ; j < maxJ; j++ {
			if f.image.Get(j, i) {
				switch state {
				case 1:
					stateCount[1]++
				case 2:
					if f.foundPatternCross(stateCount) {
						if confirmed := f.handlePossibleCenter(stateCount, i, j); confirmed != nil {
							return confirmed
						}
					}
					stateCount = [3]int{stateCount[2], 1, 0}
					state = 1
				default:
					state++
					stateCount[state]++
				}
			} else {
				if state == 1 {
					state++
				}
				stateCount[state]++
			}
		}
		if state == 2 && f.foundPatternCross(stateCount) {
			if confirmed := f.handlePossibleCenter(stateCount, i, maxJ); confirmed != nil {
				return confirmed
			}
		}
	}

	// Nothing was seen twice; settle for the candidate nearest the
	// prediction.
	var nearest *AlignmentPattern
	bestDist := math.Inf(1)
	for _, ap := range f.possibleCenters {
		if d := math.Hypot(ap.X-estX, ap.Y-estY); d < bestDist {
			nearest = ap
			bestDist = d
		}
	}
	return nearest
}

func (f *alignmentPatternFinder) foundPatternCross(stateCount [3]int) bool {
	maxVariance := f.moduleSize / 2.0
	for _, count := range stateCount {
		if math.Abs(f.moduleSize-float64(count)) >= maxVariance {
			return false
		}
	}
	return true
}

func alignmentCenterFromEnd(stateCount [3]int, end int) float64 {
	return float64(end-stateCount[2]) - float64(stateCount[1])/2.0
}

// handlePossibleCenter returns a pattern once it has been seen on two
// scan lines; the first sighting is only remembered.
func (f *alignmentPatternFinder) handlePossibleCenter(stateCount [3]int, i, j int) *AlignmentPattern {
	total := stateCount[0] + stateCount[1] + stateCount[2]
	centerJ := alignmentCenterFromEnd(stateCount, j)
	centerI := f.crossCheckVertical(i, int(centerJ), 2*stateCount[1], total)
	if math.IsNaN(centerI) {
		return nil
	}
	estModuleSize := float64(total) / 3.0
	for _, center := range f.possibleCenters {
		if center.aboutEquals(estModuleSize, centerI, centerJ) {
			return center.combineEstimate(centerI, centerJ, estModuleSize)
		}
	}
	f.possibleCenters = append(f.possibleCenters, &AlignmentPattern{X: centerJ, Y: centerI, ModuleSize: estModuleSize})
	return nil
}

func (f *alignmentPatternFinder) crossCheckVertical(startI, centerJ, maxCount, originalTotal int) float64 {
	maxI := f.image.Height()
	var stateCount [3]int

	i := startI
	for i >= 0 && f.image.Get(centerJ, i) && stateCount[1] <= maxCount {
		stateCount[1]++
		i--
	}
	if i < 0 || stateCount[1] > maxCount {
		return math.NaN()
	}
	for i >= 0 && !f.image.Get(centerJ, i) && stateCount[0] <= maxCount {
		stateCount[0]++
		i--
	}
	if stateCount[0] > maxCount {
		return math.NaN()
	}

	i = startI + 1
	for i < maxI && f.image.Get(centerJ, i) && stateCount[1] <= maxCount {
		stateCount[1]++
		i++
	}
	if i == maxI || stateCount[1] > maxCount {
		return math.NaN()
	}
	for i < maxI && !f.image.Get(centerJ, i) && stateCount[2] <= maxCount {
		stateCount[2]++
		i++
	}
	if stateCount[2] > maxCount {
		return math.NaN()
	}

	total := stateCount[0] + stateCount[1] + stateCount[2]
	if 5*abs(total-originalTotal) >= 2*originalTotal {
		return math.NaN()
	}
	if !f.foundPatternCross(stateCount) {
		return math.NaN()
	}
	return alignmentCenterFromEnd(stateCount, i)
}
