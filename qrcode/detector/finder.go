package detector

import (
	"math"
	"sort"

	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/bitutil"
)

const (
	// maxModules bounds the row step so a version 20 symbol filling the
	// image still gets three rows through each finder center.
	maxModules = 97
	minSkip    = 3

	// maxCandidates caps the triple enumeration on noisy images.
	maxCandidates = 48

	moduleSizeTolerance = 0.4
	armTolerance        = 0.25
	angleTolerance      = 15.0
)

// FinderPattern is a confirmed candidate for one of the three corner
// patterns. Count is the number of scan lines that confirmed it.
type FinderPattern struct {
	X, Y       float64
	ModuleSize float64
	Count      int
}

// Point returns the pattern center.
func (fp *FinderPattern) Point() qrcodec.ResultPoint {
	return qrcodec.ResultPoint{X: fp.X, Y: fp.Y}
}

// AboutEquals reports whether a pattern seen at (i, j) with the given
// module size is the same pattern: the center within one module and the
// module sizes within a module of each other.
func (fp *FinderPattern) AboutEquals(moduleSize, i, j float64) bool {
	if math.Abs(i-fp.Y) <= moduleSize && math.Abs(j-fp.X) <= moduleSize {
		moduleSizeDiff := math.Abs(moduleSize - fp.ModuleSize)
		return moduleSizeDiff <= 1.0 || moduleSizeDiff <= fp.ModuleSize
	}
	return false
}

func (fp *FinderPattern) combineEstimate(i, j, newModuleSize float64) *FinderPattern {
	combinedCount := fp.Count + 1
	n := float64(fp.Count)
	return &FinderPattern{
		X:          (n*fp.X + j) / float64(combinedCount),
		Y:          (n*fp.Y + i) / float64(combinedCount),
		ModuleSize: (n*fp.ModuleSize + newModuleSize) / float64(combinedCount),
		Count:      combinedCount,
	}
}

// FinderPatternInfo is an ordered finder triple.
type FinderPatternInfo struct {
	BottomLeft, TopLeft, TopRight *FinderPattern
}

// FindFinderPatterns scans image for 1:1:3:1:1 runs, confirms each
// candidate vertically, horizontally and diagonally, and returns the
// best consistent triple ordered as bottom-left, top-left, top-right.
func FindFinderPatterns(image *bitutil.BitMatrix, opts *Options) (*FinderPatternInfo, error) {
	f := &finderPatternFinder{image: image}
	candidates := f.find(opts.pure() || opts.tryHarder())
	opts.logger().Debug("finder candidates", "count", len(candidates))
	return selectBestTriple(candidates)
}

type finderPatternFinder struct {
	image           *bitutil.BitMatrix
	possibleCenters []*FinderPattern
}

func (f *finderPatternFinder) find(everyRow bool) []*FinderPattern {
	height := f.image.Height()
	width := f.image.Width()

	skip := (3 * height) / (4 * maxModules)
	if skip < minSkip {
		skip = minSkip
	}
	if everyRow {
		skip = 1
	}

	for y := skip - 1; y < height; y += skip {
		var stateCount [5]int
		state := 0
		for x := 0; x < width; x++ {
			if f.image.Get(x, y) {
				if state&1 == 1 {
					state++
				}
				stateCount[state]++
				continue
			}
			if state&1 == 1 {
				stateCount[state]++
				continue
			}
			if state != 4 {
				state++
				stateCount[state]++
				continue
			}
			if foundFinderPattern(stateCount) {
				f.handlePossibleCenter(stateCount, y, x)
			}
			stateCount = [5]int{stateCount[2], stateCount[3], stateCount[4], 1, 0}
			state = 3
		}
		if state == 4 && foundFinderPattern(stateCount) {
			f.handlePossibleCenter(stateCount, y, width)
		}
	}
	return f.possibleCenters
}

// foundFinderPattern checks run lengths against 1:1:3:1:1 with a 50%
// per-module variance.
func foundFinderPattern(stateCount [5]int) bool {
	total := 0
	for _, count := range stateCount {
		if count == 0 {
			return false
		}
		total += count
	}
	if total < 7 {
		return false
	}
	moduleSize := float64(total) / 7.0
	maxVariance := moduleSize / 2.0
	return math.Abs(moduleSize-float64(stateCount[0])) < maxVariance &&
		math.Abs(moduleSize-float64(stateCount[1])) < maxVariance &&
		math.Abs(3*moduleSize-float64(stateCount[2])) < 3*maxVariance &&
		math.Abs(moduleSize-float64(stateCount[3])) < maxVariance &&
		math.Abs(moduleSize-float64(stateCount[4])) < maxVariance
}

// foundPatternDiagonal is foundFinderPattern with a 75% variance, since
// diagonal runs are quantized more coarsely.
func foundPatternDiagonal(stateCount [5]int) bool {
	total := 0
	for _, count := range stateCount {
		if count == 0 {
			return false
		}
		total += count
	}
	if total < 7 {
		return false
	}
	moduleSize := float64(total) / 7.0
	maxVariance := moduleSize / 1.333
	return math.Abs(moduleSize-float64(stateCount[0])) < maxVariance &&
		math.Abs(moduleSize-float64(stateCount[1])) < maxVariance &&
		math.Abs(3*moduleSize-float64(stateCount[2])) < 3*maxVariance &&
		math.Abs(moduleSize-float64(stateCount[3])) < maxVariance &&
		math.Abs(moduleSize-float64(stateCount[4])) < maxVariance
}

func centerFromEnd(stateCount [5]int, end int) float64 {
	return float64(end-stateCount[4]-stateCount[3]) - float64(stateCount[2])/2.0
}

func (f *finderPatternFinder) handlePossibleCenter(stateCount [5]int, i, j int) bool {
	total := stateCount[0] + stateCount[1] + stateCount[2] + stateCount[3] + stateCount[4]
	centerJ := centerFromEnd(stateCount, j)
	centerI := f.crossCheckVertical(i, int(centerJ), stateCount[2], total)
	if math.IsNaN(centerI) {
		return false
	}
	centerJ = f.crossCheckHorizontal(int(centerJ), int(centerI), stateCount[2], total)
	if math.IsNaN(centerJ) || !f.crossCheckDiagonal(int(centerI), int(centerJ)) {
		return false
	}

	estModuleSize := float64(total) / 7.0
	for idx, center := range f.possibleCenters {
		if center.AboutEquals(estModuleSize, centerI, centerJ) {
			f.possibleCenters[idx] = center.combineEstimate(centerI, centerJ, estModuleSize)
			return true
		}
	}
	f.possibleCenters = append(f.possibleCenters, &FinderPattern{
		X: centerJ, Y: centerI, ModuleSize: estModuleSize, Count: 1,
	})
	return true
}

// crossCheckVertical counts the runs up and down column centerJ from
// startI and returns the vertical center, or NaN when they are not a
// finder pattern of about the same size.
func (f *finderPatternFinder) crossCheckVertical(startI, centerJ, maxCount, originalTotal int) float64 {
	maxI := f.image.Height()
	var stateCount [5]int

	i := startI
	for i >= 0 && f.image.Get(centerJ, i) {
		stateCount[2]++
		i--
	}
	if i < 0 {
		return math.NaN()
	}
	for i >= 0 && !f.image.Get(centerJ, i) && stateCount[1] <= maxCount {
		stateCount[1]++
		i--
	}
	if i < 0 || stateCount[1] > maxCount {
		return math.NaN()
	}
	for i >= 0 && f.image.Get(centerJ, i) && stateCount[0] <= maxCount {
		stateCount[0]++
		i--
	}
	if stateCount[0] > maxCount {
		return math.NaN()
	}

	i = startI + 1
	for i < maxI && f.image.Get(centerJ, i) {
		stateCount[2]++
		i++
	}
	if i == maxI {
		return math.NaN()
	}
	for i < maxI && !f.image.Get(centerJ, i) && stateCount[3] <= maxCount {
		stateCount[3]++
		i++
	}
	if i == maxI || stateCount[3] > maxCount {
		return math.NaN()
	}
	for i < maxI && f.image.Get(centerJ, i) && stateCount[4] <= maxCount {
		stateCount[4]++
		i++
	}
	if stateCount[4] > maxCount {
		return math.NaN()
	}

	total := stateCount[0] + stateCount[1] + stateCount[2] + stateCount[3] + stateCount[4]
	if 5*abs(total-originalTotal) >= 2*originalTotal {
		return math.NaN()
	}
	if !foundFinderPattern(stateCount) {
		return math.NaN()
	}
	return centerFromEnd(stateCount, i)
}

// crossCheckHorizontal is crossCheckVertical along row centerI. It
// re-centers the candidate once its vertical center is known.
func (f *finderPatternFinder) crossCheckHorizontal(startJ, centerI, maxCount, originalTotal int) float64 {
	maxJ := f.image.Width()
	var stateCount [5]int

	j := startJ
	for j >= 0 && f.image.Get(j, centerI) {
		stateCount[2]++
		j--
	}
	if j < 0 {
		return math.NaN()
	}
	for j >= 0 && !f.image.Get(j, centerI) && stateCount[1] <= maxCount {
		stateCount[1]++
		j--
	}
	if j < 0 || stateCount[1] > maxCount {
		return math.NaN()
	}
	for j >= 0 && f.image.Get(j, centerI) && stateCount[0] <= maxCount {
		stateCount[0]++
		j--
	}
	if stateCount[0] > maxCount {
		return math.NaN()
	}

	j = startJ + 1
	for j < maxJ && f.image.Get(j, centerI) {
		stateCount[2]++
		j++
	}
	if j == maxJ {
		return math.NaN()
	}
	for j < maxJ && !f.image.Get(j, centerI) && stateCount[3] <= maxCount {
		stateCount[3]++
		j++
	}
	if j == maxJ || stateCount[3] > maxCount {
		return math.NaN()
	}
	for j < maxJ && f.image.Get(j, centerI) && stateCount[4] <= maxCount {
		stateCount[4]++
		j++
	}
	if stateCount[4] > maxCount {
		return math.NaN()
	}

	total := stateCount[0] + stateCount[1] + stateCount[2] + stateCount[3] + stateCount[4]
	if 5*abs(total-originalTotal) >= originalTotal {
		return math.NaN()
	}
	if !foundFinderPattern(stateCount) {
		return math.NaN()
	}
	return centerFromEnd(stateCount, j)
}

// crossCheckDiagonal checks the runs along the down-right diagonal
// through the center. Stripes pass the row and column checks but not
// this one.
func (f *finderPatternFinder) crossCheckDiagonal(centerI, centerJ int) bool {
	var stateCount [5]int
	maxI := f.image.Height()
	maxJ := f.image.Width()

	i := 0
	for centerI >= i && centerJ >= i && f.image.Get(centerJ-i, centerI-i) {
		stateCount[2]++
		i++
	}
	if stateCount[2] == 0 {
		return false
	}
	for centerI >= i && centerJ >= i && !f.image.Get(centerJ-i, centerI-i) {
		stateCount[1]++
		i++
	}
	if stateCount[1] == 0 {
		return false
	}
	for centerI >= i && centerJ >= i && f.image.Get(centerJ-i, centerI-i) {
		stateCount[0]++
		i++
	}
	if stateCount[0] == 0 {
		return false
	}

	i = 1
	for centerI+i < maxI && centerJ+i < maxJ && f.image.Get(centerJ+i, centerI+i) {
		stateCount[2]++
		i++
	}
	for centerI+i < maxI && centerJ+i < maxJ && !f.image.Get(centerJ+i, centerI+i) {
		stateCount[3]++
		i++
	}
	if stateCount[3] == 0 {
		return false
	}
	for centerI+i < maxI && centerJ+i < maxJ && f.image.Get(centerJ+i, centerI+i) {
		stateCount[4]++
		i++
	}
	if stateCount[4] == 0 {
		return false
	}
	return foundPatternDiagonal(stateCount)
}

// selectBestTriple enumerates every 3-subset of the candidates and keeps
// the geometrically plausible ones: module sizes within 40%, arms from
// the corner pattern within 25% of each other, a corner angle within 15
// degrees of square and a legal implied symbol size. The survivor with
// the lowest module size variance wins.
func selectBestTriple(candidates []*FinderPattern) (*FinderPatternInfo, error) {
	if len(candidates) < 3 {
		return nil, qrcodec.NewStageError(qrcodec.StageFinder, qrcodec.ErrNotFound, len(candidates),
			"found %d finder pattern candidates", len(candidates))
	}
	if len(candidates) > maxCandidates {
		candidates = append([]*FinderPattern(nil), candidates...)
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].Count > candidates[b].Count
		})
		candidates = candidates[:maxCandidates]
	}

	var best *FinderPatternInfo
	bestVariance := math.Inf(1)
	n := len(candidates)
	for i := 0; i < n-2; i++ {
		for j := i + 1; j < n-1; j++ {
			for k := j + 1; k < n; k++ {
				triple := [3]*FinderPattern{candidates[i], candidates[j], candidates[k]}
				if !moduleSizesAgree(triple) {
					continue
				}
				info := orderTriple(triple)
				if !plausibleGeometry(info) {
					continue
				}
				if v := moduleSizeVariance(triple); v < bestVariance {
					best = info
					bestVariance = v
				}
			}
		}
	}
	if best == nil {
		return nil, qrcodec.NewStageError(qrcodec.StageFinder, qrcodec.ErrNotFound, len(candidates),
			"no consistent finder triple among %d candidates", len(candidates))
	}
	return best, nil
}

func moduleSizesAgree(triple [3]*FinderPattern) bool {
	minSize := math.Min(triple[0].ModuleSize, math.Min(triple[1].ModuleSize, triple[2].ModuleSize))
	maxSize := math.Max(triple[0].ModuleSize, math.Max(triple[1].ModuleSize, triple[2].ModuleSize))
	return maxSize-minSize <= moduleSizeTolerance*maxSize
}

func moduleSizeVariance(triple [3]*FinderPattern) float64 {
	mean := (triple[0].ModuleSize + triple[1].ModuleSize + triple[2].ModuleSize) / 3.0
	variance := 0.0
	for _, fp := range triple {
		d := fp.ModuleSize - mean
		variance += d * d
	}
	return variance / 3.0
}

// orderTriple orders a triple with qrcodec.OrderBestPatterns.
func orderTriple(triple [3]*FinderPattern) *FinderPatternInfo {
	ordered := qrcodec.OrderBestPatterns([3]qrcodec.ResultPoint{
		triple[0].Point(), triple[1].Point(), triple[2].Point(),
	})
	find := func(p qrcodec.ResultPoint) *FinderPattern {
		for _, fp := range triple {
			if fp.X == p.X && fp.Y == p.Y {
				return fp
			}
		}
		return triple[0]
	}
	return &FinderPatternInfo{
		BottomLeft: find(ordered[0]),
		TopLeft:    find(ordered[1]),
		TopRight:   find(ordered[2]),
	}
}

func plausibleGeometry(info *FinderPatternInfo) bool {
	top := qrcodec.Distance(info.TopLeft.Point(), info.TopRight.Point())
	left := qrcodec.Distance(info.TopLeft.Point(), info.BottomLeft.Point())
	if top == 0 || left == 0 {
		return false
	}
	if math.Abs(top-left) > armTolerance*math.Max(top, left) {
		return false
	}

	dot := (info.TopRight.X-info.TopLeft.X)*(info.BottomLeft.X-info.TopLeft.X) +
		(info.TopRight.Y-info.TopLeft.Y)*(info.BottomLeft.Y-info.TopLeft.Y)
	if math.Abs(dot/(top*left)) > math.Sin(angleTolerance*math.Pi/180) {
		return false
	}

	moduleSize := (info.TopLeft.ModuleSize + info.TopRight.ModuleSize + info.BottomLeft.ModuleSize) / 3.0
	dimension, err := computeDimension(info.TopLeft, info.TopRight, info.BottomLeft, moduleSize)
	return err == nil && dimension >= 21 && dimension <= 177
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
