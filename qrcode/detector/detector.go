// Package detector locates a QR symbol in a binarized image and samples
// it into a module matrix.
package detector

import (
	"log/slog"
	"math"

	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/bitutil"
	"github.com/ericlevine/qrcodec/qrcode/decoder"
	"github.com/ericlevine/qrcodec/transform"
)

// Options tunes detection. The zero value and nil are both valid.
type Options struct {
	// Pure scans every row, for images holding only the symbol.
	Pure bool
	// TryHarder scans every row of arbitrary images.
	TryHarder bool
	// Sampler overrides the sampling neighbourhood.
	Sampler transform.GridSampler
	// Logger receives debug records; nil discards them.
	Logger *slog.Logger
}

var discardLogger = slog.New(slog.DiscardHandler)

func (o *Options) pure() bool      { return o != nil && o.Pure }
func (o *Options) tryHarder() bool { return o != nil && o.TryHarder }

func (o *Options) sampler() transform.GridSampler {
	if o == nil {
		return transform.GridSampler{}
	}
	return o.Sampler
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return discardLogger
	}
	return o.Logger
}

// Detector finds and samples a QR symbol in a binarized image.
type Detector struct {
	image *bitutil.BitMatrix
}

// NewDetector creates a new Detector for the given image.
func NewDetector(image *bitutil.BitMatrix) *Detector {
	return &Detector{image: image}
}

// Detect locates the finder patterns and samples the symbol.
func (d *Detector) Detect(opts *Options) (*DetectorResult, error) {
	info, err := FindFinderPatterns(d.image, opts)
	if err != nil {
		return nil, err
	}
	return d.ProcessFinderPatternInfo(info, opts)
}

// ProcessFinderPatternInfo estimates the module size and dimension from
// an ordered finder triple, finds the alignment pattern, and samples the
// grid. For versions 7 and up the sampled version field may correct the
// dimension, in which case the grid is sampled again.
func (d *Detector) ProcessFinderPatternInfo(info *FinderPatternInfo, opts *Options) (*DetectorResult, error) {
	log := opts.logger()
	topLeft, topRight, bottomLeft := info.TopLeft, info.TopRight, info.BottomLeft
	log.Debug("finder patterns",
		"top_left", topLeft.Point(), "top_right", topRight.Point(), "bottom_left", bottomLeft.Point())

	moduleSize := d.calculateModuleSize(topLeft, topRight, bottomLeft)
	if moduleSize < 1.0 {
		return nil, qrcodec.NewStageError(qrcodec.StageSampler, qrcodec.ErrNotFound, moduleSize,
			"module size %.2f below one pixel", moduleSize)
	}
	dimension, err := computeDimension(topLeft, topRight, bottomLeft, moduleSize)
	if err != nil {
		return nil, err
	}

	result, err := d.sample(info, moduleSize, dimension, opts)
	if err != nil {
		return nil, err
	}
	return d.correctDimension(info, result, opts)
}

// correctDimension checks a grid of version 7 or more against its version
// field and samples again when the two disagree. The field is read from
// the sampled grid first and, when that copy is unreadable because the
// grid itself is misfitted, straight from the image next to the finder
// patterns.
func (d *Detector) correctDimension(info *FinderPatternInfo, result *DetectorResult, opts *Options) (*DetectorResult, error) {
	log := opts.logger()
	dimension := result.Bits.Height()
	provisional := (dimension - 17) / 4
	if provisional < 7 {
		return result, nil
	}

	v, err := decoder.ReadVersionField(result.Bits, false)
	if err != nil {
		v, err = decoder.ReadVersionField(result.Bits, true)
	}
	if err != nil {
		v, err = d.readVersionNearFinders(info)
		if err != nil {
			log.Debug("version field unreadable", "provisional", provisional, "error", err)
			return result, nil
		}
	}
	if v.Number == provisional {
		return result, nil
	}
	log.Debug("version field corrects dimension", "provisional", provisional, "version", v.Number)
	return d.sample(info, result.ModuleSize, v.Dimension(), opts)
}

// readVersionNearFinders decodes one of the two version field copies
// sampled straight from the image. Each 6x3 block is located from the
// center and module size of its neighbouring finder pattern, so the read
// does not depend on the estimated dimension. The bit order matches
// decoder.ReadVersionField, and since the bottom-left copy is read in the
// transposed order a mirrored symbol is covered too.
func (d *Detector) readVersionNearFinders(info *FinderPatternInfo) (*decoder.Version, error) {
	topLeft, topRight, bottomLeft := info.TopLeft, info.TopRight, info.BottomLeft
	ux, uy := unitVector(topRight.X-topLeft.X, topRight.Y-topLeft.Y)
	vx, vy := unitVector(bottomLeft.X-topLeft.X, bottomLeft.Y-topLeft.Y)

	var firstErr error
	for _, near := range []*FinderPattern{topRight, bottomLeft} {
		moduleSize := near.ModuleSize
		versionBits := 0
		for a := 5; a >= 0; a-- {
			for b := -5; b >= -7; b-- {
				// Offsets in modules from the finder center to the module
				// center: the top-right block lies left of its pattern, the
				// bottom-left block above its pattern.
				across, down := float64(b), float64(a-3)
				if near == bottomLeft {
					across, down = down, across
				}
				x := near.X + (across*ux+down*vx)*moduleSize
				y := near.Y + (across*uy+down*vy)*moduleSize
				versionBits <<= 1
				if d.darkAt(x, y) {
					versionBits |= 1
				}
			}
		}
		v, err := decoder.DecodeVersionInformation(versionBits)
		if err == nil {
			return v, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// darkAt reports whether the pixel containing (x, y) is set. Points off
// the image read as light.
func (d *Detector) darkAt(x, y float64) bool {
	px, py := int(math.Floor(x)), int(math.Floor(y))
	if px < 0 || py < 0 || px >= d.image.Width() || py >= d.image.Height() {
		return false
	}
	return d.image.Get(px, py)
}

func unitVector(dx, dy float64) (float64, float64) {
	length := math.Hypot(dx, dy)
	if length == 0 {
		return 0, 0
	}
	return dx / length, dy / length
}

func (d *Detector) sample(info *FinderPatternInfo, moduleSize float64, dimension int, opts *Options) (*DetectorResult, error) {
	version, err := decoder.ProvisionalVersionForDimension(dimension)
	if err != nil {
		return nil, qrcodec.NewStageError(qrcodec.StageSampler, qrcodec.ErrNotFound, dimension,
			"no version has dimension %d", dimension)
	}

	topLeft, topRight, bottomLeft := info.TopLeft, info.TopRight, info.BottomLeft
	var alignment *AlignmentPattern
	if len(version.AlignmentPatternCenters()) > 0 {
		bottomRightX := topRight.X - topLeft.X + bottomLeft.X
		bottomRightY := topRight.Y - topLeft.Y + bottomLeft.Y
		// The alignment center sits three modules in from the fourth
		// finder-center corner.
		correctionToTopLeft := 1.0 - 3.0/float64(dimension-7)
		estX := topLeft.X + correctionToTopLeft*(bottomRightX-topLeft.X)
		estY := topLeft.Y + correctionToTopLeft*(bottomRightY-topLeft.Y)
		alignment, err = FindAlignmentPattern(d.image, moduleSize, estX, estY)
		if err != nil {
			return nil, err
		}
		opts.logger().Debug("alignment pattern", "x", alignment.X, "y", alignment.Y)
	}

	xform := createTransform(topLeft, topRight, bottomLeft, alignment, dimension)
	bits, err := opts.sampler().SampleGridTransform(d.image, dimension, xform)
	if err != nil {
		return nil, err
	}
	opts.logger().Debug("sampled grid", "dimension", dimension, "module_size", moduleSize)

	points := []qrcodec.ResultPoint{bottomLeft.Point(), topLeft.Point(), topRight.Point()}
	if alignment != nil {
		points = append(points, qrcodec.ResultPoint{X: alignment.X, Y: alignment.Y})
	}
	return &DetectorResult{
		Bits:       bits,
		Points:     points,
		ModuleSize: moduleSize,
		Transform:  xform,
	}, nil
}

// computeDimension rounds the two arm lengths to modules and snaps the
// average to the nearest size of the form 4v+17.
func computeDimension(topLeft, topRight, bottomLeft *FinderPattern, moduleSize float64) (int, error) {
	tltrCentersDimension := int(math.Round(qrcodec.Distance(topLeft.Point(), topRight.Point()) / moduleSize))
	tlblCentersDimension := int(math.Round(qrcodec.Distance(topLeft.Point(), bottomLeft.Point()) / moduleSize))
	dimension := (tltrCentersDimension+tlblCentersDimension)/2 + 7
	switch dimension & 0x03 {
	case 0:
		dimension++
	case 2:
		dimension--
	case 3:
		return 0, qrcodec.NewStageError(qrcodec.StageSampler, qrcodec.ErrNotFound, dimension,
			"dimension %d is not a symbol size", dimension)
	}
	return dimension, nil
}

// calculateModuleSize averages the module sizes measured along the arms
// from the top-left pattern to the other two.
func (d *Detector) calculateModuleSize(topLeft, topRight, bottomLeft *FinderPattern) float64 {
	return (d.calculateModuleSizeOneWay(topLeft, topRight) +
		d.calculateModuleSizeOneWay(topLeft, bottomLeft)) / 2.0
}

// calculateModuleSizeOneWay measures the black-white-black run crossing
// each pattern toward the other. A finder pattern is 7 modules across.
func (d *Detector) calculateModuleSizeOneWay(pattern, otherPattern *FinderPattern) float64 {
	moduleSizeEst1 := d.sizeOfBlackWhiteBlackRunBothWays(
		int(pattern.X), int(pattern.Y), int(otherPattern.X), int(otherPattern.Y))
	moduleSizeEst2 := d.sizeOfBlackWhiteBlackRunBothWays(
		int(otherPattern.X), int(otherPattern.Y), int(pattern.X), int(pattern.Y))
	if math.IsNaN(moduleSizeEst1) {
		return moduleSizeEst2 / 7.0
	}
	if math.IsNaN(moduleSizeEst2) {
		return moduleSizeEst1 / 7.0
	}
	return (moduleSizeEst1 + moduleSizeEst2) / 14.0
}

func (d *Detector) sizeOfBlackWhiteBlackRunBothWays(fromX, fromY, toX, toY int) float64 {
	result := d.sizeOfBlackWhiteBlackRun(fromX, fromY, toX, toY)

	// Now in the other direction, clipped to the image.
	scale := 1.0
	otherToX := fromX - (toX - fromX)
	if otherToX < 0 {
		scale = float64(fromX) / float64(fromX-otherToX)
		otherToX = 0
	} else if otherToX >= d.image.Width() {
		scale = float64(d.image.Width()-1-fromX) / float64(otherToX-fromX)
		otherToX = d.image.Width() - 1
	}
	otherToY := int(float64(fromY) - float64(toY-fromY)*scale)

	scale = 1.0
	if otherToY < 0 {
		scale = float64(fromY) / float64(fromY-otherToY)
		otherToY = 0
	} else if otherToY >= d.image.Height() {
		scale = float64(d.image.Height()-1-fromY) / float64(otherToY-fromY)
		otherToY = d.image.Height() - 1
	}
	otherToX = int(float64(fromX) + float64(otherToX-fromX)*scale)

	result += d.sizeOfBlackWhiteBlackRun(fromX, fromY, otherToX, otherToY)
	// The center pixel was counted twice.
	return result - 1.0
}

// sizeOfBlackWhiteBlackRun walks a Bresenham line from the center of a
// finder pattern and returns the distance to the start of the white run
// past its outer black ring, or NaN if the line leaves the image first.
func (d *Detector) sizeOfBlackWhiteBlackRun(fromX, fromY, toX, toY int) float64 {
	steep := abs(toY-fromY) > abs(toX-fromX)
	if steep {
		fromX, fromY = fromY, fromX
		toX, toY = toY, toX
	}

	dx := abs(toX - fromX)
	dy := abs(toY - fromY)
	errTerm := -dx / 2
	xstep := 1
	if fromX > toX {
		xstep = -1
	}
	ystep := 1
	if fromY > toY {
		ystep = -1
	}

	// In black pixels, looking for white, first or second time.
	state := 0
	xLimit := toX + xstep
	for x, y := fromX, fromY; x != xLimit; x += xstep {
		realX, realY := x, y
		if steep {
			realX, realY = y, x
		}
		if realX < 0 || realX >= d.image.Width() || realY < 0 || realY >= d.image.Height() {
			return math.NaN()
		}
		// Does the current pixel match the color this state looks for?
		if (state == 1) == d.image.Get(realX, realY) {
			if state == 2 {
				return math.Hypot(float64(x-fromX), float64(y-fromY))
			}
			state++
		}
		errTerm += dy
		if errTerm > 0 {
			if y == toY {
				break
			}
			y += ystep
			errTerm -= dx
		}
	}
	// Found black-white-black; the run ended at the line's end.
	if state == 2 {
		return math.Hypot(float64(toX+xstep-fromX), float64(toY-fromY))
	}
	return math.NaN()
}

// createTransform maps module space onto the image. The finder centers
// sit at (3.5, 3.5), (dim-3.5, 3.5) and (3.5, dim-3.5); the fourth point
// is the alignment center at (dim-6.5, dim-6.5) or, without one, the
// parallelogram completion of the finder centers.
func createTransform(topLeft, topRight, bottomLeft *FinderPattern, alignment *AlignmentPattern, dimension int) *transform.PerspectiveTransform {
	dimMinusThree := float64(dimension) - 3.5
	var bottomRightX, bottomRightY, sourceBottomRightX, sourceBottomRightY float64
	if alignment != nil {
		bottomRightX = alignment.X
		bottomRightY = alignment.Y
		sourceBottomRightX = dimMinusThree - 3.0
		sourceBottomRightY = sourceBottomRightX
	} else {
		bottomRightX = (topRight.X - topLeft.X) + bottomLeft.X
		bottomRightY = (topRight.Y - topLeft.Y) + bottomLeft.Y
		sourceBottomRightX = dimMinusThree
		sourceBottomRightY = dimMinusThree
	}

	return transform.QuadrilateralToQuadrilateral(
		3.5, 3.5, dimMinusThree, 3.5, sourceBottomRightX, sourceBottomRightY, 3.5, dimMinusThree,
		topLeft.X, topLeft.Y, topRight.X, topRight.Y, bottomRightX, bottomRightY, bottomLeft.X, bottomLeft.Y,
	)
}
