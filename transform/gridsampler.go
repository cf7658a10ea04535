package transform

import (
	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/bitutil"
)

// SampleNeighborhood is the side of the grid of points voted over per
// module. 1 samples the module center only.
const SampleNeighborhood = 3

// SampleSpread is the offset, in modules, of the outer vote points from
// the module center.
const SampleSpread = 0.3

// GridSampler reads one bit per module of a binarized image through a
// perspective transform from module space to image space.
type GridSampler struct {
	// Neighborhood and Spread default to SampleNeighborhood and
	// SampleSpread when zero.
	Neighborhood int
	Spread       float64
}

func (s GridSampler) offsets() []float64 {
	n := s.Neighborhood
	if n <= 0 {
		n = SampleNeighborhood
	}
	spread := s.Spread
	if spread <= 0 {
		spread = SampleSpread
	}
	if n == 1 {
		return []float64{0}
	}
	offsets := make([]float64, n)
	for i := range offsets {
		offsets[i] = -spread + 2*spread*float64(i)/float64(n-1)
	}
	return offsets
}

// SampleGrid maps the four module-space points p* onto the four image
// points q* and samples a dimension x dimension grid.
func (s GridSampler) SampleGrid(image *bitutil.BitMatrix, dimension int,
	p1X, p1Y, p2X, p2Y, p3X, p3Y, p4X, p4Y float64,
	q1X, q1Y, q2X, q2Y, q3X, q3Y, q4X, q4Y float64,
) (*bitutil.BitMatrix, error) {
	transform := QuadrilateralToQuadrilateral(
		p1X, p1Y, p2X, p2Y, p3X, p3Y, p4X, p4Y,
		q1X, q1Y, q2X, q2Y, q3X, q3Y, q4X, q4Y)
	return s.SampleGridTransform(image, dimension, transform)
}

// SampleGridTransform samples every module of a dimension x dimension
// grid. Module (x, y) covers [x, x+1) x [y, y+1) in module space. A
// module is dark when most of its vote points are. Module centers more
// than one pixel outside the image fail with ErrNotFound.
func (s GridSampler) SampleGridTransform(image *bitutil.BitMatrix, dimension int,
	transform *PerspectiveTransform,
) (*bitutil.BitMatrix, error) {
	if dimension <= 0 {
		return nil, qrcodec.NewStageError(qrcodec.StageSampler, qrcodec.ErrNotFound, dimension, "empty grid")
	}
	offsets := s.offsets()
	votes := len(offsets) * len(offsets)
	width, height := image.Width(), image.Height()

	bits := bitutil.NewBitMatrix(dimension)
	centers := make([]float64, 2*dimension)
	for y := 0; y < dimension; y++ {
		cy := float64(y) + 0.5
		for x := 0; x < dimension; x++ {
			centers[2*x] = float64(x) + 0.5
			centers[2*x+1] = cy
		}
		transform.TransformPoints(centers)
		if err := CheckAndNudgePoints(image, centers); err != nil {
			return nil, err
		}
		for x := 0; x < dimension; x++ {
			if votes == 1 {
				if image.Get(clamp(int(centers[2*x]), width), clamp(int(centers[2*x+1]), height)) {
					bits.Set(x, y)
				}
				continue
			}
			dark := 0
			for _, dy := range offsets {
				for _, dx := range offsets {
					ix, iy := transform.Transform(float64(x)+0.5+dx, cy+dy)
					if image.Get(clamp(int(ix), width), clamp(int(iy), height)) {
						dark++
					}
				}
			}
			if 2*dark > votes {
				bits.Set(x, y)
			}
		}
	}
	return bits, nil
}

func clamp(v, size int) int {
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}

// CheckAndNudgePoints checks that transformed points lie in the image.
// Points at most one pixel outside are moved onto the edge; anything
// further out fails with ErrNotFound. Only the runs of points at either
// end of the slice are nudged, since the middle of a row cannot leave
// the image when its ends are inside.
func CheckAndNudgePoints(image *bitutil.BitMatrix, points []float64) error {
	width := image.Width()
	height := image.Height()

	nudge := func(offset int) (bool, error) {
		x := int(points[offset])
		y := int(points[offset+1])
		if x < -1 || x > width || y < -1 || y > height {
			return false, qrcodec.NewStageError(qrcodec.StageSampler, qrcodec.ErrNotFound,
				[2]float64{points[offset], points[offset+1]}, "sample point outside image")
		}
		nudged := false
		if x == -1 {
			points[offset] = 0
			nudged = true
		} else if x == width {
			points[offset] = float64(width - 1)
			nudged = true
		}
		if y == -1 {
			points[offset+1] = 0
			nudged = true
		} else if y == height {
			points[offset+1] = float64(height - 1)
			nudged = true
		}
		return nudged, nil
	}

	nudged := true
	for offset := 0; offset < len(points)-1 && nudged; offset += 2 {
		var err error
		if nudged, err = nudge(offset); err != nil {
			return err
		}
	}
	nudged = true
	for offset := len(points) - 2; offset >= 0 && nudged; offset -= 2 {
		var err error
		if nudged, err = nudge(offset); err != nil {
			return err
		}
	}
	return nil
}
