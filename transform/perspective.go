// Package transform maps module coordinates of a symbol to image
// coordinates and samples the binarized image on that grid.
package transform

// PerspectiveTransform is a 2D projective transform. A point (x, y) is the
// row vector (x, y, 1) multiplied by m, then divided by the third
// component.
type PerspectiveTransform struct {
	m [3][3]float64
}

// QuadrilateralToQuadrilateral returns the transform taking the first
// four points to the second four, point for point.
func QuadrilateralToQuadrilateral(
	x0, y0, x1, y1, x2, y2, x3, y3 float64,
	x0p, y0p, x1p, y1p, x2p, y2p, x3p, y3p float64,
) *PerspectiveTransform {
	toSquare := QuadrilateralToSquare(x0, y0, x1, y1, x2, y2, x3, y3)
	fromSquare := SquareToQuadrilateral(x0p, y0p, x1p, y1p, x2p, y2p, x3p, y3p)
	return fromSquare.Times(toSquare)
}

// Transform maps a single point.
func (pt *PerspectiveTransform) Transform(x, y float64) (float64, float64) {
	m := &pt.m
	w := m[0][2]*x + m[1][2]*y + m[2][2]
	return (m[0][0]*x + m[1][0]*y + m[2][0]) / w,
		(m[0][1]*x + m[1][1]*y + m[2][1]) / w
}

// TransformPoints maps (x, y) pairs in place: [x0, y0, x1, y1, ...]. A
// trailing odd value is left alone.
func (pt *PerspectiveTransform) TransformPoints(points []float64) {
	for i := 0; i+1 < len(points); i += 2 {
		points[i], points[i+1] = pt.Transform(points[i], points[i+1])
	}
}

// Inverse returns the transform mapping outputs back to inputs,
// normalized so the bottom-right entry is 1 when possible.
func (pt *PerspectiveTransform) Inverse() *PerspectiveTransform {
	inv := pt.adjugate()
	if w := inv.m[2][2]; w != 0 {
		for i := range inv.m {
			for j := range inv.m[i] {
				inv.m[i][j] /= w
			}
		}
	}
	return inv
}

// SquareToQuadrilateral maps the unit square corners (0,0), (1,0), (1,1)
// and (0,1) to the four given points in that order.
func SquareToQuadrilateral(x0, y0, x1, y1, x2, y2, x3, y3 float64) *PerspectiveTransform {
	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3
	if dx3 == 0 && dy3 == 0 {
		// Parallelogram: the transform is affine.
		return &PerspectiveTransform{m: [3][3]float64{
			{x1 - x0, y1 - y0, 0},
			{x2 - x1, y2 - y1, 0},
			{x0, y0, 1},
		}}
	}
	dx1, dy1 := x1-x2, y1-y2
	dx2, dy2 := x3-x2, y3-y2
	det := dx1*dy2 - dx2*dy1
	g := (dx3*dy2 - dx2*dy3) / det
	h := (dx1*dy3 - dx3*dy1) / det
	return &PerspectiveTransform{m: [3][3]float64{
		{x1 - x0 + g*x1, y1 - y0 + g*y1, g},
		{x3 - x0 + h*x3, y3 - y0 + h*y3, h},
		{x0, y0, 1},
	}}
}

// QuadrilateralToSquare is the inverse of SquareToQuadrilateral, up to
// scale.
func QuadrilateralToSquare(x0, y0, x1, y1, x2, y2, x3, y3 float64) *PerspectiveTransform {
	return SquareToQuadrilateral(x0, y0, x1, y1, x2, y2, x3, y3).adjugate()
}

// adjugate inverts the transform up to a scale factor, which projective
// coordinates ignore.
func (pt *PerspectiveTransform) adjugate() *PerspectiveTransform {
	m := &pt.m
	adj := &PerspectiveTransform{}
	for i := 0; i < 3; i++ {
		i1, i2 := (i+1)%3, (i+2)%3
		for j := 0; j < 3; j++ {
			j1, j2 := (j+1)%3, (j+2)%3
			adj.m[i][j] = m[j1][i1]*m[j2][i2] - m[j1][i2]*m[j2][i1]
		}
	}
	return adj
}

// Times returns the transform applying other first, then pt.
func (pt *PerspectiveTransform) Times(other *PerspectiveTransform) *PerspectiveTransform {
	product := &PerspectiveTransform{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				product.m[i][j] += other.m[i][k] * pt.m[k][j]
			}
		}
	}
	return product
}
