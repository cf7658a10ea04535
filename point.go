package qrcodec

import "math"

// ResultPoint is a point of interest in image coordinates. Y grows downward.
type ResultPoint struct {
	X, Y float64
}

// Distance returns the distance between two points.
func Distance(a, b ResultPoint) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// CrossProductZ computes the z component of the cross product between vectors
// (b-a) and (c-a).
func CrossProductZ(a, b, c ResultPoint) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// OrderBestPatterns orders three finder pattern centers as bottom-left,
// top-left, top-right. Top-left is the point opposite the longest side.
// The other two are told apart by the turn direction: walking from
// top-left to top-right and then to bottom-left is a clockwise turn on
// screen, which is a positive cross product when y grows downward.
func OrderBestPatterns(patterns [3]ResultPoint) [3]ResultPoint {
	d01 := Distance(patterns[0], patterns[1])
	d12 := Distance(patterns[1], patterns[2])
	d02 := Distance(patterns[0], patterns[2])

	var topLeft, b, c ResultPoint
	switch {
	case d12 >= d01 && d12 >= d02:
		topLeft, b, c = patterns[0], patterns[1], patterns[2]
	case d02 >= d01 && d02 >= d12:
		topLeft, b, c = patterns[1], patterns[0], patterns[2]
	default:
		topLeft, b, c = patterns[2], patterns[0], patterns[1]
	}

	// b is top-right when (b - topLeft) x (c - topLeft) > 0.
	if CrossProductZ(topLeft, b, c) < 0 {
		b, c = c, b
	}
	return [3]ResultPoint{c, topLeft, b}
}
