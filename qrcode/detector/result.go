package detector

import (
	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/bitutil"
	"github.com/ericlevine/qrcodec/transform"
)

// DetectorResult is a sampled symbol and where it was found.
type DetectorResult struct {
	// Bits is the sampled module matrix, one bit per module.
	Bits *bitutil.BitMatrix
	// Points holds the bottom-left, top-left and top-right finder
	// centers, then the alignment center when there is one.
	Points     []qrcodec.ResultPoint
	ModuleSize float64
	// Transform maps module space onto the image.
	Transform *transform.PerspectiveTransform
}
