package encoder

import (
	"strconv"
	"strings"

	"github.com/ericlevine/qrcodec/bitutil"
)

// RenderResult scales a symbol up to at least width x height pixels,
// including quietZone light modules on each side. Each module becomes a
// square of the largest whole pixel size that fits; the symbol is
// centered in the output.
func RenderResult(code *QRCode, width, height, quietZone int) *bitutil.BitMatrix {
	input := code.Matrix
	inputWidth := input.Width()
	inputHeight := input.Height()
	qrWidth := inputWidth + quietZone*2
	qrHeight := inputHeight + quietZone*2
	outputWidth := max(width, qrWidth)
	outputHeight := max(height, qrHeight)

	multiple := min(outputWidth/qrWidth, outputHeight/qrHeight)
	leftPadding := (outputWidth - inputWidth*multiple) / 2
	topPadding := (outputHeight - inputHeight*multiple) / 2

	output := bitutil.NewBitMatrixWithSize(outputWidth, outputHeight)
	for inputY := 0; inputY < inputHeight; inputY++ {
		outputY := topPadding + inputY*multiple
		for inputX := 0; inputX < inputWidth; inputX++ {
			if input.Get(inputX, inputY) {
				output.SetRegion(leftPadding+inputX*multiple, outputY, multiple, multiple)
			}
		}
	}
	return output
}

// String draws the symbol with two characters per module.
func (qr *QRCode) String() string {
	var sb strings.Builder
	sb.WriteString("mode: " + qr.Mode.String())
	sb.WriteString("\necLevel: " + qr.ECLevel.String())
	sb.WriteString("\nversion: " + qr.Version.String())
	sb.WriteString("\nmask: " + strconv.Itoa(int(qr.Mask)))
	sb.WriteString("\nmatrix:\n")
	sb.WriteString(qr.Matrix.StringWithChars("##", "  "))
	return sb.String()
}
