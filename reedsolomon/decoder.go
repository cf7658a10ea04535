package reedsolomon

import (
	qrcodec "github.com/ericlevine/qrcodec"
)

// Decoder corrects errors in Reed-Solomon codewords. It holds no mutable
// state and is safe for concurrent use.
type Decoder struct {
	field *Field
}

// NewDecoder creates a new Decoder for the given field.
func NewDecoder(field *Field) *Decoder {
	return &Decoder{field: field}
}

// Decode corrects received in place and returns the number of codewords it
// changed. twoS is the number of error correction codewords, so up to
// twoS/2 errors can be corrected. When the block holds more errors than
// that, Decode returns an error wrapping qrcodec.ErrUncorrectable and
// leaves received untouched.
func (d *Decoder) Decode(received []int, twoS int) (int, error) {
	syndromes, clean := d.syndromes(received, twoS)
	if clean {
		return 0, nil
	}

	syndrome := newPoly(d.field, syndromes)
	sigma, omega, err := d.runEuclideanAlgorithm(d.field.Monomial(twoS, 1), syndrome, twoS)
	if err != nil {
		return 0, err
	}
	locations, err := d.findErrorLocations(sigma)
	if err != nil {
		return 0, err
	}
	magnitudes := d.findErrorMagnitudes(omega, locations)

	corrected := append([]int(nil), received...)
	for i, loc := range locations {
		position := len(received) - 1 - d.field.Log(loc)
		if position < 0 {
			return 0, uncorrectable(position, "error location outside the block")
		}
		corrected[position] = addOrSubtract(corrected[position], magnitudes[i])
	}
	if _, ok := d.syndromes(corrected, twoS); !ok {
		return 0, uncorrectable(len(locations), "correction did not produce a codeword")
	}
	copy(received, corrected)
	return len(locations), nil
}

// syndromes evaluates the received polynomial at the generator roots. The
// result is ordered highest degree first; clean is true when all are zero.
func (d *Decoder) syndromes(received []int, twoS int) (syndromes []int, clean bool) {
	poly := newPoly(d.field, received)
	syndromes = make([]int, twoS)
	clean = true
	for i := 0; i < twoS; i++ {
		eval := poly.EvaluateAt(d.field.Exp(i + d.field.GeneratorBase()))
		syndromes[twoS-1-i] = eval
		if eval != 0 {
			clean = false
		}
	}
	return syndromes, clean
}

// runEuclideanAlgorithm derives the error locator sigma and error evaluator
// omega from the syndrome polynomial.
func (d *Decoder) runEuclideanAlgorithm(a, b *Poly, R int) (sigma, omega *Poly, err error) {
	if a.Degree() < b.Degree() {
		a, b = b, a
	}
	rLast, r := a, b
	tLast, t := d.field.Zero(), d.field.One()

	for 2*r.Degree() >= R {
		rLastLast, tLastLast := rLast, tLast
		rLast, tLast = r, t
		if rLast.IsZero() {
			return nil, nil, uncorrectable(nil, "euclidean algorithm reached zero remainder")
		}
		r = rLastLast
		q := d.field.Zero()
		inverseLeading := d.field.Inverse(rLast.Coefficient(rLast.Degree()))
		for r.Degree() >= rLast.Degree() && !r.IsZero() {
			degreeDiff := r.Degree() - rLast.Degree()
			scale := d.field.Multiply(r.Coefficient(r.Degree()), inverseLeading)
			q = q.Add(d.field.Monomial(degreeDiff, scale))
			r = r.Add(rLast.MultiplyByMonomial(degreeDiff, scale))
		}
		t = q.Multiply(tLast).Add(tLastLast)
		if r.Degree() >= rLast.Degree() {
			return nil, nil, uncorrectable(r.Degree(), "division failed to reduce degree")
		}
	}

	sigmaAtZero := t.Coefficient(0)
	if sigmaAtZero == 0 {
		return nil, nil, uncorrectable(nil, "error locator has zero constant term")
	}
	inverse := d.field.Inverse(sigmaAtZero)
	return t.Scale(inverse), r.Scale(inverse), nil
}

// findErrorLocations runs a Chien search for the roots of the error locator.
// A locator of degree n must have exactly n distinct roots.
func (d *Decoder) findErrorLocations(locator *Poly) ([]int, error) {
	numErrors := locator.Degree()
	if numErrors == 1 {
		return []int{locator.Coefficient(1)}, nil
	}
	result := make([]int, 0, numErrors)
	for i := 1; i < d.field.Size() && len(result) < numErrors; i++ {
		if locator.EvaluateAt(i) == 0 {
			result = append(result, d.field.Inverse(i))
		}
	}
	if len(result) != numErrors {
		return nil, uncorrectable(numErrors, "error locator degree does not match its %d roots", len(result))
	}
	return result, nil
}

// findErrorMagnitudes applies Forney's formula at each error location.
func (d *Decoder) findErrorMagnitudes(evaluator *Poly, locations []int) []int {
	result := make([]int, len(locations))
	for i := range locations {
		xiInverse := d.field.Inverse(locations[i])
		denominator := 1
		for j := range locations {
			if i == j {
				continue
			}
			term := d.field.Multiply(locations[j], xiInverse)
			// 1 + term
			denominator = d.field.Multiply(denominator, term^1)
		}
		result[i] = d.field.Multiply(evaluator.EvaluateAt(xiInverse), d.field.Inverse(denominator))
		if d.field.GeneratorBase() != 0 {
			result[i] = d.field.Multiply(result[i], xiInverse)
		}
	}
	return result
}

func uncorrectable(value any, format string, args ...any) error {
	return qrcodec.NewStageError(qrcodec.StageReedSolomon, qrcodec.ErrUncorrectable, value, format, args...)
}
