package reedsolomon

import "sync"

// Encoder appends Reed-Solomon error correction codewords. Generator
// polynomials are built on demand and cached; an Encoder is safe for
// concurrent use.
type Encoder struct {
	field      *Field
	mu         sync.Mutex
	generators []*Poly
}

// NewEncoder creates a new Encoder for the given field.
func NewEncoder(field *Field) *Encoder {
	return &Encoder{
		field:      field,
		generators: []*Poly{newPoly(field, []int{1})},
	}
}

// Generator returns the generator polynomial of the given degree,
// prod (x - alpha^(base+i)) for i < degree.
func (e *Encoder) Generator(degree int) *Poly {
	e.mu.Lock()
	defer e.mu.Unlock()
	for d := len(e.generators); d <= degree; d++ {
		last := e.generators[d-1]
		next := last.Multiply(newPoly(e.field, []int{1, e.field.Exp(d - 1 + e.field.GeneratorBase())}))
		e.generators = append(e.generators, next)
	}
	return e.generators[degree]
}

// Encode fills the last ecBytes entries of toEncode with error correction
// codewords computed over the data codewords that precede them.
func (e *Encoder) Encode(toEncode []int, ecBytes int) {
	if ecBytes == 0 {
		panic("reedsolomon: no error correction bytes")
	}
	dataBytes := len(toEncode) - ecBytes
	if dataBytes <= 0 {
		panic("reedsolomon: no data bytes provided")
	}
	info := make([]int, dataBytes)
	copy(info, toEncode[:dataBytes])
	_, remainder := newPoly(e.field, info).MultiplyByMonomial(ecBytes, 1).Divide(e.Generator(ecBytes))
	coefficients := remainder.Coefficients()
	numZero := ecBytes - len(coefficients)
	clear(toEncode[dataBytes : dataBytes+numZero])
	copy(toEncode[dataBytes+numZero:], coefficients)
}
