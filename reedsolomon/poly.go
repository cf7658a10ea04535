package reedsolomon

// Poly is an immutable polynomial with coefficients in a Field, stored
// highest degree first with no leading zeros (except the zero polynomial).
type Poly struct {
	field        *Field
	coefficients []int
}

func newPoly(field *Field, coefficients []int) *Poly {
	if len(coefficients) == 0 {
		panic("reedsolomon: empty coefficients")
	}
	if len(coefficients) > 1 && coefficients[0] == 0 {
		first := 1
		for first < len(coefficients) && coefficients[first] == 0 {
			first++
		}
		if first == len(coefficients) {
			coefficients = []int{0}
		} else {
			coefficients = append([]int(nil), coefficients[first:]...)
		}
	}
	return &Poly{field: field, coefficients: coefficients}
}

// Coefficients returns the coefficients, highest degree first. The slice
// must not be modified.
func (p *Poly) Coefficients() []int {
	return p.coefficients
}

// Degree returns the degree of this polynomial.
func (p *Poly) Degree() int {
	return len(p.coefficients) - 1
}

// IsZero returns true if this is the zero polynomial.
func (p *Poly) IsZero() bool {
	return p.coefficients[0] == 0
}

// Coefficient returns the coefficient of x^degree.
func (p *Poly) Coefficient(degree int) int {
	return p.coefficients[len(p.coefficients)-1-degree]
}

// EvaluateAt evaluates the polynomial at a using Horner's rule.
func (p *Poly) EvaluateAt(a int) int {
	if a == 0 {
		return p.Coefficient(0)
	}
	if a == 1 {
		result := 0
		for _, c := range p.coefficients {
			result = addOrSubtract(result, c)
		}
		return result
	}
	result := p.coefficients[0]
	for _, c := range p.coefficients[1:] {
		result = addOrSubtract(p.field.Multiply(a, result), c)
	}
	return result
}

// Add returns p + other.
func (p *Poly) Add(other *Poly) *Poly {
	if p.IsZero() {
		return other
	}
	if other.IsZero() {
		return p
	}
	smaller, larger := p.coefficients, other.coefficients
	if len(smaller) > len(larger) {
		smaller, larger = larger, smaller
	}
	sum := make([]int, len(larger))
	diff := len(larger) - len(smaller)
	copy(sum, larger[:diff])
	for i := diff; i < len(larger); i++ {
		sum[i] = addOrSubtract(smaller[i-diff], larger[i])
	}
	return newPoly(p.field, sum)
}

// Multiply returns p * other.
func (p *Poly) Multiply(other *Poly) *Poly {
	if p.IsZero() || other.IsZero() {
		return p.field.Zero()
	}
	product := make([]int, len(p.coefficients)+len(other.coefficients)-1)
	for i, a := range p.coefficients {
		for j, b := range other.coefficients {
			product[i+j] = addOrSubtract(product[i+j], p.field.Multiply(a, b))
		}
	}
	return newPoly(p.field, product)
}

// Scale returns p * scalar.
func (p *Poly) Scale(scalar int) *Poly {
	if scalar == 0 {
		return p.field.Zero()
	}
	if scalar == 1 {
		return p
	}
	product := make([]int, len(p.coefficients))
	for i, c := range p.coefficients {
		product[i] = p.field.Multiply(c, scalar)
	}
	return newPoly(p.field, product)
}

// MultiplyByMonomial returns p * coefficient * x^degree.
func (p *Poly) MultiplyByMonomial(degree, coefficient int) *Poly {
	if degree < 0 {
		panic("reedsolomon: negative degree")
	}
	if coefficient == 0 {
		return p.field.Zero()
	}
	product := make([]int, len(p.coefficients)+degree)
	for i, c := range p.coefficients {
		product[i] = p.field.Multiply(c, coefficient)
	}
	return newPoly(p.field, product)
}

// Divide returns the quotient and remainder of p / other.
func (p *Poly) Divide(other *Poly) (quotient, remainder *Poly) {
	if other.IsZero() {
		panic("reedsolomon: divide by zero")
	}
	quotient = p.field.Zero()
	remainder = p
	inverseLeading := p.field.Inverse(other.Coefficient(other.Degree()))
	for remainder.Degree() >= other.Degree() && !remainder.IsZero() {
		degreeDiff := remainder.Degree() - other.Degree()
		scale := p.field.Multiply(remainder.Coefficient(remainder.Degree()), inverseLeading)
		quotient = quotient.Add(p.field.Monomial(degreeDiff, scale))
		remainder = remainder.Add(other.MultiplyByMonomial(degreeDiff, scale))
	}
	return quotient, remainder
}
