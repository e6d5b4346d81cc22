package crypto

import (
	"fmt"
	"io"
)

// Poly is a polynomial over GF(2^192). Coefficient 0 is the constant term.
//
// Threshold connectives share their challenge among children as evaluations of
// such a polynomial: Q(0) is the parent challenge and child i receives Q(i+1).
type Poly struct {
	coeffs []GF2192
}

// RandomPoly returns a random polynomial of the given degree with Q(0) = constant
func RandomPoly(r io.Reader, degree int, constant Challenge) (*Poly, error) {
	coeffs := make([]GF2192, degree+1)
	coeffs[0] = GF2192FromChallenge(constant)
	for i := 1; i <= degree; i++ {
		c, err := RandomChallenge(r)
		if err != nil {
			return nil, err
		}
		coeffs[i] = GF2192FromChallenge(c)
	}
	return &Poly{coeffs: coeffs}, nil
}

// PolyFromCoefficients rebuilds a polynomial from its constant term and the
// remaining coefficients in increasing degree.
func PolyFromCoefficients(constant Challenge, rest []Challenge) *Poly {
	coeffs := make([]GF2192, len(rest)+1)
	coeffs[0] = GF2192FromChallenge(constant)
	for i, c := range rest {
		coeffs[i+1] = GF2192FromChallenge(c)
	}
	return &Poly{coeffs: coeffs}
}

// Interpolate returns the unique polynomial of degree < len(xs) with Q(xs[i]) = ys[i].
// The product of all (x + xs[m]) is built once and each Lagrange basis
// polynomial is recovered from it by synthetic division, so the work is
// quadratic in the number of points.
func Interpolate(xs []byte, ys []Challenge) (*Poly, error) {
	if len(xs) != len(ys) || len(xs) == 0 {
		return nil, fmt.Errorf("interpolation needs matching non-empty point sets, got %d and %d", len(xs), len(ys))
	}

	n := len(xs)
	points := make([]GF2192, n)
	for i, x := range xs {
		points[i] = GF2192FromByte(x)
	}

	master := []GF2192{GF2192One}
	for _, xm := range points {
		master = mulLinear(master, xm)
	}

	result := make([]GF2192, n)
	basis := make([]GF2192, n)
	for j, xj := range points {
		// master / (x + xj), highest coefficient first
		basis[n-1] = master[n]
		for i := n - 1; i > 0; i-- {
			basis[i-1] = master[i].Add(basis[i].Mul(xj))
		}

		denom := GF2192One
		for m, xm := range points {
			if m != j {
				denom = denom.Mul(xj.Add(xm))
			}
		}
		if denom.IsZero() {
			return nil, ErrDuplicatePoint
		}

		scale := GF2192FromChallenge(ys[j]).Mul(denom.Inverse())
		for i := range basis {
			result[i] = result[i].Add(basis[i].Mul(scale))
		}
	}
	return &Poly{coeffs: result}, nil
}

// Degree returns the formal degree (number of coefficients minus one)
func (p *Poly) Degree() int {
	return len(p.coeffs) - 1
}

// Eval evaluates the polynomial at the field element encoded by x
func (p *Poly) Eval(x byte) Challenge {
	fx := GF2192FromByte(x)
	var acc GF2192
	for i := len(p.coeffs) - 1; i >= 0; i-- {
		acc = acc.Mul(fx).Add(p.coeffs[i])
	}
	return acc.Challenge()
}

// Coefficients returns every coefficient except the constant term
func (p *Poly) Coefficients() []Challenge {
	out := make([]Challenge, 0, len(p.coeffs)-1)
	for _, c := range p.coeffs[1:] {
		out = append(out, c.Challenge())
	}
	return out
}

// mulLinear returns poly * (x + c)
func mulLinear(poly []GF2192, c GF2192) []GF2192 {
	out := make([]GF2192, len(poly)+1)
	for i, a := range poly {
		out[i+1] = out[i+1].Add(a)
		out[i] = out[i].Add(a.Mul(c))
	}
	return out
}
