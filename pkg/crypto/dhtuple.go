package crypto

import (
	"errors"
	"fmt"
	"io"
)

// DHTupleSize is the encoded length of a tuple (four compressed points)
const DHTupleSize = 4 * PointSize

// ErrInvalidTuple is returned for tuples containing the identity
var ErrInvalidTuple = errors.New("invalid Diffie-Hellman tuple")

// DHTuple is a Diffie-Hellman tuple (g, h, u, v). The prover knows x such
// that u = g^x and v = h^x. The proof is a Chaum-Pedersen proof of equal
// discrete logarithms.
type DHTuple struct {
	G Point
	H Point
	U Point
	V Point
}

// NewDHTuple builds the tuple (g, h, g^x, h^x)
func NewDHTuple(g, h Point, x *Scalar) DHTuple {
	return DHTuple{G: g, H: h, U: g.Mul(x), V: h.Mul(x)}
}

// DHTupleFromBytes decodes g || h || u || v
func DHTupleFromBytes(b []byte) (DHTuple, error) {
	var t DHTuple
	if len(b) != DHTupleSize {
		return t, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidTuple, DHTupleSize, len(b))
	}
	points := []*Point{&t.G, &t.H, &t.U, &t.V}
	for i, p := range points {
		pt, err := PointFromBytes(b[i*PointSize : (i+1)*PointSize])
		if err != nil {
			return t, err
		}
		*p = pt
	}
	return t, t.Validate()
}

// Validate rejects tuples with identity elements
func (t DHTuple) Validate() error {
	if t.G.IsIdentity() || t.H.IsIdentity() || t.U.IsIdentity() || t.V.IsIdentity() {
		return ErrInvalidTuple
	}
	return nil
}

// Holds reports whether x is the common discrete logarithm of the tuple
func (t DHTuple) Holds(x *Scalar) bool {
	return t.G.Mul(x).Equal(t.U) && t.H.Mul(x).Equal(t.V)
}

// Equal compares tuples element-wise
func (t DHTuple) Equal(o DHTuple) bool {
	return t.G.Equal(o.G) && t.H.Equal(o.H) && t.U.Equal(o.U) && t.V.Equal(o.V)
}

// Bytes returns g || h || u || v
func (t DHTuple) Bytes() []byte {
	out := make([]byte, 0, DHTupleSize)
	out = append(out, t.G.Bytes()...)
	out = append(out, t.H.Bytes()...)
	out = append(out, t.U.Bytes()...)
	out = append(out, t.V.Bytes()...)
	return out
}

// DHTupleCommit draws a fresh nonce r and returns (r, g^r, h^r)
func DHTupleCommit(rnd io.Reader, t DHTuple) (*Scalar, Point, Point, error) {
	r, err := RandomScalar(rnd)
	if err != nil {
		return nil, Point{}, Point{}, err
	}
	return r, t.G.Mul(r), t.H.Mul(r), nil
}

// DHTupleSimulate produces a transcript for t with the chosen challenge e
func DHTupleSimulate(rnd io.Reader, t DHTuple, e Challenge) (Point, Point, *Scalar, error) {
	z, err := RandomScalar(rnd)
	if err != nil {
		return Point{}, Point{}, nil, err
	}
	a, b := DHTupleCommitment(t, e, z)
	return a, b, z, nil
}

// DHTupleCommitment recomputes (a, b) = (g^z * u^-e, h^z * v^-e)
func DHTupleCommitment(t DHTuple, e Challenge, z *Scalar) (Point, Point) {
	var negE Scalar
	negE.NegateVal(e.Scalar())
	a := t.G.Mul(z).Add(t.U.Mul(&negE))
	b := t.H.Mul(z).Add(t.V.Mul(&negE))
	return a, b
}
