package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	// PointSize is the length of a compressed group element
	PointSize = 33
	// ScalarSize is the length of a serialized scalar
	ScalarSize = 32
)

// Error types
var (
	ErrInvalidPoint  = errors.New("invalid group element")
	ErrInvalidScalar = errors.New("invalid scalar")
)

// Scalar is an integer modulo the secp256k1 group order.
type Scalar = secp256k1.ModNScalar

// Point is an element of the secp256k1 group. The zero value is the identity.
//
// Non-identity points are always kept in affine form so that comparisons and
// encodings do not need to normalize again.
type Point struct {
	j secp256k1.JacobianPoint
}

// Generator returns the group generator g
func Generator() Point {
	var one Scalar
	one.SetInt(1)
	return BaseMul(&one)
}

// BaseMul computes g^k
func BaseMul(k *Scalar) Point {
	var r Point
	secp256k1.ScalarBaseMultNonConst(k, &r.j)
	r.normalize()
	return r
}

// PointFromPublicKey converts a parsed secp256k1 public key
func PointFromPublicKey(pk *secp256k1.PublicKey) Point {
	var p Point
	pk.AsJacobian(&p.j)
	p.normalize()
	return p
}

// PointFromBytes decodes a compressed point. 33 zero bytes decode to the identity.
func PointFromBytes(b []byte) (Point, error) {
	var p Point
	if len(b) != PointSize {
		return p, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPoint, PointSize, len(b))
	}
	if isZeroBytes(b) {
		return p, nil
	}
	pk, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return PointFromPublicKey(pk), nil
}

// Mul computes p^k
func (p Point) Mul(k *Scalar) Point {
	var r Point
	if p.IsIdentity() || k.IsZero() {
		return r
	}
	secp256k1.ScalarMultNonConst(k, &p.j, &r.j)
	r.normalize()
	return r
}

// Add computes the group operation p*q
func (p Point) Add(q Point) Point {
	var r Point
	switch {
	case p.IsIdentity():
		return q
	case q.IsIdentity():
		return p
	}
	secp256k1.AddNonConst(&p.j, &q.j, &r.j)
	r.normalize()
	return r
}

// Neg returns the inverse element p^-1
func (p Point) Neg() Point {
	if p.IsIdentity() {
		return p
	}
	r := p
	r.j.Y.Negate(1).Normalize()
	return r
}

// IsIdentity reports whether p is the group identity
func (p Point) IsIdentity() bool {
	return p.j.Z.IsZero() || (p.j.X.IsZero() && p.j.Y.IsZero())
}

// Equal reports whether p and q are the same group element
func (p Point) Equal(q Point) bool {
	pi, qi := p.IsIdentity(), q.IsIdentity()
	if pi || qi {
		return pi == qi
	}
	return p.j.X.Equals(&q.j.X) && p.j.Y.Equals(&q.j.Y)
}

// Bytes returns the compressed encoding of p
func (p Point) Bytes() []byte {
	if p.IsIdentity() {
		return make([]byte, PointSize)
	}
	return secp256k1.NewPublicKey(&p.j.X, &p.j.Y).SerializeCompressed()
}

// String returns the hex encoding of p
func (p Point) String() string {
	return hex.EncodeToString(p.Bytes())
}

func (p *Point) normalize() {
	p.j.X.Normalize()
	p.j.Y.Normalize()
	p.j.Z.Normalize()
	if p.IsIdentity() {
		p.j = secp256k1.JacobianPoint{}
		return
	}
	p.j.ToAffine()
}

// RandomScalar draws a uniformly random non-zero scalar from r
func RandomScalar(r io.Reader) (*Scalar, error) {
	var buf [ScalarSize]byte
	defer zeroBytes(buf[:])

	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("failed to read randomness: %w", err)
		}
		var k Scalar
		if overflow := k.SetBytes(&buf); overflow == 0 && !k.IsZero() {
			return &k, nil
		}
	}
}

// ScalarFromBytes decodes a 32-byte big-endian scalar that must be below the group order
func ScalarFromBytes(b []byte) (*Scalar, error) {
	if len(b) != ScalarSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidScalar, ScalarSize, len(b))
	}
	var buf [ScalarSize]byte
	copy(buf[:], b)
	var k Scalar
	if overflow := k.SetBytes(&buf); overflow != 0 {
		return nil, fmt.Errorf("%w: value exceeds group order", ErrInvalidScalar)
	}
	return &k, nil
}

// ScalarBytes returns the 32-byte big-endian encoding of k
func ScalarBytes(k *Scalar) []byte {
	b := k.Bytes()
	return b[:]
}

func isZeroBytes(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
