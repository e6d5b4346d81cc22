package crypto

import (
	"io"
)

// Schnorr proof of knowledge of x such that h = g^x.
//
// Prover:    a = g^r, z = r + e*x
// Simulator: z random, a = g^z * h^-e
// Verifier:  recompute a from (e, z) and compare the Fiat-Shamir challenge

// DLogCommit draws a fresh nonce r and returns it together with a = g^r
func DLogCommit(rnd io.Reader) (*Scalar, Point, error) {
	r, err := RandomScalar(rnd)
	if err != nil {
		return nil, Point{}, err
	}
	return r, BaseMul(r), nil
}

// Respond computes the sigma response z = r + e*x
func Respond(r, x *Scalar, e Challenge) *Scalar {
	var z Scalar
	z.Mul2(e.Scalar(), x).Add(r)
	return &z
}

// DLogSimulate produces a transcript for h with the chosen challenge e
func DLogSimulate(rnd io.Reader, h Point, e Challenge) (Point, *Scalar, error) {
	z, err := RandomScalar(rnd)
	if err != nil {
		return Point{}, nil, err
	}
	return DLogCommitment(h, e, z), z, nil
}

// DLogCommitment recomputes the first message a = g^z * h^-e
func DLogCommitment(h Point, e Challenge, z *Scalar) Point {
	var negE Scalar
	negE.NegateVal(e.Scalar())
	return BaseMul(z).Add(h.Mul(&negE))
}
