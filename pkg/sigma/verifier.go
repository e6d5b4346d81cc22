package sigma

import (
	"crypto/subtle"

	"ergoprover/pkg/crypto"
)

// Verify checks proof for prop bound to message. It recomputes every
// commitment from the (challenge, response) pairs carried by the proof, then
// recomputes the Fiat-Shamir challenge and compares it with the root challenge.
//
// Undecodable proofs return ErrMalformedProof; a well-formed proof that does
// not verify returns false with a nil error.
func Verify(prop *Proposition, proof, message []byte) (bool, error) {
	if err := prop.Validate(); err != nil {
		return false, err
	}

	r := &proofReader{buf: proof}
	e, err := r.challenge()
	if err != nil {
		return false, err
	}
	root, err := r.node(prop, e)
	if err != nil {
		return false, err
	}
	if r.off != len(r.buf) {
		return false, malformedProof("%d trailing bytes", len(r.buf)-r.off)
	}

	expected, err := fiatShamirChallenge(root, message)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(e[:], expected[:]) == 1, nil
}

type proofReader struct {
	buf []byte
	off int
}

func (r *proofReader) take(n int) ([]byte, error) {
	if n > len(r.buf)-r.off {
		return nil, malformedProof("unexpected end of proof at offset %d", r.off)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *proofReader) challenge() (crypto.Challenge, error) {
	var e crypto.Challenge
	b, err := r.take(crypto.ChallengeSize)
	if err != nil {
		return e, err
	}
	copy(e[:], b)
	return e, nil
}

func (r *proofReader) scalar() (*crypto.Scalar, error) {
	b, err := r.take(crypto.ScalarSize)
	if err != nil {
		return nil, err
	}
	z, err := crypto.ScalarFromBytes(b)
	if err != nil {
		return nil, malformedProof("%v", err)
	}
	return z, nil
}

// node rebuilds the transcript of p under challenge e
func (r *proofReader) node(p *Proposition, e crypto.Challenge) (*Node, error) {
	n := &Node{prop: p, challenge: e}
	var err error

	switch p.kind {
	case KindDLog:
		if n.z, err = r.scalar(); err != nil {
			return nil, err
		}
		n.a = crypto.DLogCommitment(p.pk, e, n.z)
		return n, nil

	case KindDHTuple:
		if n.z, err = r.scalar(); err != nil {
			return nil, err
		}
		n.a, n.b = crypto.DHTupleCommitment(p.tuple, e, n.z)
		return n, nil
	}

	n.children = make([]*Node, len(p.children))
	switch p.kind {
	case KindAnd:
		for i, c := range p.children {
			if n.children[i], err = r.node(c, e); err != nil {
				return nil, err
			}
		}

	case KindOr:
		acc := e
		last := len(p.children) - 1
		for i, c := range p.children[:last] {
			ce, err := r.challenge()
			if err != nil {
				return nil, err
			}
			acc = acc.Xor(ce)
			if n.children[i], err = r.node(c, ce); err != nil {
				return nil, err
			}
		}
		if n.children[last], err = r.node(p.children[last], acc); err != nil {
			return nil, err
		}

	case KindThreshold:
		coeffs := make([]crypto.Challenge, len(p.children)-p.k)
		for i := range coeffs {
			if coeffs[i], err = r.challenge(); err != nil {
				return nil, err
			}
		}
		n.poly = crypto.PolyFromCoefficients(e, coeffs)
		for i, c := range p.children {
			if n.children[i], err = r.node(c, n.poly.Eval(byte(i+1))); err != nil {
				return nil, err
			}
		}
	}
	return n, nil
}
