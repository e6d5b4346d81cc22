package sigma

import (
	"crypto/rand"
	"io"

	"ergoprover/pkg/cost"
	"ergoprover/pkg/crypto"
)

// SecretSource supplies secrets for real leaves. Returned scalars are copies
// owned by the caller, which zeroes them after use.
type SecretSource interface {
	KnownSecrets
	DLogSecret(pk crypto.Point) (*crypto.Scalar, bool)
	DHTupleSecret(t crypto.DHTuple) (*crypto.Scalar, bool)
}

// Prover builds non-interactive proofs for propositions
type Prover struct {
	secrets SecretSource
	rand    io.Reader
}

// NewProver creates a prover drawing nonces from crypto/rand
func NewProver(secrets SecretSource) *Prover {
	return &Prover{secrets: secrets, rand: rand.Reader}
}

// EstimateCost returns the proving cost of prop under table. Threshold nodes
// also pay for interpolation, which is quadratic in their simulated children.
func EstimateCost(prop *Proposition, table cost.Table) int64 {
	switch prop.kind {
	case KindDLog:
		return table.ProveDlogCost
	case KindDHTuple:
		return table.ProveDHTupleCost
	}
	total := table.ConnectiveChildCost * int64(len(prop.children))
	if prop.kind == KindThreshold {
		// Interpolation through (0, e) and the n-k simulated children
		points := int64(len(prop.children) - prop.k + 1)
		total += table.InterpolationCost * points * points
	}
	for _, c := range prop.children {
		total += EstimateCost(c, table)
	}
	return total
}

// Prove reduces prop against the prover's secrets and proves the result
func (p *Prover) Prove(prop *Proposition, message []byte, meter *cost.Interpreter) ([]byte, error) {
	tree, err := Reduce(prop, p.secrets, meter)
	if err != nil {
		return nil, err
	}
	return p.ProveReduced(tree, message, meter)
}

// ProveReduced builds the proof for a reduced tree bound to message. The tree
// itself is left untouched and may be proved again; each call draws fresh
// randomness.
func (p *Prover) ProveReduced(tree *Node, message []byte, meter *cost.Interpreter) ([]byte, error) {
	if tree == nil || !tree.real {
		return nil, provingErr(nil, "root of the reduced tree is not real")
	}
	if meter != nil {
		amount := EstimateCost(tree.prop, meter.Table()) + meter.Table().FiatShamirCost
		if err := meter.Charge(amount); err != nil {
			return nil, err
		}
	}

	root := tree.clone()
	defer root.wipe()

	// Pass 1: fix simulated challenges, commit real leaves, simulate the rest
	if err := p.commit(root); err != nil {
		return nil, err
	}

	e, err := fiatShamirChallenge(root, message)
	if err != nil {
		return nil, provingErr(err, "fiat-shamir")
	}
	root.challenge = e

	// Pass 2: split the root challenge over real nodes and respond
	if err := p.respond(root); err != nil {
		return nil, err
	}

	proof := append([]byte(nil), e[:]...)
	return writeProof(proof, root), nil
}

func (p *Prover) randomChallenge() (crypto.Challenge, error) {
	e, err := crypto.RandomChallenge(p.rand)
	if err != nil {
		return e, provingErr(err, "challenge randomness")
	}
	return e, nil
}

func (p *Prover) commit(n *Node) error {
	var err error
	switch n.prop.kind {
	case KindDLog:
		if n.real {
			n.nonce, n.a, err = crypto.DLogCommit(p.rand)
		} else {
			n.a, n.z, err = crypto.DLogSimulate(p.rand, n.prop.pk, n.challenge)
		}
		if err != nil {
			return provingErr(err, "dlog commitment")
		}
		return nil

	case KindDHTuple:
		if n.real {
			n.nonce, n.a, n.b, err = crypto.DHTupleCommit(p.rand, n.prop.tuple)
		} else {
			n.a, n.b, n.z, err = crypto.DHTupleSimulate(p.rand, n.prop.tuple, n.challenge)
		}
		if err != nil {
			return provingErr(err, "dh tuple commitment")
		}
		return nil

	case KindAnd:
		if !n.real {
			for _, c := range n.children {
				c.challenge = n.challenge
			}
		}

	case KindOr:
		if !n.real {
			// All but the last child get random challenges, the last one the remainder
			acc := n.challenge
			last := len(n.children) - 1
			for _, c := range n.children[:last] {
				if c.challenge, err = p.randomChallenge(); err != nil {
					return err
				}
				acc = acc.Xor(c.challenge)
			}
			n.children[last].challenge = acc
		} else if err := p.randomizeSimulated(n); err != nil {
			return err
		}

	case KindThreshold:
		if !n.real {
			n.poly, err = crypto.RandomPoly(p.rand, len(n.children)-n.prop.k, n.challenge)
			if err != nil {
				return provingErr(err, "threshold polynomial")
			}
			for i, c := range n.children {
				c.challenge = n.poly.Eval(byte(i + 1))
			}
		} else if err := p.randomizeSimulated(n); err != nil {
			return err
		}
	}

	for _, c := range n.children {
		if err := p.commit(c); err != nil {
			return err
		}
	}
	return nil
}

func (p *Prover) randomizeSimulated(n *Node) error {
	for _, c := range n.children {
		if c.real {
			continue
		}
		e, err := p.randomChallenge()
		if err != nil {
			return err
		}
		c.challenge = e
	}
	return nil
}

func (p *Prover) respond(n *Node) error {
	if !n.real {
		return nil
	}

	switch n.prop.kind {
	case KindDLog:
		x, ok := p.secrets.DLogSecret(n.prop.pk)
		if !ok {
			return provingErr(nil, "no secret for %s", n.prop)
		}
		n.z = crypto.Respond(n.nonce, x, n.challenge)
		x.Zero()
		return nil

	case KindDHTuple:
		x, ok := p.secrets.DHTupleSecret(n.prop.tuple)
		if !ok {
			return provingErr(nil, "no secret for %s", n.prop)
		}
		n.z = crypto.Respond(n.nonce, x, n.challenge)
		x.Zero()
		return nil

	case KindAnd:
		for _, c := range n.children {
			c.challenge = n.challenge
		}

	case KindOr:
		acc := n.challenge
		for _, c := range n.children {
			if !c.real {
				acc = acc.Xor(c.challenge)
			}
		}
		for _, c := range n.children {
			if c.real {
				c.challenge = acc
			}
		}

	case KindThreshold:
		// Interpolate through (0, e) and every simulated child, then read off
		// the real children's challenges
		xs := []byte{0}
		ys := []crypto.Challenge{n.challenge}
		for i, c := range n.children {
			if !c.real {
				xs = append(xs, byte(i+1))
				ys = append(ys, c.challenge)
			}
		}
		if len(xs)-1 != len(n.children)-n.prop.k {
			return provingErr(nil, "threshold %d has %d simulated children of %d", n.prop.k, len(xs)-1, len(n.children))
		}
		poly, err := crypto.Interpolate(xs, ys)
		if err != nil {
			return provingErr(err, "threshold interpolation")
		}
		n.poly = poly
		for i, c := range n.children {
			if c.real {
				c.challenge = poly.Eval(byte(i + 1))
			}
		}
	}

	for _, c := range n.children {
		if err := p.respond(c); err != nil {
			return err
		}
	}
	return nil
}

// writeProof appends the per-node proof data in pre-order
func writeProof(buf []byte, n *Node) []byte {
	switch n.prop.kind {
	case KindDLog, KindDHTuple:
		return append(buf, crypto.ScalarBytes(n.z)...)
	case KindOr:
		last := len(n.children) - 1
		for i, c := range n.children {
			if i < last {
				buf = append(buf, c.challenge[:]...)
			}
			buf = writeProof(buf, c)
		}
		return buf
	case KindThreshold:
		for _, c := range n.poly.Coefficients() {
			buf = append(buf, c[:]...)
		}
	}
	for _, c := range n.children {
		buf = writeProof(buf, c)
	}
	return buf
}

// wipe zeroes nonces and responses held by the tree
func (n *Node) wipe() {
	if n.nonce != nil {
		n.nonce.Zero()
	}
	if n.z != nil {
		n.z.Zero()
	}
	for _, c := range n.children {
		c.wipe()
	}
}
