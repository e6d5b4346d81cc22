package sigma

import (
	"ergoprover/pkg/cost"
	"ergoprover/pkg/crypto"
)

// KnownSecrets answers whether a secret for an atomic statement is available
type KnownSecrets interface {
	HasSecretFor(leaf *Proposition) bool
}

// Node is a proposition node annotated with its proof obligation. Real nodes
// are proved with secrets, simulated nodes are produced without any.
//
// The transcript fields are filled in while proving or verifying.
type Node struct {
	prop     *Proposition
	real     bool
	children []*Node

	challenge crypto.Challenge
	nonce     *crypto.Scalar
	a, b      crypto.Point
	z         *crypto.Scalar
	poly      *crypto.Poly
}

// Proposition returns the annotated proposition node
func (n *Node) Proposition() *Proposition {
	return n.prop
}

// Real reports whether the node is proved with a secret
func (n *Node) Real() bool {
	return n.real
}

// Children returns the annotated children
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Reduce marks every node of prop as real or simulated given the available
// secrets. Or picks the lowest-index satisfiable child and Threshold the k
// lowest-index satisfiable children; everything else is simulated along with
// its whole subtree. Every visited node is charged to meter, which may be nil.
func Reduce(prop *Proposition, known KnownSecrets, meter *cost.Interpreter) (*Node, error) {
	if err := prop.Validate(); err != nil {
		return nil, err
	}
	root, err := reduce(prop, known, meter)
	if err != nil {
		return nil, err
	}
	if !root.real {
		return nil, ErrUnsatisfiable
	}
	return root, nil
}

func reduce(p *Proposition, known KnownSecrets, meter *cost.Interpreter) (*Node, error) {
	if meter != nil {
		if err := meter.Charge(meter.Table().ReductionNodeCost); err != nil {
			return nil, err
		}
	}

	n := &Node{prop: p}
	if p.kind.IsLeaf() {
		n.real = known.HasSecretFor(p)
		return n, nil
	}

	n.children = make([]*Node, len(p.children))
	satisfiable := 0
	for i, c := range p.children {
		child, err := reduce(c, known, meter)
		if err != nil {
			return nil, err
		}
		n.children[i] = child
		if child.real {
			satisfiable++
		}
	}

	var need int
	switch p.kind {
	case KindAnd:
		need = len(p.children)
	case KindOr:
		need = 1
	case KindThreshold:
		need = p.k
	}

	if satisfiable < need {
		n.simulate()
		return n, nil
	}

	// Keep the first `need` real children, simulate the rest
	n.real = true
	kept := 0
	for _, c := range n.children {
		if !c.real {
			continue
		}
		if kept < need {
			kept++
			continue
		}
		c.simulate()
	}
	return n, nil
}

func (n *Node) simulate() {
	n.real = false
	for _, c := range n.children {
		c.simulate()
	}
}

// clone copies the annotation tree without transcript data
func (n *Node) clone() *Node {
	out := &Node{prop: n.prop, real: n.real}
	if len(n.children) > 0 {
		out.children = make([]*Node, len(n.children))
		for i, c := range n.children {
			out.children[i] = c.clone()
		}
	}
	return out
}
