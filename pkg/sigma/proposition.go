package sigma

import (
	"bytes"
	"fmt"
	"strings"

	"ergoprover/pkg/crypto"
)

// Kind identifies a proposition node. The values are the ledger's opcodes for
// the corresponding sigma-protocol statements.
type Kind byte

const (
	KindDLog      Kind = 0xCD
	KindDHTuple   Kind = 0xCE
	KindAnd       Kind = 0x96
	KindOr        Kind = 0x97
	KindThreshold Kind = 0x98
)

const (
	// MaxChildren bounds the fan-out of a connective. Threshold challenges
	// are evaluated at x = 1..n, which must fit in a byte.
	MaxChildren = 255
	// MaxDepth bounds proposition nesting
	MaxDepth = 64
)

func (k Kind) String() string {
	switch k {
	case KindDLog:
		return "proveDlog"
	case KindDHTuple:
		return "proveDHTuple"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindThreshold:
		return "atLeast"
	default:
		return fmt.Sprintf("kind(0x%02x)", byte(k))
	}
}

// IsLeaf reports whether k is an atomic statement
func (k Kind) IsLeaf() bool {
	return k == KindDLog || k == KindDHTuple
}

// Proposition is a spending condition: a tree of AND / OR / threshold
// connectives over discrete-log and Diffie-Hellman tuple statements.
// A Proposition is never modified after construction.
type Proposition struct {
	kind     Kind
	pk       crypto.Point
	tuple    crypto.DHTuple
	k        int
	children []*Proposition
}

// ProveDlog is the statement "I know x such that pk = g^x"
func ProveDlog(pk crypto.Point) *Proposition {
	return &Proposition{kind: KindDLog, pk: pk}
}

// ProveDHTuple is the statement "I know x such that u = g^x and v = h^x"
func ProveDHTuple(t crypto.DHTuple) *Proposition {
	return &Proposition{kind: KindDHTuple, tuple: t}
}

// And requires every child
func And(children ...*Proposition) *Proposition {
	return &Proposition{kind: KindAnd, children: copyChildren(children)}
}

// Or requires at least one child
func Or(children ...*Proposition) *Proposition {
	return &Proposition{kind: KindOr, children: copyChildren(children)}
}

// Threshold requires at least k of the children
func Threshold(k int, children ...*Proposition) *Proposition {
	return &Proposition{kind: KindThreshold, k: k, children: copyChildren(children)}
}

func copyChildren(children []*Proposition) []*Proposition {
	out := make([]*Proposition, len(children))
	copy(out, children)
	return out
}

// Kind returns the node kind
func (p *Proposition) Kind() Kind {
	return p.kind
}

// PublicKey returns the key of a DLog leaf
func (p *Proposition) PublicKey() crypto.Point {
	return p.pk
}

// Tuple returns the tuple of a DHTuple leaf
func (p *Proposition) Tuple() crypto.DHTuple {
	return p.tuple
}

// K returns the threshold of a Threshold node
func (p *Proposition) K() int {
	return p.k
}

// Children returns a copy of the connective's children
func (p *Proposition) Children() []*Proposition {
	return copyChildren(p.children)
}

// Validate checks structural well-formedness of the whole tree
func (p *Proposition) Validate() error {
	return p.validate(1)
}

func (p *Proposition) validate(depth int) error {
	if p == nil {
		return malformedProp("nil node")
	}
	if depth > MaxDepth {
		return malformedProp("nesting deeper than %d", MaxDepth)
	}

	switch p.kind {
	case KindDLog:
		if p.pk.IsIdentity() {
			return malformedProp("public key is the identity")
		}
		return nil
	case KindDHTuple:
		if err := p.tuple.Validate(); err != nil {
			return malformedProp("%v", err)
		}
		return nil
	case KindAnd, KindOr, KindThreshold:
	default:
		return malformedProp("unknown node kind 0x%02x", byte(p.kind))
	}

	n := len(p.children)
	if n == 0 {
		return malformedProp("%s without children", p.kind)
	}
	if n > MaxChildren {
		return malformedProp("%s with %d children, at most %d allowed", p.kind, n, MaxChildren)
	}
	if p.kind == KindThreshold && (p.k < 1 || p.k > n) {
		return malformedProp("threshold %d out of range for %d children", p.k, n)
	}
	for _, c := range p.children {
		if err := c.validate(depth + 1); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the number of nodes in the tree
func (p *Proposition) Size() int {
	n := 1
	for _, c := range p.children {
		n += c.Size()
	}
	return n
}

// Equal reports whether p and o encode to the same bytes
func (p *Proposition) Equal(o *Proposition) bool {
	if p == nil || o == nil {
		return p == o
	}
	return bytes.Equal(p.Bytes(), o.Bytes())
}

func (p *Proposition) String() string {
	if p == nil {
		return "<nil>"
	}
	switch p.kind {
	case KindDLog:
		return fmt.Sprintf("proveDlog(%s)", p.pk)
	case KindDHTuple:
		return fmt.Sprintf("proveDHTuple(%s, %s, %s, %s)", p.tuple.G, p.tuple.H, p.tuple.U, p.tuple.V)
	}

	parts := make([]string, 0, len(p.children)+1)
	if p.kind == KindThreshold {
		parts = append(parts, fmt.Sprint(p.k))
	}
	for _, c := range p.children {
		parts = append(parts, c.String())
	}
	return fmt.Sprintf("%s(%s)", p.kind, strings.Join(parts, ", "))
}
