package sigma

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"ergoprover/pkg/crypto"
)

// Bytes returns the canonical encoding of the proposition:
//
//	proveDlog:    0xCD | point(33)
//	proveDHTuple: 0xCE | g | h | u | v
//	and / or:     kind | uvarint(n) | children
//	atLeast:      0x98 | uvarint(k) | uvarint(n) | children
func (p *Proposition) Bytes() []byte {
	return p.appendBytes(nil)
}

func (p *Proposition) appendBytes(buf []byte) []byte {
	buf = append(buf, byte(p.kind))
	switch p.kind {
	case KindDLog:
		return append(buf, p.pk.Bytes()...)
	case KindDHTuple:
		return append(buf, p.tuple.Bytes()...)
	case KindThreshold:
		buf = binary.AppendUvarint(buf, uint64(p.k))
	}
	buf = binary.AppendUvarint(buf, uint64(len(p.children)))
	for _, c := range p.children {
		buf = c.appendBytes(buf)
	}
	return buf
}

// ParseProposition decodes and validates a canonical proposition encoding
func ParseProposition(b []byte) (*Proposition, error) {
	d := &propDecoder{buf: b}
	p, err := d.node(1)
	if err != nil {
		return nil, err
	}
	if d.off != len(d.buf) {
		return nil, malformedProp("%d trailing bytes", len(d.buf)-d.off)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// MarshalText encodes the proposition as hex
func (p *Proposition) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(p.Bytes())), nil
}

// UnmarshalText decodes a hex proposition
func (p *Proposition) UnmarshalText(text []byte) error {
	raw, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProposition, err)
	}
	parsed, err := ParseProposition(raw)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

type propDecoder struct {
	buf []byte
	off int
}

func (d *propDecoder) take(n int) ([]byte, error) {
	if n > len(d.buf)-d.off {
		return nil, malformedProp("unexpected end of input at offset %d", d.off)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *propDecoder) uvarint(max uint64) (int, error) {
	v, n := binary.Uvarint(d.buf[d.off:])
	if n <= 0 {
		return 0, malformedProp("bad length prefix at offset %d", d.off)
	}
	if n != len(binary.AppendUvarint(nil, v)) {
		return 0, malformedProp("non-canonical length prefix at offset %d", d.off)
	}
	if v > max {
		return 0, malformedProp("value %d exceeds %d", v, max)
	}
	d.off += n
	return int(v), nil
}

func (d *propDecoder) node(depth int) (*Proposition, error) {
	if depth > MaxDepth {
		return nil, malformedProp("nesting deeper than %d", MaxDepth)
	}
	tag, err := d.take(1)
	if err != nil {
		return nil, err
	}

	switch kind := Kind(tag[0]); kind {
	case KindDLog:
		raw, err := d.take(crypto.PointSize)
		if err != nil {
			return nil, err
		}
		pk, err := crypto.PointFromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedProposition, err)
		}
		return ProveDlog(pk), nil

	case KindDHTuple:
		raw, err := d.take(crypto.DHTupleSize)
		if err != nil {
			return nil, err
		}
		t, err := crypto.DHTupleFromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedProposition, err)
		}
		return ProveDHTuple(t), nil

	case KindAnd, KindOr, KindThreshold:
		k := 0
		if kind == KindThreshold {
			if k, err = d.uvarint(MaxChildren); err != nil {
				return nil, err
			}
		}
		n, err := d.uvarint(MaxChildren)
		if err != nil {
			return nil, err
		}
		children := make([]*Proposition, n)
		for i := range children {
			if children[i], err = d.node(depth + 1); err != nil {
				return nil, err
			}
		}
		return &Proposition{kind: kind, k: k, children: children}, nil

	default:
		return nil, malformedProp("unknown node kind 0x%02x", tag[0])
	}
}
