package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"

	"ergoprover/pkg/crypto"
	"ergoprover/pkg/sigma"
)

// NetworkType is the network prefix folded into the address head byte
type NetworkType byte

const (
	Mainnet NetworkType = 0x00
	Testnet NetworkType = 0x10
)

// Type is the address kind carried in the low bits of the head byte
type Type byte

const (
	P2PK Type = 1
	P2SH Type = 2
	P2S  Type = 3
)

const (
	checksumSize = 4
	// P2SH content is the first 24 bytes of the script hash
	p2shHashSize = 24
)

// Error types
var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrBadChecksum    = errors.New("address checksum mismatch")
	ErrUnknownNetwork = errors.New("unknown network")
	ErrNotPayToPubKey = errors.New("address is not pay-to-public-key")
	ErrNoProposition  = errors.New("address does not carry a proposition")
)

// ParseNetwork maps "mainnet"/"testnet" to a NetworkType
func ParseNetwork(s string) (NetworkType, error) {
	switch s {
	case "mainnet":
		return Mainnet, nil
	case "testnet":
		return Testnet, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownNetwork, s)
	}
}

func (n NetworkType) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	default:
		return fmt.Sprintf("network(0x%02x)", byte(n))
	}
}

func (t Type) String() string {
	switch t {
	case P2PK:
		return "P2PK"
	case P2SH:
		return "P2SH"
	case P2S:
		return "P2S"
	default:
		return fmt.Sprintf("type(%d)", byte(t))
	}
}

// Address identifies a spending condition:
// base58(head || content || blake2b256(head || content)[:4])
type Address struct {
	network NetworkType
	kind    Type
	content []byte
	prop    *sigma.Proposition
}

// FromPublicKey builds the pay-to-public-key address of pk
func FromPublicKey(network NetworkType, pk crypto.Point) *Address {
	return &Address{
		network: network,
		kind:    P2PK,
		content: pk.Bytes(),
		prop:    sigma.ProveDlog(pk),
	}
}

// FromProposition builds the address of an arbitrary guard. A lone
// discrete-log statement yields a P2PK address, anything else P2S.
func FromProposition(network NetworkType, prop *sigma.Proposition) (*Address, error) {
	if err := prop.Validate(); err != nil {
		return nil, err
	}
	if prop.Kind() == sigma.KindDLog {
		return FromPublicKey(network, prop.PublicKey()), nil
	}
	return &Address{network: network, kind: P2S, content: prop.Bytes(), prop: prop}, nil
}

// Parse decodes and checks a base58 address
func Parse(s string) (*Address, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) <= 1+checksumSize {
		return nil, fmt.Errorf("%w: too short", ErrInvalidAddress)
	}

	body, sum := raw[:len(raw)-checksumSize], raw[len(raw)-checksumSize:]
	digest := crypto.Blake2b256(body)
	if !bytes.Equal(digest[:checksumSize], sum) {
		return nil, ErrBadChecksum
	}

	head := body[0]
	a := &Address{
		network: NetworkType(head & 0xF0),
		kind:    Type(head & 0x0F),
		content: append([]byte(nil), body[1:]...),
	}
	if a.network != Mainnet && a.network != Testnet {
		return nil, fmt.Errorf("%w: prefix 0x%02x", ErrUnknownNetwork, byte(a.network))
	}

	switch a.kind {
	case P2PK:
		pk, err := crypto.PointFromBytes(a.content)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		if pk.IsIdentity() {
			return nil, fmt.Errorf("%w: identity public key", ErrInvalidAddress)
		}
		a.prop = sigma.ProveDlog(pk)
	case P2SH:
		if len(a.content) != p2shHashSize {
			return nil, fmt.Errorf("%w: P2SH content must be %d bytes", ErrInvalidAddress, p2shHashSize)
		}
	case P2S:
		prop, err := sigma.ParseProposition(a.content)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		a.prop = prop
	default:
		return nil, fmt.Errorf("%w: unknown address type %d", ErrInvalidAddress, byte(a.kind))
	}
	return a, nil
}

// Network returns the network of the address
func (a *Address) Network() NetworkType {
	return a.network
}

// Type returns the address kind
func (a *Address) Type() Type {
	return a.kind
}

// Proposition returns the guard the address stands for. P2SH addresses only
// carry a hash and return ErrNoProposition.
func (a *Address) Proposition() (*sigma.Proposition, error) {
	if a.prop == nil {
		return nil, ErrNoProposition
	}
	return a.prop, nil
}

// PublicKey returns the key of a P2PK address
func (a *Address) PublicKey() (crypto.Point, error) {
	if a.kind != P2PK {
		return crypto.Point{}, ErrNotPayToPubKey
	}
	return a.prop.PublicKey(), nil
}

func (a *Address) String() string {
	body := make([]byte, 0, 1+len(a.content)+checksumSize)
	body = append(body, byte(a.network)|byte(a.kind))
	body = append(body, a.content...)
	digest := crypto.Blake2b256(body)
	return base58.Encode(append(body, digest[:checksumSize]...))
}

// MarshalText encodes the address as base58
func (a *Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes a base58 address
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = *parsed
	return nil
}
