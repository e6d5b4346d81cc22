package prover

import (
	"errors"
	"fmt"
	"math/big"

	"ergoprover/pkg/core"
	"ergoprover/pkg/crypto"
	"ergoprover/pkg/keys"
	"ergoprover/pkg/sigma"
)

// Error types
var (
	ErrNoSecrets   = errors.New("prover has no discrete-log secret")
	ErrNoMnemonic  = errors.New("EIP-3 secrets need a mnemonic")
	ErrInvalidKey  = errors.New("invalid secret key")
	ErrTupleSecret = errors.New("secret does not match the Diffie-Hellman tuple")
)

type tupleSecret struct {
	g, h, u, v crypto.Point
	x          *big.Int
}

// Builder collects the secrets of a prover. Keys are added in a fixed order:
// the mnemonic's master key, then EIP-3 keys, then raw keys. The first
// discrete-log key is the prover's primary key.
type Builder struct {
	cfg *core.Config

	mnemonic    string
	password    string
	hasMnemonic bool

	eip3   []uint32
	raw    []*big.Int
	tuples []tupleSecret
}

// NewBuilder creates a builder using cfg for network and cost parameters
func NewBuilder(cfg *core.Config) *Builder {
	return &Builder{cfg: cfg}
}

// WithMnemonic sets the wallet mnemonic and its optional password
func (b *Builder) WithMnemonic(mnemonic, password string) *Builder {
	b.mnemonic = mnemonic
	b.password = password
	b.hasMnemonic = true
	return b
}

// WithEIP3Secret adds the key at m/44'/429'/0'/0/index
func (b *Builder) WithEIP3Secret(index uint32) *Builder {
	b.eip3 = append(b.eip3, index)
	return b
}

// WithSecretKey adds a raw discrete-log secret
func (b *Builder) WithSecretKey(x *big.Int) *Builder {
	b.raw = append(b.raw, x)
	return b
}

// WithDHTupleSecret adds the secret x of the tuple (g, h, u = g^x, v = h^x)
func (b *Builder) WithDHTupleSecret(g, h, u, v crypto.Point, x *big.Int) *Builder {
	b.tuples = append(b.tuples, tupleSecret{g: g, h: h, u: u, v: v, x: x})
	return b
}

// Build derives the keys and creates the prover
func (b *Builder) Build() (*Prover, error) {
	cfg := b.cfg
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	network, err := cfg.NetworkType()
	if err != nil {
		return nil, err
	}

	store := keys.NewSecretStore()
	if err := b.addDerivedKeys(store, cfg.UsePre1627KeyDerivation); err != nil {
		store.Zero()
		return nil, err
	}
	for i, raw := range b.raw {
		x, err := scalarFromBig(raw)
		if err != nil {
			store.Zero()
			return nil, fmt.Errorf("secret key %d: %w", i, err)
		}
		_, err = store.AddSecret(x)
		x.Zero()
		if err != nil {
			store.Zero()
			return nil, err
		}
	}
	for i, t := range b.tuples {
		if err := addTuple(store, t); err != nil {
			store.Zero()
			return nil, fmt.Errorf("dh tuple secret %d: %w", i, err)
		}
	}

	pks := store.PublicKeys()
	if len(pks) == 0 {
		store.Zero()
		return nil, ErrNoSecrets
	}

	return &Prover{
		cfg:     cfg,
		network: network,
		store:   store,
		sigma:   sigma.NewProver(store),
		primary: pks[0],
	}, nil
}

func (b *Builder) addDerivedKeys(store *keys.SecretStore, pre1627 bool) error {
	if !b.hasMnemonic {
		if len(b.eip3) > 0 {
			return ErrNoMnemonic
		}
		return nil
	}

	master, err := keys.MasterSecretFromMnemonic(b.mnemonic, b.password, pre1627)
	if err != nil {
		return err
	}
	defer master.Zero()

	root, err := master.SecretKey()
	if err != nil {
		return err
	}
	_, err = store.AddSecretKey(root)
	root.Zero()
	if err != nil {
		return err
	}

	for _, index := range b.eip3 {
		path, err := keys.EIP3Path(index)
		if err != nil {
			return err
		}
		sk, err := keys.Derive(master, path)
		if err != nil {
			return err
		}
		_, err = store.AddSecretKey(sk)
		sk.Zero()
		if err != nil {
			return err
		}
	}
	return nil
}

func addTuple(store *keys.SecretStore, t tupleSecret) error {
	x, err := scalarFromBig(t.x)
	if err != nil {
		return err
	}
	defer x.Zero()

	expected := crypto.DHTuple{G: t.g, H: t.h, U: t.u, V: t.v}
	if !expected.Holds(x) {
		return ErrTupleSecret
	}
	_, err = store.AddDHTupleSecret(t.g, t.h, x)
	return err
}

func scalarFromBig(x *big.Int) (*crypto.Scalar, error) {
	if x == nil || x.Sign() <= 0 || x.BitLen() > 8*crypto.ScalarSize {
		return nil, ErrInvalidKey
	}
	var buf [crypto.ScalarSize]byte
	defer func() { buf = [crypto.ScalarSize]byte{} }()
	x.FillBytes(buf[:])
	s, err := crypto.ScalarFromBytes(buf[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return s, nil
}
