package keys

import (
	"errors"
	"fmt"
	"sync"

	"ergoprover/pkg/crypto"
	"ergoprover/pkg/sigma"
)

// ErrSecretNotFound is returned when looking up an undeclared key
var ErrSecretNotFound = errors.New("secret not found")

type dlogEntry struct {
	x  crypto.Scalar
	pk crypto.Point
}

type dhtEntry struct {
	x     crypto.Scalar
	tuple crypto.DHTuple
}

// SecretStore holds the prover's secrets. It is safe for concurrent reads;
// secrets are normally added before signing starts.
type SecretStore struct {
	mu   sync.RWMutex
	dlog []dlogEntry
	dht  []dhtEntry
}

// NewSecretStore creates an empty store
func NewSecretStore() *SecretStore {
	return &SecretStore{}
}

// AddSecret stores a copy of x and returns its public key. Adding a known
// secret again is a no-op.
func (s *SecretStore) AddSecret(x *crypto.Scalar) (crypto.Point, error) {
	if x == nil || x.IsZero() {
		return crypto.Point{}, fmt.Errorf("%w: zero secret", crypto.ErrInvalidScalar)
	}
	pk := crypto.BaseMul(x)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findDlog(pk) < 0 {
		s.dlog = append(s.dlog, dlogEntry{x: *x, pk: pk})
	}
	return pk, nil
}

// AddSecretKey stores a derived secret key
func (s *SecretStore) AddSecretKey(sk *SecretKey) (crypto.Point, error) {
	x := sk.Scalar()
	defer x.Zero()
	return s.AddSecret(x)
}

// AddDHTupleSecret stores x for the tuple (g, h, g^x, h^x) and returns the tuple
func (s *SecretStore) AddDHTupleSecret(g, h crypto.Point, x *crypto.Scalar) (crypto.DHTuple, error) {
	if x == nil || x.IsZero() {
		return crypto.DHTuple{}, fmt.Errorf("%w: zero secret", crypto.ErrInvalidScalar)
	}
	tuple := crypto.NewDHTuple(g, h, x)
	if err := tuple.Validate(); err != nil {
		return crypto.DHTuple{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findDHT(tuple) < 0 {
		s.dht = append(s.dht, dhtEntry{x: *x, tuple: tuple})
	}
	return tuple, nil
}

// PublicKeys returns the discrete-log public keys in insertion order
func (s *SecretStore) PublicKeys() []crypto.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crypto.Point, len(s.dlog))
	for i, e := range s.dlog {
		out[i] = e.pk
	}
	return out
}

// Tuples returns the Diffie-Hellman tuples in insertion order
func (s *SecretStore) Tuples() []crypto.DHTuple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crypto.DHTuple, len(s.dht))
	for i, e := range s.dht {
		out[i] = e.tuple
	}
	return out
}

// Len returns the number of stored secrets
func (s *SecretStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dlog) + len(s.dht)
}

// HasSecretForKey reports whether the secret of pk is held
func (s *SecretStore) HasSecretForKey(pk crypto.Point) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findDlog(pk) >= 0
}

// HasSecretFor reports whether the store can prove an atomic proposition
func (s *SecretStore) HasSecretFor(leaf *sigma.Proposition) bool {
	switch leaf.Kind() {
	case sigma.KindDLog:
		return s.HasSecretForKey(leaf.PublicKey())
	case sigma.KindDHTuple:
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.findDHT(leaf.Tuple()) >= 0
	default:
		return false
	}
}

// Secret returns a copy of the secret of pk
func (s *SecretStore) Secret(pk crypto.Point) (*crypto.Scalar, error) {
	x, ok := s.DLogSecret(pk)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, pk)
	}
	return x, nil
}

// DLogSecret returns a copy of the secret of pk
func (s *SecretStore) DLogSecret(pk crypto.Point) (*crypto.Scalar, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.findDlog(pk)
	if i < 0 {
		return nil, false
	}
	x := s.dlog[i].x
	return &x, true
}

// DHTupleSecret returns a copy of the secret of t
func (s *SecretStore) DHTupleSecret(t crypto.DHTuple) (*crypto.Scalar, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.findDHT(t)
	if i < 0 {
		return nil, false
	}
	x := s.dht[i].x
	return &x, true
}

// Zero wipes and drops every secret
func (s *SecretStore) Zero() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.dlog {
		s.dlog[i].x.Zero()
	}
	for i := range s.dht {
		s.dht[i].x.Zero()
	}
	s.dlog = nil
	s.dht = nil
}

func (s *SecretStore) findDlog(pk crypto.Point) int {
	for i, e := range s.dlog {
		if e.pk.Equal(pk) {
			return i
		}
	}
	return -1
}

func (s *SecretStore) findDHT(t crypto.DHTuple) int {
	for i, e := range s.dht {
		if e.tuple.Equal(t) {
			return i
		}
	}
	return -1
}
