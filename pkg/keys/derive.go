package keys

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"

	"ergoprover/pkg/crypto"
)

// Error types
var (
	ErrInvalidSeed     = errors.New("invalid seed")
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
)

// MasterSecret is the BIP-32 root of a wallet
type MasterSecret struct {
	key *hdkeychain.ExtendedKey
	// pre1627 selects the legacy child derivation that does not pad short
	// private keys; wallets created before the fix need it to find their keys
	pre1627 bool
}

// ExtendedPublicKey is a watch-only extended key
type ExtendedPublicKey struct {
	key     *hdkeychain.ExtendedKey
	pre1627 bool
}

// SecretKey is a derived discrete-log secret
type SecretKey struct {
	x  crypto.Scalar
	pk crypto.Point
}

// NewMasterSecret creates the master key from a BIP-32 seed (16 to 64 bytes)
func NewMasterSecret(seed []byte, pre1627 bool) (*MasterSecret, error) {
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	return &MasterSecret{key: key, pre1627: pre1627}, nil
}

// MasterSecretFromMnemonic derives the BIP-39 seed of mnemonic and password
// and creates the master key from it
func MasterSecretFromMnemonic(mnemonic, password string, pre1627 bool) (*MasterSecret, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	defer zero(seed)
	return NewMasterSecret(seed, pre1627)
}

// NewMnemonic generates a mnemonic from bits of fresh entropy (128 to 256, multiple of 32)
func NewMnemonic(bits int) (string, error) {
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %v", err)
	}
	defer zero(entropy)
	return bip39.NewMnemonic(entropy)
}

// ValidateMnemonic checks word list membership and checksum
func ValidateMnemonic(mnemonic string) error {
	if !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}
	return nil
}

// SecretKey returns the master key's own secret
func (m *MasterSecret) SecretKey() (*SecretKey, error) {
	return secretKeyOf(m.key)
}

// Neuter returns the watch-only counterpart of the master key
func (m *MasterSecret) Neuter() (*ExtendedPublicKey, error) {
	pub, err := m.key.Neuter()
	if err != nil {
		return nil, fmt.Errorf("failed to neuter master key: %v", err)
	}
	return &ExtendedPublicKey{key: pub, pre1627: m.pre1627}, nil
}

// Zero wipes the master key
func (m *MasterSecret) Zero() {
	m.key.Zero()
}

// Derive walks path from the master key. It is deterministic and does not
// modify the master key.
func Derive(master *MasterSecret, path DerivationPath) (*SecretKey, error) {
	key := master.key
	for i, seg := range path.segments {
		child, err := deriveChild(key, seg, master.pre1627)
		if err != nil {
			return nil, &InvalidPathError{Path: path.String(), Segment: i, Reason: err.Error()}
		}
		if key != master.key {
			key.Zero()
		}
		key = child
	}

	sk, err := secretKeyOf(key)
	if key != master.key {
		key.Zero()
	}
	return sk, err
}

// DerivePublic walks a non-hardened path from an extended public key
func DerivePublic(parent *ExtendedPublicKey, path DerivationPath) (crypto.Point, error) {
	key := parent.key
	for i, seg := range path.segments {
		if seg.Hardened {
			return crypto.Point{}, &InvalidPathError{
				Path:    path.String(),
				Segment: i,
				Reason:  "hardened segment cannot be derived from a public key",
			}
		}
		child, err := deriveChild(key, seg, parent.pre1627)
		if err != nil {
			return crypto.Point{}, &InvalidPathError{Path: path.String(), Segment: i, Reason: err.Error()}
		}
		key = child
	}

	pub, err := key.ECPubKey()
	if err != nil {
		return crypto.Point{}, fmt.Errorf("failed to read public key: %v", err)
	}
	return crypto.PointFromPublicKey(pub), nil
}

func deriveChild(key *hdkeychain.ExtendedKey, seg PathSegment, pre1627 bool) (*hdkeychain.ExtendedKey, error) {
	if pre1627 {
		return key.DeriveNonStandard(seg.childIndex())
	}
	return key.Derive(seg.childIndex())
}

func secretKeyOf(key *hdkeychain.ExtendedKey) (*SecretKey, error) {
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %v", err)
	}
	sk := &SecretKey{x: priv.Key}
	priv.Zero()
	sk.pk = crypto.BaseMul(&sk.x)
	return sk, nil
}

// NewSecretKey wraps a raw scalar
func NewSecretKey(x *crypto.Scalar) (*SecretKey, error) {
	if x.IsZero() {
		return nil, fmt.Errorf("%w: zero scalar", crypto.ErrInvalidScalar)
	}
	return &SecretKey{x: *x, pk: crypto.BaseMul(x)}, nil
}

// Scalar returns a copy of the secret exponent
func (k *SecretKey) Scalar() *crypto.Scalar {
	x := k.x
	return &x
}

// PublicKey returns g^x
func (k *SecretKey) PublicKey() crypto.Point {
	return k.pk
}

// Zero wipes the secret exponent
func (k *SecretKey) Zero() {
	k.x.Zero()
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
