package crypto

import (
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

// ChallengeSize is the byte length of a verifier challenge (192 bits of soundness)
const ChallengeSize = 24

// Challenge is a sigma-protocol verifier challenge
type Challenge [ChallengeSize]byte

// RandomChallenge draws a uniformly random challenge from r
func RandomChallenge(r io.Reader) (Challenge, error) {
	var c Challenge
	if _, err := io.ReadFull(r, c[:]); err != nil {
		return c, fmt.Errorf("failed to read randomness: %w", err)
	}
	return c, nil
}

// ChallengeFromBytes copies a 24-byte slice into a Challenge
func ChallengeFromBytes(b []byte) (Challenge, error) {
	var c Challenge
	if len(b) != ChallengeSize {
		return c, fmt.Errorf("invalid challenge length: expected %d, got %d", ChallengeSize, len(b))
	}
	copy(c[:], b)
	return c, nil
}

// Xor returns c XOR d
func (c Challenge) Xor(d Challenge) Challenge {
	var r Challenge
	for i := range r {
		r[i] = c[i] ^ d[i]
	}
	return r
}

// Scalar interprets c as a big-endian integer. 2^192 is below the group order,
// so no reduction happens.
func (c Challenge) Scalar() *Scalar {
	var k Scalar
	k.SetByteSlice(c[:])
	return &k
}

// String returns the hex encoding of c
func (c Challenge) String() string {
	return hex.EncodeToString(c[:])
}

// Blake2b256 hashes data with BLAKE2b-256
func Blake2b256(data ...[]byte) [32]byte {
	h, _ := blake2b.New256(nil)
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
