package crypto

import (
	"encoding/binary"
	"errors"
)

// ErrDuplicatePoint is returned when interpolation points are not distinct
var ErrDuplicatePoint = errors.New("interpolation points must be distinct")

// reduction term of the modulus x^192 + x^7 + x^2 + x + 1
const gf2192Reduction = 0x87

// GF2192 is an element of GF(2^192). Word 0 holds the lowest-degree coefficients.
type GF2192 [3]uint64

// GF2192One is the multiplicative identity
var GF2192One = GF2192{1, 0, 0}

// GF2192FromChallenge maps a challenge to a field element (big-endian bit order)
func GF2192FromChallenge(c Challenge) GF2192 {
	return GF2192{
		binary.BigEndian.Uint64(c[16:24]),
		binary.BigEndian.Uint64(c[8:16]),
		binary.BigEndian.Uint64(c[0:8]),
	}
}

// GF2192FromByte maps a small integer to the field element with the same bits
func GF2192FromByte(b byte) GF2192 {
	return GF2192{uint64(b), 0, 0}
}

// Challenge maps a field element back to a challenge
func (a GF2192) Challenge() Challenge {
	var c Challenge
	binary.BigEndian.PutUint64(c[0:8], a[2])
	binary.BigEndian.PutUint64(c[8:16], a[1])
	binary.BigEndian.PutUint64(c[16:24], a[0])
	return c
}

// IsZero reports whether a is the additive identity
func (a GF2192) IsZero() bool {
	return a[0]|a[1]|a[2] == 0
}

// Add returns a + b (which equals a - b in characteristic 2)
func (a GF2192) Add(b GF2192) GF2192 {
	return GF2192{a[0] ^ b[0], a[1] ^ b[1], a[2] ^ b[2]}
}

// Mul returns a * b. It is fastest when b has few significant bits.
func (a GF2192) Mul(b GF2192) GF2192 {
	var r GF2192
	for w := 2; w >= 0; w-- {
		for bit := 63; bit >= 0; bit-- {
			if !r.IsZero() {
				r = r.mulX()
			}
			if (b[w]>>uint(bit))&1 == 1 {
				r = r.Add(a)
			}
		}
	}
	return r
}

// Inverse returns a^-1, computed as a^(2^192 - 2). The inverse of zero is zero.
func (a GF2192) Inverse() GF2192 {
	r := a
	for i := 0; i < 190; i++ {
		r = r.Mul(r).Mul(a)
	}
	return r.Mul(r)
}

func (a GF2192) mulX() GF2192 {
	carry := a[2] >> 63
	r := GF2192{
		a[0] << 1,
		a[1]<<1 | a[0]>>63,
		a[2]<<1 | a[1]>>63,
	}
	if carry == 1 {
		r[0] ^= gf2192Reduction
	}
	return r
}
