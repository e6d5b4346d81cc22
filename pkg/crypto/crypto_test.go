package crypto

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomScalar(t *testing.T) *Scalar {
	k, err := RandomScalar(rand.Reader)
	require.NoError(t, err)
	return k
}

func randomGF(t *testing.T) GF2192 {
	c, err := RandomChallenge(rand.Reader)
	require.NoError(t, err)
	return GF2192FromChallenge(c)
}

func TestPointEncoding(t *testing.T) {
	p := BaseMul(randomScalar(t))

	decoded, err := PointFromBytes(p.Bytes())
	require.NoError(t, err)
	assert.True(t, p.Equal(decoded))
	assert.Len(t, p.Bytes(), PointSize)

	// The identity encodes as 33 zero bytes
	var id Point
	assert.Equal(t, make([]byte, PointSize), id.Bytes())
	decoded, err = PointFromBytes(make([]byte, PointSize))
	require.NoError(t, err)
	assert.True(t, decoded.IsIdentity())

	_, err = PointFromBytes([]byte{0x02, 0x01})
	assert.ErrorIs(t, err, ErrInvalidPoint)
}

func TestGroupLaws(t *testing.T) {
	a := randomScalar(t)
	b := randomScalar(t)

	var sum Scalar
	sum.Add2(a, b)

	// g^a * g^b == g^(a+b)
	assert.True(t, BaseMul(a).Add(BaseMul(b)).Equal(BaseMul(&sum)))

	// (g^a)^b == g^(ab)
	var prod Scalar
	prod.Mul2(a, b)
	assert.True(t, BaseMul(a).Mul(b).Equal(BaseMul(&prod)))

	// p * p^-1 is the identity
	p := BaseMul(a)
	assert.True(t, p.Add(p.Neg()).IsIdentity())
	assert.True(t, Generator().Equal(BaseMul(new(Scalar).SetInt(1))))
}

func TestScalarFromBytes(t *testing.T) {
	k := randomScalar(t)
	decoded, err := ScalarFromBytes(ScalarBytes(k))
	require.NoError(t, err)
	assert.True(t, k.Equals(decoded))

	overflow := make([]byte, ScalarSize)
	for i := range overflow {
		overflow[i] = 0xff
	}
	_, err = ScalarFromBytes(overflow)
	assert.ErrorIs(t, err, ErrInvalidScalar)
}

func TestGF2192FieldLaws(t *testing.T) {
	for i := 0; i < 10; i++ {
		a, b, c := randomGF(t), randomGF(t), randomGF(t)

		assert.Equal(t, a.Mul(b), b.Mul(a))
		assert.Equal(t, a.Mul(b.Add(c)), a.Mul(b).Add(a.Mul(c)))
		assert.Equal(t, a, a.Mul(GF2192One))
		assert.True(t, a.Add(a).IsZero())
		if !a.IsZero() {
			assert.Equal(t, GF2192One, a.Mul(a.Inverse()))
		}
	}
}

func TestGF2192ChallengeRoundTrip(t *testing.T) {
	c, err := RandomChallenge(rand.Reader)
	require.NoError(t, err)
	assert.Equal(t, c, GF2192FromChallenge(c).Challenge())
}

func TestPolyInterpolation(t *testing.T) {
	// Degree 3 polynomial through 4 points, then check it passes through all of them
	xs := []byte{0, 2, 5, 7}
	ys := make([]Challenge, len(xs))
	for i := range ys {
		c, err := RandomChallenge(rand.Reader)
		require.NoError(t, err)
		ys[i] = c
	}

	poly, err := Interpolate(xs, ys)
	require.NoError(t, err)
	assert.Equal(t, 3, poly.Degree())
	for i, x := range xs {
		assert.Equal(t, ys[i], poly.Eval(x), "point %d", x)
	}

	// Rebuilding from the serialized coefficients yields the same evaluations
	rebuilt := PolyFromCoefficients(ys[0], poly.Coefficients())
	for x := byte(0); x < 10; x++ {
		assert.Equal(t, poly.Eval(x), rebuilt.Eval(x))
	}

	_, err = Interpolate([]byte{1, 1}, ys[:2])
	assert.ErrorIs(t, err, ErrDuplicatePoint)
}

func TestInterpolateRecoversWidePolynomial(t *testing.T) {
	c, err := RandomChallenge(rand.Reader)
	require.NoError(t, err)
	poly, err := RandomPoly(rand.Reader, 255, c)
	require.NoError(t, err)

	xs := make([]byte, 256)
	ys := make([]Challenge, 256)
	for i := range xs {
		xs[i] = byte(i)
		ys[i] = poly.Eval(byte(i))
	}

	start := time.Now()
	got, err := Interpolate(xs, ys)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, poly.Coefficients(), got.Coefficients())
	assert.Equal(t, c, got.Eval(0))
}

func TestGF2192MulSmallOperand(t *testing.T) {
	a := randomGF(t)
	for _, b := range []byte{0, 1, 2, 3, 0x80, 0xff} {
		small := GF2192FromByte(b)
		assert.Equal(t, small.Mul(a), a.Mul(small), "operand %d", b)
	}
	assert.Equal(t, a, a.Mul(GF2192One))
	assert.True(t, a.Mul(GF2192{}).IsZero())
}

func TestRandomPolyConstantTerm(t *testing.T) {
	c, err := RandomChallenge(rand.Reader)
	require.NoError(t, err)

	poly, err := RandomPoly(rand.Reader, 4, c)
	require.NoError(t, err)
	assert.Equal(t, c, poly.Eval(0))
	assert.Len(t, poly.Coefficients(), 4)
}

func TestDLogTranscript(t *testing.T) {
	x := randomScalar(t)
	h := BaseMul(x)

	r, a, err := DLogCommit(rand.Reader)
	require.NoError(t, err)
	e, err := RandomChallenge(rand.Reader)
	require.NoError(t, err)
	z := Respond(r, x, e)

	assert.True(t, a.Equal(DLogCommitment(h, e, z)), "real transcript must verify")

	// A simulated transcript is accepted for the chosen challenge only
	sa, sz, err := DLogSimulate(rand.Reader, h, e)
	require.NoError(t, err)
	assert.True(t, sa.Equal(DLogCommitment(h, e, sz)))

	other, err := RandomChallenge(rand.Reader)
	require.NoError(t, err)
	assert.False(t, a.Equal(DLogCommitment(h, other, z)))
}

func TestDHTupleTranscript(t *testing.T) {
	x := randomScalar(t)
	tuple := NewDHTuple(Generator(), BaseMul(randomScalar(t)), x)
	require.NoError(t, tuple.Validate())
	assert.True(t, tuple.Holds(x))

	decoded, err := DHTupleFromBytes(tuple.Bytes())
	require.NoError(t, err)
	assert.True(t, tuple.Equal(decoded))

	r, a, b, err := DHTupleCommit(rand.Reader, tuple)
	require.NoError(t, err)
	e, err := RandomChallenge(rand.Reader)
	require.NoError(t, err)
	z := Respond(r, x, e)

	ca, cb := DHTupleCommitment(tuple, e, z)
	assert.True(t, a.Equal(ca))
	assert.True(t, b.Equal(cb))

	sa, sb, sz, err := DHTupleSimulate(rand.Reader, tuple, e)
	require.NoError(t, err)
	ca, cb = DHTupleCommitment(tuple, e, sz)
	assert.True(t, sa.Equal(ca))
	assert.True(t, sb.Equal(cb))
}

func TestBlake2b256(t *testing.T) {
	// Splitting the input must not change the digest
	assert.Equal(t, Blake2b256([]byte("ab"), []byte("c")), Blake2b256([]byte("abc")))
	assert.NotEqual(t, Blake2b256([]byte("abc")), Blake2b256([]byte("abd")))
}
