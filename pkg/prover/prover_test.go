package prover

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ergoprover/pkg/address"
	"ergoprover/pkg/core"
	"ergoprover/pkg/cost"
	"ergoprover/pkg/crypto"
	"ergoprover/pkg/keys"
	"ergoprover/pkg/sigma"
	"ergoprover/pkg/state"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

func testConfig() *core.Config {
	cfg := core.DefaultConfig()
	cfg.Network = "testnet"
	return cfg
}

func newTestProver(t *testing.T, extra ...*big.Int) *Prover {
	b := NewBuilder(testConfig()).
		WithMnemonic(testMnemonic, "").
		WithEIP3Secret(0).
		WithEIP3Secret(1)
	for _, x := range extra {
		b.WithSecretKey(x)
	}
	p, err := b.Build()
	require.NoError(t, err)
	return p
}

func foreignKey(t *testing.T) *sigma.Proposition {
	x, err := crypto.RandomScalar(rand.Reader)
	require.NoError(t, err)
	return sigma.ProveDlog(crypto.BaseMul(x))
}

func randomBig(t *testing.T) (*big.Int, crypto.Point) {
	x, err := crypto.RandomScalar(rand.Reader)
	require.NoError(t, err)
	return new(big.Int).SetBytes(crypto.ScalarBytes(x)), crypto.BaseMul(x)
}

func boxID(t *testing.T) state.BoxID {
	var id state.BoxID
	_, err := rand.Read(id[:])
	require.NoError(t, err)
	return id
}

func txWithGuards(t *testing.T, guards ...*sigma.Proposition) *state.UnsignedTransaction {
	tx := &state.UnsignedTransaction{
		Outputs: []state.Output{{Value: 1_000_000, Guard: foreignKey(t), CreationHeight: 500_000}},
	}
	for _, g := range guards {
		tx.Inputs = append(tx.Inputs, state.InputBox{BoxID: boxID(t), Value: 1_000_000, Guard: g})
	}
	return tx
}

func requireValid(t *testing.T, tx *state.UnsignedTransaction, signed *state.SignedTransaction) {
	ok, err := VerifyTransaction(context.Background(), tx, signed)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestBuilderKeyOrder(t *testing.T) {
	extra, extraPK := randomBig(t)
	p := newTestProver(t, extra)

	master, err := keys.MasterSecretFromMnemonic(testMnemonic, "", false)
	require.NoError(t, err)
	root, err := master.SecretKey()
	require.NoError(t, err)
	path, err := keys.EIP3Path(1)
	require.NoError(t, err)
	second, err := keys.Derive(master, path)
	require.NoError(t, err)

	pks := p.PublicKeys()
	require.Len(t, pks, 4)
	assert.True(t, pks[0].Equal(root.PublicKey()), "master key comes first")
	assert.True(t, pks[2].Equal(second.PublicKey()))
	assert.True(t, pks[3].Equal(extraPK), "raw keys come last")

	// The secret key is the master scalar
	assert.Equal(t, new(big.Int).SetBytes(crypto.ScalarBytes(root.Scalar())), p.SecretKey())
}

func TestAddresses(t *testing.T) {
	p := newTestProver(t)

	parsed, err := address.Parse(p.Address())
	require.NoError(t, err)
	assert.Equal(t, address.Testnet, parsed.Network())
	pk, err := parsed.PublicKey()
	require.NoError(t, err)
	assert.True(t, pk.Equal(p.PublicKeys()[0]))
	assert.Equal(t, p.Address(), p.P2PKAddress().String())
}

func TestBuilderErrors(t *testing.T) {
	_, err := NewBuilder(testConfig()).Build()
	assert.ErrorIs(t, err, ErrNoSecrets)

	_, err = NewBuilder(testConfig()).WithEIP3Secret(0).Build()
	assert.ErrorIs(t, err, ErrNoMnemonic)

	_, err = NewBuilder(testConfig()).WithMnemonic("abandon abandon", "").Build()
	assert.ErrorIs(t, err, keys.ErrInvalidMnemonic)

	_, err = NewBuilder(testConfig()).WithSecretKey(big.NewInt(0)).Build()
	assert.ErrorIs(t, err, ErrInvalidKey)

	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	_, err = NewBuilder(testConfig()).WithSecretKey(tooBig).Build()
	assert.ErrorIs(t, err, ErrInvalidKey)

	cfg := testConfig()
	cfg.Network = "devnet"
	_, err = NewBuilder(cfg).WithSecretKey(big.NewInt(7)).Build()
	assert.ErrorIs(t, err, address.ErrUnknownNetwork)

	x, _ := randomBig(t)
	_, err = NewBuilder(testConfig()).
		WithSecretKey(big.NewInt(7)).
		WithDHTupleSecret(crypto.Generator(), crypto.Generator(), crypto.Generator(), crypto.Generator(), x).
		Build()
	assert.ErrorIs(t, err, ErrTupleSecret)
}

func TestSignSingleKey(t *testing.T) {
	p := newTestProver(t)
	tx := txWithGuards(t, sigma.ProveDlog(p.PublicKeys()[0]))

	signed, err := p.Sign(tx)
	require.NoError(t, err)
	require.Len(t, signed.Inputs, 1)
	assert.Len(t, signed.Inputs[0].Proof, crypto.ChallengeSize+crypto.ScalarSize)

	id, err := tx.ID()
	require.NoError(t, err)
	assert.Equal(t, id, signed.ID)
	requireValid(t, tx, signed)

	table := cost.DefaultTable()
	want := table.InputCost + table.OutputCost + table.ReductionNodeCost + table.ProveDlogCost + table.FiatShamirCost
	assert.Equal(t, want, signed.Cost)
}

func TestSignOrWithSecondKey(t *testing.T) {
	p := newTestProver(t)
	guard := sigma.Or(foreignKey(t), sigma.ProveDlog(p.PublicKeys()[2]))
	tx := txWithGuards(t, guard)

	signed, err := p.Sign(tx)
	require.NoError(t, err)
	requireValid(t, tx, signed)
}

func TestSignThreshold(t *testing.T) {
	extra, extraPK := randomBig(t)
	p := newTestProver(t, extra)

	guard := sigma.Threshold(2,
		sigma.ProveDlog(p.PublicKeys()[1]),
		foreignKey(t),
		sigma.ProveDlog(extraPK),
	)
	tx := txWithGuards(t, guard)

	signed, err := p.Sign(tx)
	require.NoError(t, err)
	requireValid(t, tx, signed)
}

func TestSignDHTuple(t *testing.T) {
	x, _ := randomBig(t)
	_, h := randomBig(t)
	xs, err := crypto.ScalarFromBytes(x.FillBytes(make([]byte, 32)))
	require.NoError(t, err)
	tuple := crypto.NewDHTuple(crypto.Generator(), h, xs)

	p, err := NewBuilder(testConfig()).
		WithMnemonic(testMnemonic, "").
		WithDHTupleSecret(tuple.G, tuple.H, tuple.U, tuple.V, x).
		Build()
	require.NoError(t, err)

	tx := txWithGuards(t, sigma.And(sigma.ProveDlog(p.PublicKeys()[0]), sigma.ProveDHTuple(tuple)))
	signed, err := p.Sign(tx)
	require.NoError(t, err)
	requireValid(t, tx, signed)
}

func TestSignUnsatisfiable(t *testing.T) {
	p := newTestProver(t)
	tx := txWithGuards(t, sigma.ProveDlog(p.PublicKeys()[0]), foreignKey(t))

	signed, err := p.Sign(tx)
	require.Error(t, err)
	assert.Nil(t, signed)
	assert.ErrorIs(t, err, sigma.ErrUnsatisfiable)

	var inErr *InputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, 1, inErr.Index)
	assert.Equal(t, tx.Inputs[1].BoxID, inErr.BoxID)
}

func TestSignNilTransaction(t *testing.T) {
	p := newTestProver(t)

	signed, err := p.Sign(nil)
	assert.Nil(t, signed)
	assert.ErrorIs(t, err, state.ErrNilTransaction)

	ok, err := VerifyTransaction(context.Background(), nil, nil)
	assert.False(t, ok)
	assert.ErrorIs(t, err, state.ErrNilTransaction)
}

func TestSignAtCostLimit(t *testing.T) {
	p := newTestProver(t)
	tx := txWithGuards(t, sigma.ProveDlog(p.PublicKeys()[0]))

	signed, err := p.SignWithBaseCost(tx, p.cfg.MaxBlockCost)
	assert.Nil(t, signed)
	assert.ErrorIs(t, err, cost.ErrLimitExceeded)

	// Rejected before any input was touched
	var inErr *InputError
	assert.False(t, errors.As(err, &inErr))

	_, err = p.SignWithBaseCost(tx, -1)
	assert.ErrorIs(t, err, cost.ErrInvalidBaseCost)
}

func TestSignCostLimitOnLaterInput(t *testing.T) {
	cfg := testConfig()
	table := cfg.Costs
	perInput := table.ReductionNodeCost + table.ProveDlogCost + table.FiatShamirCost
	// Room for the transaction charge and exactly one input proof
	cfg.MaxBlockCost = 2*table.InputCost + table.OutputCost + perInput

	p, err := NewBuilder(cfg).WithMnemonic(testMnemonic, "").Build()
	require.NoError(t, err)
	pk := sigma.ProveDlog(p.PublicKeys()[0])
	tx := txWithGuards(t, pk, pk)

	_, err = p.Sign(tx)
	assert.ErrorIs(t, err, cost.ErrLimitExceeded)
	var inErr *InputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, 1, inErr.Index)

	// Room for both inputs
	roomy := testConfig()
	roomy.MaxBlockCost = cfg.MaxBlockCost + perInput
	p, err = NewBuilder(roomy).WithMnemonic(testMnemonic, "").Build()
	require.NoError(t, err)
	signed, err := p.Sign(tx)
	require.NoError(t, err)
	assert.Equal(t, roomy.MaxBlockCost, signed.Cost)
}

func TestSignTwiceGivesFreshProofs(t *testing.T) {
	p := newTestProver(t)
	tx := txWithGuards(t, sigma.Or(sigma.ProveDlog(p.PublicKeys()[0]), foreignKey(t)))

	first, err := p.Sign(tx)
	require.NoError(t, err)
	second, err := p.Sign(tx)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.Inputs[0].Proof, second.Inputs[0].Proof)
	requireValid(t, tx, first)
	requireValid(t, tx, second)
}

func TestParallelSigning(t *testing.T) {
	p := newTestProver(t)
	pks := p.PublicKeys()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx := txWithGuards(t, sigma.ProveDlog(pks[i%len(pks)]), sigma.Or(foreignKey(t), sigma.ProveDlog(pks[0])))
			signed, err := p.Sign(tx)
			if !assert.NoError(t, err) {
				return
			}
			ok, err := VerifyTransaction(context.Background(), tx, signed)
			assert.NoError(t, err)
			assert.True(t, ok)
		}(i)
	}
	wg.Wait()
}

func TestVerifyTransactionRejects(t *testing.T) {
	p := newTestProver(t)
	pk := sigma.ProveDlog(p.PublicKeys()[0])
	tx := txWithGuards(t, pk, pk)

	signed, err := p.Sign(tx)
	require.NoError(t, err)

	// Flip a bit of the second input's root challenge
	tampered := *signed
	tampered.Inputs = append([]state.SignedInput(nil), signed.Inputs...)
	proof := append([]byte(nil), tampered.Inputs[1].Proof...)
	proof[0] ^= 0x01
	tampered.Inputs[1].Proof = proof
	ok, err := VerifyTransaction(context.Background(), tx, &tampered)
	require.NoError(t, err)
	assert.False(t, ok)

	// Different transaction body
	other := txWithGuards(t, pk, pk)
	_, err = VerifyTransaction(context.Background(), other, signed)
	assert.ErrorIs(t, err, ErrTransactionMismatch)

	// Missing proof
	short := *signed
	short.Inputs = signed.Inputs[:1]
	_, err = VerifyTransaction(context.Background(), tx, &short)
	assert.ErrorIs(t, err, ErrTransactionMismatch)

	// Cancelled context
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = VerifyTransaction(ctx, tx, signed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseWipesSecrets(t *testing.T) {
	p := newTestProver(t)
	tx := txWithGuards(t, sigma.ProveDlog(p.PublicKeys()[0]))
	p.Close()

	_, err := p.Sign(tx)
	assert.ErrorIs(t, err, sigma.ErrUnsatisfiable)
	assert.Nil(t, p.SecretKey())
}
