package prover

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/rs/zerolog/log"

	"ergoprover/pkg/address"
	"ergoprover/pkg/core"
	"ergoprover/pkg/cost"
	"ergoprover/pkg/crypto"
	"ergoprover/pkg/keys"
	"ergoprover/pkg/metrics"
	"ergoprover/pkg/sigma"
	"ergoprover/pkg/state"
	"ergoprover/pkg/util"
)

// State is the lifecycle of a single signing call
type State int

const (
	Idle State = iota
	Proving
	Signed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Proving:
		return "proving"
	case Signed:
		return "signed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// InputError reports which input aborted signing and why
type InputError struct {
	Index int
	BoxID state.BoxID
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %d (box %s): %v", e.Index, e.BoxID, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Prover signs transactions with the secrets it was built with. Signing calls
// are independent and may run concurrently.
type Prover struct {
	cfg     *core.Config
	network address.NetworkType
	store   *keys.SecretStore
	sigma   *sigma.Prover
	primary crypto.Point
}

// Address returns the base58 P2PK address of the primary key
func (p *Prover) Address() string {
	return p.P2PKAddress().String()
}

// P2PKAddress returns the P2PK address of the primary key
func (p *Prover) P2PKAddress() *address.Address {
	return address.FromPublicKey(p.network, p.primary)
}

// SecretKey returns the primary secret, which is the master key when the
// prover was built from a mnemonic. The value is secret material.
func (p *Prover) SecretKey() *big.Int {
	x, err := p.store.Secret(p.primary)
	if err != nil {
		return nil
	}
	b := crypto.ScalarBytes(x)
	x.Zero()
	out := new(big.Int).SetBytes(b)
	for i := range b {
		b[i] = 0
	}
	return out
}

// PublicKeys returns the discrete-log public keys in insertion order
func (p *Prover) PublicKeys() []crypto.Point {
	return p.store.PublicKeys()
}

// Close wipes every secret held by the prover
func (p *Prover) Close() {
	p.store.Zero()
}

// Sign signs tx with no cost already consumed in the block
func (p *Prover) Sign(tx *state.UnsignedTransaction) (*state.SignedTransaction, error) {
	return p.SignWithBaseCost(tx, 0)
}

// SignWithBaseCost signs every input of tx in order. baseCost is the cost
// already consumed in the block. Any failure aborts the whole call and no
// signed transaction is returned.
func (p *Prover) SignWithBaseCost(tx *state.UnsignedTransaction, baseCost int64) (*state.SignedTransaction, error) {
	if tx == nil {
		metrics.SigningFailures.WithLabelValues(metrics.ReasonInvalidTx).Inc()
		return nil, fmt.Errorf("invalid transaction: %w", state.ErrNilTransaction)
	}

	status := Idle
	log.Debug().Str("state", status.String()).Int("inputs", len(tx.Inputs)).Int64("base_cost", baseCost).Msg("Signing transaction")

	status = Proving
	signed, err := p.sign(tx, baseCost)
	if err != nil {
		status = Failed
		reason := failureReason(err)
		metrics.SigningFailures.WithLabelValues(reason).Inc()

		event := log.Warn().Str("state", status.String()).Str("reason", reason).Err(err)
		var inErr *InputError
		if errors.As(err, &inErr) {
			event = event.Int("input", inErr.Index).Str("box_id", util.ShortHex(inErr.BoxID[:]))
		}
		event.Msg("Failed to sign transaction")
		return nil, err
	}

	status = Signed
	metrics.SignedTransactions.Inc()
	metrics.SigningCost.Observe(float64(signed.Cost))
	log.Info().
		Str("state", status.String()).
		Str("tx_id", signed.ID.String()).
		Int("inputs", len(signed.Inputs)).
		Int64("cost", signed.Cost).
		Str("spent", util.FormatNanoErg(tx.TotalInputValue())).
		Msg("Signed transaction")
	return signed, nil
}

func (p *Prover) sign(tx *state.UnsignedTransaction, baseCost int64) (*state.SignedTransaction, error) {
	meter, err := cost.NewInterpreter(p.cfg.Costs, p.cfg.MaxBlockCost, baseCost)
	if err != nil {
		return nil, err
	}
	if err := tx.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}
	if err := meter.ChargeTransaction(len(tx.Inputs), len(tx.DataInputs), len(tx.Outputs)); err != nil {
		return nil, fmt.Errorf("transaction cost: %w", err)
	}

	msg, err := tx.BytesToSign()
	if err != nil {
		return nil, err
	}

	proofs := make([][]byte, len(tx.Inputs))
	for i, in := range tx.Inputs {
		tree, err := sigma.Reduce(in.Guard, p.store, meter)
		if err != nil {
			return nil, &InputError{Index: i, BoxID: in.BoxID, Err: err}
		}
		proof, err := p.sigma.ProveReduced(tree, msg, meter)
		if err != nil {
			return nil, &InputError{Index: i, BoxID: in.BoxID, Err: err}
		}
		proofs[i] = proof
		metrics.ProvedInputs.Inc()

		log.Debug().
			Int("input", i).
			Str("box_id", util.ShortHex(in.BoxID[:])).
			Int("proof_size", len(proof)).
			Int64("cost", meter.Current()).
			Msg("Proved input")
	}

	return state.NewSignedTransaction(tx, proofs, meter.Current()-baseCost)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, sigma.ErrUnsatisfiable):
		return metrics.ReasonUnsatisfiable
	case errors.Is(err, cost.ErrLimitExceeded):
		return metrics.ReasonCostLimit
	case errors.Is(err, sigma.ErrProving):
		return metrics.ReasonProving
	default:
		return metrics.ReasonInvalidTx
	}
}
