package prover

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"ergoprover/pkg/metrics"
	"ergoprover/pkg/sigma"
	"ergoprover/pkg/state"
)

// ErrTransactionMismatch is returned when a signed transaction does not
// belong to the unsigned one it is checked against
var ErrTransactionMismatch = errors.New("signed transaction does not match")

// VerifyTransaction checks that signed is tx with a valid proof for every
// input. Proofs are verified in parallel. A structural mismatch returns an
// error; an invalid proof returns false.
func VerifyTransaction(ctx context.Context, tx *state.UnsignedTransaction, signed *state.SignedTransaction) (bool, error) {
	if tx == nil || signed == nil {
		return false, fmt.Errorf("invalid transaction: %w", state.ErrNilTransaction)
	}
	if len(signed.Inputs) != len(tx.Inputs) {
		return false, fmt.Errorf("%w: %d inputs, expected %d", ErrTransactionMismatch, len(signed.Inputs), len(tx.Inputs))
	}
	for i, in := range tx.Inputs {
		if signed.Inputs[i].BoxID != in.BoxID {
			return false, fmt.Errorf("%w: input %d spends %s, expected %s", ErrTransactionMismatch, i, signed.Inputs[i].BoxID, in.BoxID)
		}
	}

	id, err := tx.ID()
	if err != nil {
		return false, err
	}
	if id != signed.ID {
		return false, fmt.Errorf("%w: id %s, expected %s", ErrTransactionMismatch, signed.ID, id)
	}
	if err := signed.CheckID(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrTransactionMismatch, err)
	}

	msg, err := tx.BytesToSign()
	if err != nil {
		return false, err
	}

	results := make([]bool, len(tx.Inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := range tx.Inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ok, err := sigma.Verify(tx.Inputs[i].Guard, signed.Inputs[i].Proof, msg)
			if err != nil {
				metrics.VerifiedInputs.WithLabelValues("error").Inc()
				return &InputError{Index: i, BoxID: tx.Inputs[i].BoxID, Err: err}
			}
			if ok {
				metrics.VerifiedInputs.WithLabelValues("valid").Inc()
			} else {
				metrics.VerifiedInputs.WithLabelValues("invalid").Inc()
			}
			results[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	for i, ok := range results {
		if !ok {
			log.Warn().Int("input", i).Str("tx_id", signed.ID.String()).Msg("Input proof rejected")
			return false, nil
		}
	}
	return true, nil
}
