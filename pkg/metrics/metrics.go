package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SignedTransactions counts transactions signed successfully
	SignedTransactions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prover_signed_transactions_total",
		Help: "Number of transactions signed",
	})
	// SigningFailures counts aborted signing calls by reason
	SigningFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prover_signing_failures_total",
		Help: "Number of signing calls that failed",
	}, []string{"reason"})
	// ProvedInputs counts input proofs produced
	ProvedInputs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prover_proved_inputs_total",
		Help: "Number of input proofs produced",
	})
	// SigningCost observes the cost consumed per signed transaction
	SigningCost = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "prover_signing_cost",
		Help:    "Cost units consumed by a signed transaction",
		Buckets: prometheus.ExponentialBuckets(1000, 2, 12),
	})
	// VerifiedInputs counts input proofs checked by transaction verification, by outcome
	VerifiedInputs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prover_verified_inputs_total",
		Help: "Number of input proofs verified",
	}, []string{"result"})
)

// Failure reasons
const (
	ReasonUnsatisfiable = "unsatisfiable"
	ReasonCostLimit     = "cost_limit"
	ReasonProving       = "proving"
	ReasonInvalidTx     = "invalid_tx"
)

// Register adds every prover collector to r. Collectors that are already
// registered are skipped.
func Register(r prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		SignedTransactions,
		SigningFailures,
		ProvedInputs,
		SigningCost,
		VerifiedInputs,
	}
	for _, c := range collectors {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
