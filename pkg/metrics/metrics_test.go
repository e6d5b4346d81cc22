package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))

	SigningFailures.WithLabelValues(ReasonCostLimit).Inc()
	n, err := testutil.GatherAndCount(reg, "prover_signing_failures_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(SignedTransactions)
	SignedTransactions.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SignedTransactions))

	failures := testutil.ToFloat64(SigningFailures.WithLabelValues(ReasonUnsatisfiable))
	SigningFailures.WithLabelValues(ReasonUnsatisfiable).Inc()
	assert.Equal(t, failures+1, testutil.ToFloat64(SigningFailures.WithLabelValues(ReasonUnsatisfiable)))
}
