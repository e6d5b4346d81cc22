package cost

import (
	"errors"
	"fmt"
	"math"
)

// Error types
var (
	ErrLimitExceeded    = errors.New("cost limit exceeded")
	ErrInvalidBaseCost  = errors.New("invalid base cost")
	ErrNegativeCharge   = errors.New("negative cost charge")
	ErrInvalidCostLimit = errors.New("invalid cost limit")
)

// Table lists the unit costs charged while signing. The values are ledger
// parameters and must match what validating nodes charge.
type Table struct {
	InputCost           int64 `toml:"input_cost"`
	DataInputCost       int64 `toml:"data_input_cost"`
	OutputCost          int64 `toml:"output_cost"`
	ReductionNodeCost   int64 `toml:"reduction_node_cost"`
	ProveDlogCost       int64 `toml:"prove_dlog_cost"`
	ProveDHTupleCost    int64 `toml:"prove_dhtuple_cost"`
	ConnectiveChildCost int64 `toml:"connective_child_cost"`
	FiatShamirCost      int64 `toml:"fiat_shamir_cost"`
	// Per squared interpolation point of a proved threshold
	InterpolationCost   int64 `toml:"interpolation_cost"`
}

// DefaultTable returns the network default cost parameters
func DefaultTable() Table {
	return Table{
		InputCost:           2000,
		DataInputCost:       100,
		OutputCost:          100,
		ReductionNodeCost:   10,
		ProveDlogCost:       2500,
		ProveDHTupleCost:    5000,
		ConnectiveChildCost: 20,
		FiatShamirCost:      100,
		InterpolationCost:   2,
	}
}

// Validate rejects negative unit costs. Fields are checked in declaration order.
func (t Table) Validate() error {
	fields := []struct {
		name  string
		value int64
	}{
		{"input_cost", t.InputCost},
		{"data_input_cost", t.DataInputCost},
		{"output_cost", t.OutputCost},
		{"reduction_node_cost", t.ReductionNodeCost},
		{"prove_dlog_cost", t.ProveDlogCost},
		{"prove_dhtuple_cost", t.ProveDHTupleCost},
		{"connective_child_cost", t.ConnectiveChildCost},
		{"fiat_shamir_cost", t.FiatShamirCost},
		{"interpolation_cost", t.InterpolationCost},
	}
	for _, f := range fields {
		if f.value < 0 {
			return fmt.Errorf("cost table: %s must not be negative, got %d", f.name, f.value)
		}
	}
	return nil
}

// LimitExceededError reports a charge that would have crossed the block limit.
// The charge is not applied.
type LimitExceededError struct {
	Current int64
	Amount  int64
	Limit   int64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("cost limit exceeded: current %d + charge %d > limit %d", e.Current, e.Amount, e.Limit)
}

// Is makes errors.Is(err, ErrLimitExceeded) match
func (e *LimitExceededError) Is(target error) bool {
	return target == ErrLimitExceeded
}

// Interpreter is a call-scoped running cost counter bounded by the block limit.
// It is not safe for concurrent use; every signing call owns its own.
type Interpreter struct {
	table   Table
	current int64
	limit   int64
}

// NewInterpreter starts a counter at baseCost, the cost already consumed in the block
func NewInterpreter(table Table, limit, baseCost int64) (*Interpreter, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCostLimit, limit)
	}
	if baseCost < 0 {
		return nil, fmt.Errorf("%w: %d must not be negative", ErrInvalidBaseCost, baseCost)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Interpreter{table: table, current: baseCost, limit: limit}, nil
}

// Charge adds amount to the running total, or fails without side effects
// when the total would exceed the limit.
func (in *Interpreter) Charge(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCharge, amount)
	}
	if in.current > in.limit || amount > in.limit-in.current {
		return &LimitExceededError{Current: in.current, Amount: amount, Limit: in.limit}
	}
	in.current += amount
	return nil
}

// ChargeTransaction charges the per-box costs of a transaction
func (in *Interpreter) ChargeTransaction(inputs, dataInputs, outputs int) error {
	terms := []struct {
		unit  int64
		count int
	}{
		{in.table.InputCost, inputs},
		{in.table.DataInputCost, dataInputs},
		{in.table.OutputCost, outputs},
	}

	var total int64
	for _, term := range terms {
		v, ok := mulChecked(term.unit, term.count)
		if !ok || v > math.MaxInt64-total {
			return &LimitExceededError{Current: in.current, Amount: math.MaxInt64, Limit: in.limit}
		}
		total += v
	}
	return in.Charge(total)
}

// Table returns the unit costs used by this interpreter
func (in *Interpreter) Table() Table {
	return in.table
}

// Current returns the accumulated cost
func (in *Interpreter) Current() int64 {
	return in.current
}

// Limit returns the block cost ceiling
func (in *Interpreter) Limit() int64 {
	return in.limit
}

// Remaining returns how much can still be charged
func (in *Interpreter) Remaining() int64 {
	if in.current >= in.limit {
		return 0
	}
	return in.limit - in.current
}

func mulChecked(unit int64, count int) (int64, bool) {
	if count < 0 {
		return 0, false
	}
	if unit != 0 && int64(count) > math.MaxInt64/unit {
		return 0, false
	}
	return unit * int64(count), true
}
