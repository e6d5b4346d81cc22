package state

import (
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"ergoprover/pkg/sigma"
)

// Error types
var (
	ErrNoInputs       = errors.New("transaction has no inputs")
	ErrNoOutputs      = errors.New("transaction has no outputs")
	ErrDuplicateInput = errors.New("duplicate input box")
	ErrMissingGuard   = errors.New("missing guard proposition")
	ErrProofCount     = errors.New("proof count does not match input count")
	ErrIDMismatch     = errors.New("transaction id mismatch")
	ErrNilTransaction = errors.New("nil transaction")
)

// BoxID identifies an unspent box
type BoxID [32]byte

// TxID is the blake2b-256 digest of a transaction's bytes to sign
type TxID [32]byte

// InputBox is a box being spent together with the proposition guarding it
type InputBox struct {
	BoxID BoxID              `json:"boxId"`
	Value uint64             `json:"value"`
	Guard *sigma.Proposition `json:"ergoTree"`
}

// Output is a box created by the transaction
type Output struct {
	Value          uint64             `json:"value"`
	Guard          *sigma.Proposition `json:"ergoTree"`
	CreationHeight uint32             `json:"creationHeight"`
}

// UnsignedTransaction is the input to signing
type UnsignedTransaction struct {
	Inputs     []InputBox `json:"inputs"`
	DataInputs []BoxID    `json:"dataInputs"`
	Outputs    []Output   `json:"outputs"`
}

// SignedInput is an input with its spending proof attached
type SignedInput struct {
	BoxID BoxID         `json:"boxId"`
	Proof hexutil.Bytes `json:"spendingProof"`
}

// SignedTransaction carries exactly one proof per input
type SignedTransaction struct {
	ID         TxID          `json:"id"`
	Inputs     []SignedInput `json:"inputs"`
	DataInputs []BoxID       `json:"dataInputs"`
	Outputs    []Output      `json:"outputs"`
	Cost       int64         `json:"cost"`
}

// MarshalText encodes the id as 0x-prefixed hex
func (id BoxID) MarshalText() ([]byte, error) {
	return hexutil.Bytes(id[:]).MarshalText()
}

// UnmarshalText decodes 0x-prefixed hex
func (id *BoxID) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("BoxID", input, id[:])
}

func (id BoxID) String() string {
	return hexutil.Encode(id[:])
}

// MarshalText encodes the id as 0x-prefixed hex
func (id TxID) MarshalText() ([]byte, error) {
	return hexutil.Bytes(id[:]).MarshalText()
}

// UnmarshalText decodes 0x-prefixed hex
func (id *TxID) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("TxID", input, id[:])
}

func (id TxID) String() string {
	return hexutil.Encode(id[:])
}
