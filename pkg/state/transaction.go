package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"ergoprover/pkg/crypto"
)

// signingPayload is the RLP layout of the bytes to sign. Proofs are excluded
// so that every input signs the same message.
type signingPayload struct {
	Inputs     []BoxID
	DataInputs []BoxID
	Outputs    []outputPayload
}

type outputPayload struct {
	Value          uint64
	Guard          []byte
	CreationHeight uint32
}

// Validate checks the transaction shape
func (tx *UnsignedTransaction) Validate() error {
	if len(tx.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(tx.Outputs) == 0 {
		return ErrNoOutputs
	}

	seen := make(map[BoxID]struct{}, len(tx.Inputs))
	for i, in := range tx.Inputs {
		if _, dup := seen[in.BoxID]; dup {
			return fmt.Errorf("%w: input %d spends %s", ErrDuplicateInput, i, in.BoxID)
		}
		seen[in.BoxID] = struct{}{}
		if in.Guard == nil {
			return fmt.Errorf("%w: input %d", ErrMissingGuard, i)
		}
	}
	for i, out := range tx.Outputs {
		if out.Guard == nil {
			return fmt.Errorf("%w: output %d", ErrMissingGuard, i)
		}
		if err := out.Guard.Validate(); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}
	return nil
}

// BytesToSign returns the message every input proof is bound to
func (tx *UnsignedTransaction) BytesToSign() ([]byte, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return encodePayload(tx.BoxIDs(), tx.DataInputs, tx.Outputs)
}

// ID computes the transaction id
func (tx *UnsignedTransaction) ID() (TxID, error) {
	msg, err := tx.BytesToSign()
	if err != nil {
		return TxID{}, err
	}
	return TxID(crypto.Blake2b256(msg)), nil
}

// BoxIDs returns the ids of the spent boxes in input order
func (tx *UnsignedTransaction) BoxIDs() []BoxID {
	ids := make([]BoxID, len(tx.Inputs))
	for i, in := range tx.Inputs {
		ids[i] = in.BoxID
	}
	return ids
}

// NewSignedTransaction attaches proofs, one per input in order
func NewSignedTransaction(tx *UnsignedTransaction, proofs [][]byte, cost int64) (*SignedTransaction, error) {
	if len(proofs) != len(tx.Inputs) {
		return nil, fmt.Errorf("%w: %d proofs for %d inputs", ErrProofCount, len(proofs), len(tx.Inputs))
	}
	id, err := tx.ID()
	if err != nil {
		return nil, err
	}

	inputs := make([]SignedInput, len(tx.Inputs))
	for i, in := range tx.Inputs {
		inputs[i] = SignedInput{BoxID: in.BoxID, Proof: append([]byte(nil), proofs[i]...)}
	}
	return &SignedTransaction{
		ID:         id,
		Inputs:     inputs,
		DataInputs: append([]BoxID(nil), tx.DataInputs...),
		Outputs:    append([]Output(nil), tx.Outputs...),
		Cost:       cost,
	}, nil
}

// BytesToSign recomputes the signed message from the signed transaction
func (st *SignedTransaction) BytesToSign() ([]byte, error) {
	ids := make([]BoxID, len(st.Inputs))
	for i, in := range st.Inputs {
		ids[i] = in.BoxID
	}
	return encodePayload(ids, st.DataInputs, st.Outputs)
}

// CheckID verifies that the stored id matches the transaction body
func (st *SignedTransaction) CheckID() error {
	msg, err := st.BytesToSign()
	if err != nil {
		return err
	}
	if TxID(crypto.Blake2b256(msg)) != st.ID {
		return ErrIDMismatch
	}
	return nil
}

func encodePayload(inputs, dataInputs []BoxID, outputs []Output) ([]byte, error) {
	payload := signingPayload{
		Inputs:     inputs,
		DataInputs: dataInputs,
		Outputs:    make([]outputPayload, len(outputs)),
	}
	for i, out := range outputs {
		if out.Guard == nil {
			return nil, fmt.Errorf("%w: output %d", ErrMissingGuard, i)
		}
		payload.Outputs[i] = outputPayload{
			Value:          out.Value,
			Guard:          out.Guard.Bytes(),
			CreationHeight: out.CreationHeight,
		}
	}

	b, err := rlp.EncodeToBytes(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %v", err)
	}
	return b, nil
}
