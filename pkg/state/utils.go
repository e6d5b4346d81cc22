package state

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseBoxID parses a box id with or without the 0x prefix
func ParseBoxID(s string) (BoxID, error) {
	var id BoxID
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return id, fmt.Errorf("invalid box id: %v", err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("invalid box id: expected %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// DecodeUnsignedTransaction reads a JSON unsigned transaction and checks its shape
func DecodeUnsignedTransaction(r io.Reader) (*UnsignedTransaction, error) {
	var tx UnsignedTransaction
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tx); err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %v", err)
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return &tx, nil
}

// TotalInputValue sums the value of the spent boxes
func (tx *UnsignedTransaction) TotalInputValue() uint64 {
	var total uint64
	for _, in := range tx.Inputs {
		total += in.Value
	}
	return total
}

// TotalOutputValue sums the value of the created boxes
func (tx *UnsignedTransaction) TotalOutputValue() uint64 {
	var total uint64
	for _, out := range tx.Outputs {
		total += out.Value
	}
	return total
}
