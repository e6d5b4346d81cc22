package sigma

import (
	"encoding/binary"
	"fmt"

	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"
	"golang.org/x/crypto/blake2b"

	"ergoprover/pkg/crypto"
)

const (
	transcriptLabel = "sigma"

	internalPrefix = 0x00
	leafPrefix     = 0x01
)

// fiatShamirChallenge derives the root challenge from the commitments of the
// whole tree and the message being signed.
func fiatShamirChallenge(root *Node, message []byte) (crypto.Challenge, error) {
	var e crypto.Challenge

	h, err := blake2b.New256(nil)
	if err != nil {
		return e, fmt.Errorf("failed to create transcript hash: %v", err)
	}
	transcript := fiatshamir.NewTranscript(h, transcriptLabel)
	if err := transcript.Bind(transcriptLabel, treeBytes(nil, root)); err != nil {
		return e, fmt.Errorf("failed to bind proof tree: %v", err)
	}
	if err := transcript.Bind(transcriptLabel, message); err != nil {
		return e, fmt.Errorf("failed to bind message: %v", err)
	}
	digest, err := transcript.ComputeChallenge(transcriptLabel)
	if err != nil {
		return e, fmt.Errorf("failed to compute challenge: %v", err)
	}

	copy(e[:], digest[:crypto.ChallengeSize])
	return e, nil
}

// treeBytes serializes the tree in pre-order:
//
//	leaf:     0x01 | u16 len | proposition | u16 len | commitment
//	internal: 0x00 | kind | [k] | u16 child count | children
func treeBytes(buf []byte, n *Node) []byte {
	if n.prop.kind.IsLeaf() {
		prop := n.prop.Bytes()
		commitment := n.a.Bytes()
		if n.prop.kind == KindDHTuple {
			commitment = append(commitment, n.b.Bytes()...)
		}
		buf = append(buf, leafPrefix)
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(prop)))
		buf = append(buf, prop...)
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(commitment)))
		return append(buf, commitment...)
	}

	buf = append(buf, internalPrefix, byte(n.prop.kind))
	if n.prop.kind == KindThreshold {
		buf = append(buf, byte(n.prop.k))
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(n.children)))
	for _, c := range n.children {
		buf = treeBytes(buf, c)
	}
	return buf
}
