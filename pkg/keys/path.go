package keys

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// ErrInvalidPath matches every InvalidPathError
var ErrInvalidPath = errors.New("invalid derivation path")

// InvalidPathError describes why a path or one of its segments was rejected.
// Segment is -1 when the error is not tied to a single segment.
type InvalidPathError struct {
	Path    string
	Segment int
	Reason  string
}

func (e *InvalidPathError) Error() string {
	if e.Segment < 0 {
		return fmt.Sprintf("invalid derivation path %q: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("invalid derivation path %q: segment %d: %s", e.Path, e.Segment, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidPath) match
func (e *InvalidPathError) Is(target error) bool {
	return target == ErrInvalidPath
}

// PathSegment is one step of a derivation path. Index must be below 2^31;
// hardening is carried by the flag.
type PathSegment struct {
	Index    uint32
	Hardened bool
}

// childIndex returns the BIP-32 child number
func (s PathSegment) childIndex() uint32 {
	if s.Hardened {
		return s.Index + hdkeychain.HardenedKeyStart
	}
	return s.Index
}

func (s PathSegment) String() string {
	if s.Hardened {
		return strconv.FormatUint(uint64(s.Index), 10) + "'"
	}
	return strconv.FormatUint(uint64(s.Index), 10)
}

// DerivationPath is an immutable sequence of segments starting at the master key
type DerivationPath struct {
	segments []PathSegment
}

const (
	// EIP-3 wallet path prefix m/44'/429'/0'/0
	purposeBIP44 = 44
	coinTypeErgo = 429
)

// NewDerivationPath validates segments and builds a path
func NewDerivationPath(segments ...PathSegment) (DerivationPath, error) {
	for i, s := range segments {
		if s.Index >= hdkeychain.HardenedKeyStart {
			p := DerivationPath{segments: segments}
			return DerivationPath{}, &InvalidPathError{
				Path:    p.String(),
				Segment: i,
				Reason:  fmt.Sprintf("index %d out of range, must be below 2^31", s.Index),
			}
		}
	}
	out := make([]PathSegment, len(segments))
	copy(out, segments)
	return DerivationPath{segments: out}, nil
}

// EIP3Path returns m/44'/429'/0'/0/index
func EIP3Path(index uint32) (DerivationPath, error) {
	return NewDerivationPath(
		PathSegment{Index: purposeBIP44, Hardened: true},
		PathSegment{Index: coinTypeErgo, Hardened: true},
		PathSegment{Index: 0, Hardened: true},
		PathSegment{Index: 0},
		PathSegment{Index: index},
	)
}

// ParseDerivationPath parses paths like m/44'/429'/0'/0/3. Hardened segments
// may be marked with ', h or H.
func ParseDerivationPath(s string) (DerivationPath, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if parts[0] != "m" && parts[0] != "M" {
		return DerivationPath{}, &InvalidPathError{Path: s, Segment: -1, Reason: "path must start with m"}
	}

	segments := make([]PathSegment, 0, len(parts)-1)
	for i, part := range parts[1:] {
		seg := PathSegment{}
		if n := len(part); n > 0 && (part[n-1] == '\'' || part[n-1] == 'h' || part[n-1] == 'H') {
			seg.Hardened = true
			part = part[:n-1]
		}
		idx, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return DerivationPath{}, &InvalidPathError{Path: s, Segment: i, Reason: fmt.Sprintf("bad index %q", part)}
		}
		if idx >= hdkeychain.HardenedKeyStart {
			return DerivationPath{}, &InvalidPathError{
				Path:    s,
				Segment: i,
				Reason:  fmt.Sprintf("index %d out of range, must be below 2^31", idx),
			}
		}
		seg.Index = uint32(idx)
		segments = append(segments, seg)
	}
	return DerivationPath{segments: segments}, nil
}

// Segments returns a copy of the path segments
func (p DerivationPath) Segments() []PathSegment {
	out := make([]PathSegment, len(p.segments))
	copy(out, p.segments)
	return out
}

// Depth returns the number of segments
func (p DerivationPath) Depth() int {
	return len(p.segments)
}

// Child returns a new path extended by one segment
func (p DerivationPath) Child(seg PathSegment) (DerivationPath, error) {
	return NewDerivationPath(append(p.Segments(), seg)...)
}

func (p DerivationPath) String() string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, s := range p.segments {
		sb.WriteByte('/')
		sb.WriteString(s.String())
	}
	return sb.String()
}
