package util

import (
	"encoding/hex"
	"fmt"
)

// NanoErgsPerErg is the number of base units in one coin
const NanoErgsPerErg = 1_000_000_000

// FormatNanoErg renders a base-unit amount as a decimal coin amount
func FormatNanoErg(value uint64) string {
	return fmt.Sprintf("%d.%09d", value/NanoErgsPerErg, value%NanoErgsPerErg)
}

// ShortHex abbreviates an identifier for log output
func ShortHex(b []byte) string {
	s := hex.EncodeToString(b)
	if len(s) <= 16 {
		return s
	}
	return s[:8] + ".." + s[len(s)-8:]
}
