package wallet

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsValid reports whether s is a well-formed 0x-prefixed hex address.
func IsValid(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

// Canonicalize validates s and returns the case-folded canonical form used
// as the claim idempotency key.
func Canonicalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !IsValid(s) {
		return "", fmt.Errorf("invalid wallet address: %q", s)
	}
	return strings.ToLower(common.HexToAddress(s).Hex()), nil
}
