package chain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrContractNotConfigured = errors.New("chain: MaterialNFT contract address is not set")
	ErrInvalidAddress        = errors.New("chain: invalid contract address")

	addressPattern = regexp.MustCompile(`^0x[a-f0-9]{40}$`)
)

// ParseContractAddress cleans a configured address: control characters
// are dropped, surrounding space trimmed and the result lowercased before
// it is checked.
func ParseContractAddress(raw string) (common.Address, error) {
	clean := strings.ToLower(strings.TrimSpace(strings.Map(func(r rune) rune {
		if r <= 0x1F || (r >= 0x7F && r <= 0x9F) {
			return -1
		}
		return r
	}, raw)))
	if clean == "" || clean == "0x..." {
		return common.Address{}, ErrContractNotConfigured
	}
	if !addressPattern.MatchString(clean) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, raw)
	}
	return common.HexToAddress(clean), nil
}
