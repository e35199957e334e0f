package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAddress indicates a string that is not a well-formed ledger
// account address.
var ErrInvalidAddress = errors.New("invalid address")

// Address is a 0x-prefixed, 40-hex-digit ledger account identifier.
// Addresses compare case-insensitively; the hex casing carries no meaning
// to this client.
type Address string

// addressLength is the full textual length: "0x" plus 40 hex digits.
const addressLength = 42

// ParseAddress validates s as an account address.
func ParseAddress(s string) (Address, error) {
	if len(s) != addressLength {
		return "", fmt.Errorf("%w: %q is %d characters, want %d", ErrInvalidAddress, s, len(s), addressLength)
	}
	if s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return "", fmt.Errorf("%w: %q has no 0x prefix", ErrInvalidAddress, s)
	}
	for _, c := range s[2:] {
		if !isHexDigit(c) {
			return "", fmt.Errorf("%w: %q contains non-hex character %q", ErrInvalidAddress, s, c)
		}
	}
	return Address(s), nil
}

// Valid reports whether the address is well-formed.
func (a Address) Valid() bool {
	_, err := ParseAddress(string(a))
	return err == nil
}

// Equal compares two addresses ignoring hex casing.
func (a Address) Equal(other Address) bool {
	return strings.EqualFold(string(a), string(other))
}

// Normalized returns the lowercase form, suitable as a map key.
func (a Address) Normalized() Address {
	return Address(strings.ToLower(string(a)))
}

// String returns the address as given.
func (a Address) String() string {
	return string(a)
}

func isHexDigit(c rune) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'f':
		return true
	case c >= 'A' && c <= 'F':
		return true
	}
	return false
}
