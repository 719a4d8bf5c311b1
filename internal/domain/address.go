package domain

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Address is a validated Solana wallet address (base58, 32 bytes decoded).
type Address string

// ErrInvalidAddress is returned when a string fails the address format predicate.
var ErrInvalidAddress = errors.New("invalid solana address")

// Address length bounds in base58 form. The decoded form is always 32 bytes.
const (
	minAddressLen = 32
	maxAddressLen = 44
)

// ParseAddress validates s as a Solana address and returns it as an Address.
// Validation: length 32-44, base58 alphabet only, decodes to exactly 32 bytes.
func ParseAddress(s string) (Address, error) {
	if len(s) < minAddressLen || len(s) > maxAddressLen {
		return "", fmt.Errorf("%w: length %d", ErrInvalidAddress, len(s))
	}

	decoded, err := base58.Decode(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(decoded) != 32 {
		return "", fmt.Errorf("%w: decodes to %d bytes", ErrInvalidAddress, len(decoded))
	}

	return Address(s), nil
}

// IsValidAddress reports whether s satisfies the address format predicate.
func IsValidAddress(s string) bool {
	_, err := ParseAddress(s)
	return err == nil
}

// String returns the base58 form.
func (a Address) String() string {
	return string(a)
}

// OnCurve reports whether the address is a point on the ed25519 curve.
// Wallet addresses are on-curve; program-derived addresses are not.
func (a Address) OnCurve() bool {
	decoded, err := base58.Decode(string(a))
	if err != nil || len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
