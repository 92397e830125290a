// Package coretypes holds the value types shared by every director
// component: addresses, accounts, delegation records and the closed
// AccountChainState sum. Nothing in this package performs I/O.
package coretypes

import (
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressLen is the fixed width of an on-chain address.
const AddressLen = 32

// Address is a fixed-width 32-byte account identifier. It is a plain
// value type: comparable, usable as a map key, cheap to copy.
type Address [AddressLen]byte

// ErrInvalidAddress is returned when decoding a malformed address.
var ErrInvalidAddress = fmt.Errorf("invalid address")

// ParseAddress decodes a base58-encoded address.
func ParseAddress(s string) (Address, error) {
	var addr Address
	decoded, err := base58.Decode(s)
	if err != nil {
		return addr, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if len(decoded) != AddressLen {
		return addr, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidAddress, AddressLen, len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}

// String renders the address as base58, the display format every
// downstream client expects.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Hex renders the address as a hex string, useful in logs next to
// other hex-encoded fields.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the all-zero sentinel.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Signature is a fixed-width transaction signature, treated as an
// opaque comparable blob by the core.
type Signature [64]byte

// ParseSignature decodes a base58-encoded signature.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	decoded, err := base58.Decode(s)
	if err != nil {
		return sig, fmt.Errorf("invalid signature: %w", err)
	}
	if len(decoded) != len(sig) {
		return sig, fmt.Errorf("invalid signature: want %d bytes, got %d", len(sig), len(decoded))
	}
	copy(sig[:], decoded)
	return sig, nil
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}
