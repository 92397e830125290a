// Package addresses holds the fixed program addresses and the
// program-derived-address helpers the director consumes as pure
// external dependencies (spec.md §4.1 "out of scope: ... PDA
// derivation. The core consumes a single pure function").
package addresses

import "github.com/magicblock-labs/conjunto-director/internal/director/coretypes"

// systemProgramArray is the all-zero system program ID.
var systemProgramArray = [32]byte{}

// delegationProgramArray is the delegation program's fixed address,
// "DELeGGvXpWV2fqJUhqcF5ZSYMS4JTLjteaAMARRSaeSh" in base58.
var delegationProgramArray = [32]byte{
	181, 183, 0, 225, 242, 87, 58, 192, 204, 6, 34, 1, 52, 74, 207, 151, 184,
	53, 6, 235, 140, 229, 25, 152, 204, 98, 126, 24, 147, 128, 167, 62,
}

// SystemProgram is the well-known system program address. Accounts
// owned by it and carrying no data are eligible fee payers.
var SystemProgram = coretypes.Address(systemProgramArray)

// DelegationProgram is the well-known delegation program address.
// Accounts it owns may be Delegated; its delegation records live at
// deterministic PDAs derived from the delegated account's address.
var DelegationProgram = coretypes.Address(delegationProgramArray)

// delegationSeed is the PDA seed used to derive a delegation record
// address from a delegated account's address.
var delegationSeed = []byte("delegation")
