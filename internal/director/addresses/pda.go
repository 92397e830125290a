package addresses

import (
	"crypto/sha256"

	"github.com/magicblock-labs/conjunto-director/internal/director/coretypes"
)

// DelegationRecordPDA derives the address at which the delegation
// program stores an account's DelegationRecord.
//
// The real algorithm (Ed25519 curve-based find_program_address, see
// original_source/addresses/src/pda.rs) is out of scope for this
// specification: spec.md §4.1 treats PDA derivation as a pure external
// dependency the core merely consumes. This is a documented
// placeholder — deterministic and collision-resistant enough for
// tests and stub providers, but NOT the real on-curve-avoidance
// search a production deployment must use. Callers wire a real
// implementation through the same function-value seam (see
// snapshot.ChainSnapshotProvider.PDA).
func DelegationRecordPDA(account coretypes.Address) coretypes.Address {
	h := sha256.New()
	h.Write(delegationSeed)
	h.Write(account[:])
	h.Write(DelegationProgram[:])
	sum := h.Sum(nil)
	var pda coretypes.Address
	copy(pda[:], sum)
	return pda
}

// IsOnCurve reports whether an address could plausibly be a valid
// Ed25519 public key. The real curve membership test is out of scope
// here too; addresses that fail this placeholder are simply never
// eligible as fee payers (spec.md §4.4 edge case: "is_on_curve failure
// ... address is then never a fee payer"), which keeps the function
// safe to stub conservatively. A production deployment should replace
// this with a real curve check.
func IsOnCurve(addr coretypes.Address) bool {
	return !addr.IsZero()
}
