// Package routing implements C6 (the transaction routing arbiter) and
// C7 (the writable-account validator), both pure decision functions
// over a classified TransactionAccountsSnapshot.
package routing

import (
	"github.com/magicblock-labs/conjunto-director/internal/director/coretypes"
)

// UnroutableReason is the closed set of reasons C6 may reject a
// transaction as Unroutable.
type UnroutableReason struct {
	WritableUndelegated []coretypes.AccountChainSnapshot
	WritableDelegated   []coretypes.AccountChainSnapshot
}

// Endpoint is a closed interface realised by exactly three concrete
// types, following spec.md §9's guidance to model a Rust tagged enum
// as "an interface with a closed set of concrete types" in Go.
type Endpoint interface {
	AccountsSnapshot() coretypes.TransactionAccountsSnapshot
	isEndpoint()
}

// ChainEndpoint: route the transaction to the canonical chain.
type ChainEndpoint struct {
	Snapshot coretypes.TransactionAccountsSnapshot
}

func (e ChainEndpoint) AccountsSnapshot() coretypes.TransactionAccountsSnapshot { return e.Snapshot }
func (ChainEndpoint) isEndpoint()                                              {}

// EphemeralEndpoint: route the transaction to the ephemeral validator.
type EphemeralEndpoint struct {
	Snapshot coretypes.TransactionAccountsSnapshot
}

func (e EphemeralEndpoint) AccountsSnapshot() coretypes.TransactionAccountsSnapshot {
	return e.Snapshot
}
func (EphemeralEndpoint) isEndpoint() {}

// UnroutableEndpoint: neither side can safely execute this transaction.
type UnroutableEndpoint struct {
	Snapshot coretypes.TransactionAccountsSnapshot
	Reason   UnroutableReason
}

func (e UnroutableEndpoint) AccountsSnapshot() coretypes.TransactionAccountsSnapshot {
	return e.Snapshot
}
func (UnroutableEndpoint) isEndpoint() {}

// EndpointOf implements C6. Pure; decision table keyed on whether the
// writable set contains any Undelegated and/or any Delegated accounts
// (spec.md §4.6). FeePayer writables count toward neither bucket and
// never by themselves block a route; readonly classification never
// affects the decision.
func EndpointOf(snap coretypes.TransactionAccountsSnapshot) Endpoint {
	var undelegated, delegated []coretypes.AccountChainSnapshot
	for _, w := range snap.Writable {
		switch {
		case w.ChainState.IsUndelegated():
			undelegated = append(undelegated, w)
		case w.ChainState.IsDelegated():
			delegated = append(delegated, w)
		}
	}

	switch {
	case len(undelegated) == 0 && len(delegated) == 0:
		return ChainEndpoint{Snapshot: snap}
	case len(undelegated) == 0:
		return EphemeralEndpoint{Snapshot: snap}
	case len(delegated) == 0:
		return ChainEndpoint{Snapshot: snap}
	default:
		return UnroutableEndpoint{
			Snapshot: snap,
			Reason:   UnroutableReason{WritableUndelegated: undelegated, WritableDelegated: delegated},
		}
	}
}

// ValidationPolicy is an unused forward-compatibility hook: the
// default ValidateEphemeral always applies the strict rule below
// regardless of policy. Exposed so a future caller can parameterise
// validation without changing C7's signature.
type ValidationPolicy struct {
	// AllowNewAccounts permits writable accounts absent on chain
	// (FeePayer with zero lamports) that would otherwise be rejected
	// under a stricter policy than spec.md §4.7 defines.
	AllowNewAccounts bool
	// RequireDelegation additionally rejects FeePayer writables,
	// requiring every writable to already be Delegated.
	RequireDelegation bool
}

// Validate rejects the one combination that is self-contradictory:
// permitting brand-new accounts while simultaneously requiring every
// writable to already be delegated.
func (p ValidationPolicy) Validate() error {
	if p.AllowNewAccounts && p.RequireDelegation {
		return coretypes.NewValidationError("AllowNewAccounts and RequireDelegation are mutually exclusive", nil)
	}
	return nil
}

// ValidateEphemeral implements C7: reject a snapshot destined for
// ephemeral execution if any writable is Undelegated. Readonlies are
// never inspected; the arbiter (C6) has already ruled out ambiguous
// writable combinations by the time this runs.
func ValidateEphemeral(snap coretypes.TransactionAccountsSnapshot) error {
	var offending []coretypes.Address
	for _, w := range snap.Writable {
		if w.ChainState.IsUndelegated() {
			offending = append(offending, w.Pubkey)
		}
	}
	if len(offending) > 0 {
		return coretypes.NewValidationError("transaction includes undelegated accounts as writable", offending)
	}
	return nil
}
