package routing

import (
	"testing"

	"github.com/magicblock-labs/conjunto-director/internal/director/coretypes"
)

func feePayerSnapshot(addr coretypes.Address) coretypes.AccountChainSnapshot {
	return coretypes.AccountChainSnapshot{Pubkey: addr, ChainState: coretypes.NewFeePayer(0, coretypes.Address{})}
}

func undelegatedSnapshot(addr coretypes.Address) coretypes.AccountChainSnapshot {
	return coretypes.AccountChainSnapshot{Pubkey: addr, ChainState: coretypes.NewUndelegated(coretypes.Account{}, coretypes.AccountInvalidOwner, "")}
}

func delegatedSnapshot(addr coretypes.Address) coretypes.AccountChainSnapshot {
	return coretypes.AccountChainSnapshot{Pubkey: addr, ChainState: coretypes.NewDelegated(coretypes.Account{}, coretypes.DelegationRecord{})}
}

func TestEndpointOfNoWritablesIsChain(t *testing.T) {
	snap := coretypes.TransactionAccountsSnapshot{}
	if _, ok := EndpointOf(snap).(ChainEndpoint); !ok {
		t.Fatalf("expected ChainEndpoint for empty writable set")
	}
}

func TestEndpointOfOnlyFeePayerWritablesIsChain(t *testing.T) {
	snap := coretypes.TransactionAccountsSnapshot{Writable: []coretypes.AccountChainSnapshot{feePayerSnapshot(coretypes.Address{1})}}
	if _, ok := EndpointOf(snap).(ChainEndpoint); !ok {
		t.Fatalf("expected ChainEndpoint for fee-payer-only writables")
	}
}

func TestEndpointOfOnlyDelegatedWritablesIsEphemeral(t *testing.T) {
	snap := coretypes.TransactionAccountsSnapshot{Writable: []coretypes.AccountChainSnapshot{
		delegatedSnapshot(coretypes.Address{1}),
		feePayerSnapshot(coretypes.Address{2}),
	}}
	if _, ok := EndpointOf(snap).(EphemeralEndpoint); !ok {
		t.Fatalf("expected EphemeralEndpoint")
	}
}

func TestEndpointOfOnlyUndelegatedWritablesIsChain(t *testing.T) {
	snap := coretypes.TransactionAccountsSnapshot{Writable: []coretypes.AccountChainSnapshot{
		undelegatedSnapshot(coretypes.Address{1}),
		feePayerSnapshot(coretypes.Address{2}),
	}}
	if _, ok := EndpointOf(snap).(ChainEndpoint); !ok {
		t.Fatalf("expected ChainEndpoint")
	}
}

func TestEndpointOfMixedWritablesIsUnroutable(t *testing.T) {
	u := undelegatedSnapshot(coretypes.Address{1})
	d := delegatedSnapshot(coretypes.Address{2})
	snap := coretypes.TransactionAccountsSnapshot{Writable: []coretypes.AccountChainSnapshot{u, d}}

	endpoint := EndpointOf(snap)
	unroutable, ok := endpoint.(UnroutableEndpoint)
	if !ok {
		t.Fatalf("expected UnroutableEndpoint, got %T", endpoint)
	}
	if len(unroutable.Reason.WritableUndelegated) != 1 || unroutable.Reason.WritableUndelegated[0].Pubkey != u.Pubkey {
		t.Fatalf("WritableUndelegated = %+v", unroutable.Reason.WritableUndelegated)
	}
	if len(unroutable.Reason.WritableDelegated) != 1 || unroutable.Reason.WritableDelegated[0].Pubkey != d.Pubkey {
		t.Fatalf("WritableDelegated = %+v", unroutable.Reason.WritableDelegated)
	}
}

func TestEndpointOfIgnoresReadonlyClassification(t *testing.T) {
	snap := coretypes.TransactionAccountsSnapshot{
		Readonly: []coretypes.AccountChainSnapshot{undelegatedSnapshot(coretypes.Address{1}), delegatedSnapshot(coretypes.Address{2})},
	}
	if _, ok := EndpointOf(snap).(ChainEndpoint); !ok {
		t.Fatalf("expected ChainEndpoint regardless of readonly mix")
	}
}

func TestEndpointOfIsIdempotent(t *testing.T) {
	snap := coretypes.TransactionAccountsSnapshot{Writable: []coretypes.AccountChainSnapshot{delegatedSnapshot(coretypes.Address{1})}}
	first := EndpointOf(snap)
	second := EndpointOf(first.AccountsSnapshot())
	if _, ok := first.(EphemeralEndpoint); !ok {
		t.Fatalf("first call: expected EphemeralEndpoint")
	}
	if _, ok := second.(EphemeralEndpoint); !ok {
		t.Fatalf("second call: expected EphemeralEndpoint")
	}
}

func TestValidateEphemeralRejectsUndelegatedWritable(t *testing.T) {
	snap := coretypes.TransactionAccountsSnapshot{Writable: []coretypes.AccountChainSnapshot{undelegatedSnapshot(coretypes.Address{9})}}
	err := ValidateEphemeral(snap)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var derr *coretypes.DirectorError
	if de, ok := err.(*coretypes.DirectorError); ok {
		derr = de
	} else {
		t.Fatalf("expected *coretypes.DirectorError, got %T", err)
	}
	if derr.Code != coretypes.ErrValidation {
		t.Fatalf("Code = %s, want ErrValidation", derr.Code)
	}
	if len(derr.Pubkeys) != 1 || derr.Pubkeys[0] != (coretypes.Address{9}) {
		t.Fatalf("Pubkeys = %v", derr.Pubkeys)
	}
}

func TestValidateEphemeralAllowsFeePayerAndDelegatedWritables(t *testing.T) {
	snap := coretypes.TransactionAccountsSnapshot{Writable: []coretypes.AccountChainSnapshot{
		feePayerSnapshot(coretypes.Address{1}),
		delegatedSnapshot(coretypes.Address{2}),
	}}
	if err := ValidateEphemeral(snap); err != nil {
		t.Fatalf("ValidateEphemeral: %v", err)
	}
}

func TestValidateEphemeralIgnoresReadonly(t *testing.T) {
	snap := coretypes.TransactionAccountsSnapshot{Readonly: []coretypes.AccountChainSnapshot{undelegatedSnapshot(coretypes.Address{1})}}
	if err := ValidateEphemeral(snap); err != nil {
		t.Fatalf("ValidateEphemeral should ignore readonly: %v", err)
	}
}

func TestValidationPolicyRejectsContradictoryCombination(t *testing.T) {
	p := ValidationPolicy{AllowNewAccounts: true, RequireDelegation: true}
	if err := p.Validate(); err == nil {
		t.Fatalf("expected rejection of contradictory policy")
	}
}

func TestValidationPolicyAllowsOtherCombinations(t *testing.T) {
	for _, p := range []ValidationPolicy{{}, {AllowNewAccounts: true}, {RequireDelegation: true}} {
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate(%+v): %v", p, err)
		}
	}
}
