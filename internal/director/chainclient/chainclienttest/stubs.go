// Package chainclienttest provides in-memory stub implementations of
// the C2/C3 capability interfaces for tests, grounded on
// original_source/test-tools/src/account_provider_stub.rs and
// signature_status_provider_stub.rs.
package chainclienttest

import (
	"context"
	"sync"

	"github.com/magicblock-labs/conjunto-director/internal/director/chainclient"
	"github.com/magicblock-labs/conjunto-director/internal/director/coretypes"
)

// AccountProviderStub serves canned accounts keyed by address.
type AccountProviderStub struct {
	AtSlot uint64
	Err    error

	// BatchLen, when non-nil, overrides the length of the slice
	// GetMultipleAccounts returns, letting tests simulate a downstream
	// returning the wrong number of entries for a batched fetch.
	BatchLen *int

	mu       sync.RWMutex
	accounts map[coretypes.Address]*coretypes.Account
}

func NewAccountProviderStub() *AccountProviderStub {
	return &AccountProviderStub{accounts: make(map[coretypes.Address]*coretypes.Account)}
}

// Add registers an account at the given address. Passing a nil
// account models the address being absent on chain.
func (s *AccountProviderStub) Add(addr coretypes.Address, acc *coretypes.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[addr] = acc
}

func (s *AccountProviderStub) get(addr coretypes.Address) *coretypes.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[addr]
}

func (s *AccountProviderStub) GetAccount(_ context.Context, addr coretypes.Address, _ *uint64) (uint64, *coretypes.Account, error) {
	if s.Err != nil {
		return 0, nil, s.Err
	}
	return s.AtSlot, s.get(addr), nil
}

func (s *AccountProviderStub) GetMultipleAccounts(_ context.Context, addrs []coretypes.Address, _ *uint64) (uint64, []*coretypes.Account, error) {
	if s.Err != nil {
		return 0, nil, s.Err
	}
	n := len(addrs)
	if s.BatchLen != nil {
		n = *s.BatchLen
	}
	out := make([]*coretypes.Account, n)
	for i := 0; i < n && i < len(addrs); i++ {
		out[i] = s.get(addrs[i])
	}
	return s.AtSlot, out, nil
}

var _ chainclient.AccountProvider = (*AccountProviderStub)(nil)

// SignatureStatusProviderStub serves a canned status for one signature
// at a time, matching the upstream stub's single-slot shape.
type SignatureStatusProviderStub struct {
	Status *chainclient.TxResult
	Err    error
}

func (s *SignatureStatusProviderStub) GetSignatureStatus(_ context.Context, _ coretypes.Signature) (*chainclient.TxResult, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Status, nil
}

var _ chainclient.SignatureStatusProvider = (*SignatureStatusProviderStub)(nil)
