// Package snapshot implements C4 (chain-snapshot provider) and C5
// (transaction-accounts snapshotter).
package snapshot

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/magicblock-labs/conjunto-director/internal/director/addresses"
	"github.com/magicblock-labs/conjunto-director/internal/director/chainclient"
	"github.com/magicblock-labs/conjunto-director/internal/director/coretypes"
	"github.com/magicblock-labs/conjunto-director/internal/director/delegation"
)

// ChainSnapshotProvider is C4: classify a single account's on-chain
// state via one batched account+delegation-record fetch.
type ChainSnapshotProvider struct {
	Accounts chainclient.AccountProvider
	// PDA derives a delegation-record address from an account address.
	// Defaults to addresses.DelegationRecordPDA when nil.
	PDA func(coretypes.Address) coretypes.Address
}

func (p *ChainSnapshotProvider) pda() func(coretypes.Address) coretypes.Address {
	if p.PDA != nil {
		return p.PDA
	}
	return addresses.DelegationRecordPDA
}

// FetchChainSnapshot implements C4. See spec.md §4.4 for the
// classification algorithm; this is a direct transliteration.
func (p *ChainSnapshotProvider) FetchChainSnapshot(ctx context.Context, addr coretypes.Address, minContextSlot *uint64) (coretypes.AccountChainSnapshot, error) {
	delegationPDA := p.pda()(addr)

	slot, accs, err := p.Accounts.GetMultipleAccounts(ctx, []coretypes.Address{addr, delegationPDA}, minContextSlot)
	if err != nil {
		return coretypes.AccountChainSnapshot{}, coretypes.NewRpcError("fetch chain snapshot", err)
	}
	if len(accs) != 2 {
		return coretypes.AccountChainSnapshot{}, coretypes.NewFetchConsistencyError(
			fmt.Sprintf("expected 2 accounts from batched fetch, got %d", len(accs)))
	}
	a, r := accs[0], accs[1]

	state := classify(addr, a, r)
	return coretypes.AccountChainSnapshot{Pubkey: addr, AtSlot: slot, ChainState: state}, nil
}

func classify(addr coretypes.Address, a, r *coretypes.Account) coretypes.AccountChainState {
	if a == nil {
		return coretypes.NewFeePayer(0, addresses.SystemProgram)
	}

	if a.Owner != addresses.DelegationProgram {
		if len(a.Data) == 0 && a.Owner == addresses.SystemProgram && addresses.IsOnCurve(addr) {
			return coretypes.NewFeePayer(a.Lamports, a.Owner)
		}
		return coretypes.NewUndelegated(*a, coretypes.AccountInvalidOwner, "")
	}

	if r == nil {
		return coretypes.NewUndelegated(*a, coretypes.DelegationRecordNotFound, "")
	}
	if r.Owner != addresses.DelegationProgram {
		return coretypes.NewUndelegated(*a, coretypes.DelegationRecordInvalidOwner, "")
	}

	record, err := delegation.ParseRecord(r.Data)
	if err != nil {
		return coretypes.NewUndelegated(*a, coretypes.DelegationRecordDataInvalid, err.Error())
	}
	return coretypes.NewDelegated(*a, record)
}

// TransactionAccountsSnapshotter is C5: fan out C4 calls across a
// transaction's writable and readonly account lists.
type TransactionAccountsSnapshotter struct {
	Provider *ChainSnapshotProvider
}

// FromAccountsHolder implements C5. Writable and readonly addresses
// are all fetched concurrently; order is preserved within each list;
// any single C4 failure cancels the rest and fails the whole call.
func (s *TransactionAccountsSnapshotter) FromAccountsHolder(ctx context.Context, holder coretypes.TransactionAccountsHolder, minContextSlot *uint64) (coretypes.TransactionAccountsSnapshot, error) {
	g, gctx := errgroup.WithContext(ctx)

	writable := make([]coretypes.AccountChainSnapshot, len(holder.Writable))
	readonly := make([]coretypes.AccountChainSnapshot, len(holder.Readonly))

	for i, addr := range holder.Writable {
		i, addr := i, addr
		g.Go(func() error {
			snap, err := s.Provider.FetchChainSnapshot(gctx, addr, minContextSlot)
			if err != nil {
				return err
			}
			writable[i] = snap
			return nil
		})
	}
	for i, addr := range holder.Readonly {
		i, addr := i, addr
		g.Go(func() error {
			snap, err := s.Provider.FetchChainSnapshot(gctx, addr, minContextSlot)
			if err != nil {
				return err
			}
			readonly[i] = snap
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return coretypes.TransactionAccountsSnapshot{}, err
	}

	return coretypes.TransactionAccountsSnapshot{
		Writable: writable,
		Readonly: readonly,
		Payer:    holder.Payer,
	}, nil
}
