// Package chainclient defines the capability interfaces the core is
// parameterised over (C2 account provider, C3 signature-status
// provider) and a JSON-RPC 2.0 implementation of both against a
// Solana-style validator endpoint.
package chainclient

import (
	"context"

	"github.com/magicblock-labs/conjunto-director/internal/director/coretypes"
)

// AccountProvider is C2: fetch one or many accounts from a remote
// endpoint. Both methods are suspension points; callers may invoke
// many in parallel.
type AccountProvider interface {
	// GetAccount returns the observed slot even when the account is
	// absent (acc == nil).
	GetAccount(ctx context.Context, addr coretypes.Address, minContextSlot *uint64) (slot uint64, acc *coretypes.Account, err error)

	// GetMultipleAccounts returns a result of the same length as addrs,
	// order preserved; nil entries mark absent accounts.
	GetMultipleAccounts(ctx context.Context, addrs []coretypes.Address, minContextSlot *uint64) (slot uint64, accs []*coretypes.Account, err error)
}

// TxResult is the commitment result of a signature: a simple
// success/failure outcome, not interpreted further by the core.
type TxResult struct {
	Err string // empty on success
}

// SignatureStatusProvider is C3. Unknown signatures map to a nil
// result rather than an error; transient "signature not found" errors
// from the underlying RPC client must be normalised to (nil, nil) by
// implementations rather than propagated.
type SignatureStatusProvider interface {
	GetSignatureStatus(ctx context.Context, sig coretypes.Signature) (*TxResult, error)
}
