package coretypes

// DelegationInconsistency records why an account classified as
// Undelegated rather than Delegated.
type DelegationInconsistency int

const (
	// AccountInvalidOwner means the base account itself is not owned
	// by the delegation program (or fails the fee-payer shape check).
	AccountInvalidOwner DelegationInconsistency = iota
	// DelegationRecordNotFound means the delegation-record PDA does
	// not exist on chain.
	DelegationRecordNotFound
	// DelegationRecordInvalidOwner means the delegation-record PDA
	// exists but is not owned by the delegation program.
	DelegationRecordInvalidOwner
	// DelegationRecordDataInvalid means the delegation-record PDA
	// parsed unsuccessfully; Detail carries the parser's cause string.
	DelegationRecordDataInvalid
)

func (d DelegationInconsistency) String() string {
	switch d {
	case AccountInvalidOwner:
		return "account_invalid_owner"
	case DelegationRecordNotFound:
		return "delegation_record_not_found"
	case DelegationRecordInvalidOwner:
		return "delegation_record_invalid_owner"
	case DelegationRecordDataInvalid:
		return "delegation_record_data_invalid"
	default:
		return "unknown"
	}
}

// AccountChainStateKind tags the AccountChainState sum. Go has no
// native sum type, so AccountChainState is a tagged struct with one
// populated pointer per Kind, following spec's guidance to use
// "an interface with a closed set of concrete types" — here realised
// as a closed enum plus exhaustive accessor methods, which keeps the
// zero-allocation value-type property the spec's "cheap cloneable
// handle" snapshot requirement wants.
type AccountChainStateKind int

const (
	KindFeePayer AccountChainStateKind = iota
	KindUndelegated
	KindDelegated
)

func (k AccountChainStateKind) String() string {
	switch k {
	case KindFeePayer:
		return "fee_payer"
	case KindUndelegated:
		return "undelegated"
	case KindDelegated:
		return "delegated"
	default:
		return "unknown"
	}
}

// FeePayerState: account absent on chain, or present with empty data,
// an on-curve address and owned by the system program.
type FeePayerState struct {
	Lamports uint64
	Owner    Address
}

// UndelegatedState: has data or is not a lamport-only wallet; Reason
// records whether the account, the delegation record, or its parsing
// was the problem. Detail is only populated for DelegationRecordDataInvalid.
type UndelegatedState struct {
	Account Account
	Reason  DelegationInconsistency
	Detail  string
}

// DelegatedState: account is owned by the delegation program and its
// delegation-record PDA exists, is owned by the delegation program,
// and parsed cleanly.
type DelegatedState struct {
	Account          Account
	DelegationRecord DelegationRecord
}

// AccountChainState is the central tagged sum classifying the result
// of fetching an account plus its delegation-record PDA. Classification
// is total and disjoint: every fetch result maps to exactly one Kind.
type AccountChainState struct {
	Kind        AccountChainStateKind
	FeePayer    *FeePayerState
	Undelegated *UndelegatedState
	Delegated   *DelegatedState
}

// NewFeePayer constructs a FeePayer-classified state.
func NewFeePayer(lamports uint64, owner Address) AccountChainState {
	return AccountChainState{Kind: KindFeePayer, FeePayer: &FeePayerState{Lamports: lamports, Owner: owner}}
}

// NewUndelegated constructs an Undelegated-classified state.
func NewUndelegated(account Account, reason DelegationInconsistency, detail string) AccountChainState {
	return AccountChainState{Kind: KindUndelegated, Undelegated: &UndelegatedState{Account: account, Reason: reason, Detail: detail}}
}

// NewDelegated constructs a Delegated-classified state.
func NewDelegated(account Account, record DelegationRecord) AccountChainState {
	return AccountChainState{Kind: KindDelegated, Delegated: &DelegatedState{Account: account, DelegationRecord: record}}
}

func (s AccountChainState) IsFeePayer() bool    { return s.Kind == KindFeePayer }
func (s AccountChainState) IsUndelegated() bool { return s.Kind == KindUndelegated }
func (s AccountChainState) IsDelegated() bool   { return s.Kind == KindDelegated }

// AccountChainSnapshot is an immutable value object: the classified
// state of one account plus the slot observed when it was fetched.
type AccountChainSnapshot struct {
	Pubkey     Address
	AtSlot     uint64
	ChainState AccountChainState
}

// TransactionAccountsHolder is extracted from a signed transaction:
// its writable/readonly/payer account lists. Invariant: Payer is an
// element of Writable or Readonly and is the transaction message's
// first account key.
//
// NOTE: address-table lookups are not resolved here (spec §4.5,
// §9 "Open question — address tables"); a delegated account referenced
// only through a lookup table is invisible to this holder. This gap is
// inherited unresolved, per spec.
type TransactionAccountsHolder struct {
	Writable []Address
	Readonly []Address
	Payer    Address
}

// TransactionAccountsSnapshot is parallel to the holder but carries
// classified states instead of bare addresses.
type TransactionAccountsSnapshot struct {
	Writable []AccountChainSnapshot
	Readonly []AccountChainSnapshot
	Payer    Address
}
