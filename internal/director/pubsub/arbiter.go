package pubsub

import (
	"context"
	"log/slog"

	"github.com/magicblock-labs/conjunto-director/internal/director/chainclient"
	"github.com/magicblock-labs/conjunto-director/internal/director/coretypes"
)

// RequestEndpoint is the pub/sub and passthrough routing outcome:
// Chain | Ephemeral | Both.
type RequestEndpoint int

const (
	RequestChain RequestEndpoint = iota
	RequestEphemeral
	RequestBoth
)

func (r RequestEndpoint) String() string {
	switch r {
	case RequestChain:
		return "chain"
	case RequestEphemeral:
		return "ephemeral"
	case RequestBoth:
		return "both"
	default:
		return "unknown"
	}
}

// GuideStrategyKind tags the GuideStrategy sum.
type GuideStrategyKind int

const (
	StrategyChain GuideStrategyKind = iota
	StrategyEphemeral
	StrategyBoth
	StrategyTryEphemeralForAccount
	StrategyTryEphemeralForProgram
	StrategyTryEphemeralForSignature
)

// GuideStrategy is the pub/sub intermediate tagged struct (spec.md
// §3's GuideStrategy sum), mirrored after AccountChainState: one Kind
// tag plus the fields relevant to that kind.
type GuideStrategy struct {
	Kind           GuideStrategyKind
	Address        string
	IsSubscription bool
}

// FrameKind tags a WebSocket frame for C9's frame-level dispatch.
type FrameKind int

const (
	FrameText FrameKind = iota
	FrameClose
	FramePing
	FramePong
	FrameBinary
)

// Frame is the minimal shape C9 consumes from the client socket;
// transport-level framing detail lives in internal/pubsubserver.
type Frame struct {
	Kind FrameKind
	Text []byte
}

// Arbiter is C9: combine C8 parsing with C2/C3 lookups against the
// ephemeral side to decide which downstream socket(s) a frame targets.
type Arbiter struct {
	Ephemeral     chainclient.AccountProvider
	EphemeralSigs chainclient.SignatureStatusProvider
	Logger        *slog.Logger
}

func (a *Arbiter) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// GuideMessage implements C9's combined frame+method+strategy
// dispatch. A nil result (with nil error) signals a WebSocket Close
// frame: the caller must tear down both downstream sockets.
func (a *Arbiter) GuideMessage(ctx context.Context, frame Frame) (*RequestEndpoint, error) {
	endpoint := func(r RequestEndpoint) *RequestEndpoint { return &r }

	switch frame.Kind {
	case FrameClose:
		return nil, nil
	case FramePing, FramePong:
		return endpoint(RequestBoth), nil
	case FrameBinary:
		return endpoint(RequestChain), nil
	case FrameText:
		// fall through to method-level dispatch
	default:
		return endpoint(RequestChain), nil
	}

	parsed, err := ParseMessage(frame.Text)
	if err != nil {
		a.logger().Warn("failed to parse pub/sub message, defaulting to chain", "error", err)
		return endpoint(RequestChain), nil
	}

	strategy := guideStrategyOf(parsed)
	resolved := a.resolve(ctx, strategy)
	return endpoint(resolved), nil
}

func guideStrategyOf(msg ParsedClientMessage) GuideStrategy {
	switch m := msg.(type) {
	case PingMessage, PongMessage:
		return GuideStrategy{Kind: StrategyBoth}
	case AccountUnsubscribeMessage, BlockUnsubscribeMessage, LogsUnsubscribeMessage,
		ProgramUnsubscribeMessage, RootUnsubscribeMessage, SignatureUnsubscribeMessage,
		SlotUnsubscribeMessage, SlotsUpdatesUnsubscribeMessage, VoteUnsubscribeMessage:
		return GuideStrategy{Kind: StrategyBoth}
	case BlockSubscribeMessage, RootSubscribeMessage, SlotsUpdatesSubscribeMessage, VoteSubscribeMessage:
		return GuideStrategy{Kind: StrategyChain}
	case SlotSubscribeMessage:
		return GuideStrategy{Kind: StrategyEphemeral}
	case AccountSubscribeMessage:
		return GuideStrategy{Kind: StrategyTryEphemeralForAccount, Address: m.Address, IsSubscription: true}
	case ProgramSubscribeMessage:
		return GuideStrategy{Kind: StrategyTryEphemeralForProgram, Address: m.ProgramID, IsSubscription: true}
	case SignatureSubscribeMessage:
		return GuideStrategy{Kind: StrategyTryEphemeralForSignature, Address: m.Signature, IsSubscription: true}
	case LogsSubscribeMessage:
		switch m.Filter.Kind {
		case LogsFilterAll:
			return GuideStrategy{Kind: StrategyEphemeral}
		case LogsFilterAllWithVotes:
			return GuideStrategy{Kind: StrategyChain}
		case LogsFilterMentions:
			// Only the first mention is consulted (spec.md §4.9).
			return GuideStrategy{Kind: StrategyTryEphemeralForSignature, Address: m.Filter.Mentions[0], IsSubscription: true}
		}
	}
	return GuideStrategy{Kind: StrategyChain}
}

func (a *Arbiter) resolve(ctx context.Context, strategy GuideStrategy) RequestEndpoint {
	switch strategy.Kind {
	case StrategyChain:
		return RequestChain
	case StrategyEphemeral:
		return RequestEphemeral
	case StrategyBoth:
		return RequestBoth
	case StrategyTryEphemeralForAccount:
		return a.guideByAddress(ctx, strategy.Address, false, strategy.IsSubscription)
	case StrategyTryEphemeralForProgram:
		return a.guideByAddress(ctx, strategy.Address, true, strategy.IsSubscription)
	case StrategyTryEphemeralForSignature:
		return a.guideBySignature(ctx, strategy.Address, strategy.IsSubscription)
	default:
		return RequestChain
	}
}

func (a *Arbiter) guideByAddress(ctx context.Context, address string, isProgram, isSubscription bool) RequestEndpoint {
	pubkey, err := coretypes.ParseAddress(address)
	if err != nil {
		return RequestChain
	}
	_, acc, err := a.Ephemeral.GetAccount(ctx, pubkey, nil)
	if err != nil {
		a.logger().Warn("error while fetching account on ephemeral side", "error", err)
		return RequestChain
	}
	if acc == nil {
		if isSubscription {
			return RequestBoth
		}
		return RequestChain
	}
	if isProgram && !acc.Executable {
		return RequestChain
	}
	return RequestEphemeral
}

func (a *Arbiter) guideBySignature(ctx context.Context, sig string, isSubscription bool) RequestEndpoint {
	signature, err := coretypes.ParseSignature(sig)
	if err != nil {
		return RequestChain
	}
	result, err := a.EphemeralSigs.GetSignatureStatus(ctx, signature)
	if err != nil {
		a.logger().Warn("error while fetching signature status on ephemeral side", "error", err)
		return RequestChain
	}
	if result != nil {
		return RequestEphemeral
	}
	if isSubscription {
		return RequestBoth
	}
	return RequestChain
}
