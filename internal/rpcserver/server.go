// Package rpcserver implements the director's client-facing JSON-RPC
// 2.0 HTTP listener (spec.md §6): sendTransaction is decoded and routed
// through C5/C6/C7, every other method is forwarded to the chain side
// verbatim, preserving whatever JSON-RPC result or error object the
// downstream returned.
package rpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/magicblock-labs/conjunto-director/internal/director/coretypes"
	"github.com/magicblock-labs/conjunto-director/internal/director/routing"
	"github.com/magicblock-labs/conjunto-director/internal/director/snapshot"
	"github.com/magicblock-labs/conjunto-director/internal/director/txdecode"
	"github.com/magicblock-labs/conjunto-director/observability/logging"
	"github.com/magicblock-labs/conjunto-director/observability/metrics"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB, matching teacher's rpc/http.go ceiling.

	codeParseError    = -32700
	codeInvalidParams = -32602
	// codeUnauthorized matches the teacher's rpc/http.go convention.
	codeUnauthorized = -32001
	// codeValidationError is director-specific: ValidateEphemeral
	// rejections need a code distinct from serverErrTransactionUnroutable
	// so callers can tell "writable account not delegated" apart from a
	// generic unroutable decision. -32001 is already spoken for by
	// codeUnauthorized above, so this takes the next free slot in the
	// teacher's negative-code space.
	codeValidationError = -32011

	// Positive server-error codes, spec.md §6.
	serverErrFailedToFetchEndpointInformation = 0
	serverErrTransactionUnroutable            = 1
	serverErrRpcClientError                   = 2
)

// Forwarder posts a raw JSON-RPC request body to a downstream endpoint
// and returns the raw response body unparsed. chainclient.JSONRPCClient
// implements this via its Forward method.
type Forwarder interface {
	Forward(ctx context.Context, body []byte) ([]byte, error)
}

// Server holds the collaborators the JSON-RPC handlers need: the two
// downstream forwarders and the C4/C5 snapshot pipeline sendTransaction
// routes through.
type Server struct {
	Chain     Forwarder
	Ephemeral Forwarder
	Snapshots *snapshot.TransactionAccountsSnapshotter
	Logger    *slog.Logger

	// JWT, when non-nil with Enable set, requires every request to carry
	// a valid bearer token (spec.md §6's listener is otherwise
	// unauthenticated).
	JWT *JWTConfig

	jwtOnce     sync.Once
	jwtVerifier *jwtVerifier
	jwtErr      error
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// verifier lazily builds the jwtVerifier from JWT on first use, caching
// both the verifier and any configuration error.
func (s *Server) verifier() (*jwtVerifier, error) {
	s.jwtOnce.Do(func() {
		s.jwtVerifier, s.jwtErr = newJWTVerifier(*s.JWT)
	})
	return s.jwtVerifier, s.jwtErr
}

// requireAuth enforces JWT.Enable, matching the teacher's requireAuth:
// a missing/invalid Authorization header is rejected before the request
// reaches routing. The raw header is never logged unmasked.
func (s *Server) requireAuth(r *http.Request) *rpcError {
	if s.JWT == nil || !s.JWT.Enable {
		return nil
	}
	verifier, err := s.verifier()
	if err != nil {
		return &rpcError{Code: codeUnauthorized, Message: "JWT authentication misconfigured", Data: err.Error()}
	}
	header := r.Header.Get("Authorization")
	token, err := extractBearerToken(header)
	if err != nil {
		s.logger().Warn("rejected unauthenticated rpc request", logging.MaskField("authorization", header))
		return &rpcError{Code: codeUnauthorized, Message: err.Error()}
	}
	if _, err := verifier.Verify(token); err != nil {
		s.logger().Warn("rejected rpc request with invalid bearer token", logging.MaskField("authorization", header))
		return &rpcError{Code: codeUnauthorized, Message: "invalid JWT", Data: err.Error()}
	}
	return nil
}

// NewRouter builds the chi mux exposing the single JSON-RPC endpoint,
// grounded on the teacher's gateway/routes/router.go chi wiring.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Post("/", s.handleRPC)
	return r
}

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type rpcErrorResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Error   *rpcError       `json:"error"`
}

func writeRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	resp := rpcErrorResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &rpcError{Code: code, Message: message, Data: data}}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeRPCError(w, nil, codeParseError, "failed to read request body", nil)
		return
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeRPCError(w, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}

	if authErr := s.requireAuth(r); authErr != nil {
		writeRPCError(w, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}

	if req.Method != "sendTransaction" {
		s.forwardVerbatim(w, r.Context(), s.Chain, body)
		return
	}

	s.handleSendTransaction(w, r.Context(), req, body)
}

func (s *Server) forwardVerbatim(w http.ResponseWriter, ctx context.Context, fwd Forwarder, body []byte) {
	resp, err := fwd.Forward(ctx, body)
	if err != nil {
		writeRPCError(w, nil, serverErrRpcClientError, fmt.Sprintf("failed to forward request: %v", err), nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(resp)
}

// sendTransactionConfig mirrors Solana's RpcSendTransactionConfig; only
// the fields the director's routing needs are decoded, the rest pass
// through untouched in rawBody when forwarding.
type sendTransactionConfig struct {
	Encoding       string  `json:"encoding"`
	MinContextSlot *uint64 `json:"minContextSlot"`
}

func (s *Server) handleSendTransaction(w http.ResponseWriter, ctx context.Context, req rpcRequest, rawBody []byte) {
	if len(req.Params) == 0 {
		writeRPCError(w, req.ID, codeInvalidParams, "sendTransaction requires a transaction parameter", nil)
		return
	}

	var encodedTx string
	if err := json.Unmarshal(req.Params[0], &encodedTx); err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, "invalid transaction parameter", err.Error())
		return
	}

	var cfg sendTransactionConfig
	if len(req.Params) > 1 {
		if err := json.Unmarshal(req.Params[1], &cfg); err != nil {
			writeRPCError(w, req.ID, codeInvalidParams, "invalid sendTransaction config", err.Error())
			return
		}
	}

	encoding, err := txdecode.ParseEncoding(cfg.Encoding)
	if err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	holder, err := txdecode.DecodeAccountsHolder(encodedTx, encoding)
	if err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	start := time.Now()
	snap, err := s.Snapshots.FromAccountsHolder(ctx, holder, cfg.MinContextSlot)
	metrics.Routing().ObserveFetchLatency("send_transaction", time.Since(start))
	if err != nil {
		s.logger().Warn("failed to fetch endpoint information", "error", err)
		writeRPCError(w, req.ID, serverErrFailedToFetchEndpointInformation,
			fmt.Sprintf("failed to fetch endpoint information: %v", err), nil)
		return
	}

	endpoint := routing.EndpointOf(snap)

	switch ep := endpoint.(type) {
	case routing.ChainEndpoint:
		metrics.Routing().ObserveDecision("chain")
		s.forwardVerbatim(w, ctx, s.Chain, rawBody)
	case routing.EphemeralEndpoint:
		if verr := routing.ValidateEphemeral(ep.Snapshot); verr != nil {
			metrics.Routing().ObserveValidationFailure("undelegated_writable")
			writeRPCError(w, req.ID, codeValidationError, verr.Error(), validationErrorData(verr))
			return
		}
		metrics.Routing().ObserveDecision("ephemeral")
		s.forwardVerbatim(w, ctx, s.Ephemeral, rawBody)
	case routing.UnroutableEndpoint:
		metrics.Routing().ObserveDecision("unroutable")
		writeRPCError(w, req.ID, serverErrTransactionUnroutable, "transaction is unroutable", unroutableData(ep.Reason))
	default:
		writeRPCError(w, req.ID, serverErrRpcClientError, "unknown endpoint kind", nil)
	}
}

func validationErrorData(err error) interface{} {
	var derr *coretypes.DirectorError
	if !errors.As(err, &derr) || len(derr.Pubkeys) == 0 {
		return nil
	}
	return map[string]interface{}{"pubkeys": pubkeyStrings(derr.Pubkeys)}
}

func unroutableData(reason routing.UnroutableReason) interface{} {
	return map[string]interface{}{
		"writableUndelegated": snapshotPubkeys(reason.WritableUndelegated),
		"writableDelegated":   snapshotPubkeys(reason.WritableDelegated),
	}
}

func pubkeyStrings(addrs []coretypes.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}

func snapshotPubkeys(snaps []coretypes.AccountChainSnapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.Pubkey.String()
	}
	return out
}
