package chainclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/magicblock-labs/conjunto-director/internal/director/coretypes"
)

const jsonRPCVersion = "2.0"

// rpcRequest/rpcResponse mirror the JSON-RPC envelope the teacher's
// own rpc/http.go server speaks, reused here on the client side for
// the outbound calls the director makes to chain and ephemeral.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// JSONRPCClient implements AccountProvider and SignatureStatusProvider
// against a Solana-style JSON-RPC 2.0 HTTP endpoint.
type JSONRPCClient struct {
	URL        string
	HTTPClient *http.Client
}

// NewJSONRPCClient constructs a client with a sane default timeout.
// The core itself imposes no timeouts (spec.md §5); this default is a
// transport-level safety net, overridable via HTTPClient.
func NewJSONRPCClient(url string) *JSONRPCClient {
	return &JSONRPCClient{URL: url, HTTPClient: &http.Client{Timeout: 30 * time.Second}}
}

func (c *JSONRPCClient) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	req := rpcRequest{JSONRPC: jsonRPCVersion, ID: 1, Method: method, Params: params}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}

// Forward posts a raw JSON-RPC request body to the endpoint and
// returns the raw response body unparsed, preserving whatever
// JSON-RPC result or error object the downstream returned (spec.md §6:
// "forwarded ... verbatim, preserving JSON-RPC error objects").
func (c *JSONRPCClient) Forward(ctx context.Context, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

type contextOpts struct {
	Slot uint64 `json:"slot"`
}

type accountInfoValue struct {
	Owner      string  `json:"owner"`
	Lamports   uint64  `json:"lamports"`
	Data       rpcData `json:"data"`
	Executable bool    `json:"executable"`
}

// rpcData decodes Solana's ["<base64>", "base64"] account data tuple.
type rpcData struct {
	Bytes []byte
}

func (d *rpcData) UnmarshalJSON(raw []byte) error {
	var pair [2]string
	if err := json.Unmarshal(raw, &pair); err != nil {
		// Some stub endpoints return a bare base64 string; accept that too.
		var s string
		if err2 := json.Unmarshal(raw, &s); err2 != nil {
			return err
		}
		decoded, err3 := base64.StdEncoding.DecodeString(s)
		if err3 != nil {
			return err3
		}
		d.Bytes = decoded
		return nil
	}
	decoded, err := base64.StdEncoding.DecodeString(pair[0])
	if err != nil {
		return err
	}
	d.Bytes = decoded
	return nil
}

type getAccountInfoResult struct {
	Context contextOpts       `json:"context"`
	Value   *accountInfoValue `json:"value"`
}

func accountOptsParam(minContextSlot *uint64) map[string]interface{} {
	opts := map[string]interface{}{"encoding": "base64"}
	if minContextSlot != nil {
		opts["minContextSlot"] = *minContextSlot
	}
	return opts
}

func toAccount(v *accountInfoValue) (*coretypes.Account, error) {
	if v == nil {
		return nil, nil
	}
	owner, err := coretypes.ParseAddress(v.Owner)
	if err != nil {
		return nil, fmt.Errorf("decode owner: %w", err)
	}
	return &coretypes.Account{
		Owner:      owner,
		Lamports:   v.Lamports,
		Data:       v.Data.Bytes,
		Executable: v.Executable,
	}, nil
}

// GetAccount implements AccountProvider.
func (c *JSONRPCClient) GetAccount(ctx context.Context, addr coretypes.Address, minContextSlot *uint64) (uint64, *coretypes.Account, error) {
	var result getAccountInfoResult
	params := []interface{}{addr.String(), accountOptsParam(minContextSlot)}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return 0, nil, fmt.Errorf("getAccountInfo: %w", err)
	}
	acc, err := toAccount(result.Value)
	if err != nil {
		return 0, nil, err
	}
	return result.Context.Slot, acc, nil
}

type getMultipleAccountsResult struct {
	Context contextOpts         `json:"context"`
	Value   []*accountInfoValue `json:"value"`
}

// GetMultipleAccounts implements AccountProvider.
func (c *JSONRPCClient) GetMultipleAccounts(ctx context.Context, addrs []coretypes.Address, minContextSlot *uint64) (uint64, []*coretypes.Account, error) {
	keys := make([]string, len(addrs))
	for i, a := range addrs {
		keys[i] = a.String()
	}
	var result getMultipleAccountsResult
	params := []interface{}{keys, accountOptsParam(minContextSlot)}
	if err := c.call(ctx, "getMultipleAccounts", params, &result); err != nil {
		return 0, nil, fmt.Errorf("getMultipleAccounts: %w", err)
	}
	if len(result.Value) != len(addrs) {
		return 0, nil, fmt.Errorf("getMultipleAccounts: expected %d entries, got %d", len(addrs), len(result.Value))
	}
	accounts := make([]*coretypes.Account, len(result.Value))
	for i, v := range result.Value {
		acc, err := toAccount(v)
		if err != nil {
			return 0, nil, err
		}
		accounts[i] = acc
	}
	return result.Context.Slot, accounts, nil
}

type signatureStatusesResult struct {
	Value []*signatureStatusValue `json:"value"`
}

type signatureStatusValue struct {
	Err            json.RawMessage `json:"err"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}

// GetSignatureStatus implements SignatureStatusProvider. Transient
// "signature not found" RPC errors are normalised to (nil, nil)
// instead of being propagated (spec.md §4.3).
func (c *JSONRPCClient) GetSignatureStatus(ctx context.Context, sig coretypes.Signature) (*TxResult, error) {
	var result signatureStatusesResult
	params := []interface{}{[]string{sig.String()}, map[string]interface{}{"searchTransactionHistory": true}}
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		var rpcErr *rpcError
		if isErr := asRPCError(err, &rpcErr); isErr && isSignatureNotFound(rpcErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("getSignatureStatuses: %w", err)
	}
	if len(result.Value) == 0 || result.Value[0] == nil {
		return nil, nil
	}
	v := result.Value[0]
	txResult := &TxResult{}
	if len(v.Err) > 0 && string(v.Err) != "null" {
		txResult.Err = string(v.Err)
	}
	return txResult, nil
}

func isSignatureNotFound(e *rpcError) bool {
	return e != nil && e.Code == -32004
}

func asRPCError(err error, out **rpcError) bool {
	rErr, ok := err.(*rpcError)
	if !ok {
		return false
	}
	*out = rErr
	return true
}
