package token

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libclaim-go/amount"
)

// RPC method names exposed by the token service.
const (
	MethodMetadata  = "ft_metadata"
	MethodBalanceOf = "ft_balance_of"
	MethodTransfer  = "ft_transfer"
)

// RPCClient is a JSON-RPC client for the token service.
type RPCClient struct {
	url    string
	user   string
	pass   string
	client *http.Client
	nextID atomic.Int64
}

// Compile-time interface check.
var _ Service = (*RPCClient)(nil)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewRPCClient creates a client. Basic Auth is sent when User is non-empty.
func NewRPCClient(cfg RPCConfig) *RPCClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &RPCClient{
		url:  cfg.URL,
		user: cfg.User,
		pass: cfg.Password,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// Call invokes method and decodes the result into result (may be nil).
//
// Transport failures and non-2xx responses without an error object return
// ErrConnectionFailed. An error object in the response returns ErrRPC.
func (c *RPCClient) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("token: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("token: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: HTTP %d", ErrAuthFailed, resp.StatusCode)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrConnectionFailed, err)
	}

	var rpcResp rpcResponse
	decodeErr := json.Unmarshal(respBody, &rpcResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && rpcResp.Error != nil {
			return fmt.Errorf("%w %d: %s", ErrRPC, rpcResp.Error.Code, rpcResp.Error.Message)
		}
		snippet := respBody
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, string(snippet))
	}

	if decodeErr != nil {
		return fmt.Errorf("%w: decode response: %w", ErrInvalidResponse, decodeErr)
	}
	if rpcResp.ID != reqBody.ID {
		return fmt.Errorf("%w: response ID mismatch: expected %d, got %d",
			ErrInvalidResponse, reqBody.ID, rpcResp.ID)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%w %d: %s", ErrRPC, rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: unmarshal result: %w", ErrInvalidResponse, err)
		}
	}
	return nil
}

// Metadata implements Service.
func (c *RPCClient) Metadata(ctx context.Context, tokenID string) (*Metadata, error) {
	var md Metadata
	if err := c.Call(ctx, MethodMetadata, []interface{}{tokenID}, &md); err != nil {
		return nil, err
	}
	return &md, nil
}

// BalanceOf implements Service. The service returns the balance as a
// base-unit decimal string.
func (c *RPCClient) BalanceOf(ctx context.Context, tokenID, account string) (*uint256.Int, error) {
	var raw string
	if err := c.Call(ctx, MethodBalanceOf, []interface{}{tokenID, account}, &raw); err != nil {
		return nil, err
	}
	bal, err := amount.FromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: balance %q: %w", ErrInvalidResponse, raw, err)
	}
	return bal, nil
}

// Transfer implements Service. An error object from the service is a
// definite rejection; everything else is indeterminate.
func (c *RPCClient) Transfer(ctx context.Context, tokenID, receiver string, amt *uint256.Int, memo string) error {
	params := []interface{}{tokenID, receiver, amt.Dec(), memo}
	err := c.Call(ctx, MethodTransfer, params, nil)
	if errors.Is(err, ErrRPC) {
		return fmt.Errorf("%w: %w", ErrTransferRejected, err)
	}
	return err
}
