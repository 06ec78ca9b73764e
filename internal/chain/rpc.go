package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"notaryapi/internal/apperr"
	"notaryapi/internal/config"
)

// rpcHTTP is a minimal JSON-RPC 2.0 client for the ledger node.
type rpcHTTP struct {
	url    string
	client *http.Client
}

// NewRPCClient builds the ledger RPC client from config.
func NewRPCClient(cfg config.ChainConfig) (RPCClient, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("chain rpc url is required")
	}
	return &rpcHTTP{
		url:    cfg.RPCURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *rpcHTTP) call(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: rpc %s: %v", apperr.ErrExternalService, method, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: rpc %s: decode response: %v", apperr.ErrExternalService, method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%w: rpc %s: %d %s", apperr.ErrExternalService, method, envelope.Error.Code, envelope.Error.Message)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("%w: rpc %s: decode result: %v", apperr.ErrExternalService, method, err)
		}
	}
	return nil
}

// GetBalance returns the lamport balance of an address.
func (c *rpcHTTP) GetBalance(ctx context.Context, address string) (int64, error) {
	var res struct {
		Value int64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", []any{address}, &res); err != nil {
		return 0, err
	}
	return res.Value, nil
}

// SubmitAndConfirm sends the transaction and polls for confirmation.
func (c *rpcHTTP) SubmitAndConfirm(ctx context.Context, rawTx []byte) (string, error) {
	var signature string
	encoded := base64.StdEncoding.EncodeToString(rawTx)
	if err := c.call(ctx, "sendTransaction", []any{encoded, map[string]string{"encoding": "base64"}}, &signature); err != nil {
		return "", err
	}

	for {
		var statuses struct {
			Value []*struct {
				ConfirmationStatus string `json:"confirmationStatus"`
			} `json:"value"`
		}
		if err := c.call(ctx, "getSignatureStatuses", []any{[]string{signature}}, &statuses); err != nil {
			return "", err
		}
		if len(statuses.Value) > 0 && statuses.Value[0] != nil {
			if s := statuses.Value[0].ConfirmationStatus; s == "confirmed" || s == "finalized" {
				return signature, nil
			}
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: confirm %s: %v", apperr.ErrExternalService, signature, ctx.Err())
		case <-time.After(time.Second):
		}
	}
}
