package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"notaryapi/internal/apperr"
	"notaryapi/internal/config"
)

// mintHTTP implements Minter against the mint service's REST API. The service
// builds and signs the mint transaction; the raw transaction is then
// submitted through the injected RPC client so confirmation goes over the
// same ledger connection as every other chain call.
type mintHTTP struct {
	url    string
	wallet string
	rpc    RPCClient
	client *http.Client
}

// NewMinter builds the mint client from config and the shared RPC client.
func NewMinter(cfg config.ChainConfig, rpc RPCClient) (Minter, error) {
	if cfg.MintURL == "" {
		return nil, fmt.Errorf("chain mint url is required")
	}
	if rpc == nil {
		return nil, fmt.Errorf("rpc client is required")
	}
	return &mintHTTP{
		url:    cfg.MintURL,
		wallet: cfg.ServiceWallet,
		rpc:    rpc,
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// CreateNFT requests an unsigned-then-signed mint transaction for the given
// name/URI pair, submits it, and returns the resulting addresses and links.
func (m *mintHTTP) CreateNFT(ctx context.Context, name, metadataURI string) (*MintResult, error) {
	payload, err := json.Marshal(map[string]string{
		"name":  name,
		"uri":   metadataURI,
		"payer": m.wallet,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url+"/v1/mint", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: mint request: %v", apperr.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: mint request: status %d", apperr.ErrExternalService, resp.StatusCode)
	}

	var out struct {
		MintAddress     string `json:"mint_address"`
		MetadataAddress string `json:"metadata_address"`
		RawTx           []byte `json:"raw_tx"`
		ExplorerLink    string `json:"explorer_link"`
		SolscanLink     string `json:"solscan_link"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: mint request: decode response: %v", apperr.ErrExternalService, err)
	}

	sig, err := m.rpc.SubmitAndConfirm(ctx, out.RawTx)
	if err != nil {
		return nil, err
	}

	return &MintResult{
		MintAddress:     out.MintAddress,
		MetadataAddress: out.MetadataAddress,
		TxSignature:     sig,
		ExplorerLink:    out.ExplorerLink,
		SolscanLink:     out.SolscanLink,
	}, nil
}
