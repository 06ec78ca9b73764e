// Package chain holds the ledger collaborators: a JSON-RPC client for
// balance/transaction operations and the mint service that issues
// proof-of-notarization tokens. Both are injected at startup; no package
// level client state.
package chain

import "context"

// RPCClient talks to the ledger node.
type RPCClient interface {
	// GetBalance returns the lamport balance of an address.
	GetBalance(ctx context.Context, address string) (int64, error)
	// SubmitAndConfirm submits a signed transaction and blocks until it is
	// confirmed, returning the transaction signature.
	SubmitAndConfirm(ctx context.Context, rawTx []byte) (string, error)
}

// MintResult is what a successful mint returns.
type MintResult struct {
	MintAddress     string `json:"mint_address"`
	MetadataAddress string `json:"metadata_address"`
	TxSignature     string `json:"tx_signature"`
	ExplorerLink    string `json:"explorer_link"`
	SolscanLink     string `json:"solscan_link"`
}

// Minter issues one NFT per notarized document.
type Minter interface {
	// CreateNFT mints a token named after the document carrying the pinned
	// metadata URI.
	CreateNFT(ctx context.Context, name, metadataURI string) (*MintResult, error)
}
