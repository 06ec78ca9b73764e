package model

import "time"

// WalletItem is one NFT record inside a user's wallet. A wallet holds at most
// one item per distinct mint address; Amount counts owned copies and never
// goes negative.
type WalletItem struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	MintAddress     string    `json:"mint_address"`
	MetadataAddress string    `json:"metadata_address,omitempty"`
	TxSignature     string    `json:"tx_signature,omitempty"`
	Filename        string    `json:"filename"`
	MetadataURI     string    `json:"metadata_uri"`
	Amount          int64     `json:"amount"`
	ExplorerLink    string    `json:"explorer_link,omitempty"`
	SolscanLink     string    `json:"solscan_link,omitempty"`
	IPFSLink        string    `json:"ipfs_link,omitempty"`
	MintedAt        time.Time `json:"minted_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
