// Package encryption wraps the decentralized access-control collaborator that
// encrypts document content before it is pinned. One concrete strategy is
// carried; the access-control-condition schema travels as a versioned policy.
package encryption

import "context"

// AccessPolicy is the versioned access-control-condition structure evaluated
// by the service when someone asks to decrypt.
type AccessPolicy struct {
	Version    string   `json:"version"`
	DocumentID string   `json:"document_id"`
	AllowedIDs []string `json:"allowed_ids"`
}

// Sealed is an encrypted payload plus the key reference needed to decrypt it.
type Sealed struct {
	Ciphertext []byte `json:"ciphertext"`
	KeyRef     string `json:"key_ref"`
}

// Service encrypts and decrypts document bytes under an access policy.
type Service interface {
	Encrypt(ctx context.Context, plaintext []byte, policy AccessPolicy) (*Sealed, error)
	Decrypt(ctx context.Context, sealed *Sealed, policy AccessPolicy) ([]byte, error)
}
