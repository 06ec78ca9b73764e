package model

import "time"

// Document status values. Transitions between them are owned exclusively by
// the workflow package; nothing else writes Status.
const (
	StatusPending          = "pending"
	StatusProcessing       = "processing"
	StatusReadyToSign      = "readyToSign"
	StatusPendingSignature = "pendingSignature"
	StatusAccepted         = "accepted"
	StatusRejected         = "rejected"
)

// RequesterInfo identifies the person asking for notarization.
type RequesterInfo struct {
	FullName    string `json:"full_name"`
	CitizenID   string `json:"citizen_id"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}

// Document represents one notarization request.
// This is a pure domain model with no database-specific dependencies or tags.
type Document struct {
	ID                  string        `json:"id"`
	UserID              string        `json:"user_id"`
	Requester           RequesterInfo `json:"requester"`
	NotarizationField   string        `json:"notarization_field"`
	NotarizationService string        `json:"notarization_service"`
	Amount              int64         `json:"amount"`
	Files               []string      `json:"files"`
	OutputFiles         []string      `json:"output_files"`
	Status              string        `json:"status"`
	Feedback            string        `json:"feedback,omitempty"`
	MetadataURI         string        `json:"metadata_uri,omitempty"`
	MintAddress         string        `json:"mint_address,omitempty"`
	TxSignature         string        `json:"tx_signature,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// Terminal reports whether the document has reached a final status.
func (d *Document) Terminal() bool {
	return d.Status == StatusAccepted || d.Status == StatusRejected
}

// StatusTracking is one append-only audit row recorded for every status
// change of a document.
type StatusTracking struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Status     string    `json:"status"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Feedback   string    `json:"feedback,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RequestSignature tracks the two independent approval flags gathered while a
// document sits in pendingSignature. The flags do not advance Status.
type RequestSignature struct {
	ID                string     `json:"id"`
	DocumentID        string     `json:"document_id"`
	SignatureImageKey string     `json:"signature_image_key,omitempty"`
	UserApproved      bool       `json:"user_approved"`
	UserApprovedAt    *time.Time `json:"user_approved_at,omitempty"`
	NotaryApproved    bool       `json:"notary_approved"`
	NotaryApprovedAt  *time.Time `json:"notary_approved_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// CoSigned reports whether both parties have approved.
func (r *RequestSignature) CoSigned() bool {
	return r.UserApproved && r.NotaryApproved
}
