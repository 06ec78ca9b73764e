// Package email sends templated notifications. Sending is a non-critical
// side effect everywhere it is used: callers log failures and move on.
package email

import "context"

// Template names used by the services.
const (
	TemplateCheckoutLink = "checkout_link"
	TemplateNFTTransfer  = "nft_transfer"
	TemplateDocumentDone = "document_done"
)

// Sender delivers one templated message.
type Sender interface {
	Send(ctx context.Context, to, template string, data map[string]string) error
}
