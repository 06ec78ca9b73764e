// Package pinning persists files on a content-addressed storage network and
// keeps them retrievable by content identifier.
package pinning

import (
	"context"
	"io"
)

// Service pins content and resolves gateway links.
type Service interface {
	// Pin uploads the content under the given name and returns its
	// content-addressed URI (ipfs://<cid>).
	Pin(ctx context.Context, r io.Reader, name string) (string, error)
	// GatewayLink converts a content URI into an HTTP gateway URL for
	// browser viewing.
	GatewayLink(uri string) string
}
