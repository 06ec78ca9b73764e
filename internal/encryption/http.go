package encryption

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"notaryapi/internal/apperr"
	"notaryapi/internal/config"
)

// httpService implements Service against the encryption collaborator's REST
// API. The policy version from config is stamped onto every request so the
// service evaluates the matching condition schema.
type httpService struct {
	baseURL       string
	apiKey        string
	policyVersion string
	client        *http.Client
}

// New builds the encryption client from config.
func New(cfg config.EncryptionConfig) (Service, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("encryption service url is required")
	}
	return &httpService{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		policyVersion: cfg.PolicyVersion,
		client:        &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (s *httpService) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: encryption %s: %v", apperr.ErrExternalService, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: encryption %s: status %d", apperr.ErrExternalService, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: encryption %s: decode response: %v", apperr.ErrExternalService, path, err)
	}
	return nil
}

// Encrypt seals plaintext under the given policy.
func (s *httpService) Encrypt(ctx context.Context, plaintext []byte, policy AccessPolicy) (*Sealed, error) {
	policy.Version = s.policyVersion
	var sealed Sealed
	in := struct {
		Plaintext []byte       `json:"plaintext"`
		Policy    AccessPolicy `json:"policy"`
	}{plaintext, policy}
	if err := s.post(ctx, "/v1/encrypt", in, &sealed); err != nil {
		return nil, err
	}
	return &sealed, nil
}

// Decrypt recovers plaintext when the policy admits the caller.
func (s *httpService) Decrypt(ctx context.Context, sealed *Sealed, policy AccessPolicy) ([]byte, error) {
	policy.Version = s.policyVersion
	var out struct {
		Plaintext []byte `json:"plaintext"`
	}
	in := struct {
		Sealed *Sealed      `json:"sealed"`
		Policy AccessPolicy `json:"policy"`
	}{sealed, policy}
	if err := s.post(ctx, "/v1/decrypt", in, &out); err != nil {
		return nil, err
	}
	return out.Plaintext, nil
}
