package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"notaryapi/internal/apperr"
	"notaryapi/internal/config"
)

// httpService implements Service against a REST pinning API
// (POST /pinning/pinFileToIPFS with a multipart body).
type httpService struct {
	baseURL    string
	apiKey     string
	gatewayURL string
	client     *http.Client
}

// New builds the pinning client from config.
func New(cfg config.PinningConfig) (Service, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("pinning service url is required")
	}
	return &httpService{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
		client:     &http.Client{Timeout: 120 * time.Second},
	}, nil
}

// Pin streams the content to the pinning service and returns ipfs://<cid>.
func (s *httpService) Pin(ctx context.Context, r io.Reader, name string) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: pin %s: %v", apperr.ErrExternalService, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: pin %s: status %d", apperr.ErrExternalService, name, resp.StatusCode)
	}

	var out struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: pin %s: decode response: %v", apperr.ErrExternalService, name, err)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("%w: pin %s: empty hash in response", apperr.ErrExternalService, name)
	}
	return "ipfs://" + out.IpfsHash, nil
}

// GatewayLink converts ipfs://<cid> into an HTTP gateway URL.
func (s *httpService) GatewayLink(uri string) string {
	return s.gatewayURL + "/" + strings.TrimPrefix(uri, "ipfs://")
}
