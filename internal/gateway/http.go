package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"notaryapi/internal/apperr"
	"notaryapi/internal/config"
)

// httpClient implements Client against a hosted-checkout REST gateway.
type httpClient struct {
	baseURL  string
	clientID string
	apiKey   string
	client   *http.Client
}

// New builds the gateway client from config.
func New(cfg config.GatewayConfig) (Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("payment gateway url is required")
	}
	return &httpClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		clientID: cfg.ClientID,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *httpClient) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-api-key", c.apiKey)
	return c.client.Do(req)
}

// CreateLink registers the order with the gateway and returns the checkout URL.
func (c *httpClient) CreateLink(ctx context.Context, p CreateLinkParams) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/payment-requests", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("%w: create payment link: %v", apperr.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: create payment link: status %d", apperr.ErrExternalService, resp.StatusCode)
	}

	var out struct {
		Data struct {
			CheckoutURL string `json:"checkoutUrl"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: create payment link: decode response: %v", apperr.ErrExternalService, err)
	}
	if out.Data.CheckoutURL == "" {
		return "", fmt.Errorf("%w: create payment link: empty checkout url", apperr.ErrExternalService)
	}
	return out.Data.CheckoutURL, nil
}

// LinkStatus queries the gateway-side status for an order code.
func (c *httpClient) LinkStatus(ctx context.Context, orderCode int64) (string, error) {
	url := c.baseURL + "/v2/payment-requests/" + strconv.FormatInt(orderCode, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("%w: payment link status: %v", apperr.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: payment link status: status %d", apperr.ErrExternalService, resp.StatusCode)
	}

	var out struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: payment link status: decode response: %v", apperr.ErrExternalService, err)
	}
	return out.Data.Status, nil
}
