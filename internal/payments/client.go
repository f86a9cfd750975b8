package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"server/internal/domain"
)

// API is the surface handlers need from the payment collaborator.
type API interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	BillingPortalURL(ctx context.Context, customerID string) (string, error)
}

type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client talks to the payment collaborator's REST API. It is constructed and
// injected explicitly; there is no process-wide singleton.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.payments.example.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIKey),
	}
}

// CheckoutRequest describes a checkout to open with the provider. Metadata is
// echoed back on webhooks; the caller stores the owning user id there.
type CheckoutRequest struct {
	ProductID     string            `json:"product_id"`
	DiscountCode  string            `json:"discount_code,omitempty"`
	SuccessURL    string            `json:"success_url,omitempty"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Checkout is the provider's checkout descriptor.
type Checkout struct {
	ID     string `json:"id"`
	URL    string `json:"checkout_url"`
	Status string `json:"status"`
}

func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if c == nil {
		return nil, errors.New("payments client not configured")
	}
	if c.token == "" {
		return nil, errors.New("payments: API key is missing")
	}
	if strings.TrimSpace(req.ProductID) == "" {
		return nil, fmt.Errorf("%w: product_id is required", domain.ErrInvalidInput)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkouts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: payment provider returned status %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	var checkout Checkout
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&checkout); err != nil {
		return nil, fmt.Errorf("%w: decode checkout: %v", domain.ErrProviderFailure, err)
	}
	if checkout.ID == "" {
		return nil, fmt.Errorf("%w: checkout id missing in response", domain.ErrProviderFailure)
	}
	return &checkout, nil
}

func (c *Client) BillingPortalURL(ctx context.Context, customerID string) (string, error) {
	if c == nil {
		return "", errors.New("payments client not configured")
	}
	if c.token == "" {
		return "", errors.New("payments: API key is missing")
	}
	if strings.TrimSpace(customerID) == "" {
		return "", fmt.Errorf("%w: customer id is required", domain.ErrInvalidInput)
	}
	endpoint := c.baseURL + "/customers/billing-portal?customer_id=" + url.QueryEscape(customerID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: payment provider returned status %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	var portal struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&portal); err != nil {
		return "", fmt.Errorf("%w: decode portal response: %v", domain.ErrProviderFailure, err)
	}
	return portal.URL, nil
}

var _ API = (*Client)(nil)
