package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
)

// Submitter accepts an asynchronous inference job. The collaborator runs the
// job out of band and reports the outcome to the webhook URL.
type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest) (*Submission, error)
}

type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.inference.example.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIKey),
	}
}

// SubmitRequest carries the model id, the raw tool input, and the callback
// URL the collaborator must invoke on completion. The callback embeds the
// local prediction id and its per-job token.
type SubmitRequest struct {
	Model      string          `json:"model"`
	Input      json.RawMessage `json:"input"`
	WebhookURL string          `json:"webhook"`
}

// Submission is the collaborator's acceptance record; ID is the provider job
// id correlated back on the webhook.
type Submission struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*Submission, error) {
	if c == nil {
		return nil, errors.New("inference client not configured")
	}
	if c.token == "" {
		return nil, errors.New("inference: API key is missing")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("%w: model is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.WebhookURL) == "" {
		return nil, fmt.Errorf("%w: webhook url is required", domain.ErrInvalidInput)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(body))
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
		return nil, fmt.Errorf("%w: inference provider returned status %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	var submission Submission
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&submission); err != nil {
		return nil, fmt.Errorf("%w: decode submission: %v", domain.ErrProviderFailure, err)
	}
	if submission.ID == "" {
		return nil, fmt.Errorf("%w: provider job id missing in response", domain.ErrProviderFailure)
	}
	return &submission, nil
}

var _ Submitter = (*Client)(nil)
