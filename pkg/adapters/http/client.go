package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/quill/pkg/domain"
)

// DefaultTimeout bounds a single rewrite request.
const DefaultTimeout = 30 * time.Second

// Client requests sentence rewrites from a remote endpoint that speaks the
// POST {sentence} -> {suggestions} protocol served by NewHandler.
type Client struct {
	endpoint string
	http     *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.http = c
	}
}

// NewClient creates a gateway for the given endpoint URL.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestRewrites implements ports.SuggestionGateway.
func (c *Client) RequestRewrites(ctx context.Context, sentence string) ([]string, error) {
	body, err := json.Marshal(suggestionRequest{Sentence: sentence})
	if err != nil {
		return nil, &domain.SuggestionError{Message: "failed to encode request", Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.SuggestionError{Message: "invalid suggestion endpoint", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.SuggestionError{Message: "failed to reach suggestion service", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.SuggestionError{Message: "failed to read suggestion response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		_ = json.Unmarshal(raw, &e)
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			msg = "failed to get suggestions"
		}
		cause := fmt.Errorf("status %d", resp.StatusCode)
		if e.Error != "" {
			cause = fmt.Errorf("status %d: %s", resp.StatusCode, e.Error)
		}
		return nil, &domain.SuggestionError{Message: msg, Cause: cause}
	}

	var out suggestionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &domain.SuggestionError{Message: "malformed suggestion response", Cause: err}
	}
	if out.Suggestions == nil {
		return nil, &domain.SuggestionError{Message: "malformed suggestion response", Cause: fmt.Errorf("missing suggestions field")}
	}
	return out.Suggestions, nil
}
