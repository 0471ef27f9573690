// Package webhook posts forwarded warnings to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vshulcz/Perfwatch/internal/services/forward"
)

// Client sends warning events to a remote HTTP endpoint.
type Client struct {
	endpoint string
	hc       *http.Client
}

var _ forward.Sink = (*Client)(nil)

// New validates the endpoint URL and returns a Client that POSTs warning events there.
func New(rawURL string, hc *http.Client) (*Client, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("webhook url is empty")
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("invalid webhook url: %w", err)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{endpoint: rawURL, hc: hc}, nil
}

// Notify serializes the event and issues an HTTP POST to the configured endpoint.
func (c *Client) Notify(ctx context.Context, evt forward.Event) (retErr error) {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal warning event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close webhook response: %w", cerr)
		}
	}()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook post status %d", resp.StatusCode)
	}
	return nil
}
