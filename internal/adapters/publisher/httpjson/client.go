// Package httpjson publishes agent event batches to the server as gzipped JSON.
package httpjson

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vshulcz/Perfwatch/internal/adapters/transport/gzjson"
	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/ports"
)

const eventsPath = "/api/v1/events"

// Client publishes event batches to the server.
type Client struct {
	tr *gzjson.Client
}

var _ ports.EventPublisher = (*Client)(nil)

// Accepted is the server's reply to an event batch.
type Accepted struct {
	Accepted int `json:"accepted"`
}

// New builds a publisher for serverAddr. A non-empty key signs every batch.
func New(serverAddr string, hc *http.Client, key string, opts ...gzjson.Option) (*Client, error) {
	tr, err := gzjson.New(serverAddr, hc, key, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{tr: tr}, nil
}

// SendEvents posts items in one request. An empty batch is a no-op.
func (c *Client) SendEvents(ctx context.Context, items []domain.EventEnvelope) error {
	if len(items) == 0 {
		return nil
	}
	var ack Accepted
	if err := c.tr.Post(ctx, eventsPath, items, &ack); err != nil {
		return fmt.Errorf("send %d events: %w", len(items), err)
	}
	if ack.Accepted < len(items) {
		return fmt.Errorf("server accepted %d of %d events", ack.Accepted, len(items))
	}
	return nil
}
