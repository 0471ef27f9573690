// Package httpjson is an InsightAugmenter backed by a remote analysis endpoint.
package httpjson

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/vshulcz/Perfwatch/internal/adapters/transport/gzjson"
	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/ports"
)

// DefaultPath is the analysis endpoint relative to the augmenter base URL.
const DefaultPath = "/v1/analyze"

type Client struct {
	tr   *gzjson.Client
	path string
}

var _ ports.InsightAugmenter = (*Client)(nil)

type analyzeResponse struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
}

// New builds an augmenter client. Failed calls are not retried; the suggestion
// engine simply keeps its previous result.
func New(addr string, hc *http.Client, key string) (*Client, error) {
	tr, err := gzjson.New(addr, hc, key, gzjson.WithBackoff(nil))
	if err != nil {
		return nil, err
	}
	return &Client{tr: tr, path: DefaultPath}, nil
}

// Analyze posts the snapshot and returns the remote suggestions with unknown impacts
// normalized to low and empty titles dropped.
func (c *Client) Analyze(ctx context.Context, snap domain.MetricsSnapshot) ([]domain.Suggestion, error) {
	var resp analyzeResponse
	if err := c.tr.Post(ctx, c.path, snap, &resp); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	out := make([]domain.Suggestion, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		switch s.Impact {
		case domain.ImpactLow, domain.ImpactMedium, domain.ImpactHigh, domain.ImpactCritical:
		default:
			s.Impact = domain.ImpactLow
		}
		if s.Category == "" {
			s.Category = domain.CategoryGeneral
		}
		out = append(out, s)
	}
	return out, nil
}
