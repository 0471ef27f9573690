// Package gzjson is the shared HTTP transport for gzipped JSON requests: request signing,
// retry of transient failures and status mapping.
package gzjson

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/vshulcz/Perfwatch/internal/misc"
)

// HashHeader carries the hex SHA-256 signature of the plain request body.
const HashHeader = "HashSHA256"

// Client sends JSON requests to one base URL.
type Client struct {
	base    *url.URL
	hc      *http.Client
	key     string
	backoff []time.Duration
}

var (
	gzipWriterPool = misc.NewPool(func() *gzip.Writer { return gzip.NewWriter(io.Discard) }, nil, nil)
	bufferPool = misc.NewBufferPool(0)
)

// Option customizes a Client.
type Option func(*Client)

// WithBackoff replaces misc.DefaultBackoff. An empty slice disables retries.
func WithBackoff(delays []time.Duration) Option {
	return func(c *Client) { c.backoff = delays }
}

// New normalizes the base address, configures the HTTP client, and returns a Client instance.
func New(serverAddr string, hc *http.Client, key string, opts ...Option) (*Client, error) {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	u, err := url.Parse(NormalizeBase(serverAddr))
	if err != nil {
		return nil, err
	}
	c := &Client{base: u, hc: hc, key: strings.TrimSpace(key), backoff: misc.DefaultBackoff}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// NormalizeBase adds an http scheme when missing and trims trailing slashes.
func NormalizeBase(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return strings.TrimRight(s, "/")
	}
	if strings.HasPrefix(s, ":") {
		s = "localhost" + s
	}
	return "http://" + strings.TrimRight(s, "/")
}

// Base returns the normalized base URL.
func (c *Client) Base() string { return c.base.String() }

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// Post sends payload gzipped to path and decodes a JSON response into out when out is non-nil.
func (c *Client) Post(ctx context.Context, path string, payload, out any) error {
	plain, err := marshalJSON(payload)
	if err != nil {
		return err
	}

	var hash string
	if c.key != "" {
		hash = misc.SumSHA256(plain, c.key)
	}

	gzPayload, err := gzipBytes(plain)
	if err != nil {
		return err
	}
	defer gzPayload.Release()
	body := gzPayload.Bytes()

	return c.do(ctx, out, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Content-Encoding", "gzip")
		if hash != "" {
			req.Header.Set(HashHeader, hash)
		}
		return req, nil
	})
}

// Get fetches path and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, out, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		return req, nil
	})
}

// GetText fetches path and returns the body as a string.
func (c *Client) GetText(ctx context.Context, path string) (string, error) {
	var buf bytes.Buffer
	err := c.do(ctx, &buf, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	})
	return buf.String(), err
}

func (c *Client) do(ctx context.Context, out any, mkReq func() (*http.Request, error)) (retErr error) {
	var resp *http.Response
	op := func() error {
		req, err := mkReq()
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Encoding", "gzip")
		r, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		if serr := checkHTTPStatus(r); serr != nil {
			_ = drain(r, nil)
			_ = r.Body.Close()
			return serr
		}
		resp = r
		return nil
	}
	if err := misc.Retry(ctx, c.backoff, IsRetryable, op); err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close response body: %w", cerr)
		}
	}()
	return drain(resp, out)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return "server status: " + e.Status
}

// IsRetryable reports transient failures: gateway and throttling statuses and connection errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusBadGateway, http.StatusServiceUnavailable,
			http.StatusGatewayTimeout, http.StatusTooManyRequests:
			return true
		default:
			return false
		}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

func marshalJSON(payload any) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return b, nil
}

type compressedPayload struct {
	buf *bytes.Buffer
}

func (p *compressedPayload) Bytes() []byte {
	if p == nil || p.buf == nil {
		return nil
	}
	return p.buf.Bytes()
}

func (p *compressedPayload) Release() {
	if p == nil || p.buf == nil {
		return
	}
	bufferPool.Put(p.buf)
	p.buf = nil
}

func gzipBytes(src []byte) (*compressedPayload, error) {
	buf := bufferPool.Get()
	buf.Reset()
	zw := gzipWriterPool.Get()
	defer gzipWriterPool.Put(zw)
	zw.Reset(buf)
	if _, err := zw.Write(src); err != nil {
		_ = zw.Close()
		bufferPool.Put(buf)
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		bufferPool.Put(buf)
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return &compressedPayload{buf: buf}, nil
}

// drain reads the body, gunzipping when needed, into out: an io.Writer receives raw bytes,
// any other non-nil value is JSON-decoded, nil discards.
func drain(resp *http.Response, out any) error {
	var r io.Reader = resp.Body
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Encoding")), "gzip") {
		gr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("bad gzip: %w", err)
		}
		defer func() {
			_ = gr.Close()
		}()
		r = gr
	}
	switch dst := out.(type) {
	case nil:
		if _, err := io.Copy(io.Discard, r); err != nil {
			return fmt.Errorf("drain body: %w", err)
		}
	case io.Writer:
		if _, err := io.Copy(dst, r); err != nil {
			return fmt.Errorf("read body: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(dst); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func checkHTTPStatus(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return nil
}
