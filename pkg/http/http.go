// Package http fetches thumbnail bytes over HTTP(S). It never buffers a body:
// callers receive the live stream together with the declared length.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	pkgerrors "github.com/glorpus-work/imagehunter/pkg/errors"
	"github.com/glorpus-work/imagehunter/pkg/headers"
	"github.com/glorpus-work/imagehunter/pkg/version"
)

// AcceptHeader prefers images but tolerates anything.
const AcceptHeader = "image/*,*/*;q=0.8"

// Options configures the client.
type Options struct {
	// Timeout bounds connect, headers and the full body read.
	// Default: 10s
	Timeout time.Duration

	// UserAgent identifies the client.
	// Default: version.UserAgent()
	UserAgent string

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 6
	MaxIdleConnsPerHost int

	// Headers, when set, is applied to every request after the default headers.
	Headers headers.Decorator
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:             10 * time.Second,
		UserAgent:           version.UserAgent(),
		MaxIdleConnsPerHost: 6,
	}
}

// Response is a successful GET whose body has not been read yet.
// The caller must close Body.
type Response struct {
	Body io.ReadCloser
	// ContentLength is the declared length, or -1 when unknown.
	ContentLength int64
	ContentType   string
}

// Client performs thumbnail requests.
type Client struct {
	client    *http.Client
	userAgent string
	headers   headers.Decorator
}

// NewClient creates a new HTTP client. Zero-valued options take their defaults.
func NewClient(opts Options) *Client {
	defaults := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = defaults.MaxIdleConnsPerHost
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = opts.MaxIdleConnsPerHost

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		userAgent: opts.UserAgent,
		headers:   opts.Headers,
	}
}

// Get issues a GET for rawURL. Any failure wraps ErrNetwork; timeouts also
// wrap ErrTimeout.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %w: %q", pkgerrors.ErrNetwork, pkgerrors.ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", pkgerrors.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", AcceptHeader)
	if c.headers != nil {
		if err := c.headers.Apply(req); err != nil {
			return nil, fmt.Errorf("%w: apply %s headers: %w", pkgerrors.ErrNetwork, c.headers.Kind(), err)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classify(err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected status code: %d", pkgerrors.ErrNetwork, resp.StatusCode)
	}

	return &Response{
		Body:          resp.Body,
		ContentLength: resp.ContentLength,
		ContentType:   resp.Header.Get("Content-Type"),
	}, nil
}

func classify(err error) error {
	var timeout interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &timeout) && timeout.Timeout()) {
		return fmt.Errorf("%w: %w: %w", pkgerrors.ErrNetwork, pkgerrors.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", pkgerrors.ErrNetwork, err)
}
