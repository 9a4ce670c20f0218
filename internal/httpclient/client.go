package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/odysseylab/msgload/internal/catalog"
	"github.com/odysseylab/msgload/internal/variables"
)

// UserAgent identifies load traffic in API access logs.
const UserAgent = "msgload/1.0"

// AuthProvider supplies authentication tokens and injects them into HTTP requests.
type AuthProvider interface {
	Token(ctx context.Context) (string, error)
	InjectHeader(ctx context.Context, req *http.Request) error
	Close() error
}

// RequestBuilder turns catalog cases into requests against one API base URL.
type RequestBuilder struct {
	baseURL      string
	headers      http.Header
	authProvider AuthProvider
}

// NewRequestBuilder validates baseURL and any extra headers.
func NewRequestBuilder(baseURL string, extra map[string]string) (*RequestBuilder, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	headers.Set("User-Agent", UserAgent)
	for key, value := range extra {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		if strings.ContainsAny(trimmedKey, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)

		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
		}

		headers.Set(canonicalKey, value)
	}

	return &RequestBuilder{
		baseURL: base,
		headers: headers,
	}, nil
}

// NewRequestBuilderWithAuth creates a RequestBuilder with an auth provider for automatic token injection.
func NewRequestBuilderWithAuth(baseURL string, extra map[string]string, provider AuthProvider) (*RequestBuilder, error) {
	builder, err := NewRequestBuilder(baseURL, extra)
	if err != nil {
		return nil, err
	}
	builder.authProvider = provider
	return builder, nil
}

// BaseURL returns the normalized API root.
func (b *RequestBuilder) BaseURL() string {
	return b.baseURL
}

// Build creates the request for c. The job number comes from the variable
// store in ctx when one has been captured, otherwise from d.
func (b *RequestBuilder) Build(ctx context.Context, c catalog.Case, d *catalog.Data) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if d == nil {
		return nil, errors.New("request data cannot be nil")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	data := *d
	data.JobNumber = variables.Lookup(ctx, variables.KeyJobNumber, d.JobNumber)

	var payload any
	if c.Body != nil {
		payload = c.Body(&data)
	}
	body, err := NewJSONBody(payload)
	if err != nil {
		return nil, fmt.Errorf("case %d: %w", c.ID, err)
	}
	reader, err := body.NewReader()
	if err != nil {
		return nil, err
	}

	method := c.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+c.Target(&data), reader)
	if err != nil {
		_ = reader.Close()
		return nil, err
	}

	req.Header = b.headers.Clone()

	if length, ok := body.ContentLength(); ok {
		req.ContentLength = length
	}

	req.GetBody = func() (io.ReadCloser, error) {
		return body.NewReader()
	}

	// Inject auth header if provider is present
	if b.authProvider != nil {
		if err := b.authProvider.InjectHeader(ctx, req); err != nil {
			return nil, fmt.Errorf("auth provider inject header: %w", err)
		}
	}

	return req, nil
}

func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
