package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// ErrEmptyToken is returned when a provider has nothing to inject.
var ErrEmptyToken = errors.New("auth token is empty")

// StaticTokenProvider implements a provider that returns a pre-configured
// token, typically the API key issued for the Odyssey account under test.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a new static token provider with the given token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{
		token: strings.TrimSpace(token),
	}
}

// Token returns the token exactly as configured.
func (p *StaticTokenProvider) Token(ctx context.Context) (string, error) {
	if p.token == "" {
		return "", ErrEmptyToken
	}
	return p.token, nil
}

// HeaderValue is the Authorization value sent with each request. A token
// that already carries the Bearer scheme is used verbatim.
func (p *StaticTokenProvider) HeaderValue() string {
	if len(p.token) >= len(bearerPrefix) && strings.EqualFold(p.token[:len(bearerPrefix)], bearerPrefix) {
		return p.token
	}
	return bearerPrefix + p.token
}

// InjectHeader sets the Authorization header.
func (p *StaticTokenProvider) InjectHeader(ctx context.Context, req *http.Request) error {
	if p.token == "" {
		return ErrEmptyToken
	}
	req.Header.Set("Authorization", p.HeaderValue())
	return nil
}

// Close is a no-op for static token providers.
func (p *StaticTokenProvider) Close() error {
	return nil
}
