// Package auth supplies the Authorization header sent with Odyssey API calls.
package auth

import (
	"context"
	"net/http"
)

// Provider obtains a token and injects it into outgoing requests.
type Provider interface {
	// Token returns the credential as configured.
	Token(ctx context.Context) (string, error)

	// InjectHeader sets the Authorization header on req.
	InjectHeader(ctx context.Context, req *http.Request) error

	// Close releases any resources held by the provider.
	Close() error
}
