package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// Failure kinds reported in Stats.Errors alongside the per-status HTTP labels.
const (
	KindTimeout     = "Timeout"
	KindCanceled    = "Canceled"
	KindConnection  = "Connection error"
	KindCheckFailed = "Check failed"
	KindOther       = "Other error"
)

// statusCoder is satisfied by errors that carry an HTTP status, such as
// *runner.HTTPError.
type statusCoder interface {
	HTTPStatus() int
}

// ClassifyError names the kind of a failed call. HTTP errors are labelled by
// status class and code, e.g. "Server error (HTTP 503)".
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return statusLabel(sc.HTTPStatus())
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var urlErr *url.Error
	var opErr *net.OpError
	if errors.As(err, &urlErr) || errors.As(err, &opErr) {
		return KindConnection
	}
	return KindOther
}

func statusLabel(code int) string {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Sprintf("Auth rejected (HTTP %d)", code)
	case code == http.StatusTooManyRequests:
		return fmt.Sprintf("Rate limited (HTTP %d)", code)
	case code >= 500:
		return fmt.Sprintf("Server error (HTTP %d)", code)
	case code >= 400:
		return fmt.Sprintf("Client error (HTTP %d)", code)
	default:
		return fmt.Sprintf("Unexpected status (HTTP %d)", code)
	}
}
