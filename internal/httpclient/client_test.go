package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odysseylab/msgload/internal/catalog"
	"github.com/odysseylab/msgload/internal/datapool"
	"github.com/odysseylab/msgload/internal/variables"
)

func testData(t *testing.T) *catalog.Data {
	t.Helper()
	return catalog.NewData(datapool.NewSource(datapool.Defaults(), 7), "")
}

func mustCase(t *testing.T, id int) catalog.Case {
	t.Helper()
	c, ok := catalog.Lookup(id)
	require.True(t, ok, "case %d not in catalog", id)
	return c
}

func TestBuildSendRequest(t *testing.T) {
	builder, err := NewRequestBuilder("https://api.example.com/", map[string]string{"x-trace-id": "12345"})
	require.NoError(t, err)

	req, err := builder.Build(context.Background(), mustCase(t, 1), testData(t))
	require.NoError(t, err)

	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "https://api.example.com/api/V1/SMSJobs", req.URL.String())
	require.Equal(t, "application/json", req.Header.Get("Content-Type"))
	require.Equal(t, UserAgent, req.Header.Get("User-Agent"))
	require.Equal(t, "12345", req.Header.Get("X-Trace-Id"))

	bodyBytes, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	req.Body.Close()

	var body map[string]any
	require.NoError(t, json.Unmarshal(bodyBytes, &body), "body is not JSON")
	assert.Equal(t, "SMS", body["JobType"])
	tracking, _ := body["TrackingId"].(string)
	assert.Regexp(t, `^K6_SMS_Basic_`, tracking)

	require.EqualValues(t, len(bodyBytes), req.ContentLength)

	require.NotNil(t, req.GetBody, "expected request to support body replay")
	replayBody, err := req.GetBody()
	require.NoError(t, err)
	replayBytes, _ := io.ReadAll(replayBody)
	replayBody.Close()
	require.Equal(t, string(bodyBytes), string(replayBytes), "replay body differs from original")
}

func TestBuildQueryUsesStoredJobNumber(t *testing.T) {
	builder, err := NewRequestBuilder("https://api.example.com", nil)
	require.NoError(t, err)
	c := mustCase(t, 26)
	data := testData(t)

	req, err := builder.Build(context.Background(), c, data)
	require.NoError(t, err)
	assert.Equal(t, "/api/V1/JobSummaries/"+catalog.DefaultJobNumber, req.URL.Path)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Zero(t, req.ContentLength, "expected bodyless GET")

	store := variables.NewStore(map[string]string{variables.KeyJobNumber: "98765"})
	ctx := variables.NewContext(context.Background(), store)
	req, err = builder.Build(ctx, c, data)
	require.NoError(t, err)
	assert.Equal(t, "/api/V1/JobSummaries/98765", req.URL.Path)
	assert.Equal(t, catalog.DefaultJobNumber, data.JobNumber, "Build must not mutate caller data")
}

func TestNewRequestBuilderValidation(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		headers map[string]string
	}{
		{"empty base", "  ", nil},
		{"relative base", "/api", nil},
		{"empty header key", "https://api.example.com", map[string]string{"": "v"}},
		{"header key with newline", "https://api.example.com", map[string]string{"Bad\nKey": "v"}},
		{"header value with newline", "https://api.example.com", map[string]string{"X-Test": "a\r\nb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRequestBuilder(tt.base, tt.headers)
			assert.Error(t, err)
		})
	}
}

func TestBuildNilData(t *testing.T) {
	builder, _ := NewRequestBuilder("https://api.example.com", nil)
	_, err := builder.Build(context.Background(), mustCase(t, 1), nil)
	assert.Error(t, err)
}

func TestClientTimeoutApplied(t *testing.T) {
	timeout := 50 * time.Millisecond
	client := NewClient(timeout)
	defer client.CloseIdleConnections()

	require.Equal(t, timeout, client.Timeout)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(timeout * 3)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	start := time.Now()
	resp, err := client.Do(req)
	if resp != nil {
		resp.Body.Close()
	}
	require.Error(t, err, "expected timeout error")

	elapsed := time.Since(start)
	require.GreaterOrEqual(t, elapsed, timeout, "request returned too quickly")
	require.LessOrEqual(t, elapsed, timeout*5, "request took too long")

	if !errors.Is(err, context.DeadlineExceeded) {
		var netErr net.Error
		require.ErrorAs(t, err, &netErr)
		require.True(t, netErr.Timeout(), "expected timeout error, got %v", err)
	}

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok, "expected *http.Transport, got %T", client.Transport)
	assert.NotZero(t, transport.MaxIdleConns, "transport should allow idle connections")
	assert.NotZero(t, transport.IdleConnTimeout, "transport should set an idle connection timeout")
}

func TestRequestBuilderWithAuthProvider(t *testing.T) {
	provider := &mockAuthProvider{token: "test-auth-token"}

	builder, err := NewRequestBuilderWithAuth("https://api.example.com", nil, provider)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		req, err := builder.Build(context.Background(), mustCase(t, 25), testData(t))
		require.NoError(t, err, "request %d", i)
		assert.Equal(t, "Bearer test-auth-token", req.Header.Get("Authorization"), "request %d", i)
	}
	assert.Equal(t, 3, provider.calls)
}

func TestRequestBuilderAuthError(t *testing.T) {
	provider := &mockAuthProvider{err: errors.New("no token")}
	builder, _ := NewRequestBuilderWithAuth("https://api.example.com", nil, provider)
	_, err := builder.Build(context.Background(), mustCase(t, 25), testData(t))
	assert.Error(t, err)
}

type mockAuthProvider struct {
	token string
	err   error
	calls int
}

func (m *mockAuthProvider) Token(ctx context.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.token, nil
}

func (m *mockAuthProvider) InjectHeader(ctx context.Context, req *http.Request) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	req.Header.Set("Authorization", "Bearer "+m.token)
	return nil
}

func (m *mockAuthProvider) Close() error {
	return nil
}
