package tracing_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/odysseylab/msgload/internal/config"
	"github.com/odysseylab/msgload/internal/tracing"
)

func setupTestTracer(t *testing.T) (*tracetest.InMemoryExporter, trace.Tracer) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return exporter, tp.Tracer("test")
}

func TestInitDisabledByDefault(t *testing.T) {
	p, err := tracing.Init(context.Background(), config.TracingConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	assert.False(t, p.ShouldPropagate(), "tracing disabled")

	// Tracer should return a no-op (no panic)
	_, span := p.Tracer().Start(context.Background(), "test")
	span.End()
	assert.False(t, span.SpanContext().TraceID().IsValid(), "disabled provider should hand out no-op spans")
}

func TestInitWithEndpointEnablesTracing(t *testing.T) {
	// We can't actually connect to an endpoint in unit tests,
	// but we verify the provider is configured correctly.
	p, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint:    "localhost:4317",
		Protocol:    "grpc",
		ServiceName: "test-service",
		SampleRate:  1.0,
		Insecure:    true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	assert.True(t, p.ShouldPropagate(), "tracing enabled")
}

func TestInitHTTPProtocol(t *testing.T) {
	p, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint: "localhost:4318",
		Protocol: "http",
		Insecure: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	assert.True(t, p.ShouldPropagate())
}

func TestInitUnsupportedProtocol(t *testing.T) {
	_, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint: "localhost:4317",
		Protocol: "thrift",
		Insecure: true,
	})
	assert.Error(t, err)
}

func TestInitInvalidSampleRate(t *testing.T) {
	tests := []struct {
		name string
		rate float64
	}{
		{"negative", -0.5},
		{"above one", 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tracing.Init(context.Background(), config.TracingConfig{
				Endpoint:   "localhost:4317",
				Protocol:   "grpc",
				Insecure:   true,
				SampleRate: tt.rate,
			})
			assert.Error(t, err, "sample_rate=%g", tt.rate)
		})
	}
}

func TestShouldPropagateOverride(t *testing.T) {
	falseVal := false
	p, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint:  "localhost:4317",
		Protocol:  "grpc",
		Insecure:  true,
		Propagate: &falseVal,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	assert.False(t, p.ShouldPropagate(), "explicitly disabled")
}

func TestInitEnableWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	p, err := tracing.Init(context.Background(), config.TracingConfig{Enable: true, SampleRate: 1})
	require.NoError(t, err)
	assert.True(t, p.ShouldPropagate(), "enabled tracing without an exporter should still propagate")
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNilProviderSafety(t *testing.T) {
	var p *tracing.Provider
	assert.False(t, p.ShouldPropagate())
	assert.NoError(t, p.Shutdown(context.Background()))
	// Tracer() on nil should return no-op, not panic
	tracer := p.Tracer()
	_, span := tracer.Start(context.Background(), "test")
	span.End()
}

func TestStartCallSpan(t *testing.T) {
	exporter, tracer := setupTestTracer(t)

	tests := []struct {
		name         string
		info         tracing.CallInfo
		wantSpanName string
	}{
		{
			"send case",
			tracing.CallInfo{CaseID: 1, CaseName: "SMS Basic", Category: "sms", Scenario: "smoke", Method: "POST", URL: "https://api.example.com/api/V1/SMSJobs", VU: 3},
			"POST SMS Basic",
		},
		{
			"unnamed call",
			tracing.CallInfo{Method: "GET"},
			"GET request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()

			_, span := tracing.StartCallSpan(context.Background(), tracer, tt.info)
			span.End()

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantSpanName, spans[0].Name)
			assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind)

			attrs := map[string]string{}
			for _, attr := range spans[0].Attributes {
				attrs[string(attr.Key)] = attr.Value.Emit()
			}
			assert.Equal(t, tt.info.Method, attrs[string(tracing.AttrHTTPMethod)])
			if tt.info.CaseName != "" {
				assert.Equal(t, tt.info.CaseName, attrs[string(tracing.AttrCaseName)])
				assert.Equal(t, "1", attrs[string(tracing.AttrCaseID)])
				assert.Equal(t, "smoke", attrs[string(tracing.AttrScenario)])
			} else {
				assert.NotContains(t, attrs, string(tracing.AttrCaseName), "case name attribute should be omitted when empty")
			}
		})
	}
}

func TestEndSpanRecordsError(t *testing.T) {
	exporter, tracer := setupTestTracer(t)

	_, span := tracer.Start(context.Background(), "test-error")
	tracing.EndSpan(span, context.DeadlineExceeded)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestEndSpanOk(t *testing.T) {
	exporter, tracer := setupTestTracer(t)

	_, span := tracer.Start(context.Background(), "test-ok")
	tracing.EndSpan(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
}

func TestInjectHTTPHeaders(t *testing.T) {
	_, tracer := setupTestTracer(t)

	ctx, span := tracer.Start(context.Background(), "test-inject")
	defer span.End()

	headers := make(http.Header)
	tracing.InjectHTTPHeaders(ctx, headers)

	got := headers.Get("Traceparent")
	require.NotEmpty(t, got, "traceparent header not injected")
	// traceparent format: version-traceid-spanid-flags (e.g., 00-abc123...-def456...-01)
	assert.GreaterOrEqual(t, len(got), 55, "traceparent header too short: %q", got)
}

func TestInjectHTTPHeadersNoSpan(t *testing.T) {
	// Without a span in context, injection should not panic and not set traceparent
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
	))
	headers := make(http.Header)
	tracing.InjectHTTPHeaders(context.Background(), headers)

	assert.Empty(t, headers.Get("Traceparent"))
}
