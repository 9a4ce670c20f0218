package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on API call spans.
const (
	AttrCaseID     = attribute.Key("msgload.case.id")
	AttrCaseName   = attribute.Key("msgload.case.name")
	AttrCategory   = attribute.Key("msgload.case.category")
	AttrScenario   = attribute.Key("msgload.scenario")
	AttrVU         = attribute.Key("msgload.vu")
	AttrHTTPMethod = attribute.Key("http.request.method")
	AttrHTTPStatus = attribute.Key("http.response.status_code")
	AttrURL        = attribute.Key("url.full")
)

// CallInfo describes the API call a span covers.
type CallInfo struct {
	CaseID   int
	CaseName string
	Category string
	Scenario string
	Method   string
	URL      string
	VU       int
}

// StartCallSpan starts a client span named after the case.
func StartCallSpan(ctx context.Context, tracer trace.Tracer, info CallInfo) (context.Context, trace.Span) {
	name := info.Method + " " + info.CaseName
	if info.CaseName == "" {
		name = info.Method + " request"
	}
	ctx, span := tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		AttrCaseID.Int(info.CaseID),
		AttrCategory.String(info.Category),
		AttrHTTPMethod.String(info.Method),
		AttrVU.Int(info.VU),
	)
	if info.CaseName != "" {
		span.SetAttributes(AttrCaseName.String(info.CaseName))
	}
	if info.Scenario != "" {
		span.SetAttributes(AttrScenario.String(info.Scenario))
	}
	if info.URL != "" {
		span.SetAttributes(AttrURL.String(info.URL))
	}
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
