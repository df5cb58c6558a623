package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("auction-engine/internal/interfaces/httpapi")
var noopSpan = trace.SpanFromContext(context.Background())

// startSpan opens a child span for handler entry points only. Middleware and response helpers
// share the request span created by otelhttp.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !isHandlerSpan(name) {
		return ctx, noopSpan
	}
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(requestAttributes(ctx)...))
}

func isHandlerSpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.") && name != "httpapi.Handler.Healthz"
}

func requestAttributes(ctx context.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if venueID, ok := venueFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("auction.venue_id", venueID))
	}
	if p, ok := principalFromContext(ctx); ok && p.UserID != "" {
		attrs = append(attrs, attribute.String("enduser.id", p.UserID))
	}
	return attrs
}
