package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const spanPrefix = "usecase.AuctionService."

var (
	usecaseTracer   = otel.Tracer("auction-engine/internal/usecase")
	usecaseNoopSpan = trace.SpanFromContext(context.Background())
)

// startVenueSpan opens a child span for a venue operation when the caller is already traced.
func startVenueSpan(ctx context.Context, op, venueID string) (context.Context, trace.Span) {
	if op == "" || !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	return usecaseTracer.Start(ctx, spanPrefix+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("auction.venue_id", venueID)),
	)
}

// recordSpanError marks the active span failed. Rule rejections count as failures too.
func recordSpanError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
