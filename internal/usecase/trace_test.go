package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartVenueSpan_Untraced(t *testing.T) {
	ctx := context.Background()
	got, span := startVenueSpan(ctx, "PlaceBid", "v-1")
	defer span.End()

	if got != ctx {
		t.Fatalf("expected the caller context back when no parent span exists")
	}
	if span.IsRecording() {
		t.Fatalf("expected a non-recording span")
	}
}

func TestStartVenueSpan_RecordsFailure(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	ctx, root := provider.Tracer("test").Start(context.Background(), "request")
	ctx, span := startVenueSpan(ctx, "PlaceBid", "v-1")
	recordSpanError(ctx, auction.ErrBidTooLate)
	recordSpanError(ctx, nil)
	span.End()
	root.End()

	ended := recorder.Ended()
	if len(ended) != 2 {
		t.Fatalf("expected 2 ended spans, got %d", len(ended))
	}
	child := ended[0]
	if child.Name() != "usecase.AuctionService.PlaceBid" {
		t.Fatalf("unexpected span name %q", child.Name())
	}
	if child.Status().Code != codes.Error {
		t.Fatalf("expected error status, got %v", child.Status())
	}
	var venue string
	for _, attr := range child.Attributes() {
		if attr.Key == "auction.venue_id" {
			venue = attr.Value.AsString()
		}
	}
	if venue != "v-1" {
		t.Fatalf("expected venue attribute v-1, got %q", venue)
	}
}
