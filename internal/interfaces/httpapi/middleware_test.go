package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/riskibarqy/auction-engine/internal/platform/logging"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestCORS(t *testing.T) {
	cases := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{name: "configured origin", allowed: []string{"https://auction.example.com"}, method: http.MethodGet, origin: "https://auction.example.com", wantOrigin: "https://auction.example.com", wantStatus: http.StatusOK},
		{name: "wildcard preflight", allowed: []string{"*"}, method: http.MethodOptions, origin: "https://auction.example.com", wantOrigin: "*", wantStatus: http.StatusNoContent},
		{name: "unknown origin", allowed: []string{"https://allowed.example.com"}, method: http.MethodGet, origin: "https://other.example.com", wantOrigin: "", wantStatus: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(tc.method, "/v1/venues/v1/status", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()

			CORS(tc.allowed, next).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("unexpected Access-Control-Allow-Origin: %q", got)
			}
		})
	}
}

func TestRequestLogging_RequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.LevelInfo, &buf)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.InfoContext(r.Context(), "inside handler")
		w.WriteHeader(http.StatusAccepted)
	})
	handler := RequestLogging(logger, next)

	req := httptest.NewRequest(http.MethodPost, "/v1/venues/v1/bids", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected handler and access log lines, got %q", buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, `"request_id":"abc-123"`) {
			t.Fatalf("log line lacks request id: %s", line)
		}
	}
}

func TestRequestLogging_GeneratesRequestID(t *testing.T) {
	handler := RequestLogging(logging.NewNop(), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/venues/v1/slot", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", 80))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	got := rec.Header().Get(requestIDHeader)
	if got == "" || len(got) > 64 {
		t.Fatalf("expected a generated request id, got %q", got)
	}
}

func TestRecoverPanic_WritesInternalError(t *testing.T) {
	handler := recoverPanic(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("slot map corrupted")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/venues/v1/slot", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "slot map") {
		t.Fatalf("panic value leaked: %s", rec.Body.String())
	}
}

func TestChain_FirstIsOutermost(t *testing.T) {
	var order []string
	tag := func(name string) middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }), tag("a"), tag("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.Join(order, ","); got != "a,b,handler" {
		t.Fatalf("unexpected order %s", got)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "bearer  abc ", want: "abc"},
		{header: "", wantErr: true},
		{header: "Basic abc", wantErr: true},
		{header: "Bearer", wantErr: true},
	}
	for _, tc := range cases {
		got, err := bearerToken(tc.header)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("bearerToken(%q) expected error", tc.header)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("bearerToken(%q)=%q,%v want %q", tc.header, got, err, tc.want)
		}
	}
}

func TestCaptureRequestBody(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	cases := []struct {
		name          string
		body          string
		wantAttr      string
		wantTruncated bool
	}{
		{name: "short body", body: `{"amount":70}`, wantAttr: `{"amount":70}`},
		{name: "long body", body: `{"players":["p1","p2","p3"]}`, wantAttr: `{"players"`, wantTruncated: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			handler := CaptureRequestBody(10, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				raw, _ := io.ReadAll(r.Body)
				seen = string(raw)
				w.WriteHeader(http.StatusNoContent)
			}))

			ctx, span := provider.Tracer("test").Start(context.Background(), "POST /v1/venues/v1/bids")
			req := httptest.NewRequest(http.MethodPost, "/v1/venues/v1/bids", strings.NewReader(tc.body)).WithContext(ctx)
			handler.ServeHTTP(httptest.NewRecorder(), req)
			span.End()

			if seen != tc.body {
				t.Fatalf("handler must read the full body, got %q", seen)
			}
			ended := recorder.Ended()
			attrs := map[string]string{}
			for _, kv := range ended[len(ended)-1].Attributes() {
				attrs[string(kv.Key)] = kv.Value.Emit()
			}
			if attrs["http.request.body"] != tc.wantAttr {
				t.Fatalf("unexpected body attribute %q", attrs["http.request.body"])
			}
			if got := attrs["http.request.body_truncated"] == "true"; got != tc.wantTruncated {
				t.Fatalf("unexpected truncation flag %q", attrs["http.request.body_truncated"])
			}
		})
	}
}

func TestCaptureRequestBody_SkipsUntracedRequests(t *testing.T) {
	var seen string
	handler := CaptureRequestBody(4, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		seen = string(raw)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/venues/v1/bids", strings.NewReader(`{"amount":70}`)))

	if seen != `{"amount":70}` {
		t.Fatalf("body must pass through untouched, got %q", seen)
	}
}
