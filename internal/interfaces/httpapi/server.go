package httpapi

import (
	"net/http"

	"github.com/riskibarqy/auction-engine/internal/platform/logging"
)

type RouterConfig struct {
	CORSAllowedOrigins []string
	// Events serves the venue WebSocket stream; nil leaves the route unregistered.
	Events http.Handler
	// RequestBodyMaxBytes > 0 records command bodies on the request span.
	RequestBodyMaxBytes int
}

type middleware func(http.Handler) http.Handler

// chain applies mws so that the first one is outermost.
func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func NewRouter(handler *Handler, verifier TokenVerifier, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerPublicAuctionRoutes(mux, handler, cfg.Events)
	registerAuthorizedAuctionRoutes(mux, handler, verifier)

	return chain(mux,
		RequestTracing,
		func(next http.Handler) http.Handler { return CaptureRequestBody(cfg.RequestBodyMaxBytes, next) },
		func(next http.Handler) http.Handler { return RequestLogging(logger, next) },
		func(next http.Handler) http.Handler { return CORS(cfg.CORSAllowedOrigins, next) },
		func(next http.Handler) http.Handler { return recoverPanic(logger, next) },
	)
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.ErrorContext(r.Context(), "panic recovered", "panic", rec)
			writeInternalError(r.Context(), w)
		}()
		next.ServeHTTP(w, r)
	})
}
