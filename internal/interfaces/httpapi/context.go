package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/riskibarqy/auction-engine/internal/domain/user"
)

type ctxKey int

const (
	principalKey ctxKey = iota
	venueKey
)

func withPrincipal(ctx context.Context, p user.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func principalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalKey).(user.Principal)
	return p, ok
}

func venueFromContext(ctx context.Context) (string, bool) {
	venueID, ok := ctx.Value(venueKey).(string)
	return venueID, ok && venueID != ""
}

// scopeVenue copies the matched {venueID} into the request context so spans and logs below it
// carry the venue.
func scopeVenue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		venueID := strings.TrimSpace(r.PathValue("venueID"))
		if venueID == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), venueKey, venueID)))
	})
}
