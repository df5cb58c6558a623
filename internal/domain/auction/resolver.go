package auction

import (
	"context"
	"strings"
)

// Lookup is one identity resolution strategy. ok is false when the identifier is unknown to it.
type Lookup interface {
	Lookup(ctx context.Context, identifier string) (player Player, ok bool, err error)
}

type LookupFunc func(ctx context.Context, identifier string) (Player, bool, error)

func (f LookupFunc) Lookup(ctx context.Context, identifier string) (Player, bool, error) {
	return f(ctx, identifier)
}

// Resolver tries lookups in order; the first hit wins. Lookup errors are reported and skipped.
type Resolver struct {
	lookups []Lookup
	onError func(identifier string, err error)
}

func NewResolver(onError func(identifier string, err error), lookups ...Lookup) *Resolver {
	return &Resolver{lookups: lookups, onError: onError}
}

// With returns a resolver that consults first before the receiver's lookups.
func (r *Resolver) With(first ...Lookup) *Resolver {
	lookups := make([]Lookup, 0, len(first)+len(r.lookups))
	lookups = append(lookups, first...)
	lookups = append(lookups, r.lookups...)
	return &Resolver{lookups: lookups, onError: r.onError}
}

// Resolve never fails: unresolved identifiers come back as placeholders.
func (r *Resolver) Resolve(ctx context.Context, identifier string) Player {
	identifier = strings.TrimSpace(identifier)
	for _, lookup := range r.lookups {
		if lookup == nil {
			continue
		}
		player, ok, err := lookup.Lookup(ctx, identifier)
		if err != nil {
			if r.onError != nil {
				r.onError(identifier, err)
			}
			continue
		}
		if ok {
			return player
		}
	}
	return Placeholder(identifier)
}

func Placeholder(identifier string) Player {
	id := ParseIdentity(identifier)
	player := Player{Name: strings.TrimPrefix(strings.TrimSpace(identifier), "@"), Placeholder: true}
	if n, ok := id.Numeric(); ok {
		player.UserID = n
	} else if !id.IsZero() {
		player.Handle = id.Value
	}
	return player
}

// PoolLookup matches against a loaded pool by handle, then registration code, then numeric id.
func PoolLookup(pool []Player) Lookup {
	return LookupFunc(func(_ context.Context, identifier string) (Player, bool, error) {
		candidate := strings.TrimPrefix(strings.TrimSpace(identifier), "@")
		if candidate == "" {
			return Player{}, false, nil
		}
		for _, p := range pool {
			if p.Handle != "" && strings.EqualFold(strings.TrimPrefix(p.Handle, "@"), candidate) {
				return p, true, nil
			}
		}
		for _, p := range pool {
			if p.Code != "" && strings.EqualFold(p.Code, candidate) {
				return p, true, nil
			}
		}
		id := ParseIdentity(candidate)
		if n, ok := id.Numeric(); ok {
			for _, p := range pool {
				if p.UserID == n {
					return p, true, nil
				}
			}
		}
		return Player{}, false, nil
	})
}

// NumericFallback accepts any bare numeric id as a canonical identity.
func NumericFallback() Lookup {
	return LookupFunc(func(_ context.Context, identifier string) (Player, bool, error) {
		n, ok := ParseIdentity(identifier).Numeric()
		if !ok {
			return Player{}, false, nil
		}
		return Player{UserID: n, Name: strings.TrimSpace(identifier)}, true, nil
	})
}
