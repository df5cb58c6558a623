package resilience

import "golang.org/x/sync/singleflight"

// SingleFlight is a typed singleflight.Group.
type SingleFlight[V any] struct {
	group singleflight.Group
}

// Do runs fn once per key among concurrent callers; shared reports whether the result came
// from another caller's execution.
func (g *SingleFlight[V]) Do(key string, fn func() (V, error)) (v V, err error, shared bool) {
	out, err, shared := g.group.Do(key, func() (any, error) {
		return fn()
	})
	v, _ = out.(V)
	return v, err, shared
}

// Forget makes the next Do for key start a fresh call instead of joining one in flight.
func (g *SingleFlight[V]) Forget(key string) {
	g.group.Forget(key)
}
