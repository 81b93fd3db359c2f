package adapter

import (
	"errors"
	"fmt"

	"github.com/bingeboard/stream-watcher/internal"
)

// Registry holds the configured adapters. Registration order is the
// aggregate's merge priority: when two adapters report the same canonical
// platform, the earlier-registered adapter's record wins ties.
type Registry interface {
	Get(name internal.Source) (internal.Adapter, error)
	// All returns the adapters in registration (priority) order.
	All() []internal.Adapter
}

// Middleware wraps an adapter with extra behavior (caching, timeouts).
type Middleware func(internal.Adapter) internal.Adapter

// RegistryOption configures a registry under construction.
type RegistryOption func(r *registry)

func NewRegistry(opts ...RegistryOption) Registry {
	r := &registry{
		byName: make(map[internal.Source]internal.Adapter),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithAdapter registers an adapter, applying middleware innermost-first.
func WithAdapter(a internal.Adapter, middleware ...Middleware) RegistryOption {
	return func(r *registry) {
		for _, m := range middleware {
			a = m(a)
		}
		if _, dup := r.byName[a.Name()]; dup {
			return // first registration wins; priority order stays stable
		}
		r.byName[a.Name()] = a
		r.ordered = append(r.ordered, a)
	}
}

type registry struct {
	byName  map[internal.Source]internal.Adapter
	ordered []internal.Adapter
}

var ErrAdapterNotFound = errors.New("adapter not found")

func (r *registry) Get(name internal.Source) (internal.Adapter, error) {
	a, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdapterNotFound, name)
	}
	return a, nil
}

func (r *registry) All() []internal.Adapter {
	out := make([]internal.Adapter, len(r.ordered))
	copy(out, r.ordered)
	return out
}
