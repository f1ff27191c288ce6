package cart

import (
	"context"
	"sync"
	"time"

	"github.com/Skotchmaster/lumina_shop/pkg/storage"
)

// Registry owns one container per visitor. Containers are loaded lazily
// and can be dropped from memory at any time since storage has their state.
type Registry struct {
	store storage.Store
	opts  []Option

	mu        sync.Mutex
	carts     map[string]*Container
	observers []func(Event)
}

func NewRegistry(store storage.Store, opts ...Option) *Registry {
	return &Registry{
		store: store,
		opts:  opts,
		carts: make(map[string]*Container),
	}
}

func KeyFor(visitorID string) string {
	return DefaultKey + ":" + visitorID
}

// Subscribe registers fn on every current and future container.
func (r *Registry) Subscribe(fn func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
	for _, c := range r.carts {
		c.Subscribe(fn)
	}
}

func (r *Registry) For(ctx context.Context, visitorID string) *Container {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.carts[visitorID]; ok {
		c.touch()
		return c
	}
	c := Load(ctx, r.store, KeyFor(visitorID), r.opts...)
	for _, fn := range r.observers {
		c.Subscribe(fn)
	}
	r.carts[visitorID] = c
	return c
}

// Sweep forgets containers untouched for longer than idle and reports how
// many were dropped.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, c := range r.carts {
		if c.idleSince().Before(cutoff) {
			delete(r.carts, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}
