// Package registry stores the handler bound to each element and event type.
package registry

import (
	"sort"
	"sync"

	"github.com/drblury/webui/internal/runtime/events"
)

// Registry is a Key to Handler table safe for concurrent use. Lookups share a
// read lock; the lock is never held while a handler runs.
type Registry struct {
	mu       sync.RWMutex
	handlers map[events.Key]events.Handler
}

func New() *Registry {
	return &Registry{handlers: make(map[events.Key]events.Handler)}
}

// Register binds h to key, replacing any earlier binding. It reports whether
// a binding was replaced.
func (r *Registry) Register(key events.Key, h events.Handler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced := r.handlers[key]
	r.handlers[key] = h
	return replaced
}

func (r *Registry) Lookup(key events.Key) (events.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[key]
	return h, ok
}

// Keys returns the bound keys ordered by their string form.
func (r *Registry) Keys() []events.Key {
	r.mu.RLock()
	keys := make([]events.Key, 0, len(r.handlers))
	for k := range r.handlers {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
