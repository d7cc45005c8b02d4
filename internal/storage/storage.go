package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"reelpost/internal/services"
)

// Backend stores a local file under name and returns a reference to it.
// Failures wrap services.ErrStorage, or services.ErrNotImplemented for
// backends that exist only as placeholders.
type Backend interface {
	Name() string
	Store(ctx context.Context, path, name string) (string, error)
}

// Registry holds the enabled backends keyed by name.
type Registry struct {
	backends map[string]Backend
	active   string
}

// NewRegistry registers backends and selects active. Later registrations
// with the same name replace earlier ones.
func NewRegistry(active string, backends ...Backend) (*Registry, error) {
	r := &Registry{backends: make(map[string]Backend, len(backends))}
	for _, backend := range backends {
		if backend == nil {
			continue
		}
		r.backends[strings.ToLower(backend.Name())] = backend
	}
	active = strings.ToLower(strings.TrimSpace(active))
	if _, ok := r.backends[active]; !ok {
		return nil, services.Wrap(services.ErrConfiguration, "storage", "select backend",
			fmt.Sprintf("backend %q is not enabled", active), nil)
	}
	r.active = active
	return r, nil
}

// Active returns the backend selected by storage.active.
func (r *Registry) Active() Backend {
	return r.backends[r.active]
}

// Lookup returns the named backend.
func (r *Registry) Lookup(name string) (Backend, bool) {
	backend, ok := r.backends[strings.ToLower(strings.TrimSpace(name))]
	return backend, ok
}

// Names lists the registered backend names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
