package sites

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"reelpost/internal/config"
)

const defaultRequestTimeout = 30 * time.Second

// Registry maps lower-cased domains to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// Entry is one domain registration, used for listings.
type Entry struct {
	Domain  string
	Adapter string
}

// NewRegistry registers adapters in order.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, adapter := range adapters {
		r.Register(adapter)
	}
	return r
}

// Register claims every domain of adapter. The last registration for a
// domain wins.
func (r *Registry) Register(adapter Adapter) {
	if adapter == nil {
		return
	}
	for _, domain := range adapter.Domains() {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		r.adapters[domain] = adapter
	}
}

// Lookup returns the adapter registered for an already normalized domain.
// Matching is exact.
func (r *Registry) Lookup(domain string) (Adapter, bool) {
	if r == nil {
		return nil, false
	}
	adapter, ok := r.adapters[strings.ToLower(strings.TrimSpace(domain))]
	return adapter, ok
}

// Entries lists registrations ordered by domain.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	domains := lo.Keys(r.adapters)
	sort.Strings(domains)
	return lo.Map(domains, func(domain string, _ int) Entry {
		return Entry{Domain: domain, Adapter: r.adapters[domain].Name()}
	})
}

// Len returns the number of registered domains.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.adapters)
}

// FromConfig builds the registry from the configured adapters.
func FromConfig(cfg *config.Config, client HTTPDoer) *Registry {
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	registry := NewRegistry()
	for _, site := range cfg.Sites.PublicAPI {
		registry.Register(NewPublicAPIAdapter(site, client))
	}
	return registry
}
