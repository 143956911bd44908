package retailers

import (
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Retailer)
)

// Register registers a retailer source. Each retailer package calls this from
// an init() function; duplicate or empty registrations indicate miswired
// static data and panic.
func Register(r Retailer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if r == nil {
		panic("retailers: Register retailer is nil")
	}
	if r.Slug() == "" {
		panic("retailers: Register called with empty slug")
	}
	if _, dup := registry[r.Slug()]; dup {
		panic("retailers: Register called twice for retailer " + r.Slug())
	}
	registry[r.Slug()] = r
}

// Get returns a retailer source by slug.
func Get(slug string) (Retailer, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[slug]
	return r, ok
}

// List returns a sorted list of registered retailer slugs.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var slugs []string
	for s := range registry {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}

// All returns all registered retailer sources in slug order.
func All() []Retailer {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var out []Retailer
	for _, r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug() < out[j].Slug() })
	return out
}
