package pages

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the pages in display order.
type Registry struct {
	mu     sync.RWMutex
	pages  []Page
	bySlug map[string]Page
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{bySlug: make(map[string]Page)}
}

// Register adds p. Paths must be unique.
func (r *Registry) Register(p Page) error {
	m := p.Meta()
	if m.Path == "" || m.Path[0] != '/' {
		return fmt.Errorf("register %q: path must start with /", m.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	slug := m.Slug()
	if _, ok := r.bySlug[slug]; ok {
		return fmt.Errorf("register %q: path %s already registered", m.Name, m.Path)
	}
	r.bySlug[slug] = p
	r.pages = append(r.pages, p)
	sort.SliceStable(r.pages, func(i, j int) bool {
		return less(r.pages[i].Meta(), r.pages[j].Meta())
	})
	return nil
}

// less orders pages with an explicit order first (ascending), then by path.
func less(a, b Meta) bool {
	switch {
	case a.Order != nil && b.Order != nil:
		if *a.Order != *b.Order {
			return *a.Order < *b.Order
		}
		return a.Path < b.Path
	case a.Order != nil:
		return true
	case b.Order != nil:
		return false
	default:
		return a.Path < b.Path
	}
}

// Pages returns the registered pages in display order.
func (r *Registry) Pages() []Page {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Page(nil), r.pages...)
}

// Metas returns the metadata of every page in display order.
func (r *Registry) Metas() []Meta {
	ps := r.Pages()
	out := make([]Meta, len(ps))
	for i, p := range ps {
		out[i] = p.Meta()
	}
	return out
}

// Lookup finds a page by slug.
func (r *Registry) Lookup(slug string) (Page, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.bySlug[slug]
	return p, ok
}

// ByPath finds a page by its URL path.
func (r *Registry) ByPath(path string) (Page, bool) {
	return r.Lookup(Slug(path))
}

// NewDefault registers every page backed by src.
func NewDefault(src DataSource, opts Options) (*Registry, error) {
	r := NewRegistry()
	for _, p := range []Page{
		Home{},
		&AntennaPage{src: src},
		&MobilePage{src: src},
		&EVPage{src: src, opts: opts},
		&PopulationPage{src: src, opts: opts},
		&WindPage{src: src},
		&OSMPage{src: src},
		&OSMEuropePage{src: src},
		&DensityPage{src: src, opts: opts},
		&ZueriPage{src: src},
		&LandPage{src: src, opts: opts},
	} {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}
