// Package router keeps track of which console page is active and dispatches
// that page's loader.
package router

import (
	"context"
	"sync"
)

// Page identifies one console section.
type Page string

const (
	Main       Page = "main"
	Incidents  Page = "incidents"
	Rules      Page = "rules"
	Monitoring Page = "monitoring"
)

// Pages lists every page in navigation order.
var Pages = []Page{Main, Incidents, Rules, Monitoring}

// ParsePage maps an identifier to a Page. Unknown identifiers report false.
func ParsePage(id string) (Page, bool) {
	for _, p := range Pages {
		if string(p) == id {
			return p, true
		}
	}
	return "", false
}

func (p Page) String() string { return string(p) }

// Loader fetches one page's data and turns it into a view.
type Loader[V any] func(ctx context.Context) V

// NavItem is one entry of the navigation bar.
type NavItem struct {
	Page   Page
	Active bool
}

// Router holds the active page and the loader table. It is safe for
// concurrent use; the last navigation wins.
type Router[V any] struct {
	mu      sync.RWMutex
	active  Page
	loaders map[Page]Loader[V]
}

// New returns a router with Main active.
func New[V any](loaders map[Page]Loader[V]) *Router[V] {
	return &Router[V]{active: Main, loaders: loaders}
}

// Active returns the active page.
func (r *Router[V]) Active() Page {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Activate marks id active without loading it. It reports false, leaving the
// router unchanged, when id is not a known page.
func (r *Router[V]) Activate(id string) (Page, bool) {
	p, ok := ParsePage(id)
	if !ok {
		return "", false
	}
	r.mu.Lock()
	r.active = p
	r.mu.Unlock()
	return p, true
}

// Load runs the loader registered for p. Pages without a loader yield the
// zero view.
func (r *Router[V]) Load(ctx context.Context, p Page) (V, bool) {
	r.mu.RLock()
	load, ok := r.loaders[p]
	r.mu.RUnlock()
	if !ok || load == nil {
		var zero V
		return zero, false
	}
	return load(ctx), true
}

// Navigate activates id and runs its loader. Unknown ids are a no-op: no
// page changes and no loader runs.
func (r *Router[V]) Navigate(ctx context.Context, id string) (V, bool) {
	p, ok := r.Activate(id)
	if !ok {
		var zero V
		return zero, false
	}
	return r.Load(ctx, p)
}

// Nav returns the navigation items with exactly one marked active.
func (r *Router[V]) Nav() []NavItem {
	return NavFor(r.Active())
}

// NavFor builds navigation items for a request-scoped active page.
func NavFor(active Page) []NavItem {
	if _, ok := ParsePage(string(active)); !ok {
		active = Main
	}
	items := make([]NavItem, len(Pages))
	for i, p := range Pages {
		items[i] = NavItem{Page: p, Active: p == active}
	}
	return items
}
