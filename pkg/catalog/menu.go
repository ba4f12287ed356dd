package catalog

import (
	"context"
	"sync"
)

// Loader is implemented by Client.
type Loader interface {
	Load(ctx context.Context) Result
}

// Menu keeps the last good catalog snapshot for the till.
//
// Each Refresh takes a generation number; a response that arrives after a
// newer Refresh has started is discarded. An unavailable result never
// replaces a previously loaded snapshot.
type Menu struct {
	loader Loader

	mu         sync.Mutex
	generation uint64
	products   []Product
	loaded     bool
	lastErr    error
	listeners  []func([]Product)
}

// NewMenu creates an empty menu backed by loader.
func NewMenu(loader Loader) *Menu {
	return &Menu{loader: loader, products: []Product{}}
}

// Refresh fetches the catalog. It returns the fetch result and whether the
// result was applied to the menu.
func (m *Menu) Refresh(ctx context.Context) (Result, bool) {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	res := m.loader.Load(ctx)

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return res, false
	}
	if !res.Available() {
		m.lastErr = res.Reason
		m.mu.Unlock()
		return res, false
	}
	m.products = res.Products
	m.loaded = true
	m.lastErr = nil
	snapshot := m.snapshotLocked()
	listeners := append([]func([]Product){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	return res, true
}

// OnChange registers fn to be called with every applied snapshot.
func (m *Menu) OnChange(fn func([]Product)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Products returns a copy of the current snapshot in catalog order.
func (m *Menu) Products() []Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Loaded reports whether any refresh has succeeded.
func (m *Menu) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// LastError returns the reason of the most recent failed refresh, if the
// menu has not recovered since.
func (m *Menu) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Find returns the product with id from the current snapshot.
func (m *Menu) Find(id int) (Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (m *Menu) snapshotLocked() []Product {
	out := make([]Product, len(m.products))
	copy(out, m.products)
	return out
}
