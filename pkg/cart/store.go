// Package cart holds the till's order in progress and projects it against
// the latest catalog snapshot for display.
package cart

import (
	"context"
	"sort"
	"sync"

	"github.com/itsneelabh/cashier/core"
	"github.com/itsneelabh/cashier/pkg/catalog"
	"github.com/itsneelabh/cashier/pkg/telemetry"
)

// Persister stores the full cart snapshot. *session.Session implements it.
type Persister interface {
	LoadCart(ctx context.Context) (map[int]int, error)
	SaveCart(ctx context.Context, cart map[int]int) error
}

// Entry is one product id and its requested quantity.
type Entry struct {
	ProductID int
	Quantity  int
}

// Store maps product ids to requested quantities.
//
// Every mutation writes the whole map through the Persister before it
// becomes visible. When the write fails the mutation is rolled back and the
// error returned, so memory and the durable snapshot never disagree.
type Store struct {
	mu        sync.Mutex
	items     map[int]int
	persister Persister
	logger    core.Logger
	version   uint64
}

// NewStore creates an empty cart persisted through p.
func NewStore(p Persister, logger core.Logger) *Store {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &Store{items: make(map[int]int), persister: p, logger: logger}
}

// Resume replaces the in-memory cart with the persisted snapshot.
// Entries with a non-positive quantity are ignored.
func (s *Store) Resume(ctx context.Context) error {
	loaded, err := s.persister.LoadCart(ctx)
	if err != nil {
		return err
	}

	items := make(map[int]int, len(loaded))
	for id, qty := range loaded {
		if qty > 0 {
			items[id] = qty
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.version++
	s.logger.Debug("Cart resumed", telemetry.EnrichLogFields(ctx, map[string]interface{}{
		"entries": len(items),
	}))
	return nil
}

// AddOne adds a single unit of product.
//
// When the cart already holds as many units as the product has in stock the
// call is a no-op and returns false with a nil error.
func (s *Store) AddOne(ctx context.Context, product catalog.Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.items[product.ID]
	if current >= product.Stock {
		s.logger.Debug("Add ignored, stock limit reached", telemetry.EnrichLogFields(ctx, map[string]interface{}{
			"product_id": product.ID,
			"quantity":   current,
			"stock":      product.Stock,
		}))
		return false, nil
	}
	return true, s.mutate(ctx, product.ID, current+1)
}

// RemoveOne takes a single unit of id out of the cart.
// It returns false when the cart holds none.
func (s *Store) RemoveOne(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.items[id]
	if current == 0 {
		return false, nil
	}
	return true, s.mutate(ctx, id, current-1)
}

// Remove drops every unit of id. It returns false when the cart holds none.
func (s *Store) Remove(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	return true, s.mutate(ctx, id, 0)
}

// Clear empties the cart, as after checkout.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persister.SaveCart(ctx, map[int]int{}); err != nil {
		s.logger.Error("Failed to persist cleared cart", telemetry.EnrichLogFields(ctx, map[string]interface{}{
			"error": err.Error(),
		}))
		return err
	}
	s.items = make(map[int]int)
	s.version++
	return nil
}

// mutate sets id to qty (deleting at zero) and persists. s.mu must be held.
func (s *Store) mutate(ctx context.Context, id, qty int) error {
	prev, had := s.items[id]
	if qty > 0 {
		s.items[id] = qty
	} else {
		delete(s.items, id)
	}

	if err := s.persister.SaveCart(ctx, s.items); err != nil {
		if had {
			s.items[id] = prev
		} else {
			delete(s.items, id)
		}
		s.logger.Error("Failed to persist cart, mutation rolled back", telemetry.EnrichLogFields(ctx, map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		}))
		return err
	}

	s.version++
	s.logger.Debug("Cart updated", telemetry.EnrichLogFields(ctx, map[string]interface{}{
		"product_id": id,
		"quantity":   qty,
	}))
	return nil
}

// Quantity returns the units of id in the cart.
func (s *Store) Quantity(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

// Snapshot returns a copy of the cart map.
func (s *Store) Snapshot() map[int]int {
	items, _ := s.versioned()
	return items
}

func (s *Store) versioned() (map[int]int, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]int, len(s.items))
	for id, qty := range s.items {
		out[id] = qty
	}
	return out, s.version
}

// Entries returns the cart entries ordered by product id.
func (s *Store) Entries() []Entry {
	snapshot := s.Snapshot()
	entries := make([]Entry, 0, len(snapshot))
	for id, qty := range snapshot {
		entries = append(entries, Entry{ProductID: id, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ProductID < entries[j].ProductID })
	return entries
}

// Count returns the total number of units in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, qty := range s.items {
		n += qty
	}
	return n
}

// Version increases with every applied mutation.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}
