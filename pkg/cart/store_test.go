package cart

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/itsneelabh/cashier/core"
	"github.com/itsneelabh/cashier/pkg/catalog"
	"github.com/itsneelabh/cashier/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyPersister struct {
	saved map[int]int
	err   error
	saves int
}

func (f *flakyPersister) LoadCart(ctx context.Context) (map[int]int, error) {
	out := make(map[int]int)
	for k, v := range f.saved {
		out[k] = v
	}
	return out, f.err
}

func (f *flakyPersister) SaveCart(ctx context.Context, cart map[int]int) error {
	f.saves++
	if f.err != nil {
		return f.err
	}
	f.saved = make(map[int]int)
	for k, v := range cart {
		f.saved[k] = v
	}
	return nil
}

func newSessionStore(t *testing.T) (*Store, core.Memory) {
	t.Helper()
	mem := core.NewMemoryStore()
	return NewStore(session.New(mem), nil), mem
}

func persisted(t *testing.T, mem core.Memory) map[int]int {
	t.Helper()
	raw, err := mem.Get(context.Background(), core.KeyCart)
	require.NoError(t, err)
	out := map[int]int{}
	if raw != "" {
		require.NoError(t, json.Unmarshal([]byte(raw), &out))
	}
	return out
}

func TestStore_AddOneRespectsStock(t *testing.T) {
	ctx := context.Background()
	store, mem := newSessionStore(t)
	p1 := catalog.Product{ID: 1, Stock: 2}
	p2 := catalog.Product{ID: 2, Stock: 0}

	added, err := store.AddOne(ctx, p1)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = store.AddOne(ctx, p1)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.AddOne(ctx, p1)
	require.NoError(t, err)
	assert.False(t, added, "third add exceeds stock")
	assert.Equal(t, map[int]int{1: 2}, store.Snapshot())

	version := store.Version()
	added, err = store.AddOne(ctx, p2)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, map[int]int{1: 2}, store.Snapshot())
	assert.Equal(t, version, store.Version(), "no-op must not bump the version")

	assert.Equal(t, map[int]int{1: 2}, persisted(t, mem))
}

func TestStore_PersistedSnapshotMatchesMemory(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	products := []catalog.Product{{ID: 1, Stock: 3}, {ID: 2, Stock: 1}, {ID: 3, Stock: 0}, {ID: 4, Stock: 5}}

	for run := 0; run < 20; run++ {
		store, mem := newSessionStore(t)
		for step := 0; step < 30; step++ {
			p := products[rng.Intn(len(products))]
			switch rng.Intn(4) {
			case 0:
				_, err := store.RemoveOne(ctx, p.ID)
				require.NoError(t, err)
			default:
				_, err := store.AddOne(ctx, p)
				require.NoError(t, err)
			}
			assert.Equal(t, store.Snapshot(), persisted(t, mem))
			assert.LessOrEqual(t, store.Quantity(p.ID), p.Stock)
		}
	}
}

func TestStore_RemoveOperations(t *testing.T) {
	ctx := context.Background()
	store, mem := newSessionStore(t)
	p := catalog.Product{ID: 5, Stock: 10}

	for i := 0; i < 3; i++ {
		_, err := store.AddOne(ctx, p)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.Count())

	removed, err := store.RemoveOne(ctx, 5)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 2, store.Quantity(5))

	removed, err = store.Remove(ctx, 5)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, store.Quantity(5))
	assert.Empty(t, persisted(t, mem))

	removed, err = store.RemoveOne(ctx, 5)
	require.NoError(t, err)
	assert.False(t, removed)
	removed, err = store.Remove(ctx, 5)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, mem := newSessionStore(t)
	_, err := store.AddOne(ctx, catalog.Product{ID: 1, Stock: 1})
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))
	assert.Zero(t, store.Count())
	assert.Empty(t, persisted(t, mem))
}

func TestStore_RollbackOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	p := &flakyPersister{}
	store := NewStore(p, nil)
	product := catalog.Product{ID: 1, Stock: 5}

	_, err := store.AddOne(ctx, product)
	require.NoError(t, err)
	version := store.Version()

	p.err = errors.New("redis down")
	added, err := store.AddOne(ctx, product)
	assert.True(t, added)
	assert.Error(t, err)
	assert.Equal(t, 1, store.Quantity(1), "failed write must not change memory")
	assert.Equal(t, version, store.Version())

	_, err = store.Remove(ctx, 1)
	assert.Error(t, err)
	assert.Equal(t, 1, store.Quantity(1))

	assert.Error(t, store.Clear(ctx))
	assert.Equal(t, 1, store.Count())
}

func TestStore_Resume(t *testing.T) {
	ctx := context.Background()
	mem := core.NewMemoryStore()
	first := NewStore(session.New(mem), nil)
	_, err := first.AddOne(ctx, catalog.Product{ID: 9, Stock: 4})
	require.NoError(t, err)

	second := NewStore(session.New(mem), nil)
	require.NoError(t, second.Resume(ctx))
	assert.Equal(t, map[int]int{9: 1}, second.Snapshot())
	assert.Equal(t, []Entry{{ProductID: 9, Quantity: 1}}, second.Entries())
}

func TestStore_ResumeCorrupt(t *testing.T) {
	ctx := context.Background()
	mem := core.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, core.KeyCart, "{", 0))

	store := NewStore(session.New(mem), nil)
	err := store.Resume(ctx)
	assert.ErrorIs(t, err, core.ErrCorruptSnapshot)
	assert.Empty(t, store.Snapshot())
}

type staticPersister struct {
	loaded map[int]int
	saved  map[int]int
}

func (s *staticPersister) LoadCart(ctx context.Context) (map[int]int, error) {
	return s.loaded, nil
}

func (s *staticPersister) SaveCart(ctx context.Context, cart map[int]int) error {
	s.saved = cart
	return nil
}

func TestStore_ResumeNilSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&staticPersister{}, nil)
	require.NoError(t, store.Resume(ctx))
	assert.Zero(t, store.Count())

	added, err := store.AddOne(ctx, catalog.Product{ID: 1, Stock: 2})
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, store.Quantity(1))
}

func TestStore_ResumeCopiesSnapshot(t *testing.T) {
	ctx := context.Background()
	p := &staticPersister{loaded: map[int]int{1: 2, 2: 0, 3: -1}}
	store := NewStore(p, nil)
	require.NoError(t, store.Resume(ctx))
	assert.Equal(t, map[int]int{1: 2}, store.Snapshot())

	p.loaded[1] = 99
	assert.Equal(t, 2, store.Quantity(1), "store must not alias the loaded map")
}
