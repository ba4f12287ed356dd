package cart

import (
	"context"
	"testing"

	"github.com/itsneelabh/cashier/core"
	"github.com/itsneelabh/cashier/pkg/catalog"
	"github.com/itsneelabh/cashier/pkg/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id int, price string, stock int) catalog.Product {
	return catalog.Product{ID: id, Name: "p", Price: decimal.RequireFromString(price), Stock: stock}
}

func TestProject_CatalogOrderPositiveOnly(t *testing.T) {
	products := []catalog.Product{product(3, "10", 5), product(1, "20", 5), product(2, "30", 5)}
	proj := Project(products, map[int]int{1: 2, 2: 0, 3: 1})

	require.Len(t, proj.Lines, 2)
	assert.Equal(t, 3, proj.Lines[0].Product.ID)
	assert.Equal(t, 1, proj.Lines[1].Product.ID)
	assert.Empty(t, proj.Stale)
	assert.Empty(t, proj.Unknown)
	assert.Equal(t, "50", proj.Total().String())
	assert.Equal(t, 3, proj.Units())
}

func TestProject_ClampsToStock(t *testing.T) {
	proj := Project([]catalog.Product{product(1, "5", 2)}, map[int]int{1: 4})

	require.Len(t, proj.Lines, 1)
	assert.Equal(t, 2, proj.Lines[0].Quantity)
	assert.True(t, proj.Lines[0].Clamped)
	assert.Equal(t, "10", proj.Total().String())
}

func TestProject_NeverExceedsStock(t *testing.T) {
	products := []catalog.Product{product(1, "1", 0), product(2, "1", 1), product(3, "1", 7)}
	for q1 := 0; q1 < 4; q1++ {
		for q2 := 0; q2 < 4; q2++ {
			for q3 := 0; q3 < 10; q3 += 3 {
				proj := Project(products, map[int]int{1: q1, 2: q2, 3: q3})
				for _, l := range proj.Lines {
					assert.LessOrEqual(t, l.Quantity, l.Product.Stock)
					assert.Positive(t, l.Quantity)
				}
			}
		}
	}
}

func TestProject_StaleAndUnknown(t *testing.T) {
	proj := Project([]catalog.Product{product(1, "5", 0)}, map[int]int{1: 1, 8: 2})

	assert.Empty(t, proj.Lines)
	require.Len(t, proj.Stale, 1)
	assert.Equal(t, ReasonOutOfStock, proj.Stale[0].Reason)
	assert.Equal(t, 1, proj.Stale[0].Requested)
	assert.Zero(t, proj.Units(), "stale entries are never sellable")
	assert.Equal(t, []int{8}, proj.Unknown)
	assert.True(t, proj.Total().IsZero())
}

func TestProjector_RemembersRemovedProducts(t *testing.T) {
	ctx := context.Background()
	store := NewStore(session.New(core.NewMemoryStore()), nil)
	projector := NewProjector()

	latte := product(1, "120", 3)
	brew := product(2, "145.50", 3)
	projector.SetCatalog([]catalog.Product{latte, brew})
	_, err := store.AddOne(ctx, latte)
	require.NoError(t, err)
	_, err = store.AddOne(ctx, brew)
	require.NoError(t, err)

	proj := projector.Project(store)
	require.Len(t, proj.Lines, 2)
	assert.Equal(t, "265.5", proj.Total().String())

	projector.SetCatalog([]catalog.Product{brew})
	proj = projector.Project(store)
	require.Len(t, proj.Lines, 1)
	require.Len(t, proj.Stale, 1)
	assert.Equal(t, ReasonRemoved, proj.Stale[0].Reason)
	assert.Equal(t, latte.Price, proj.Stale[0].Product.Price)
	assert.Equal(t, 1, store.Quantity(1), "the entry itself stays in the cart")
}

func TestProjector_CachedResultIsIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewStore(session.New(core.NewMemoryStore()), nil)
	projector := NewProjector()
	latte := product(1, "120", 3)
	projector.SetCatalog([]catalog.Product{latte, product(2, "50", 0)})
	_, err := store.AddOne(ctx, latte)
	require.NoError(t, err)
	_, err = store.AddOne(ctx, latte)
	require.NoError(t, err)

	first := projector.Project(store)
	require.Len(t, first.Lines, 1)
	first.Lines[0].Quantity = 99
	first.Lines = append(first.Lines, Line{Product: latte, Quantity: 1})

	second := projector.Project(store)
	require.Len(t, second.Lines, 1)
	assert.Equal(t, 2, second.Lines[0].Quantity)
}

func TestProjector_RecomputesOnCartChange(t *testing.T) {
	ctx := context.Background()
	store := NewStore(session.New(core.NewMemoryStore()), nil)
	projector := NewProjector()
	p := product(1, "2", 5)
	projector.SetCatalog([]catalog.Product{p})

	assert.Empty(t, projector.Project(store).Lines)

	_, err := store.AddOne(ctx, p)
	require.NoError(t, err)
	proj := projector.Project(store)
	require.Len(t, proj.Lines, 1)
	assert.Equal(t, 1, proj.Lines[0].Quantity)
}

func TestProjector_WiredToMenu(t *testing.T) {
	projector := NewProjector()
	menu := catalog.NewMenu(loader{products: []catalog.Product{product(4, "1", 1)}})
	menu.OnChange(projector.SetCatalog)
	menu.Refresh(context.Background())

	store := NewStore(session.New(core.NewMemoryStore()), nil)
	_, err := store.AddOne(context.Background(), product(4, "1", 1))
	require.NoError(t, err)
	assert.Len(t, projector.Project(store).Lines, 1)
}

type loader struct{ products []catalog.Product }

func (l loader) Load(ctx context.Context) catalog.Result {
	return catalog.Result{Products: l.products, Status: catalog.StatusLoaded}
}
