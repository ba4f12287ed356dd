package cart

import (
	"sort"
	"sync"

	"github.com/itsneelabh/cashier/pkg/catalog"
	"github.com/shopspring/decimal"
)

// Line is one display row of the cart.
type Line struct {
	Product  catalog.Product
	Quantity int
	// Clamped is set when the cart holds more units than the product's
	// stock; Quantity then equals the stock.
	Clamped bool
}

// Subtotal is price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// StaleReason says why a cart entry could not be shown as a line.
type StaleReason string

const (
	// ReasonRemoved means the product is missing from the latest catalog.
	ReasonRemoved StaleReason = "removed"
	// ReasonOutOfStock means the latest catalog lists the product with no stock.
	ReasonOutOfStock StaleReason = "out_of_stock"
)

// StaleEntry is a cart entry kept out of the lines, with the last product
// data seen for it. Requested is the quantity held in the cart; none of it
// can be sold, so it is never counted in Units or Total.
type StaleEntry struct {
	Product   catalog.Product
	Requested int
	Reason    StaleReason
}

// Projection is the cart as it should be displayed.
// Only Lines carry sellable quantities, each bounded by stock. Stale and
// Unknown list cart entries that cannot be sold right now.
type Projection struct {
	Lines   []Line       // Catalog order
	Stale   []StaleEntry // Ordered by product id
	Unknown []int        // Ids never seen in any catalog, ascending
}

// Total sums line subtotals. Stale entries are not charged.
func (p Projection) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range p.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Units sums line quantities.
func (p Projection) Units() int {
	n := 0
	for _, l := range p.Lines {
		n += l.Quantity
	}
	return n
}

// Project builds the display projection of entries against products.
// Entries whose product is absent are reported in Unknown.
func Project(products []catalog.Product, entries map[int]int) Projection {
	return project(products, entries, nil)
}

func project(products []catalog.Product, entries map[int]int, known map[int]catalog.Product) Projection {
	proj := Projection{Lines: []Line{}}
	listed := make(map[int]bool, len(products))

	for _, p := range products {
		listed[p.ID] = true
		qty := entries[p.ID]
		if qty <= 0 {
			continue
		}
		if p.Stock <= 0 {
			proj.Stale = append(proj.Stale, StaleEntry{Product: p, Requested: qty, Reason: ReasonOutOfStock})
			continue
		}
		line := Line{Product: p, Quantity: qty}
		if qty > p.Stock {
			line.Quantity = p.Stock
			line.Clamped = true
		}
		proj.Lines = append(proj.Lines, line)
	}

	for id, qty := range entries {
		if qty <= 0 || listed[id] {
			continue
		}
		if p, ok := known[id]; ok {
			proj.Stale = append(proj.Stale, StaleEntry{Product: p, Requested: qty, Reason: ReasonRemoved})
		} else {
			proj.Unknown = append(proj.Unknown, id)
		}
	}

	sort.Slice(proj.Stale, func(i, j int) bool { return proj.Stale[i].Product.ID < proj.Stale[j].Product.ID })
	sort.Ints(proj.Unknown)
	return proj
}

// Projector recomputes the cart projection when the catalog or the cart
// changes, remembering every product it has seen so entries for products
// that later vanish can still be shown with their last-known data.
type Projector struct {
	mu             sync.Mutex
	products       []catalog.Product
	known          map[int]catalog.Product
	catalogVersion uint64

	cached         *Projection
	cachedCatalog  uint64
	cachedCart     uint64
	cachedCartFrom *Store
}

// NewProjector creates a projector with no catalog.
func NewProjector() *Projector {
	return &Projector{known: make(map[int]catalog.Product)}
}

// SetCatalog installs a new catalog snapshot. Its signature matches
// catalog.Menu.OnChange.
func (p *Projector) SetCatalog(products []catalog.Product) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.products = append([]catalog.Product(nil), products...)
	for _, prod := range products {
		p.known[prod.ID] = prod
	}
	p.catalogVersion++
}

// Project returns the projection of store against the current catalog.
func (p *Projector) Project(store *Store) Projection {
	p.mu.Lock()
	defer p.mu.Unlock()

	items, cartVersion := store.versioned()
	if p.cached != nil && p.cachedCartFrom == store &&
		p.cachedCatalog == p.catalogVersion && p.cachedCart == cartVersion {
		return p.cached.clone()
	}

	proj := project(p.products, items, p.known)
	p.cached = &proj
	p.cachedCatalog = p.catalogVersion
	p.cachedCart = cartVersion
	p.cachedCartFrom = store
	return proj.clone()
}

// clone copies the slices so callers cannot alter a cached projection.
func (p Projection) clone() Projection {
	out := Projection{Lines: append([]Line{}, p.Lines...)}
	if p.Stale != nil {
		out.Stale = append([]StaleEntry(nil), p.Stale...)
	}
	if p.Unknown != nil {
		out.Unknown = append([]int(nil), p.Unknown...)
	}
	return out
}
