package mockapi

import (
	"sort"
	"sync"
	"time"

	"github.com/itsneelabh/cashier/pkg/api"
	"github.com/itsneelabh/cashier/pkg/catalog"
	"github.com/itsneelabh/cashier/pkg/receipt"
	"github.com/itsneelabh/cashier/pkg/reports"
	"github.com/shopspring/decimal"
)

// Store is the in-memory data behind the mock API.
type Store struct {
	mu           sync.RWMutex
	products     []catalog.Product
	transactions map[string]receipt.Transaction
	sales        map[string][]reports.SoldProduct
	restocks     []reports.RestockLog
	nextRestock  int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		transactions: make(map[string]receipt.Transaction),
		sales:        make(map[string][]reports.SoldProduct),
		nextRestock:  1,
	}
}

// AddProduct appends p to the catalog, replacing any product with the same id.
func (s *Store) AddProduct(p catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = p
			return
		}
	}
	s.products = append(s.products, p)
}

// RemoveProduct drops id from the catalog.
func (s *Store) RemoveProduct(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return true
		}
	}
	return false
}

// Products returns the catalog in insertion order.
func (s *Store) Products() []catalog.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]catalog.Product{}, s.products...)
}

// PutTransaction records txn under id and folds its items into the sales
// report for the transaction's date.
func (s *Store) PutTransaction(id string, txn receipt.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[id] = txn

	day := txn.Date
	if len(day) >= len(reports.DateLayout) {
		day = day[:len(reports.DateLayout)]
	}
	for _, item := range txn.Items {
		s.addSaleLocked(day, item)
	}
}

func (s *Store) addSaleLocked(day string, item receipt.LineItem) {
	productID := 0
	for _, p := range s.products {
		if p.Name == item.ProductName {
			productID = p.ID
		}
	}
	rows := s.sales[day]
	for i := range rows {
		if rows[i].ProductName == item.ProductName {
			rows[i].TotalQuantitySold += item.Quantity
			rows[i].TotalRevenue = rows[i].TotalRevenue.Add(item.Subtotal)
			return
		}
	}
	s.sales[day] = append(rows, reports.SoldProduct{
		ProductID:         api.Int(productID),
		ProductName:       item.ProductName,
		TotalQuantitySold: item.Quantity,
		TotalRevenue:      item.Subtotal,
	})
}

// Transaction looks up a transaction by id.
func (s *Store) Transaction(id string) (receipt.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.transactions[id]
	return txn, ok
}

// Sales returns the sold products for an ISO date, by descending revenue.
func (s *Store) Sales(day string) []reports.SoldProduct {
	s.mu.RLock()
	rows := append([]reports.SoldProduct{}, s.sales[day]...)
	s.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalRevenue.GreaterThan(rows[j].TotalRevenue)
	})
	return rows
}

// Restock adds qty units to product id and logs the change.
func (s *Store) Restock(id, qty int, by string, at time.Time) (reports.RestockLog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		p := &s.products[i]
		if p.ID != id {
			continue
		}
		entry := reports.RestockLog{
			ID:            api.Int(s.nextRestock),
			ProductName:   p.Name,
			PreviousStock: api.Int(p.Stock),
			AddedStock:    api.Int(qty),
			NewStock:      api.Int(p.Stock + qty),
			RestockedBy:   by,
			RestockedAt:   at.UTC().Format("2006-01-02 15:04:05"),
		}
		p.Stock += qty
		s.nextRestock++
		s.restocks = append(s.restocks, entry)
		return entry, true
	}
	return reports.RestockLog{}, false
}

// RestockLogs returns the restock history, newest first.
func (s *Store) RestockLogs() []reports.RestockLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]reports.RestockLog, 0, len(s.restocks))
	for i := len(s.restocks) - 1; i >= 0; i-- {
		out = append(out, s.restocks[i])
	}
	return out
}

// Seed fills s with a small coffee-shop catalog, receipt 42 and a day of
// sales on the date of now.
func Seed(s *Store, now time.Time) {
	price := decimal.RequireFromString
	for _, p := range []catalog.Product{
		{ID: 1, Name: "Caffe Latte", Price: price("50.00"), ImagePath: "uploads/latte.png", Stock: 20},
		{ID: 2, Name: "Cold Brew", Price: price("145.50"), ImagePath: "uploads/cold-brew.png", Stock: 8},
		{ID: 3, Name: "Caramel Macchiato", Price: price("165.00"), Stock: 2},
		{ID: 4, Name: "Matcha Frappe", Price: price("175.00"), ImagePath: "https://cdn.example.com/matcha.png", Stock: 0},
	} {
		s.AddProduct(p)
	}

	day := now.UTC().Format(reports.DateLayout)
	s.PutTransaction("42", receipt.Transaction{
		CustomerName:  "Walk-in",
		Date:          day + " 09:15:00",
		Subtotal:      price("100"),
		Tax:           price("12"),
		Discount:      price("5"),
		Total:         price("107"),
		PaymentMethod: "Cash",
		Items: []receipt.LineItem{
			{ProductName: "Caffe Latte", Quantity: 2, Price: price("50"), Subtotal: price("100")},
		},
	})
	s.PutTransaction("43", receipt.Transaction{
		CustomerName:  "Ana",
		Date:          day + " 10:02:00",
		Subtotal:      price("145.50"),
		Tax:           price("17.46"),
		Discount:      decimal.Zero,
		Total:         price("162.96"),
		PaymentMethod: "GCash",
		Items: []receipt.LineItem{
			{ProductName: "Cold Brew", Quantity: 1, Price: price("145.50"), Subtotal: price("145.50")},
		},
	})

	s.Restock(1, 10, "admin", now.Add(-26*time.Hour))
	s.Restock(2, 4, "admin", now.Add(-2*time.Hour))
}
