package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/itsneelabh/cashier/pkg/api"
	"github.com/itsneelabh/cashier/pkg/catalog"
	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date used by the sales report.
const DateLayout = "2006-01-02"

// Kind selects which report the viewer shows.
type Kind string

const (
	KindSales     Kind = "sales"
	KindInventory Kind = "inventory"
)

// ParseKind accepts "sales" or "inventory", case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSales, KindInventory:
		return k, nil
	default:
		return "", fmt.Errorf("unknown report kind %q", s)
	}
}

// Title is the heading of the report section.
func (k Kind) Title(date time.Time) string {
	if k == KindInventory {
		return "Inventory Restock Logs"
	}
	return "Sold Products Report - " + date.Format(DateLayout)
}

// SoldProduct aggregates one product's sales for a day.
type SoldProduct struct {
	ProductID         api.Int         `json:"product_id"`
	ProductName       string          `json:"product_name"`
	TotalQuantitySold api.Int         `json:"total_quantity_sold"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
}

// RestockLog records one inventory replenishment.
type RestockLog struct {
	ID            api.Int `json:"id"`
	ProductName   string  `json:"product_name"`
	PreviousStock api.Int `json:"previous_stock"`
	AddedStock    api.Int `json:"added_stock"`
	NewStock      api.Int `json:"new_stock"`
	RestockedBy   string  `json:"restocked_by"`
	RestockedAt   string  `json:"restocked_at"`
}

// restockTimeLayouts are the timestamp shapes the API is known to send.
var restockTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// DisplayTime formats RestockedAt for humans, falling back to the raw value.
func (r RestockLog) DisplayTime() string {
	for _, layout := range restockTimeLayouts {
		if t, err := time.Parse(layout, r.RestockedAt); err == nil {
			return t.Format("Jan 2, 2006 3:04 PM")
		}
	}
	return r.RestockedAt
}

// Data is what the viewer last loaded successfully.
type Data struct {
	Available []catalog.Product
	// Sold is the sales report for SalesDate.
	Sold      []SoldProduct
	SalesDate string
	Restocks  []RestockLog
	// Loaded records which kinds have ever loaded.
	Loaded map[Kind]time.Time
}

func (d Data) clone() Data {
	out := Data{
		Available: append([]catalog.Product(nil), d.Available...),
		Sold:      append([]SoldProduct(nil), d.Sold...),
		SalesDate: d.SalesDate,
		Restocks:  append([]RestockLog(nil), d.Restocks...),
		Loaded:    make(map[Kind]time.Time, len(d.Loaded)),
	}
	for k, v := range d.Loaded {
		out.Loaded[k] = v
	}
	return out
}
