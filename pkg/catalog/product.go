package catalog

import (
	"encoding/json"
	"strings"

	"github.com/itsneelabh/cashier/pkg/api"
	"github.com/shopspring/decimal"
)

// PlaceholderImage is shown for products without an image reference.
const PlaceholderImage = "https://via.placeholder.com/80"

// Product is an immutable snapshot of a catalog item as last fetched.
type Product struct {
	ID        int             `json:"id"`
	Name      string          `json:"product_name"`
	Price     decimal.Decimal `json:"price"`
	ImagePath string          `json:"image_path,omitempty"`
	Stock     int             `json:"stock"`
}

// UnmarshalJSON accepts numeric fields encoded as strings.
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        api.Int         `json:"id"`
		Name      string          `json:"product_name"`
		Price     decimal.Decimal `json:"price"`
		ImagePath *string         `json:"image_path"`
		Stock     api.Int         `json:"stock"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product{
		ID:    int(raw.ID),
		Name:  raw.Name,
		Price: raw.Price,
		Stock: int(raw.Stock),
	}
	if raw.ImagePath != nil {
		p.ImagePath = *raw.ImagePath
	}
	if p.Stock < 0 {
		p.Stock = 0
	}
	return nil
}

// Available reports whether at least one unit can be added to an order.
func (p Product) Available() bool {
	return p.Stock > 0
}

// ResolveImageURI turns an image reference into an absolute URL.
// Empty references map to PlaceholderImage, absolute http(s) references are
// kept, anything else is joined onto base.
func ResolveImageURI(base, path string) string {
	if path == "" {
		return PlaceholderImage
	}
	if strings.HasPrefix(path, "http") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
