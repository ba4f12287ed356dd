package receipt

import (
	"github.com/itsneelabh/cashier/pkg/api"
	"github.com/shopspring/decimal"
)

// LineItem is one product row of a finalized sale.
type LineItem struct {
	ProductName string          `json:"product_name"`
	Quantity    api.Int         `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Transaction is a server-recorded sale. The client never mutates it.
type Transaction struct {
	CustomerName  string          `json:"customer_name"`
	Date          string          `json:"transaction_date"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	Items         []LineItem      `json:"items"`
}

// ExpectedTotal is subtotal + tax - discount.
func (t Transaction) ExpectedTotal() decimal.Decimal {
	return t.Subtotal.Add(t.Tax).Sub(t.Discount)
}

// Consistent reports whether Total equals ExpectedTotal. The server owns
// the figures, so a mismatch is reported but never corrected.
func (t Transaction) Consistent() bool {
	return t.Total.Equal(t.ExpectedTotal())
}
