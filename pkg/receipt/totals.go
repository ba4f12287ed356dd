package receipt

import "github.com/shopspring/decimal"

type totalRow struct {
	label  string
	amount decimal.Decimal
}

// totalRows binds each summary row to its own field.
func totalRows(t Transaction) []totalRow {
	return []totalRow{
		{"Subtotal", t.Subtotal},
		{"Tax", t.Tax},
		{"Discount", t.Discount},
		{"TOTAL", t.Total},
	}
}
