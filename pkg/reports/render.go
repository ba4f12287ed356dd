package reports

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Render writes the reports screen to w: available products, then the
// selected report. While in PhaseError the last loaded data is shown.
func (v *Viewer) Render(w io.Writer) error {
	v.mu.Lock()
	phase, kind, date := v.phase, v.kind, v.date
	data := v.data.clone()
	v.mu.Unlock()

	if phase == PhaseIdle || (phase == PhaseLoading && len(data.Loaded) == 0) {
		_, err := fmt.Fprintln(w, "Loading Reports...")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Reports")
	if phase == PhaseError {
		fmt.Fprintln(tw, "(showing last loaded data)")
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Available Products (%d)\n", len(data.Available))
	for _, p := range data.Available {
		fmt.Fprintf(tw, "%s\t%s\tStock: %d\tAvailable\n", p.Name, v.money.Format(p.Price), p.Stock)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, kind.Title(date))
	fmt.Fprintln(tw, strings.Repeat("-", 40))
	switch kind {
	case KindInventory:
		if len(data.Restocks) == 0 {
			fmt.Fprintln(tw, "No restock logs.")
		}
		for _, r := range data.Restocks {
			fmt.Fprintf(tw, "%s\tPrevious: %d\tAdded: +%d\tNew: %d\tBy: %s\t%s\n",
				r.ProductName, int(r.PreviousStock), int(r.AddedStock), int(r.NewStock), r.RestockedBy, r.DisplayTime())
		}
	default:
		if data.SalesDate != date.Format(DateLayout) {
			fmt.Fprintf(tw, "(last loaded: %s)\n", orNone(data.SalesDate))
		}
		if len(data.Sold) == 0 {
			fmt.Fprintln(tw, "No sales for this date.")
		}
		for _, s := range data.Sold {
			fmt.Fprintf(tw, "%s\tSold: %d\tRevenue: %s\n", s.ProductName, int(s.TotalQuantitySold), v.money.Format(s.TotalRevenue))
		}
	}
	return tw.Flush()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
