// Package receipt fetches a finalized transaction and renders it as a
// printable summary. It is read-only against the POS API.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/itsneelabh/cashier/core"
	"github.com/itsneelabh/cashier/pkg/api"
	"github.com/itsneelabh/cashier/pkg/money"
	"github.com/itsneelabh/cashier/pkg/telemetry"
)

// ErrNoTransactionID is returned by Load for an empty id.
var ErrNoTransactionID = errors.New("transaction id is required")

// Phase is the lifecycle state of a Viewer.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	// PhaseNoData is terminal for the requested id; there is no retry.
	PhaseNoData
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseNoData:
		return "no_data"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Getter is the subset of *api.Client the viewer needs.
type Getter interface {
	Get(ctx context.Context, req api.Request, out interface{}) error
}

// Viewer loads and renders one receipt.
type Viewer struct {
	api    Getter
	path   string
	money  money.Formatter
	logger core.Logger

	mu    sync.Mutex
	phase Phase
	txnID string
	txn   *Transaction
	err   error
}

// NewViewer creates a receipt viewer for the endpoint at path.
func NewViewer(getter Getter, path string, formatter money.Formatter, logger core.Logger) *Viewer {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	if formatter.Symbol == "" {
		formatter = money.NewFormatter("")
	}
	return &Viewer{api: getter, path: path, money: formatter, logger: logger}
}

// Load fetches transaction txnID once.
// Any failure leaves the viewer in PhaseNoData and returns the cause.
func (v *Viewer) Load(ctx context.Context, txnID string) error {
	txnID = strings.TrimSpace(txnID)

	v.mu.Lock()
	v.phase = PhaseLoading
	v.txnID = txnID
	v.txn = nil
	v.err = nil
	v.mu.Unlock()

	if txnID == "" {
		return v.finish(nil, ErrNoTransactionID)
	}

	var payload struct {
		Data *Transaction `json:"data"`
	}
	req := api.Request{Op: "receipt.get", Path: v.path, Query: url.Values{"txn": {txnID}}}
	if err := v.api.Get(ctx, req, &payload); err != nil {
		return v.finish(nil, err)
	}
	if payload.Data == nil {
		return v.finish(nil, &api.Error{Op: "receipt.get", Kind: api.KindMalformed, Err: fmt.Errorf("%w: missing data", api.ErrMalformedResponse)})
	}

	if !payload.Data.Consistent() {
		v.logger.Warn("Receipt totals do not add up", telemetry.EnrichLogFields(ctx, map[string]interface{}{
			"txn":      txnID,
			"total":    payload.Data.Total.String(),
			"expected": payload.Data.ExpectedTotal().String(),
		}))
	}
	return v.finish(payload.Data, nil)
}

func (v *Viewer) finish(txn *Transaction, err error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.phase = PhaseNoData
		v.err = err
		v.logger.Warn("Receipt unavailable", map[string]interface{}{
			"txn":   v.txnID,
			"error": err.Error(),
		})
		return err
	}
	v.phase = PhaseLoaded
	v.txn = txn
	return nil
}

// Phase returns the current phase.
func (v *Viewer) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase
}

// Transaction returns the loaded transaction, if any.
func (v *Viewer) Transaction() (Transaction, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.txn == nil {
		return Transaction{}, false
	}
	return *v.txn, true
}

// Err returns why the viewer is in PhaseNoData.
func (v *Viewer) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// DisplayID formats a transaction id the way the till prints it.
func DisplayID(txnID string) string {
	return "#TXN-" + txnID
}

// Render writes the receipt summary to w.
func (v *Viewer) Render(w io.Writer) error {
	v.mu.Lock()
	phase, txnID, txn := v.phase, v.txnID, v.txn
	v.mu.Unlock()

	switch phase {
	case PhaseIdle:
		_, err := fmt.Fprintln(w, "No receipt requested.")
		return err
	case PhaseLoading:
		_, err := fmt.Fprintln(w, "Loading receipt...")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Order Complete")
	fmt.Fprintf(tw, "ID: %s\n", DisplayID(txnID))
	fmt.Fprintln(tw, strings.Repeat("-", 32))

	if phase == PhaseNoData || txn == nil {
		fmt.Fprintln(tw, "No receipt data available.")
		return tw.Flush()
	}

	fmt.Fprintf(tw, "Customer:\t%s\n", txn.CustomerName)
	fmt.Fprintf(tw, "Date:\t%s\n", txn.Date)
	fmt.Fprintf(tw, "Payment:\t%s\n", txn.PaymentMethod)
	fmt.Fprintln(tw, strings.Repeat("-", 32))

	fmt.Fprintln(tw, "Item\tQty\tPrice")
	for _, item := range txn.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", item.ProductName, int(item.Quantity), v.money.Format(item.Subtotal))
	}
	fmt.Fprintln(tw, strings.Repeat("-", 32))

	for _, row := range totalRows(*txn) {
		fmt.Fprintf(tw, "%s\t\t%s\n", row.label, v.money.Format(row.amount))
	}
	return tw.Flush()
}
