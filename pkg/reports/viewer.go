// Package reports implements the bearer-token gated sales and inventory
// reports, with day paging for sales and XLSX export.
package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/itsneelabh/cashier/core"
	"github.com/itsneelabh/cashier/pkg/api"
	"github.com/itsneelabh/cashier/pkg/catalog"
	"github.com/itsneelabh/cashier/pkg/money"
	"github.com/itsneelabh/cashier/pkg/session"
	"github.com/itsneelabh/cashier/pkg/telemetry"
)

// ErrSuperseded is returned by a load whose response arrived after a newer
// load had started. Its result is discarded.
var ErrSuperseded = errors.New("report load superseded")

// Alert titles and messages shown to the user.
const (
	AlertSessionTitle   = "Session Expired"
	AlertSessionMessage = "Please login again"
	AlertErrorTitle     = "Error"
	AlertErrorMessage   = "Failed to load reports"
)

// Phase is the lifecycle state of a Viewer.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Navigator performs navigation side effects.
type Navigator interface {
	RedirectToLogin(ctx context.Context)
}

// Alerter shows a user-facing alert.
type Alerter interface {
	Alert(ctx context.Context, title, message string)
}

// TokenSource yields the session bearer token. *session.Session implements it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ProductLoader loads the catalog with a bearer token. *catalog.Client
// implements it.
type ProductLoader interface {
	LoadAuthenticated(ctx context.Context, token string) catalog.Result
}

// Getter is the subset of *api.Client the viewer needs.
type Getter interface {
	Get(ctx context.Context, req api.Request, out interface{}) error
}

// Options configures a Viewer. API, Products, Tokens, Navigator and
// Alerter are required.
type Options struct {
	API       Getter
	Products  ProductLoader
	Tokens    TokenSource
	Navigator Navigator
	Alerter   Alerter
	Path      string
	Formatter money.Formatter
	Logger    core.Logger
	// Clock supplies "today" for the initial sales date. Defaults to time.Now.
	Clock func() time.Time
}

// Viewer loads and renders reports.
//
// Every load takes a generation number. A response whose generation is no
// longer current is discarded, so the last load issued wins rather than the
// last to arrive. A failed load keeps the previously loaded data.
//
// A load is all or nothing: when the available products cannot be fetched the
// report itself is not requested and the load fails as a whole.
type Viewer struct {
	api      Getter
	products ProductLoader
	tokens   TokenSource
	nav      Navigator
	alerter  Alerter
	path     string
	money    money.Formatter
	logger   core.Logger

	mu         sync.Mutex
	kind       Kind
	date       time.Time
	phase      Phase
	generation uint64
	data       Data
	err        error
}

// NewViewer creates a viewer showing today's sales report, idle until the
// first load.
func NewViewer(opts Options) (*Viewer, error) {
	if opts.API == nil || opts.Products == nil || opts.Tokens == nil || opts.Navigator == nil || opts.Alerter == nil {
		return nil, fmt.Errorf("reports viewer: %w", core.ErrMissingConfiguration)
	}
	if opts.Logger == nil {
		opts.Logger = &core.NoOpLogger{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Formatter.Symbol == "" {
		opts.Formatter = money.NewFormatter("")
	}
	if opts.Path == "" {
		opts.Path = core.DefaultConfig().API.ReportsPath
	}

	return &Viewer{
		api:      opts.API,
		products: opts.Products,
		tokens:   opts.Tokens,
		nav:      opts.Navigator,
		alerter:  opts.Alerter,
		path:     opts.Path,
		money:    opts.Formatter,
		logger:   opts.Logger,
		kind:     KindSales,
		date:     truncateDay(opts.Clock()),
		data:     Data{Available: []catalog.Product{}, Loaded: map[Kind]time.Time{}},
	}, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Refresh reloads the current report.
func (v *Viewer) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.generation++
	req := loadRequest{gen: v.generation, kind: v.kind, date: v.date}
	v.phase = PhaseLoading
	v.mu.Unlock()

	return v.load(ctx, req)
}

// SetKind switches report kind and reloads.
func (v *Viewer) SetKind(ctx context.Context, kind Kind) error {
	k, err := ParseKind(string(kind))
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.kind = k
	v.mu.Unlock()
	return v.Refresh(ctx)
}

// SetDate selects the sales date and reloads.
func (v *Viewer) SetDate(ctx context.Context, date time.Time) error {
	v.mu.Lock()
	v.date = truncateDay(date)
	v.mu.Unlock()
	return v.Refresh(ctx)
}

// SetDateString parses an ISO date and reloads.
func (v *Viewer) SetDateString(ctx context.Context, date string) error {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", date, err)
	}
	return v.SetDate(ctx, t)
}

// PrevDay moves the sales date back one day and reloads. There is no lower bound.
func (v *Viewer) PrevDay(ctx context.Context) error {
	return v.shiftDay(ctx, -1)
}

// NextDay moves the sales date forward one day and reloads. Future dates are allowed.
func (v *Viewer) NextDay(ctx context.Context) error {
	return v.shiftDay(ctx, 1)
}

func (v *Viewer) shiftDay(ctx context.Context, days int) error {
	v.mu.Lock()
	v.date = v.date.AddDate(0, 0, days)
	v.mu.Unlock()
	return v.Refresh(ctx)
}

type loadRequest struct {
	gen  uint64
	kind Kind
	date time.Time
}

type loadResult struct {
	available []catalog.Product
	sold      []SoldProduct
	restocks  []RestockLog
}

func (v *Viewer) load(ctx context.Context, req loadRequest) error {
	token, err := v.tokens.Token(ctx)
	if err != nil {
		return v.fail(ctx, req, err)
	}

	products := v.products.LoadAuthenticated(ctx, token)
	if !products.Available() {
		return v.fail(ctx, req, products.Reason)
	}

	res := loadResult{available: products.Products}
	switch req.kind {
	case KindInventory:
		res.restocks, err = v.fetchRestocks(ctx, token)
	default:
		res.sold, err = v.fetchSales(ctx, token, req.date)
	}
	if err != nil {
		return v.fail(ctx, req, err)
	}
	return v.apply(ctx, req, res)
}

func (v *Viewer) fetchSales(ctx context.Context, token string, date time.Time) ([]SoldProduct, error) {
	var payload struct {
		SoldProducts json.RawMessage `json:"soldProducts"`
	}
	err := v.api.Get(ctx, api.Request{
		Op:    "reports.sales",
		Path:  v.path,
		Query: url.Values{"date": {date.Format(DateLayout)}},
		Token: token,
	}, &payload)
	if err != nil {
		return nil, err
	}
	sold := []SoldProduct{}
	return sold, decodeList("reports.sales", "soldProducts", payload.SoldProducts, &sold)
}

func (v *Viewer) fetchRestocks(ctx context.Context, token string) ([]RestockLog, error) {
	var payload struct {
		RestockLogs json.RawMessage `json:"restockLogs"`
	}
	err := v.api.Get(ctx, api.Request{
		Op:    "reports.inventory",
		Path:  v.path,
		Query: url.Values{"type": {string(KindInventory)}},
		Token: token,
	}, &payload)
	if err != nil {
		return nil, err
	}
	logs := []RestockLog{}
	return logs, decodeList("reports.inventory", "restockLogs", payload.RestockLogs, &logs)
}

// decodeList decodes a JSON array field. A null or absent field is an empty
// list; any other non-array value is malformed.
func decodeList(op, field string, raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if !api.IsArray(raw) {
		return &api.Error{Op: op, Kind: api.KindMalformed, Err: fmt.Errorf("%w: %s is not a list", api.ErrMalformedResponse, field)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &api.Error{Op: op, Kind: api.KindMalformed, Err: fmt.Errorf("%w: %w", api.ErrMalformedResponse, err)}
	}
	return nil
}

func (v *Viewer) apply(ctx context.Context, req loadRequest, res loadResult) error {
	v.mu.Lock()
	if req.gen != v.generation {
		v.mu.Unlock()
		v.logger.Debug("Discarding superseded report response", telemetry.EnrichLogFields(ctx, map[string]interface{}{
			"kind":       string(req.kind),
			"generation": req.gen,
		}))
		return ErrSuperseded
	}

	v.data.Available = res.available
	switch req.kind {
	case KindInventory:
		v.data.Restocks = res.restocks
	default:
		v.data.Sold = res.sold
		v.data.SalesDate = req.date.Format(DateLayout)
	}
	v.data.Loaded[req.kind] = time.Now()
	v.phase = PhaseLoaded
	v.err = nil
	v.mu.Unlock()

	v.logger.Info("Report loaded", telemetry.EnrichLogFields(ctx, map[string]interface{}{
		"kind":      string(req.kind),
		"date":      req.date.Format(DateLayout),
		"available": len(res.available),
		"rows":      len(res.sold) + len(res.restocks),
	}))
	return nil
}

// fail records err for req unless a newer load has started, then raises the
// alert. A missing or expired session token also redirects to login.
func (v *Viewer) fail(ctx context.Context, req loadRequest, err error) error {
	v.mu.Lock()
	if req.gen != v.generation {
		v.mu.Unlock()
		return ErrSuperseded
	}
	v.phase = PhaseError
	v.err = err
	v.mu.Unlock()

	fields := telemetry.EnrichLogFields(ctx, map[string]interface{}{
		"kind":  string(req.kind),
		"error": err.Error(),
	})
	if session.IsLoginRequired(err) || api.IsUnauthorized(err) {
		v.logger.Warn("Report requires login", fields)
		v.alerter.Alert(ctx, AlertSessionTitle, AlertSessionMessage)
		v.nav.RedirectToLogin(ctx)
		return err
	}

	v.logger.Error("Failed to load report", fields)
	v.alerter.Alert(ctx, AlertErrorTitle, AlertErrorMessage)
	return err
}

// Kind returns the selected report kind.
func (v *Viewer) Kind() Kind {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.kind
}

// Date returns the selected sales date.
func (v *Viewer) Date() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.date
}

// Phase returns the current phase.
func (v *Viewer) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase
}

// Err returns the cause of the last failed load while in PhaseError.
func (v *Viewer) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Data returns a copy of the last successfully loaded data.
func (v *Viewer) Data() Data {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data.clone()
}
