// Package cashier assembles the POS client: configuration, logging,
// telemetry, the session store and the catalog, cart, receipt and reports
// components built on them.
//
// Most callers need only New and the fields of App:
//
//	cfg, err := core.NewConfig(core.WithAPIBaseURL("http://localhost:8080"))
//	app, err := cashier.New(ctx, cfg)
//	defer app.Close(ctx)
//	app.Menu.Refresh(ctx)
package cashier

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/itsneelabh/cashier/core"
	"github.com/itsneelabh/cashier/pkg/api"
	"github.com/itsneelabh/cashier/pkg/cart"
	"github.com/itsneelabh/cashier/pkg/catalog"
	"github.com/itsneelabh/cashier/pkg/money"
	"github.com/itsneelabh/cashier/pkg/receipt"
	"github.com/itsneelabh/cashier/pkg/reports"
	"github.com/itsneelabh/cashier/pkg/session"
	"github.com/itsneelabh/cashier/pkg/telemetry"
)

// App is the composition root of a till session.
type App struct {
	Config    *core.Config
	Logger    core.Logger
	Memory    core.Memory
	Session   *session.Session
	API       *api.Client
	Catalog   *catalog.Client
	Menu      *catalog.Menu
	Cart      *cart.Store
	Projector *cart.Projector
	Receipt   *receipt.Viewer
	Money     money.Formatter

	telemetry *telemetry.Provider
}

// Option customizes New.
type Option func(*buildOptions)

type buildOptions struct {
	logger     core.Logger
	memory     core.Memory
	httpClient *http.Client
}

// WithLogger replaces the logrus logger built from the configuration.
func WithLogger(logger core.Logger) Option {
	return func(o *buildOptions) { o.logger = logger }
}

// WithMemory injects the session key-value store instead of building one
// from cfg.Memory.
func WithMemory(memory core.Memory) Option {
	return func(o *buildOptions) { o.memory = memory }
}

// WithHTTPClient replaces the traced HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *buildOptions) { o.httpClient = client }
}

// New wires every component from cfg. The persisted cart is resumed; a
// corrupt snapshot is logged and replaced by an empty cart.
func New(ctx context.Context, cfg *core.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cashier: nil config: %w", core.ErrMissingConfiguration)
	}
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	logger := bo.logger
	if logger == nil {
		logger = core.NewProductionLogger(cfg.Logging, cfg.Name)
	}

	provider, err := telemetry.Setup(ctx, cfg.Telemetry, logger)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Money:     money.NewFormatter(cfg.Display.CurrencySymbol),
		telemetry: provider,
	}

	app.Memory = bo.memory
	if app.Memory == nil {
		app.Memory, err = core.NewMemory(cfg.Memory, logger)
		if err != nil {
			app.Close(ctx)
			return nil, err
		}
	}

	app.API, err = api.NewClient(api.Options{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: bo.httpClient,
		Timeout:    cfg.API.Timeout,
		UserAgent:  cfg.API.UserAgent,
		Logger:     logger,
	})
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	app.Session = session.New(app.Memory, session.WithLogger(logger))
	app.Catalog = catalog.NewClient(app.API, cfg.API.ProductsPath, logger)
	app.Menu = catalog.NewMenu(app.Catalog)
	app.Projector = cart.NewProjector()
	app.Menu.OnChange(app.Projector.SetCatalog)
	app.Cart = cart.NewStore(app.Session, logger)
	app.Receipt = receipt.NewViewer(app.API, cfg.API.ReceiptPath, app.Money, logger)

	if err := app.Cart.Resume(app.Session.Context(ctx)); err != nil {
		if !errors.Is(err, core.ErrCorruptSnapshot) {
			app.Close(ctx)
			return nil, err
		}
		logger.Warn("Discarding corrupt cart snapshot", map[string]interface{}{"error": err.Error()})
		if err := app.Cart.Clear(ctx); err != nil {
			app.Close(ctx)
			return nil, err
		}
	}

	logger.Debug("Cashier initialized", map[string]interface{}{
		"api":        cfg.API.BaseURL,
		"memory":     cfg.Memory.Provider,
		"telemetry":  provider.Enabled(),
		"session_id": app.Session.ID(),
	})
	return app, nil
}

// ImageURL resolves a product image reference against the configured
// image base URL.
func (a *App) ImageURL(p catalog.Product) string {
	base := a.Config.API.ImageBaseURL
	if base == "" {
		base = a.Config.API.BaseURL
	}
	return catalog.ResolveImageURI(base, p.ImagePath)
}

// NewReportsViewer builds a reports viewer that raises alerts and
// redirects through the given front end.
func (a *App) NewReportsViewer(nav reports.Navigator, alerter reports.Alerter) (*reports.Viewer, error) {
	return reports.NewViewer(reports.Options{
		API:       a.API,
		Products:  a.Catalog,
		Tokens:    a.Session,
		Navigator: nav,
		Alerter:   alerter,
		Path:      a.Config.API.ReportsPath,
		Formatter: a.Money,
		Logger:    a.Logger,
	})
}

// Close flushes telemetry and releases the session store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if closer, ok := a.Memory.(core.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
