// Package catalog fetches the product list from the POS API.
//
// A failed fetch never surfaces as a Go error from Load. It yields a Result
// with Status Unavailable and the reason, so callers can tell "the catalog is
// empty" apart from "the catalog could not be fetched".
package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/itsneelabh/cashier/core"
	"github.com/itsneelabh/cashier/pkg/api"
	"github.com/itsneelabh/cashier/pkg/telemetry"
)

// Status says whether a Result reflects the server's catalog.
type Status int

const (
	// StatusLoaded means the server returned a well-formed product list.
	StatusLoaded Status = iota
	// StatusUnavailable means the fetch failed; Products is empty and Reason says why.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of one catalog fetch.
type Result struct {
	Products []Product // Never nil
	Status   Status
	Reason   error // Set when Status is StatusUnavailable
}

// Available reports whether the result reflects the server's catalog.
func (r Result) Available() bool {
	return r.Status == StatusLoaded
}

func unavailable(reason error) Result {
	return Result{Products: []Product{}, Status: StatusUnavailable, Reason: reason}
}

// Getter is the subset of *api.Client the catalog needs.
type Getter interface {
	Get(ctx context.Context, req api.Request, out interface{}) error
}

// Client loads products from the products endpoint.
type Client struct {
	api    Getter
	path   string
	logger core.Logger
}

// NewClient creates a catalog client for the endpoint at path.
func NewClient(getter Getter, path string, logger core.Logger) *Client {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &Client{api: getter, path: path, logger: logger}
}

// Load fetches the public product list. It issues exactly one request and
// never retries.
func (c *Client) Load(ctx context.Context) Result {
	return c.load(ctx, "")
}

// LoadAuthenticated fetches the product list with a bearer token.
func (c *Client) LoadAuthenticated(ctx context.Context, token string) Result {
	return c.load(ctx, token)
}

func (c *Client) load(ctx context.Context, token string) Result {
	var payload struct {
		Products json.RawMessage `json:"products"`
	}
	err := c.api.Get(ctx, api.Request{Op: "products.list", Path: c.path, Token: token}, &payload)
	if err != nil {
		return unavailable(err)
	}

	if !api.IsArray(payload.Products) {
		err := &api.Error{Op: "products.list", Kind: api.KindMalformed, Err: fmt.Errorf("%w: products is not a list", api.ErrMalformedResponse)}
		c.logger.Warn("Catalog payload has no product list", telemetry.EnrichLogFields(ctx, nil))
		return unavailable(err)
	}

	products := []Product{}
	if err := json.Unmarshal(payload.Products, &products); err != nil {
		return unavailable(&api.Error{Op: "products.list", Kind: api.KindMalformed, Err: fmt.Errorf("%w: %w", api.ErrMalformedResponse, err)})
	}

	c.logger.Debug("Catalog loaded", telemetry.EnrichLogFields(ctx, map[string]interface{}{
		"products": len(products),
	}))
	return Result{Products: products, Status: StatusLoaded}
}
