// Package mockapi is an in-memory stand-in for the POS HTTP API. It serves
// the products, receipt and reports endpoints the cashier client consumes,
// for local development and integration tests.
package mockapi

import (
	"errors"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/itsneelabh/cashier/core"
	"github.com/itsneelabh/cashier/pkg/reports"
	"github.com/itsneelabh/cashier/pkg/telemetry"
)

// Endpoint paths, matching the production PHP API.
const (
	PathProducts = "/api/products.php"
	PathReceipt  = "/api/receipt.php"
	PathReports  = "/api/reports.php"
	PathHealth   = "/health"
)

// Options configures the mock server.
type Options struct {
	Store  *Store
	Issuer *Issuer
	Logger core.Logger
	// BasePath mounts the API under a prefix such as "/starbux/Starbucks".
	BasePath string
}

// Server wires the store into a fiber app.
type Server struct {
	store  *Store
	issuer *Issuer
	logger core.Logger
	app    *fiber.App
}

// New builds the fiber app.
func New(opts Options) (*Server, error) {
	if opts.Issuer == nil {
		return nil, errors.New("mockapi: token issuer is required")
	}
	if opts.Logger == nil {
		opts.Logger = &core.NoOpLogger{}
	}
	if opts.Store == nil {
		opts.Store = NewStore()
	}

	s := &Server{store: opts.Store, issuer: opts.Issuer, logger: opts.Logger}
	s.app = fiber.New(fiber.Config{
		AppName:               "mock-pos-api",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID, X-Request-ID",
		AllowMethods: "GET,OPTIONS",
	}))
	s.app.Use(s.logRequests)

	s.app.Get(PathHealth, s.health)

	var api fiber.Router = s.app
	if opts.BasePath != "" && opts.BasePath != "/" {
		api = s.app.Group(opts.BasePath)
	}
	api.Get(PathProducts, s.issuer.optionalAuth, s.products)
	api.Get(PathReceipt, s.receipt)
	api.Get(PathReports, s.issuer.requireAuth, s.reports)
	return s, nil
}

// App exposes the fiber app, e.g. for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("Mock POS API listening", map[string]interface{}{"addr": addr})
	return s.app.Listen(addr)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Mock POS API listening", map[string]interface{}{"addr": ln.Addr().String()})
	return s.app.Listener(ln)
}

// Shutdown stops the server, waiting up to timeout for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	fields := map[string]interface{}{
		"method":      c.Method(),
		"path":        c.Path(),
		"status":      c.Response().StatusCode(),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if id := c.Get(telemetry.HeaderCorrelationID); id != "" {
		fields["correlation_id"] = id
	}
	if id := c.Get(telemetry.HeaderRequestID); id != "" {
		fields["request_id"] = id
	}
	s.logger.Info("Request handled", fields)
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	s.logger.Error("Request failed", map[string]interface{}{
		"path":  c.Path(),
		"error": err.Error(),
	})
	return c.Status(code).JSON(fiber.Map{"success": false, "message": err.Error()})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy", "products": len(s.store.Products())})
}

func (s *Server) products(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "products": s.store.Products()})
}

func (s *Server) receipt(c *fiber.Ctx) error {
	txnID := c.Query("txn")
	if txnID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Missing txn parameter"})
	}
	txn, ok := s.store.Transaction(txnID)
	if !ok {
		return c.JSON(fiber.Map{"success": false, "message": "Transaction not found"})
	}
	return c.JSON(fiber.Map{"success": true, "data": txn})
}

func (s *Server) reports(c *fiber.Ctx) error {
	if c.Query("type") == string(reports.KindInventory) {
		return c.JSON(fiber.Map{"success": true, "restockLogs": s.store.RestockLogs()})
	}

	day := c.Query("date")
	if _, err := time.Parse(reports.DateLayout, day); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "date must be YYYY-MM-DD"})
	}
	return c.JSON(fiber.Map{"success": true, "soldProducts": s.store.Sales(day)})
}
