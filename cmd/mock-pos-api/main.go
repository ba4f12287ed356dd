// Command mock-pos-api serves an in-memory POS API for local development.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itsneelabh/cashier/core"
	"github.com/itsneelabh/cashier/internal/mockapi"
	"github.com/itsneelabh/cashier/internal/port"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	logger := core.NewProductionLogger(core.LoggingConfig{Level: "info", Format: "text", Output: "stderr"}, "mock-pos-api")

	cfg, err := mockapi.LoadConfig()
	if err != nil {
		logger.Error("Invalid configuration", map[string]interface{}{"error": err.Error()})
		os.Exit(2)
	}

	issuer, err := mockapi.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("Invalid configuration", map[string]interface{}{"error": err.Error()})
		os.Exit(2)
	}

	store := mockapi.NewStore()
	if cfg.Seed {
		mockapi.Seed(store, time.Now())
	}

	srv, err := mockapi.New(mockapi.Options{Store: store, Issuer: issuer, Logger: logger, BasePath: cfg.BasePath})
	if err != nil {
		logger.Error("Failed to build server", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	strategy, err := port.Resolve(port.Request{Host: cfg.Host, Port: cfg.Port, Range: cfg.PortRange}, port.DetectEnvironment(), logger)
	if err != nil {
		logger.Error("Cannot choose a port", map[string]interface{}{"error": err.Error()})
		os.Exit(2)
	}
	ln, err := net.Listen("tcp", strategy.Address())
	if err != nil {
		logger.Error("Cannot listen", map[string]interface{}{"addr": strategy.Address(), "error": err.Error()})
		os.Exit(1)
	}

	token, err := issuer.Issue("dev-cashier")
	if err != nil {
		logger.Error("Cannot issue dev token", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	fmt.Printf("POS API: %s%s\n", strategy.URL(), cfg.BasePath)
	fmt.Printf("Dev token: %s\n", token)
	fmt.Printf("  cashier --api %s%s login --token %s\n", strategy.URL(), cfg.BasePath, token)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("Shutting down", nil)
		if err := srv.Shutdown(5 * time.Second); err != nil {
			logger.Error("Shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	if err := srv.Serve(ln); err != nil {
		logger.Error("Server stopped", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}
