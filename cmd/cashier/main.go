// Command cashier is the terminal front end of the POS client.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/itsneelabh/cashier/internal/cli"
	"github.com/joho/godotenv"
	urfave "github.com/urfave/cli/v2"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &cli.Runner{Out: os.Stdout, Err: os.Stderr}
	err := runner.Run(ctx, os.Args)
	if err == nil {
		return
	}

	code := 1
	var exitErr urfave.ExitCoder
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	stop()
	os.Exit(code)
}
