// Package cli is the terminal front end of the cashier client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/itsneelabh/cashier"
	"github.com/itsneelabh/cashier/core"
	"github.com/urfave/cli/v2"
)

const appKey = "cashier.app"

// Runner builds and runs the cashier command line.
type Runner struct {
	Out io.Writer
	Err io.Writer
	// AppOptions are passed to cashier.New, e.g. to inject a session store.
	AppOptions []cashier.Option
	// ConfigOptions are applied after the flag-derived options.
	ConfigOptions []core.Option
}

// Run executes args (including the program name).
func (r *Runner) Run(ctx context.Context, args []string) error {
	return r.NewApp().RunContext(ctx, args)
}

// NewApp builds the urfave/cli application.
func (r *Runner) NewApp() *cli.App {
	return &cli.App{
		Name:                 "cashier",
		Usage:                "point-of-sale client for the POS API",
		Version:              cashier.Version(),
		Writer:               r.Out,
		ErrWriter:            r.Err,
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (JSON or YAML)"},
			&cli.StringFlag{Name: "api", Usage: "POS API base `URL`", EnvVars: []string{"CASHIER_API"}},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		// Exit codes are left to the caller of Run.
		ExitErrHandler: func(*cli.Context, error) {},
		Before:         r.before,
		After:          r.after,
		Commands: []*cli.Command{
			r.menuCommand(),
			r.addCommand(),
			r.removeCommand(),
			r.cartCommand(),
			r.clearCommand(),
			r.receiptCommand(),
			r.reportsCommand(),
			r.loginCommand(),
			r.logoutCommand(),
		},
	}
}

func (r *Runner) before(c *cli.Context) error {
	var opts []core.Option
	if path := c.String("config"); path != "" {
		opts = append(opts, core.WithConfigFile(path))
	}
	if base := c.String("api"); base != "" {
		opts = append(opts, core.WithAPIBaseURL(base))
	}
	switch level := c.String("log-level"); {
	case level != "":
		opts = append(opts, core.WithLogLevel(level))
	case os.Getenv(core.EnvPrefix+"_LOGGING_LEVEL") == "" && c.String("config") == "":
		// Keep routine info logs off the terminal unless asked for.
		opts = append(opts, core.WithLogLevel("warn"))
	}
	opts = append(opts, r.ConfigOptions...)

	cfg, err := core.NewConfig(opts...)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	app, err := cashier.New(c.Context, cfg, r.AppOptions...)
	if err != nil {
		return cli.Exit(fmt.Sprintf("start session: %v", err), 2)
	}
	c.App.Metadata = map[string]interface{}{appKey: app}
	return nil
}

func (r *Runner) after(c *cli.Context) error {
	app, err := appFrom(c)
	if err != nil {
		return nil
	}
	return app.Close(context.Background())
}

func appFrom(c *cli.Context) (*cashier.App, error) {
	app, ok := c.App.Metadata[appKey].(*cashier.App)
	if !ok {
		return nil, errors.New("cashier app not initialized")
	}
	return app, nil
}

// action adapts a handler that needs the App and the session context.
func action(fn func(c *cli.Context, app *cashier.App, ctx context.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		app, err := appFrom(c)
		if err != nil {
			return err
		}
		return fn(c, app, app.Session.Context(c.Context))
	}
}
