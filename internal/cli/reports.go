package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/itsneelabh/cashier"
	"github.com/itsneelabh/cashier/pkg/reports"
	"github.com/urfave/cli/v2"
)

func (r *Runner) reportsCommand() *cli.Command {
	dateFlags := []cli.Flag{
		&cli.StringFlag{Name: "date", Usage: "sales `DATE` as YYYY-MM-DD (default today, UTC)"},
		&cli.BoolFlag{Name: "prev", Usage: "the day before --date"},
		&cli.BoolFlag{Name: "next", Usage: "the day after --date"},
	}

	return &cli.Command{
		Name:  "reports",
		Usage: "sales and inventory reports (requires login)",
		Subcommands: []*cli.Command{
			{
				Name:  "sales",
				Usage: "products sold on a day",
				Flags: dateFlags,
				Action: action(func(c *cli.Context, app *cashier.App, ctx context.Context) error {
					return r.showReport(c, app, ctx, reports.KindSales)
				}),
			},
			{
				Name:  "inventory",
				Usage: "restock history",
				Action: action(func(c *cli.Context, app *cashier.App, ctx context.Context) error {
					return r.showReport(c, app, ctx, reports.KindInventory)
				}),
			},
			{
				Name:  "export",
				Usage: "write a report to an Excel workbook",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "kind", Value: string(reports.KindSales), Usage: "sales or inventory"},
					&cli.StringFlag{Name: "out", Required: true, Usage: "output `FILE` (.xlsx)"},
				}, dateFlags...),
				Action: action(r.exportReport),
			},
		},
	}
}

// salesDate resolves --date, --prev and --next against today.
func salesDate(c *cli.Context, today time.Time) (time.Time, error) {
	date := today
	if s := c.String("date"); s != "" {
		d, err := time.Parse(reports.DateLayout, s)
		if err != nil {
			return time.Time{}, cli.Exit(fmt.Sprintf("invalid --date %q, want YYYY-MM-DD", s), 2)
		}
		date = d
	}
	if c.Bool("prev") {
		date = date.AddDate(0, 0, -1)
	}
	if c.Bool("next") {
		date = date.AddDate(0, 0, 1)
	}
	return date, nil
}

// loadReport selects kind (and the sales date) in a fresh viewer and loads
// it once.
func (r *Runner) loadReport(c *cli.Context, app *cashier.App, ctx context.Context, kind reports.Kind) (*reports.Viewer, *Terminal, error) {
	term := NewTerminal(r.Err)
	viewer, err := app.NewReportsViewer(term, term)
	if err != nil {
		return nil, nil, err
	}

	if kind == reports.KindInventory {
		err = viewer.SetKind(ctx, kind)
	} else {
		date, derr := salesDate(c, viewer.Date())
		if derr != nil {
			return nil, nil, derr
		}
		err = viewer.SetDate(ctx, date)
	}
	return viewer, term, err
}

func (r *Runner) showReport(c *cli.Context, app *cashier.App, ctx context.Context, kind reports.Kind) error {
	viewer, term, err := r.loadReport(c, app, ctx, kind)
	if viewer == nil {
		return err
	}
	if term.Redirected() {
		return cli.Exit("", 1)
	}
	if rerr := viewer.Render(r.Out); rerr != nil {
		return rerr
	}
	if err != nil {
		return cli.Exit("", 1)
	}
	return nil
}

func (r *Runner) exportReport(c *cli.Context, app *cashier.App, ctx context.Context) error {
	kind, err := reports.ParseKind(c.String("kind"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	viewer, _, err := r.loadReport(c, app, ctx, kind)
	if err != nil {
		if viewer == nil {
			return err
		}
		return cli.Exit("", 1)
	}

	path := c.String("out")
	f, err := os.Create(path)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := viewer.ExportXLSX(f, kind); err != nil {
		f.Close()
		os.Remove(path)
		return cli.Exit(err.Error(), 1)
	}
	if err := f.Close(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Fprintf(r.Out, "Wrote %s report to %s\n", kind, path)
	return nil
}
