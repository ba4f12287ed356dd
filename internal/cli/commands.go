package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/itsneelabh/cashier"
	"github.com/itsneelabh/cashier/pkg/catalog"
	"github.com/urfave/cli/v2"
)

func (r *Runner) menuCommand() *cli.Command {
	return &cli.Command{
		Name:  "menu",
		Usage: "list the catalog",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "images", Usage: "show resolved image URLs"},
		},
		Action: action(func(c *cli.Context, app *cashier.App, ctx context.Context) error {
			res, _ := app.Menu.Refresh(ctx)
			if !res.Available() {
				return cli.Exit(fmt.Sprintf("Catalog unavailable: %v", res.Reason), 1)
			}
			if len(res.Products) == 0 {
				fmt.Fprintln(r.Out, "No products.")
				return nil
			}

			tw := tabwriter.NewWriter(r.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tProduct\tPrice\tStock\t")
			for _, p := range res.Products {
				state := "Add to Order"
				if !p.Available() {
					state = "Out of Stock"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s", p.ID, p.Name, app.Money.Format(p.Price), p.Stock, state)
				if c.Bool("images") {
					fmt.Fprintf(tw, "\t%s", app.ImageURL(p))
				}
				fmt.Fprintln(tw)
			}
			return tw.Flush()
		}),
	}
}

func productArg(c *cli.Context) (int, error) {
	if c.NArg() != 1 {
		return 0, cli.Exit("expected exactly one product id", 2)
	}
	id, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return 0, cli.Exit(fmt.Sprintf("invalid product id %q", c.Args().First()), 2)
	}
	return id, nil
}

// lookup refreshes the menu and finds id in it.
func lookup(ctx context.Context, app *cashier.App, id int) (catalog.Product, error) {
	res, _ := app.Menu.Refresh(ctx)
	if !res.Available() {
		return catalog.Product{}, cli.Exit(fmt.Sprintf("Catalog unavailable: %v", res.Reason), 1)
	}
	p, ok := app.Menu.Find(id)
	if !ok {
		return catalog.Product{}, cli.Exit(fmt.Sprintf("Product %d is not on the menu", id), 1)
	}
	return p, nil
}

func (r *Runner) addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "add one unit of a product to the order",
		ArgsUsage: "<product-id>",
		Action: action(func(c *cli.Context, app *cashier.App, ctx context.Context) error {
			id, err := productArg(c)
			if err != nil {
				return err
			}
			p, err := lookup(ctx, app, id)
			if err != nil {
				return err
			}
			added, err := app.Cart.AddOne(ctx, p)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Could not save cart: %v", err), 1)
			}
			if !added {
				if p.Available() {
					fmt.Fprintf(r.Out, "%s: all %d in stock are already in the order\n", p.Name, p.Stock)
				} else {
					fmt.Fprintf(r.Out, "%s is out of stock\n", p.Name)
				}
				return nil
			}
			fmt.Fprintf(r.Out, "Added %s (%d in order)\n", p.Name, app.Cart.Quantity(id))
			return nil
		}),
	}
}

func (r *Runner) removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "remove one unit (or all with --all) of a product",
		ArgsUsage: "<product-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "remove every unit"},
		},
		Action: action(func(c *cli.Context, app *cashier.App, ctx context.Context) error {
			id, err := productArg(c)
			if err != nil {
				return err
			}
			var removed bool
			if c.Bool("all") {
				removed, err = app.Cart.Remove(ctx, id)
			} else {
				removed, err = app.Cart.RemoveOne(ctx, id)
			}
			if err != nil {
				return cli.Exit(fmt.Sprintf("Could not save cart: %v", err), 1)
			}
			if !removed {
				fmt.Fprintf(r.Out, "Product %d is not in the order\n", id)
				return nil
			}
			fmt.Fprintf(r.Out, "Removed product %d (%d left)\n", id, app.Cart.Quantity(id))
			return nil
		}),
	}
}

func (r *Runner) cartCommand() *cli.Command {
	return &cli.Command{
		Name:  "cart",
		Usage: "show the current order",
		Action: action(func(c *cli.Context, app *cashier.App, ctx context.Context) error {
			if res, _ := app.Menu.Refresh(ctx); !res.Available() {
				fmt.Fprintf(r.Err, "Catalog unavailable (%v); prices cannot be shown\n", res.Reason)
			}
			proj := app.Projector.Project(app.Cart)

			if len(proj.Lines) == 0 && len(proj.Stale) == 0 && len(proj.Unknown) == 0 {
				fmt.Fprintln(r.Out, "Cart is empty.")
				return nil
			}

			tw := tabwriter.NewWriter(r.Out, 0, 0, 2, ' ', 0)
			for _, l := range proj.Lines {
				note := ""
				if l.Clamped {
					note = "(limited to stock)"
				}
				fmt.Fprintf(tw, "%s\t%d x %s\t%s\t%s\n", l.Product.Name, l.Quantity, app.Money.Format(l.Product.Price), app.Money.Format(l.Subtotal()), note)
			}
			fmt.Fprintf(tw, "TOTAL\t%d items\t%s\t\n", proj.Units(), app.Money.Format(proj.Total()))
			if err := tw.Flush(); err != nil {
				return err
			}

			if len(proj.Stale) > 0 {
				fmt.Fprintln(r.Out, "\nUnavailable items kept in the order:")
				for _, s := range proj.Stale {
					fmt.Fprintf(r.Out, "  %s x%d (%s)\n", s.Product.Name, s.Requested, s.Reason)
				}
			}
			for _, id := range proj.Unknown {
				fmt.Fprintf(r.Out, "  product %d x%d (not in catalog)\n", id, app.Cart.Quantity(id))
			}
			return nil
		}),
	}
}

func (r *Runner) clearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "empty the order",
		Action: action(func(c *cli.Context, app *cashier.App, ctx context.Context) error {
			if err := app.Cart.Clear(ctx); err != nil {
				return cli.Exit(fmt.Sprintf("Could not save cart: %v", err), 1)
			}
			fmt.Fprintln(r.Out, "Cart cleared.")
			return nil
		}),
	}
}

func (r *Runner) receiptCommand() *cli.Command {
	return &cli.Command{
		Name:      "receipt",
		Usage:     "show a finalized transaction",
		ArgsUsage: "<txn-id>",
		Action: action(func(c *cli.Context, app *cashier.App, ctx context.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one transaction id", 2)
			}
			loadErr := app.Receipt.Load(ctx, c.Args().First())
			if err := app.Receipt.Render(r.Out); err != nil {
				return err
			}
			if loadErr != nil {
				return cli.Exit("", 1)
			}
			return nil
		}),
	}
}

func (r *Runner) loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "store the bearer token for reports",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "token", Required: true, Usage: "bearer `TOKEN` issued by the POS API"},
		},
		Action: action(func(c *cli.Context, app *cashier.App, ctx context.Context) error {
			if err := app.Session.SaveToken(ctx, c.String("token")); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			fmt.Fprintln(r.Out, "Logged in.")
			return nil
		}),
	}
}

func (r *Runner) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the bearer token",
		Action: action(func(c *cli.Context, app *cashier.App, ctx context.Context) error {
			if err := app.Session.ClearToken(ctx); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			fmt.Fprintln(r.Out, "Logged out.")
			return nil
		}),
	}
}
