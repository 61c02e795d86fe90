// Command posctl is a terminal front end for the point-of-sale server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"api_pos/internal/client"

	"github.com/spf13/pflag"
)

const usage = `usage: posctl [flags] <command> [args]

commands:
  products                      list products
  add <name> <price> <qty>      add or overwrite a product (admin)
  sell <product-id> <qty>       record a sale
  sales [product-id]            show sales history
  restock <product-id> <delta>  adjust stock by delta (admin)
  delete <product-id>           delete a product without sales (admin)

flags:
`

type options struct {
	server   string
	username string
	password string
	timeout  time.Duration
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "posctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options
	fs := pflag.NewFlagSet("posctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.StringVarP(&opts.server, "server", "s", getenv("POS_SERVER", "http://localhost:8081"), "server base URL")
	fs.StringVarP(&opts.username, "user", "u", os.Getenv("POS_USER"), "username")
	fs.StringVarP(&opts.password, "password", "p", os.Getenv("POS_PASSWORD"), "password")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	c := client.New(opts.server, opts.timeout)
	defer c.Close()

	session, err := c.Login(ctx, opts.username, opts.password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer c.Logout(ctx)

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "products":
		return listProducts(ctx, c, stdout)
	case "add":
		if err := wantArgs(cmd, cmdArgs, 3); err != nil {
			return err
		}
		p, err := c.UpsertProduct(ctx, cmdArgs[0], cmdArgs[1], cmdArgs[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "product %d %s: price %s, stock %d\n", p.ID, p.Name, p.UnitPrice.StringFixed(2), p.QuantityOnHand)
	case "sell":
		if err := wantArgs(cmd, cmdArgs, 2); err != nil {
			return err
		}
		id, err := parseProductID(cmdArgs[0])
		if err != nil {
			return err
		}
		sale, err := c.Sell(ctx, id, cmdArgs[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "sale %d: %d x %s, total %s (cashier %s)\n",
			sale.ID, sale.QuantitySold, sale.ProductName, sale.TotalPrice.StringFixed(2), session.Username)
	case "sales":
		var id int64
		if len(cmdArgs) > 0 {
			if id, err = parseProductID(cmdArgs[0]); err != nil {
				return err
			}
		}
		return listSales(ctx, c, id, stdout)
	case "restock":
		if err := wantArgs(cmd, cmdArgs, 2); err != nil {
			return err
		}
		id, err := parseProductID(cmdArgs[0])
		if err != nil {
			return err
		}
		p, err := c.Restock(ctx, id, cmdArgs[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "product %d %s: stock %d\n", p.ID, p.Name, p.QuantityOnHand)
	case "delete":
		if err := wantArgs(cmd, cmdArgs, 1); err != nil {
			return err
		}
		id, err := parseProductID(cmdArgs[0])
		if err != nil {
			return err
		}
		if err := c.DeleteProduct(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "product %d deleted\n", id)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func listProducts(ctx context.Context, c *client.Client, stdout io.Writer) error {
	products, err := c.Products(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", p.ID, p.Name, p.UnitPrice.StringFixed(2), p.QuantityOnHand)
	}
	return w.Flush()
}

func listSales(ctx context.Context, c *client.Client, productID int64, stdout io.Writer) error {
	page, err := c.Sales(ctx, productID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCT\tQTY\tTOTAL\tTIME")
	for _, s := range page.Results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
			s.ID, s.ProductName, s.QuantitySold, s.TotalPrice.StringFixed(2), s.SoldAt.Local().Format(time.DateTime))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d sale(s), %d unit(s), %s total\n",
		page.Metadata.Count, page.Metadata.UnitsSold, page.Metadata.TotalAmount.StringFixed(2))
	return nil
}

func wantArgs(cmd string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s takes %d argument(s), got %d", cmd, n, len(args))
	}
	return nil
}

func parseProductID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", raw)
	}
	return id, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
