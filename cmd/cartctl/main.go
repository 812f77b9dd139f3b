// cmd/cartctl/main.go

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/brucePedroGomes/rocketShoes/cart"
	"github.com/brucePedroGomes/rocketShoes/cartstore"
	"github.com/brucePedroGomes/rocketShoes/catalog"
	"github.com/brucePedroGomes/rocketShoes/logging"
	"github.com/brucePedroGomes/rocketShoes/notify"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "cartctl",
		Usage: "inspect and change the persisted shopping cart",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "catalog", Usage: "catalog service address", EnvVars: []string{"CATALOG_SERVICE_ADDR"}, Value: "localhost:3333"},
			&cli.DurationFlag{Name: "timeout", Usage: "catalog request timeout", EnvVars: []string{"CATALOG_TIMEOUT"}, Value: 5 * time.Second},
			&cli.StringFlag{Name: "storage", Usage: "redis or mysql; memory keeps nothing between runs", EnvVars: []string{"CART_STORAGE"}, Value: cartstore.BackendRedis},
			&cli.StringFlag{Name: "redis-addr", EnvVars: []string{"REDIS_ADDR"}, Value: "localhost:6379"},
			&cli.StringFlag{Name: "mysql-dsn", EnvVars: []string{"MYSQL_DSN"}},
			&cli.StringFlag{Name: "key", EnvVars: []string{"CART_KEY"}, Value: cart.DefaultKey},
			&cli.StringFlag{Name: "log-level", EnvVars: []string{"LOG_LEVEL"}, Value: "warn"},
			&cli.DurationFlag{Name: "connect-timeout", Usage: "give up reaching the storage after this long", Value: 10 * time.Second},
		},
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the cart",
				Action: func(c *cli.Context) error {
					return withStore(c, out, func(_ context.Context, s *cart.Store) (cart.Cart, error) {
						return s.Cart(), nil
					})
				},
			},
			{
				Name:      "add",
				Usage:     "add one unit of a product",
				ArgsUsage: "<product-id>",
				Action: func(c *cli.Context) error {
					id, err := intArg(c, 0, "product-id")
					if err != nil {
						return err
					}
					return withStore(c, out, func(ctx context.Context, s *cart.Store) (cart.Cart, error) {
						return s.AddProduct(ctx, id)
					})
				},
			},
			{
				Name:      "remove",
				Usage:     "remove a product from the cart",
				ArgsUsage: "<product-id>",
				Action: func(c *cli.Context) error {
					id, err := intArg(c, 0, "product-id")
					if err != nil {
						return err
					}
					return withStore(c, out, func(ctx context.Context, s *cart.Store) (cart.Cart, error) {
						return s.RemoveProduct(ctx, id)
					})
				},
			},
			{
				Name:      "update",
				Usage:     "set the amount of a product already in the cart",
				ArgsUsage: "<product-id> <amount>",
				Action: func(c *cli.Context) error {
					id, err := intArg(c, 0, "product-id")
					if err != nil {
						return err
					}
					amount, err := intArg(c, 1, "amount")
					if err != nil {
						return err
					}
					return withStore(c, out, func(ctx context.Context, s *cart.Store) (cart.Cart, error) {
						return s.UpdateProductAmount(ctx, id, amount)
					})
				},
			},
		},
	}
}

func intArg(c *cli.Context, i int, name string) (int, error) {
	raw := c.Args().Get(i)
	if raw == "" {
		return 0, cli.Exit(fmt.Sprintf("missing %s", name), 2)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, cli.Exit(fmt.Sprintf("%s must be an integer, got %q", name, raw), 2)
	}
	return v, nil
}

// withStore opens the configured storage, runs fn against a cart.Store and
// prints the resulting cart. A rejected operation prints its user message and
// exits with status 1.
func withStore(c *cli.Context, out io.Writer, fn func(context.Context, *cart.Store) (cart.Cart, error)) error {
	ctx := c.Context
	log := logrus.NewEntry(logging.NewWithOutput(c.String("log-level"), os.Stderr))

	openCtx, cancel := context.WithTimeout(ctx, c.Duration("connect-timeout"))
	defer cancel()
	storage, err := cartstore.Open(openCtx, cartstore.Options{
		Backend:   c.String("storage"),
		RedisAddr: c.String("redis-addr"),
		MySQLDSN:  c.String("mysql-dsn"),
		Log:       log,
	})
	if err != nil {
		return err
	}
	defer storage.Close()

	client := catalog.NewClient(c.String("catalog"), c.Duration("timeout"), log)
	store, err := cart.New(ctx, cart.Dependencies{
		Stock:    client,
		Catalog:  client,
		Storage:  storage,
		Notifier: notify.NewLogSink(log),
	}, cart.WithKey(c.String("key")), cart.WithLogger(log))
	if err != nil {
		return err
	}

	result, err := fn(ctx, store)
	if err != nil {
		var opErr *cart.OperationError
		if errors.As(err, &opErr) {
			return cli.Exit(opErr.Message(), 1)
		}
		return err
	}
	return printCart(out, result)
}

type lineOut struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Amount   int    `json:"amount"`
	Subtotal string `json:"subtotal"`
}

type cartOut struct {
	Lines []lineOut `json:"lines"`
	Items int       `json:"items"`
	Total string    `json:"total"`
}

func printCart(out io.Writer, c cart.Cart) error {
	view := cartOut{Lines: []lineOut{}, Items: c.ItemCount(), Total: c.Total().StringFixed(2)}
	for _, l := range c.Lines() {
		view.Lines = append(view.Lines, lineOut{
			ID:       l.ID,
			Title:    l.Title,
			Price:    l.Price.StringFixed(2),
			Amount:   l.Amount,
			Subtotal: l.Subtotal().StringFixed(2),
		})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
