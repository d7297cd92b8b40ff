package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marcogenualdo/sanctum-client/internal/api"
	"github.com/marcogenualdo/sanctum-client/internal/client"
	"github.com/marcogenualdo/sanctum-client/internal/server"
)

func (a *app) loginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session cookies",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if password == "" {
				password = os.Getenv("SANCTUM_PASSWORD")
			}
			if password == "" {
				return fmt.Errorf("--password is required (or set SANCTUM_PASSWORD)")
			}

			c, err := a.apiClient()
			if err != nil {
				return err
			}
			user, err := api.NewAuthService(c, a.cfg.Backend).Login(cmd.Context(), api.Credentials{
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}
			return a.printUser(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().StringVar(&email, "email", envOr("SANCTUM_EMAIL", ""), "account email (env SANCTUM_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "account password (env SANCTUM_PASSWORD)")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the backend session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient()
			if err != nil {
				return err
			}
			if err := api.NewAuthService(c, a.cfg.Backend).Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func (a *app) meCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient()
			if err != nil {
				return err
			}
			user, err := api.NewAuthService(c, a.cfg.Backend).Me(cmd.Context())
			if err != nil {
				return err
			}
			return a.printUser(cmd.OutOrStdout(), user)
		},
	}
}

func (a *app) requestCommand() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send an arbitrary request through the CSRF and session handling",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body []byte
			if data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data must be valid JSON")
				}
				body = []byte(data)
			}

			c, err := a.apiClient()
			if err != nil {
				return err
			}
			resp, err := c.Do(cmd.Context(), client.NewRequest(strings.ToUpper(args[0]), args[1], body))
			if err != nil {
				return err
			}
			return a.printRaw(cmd.OutOrStdout(), resp.Status, resp.Body)
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	return cmd
}

func (a *app) productsCommand() *cobra.Command {
	products := &cobra.Command{Use: "products", Short: "Manage inventory"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.productService()
			if err != nil {
				return err
			}
			items, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if a.out == "json" {
				return printJSON(cmd.OutOrStdout(), items)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSKU\tNAME\tPRICE\tSTOCK")
			for _, p := range items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", p.ID, p.SKU, p.Name, formatCents(p.Price), p.Stock)
			}
			return tw.Flush()
		},
	}

	var in api.ProductInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.productService()
			if err != nil {
				return err
			}
			p, err := svc.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.printProduct(cmd.OutOrStdout(), p)
		},
	}
	productFlags(create, &in)

	var upd api.ProductInput
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Replace a product's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := a.productService()
			if err != nil {
				return err
			}
			p, err := svc.Update(cmd.Context(), id, upd)
			if err != nil {
				return err
			}
			return a.printProduct(cmd.OutOrStdout(), p)
		},
	}
	productFlags(update, &upd)

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := a.productService()
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted product %d\n", id)
			return nil
		},
	}

	products.AddCommand(list, create, update, del)
	return products
}

func productFlags(cmd *cobra.Command, in *api.ProductInput) {
	cmd.Flags().StringVar(&in.Name, "name", "", "product name")
	cmd.Flags().StringVar(&in.SKU, "sku", "", "stock keeping unit")
	cmd.Flags().Int64Var(&in.Price, "price", 0, "price in cents")
	cmd.Flags().IntVar(&in.Stock, "stock", 0, "units in stock")
}

func (a *app) walletCommand() *cobra.Command {
	wallet := &cobra.Command{Use: "wallet", Short: "Sales and expenses"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List transactions and the balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.walletService()
			if err != nil {
				return err
			}
			txs, err := svc.Transactions(cmd.Context())
			if err != nil {
				return err
			}
			if a.out == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"transactions": txs,
					"balance":      api.Balance(txs),
				})
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tAMOUNT\tDESCRIPTION\tWHEN")
			for _, tx := range txs {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", tx.ID, tx.Kind, formatCents(tx.Amount), tx.Description, tx.OccurredAt.Format("2006-01-02 15:04"))
			}
			fmt.Fprintf(tw, "\t\t%s\tbalance\t\n", formatCents(api.Balance(txs)))
			return tw.Flush()
		},
	}

	var (
		in      api.TransactionInput
		kind    string
		product int64
	)
	record := &cobra.Command{
		Use:   "record",
		Short: "Record a sale or an expense",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Kind = api.TransactionKind(kind)
			if product > 0 {
				in.ProductID = &product
			}
			svc, err := a.walletService()
			if err != nil {
				return err
			}
			tx, err := svc.Record(cmd.Context(), in)
			if err != nil {
				return err
			}
			if a.out == "json" {
				return printJSON(cmd.OutOrStdout(), tx)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s #%d of %s\n", tx.Kind, tx.ID, formatCents(tx.Amount))
			return nil
		},
	}
	record.Flags().StringVar(&kind, "kind", string(api.KindSale), "sale or expense")
	record.Flags().Int64Var(&in.Amount, "amount", 0, "amount in cents")
	record.Flags().StringVar(&in.Description, "description", "", "free text")
	record.Flags().Int64Var(&product, "product", 0, "product id for a sale")
	record.Flags().IntVar(&in.Quantity, "quantity", 0, "units sold")

	wallet.AddCommand(list, record)
	return wallet
}

func (a *app) splitCommand() *cobra.Command {
	var (
		total  int64
		shares []string
	)
	cmd := &cobra.Command{
		Use:     "split",
		Short:   "Split revenue between collaborators by weight",
		Example: "  sanctum-client split --total 10000 --share ana=3 --share ben=2",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([]api.Share, 0, len(shares))
			for _, s := range shares {
				name, weight, ok := strings.Cut(s, "=")
				if !ok {
					return fmt.Errorf("invalid share %q (want name=weight)", s)
				}
				w, err := strconv.ParseInt(weight, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid weight in %q: %w", s, err)
				}
				parsed = append(parsed, api.Share{Collaborator: name, Weight: w})
			}

			allocs, err := api.SplitRevenue(total, parsed)
			if err != nil {
				return err
			}
			if a.out == "json" {
				return printJSON(cmd.OutOrStdout(), allocs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, al := range allocs {
				fmt.Fprintf(tw, "%s\t%s\n", al.Collaborator, formatCents(al.Amount))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int64Var(&total, "total", 0, "amount to split, in cents")
	cmd.Flags().StringArrayVar(&shares, "share", nil, "collaborator share as name=weight (repeatable)")
	return cmd
}

func (a *app) serveMockCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mock",
		Short: "Run the local backend emulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.New(*a.cfg, a.store, a.logger)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			if a.cfg.Metrics.Enabled {
				srv.Mount("/metrics", a.metricsHandler())
			}
			// Start closes the store on shutdown.
			a.store = nil
			return srv.Start()
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sanctum-client v%s\n", version)
		},
	}
}

func (a *app) productService() (*api.ProductService, error) {
	c, err := a.apiClient()
	if err != nil {
		return nil, err
	}
	return api.NewProductService(c), nil
}

func (a *app) walletService() (*api.WalletService, error) {
	c, err := a.apiClient()
	if err != nil {
		return nil, err
	}
	return api.NewWalletService(c), nil
}

func (a *app) printUser(w io.Writer, u *api.User) error {
	if a.out == "json" {
		return printJSON(w, u)
	}
	_, err := fmt.Fprintf(w, "%s <%s> (id %d)\n", u.Name, u.Email, u.ID)
	return err
}

func (a *app) printProduct(w io.Writer, p *api.Product) error {
	if a.out == "json" {
		return printJSON(w, p)
	}
	_, err := fmt.Fprintf(w, "#%d %s [%s] %s, %d in stock\n", p.ID, p.Name, p.SKU, formatCents(p.Price), p.Stock)
	return err
}

func (a *app) printRaw(w io.Writer, status int, body []byte) error {
	var v any
	if a.out == "json" && json.Unmarshal(body, &v) == nil {
		return printJSON(w, v)
	}
	if len(body) > 0 {
		_, err := fmt.Fprintln(w, string(body))
		return err
	}
	_, err := fmt.Fprintf(w, "status=%d\n", status)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
