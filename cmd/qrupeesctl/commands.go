package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"qrupees/internal/app/di"
	"qrupees/internal/feature/auth/domain/entity"
	"qrupees/internal/platform/config"
	"qrupees/internal/platform/logger"
)

const dateLayout = "2006-01-02"

type rootOptions struct {
	configPath string
	jsonOut    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "qrupeesctl",
		Short:        "Operate the QRupees market backend",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", envOr("QRUPEES_CONFIG", "config.yaml"), "path to the YAML config file")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print JSON instead of a table")

	root.AddCommand(
		newPricesCmd(opts),
		newHistoryCmd(opts),
		newPendingCmd(opts),
		newApproveCmd(opts),
		newBootstrapCmd(opts),
	)
	return root
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// withApp は設定を読み込み、アプリケーションを組み立ててfnを実行します。
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, app *di.App) error) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	app, err := di.New(ctx, cfg, di.Options{})
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return fn(ctx, app)
}

// operator はシェルから実行する管理コマンド用のセッションです。
func operator(cfg *config.Config) *entity.Session {
	return &entity.Session{ID: "cli", Email: cfg.Auth.AdminEmail, IsAdmin: true, Authenticated: true, CreatedAt: time.Now()}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newPricesCmd(opts *rootOptions) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Print today's prices, or the top movers with --top",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *di.App) error {
				snap, err := app.Market.Snapshot(ctx)
				if err != nil {
					return err
				}
				rows := snap.Instruments
				if top > 0 {
					if rows, err = app.Market.Movers(ctx, top); err != nil {
						return err
					}
				}
				out := cmd.OutOrStdout()
				if opts.jsonOut {
					return printJSON(out, rows)
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SYMBOL\tLTP\tCHANGE\tVOLUME\tTURNOVER")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Symbol,
						orDash(r.LastPrice.Valid, r.LastPrice.Decimal.String()),
						orDash(r.Change.Valid, r.Change.Decimal.String()),
						orDash(r.Volume.Valid, strconv.FormatInt(r.Volume.Int64, 10)),
						orDash(r.Turnover.Valid, r.Turnover.Decimal.String()))
				}
				fmt.Fprintf(tw, "\n%d instruments as of %s\n", len(snap.Instruments), snap.CapturedAt.Format(time.RFC3339))
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "only the N most traded instruments by turnover")
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "history SYMBOL",
		Short: "Print the daily closing prices of a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseOptionalDate(start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			to, err := parseOptionalDate(end)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			return withApp(cmd, opts, func(ctx context.Context, app *di.App) error {
				series, err := app.Market.History(ctx, strings.ToUpper(args[0]), from, to)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOut {
					return printJSON(out, series)
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DATE\tCLOSE\tVOLUME")
				for _, b := range series.Bars {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", b.BusinessDate.Format(dateLayout), b.ClosingPrice.String(),
						orDash(b.Volume.Valid, strconv.FormatInt(b.Volume.Int64, 10)))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD (default one year before --end)")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD (default today)")
	return cmd
}

func newPendingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List registrations awaiting approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *di.App) error {
				items, err := app.Admin.ListPending(ctx, operator(app.Config))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOut {
					return printJSON(out, items)
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tEMAIL\tNAME")
				for _, p := range items {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", p.RegistrationID, p.Email, p.FullName)
				}
				return tw.Flush()
			})
		},
	}
}

func newApproveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "approve ID...",
		Short: "Approve one or more registrations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uint, 0, len(args))
			for _, a := range args {
				id, err := strconv.ParseUint(a, 10, 64)
				if err != nil || id == 0 {
					return fmt.Errorf("invalid registration id %q", a)
				}
				ids = append(ids, uint(id))
			}
			return withApp(cmd, opts, func(ctx context.Context, app *di.App) error {
				for _, id := range ids {
					if err := app.Admin.Approve(ctx, operator(app.Config), id); err != nil {
						return fmt.Errorf("approve %d: %w", id, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "approved %d\n", id)
				}
				return nil
			})
		},
	}
}

func newBootstrapCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Select the record backend and make sure the administrator exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, app *di.App) error {
				fmt.Fprintf(cmd.OutOrStdout(), "record backend: %s\nadministrator: %s\n", app.Records.Backend, app.Config.Auth.AdminEmail)
				return nil
			})
		},
	}
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

func orDash(ok bool, s string) string {
	if !ok {
		return "-"
	}
	return s
}
