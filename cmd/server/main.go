package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gearhub/internal/logging"
	"github.com/dmitrijs2005/gearhub/internal/server"
	"github.com/dmitrijs2005/gearhub/internal/server/config"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "gearhub",
		Short:   "gearhub - equipment rental backend",
		Version: Version,
		// Flags are parsed by the config loader so they work the same
		// with and without a subcommand.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		Args:               cobra.ArbitraryArgs,
		RunE:               runServe,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "serve",
		Short:              "Run the HTTP API, the gRPC health endpoint and periodic reconciliation",
		DisableFlagParsing: true,
		RunE:               runServe,
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "migrate",
		Short:              "Apply pending database migrations and exit",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *server.App) error {
				return app.Migrate(ctx)
			})
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "reconcile",
		Short:              "Mark paid every order whose payment is recorded but not applied",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *server.App) error {
				n, err := app.ReconcileOnce(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "repaired %d order(s)\n", n)
				return err
			})
		},
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(ctx context.Context, app *server.App) error {
		return app.Run(ctx)
	})
}

func withApp(ctx context.Context, fn func(context.Context, *server.App) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.LoadConfig()
	logger := logging.NewForEnv(cfg.Env, os.Stdout)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error(ctx, "db close failed", "error", err)
		}
	}()

	return fn(ctx, app)
}
