package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"asset-manifest/server"
)

func newHistoryCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent operations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := app.open(nil)
			defer svc.Close()
			entries, err := svc.History(limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderHistory(entries))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries (0 for all)")
	return cmd
}

func newServeCmd(app *App) *cobra.Command {
	var (
		port  int
		write bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				app.cfg.Server.Port = port
			}
			if cmd.Flags().Changed("write") {
				app.cfg.Server.Write = write
			}
			if err := app.cfg.Validate(); err != nil {
				return writeErr(cmd, err)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			svc := app.open(reg)
			defer svc.Close()

			srv, err := server.New(svc, app.cfg, app.log, reg)
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Run(ctx); err != nil {
				app.log.Error("server stopped", zap.Error(err))
				return writeErr(cmd, err)
			}
			app.log.Info("shut down")
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 5000, "Port to listen on")
	cmd.Flags().BoolVar(&write, "write", false, "Enable write mode (allows file operations and uploads)")
	return cmd
}
