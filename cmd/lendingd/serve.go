package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	serveMigrate bool
	serveNoSweep bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Run schema migration before serving")
	serveCmd.Flags().BoolVar(&serveNoSweep, "no-sweep", false, "Do not start the liquidation monitor in this process")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the liquidation monitor",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if serveMigrate {
		if err := a.migrate(ctx); err != nil {
			return err
		}
	}
	if !serveNoSweep {
		a.monitor.Start(ctx)
		defer a.monitor.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.AppPort
		slog.Info("listening", "addr", addr)
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	return a.echo.Shutdown(shutdownCtx)
}
