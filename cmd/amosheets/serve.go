package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ospect/amosheets/internal/scheduler"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge daemon",
		Long: `Serve the HTTP trigger surface and run both reconciliations on their
configured intervals until interrupted.

Push creates deals for new sheet rows; pull mirrors the pipeline back into
the sheet. A run that would overlap the previous one of the same kind is
skipped, not queued.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	b, err := buildBridge()
	if err != nil {
		return err
	}

	pushTrigger := scheduler.NewTrigger("push", b.cfg.PushInterval, func(ctx context.Context) error {
		result, err := b.pusher.ProcessNewRows(ctx)
		if err != nil {
			return err
		}
		slog.Info("Scheduled push finished", "created", len(result.Created), "checked_rows", result.CheckedRows)
		return nil
	})
	pullTrigger := scheduler.NewTrigger("pull", b.cfg.PullInterval, func(ctx context.Context) error {
		result, err := b.puller.SyncFromAmo(ctx)
		if err != nil {
			return err
		}
		slog.Info("Scheduled pull finished", "updated", result.Updated, "inserted", result.Inserted, "fetched", result.Fetched)
		return nil
	})

	go pushTrigger.Start(ctx)
	go pullTrigger.Start(ctx)

	srv := &http.Server{
		Addr:              b.cfg.ListenAddr,
		Handler:           b.server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", b.cfg.ListenAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
