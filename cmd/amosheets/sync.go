package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation and exit",
	}

	cmd.AddCommand(syncPushCmd())
	cmd.AddCommand(syncPullCmd())

	return cmd
}

func syncPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Create CRM deals for new sheet rows",
		Long: `Read the lead-intake range, resolve or create a contact for every row
without a deal reference, create the deal, and write the deal id back into
the row. Rows that already carry a deal reference are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := buildBridge()
			if err != nil {
				return err
			}

			stop := startSpinner("Pushing new sheet rows to amoCRM...")
			result, err := b.pusher.ProcessNewRows(cmd.Context())
			stop()
			if err != nil {
				return fmt.Errorf("push failed: %w", err)
			}

			slog.Info("Push complete", "created", len(result.Created), "checked_rows", result.CheckedRows)
			for _, lead := range result.Created {
				slog.Info("Created deal", "row", lead.Row, "lead_id", lead.LeadID, "contact_id", lead.ContactID)
			}
			return nil
		},
	}
}

func syncPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Mirror the CRM pipeline back into the sheet",
		Long: `Fetch every deal of the configured pipeline with its first contact and
status label, update the matching sheet rows in place, and append rows for
deals the sheet has never seen.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := buildBridge()
			if err != nil {
				return err
			}

			stop := startSpinner("Pulling pipeline state from amoCRM...")
			result, err := b.puller.SyncFromAmo(cmd.Context())
			stop()
			if err != nil {
				return fmt.Errorf("pull failed: %w", err)
			}

			slog.Info("Pull complete", "updated", result.Updated, "inserted", result.Inserted, "fetched", result.Fetched)
			return nil
		},
	}
}

// startSpinner renders an indeterminate spinner on stderr until the
// returned stop function is called.
func startSpinner(description string) func() {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	return func() {
		close(done)
		_ = bar.Finish()
	}
}
