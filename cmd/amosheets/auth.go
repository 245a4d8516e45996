package main

import (
	"github.com/spf13/cobra"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
		Long:  `Authenticate with external services like Google Sheets.`,
	}

	cmd.AddCommand(authGoogleCmd())

	return cmd
}

func authGoogleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "google",
		Short: "Authorize Google Sheets access",
		Long: `Run the browser OAuth flow against Google and cache the token.

This command will:
1. Start a local callback server
2. Print the consent URL to open in your browser
3. Save the granted token for the daemon and the sync commands

Rerun it whenever the bridge reports that reauthorization is required.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := buildBridge()
			if err != nil {
				return err
			}
			return b.auth.RunInteractive(cmd.Context(), b.cfg.ListenAddr)
		},
	}
}
