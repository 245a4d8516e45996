// Package sheets provides the Google Sheets backend of the bridge: reading
// the lead-intake range and writing row mutations with rate-limit aware
// batching, plus the OAuth flow that authorizes it all.
package sheets

import (
	"fmt"
	"strings"

	"github.com/ospect/amosheets/internal/common"
)

// Config holds the configuration for the spreadsheet backend.
type Config struct {
	// SpreadsheetID is the document and Range the data region inside it,
	// including the tab name, e.g. "Leads!A2:F".
	SpreadsheetID string
	Range         string

	// CredentialsFile is the OAuth client secrets JSON downloaded from the
	// Google console; TokenFile is where the granted token is cached.
	CredentialsFile string
	TokenFile       string

	// RedirectURL is the registered OAuth callback.
	RedirectURL string
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("%w: spreadsheet id", common.ErrMissingConfig)
	}
	if c.Range == "" {
		return fmt.Errorf("%w: sheet range", common.ErrMissingConfig)
	}
	if !strings.Contains(c.Range, "!") {
		return fmt.Errorf("%w: sheet range %q must include the tab name, e.g. Leads!A2:F", common.ErrInvalidConfig, c.Range)
	}
	if c.CredentialsFile == "" {
		return fmt.Errorf("%w: credentials file", common.ErrMissingConfig)
	}
	if c.TokenFile == "" {
		return fmt.Errorf("%w: token file", common.ErrMissingConfig)
	}
	return nil
}

// SheetName returns the tab portion of the configured range.
func (c *Config) SheetName() string {
	return strings.SplitN(c.Range, "!", 2)[0]
}
