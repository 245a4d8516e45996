package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ospect/amosheets/internal/common"
)

func validConfig() Config {
	return Config{
		SpreadsheetID:   "spreadsheet-id",
		Range:           "Leads!A2:F",
		CredentialsFile: "credentials.json",
		TokenFile:       "token.json",
		RedirectURL:     "http://localhost:8000/google/oauth2/callback",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing spreadsheet id",
			mutate:  func(c *Config) { c.SpreadsheetID = "" },
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "missing range",
			mutate:  func(c *Config) { c.Range = "" },
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "range without tab name",
			mutate:  func(c *Config) { c.Range = "A2:F" },
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "missing credentials file",
			mutate:  func(c *Config) { c.CredentialsFile = "" },
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "missing token file",
			mutate:  func(c *Config) { c.TokenFile = "" },
			wantErr: common.ErrMissingConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigSheetName(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "Leads", cfg.SheetName())

	cfg.Range = "Intake 2024!A2:F"
	assert.Equal(t, "Intake 2024", cfg.SheetName())
}
