// Package config materializes every runtime setting of the bridge into one
// explicit value object at startup, so nothing reads viper or the
// environment at call sites.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ospect/amosheets/internal/amocrm"
	"github.com/ospect/amosheets/internal/common"
	"github.com/ospect/amosheets/internal/sheets"
)

// Deployment defaults. Pipeline and status are the funnel stage newly
// pushed deals land in.
const (
	defaultPipelineID   = 8237934
	defaultStatusID     = 67260282
	defaultListenAddr   = ":8000"
	defaultPublicURL    = "http://localhost:8000"
	defaultPushInterval = 2 * time.Minute
	defaultPullInterval = 5 * time.Minute
)

// Config carries every setting the bridge needs, resolved once at startup
// and passed by reference from there on.
type Config struct {
	Sheets sheets.Config
	Amo    amocrm.Config

	// ListenAddr is the HTTP bind address. PublicURL is how Google reaches
	// the OAuth callback; no trailing slash.
	ListenAddr string
	PublicURL  string

	PushInterval time.Duration
	PullInterval time.Duration

	// Chunk bounds for the pull commit. Zero means the engine defaults.
	UpdateChunkSize int
	AppendChunkSize int
}

// Load resolves the configuration. It follows this precedence per setting:
// 1. Viper configuration (from config file or AMOSHEETS_ env vars)
// 2. The bare environment names a .env deployment uses (SHEET_ID, AMO_...)
// 3. Default values
func Load() (*Config, error) {
	// A local .env keeps docker-style deployments working; absent is fine.
	_ = godotenv.Load()

	cfg := &Config{
		Sheets: sheets.Config{
			SpreadsheetID:   stringSetting("sheet.id", "SHEET_ID", ""),
			Range:           stringSetting("sheet.range", "SHEET_RANGE", ""),
			CredentialsFile: ExpandPath(stringSetting("google.credentials_file", "GOOGLE_CREDENTIALS_FILE", filepath.Join(xdg.ConfigHome, "amosheets", "credentials.json"))),
			TokenFile:       ExpandPath(stringSetting("google.token_file", "GOOGLE_TOKEN_FILE", filepath.Join(xdg.StateHome, "amosheets", "token.json"))),
		},
		Amo: amocrm.Config{
			BaseURL: strings.TrimRight(stringSetting("amo.base_url", "AMO_BASE_URL", ""), "/"),
			Token:   strings.TrimSpace(stringSetting("amo.access_token", "AMO_ACCESS_TOKEN", "")),
		},
		ListenAddr: stringSetting("server.listen_addr", "LISTEN_ADDR", defaultListenAddr),
		PublicURL:  strings.TrimRight(stringSetting("server.public_url", "PUBLIC_URL", defaultPublicURL), "/"),
	}
	cfg.Sheets.RedirectURL = cfg.PublicURL + "/google/oauth2/callback"

	var err error
	if cfg.Amo.PipelineID, err = int64Setting("amo.pipeline_id", "AMO_PIPELINE_ID", defaultPipelineID); err != nil {
		return nil, err
	}
	if cfg.Amo.StatusID, err = int64Setting("amo.status_id", "AMO_STATUS_ID", defaultStatusID); err != nil {
		return nil, err
	}
	if cfg.Amo.PageLimit, err = intSetting("amo.page_limit", "", 0); err != nil {
		return nil, err
	}
	if cfg.Amo.IDChunkSize, err = intSetting("amo.id_chunk_size", "", 0); err != nil {
		return nil, err
	}

	if cfg.UpdateChunkSize, err = intSetting("sync.update_chunk_size", "", 0); err != nil {
		return nil, err
	}
	if cfg.AppendChunkSize, err = intSetting("sync.append_chunk_size", "", 0); err != nil {
		return nil, err
	}
	if cfg.PushInterval, err = durationSetting("sync.push_interval", "PUSH_INTERVAL", defaultPushInterval); err != nil {
		return nil, err
	}
	if cfg.PullInterval, err = durationSetting("sync.pull_interval", "PULL_INTERVAL", defaultPullInterval); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on missing or unusable settings, naming each by its
// environment variable form.
func (c *Config) Validate() error {
	required := []struct {
		value string
		name  string
	}{
		{c.Sheets.SpreadsheetID, "SHEET_ID"},
		{c.Sheets.Range, "SHEET_RANGE"},
		{c.Amo.BaseURL, "AMO_BASE_URL"},
		{c.Amo.Token, "AMO_ACCESS_TOKEN"},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s", common.ErrMissingConfig, r.name)
		}
	}

	if err := c.Sheets.Validate(); err != nil {
		return err
	}
	if c.PushInterval <= 0 {
		return fmt.Errorf("%w: PUSH_INTERVAL must be positive", common.ErrInvalidConfig)
	}
	if c.PullInterval <= 0 {
		return fmt.Errorf("%w: PULL_INTERVAL must be positive", common.ErrInvalidConfig)
	}
	return nil
}

// stringSetting resolves one setting: viper first, then the bare
// environment name (skipped when empty), then the fallback.
func stringSetting(viperKey, envKey, fallback string) string {
	if v := viper.GetString(viperKey); v != "" {
		return v
	}
	if envKey != "" {
		if v := os.Getenv(envKey); v != "" {
			return v
		}
	}
	return fallback
}

func int64Setting(viperKey, envKey string, fallback int64) (int64, error) {
	raw := stringSetting(viperKey, envKey, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", common.ErrInvalidConfig, settingName(viperKey, envKey), err)
	}
	return v, nil
}

func intSetting(viperKey, envKey string, fallback int) (int, error) {
	v, err := int64Setting(viperKey, envKey, int64(fallback))
	return int(v), err
}

func durationSetting(viperKey, envKey string, fallback time.Duration) (time.Duration, error) {
	raw := stringSetting(viperKey, envKey, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", common.ErrInvalidConfig, settingName(viperKey, envKey), err)
	}
	return d, nil
}

func settingName(viperKey, envKey string) string {
	if envKey != "" {
		return envKey
	}
	return viperKey
}
