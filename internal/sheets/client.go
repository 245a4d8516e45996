package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ospect/amosheets/internal/common"
	"github.com/ospect/amosheets/internal/model"
)

// writePolicy is the retry discipline for batched writes: only rate
// limiting is worth waiting out, and the backoff starts at a full second
// because the quota window is per-minute.
var writePolicy = common.Policy{
	MaxAttempts: 5,
	Delay:       common.ExponentialDelay(time.Second),
	Retryable:   IsRateLimited,
}

// Client implements RowStore against the Google Sheets API. The underlying
// service is created lazily on first use so the daemon can come up before
// OAuth has ever been completed.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	service *sheets.Service
}

// NewClient creates a spreadsheet client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger}, nil
}

// Invalidate discards the cached service so the next call rebuilds it from
// the token file. The authorizer calls this after a fresh grant.
func (c *Client) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.service = nil
}

// ensureService returns the cached Sheets service, building it from the
// persisted token when needed. Missing or unrefreshable tokens surface as
// ErrReauthRequired so callers can point the operator at the OAuth flow.
func (c *Client) ensureService() (*sheets.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.service != nil {
		return c.service, nil
	}

	token, err := LoadToken(c.cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("%w: no saved Google token, complete the OAuth flow first", common.ErrReauthRequired)
	}
	if !token.Valid() && token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: saved Google token expired and cannot be refreshed", common.ErrReauthRequired)
	}

	oauthCfg, err := loadOAuthConfig(c.cfg.CredentialsFile, c.cfg.RedirectURL)
	if err != nil {
		return nil, err
	}

	// The token source lives as long as the cached service, so it gets a
	// background context rather than a per-request one.
	source := newSavingTokenSource(
		oauthCfg.TokenSource(context.Background(), token),
		c.cfg.TokenFile,
		token,
	)

	service, err := sheets.NewService(context.Background(), option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	c.service = service
	return service, nil
}

// ReadAllRows implements the RowStore interface.
func (c *Client) ReadAllRows(ctx context.Context) ([][]string, error) {
	service, err := c.ensureService()
	if err != nil {
		return nil, err
	}

	resp, err := service.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, c.cfg.Range).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet values: %w", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// BatchUpdate implements the RowStore interface. All updates go out as one
// multi-range request, retried as a whole under the rate-limit policy.
func (c *Client) BatchUpdate(ctx context.Context, updates []RowUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	service, err := c.ensureService()
	if err != nil {
		return err
	}

	name := c.cfg.SheetName()
	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		row := u.Index + model.HeaderRowOffset
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!A%d:F%d", name, row, row),
			Values: [][]any{anyRow(u.Values)},
		})
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}

	err = common.Retry(ctx, func() error {
		_, err := service.Spreadsheets.Values.BatchUpdate(c.cfg.SpreadsheetID, req).Context(ctx).Do()
		return err
	}, writePolicy)
	if err != nil {
		return fmt.Errorf("batch update of %d rows: %w", len(updates), err)
	}

	c.logger.Debug("updated sheet rows", "rows", len(updates))
	return nil
}

// BatchAppend implements the RowStore interface. Rows are inserted below
// the existing data in input order.
func (c *Client) BatchAppend(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	service, err := c.ensureService()
	if err != nil {
		return err
	}

	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, anyRow(row))
	}
	vr := &sheets.ValueRange{Values: values}
	target := fmt.Sprintf("%s!A:F", c.cfg.SheetName())

	err = common.Retry(ctx, func() error {
		_, err := service.Spreadsheets.Values.Append(c.cfg.SpreadsheetID, target, vr).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return err
	}, writePolicy)
	if err != nil {
		return fmt.Errorf("append of %d rows: %w", len(rows), err)
	}

	c.logger.Debug("appended sheet rows", "rows", len(rows))
	return nil
}

// UpdateDealID implements the RowStore interface. The write is synchronous
// and deliberately unretried: the push reconciler needs the acknowledgement
// before it dares create the next deal.
func (c *Client) UpdateDealID(ctx context.Context, rowIndex int, dealID int64) error {
	service, err := c.ensureService()
	if err != nil {
		return err
	}

	target := fmt.Sprintf("%s!E%d", c.cfg.SheetName(), rowIndex+model.HeaderRowOffset)
	vr := &sheets.ValueRange{Values: [][]any{{strconv.FormatInt(dealID, 10)}}}

	_, err = service.Spreadsheets.Values.Update(c.cfg.SpreadsheetID, target, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write deal id to row %d: %w", rowIndex+model.HeaderRowOffset, err)
	}
	return nil
}

// IsRateLimited reports whether err is the spreadsheet backend's rate-limit
// condition.
func IsRateLimited(err error) bool {
	if errors.Is(err, common.ErrRateLimit) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests ||
			strings.Contains(apiErr.Message, "RATE_LIMIT_EXCEEDED") ||
			strings.Contains(apiErr.Body, "RATE_LIMIT_EXCEEDED")
	}
	return false
}

func anyRow(cells []string) []any {
	row := make([]any, len(cells))
	for i, cell := range cells {
		row[i] = cell
	}
	return row
}
