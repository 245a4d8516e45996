package sheets

import "context"

// RowUpdate replaces the full six-column contents of one existing data row.
// Index is zero-based within the data range.
type RowUpdate struct {
	Index  int
	Values []string
}

// RowStore is the spreadsheet contract the reconcilers consume.
type RowStore interface {
	// ReadAllRows returns every row of the data range, cells as strings.
	ReadAllRows(ctx context.Context) ([][]string, error)

	// BatchUpdate overwrites existing rows in one request.
	BatchUpdate(ctx context.Context, updates []RowUpdate) error

	// BatchAppend adds rows below the current data in one request,
	// preserving order.
	BatchAppend(ctx context.Context, rows [][]string) error

	// UpdateDealID writes the deal reference cell of one row and returns
	// only after the write is acknowledged.
	UpdateDealID(ctx context.Context, rowIndex int, dealID int64) error
}
