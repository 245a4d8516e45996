package sheets

import (
	"context"
	"strconv"
	"sync"

	"github.com/ospect/amosheets/internal/model"
)

// MockRowStore is an in-memory RowStore for testing. By default it behaves
// like a real sheet: reads return a copy of Rows, updates and appends
// mutate Rows, and deal-id writes land in column E. Set the Func fields to
// script failures.
type MockRowStore struct {
	ReadAllRowsFunc  func(ctx context.Context) ([][]string, error)
	BatchUpdateFunc  func(ctx context.Context, updates []RowUpdate) error
	BatchAppendFunc  func(ctx context.Context, rows [][]string) error
	UpdateDealIDFunc func(ctx context.Context, rowIndex int, dealID int64) error

	mu            sync.Mutex
	Rows          [][]string
	UpdateBatches [][]RowUpdate
	AppendBatches [][][]string
	DealIDWrites  []DealIDWrite
	ReadCount     int
}

// DealIDWrite records one deal-reference write-back.
type DealIDWrite struct {
	RowIndex int
	DealID   int64
}

// NewMockRowStore creates a mock seeded with the given rows.
func NewMockRowStore(rows [][]string) *MockRowStore {
	return &MockRowStore{Rows: rows}
}

// ReadAllRows implements the RowStore interface.
func (m *MockRowStore) ReadAllRows(ctx context.Context) ([][]string, error) {
	if m.ReadAllRowsFunc != nil {
		return m.ReadAllRowsFunc(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadCount++

	rows := make([][]string, len(m.Rows))
	for i, row := range m.Rows {
		rows[i] = append([]string(nil), row...)
	}
	return rows, nil
}

// BatchUpdate implements the RowStore interface.
func (m *MockRowStore) BatchUpdate(ctx context.Context, updates []RowUpdate) error {
	if m.BatchUpdateFunc != nil {
		if err := m.BatchUpdateFunc(ctx, updates); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateBatches = append(m.UpdateBatches, updates)
	for _, u := range updates {
		if u.Index >= 0 && u.Index < len(m.Rows) {
			m.Rows[u.Index] = append([]string(nil), u.Values...)
		}
	}
	return nil
}

// BatchAppend implements the RowStore interface.
func (m *MockRowStore) BatchAppend(ctx context.Context, rows [][]string) error {
	if m.BatchAppendFunc != nil {
		if err := m.BatchAppendFunc(ctx, rows); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendBatches = append(m.AppendBatches, rows)
	for _, row := range rows {
		m.Rows = append(m.Rows, append([]string(nil), row...))
	}
	return nil
}

// UpdateDealID implements the RowStore interface.
func (m *MockRowStore) UpdateDealID(ctx context.Context, rowIndex int, dealID int64) error {
	if m.UpdateDealIDFunc != nil {
		if err := m.UpdateDealIDFunc(ctx, rowIndex, dealID); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.DealIDWrites = append(m.DealIDWrites, DealIDWrite{RowIndex: rowIndex, DealID: dealID})
	for rowIndex >= len(m.Rows) {
		m.Rows = append(m.Rows, nil)
	}
	row := m.Rows[rowIndex]
	for len(row) <= model.ColDealID {
		row = append(row, "")
	}
	row[model.ColDealID] = strconv.FormatInt(dealID, 10)
	m.Rows[rowIndex] = row
	return nil
}

// UpdatedRowCount returns how many rows were touched across all update
// batches.
func (m *MockRowStore) UpdatedRowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, batch := range m.UpdateBatches {
		count += len(batch)
	}
	return count
}

// AppendedRowCount returns how many rows were added across all append
// batches.
func (m *MockRowStore) AppendedRowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, batch := range m.AppendBatches {
		count += len(batch)
	}
	return count
}
