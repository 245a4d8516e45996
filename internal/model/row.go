// Package model defines the spreadsheet row shapes shared by both
// reconciliation directions and the two keying strategies used to identify
// rows: positional (zero-based row index, push side) and referential (deal
// id stored in the row, pull side).
package model

import (
	"strconv"
	"strings"
)

// Zero-based column positions within one intake row (sheet columns A..F).
const (
	ColName = iota
	ColPhone
	ColEmail
	ColBudget
	ColDealID
	ColStatus
)

// RowWidth is the number of columns one intake row spans.
const RowWidth = 6

// HeaderRowOffset converts a zero-based data row index into its 1-indexed
// sheet row: the data range starts below a single header row, so index 0
// lives at sheet row 2.
const HeaderRowOffset = 2

// IntakeRow is one parsed lead-intake record. Index is the zero-based
// position within the data range and stays valid for the duration of a
// single reconciliation pass; DealID, once written, is the durable identity.
type IntakeRow struct {
	Index  int
	Name   string
	Phone  string
	Email  string
	Budget int64
	DealID string
}

// SheetRow returns the 1-indexed spreadsheet row this record occupies.
func (r IntakeRow) SheetRow() int {
	return r.Index + HeaderRowOffset
}

// ParseRow converts one raw sheet row into an IntakeRow. Cells are trimmed,
// missing trailing cells read as empty, and a budget that is not a plain
// unsigned integer defaults to 0. Parsing never fails: malformed rows come
// back as far as they can be read.
func ParseRow(index int, cells []string) IntakeRow {
	row := IntakeRow{
		Index:  index,
		Name:   cellAt(cells, ColName),
		Phone:  cellAt(cells, ColPhone),
		Email:  cellAt(cells, ColEmail),
		DealID: cellAt(cells, ColDealID),
	}
	if v, err := strconv.ParseUint(cellAt(cells, ColBudget), 10, 63); err == nil {
		row.Budget = int64(v)
	}
	return row
}

// DealRowIndex builds the pull-side keying map: each non-empty deal
// reference (trimmed) maps to the zero-based index of the row holding it.
// If a reference somehow appears in several rows, the last one wins.
func DealRowIndex(rows [][]string) map[string]int {
	index := make(map[string]int, len(rows))
	for i, cells := range rows {
		if ref := cellAt(cells, ColDealID); ref != "" {
			index[ref] = i
		}
	}
	return index
}

func cellAt(cells []string, col int) string {
	if col >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col])
}
