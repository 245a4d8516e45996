package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRow(t *testing.T) {
	tests := []struct {
		name  string
		index int
		cells []string
		want  IntakeRow
	}{
		{
			name:  "complete row",
			index: 0,
			cells: []string{"Jane Doe", "89991234567", "jane@example.com", "50000", "123", "New"},
			want: IntakeRow{
				Index:  0,
				Name:   "Jane Doe",
				Phone:  "89991234567",
				Email:  "jane@example.com",
				Budget: 50000,
				DealID: "123",
			},
		},
		{
			name:  "short row reads missing cells as empty",
			index: 3,
			cells: []string{"Bob"},
			want:  IntakeRow{Index: 3, Name: "Bob"},
		},
		{
			name:  "empty row",
			index: 7,
			cells: nil,
			want:  IntakeRow{Index: 7},
		},
		{
			name:  "cells are trimmed",
			index: 1,
			cells: []string{" Jane ", " 123 ", " a@b.c ", " 10 ", " 42 ", " New "},
			want: IntakeRow{
				Index:  1,
				Name:   "Jane",
				Phone:  "123",
				Email:  "a@b.c",
				Budget: 10,
				DealID: "42",
			},
		},
		{
			name:  "non-numeric budget defaults to zero",
			index: 0,
			cells: []string{"Jane", "", "", "a lot", "", ""},
			want:  IntakeRow{Index: 0, Name: "Jane"},
		},
		{
			name:  "signed budget is not a plain integer",
			index: 0,
			cells: []string{"Jane", "", "", "-500", "", ""},
			want:  IntakeRow{Index: 0, Name: "Jane"},
		},
		{
			name:  "budget with leading zeros",
			index: 0,
			cells: []string{"", "", "", "007", "", ""},
			want:  IntakeRow{Index: 0, Budget: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRow(tt.index, tt.cells))
		})
	}
}

func TestSheetRow(t *testing.T) {
	assert.Equal(t, 2, IntakeRow{Index: 0}.SheetRow())
	assert.Equal(t, 12, IntakeRow{Index: 10}.SheetRow())
}

func TestDealRowIndex(t *testing.T) {
	rows := [][]string{
		{"Jane", "", "", "", "101", ""},
		{"Bob", "", "", "", "", ""},
		{"Eve", "", "", "", " 202 ", ""},
		{"Al"},
	}

	index := DealRowIndex(rows)

	assert.Equal(t, map[string]int{"101": 0, "202": 2}, index)
}

func TestDealRowIndexLastDuplicateWins(t *testing.T) {
	rows := [][]string{
		{"", "", "", "", "7", ""},
		{"", "", "", "", "7", ""},
	}

	assert.Equal(t, map[string]int{"7": 1}, DealRowIndex(rows))
}
