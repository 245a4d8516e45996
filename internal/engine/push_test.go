package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ospect/amosheets/internal/amocrm"
	"github.com/ospect/amosheets/internal/sheets"
)

func TestProcessNewRowsSkipsLinkedRows(t *testing.T) {
	store := sheets.NewMockRowStore([][]string{
		{"Jane", "79991234567", "jane@example.com", "50000", "101", "New"},
		{"Bob", "79991234568", "bob@example.com", "0", "102", "Won"},
	})
	crm := amocrm.NewMockClient()

	result, err := NewPusher(store, crm).ProcessNewRows(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.CheckedRows)
	assert.Empty(t, result.Created)
	assert.Empty(t, crm.Calls, "linked rows must not touch the CRM")
	assert.Empty(t, store.DealIDWrites)
}

func TestProcessNewRowsCreatesContactAndLead(t *testing.T) {
	store := sheets.NewMockRowStore([][]string{
		{"Jane Doe", "89991234567", "jane@example.com", "50000", "", ""},
	})
	crm := amocrm.NewMockClient()
	crm.CreateContactFunc = func(_ context.Context, name, phone, email string) (int64, error) {
		assert.Equal(t, "Jane Doe", name)
		assert.Equal(t, "89991234567", phone)
		assert.Equal(t, "jane@example.com", email)
		return 900, nil
	}
	crm.CreateLeadFunc = func(_ context.Context, price, contactID int64) (int64, error) {
		assert.Equal(t, int64(50000), price)
		assert.Equal(t, int64(900), contactID)
		return 5001, nil
	}

	result, err := NewPusher(store, crm).ProcessNewRows(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.CheckedRows)
	require.Len(t, result.Created, 1)
	assert.Equal(t, CreatedLead{Row: 2, LeadID: 5001, ContactID: 900}, result.Created[0])

	// Both lookups missed before the contact was created.
	assert.Equal(t, []string{"jane@example.com", "89991234567"}, crm.FindQueries)
	require.Len(t, store.DealIDWrites, 1)
	assert.Equal(t, sheets.DealIDWrite{RowIndex: 0, DealID: 5001}, store.DealIDWrites[0])
}

func TestProcessNewRowsPrefersEmailMatch(t *testing.T) {
	store := sheets.NewMockRowStore([][]string{
		{"Jane", "89991234567", "jane@example.com", "1000", "", ""},
	})
	crm := amocrm.NewMockClient()
	crm.FindContactFunc = func(_ context.Context, query string) (int64, error) {
		if query == "jane@example.com" {
			return 900, nil
		}
		t.Fatalf("phone lookup should not happen after an email hit, got query %q", query)
		return 0, nil
	}
	crm.CreateLeadFunc = func(_ context.Context, _, contactID int64) (int64, error) {
		assert.Equal(t, int64(900), contactID)
		return 5001, nil
	}

	result, err := NewPusher(store, crm).ProcessNewRows(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.Equal(t, []string{"jane@example.com"}, crm.FindQueries)
	assert.Zero(t, crm.CallCount("CreateContact"))
}

func TestProcessNewRowsFallsBackToPhoneMatch(t *testing.T) {
	store := sheets.NewMockRowStore([][]string{
		{"Jane", "89991234567", "jane@example.com", "1000", "", ""},
	})
	crm := amocrm.NewMockClient()
	crm.FindContactFunc = func(_ context.Context, query string) (int64, error) {
		if query == "89991234567" {
			return 901, nil
		}
		return 0, nil
	}
	crm.CreateLeadFunc = func(_ context.Context, _, contactID int64) (int64, error) {
		assert.Equal(t, int64(901), contactID)
		return 5002, nil
	}

	result, err := NewPusher(store, crm).ProcessNewRows(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.Equal(t, []string{"jane@example.com", "89991234567"}, crm.FindQueries)
	assert.Zero(t, crm.CallCount("CreateContact"))
}

func TestProcessNewRowsSkipsEmptyQueries(t *testing.T) {
	store := sheets.NewMockRowStore([][]string{
		{"Jane", "", "", "1000", "", ""},
	})
	crm := amocrm.NewMockClient()
	crm.CreateContactFunc = func(_ context.Context, _, _, _ string) (int64, error) { return 902, nil }
	crm.CreateLeadFunc = func(_ context.Context, _, _ int64) (int64, error) { return 5003, nil }

	_, err := NewPusher(store, crm).ProcessNewRows(context.Background())

	require.NoError(t, err)
	assert.Empty(t, crm.FindQueries, "blank contact fields must not be searched")
	assert.Equal(t, 1, crm.CallCount("CreateContact"))
}

func TestProcessNewRowsSecondRunIsIdempotent(t *testing.T) {
	store := sheets.NewMockRowStore([][]string{
		{"Jane Doe", "89991234567", "jane@example.com", "50000", "", ""},
		{"Bob", "89991234568", "", "0", "", ""},
	})
	crm := amocrm.NewMockClient()
	nextContact := int64(900)
	crm.CreateContactFunc = func(_ context.Context, _, _, _ string) (int64, error) {
		nextContact++
		return nextContact, nil
	}
	nextLead := int64(5000)
	crm.CreateLeadFunc = func(_ context.Context, _, _ int64) (int64, error) {
		nextLead++
		return nextLead, nil
	}

	pusher := NewPusher(store, crm)

	first, err := pusher.ProcessNewRows(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Created, 2)
	leadCalls := crm.CallCount("CreateLead")

	// The deal ids written back by the first run now mark every row done.
	second, err := pusher.ProcessNewRows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	assert.Equal(t, 2, second.CheckedRows)
	assert.Equal(t, leadCalls, crm.CallCount("CreateLead"), "second run must create nothing")
}

func TestProcessNewRowsWritesBackBeforeNextRow(t *testing.T) {
	store := sheets.NewMockRowStore([][]string{
		{"Jane", "89991234567", "", "100", "", ""},
		{"Bob", "89991234568", "", "200", "", ""},
	})
	crm := amocrm.NewMockClient()
	crm.CreateContactFunc = func(_ context.Context, _, _, _ string) (int64, error) { return 900, nil }

	var writesAtSecondLead int
	leads := int64(0)
	crm.CreateLeadFunc = func(_ context.Context, _, _ int64) (int64, error) {
		leads++
		if leads == 2 {
			writesAtSecondLead = len(store.DealIDWrites)
		}
		return 5000 + leads, nil
	}

	_, err := NewPusher(store, crm).ProcessNewRows(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, writesAtSecondLead, "first row's deal id must be written before the second deal is created")
}

func TestProcessNewRowsStopsWhenWriteBackFails(t *testing.T) {
	store := sheets.NewMockRowStore([][]string{
		{"Jane", "89991234567", "", "100", "", ""},
		{"Bob", "89991234568", "", "200", "", ""},
	})
	store.UpdateDealIDFunc = func(_ context.Context, _ int, _ int64) error {
		return errors.New("write refused")
	}
	crm := amocrm.NewMockClient()
	crm.CreateContactFunc = func(_ context.Context, _, _, _ string) (int64, error) { return 900, nil }
	crm.CreateLeadFunc = func(_ context.Context, _, _ int64) (int64, error) { return 5001, nil }

	_, err := NewPusher(store, crm).ProcessNewRows(context.Background())

	require.Error(t, err)
	// The second row was never reached.
	assert.Equal(t, 1, crm.CallCount("CreateLead"))
}

func TestProcessNewRowsShortRowTreatedAsNew(t *testing.T) {
	// A freshly appended lead often has only the first cells filled in.
	store := sheets.NewMockRowStore([][]string{
		{"Jane Doe", "89991234567", "", ""},
	})
	crm := amocrm.NewMockClient()
	crm.CreateContactFunc = func(_ context.Context, name, phone, email string) (int64, error) {
		assert.Equal(t, "Jane Doe", name)
		assert.Equal(t, "89991234567", phone)
		assert.Empty(t, email)
		return 900, nil
	}
	crm.CreateLeadFunc = func(_ context.Context, price, _ int64) (int64, error) {
		assert.Zero(t, price)
		return 5001, nil
	}

	result, err := NewPusher(store, crm).ProcessNewRows(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	// Only the phone was searched; the empty email was never queried.
	assert.Equal(t, []string{"89991234567"}, crm.FindQueries)
	require.Len(t, store.DealIDWrites, 1)
	assert.Equal(t, sheets.DealIDWrite{RowIndex: 0, DealID: 5001}, store.DealIDWrites[0])
}

func TestProcessNewRowsDefaultsBadBudgetToZero(t *testing.T) {
	store := sheets.NewMockRowStore([][]string{
		{"Jane", "89991234567", "", "about 50k", "", ""},
	})
	crm := amocrm.NewMockClient()
	crm.CreateContactFunc = func(_ context.Context, _, _, _ string) (int64, error) { return 900, nil }
	crm.CreateLeadFunc = func(_ context.Context, price, _ int64) (int64, error) {
		assert.Zero(t, price)
		return 5001, nil
	}

	_, err := NewPusher(store, crm).ProcessNewRows(context.Background())

	require.NoError(t, err)
	require.Len(t, crm.CreatedLeads, 1)
	assert.Zero(t, crm.CreatedLeads[0].Price)
}

func TestProcessNewRowsPropagatesReadFailure(t *testing.T) {
	store := sheets.NewMockRowStore(nil)
	store.ReadAllRowsFunc = func(context.Context) ([][]string, error) {
		return nil, errors.New("sheet unavailable")
	}
	crm := amocrm.NewMockClient()

	_, err := NewPusher(store, crm).ProcessNewRows(context.Background())

	require.Error(t, err)
	assert.Empty(t, crm.Calls)
}
