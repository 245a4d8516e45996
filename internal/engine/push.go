package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ospect/amosheets/internal/amocrm"
	"github.com/ospect/amosheets/internal/model"
	"github.com/ospect/amosheets/internal/sheets"
)

// Pusher walks the intake sheet and creates CRM deals for rows that do not
// reference one yet.
type Pusher struct {
	store sheets.RowStore
	crm   amocrm.API
}

// NewPusher creates a push reconciler.
func NewPusher(store sheets.RowStore, crm amocrm.API) *Pusher {
	return &Pusher{store: store, crm: crm}
}

// ProcessNewRows reads the whole sheet and, for every row without a deal
// reference, resolves or creates a contact, creates a deal, and writes the
// deal id back into the row before moving to the next one. The write-back
// is the idempotency anchor: rows that got their id are skipped forever
// after, so a rerun never duplicates a deal.
//
// The pass stops at the first failing row; rows already written stay
// written.
func (p *Pusher) ProcessNewRows(ctx context.Context) (PushResult, error) {
	raw, err := p.store.ReadAllRows(ctx)
	if err != nil {
		return PushResult{}, fmt.Errorf("failed to read sheet: %w", err)
	}

	result := PushResult{
		Created:     []CreatedLead{},
		CheckedRows: len(raw),
	}

	for i, cells := range raw {
		row := model.ParseRow(i, cells)
		if row.DealID != "" {
			continue
		}

		contactID, err := p.resolveContact(ctx, row)
		if err != nil {
			return PushResult{}, err
		}

		leadID, err := p.crm.CreateLead(ctx, row.Budget, contactID)
		if err != nil {
			return PushResult{}, fmt.Errorf("failed to create lead for row %d: %w", row.SheetRow(), err)
		}

		if err := p.store.UpdateDealID(ctx, row.Index, leadID); err != nil {
			return PushResult{}, fmt.Errorf("failed to link lead %d to row %d: %w", leadID, row.SheetRow(), err)
		}

		slog.Info("Created lead from sheet row",
			"row", row.SheetRow(),
			"lead_id", leadID,
			"contact_id", contactID,
			"price", row.Budget)

		result.Created = append(result.Created, CreatedLead{
			Row:       row.SheetRow(),
			LeadID:    leadID,
			ContactID: contactID,
		})
	}

	return result, nil
}

// resolveContact finds an existing contact for the row or creates one. The
// email is tried first because it is the more precise key; the phone search
// uses the normalized number.
func (p *Pusher) resolveContact(ctx context.Context, row model.IntakeRow) (int64, error) {
	for _, query := range []string{row.Email, row.Phone} {
		if query == "" {
			continue
		}
		id, err := p.crm.FindContact(ctx, query)
		if err != nil {
			return 0, fmt.Errorf("failed to find contact for row %d: %w", row.SheetRow(), err)
		}
		if id != 0 {
			return id, nil
		}
	}

	id, err := p.crm.CreateContact(ctx, row.Name, row.Phone, row.Email)
	if err != nil {
		return 0, fmt.Errorf("failed to create contact for row %d: %w", row.SheetRow(), err)
	}
	return id, nil
}
