package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ospect/amosheets/internal/amocrm"
	"github.com/ospect/amosheets/internal/model"
	"github.com/ospect/amosheets/internal/sheets"
)

// Puller mirrors one CRM pipeline into the sheet.
type Puller struct {
	store      sheets.RowStore
	crm        amocrm.API
	committer  *Committer
	pipelineID int64
}

// NewPuller creates a pull reconciler for pipelineID.
func NewPuller(store sheets.RowStore, crm amocrm.API, committer *Committer, pipelineID int64) *Puller {
	return &Puller{
		store:      store,
		crm:        crm,
		committer:  committer,
		pipelineID: pipelineID,
	}
}

// SyncFromAmo fetches every deal in the pipeline together with its first
// linked contact and rewrites the matching sheet rows. Deal id is the only
// row identity on this path: deals with a row get that row overwritten in
// place, deals without one are appended. Everything lands in a single
// batched commit at the end; nothing is written while fetching.
func (p *Puller) SyncFromAmo(ctx context.Context) (PullResult, error) {
	raw, err := p.store.ReadAllRows(ctx)
	if err != nil {
		return PullResult{}, fmt.Errorf("failed to read sheet: %w", err)
	}
	rowByDeal := model.DealRowIndex(raw)

	// Statuses are fetched fresh every cycle so stage renames propagate.
	statuses, err := p.crm.PipelineStatuses(ctx, p.pipelineID)
	if err != nil {
		return PullResult{}, fmt.Errorf("failed to fetch pipeline statuses: %w", err)
	}

	leads, err := p.crm.LeadsByPipeline(ctx, p.pipelineID)
	if err != nil {
		return PullResult{}, fmt.Errorf("failed to fetch leads: %w", err)
	}

	// Resolve each deal's first linked contact in batched lookups.
	contactByLead := make(map[int64]int64, len(leads))
	contactIDs := make([]int64, 0, len(leads))
	for _, lead := range leads {
		if len(lead.ContactIDs) == 0 {
			continue
		}
		contactByLead[lead.ID] = lead.ContactIDs[0]
		contactIDs = append(contactIDs, lead.ContactIDs[0])
	}

	contacts, err := p.crm.ContactsByIDs(ctx, contactIDs)
	if err != nil {
		return PullResult{}, fmt.Errorf("failed to fetch contacts: %w", err)
	}

	var updates []sheets.RowUpdate
	var appends [][]string
	for _, lead := range leads {
		values := rowValues(lead, statuses, contacts[contactByLead[lead.ID]])
		if index, ok := rowByDeal[strconv.FormatInt(lead.ID, 10)]; ok {
			updates = append(updates, sheets.RowUpdate{Index: index, Values: values})
		} else {
			appends = append(appends, values)
		}
	}

	if err := p.committer.Commit(ctx, updates, appends); err != nil {
		return PullResult{}, err
	}

	result := PullResult{
		Updated:  len(updates),
		Inserted: len(appends),
		Fetched:  len(leads),
	}
	slog.Info("Mirrored pipeline into sheet",
		"fetched", result.Fetched,
		"updated", result.Updated,
		"inserted", result.Inserted)
	return result, nil
}

// rowValues renders one deal as a full sheet row. A status id the pipeline
// map does not know degrades to the raw id so the row is still written.
func rowValues(lead amocrm.Lead, statuses map[int64]string, contact amocrm.ContactDetails) []string {
	status, ok := statuses[lead.StatusID]
	if !ok {
		status = strconv.FormatInt(lead.StatusID, 10)
	}

	return []string{
		contact.Name,
		contact.Phone,
		contact.Email,
		strconv.FormatInt(lead.Price, 10),
		strconv.FormatInt(lead.ID, 10),
		status,
	}
}
