package amocrm

import "context"

// API is the CRM contract the reconcilers consume.
type API interface {
	// FindContact returns the id of the first contact matching the query,
	// or 0 when nothing matches.
	FindContact(ctx context.Context, query string) (int64, error)

	// CreateContact creates a contact and returns its id.
	CreateContact(ctx context.Context, name, phone, email string) (int64, error)

	// CreateLead creates a deal on the configured pipeline and status,
	// linked to contactID, and returns its id.
	CreateLead(ctx context.Context, price, contactID int64) (int64, error)

	// PipelineStatuses returns stage names keyed by status id.
	PipelineStatuses(ctx context.Context, pipelineID int64) (map[int64]string, error)

	// LeadsByPipeline returns every deal in the pipeline.
	LeadsByPipeline(ctx context.Context, pipelineID int64) ([]Lead, error)

	// ContactsByIDs returns contact details keyed by id; unknown ids are
	// absent from the result.
	ContactsByIDs(ctx context.Context, ids []int64) (map[int64]ContactDetails, error)
}
