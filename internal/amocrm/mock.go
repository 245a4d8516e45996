package amocrm

import (
	"context"
	"sync"
)

// MockClient is a scripted implementation of API for testing. Unset Func
// fields fall back to zero values, so a fresh mock behaves like an empty
// CRM.
type MockClient struct {
	FindContactFunc      func(ctx context.Context, query string) (int64, error)
	CreateContactFunc    func(ctx context.Context, name, phone, email string) (int64, error)
	CreateLeadFunc       func(ctx context.Context, price, contactID int64) (int64, error)
	PipelineStatusesFunc func(ctx context.Context, pipelineID int64) (map[int64]string, error)
	LeadsByPipelineFunc  func(ctx context.Context, pipelineID int64) ([]Lead, error)
	ContactsByIDsFunc    func(ctx context.Context, ids []int64) (map[int64]ContactDetails, error)

	mu             sync.Mutex
	Calls          []string
	FindQueries    []string
	CreatedLeads   []CreatedLeadCall
	ContactLookups [][]int64
}

// CreatedLeadCall records the arguments of one CreateLead call.
type CreatedLeadCall struct {
	Price     int64
	ContactID int64
}

// NewMockClient creates a mock with no scripted behavior.
func NewMockClient() *MockClient {
	return &MockClient{Calls: make([]string, 0)}
}

// FindContact implements the API interface.
func (m *MockClient) FindContact(ctx context.Context, query string) (int64, error) {
	m.record("FindContact")
	m.mu.Lock()
	m.FindQueries = append(m.FindQueries, query)
	m.mu.Unlock()

	if m.FindContactFunc != nil {
		return m.FindContactFunc(ctx, query)
	}
	return 0, nil
}

// CreateContact implements the API interface.
func (m *MockClient) CreateContact(ctx context.Context, name, phone, email string) (int64, error) {
	m.record("CreateContact")
	if m.CreateContactFunc != nil {
		return m.CreateContactFunc(ctx, name, phone, email)
	}
	return 0, nil
}

// CreateLead implements the API interface.
func (m *MockClient) CreateLead(ctx context.Context, price, contactID int64) (int64, error) {
	m.record("CreateLead")
	m.mu.Lock()
	m.CreatedLeads = append(m.CreatedLeads, CreatedLeadCall{Price: price, ContactID: contactID})
	m.mu.Unlock()

	if m.CreateLeadFunc != nil {
		return m.CreateLeadFunc(ctx, price, contactID)
	}
	return 0, nil
}

// PipelineStatuses implements the API interface.
func (m *MockClient) PipelineStatuses(ctx context.Context, pipelineID int64) (map[int64]string, error) {
	m.record("PipelineStatuses")
	if m.PipelineStatusesFunc != nil {
		return m.PipelineStatusesFunc(ctx, pipelineID)
	}
	return map[int64]string{}, nil
}

// LeadsByPipeline implements the API interface.
func (m *MockClient) LeadsByPipeline(ctx context.Context, pipelineID int64) ([]Lead, error) {
	m.record("LeadsByPipeline")
	if m.LeadsByPipelineFunc != nil {
		return m.LeadsByPipelineFunc(ctx, pipelineID)
	}
	return nil, nil
}

// ContactsByIDs implements the API interface.
func (m *MockClient) ContactsByIDs(ctx context.Context, ids []int64) (map[int64]ContactDetails, error) {
	m.record("ContactsByIDs")
	m.mu.Lock()
	m.ContactLookups = append(m.ContactLookups, ids)
	m.mu.Unlock()

	if m.ContactsByIDsFunc != nil {
		return m.ContactsByIDsFunc(ctx, ids)
	}
	return map[int64]ContactDetails{}, nil
}

// CallCount returns how many recorded calls match name.
func (m *MockClient) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, call := range m.Calls {
		if call == name {
			count++
		}
	}
	return count
}

func (m *MockClient) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
}
