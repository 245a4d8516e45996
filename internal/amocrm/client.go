// Package amocrm implements the CRM side of the bridge: contact resolution,
// deal creation, and the paginated pipeline reads consumed by the pull
// reconciler. Every request goes through a shared resilient executor.
package amocrm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ospect/amosheets/internal/model"
)

const (
	defaultPageLimit   = 50
	defaultIDChunkSize = 50
)

// Config holds the settings for one CRM account.
type Config struct {
	BaseURL string
	Token   string

	// PipelineID and StatusID are where newly pushed deals land. They are
	// fixed per deployment, never chosen at runtime.
	PipelineID int64
	StatusID   int64

	// PageLimit is leads per page; IDChunkSize is contact ids per batched
	// fetch. Zero means the defaults.
	PageLimit   int
	IDChunkSize int
}

// Client talks to the amoCRM v4 API.
type Client struct {
	cfg    Config
	exec   *executor
	logger *slog.Logger
}

// NewClient builds a CRM client. A nil httpClient gets a sane default with
// a per-request timeout.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = defaultPageLimit
	}
	if cfg.IDChunkSize <= 0 {
		cfg.IDChunkSize = defaultIDChunkSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		exec:   newExecutor(cfg.Token, httpClient),
		logger: logger,
	}
}

// FindContact looks a contact up by free-text query and returns the first
// match, or 0 when nothing matches. A query without "@" is treated as a
// phone number and normalized before searching; an empty query never hits
// the API.
func (c *Client) FindContact(ctx context.Context, query string) (int64, error) {
	if query == "" {
		return 0, nil
	}
	if !strings.Contains(query, "@") {
		query = model.NormalizePhone(query)
	}

	params := url.Values{}
	params.Set("query", query)
	resp, err := c.exec.do(ctx, http.MethodGet, c.cfg.BaseURL+"/api/v4/contacts", params, nil)
	if err != nil {
		return 0, fmt.Errorf("find contact: %w", err)
	}
	// The API answers an empty search with 204 and no body.
	if resp.Status != http.StatusOK {
		return 0, nil
	}

	var env contactsEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return 0, fmt.Errorf("find contact: decode response: %w", err)
	}
	if len(env.Embedded.Contacts) == 0 {
		return 0, nil
	}
	return env.Embedded.Contacts[0].ID, nil
}

// CreateContact creates a contact carrying whichever of phone and email are
// present. The phone is normalized before it is stored so later lookups by
// normalized phone can find it.
func (c *Client) CreateContact(ctx context.Context, name, phone, email string) (int64, error) {
	var fields []wireCustomField
	if digits := model.NormalizePhone(phone); digits != "" {
		fields = append(fields, customField(fieldCodePhone, digits))
	}
	if email != "" {
		fields = append(fields, customField(fieldCodeEmail, email))
	}

	payload := []newContact{{Name: name, CustomFieldsValues: fields}}
	resp, err := c.exec.do(ctx, http.MethodPost, c.cfg.BaseURL+"/api/v4/contacts", nil, payload)
	if err != nil {
		return 0, fmt.Errorf("create contact: %w", err)
	}
	if !accepted(resp.Status) {
		return 0, fmt.Errorf("create contact: %w", &StatusError{Status: resp.Status, Body: string(resp.Body)})
	}

	var env contactsEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return 0, fmt.Errorf("create contact: decode response: %w", err)
	}
	if len(env.Embedded.Contacts) == 0 {
		return 0, fmt.Errorf("create contact: response carries no contact")
	}

	id := env.Embedded.Contacts[0].ID
	c.logger.Debug("created contact", "contact_id", id, "name", name)
	return id, nil
}

// CreateLead creates a deal on the configured pipeline and status, priced
// and linked to one contact, and returns its id.
func (c *Client) CreateLead(ctx context.Context, price, contactID int64) (int64, error) {
	payload := []newLead{{
		Price:      price,
		StatusID:   c.cfg.StatusID,
		PipelineID: c.cfg.PipelineID,
		Embedded:   leadEmbedded{Contacts: []contactRef{{ID: contactID}}},
	}}
	resp, err := c.exec.do(ctx, http.MethodPost, c.cfg.BaseURL+"/api/v4/leads", nil, payload)
	if err != nil {
		return 0, fmt.Errorf("create lead: %w", err)
	}
	if !accepted(resp.Status) {
		return 0, fmt.Errorf("create lead: %w", &StatusError{Status: resp.Status, Body: string(resp.Body)})
	}

	var env leadsEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return 0, fmt.Errorf("create lead: decode response: %w", err)
	}
	if len(env.Embedded.Leads) == 0 {
		return 0, fmt.Errorf("create lead: response carries no lead")
	}

	id := env.Embedded.Leads[0].ID
	c.logger.Debug("created lead", "lead_id", id, "contact_id", contactID, "price", price)
	return id, nil
}

// PipelineStatuses returns the stage names of one pipeline keyed by status
// id. The pull reconciler fetches this fresh every cycle so renamed stages
// show up immediately.
func (c *Client) PipelineStatuses(ctx context.Context, pipelineID int64) (map[int64]string, error) {
	endpoint := fmt.Sprintf("%s/api/v4/leads/pipelines/%d/statuses", c.cfg.BaseURL, pipelineID)
	resp, err := c.exec.do(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch pipeline statuses: %w", err)
	}
	if !accepted(resp.Status) {
		return nil, fmt.Errorf("fetch pipeline statuses: %w", &StatusError{Status: resp.Status, Body: string(resp.Body)})
	}

	var env statusesEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, fmt.Errorf("fetch pipeline statuses: decode response: %w", err)
	}

	statuses := make(map[int64]string, len(env.Embedded.Statuses))
	for _, s := range env.Embedded.Statuses {
		statuses[s.ID] = s.Name
	}
	return statuses, nil
}

// LeadsByPipeline fetches every deal in one pipeline, walking pages until
// the API stops advertising a next page or sends an empty one.
func (c *Client) LeadsByPipeline(ctx context.Context, pipelineID int64) ([]Lead, error) {
	var leads []Lead
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("filter[pipeline_id]", strconv.FormatInt(pipelineID, 10))
		params.Set("with", "contacts")
		params.Set("page", strconv.Itoa(page))
		params.Set("limit", strconv.Itoa(c.cfg.PageLimit))

		resp, err := c.exec.do(ctx, http.MethodGet, c.cfg.BaseURL+"/api/v4/leads", params, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch leads page %d: %w", page, err)
		}
		if resp.Status == http.StatusNoContent {
			break
		}
		if !accepted(resp.Status) {
			return nil, fmt.Errorf("fetch leads page %d: %w", page, &StatusError{Status: resp.Status, Body: string(resp.Body)})
		}

		var env leadsEnvelope
		if err := json.Unmarshal(resp.Body, &env); err != nil {
			return nil, fmt.Errorf("fetch leads page %d: decode response: %w", page, err)
		}
		if len(env.Embedded.Leads) == 0 {
			break
		}

		for _, wl := range env.Embedded.Leads {
			lead := Lead{ID: wl.ID, Price: wl.Price, StatusID: wl.StatusID}
			for _, ref := range wl.Embedded.Contacts {
				lead.ContactIDs = append(lead.ContactIDs, ref.ID)
			}
			leads = append(leads, lead)
		}

		if env.Links.Next.Href == "" {
			break
		}
	}

	c.logger.Debug("fetched pipeline leads", "pipeline_id", pipelineID, "count", len(leads))
	return leads, nil
}

// ContactsByIDs fetches contact details for a set of ids in bounded chunks
// and returns them keyed by id. Ids the CRM does not know are simply absent
// from the result.
func (c *Client) ContactsByIDs(ctx context.Context, ids []int64) (map[int64]ContactDetails, error) {
	details := make(map[int64]ContactDetails, len(ids))
	for start := 0; start < len(ids); start += c.cfg.IDChunkSize {
		end := start + c.cfg.IDChunkSize
		if end > len(ids) {
			end = len(ids)
		}

		params := url.Values{}
		for _, id := range ids[start:end] {
			params.Add("ids[]", strconv.FormatInt(id, 10))
		}

		resp, err := c.exec.do(ctx, http.MethodGet, c.cfg.BaseURL+"/api/v4/contacts", params, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch contacts: %w", err)
		}
		if resp.Status == http.StatusNoContent {
			continue
		}
		if !accepted(resp.Status) {
			return nil, fmt.Errorf("fetch contacts: %w", &StatusError{Status: resp.Status, Body: string(resp.Body)})
		}

		var env contactsEnvelope
		if err := json.Unmarshal(resp.Body, &env); err != nil {
			return nil, fmt.Errorf("fetch contacts: decode response: %w", err)
		}

		for _, wc := range env.Embedded.Contacts {
			details[wc.ID] = contactDetails(wc)
		}
	}
	return details, nil
}

func contactDetails(wc wireContact) ContactDetails {
	det := ContactDetails{Name: wc.Name}
	for _, cf := range wc.CustomFieldsValues {
		if len(cf.Values) == 0 {
			continue
		}
		switch cf.FieldCode {
		case fieldCodePhone:
			det.Phone = model.NormalizePhone(cf.Values[0].Value)
		case fieldCodeEmail:
			det.Email = cf.Values[0].Value
		}
	}
	return det
}

func customField(code, value string) wireCustomField {
	return wireCustomField{
		FieldCode: code,
		Values:    []wireFieldValue{{Value: value}},
	}
}

func accepted(status int) bool {
	return status >= 200 && status <= 299
}
