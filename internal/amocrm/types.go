package amocrm

// Lead is one pipeline deal as the CRM reports it, with linked contact ids
// in API order.
type Lead struct {
	ID         int64
	Price      int64
	StatusID   int64
	ContactIDs []int64
}

// ContactDetails carries the contact fields mirrored into the sheet.
// Phone is already normalized.
type ContactDetails struct {
	Name  string
	Phone string
	Email string
}

// Custom field codes used on contacts.
const (
	fieldCodePhone = "PHONE"
	fieldCodeEmail = "EMAIL"
)

// Wire envelopes. The CRM wraps collections in an _embedded object and
// exposes cursorless pagination through _links.next.

type contactsEnvelope struct {
	Embedded struct {
		Contacts []wireContact `json:"contacts"`
	} `json:"_embedded"`
}

type wireContact struct {
	ID                 int64             `json:"id"`
	Name               string            `json:"name"`
	CustomFieldsValues []wireCustomField `json:"custom_fields_values"`
}

type wireCustomField struct {
	FieldCode string          `json:"field_code"`
	Values    []wireFieldValue `json:"values"`
}

type wireFieldValue struct {
	Value string `json:"value"`
}

type leadsEnvelope struct {
	Embedded struct {
		Leads []wireLead `json:"leads"`
	} `json:"_embedded"`
	Links struct {
		Next struct {
			Href string `json:"href"`
		} `json:"next"`
	} `json:"_links"`
}

type wireLead struct {
	ID       int64 `json:"id"`
	Price    int64 `json:"price"`
	StatusID int64 `json:"status_id"`
	Embedded struct {
		Contacts []contactRef `json:"contacts"`
	} `json:"_embedded"`
}

type statusesEnvelope struct {
	Embedded struct {
		Statuses []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"statuses"`
	} `json:"_embedded"`
}

// Creation payloads. The v4 API takes arrays even for single entities.

type newContact struct {
	Name               string            `json:"name"`
	CustomFieldsValues []wireCustomField `json:"custom_fields_values,omitempty"`
}

type newLead struct {
	Price      int64        `json:"price"`
	StatusID   int64        `json:"status_id"`
	PipelineID int64        `json:"pipeline_id"`
	Embedded   leadEmbedded `json:"_embedded"`
}

type leadEmbedded struct {
	Contacts []contactRef `json:"contacts"`
}

type contactRef struct {
	ID int64 `json:"id"`
}
