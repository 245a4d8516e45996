// Package engine implements the two reconciliation passes that keep the
// lead-intake sheet and the CRM pipeline consistent: push creates deals for
// new sheet rows, pull mirrors the pipeline back into the sheet.
package engine

// CreatedLead identifies one deal created on the push path. Row is the
// 1-indexed sheet row that was linked to the deal.
type CreatedLead struct {
	Row       int   `json:"row"`
	LeadID    int64 `json:"lead_id"`
	ContactID int64 `json:"contact_id"`
}

// PushResult summarizes one push run.
type PushResult struct {
	Created     []CreatedLead `json:"created"`
	CheckedRows int           `json:"checked_rows"`
}

// PullResult summarizes one pull run.
type PullResult struct {
	Updated  int `json:"updated"`
	Inserted int `json:"inserted"`
	Fetched  int `json:"fetched"`
}
