package model

import (
	"time"
)

// RawLead is a source-native record: an arbitrary field map tagged with the
// adapter that produced it. Immutable once fetched; discarded after
// normalization unless audit retention is configured.
type RawLead struct {
	SourceAdapterID string         `json:"source_adapter_id"`
	Fields          map[string]any `json:"fields"`
	FetchedAt       time.Time      `json:"fetched_at"`
}

// NormalizedLead is the canonical lead shape every downstream component
// operates on. Optional fields are empty strings when the source had no
// mapping for them, never defaulted.
type NormalizedLead struct {
	ID              string `json:"id"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	LinkedInURL     string `json:"linkedin_url,omitempty"`
	CompanyName     string `json:"company_name,omitempty"`
	CompanyDomain   string `json:"company_domain,omitempty"`
	Website         string `json:"website,omitempty"`
	FullName        string `json:"full_name,omitempty"`
	Title           string `json:"title,omitempty"`
	Industry        string `json:"industry,omitempty"`
	Country         string `json:"country,omitempty"`
	SourceAdapterID string `json:"source_adapter_id"`

	// RawRef is a weak back-reference to the originating raw record for
	// traceability (audit log key), never an ownership relation.
	RawRef string `json:"raw_ref,omitempty"`

	// CampaignID and CampaignAt are set only when the lead was hydrated
	// from the campaign archive. A zero CampaignAt marks a new-batch lead.
	CampaignID string    `json:"campaign_id,omitempty"`
	CampaignAt time.Time `json:"campaign_at,omitempty"`
}

// Identifiable reports whether the lead carries at least one usable match
// key: email, LinkedIn URL, or company domain plus full name. Leads failing
// this are routed to the unidentifiable bucket, never silently dropped.
func (l NormalizedLead) Identifiable() bool {
	if l.Email != "" || l.LinkedInURL != "" {
		return true
	}
	return l.CompanyDomain != "" && l.FullName != ""
}

// FieldCount returns the number of populated canonical fields. Used by the
// dedup engine to elect the richest lead as class representative.
func (l NormalizedLead) FieldCount() int {
	n := 0
	for _, v := range []string{
		l.Email, l.Phone, l.LinkedInURL, l.CompanyName, l.CompanyDomain,
		l.Website, l.FullName, l.Title, l.Industry, l.Country,
	} {
		if v != "" {
			n++
		}
	}
	return n
}

// FromHistory reports whether the lead was hydrated from a prior campaign.
func (l NormalizedLead) FromHistory() bool {
	return !l.CampaignAt.IsZero()
}

// Campaign is one committed archive entry. Append-only: dedup reads prior
// campaigns and writes a new one, never edits one in place.
type Campaign struct {
	ClientID   string           `json:"client_id"`
	CampaignID string           `json:"campaign_id"`
	CreatedAt  time.Time        `json:"created_at"`
	LeadCount  int              `json:"lead_count"`
	Leads      []NormalizedLead `json:"leads"`
}

// CampaignMeta carries operator-supplied metadata for a commit.
type CampaignMeta struct {
	Label  string `json:"label,omitempty"`
	Source string `json:"source,omitempty"`
}
