// Package normalize maps source-native raw records into the canonical lead
// shape. Each source adapter registers a static field mapping plus per-field
// cleaning; normalization itself is a pure function over record + mapping.
package normalize

import (
	"github.com/rotisserie/eris"
)

// Canonical field keys a mapping may target.
const (
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldLinkedInURL   = "linkedin_url"
	FieldCompanyName   = "company_name"
	FieldCompanyDomain = "company_domain"
	FieldWebsite       = "website"
	FieldFullName      = "full_name"
	FieldTitle         = "title"
	FieldIndustry      = "industry"
	FieldCountry       = "country"
)

var canonicalFields = map[string]bool{
	FieldEmail:         true,
	FieldPhone:         true,
	FieldLinkedInURL:   true,
	FieldCompanyName:   true,
	FieldCompanyDomain: true,
	FieldWebsite:       true,
	FieldFullName:      true,
	FieldTitle:         true,
	FieldIndustry:      true,
	FieldCountry:       true,
}

// Mapping declares how one adapter's raw keys translate to canonical keys.
// Validated at adapter registration, not inferred at runtime.
type Mapping struct {
	AdapterID string
	// Fields maps source key -> canonical key.
	Fields map[string]string
	// Required lists source keys that must be present and non-empty in
	// every record. A record missing one is a schema mismatch: rejected
	// individually, counted, batch continues.
	Required []string
}

// Validate checks the mapping targets only canonical keys and that every
// required key is actually mapped.
func (m Mapping) Validate() error {
	if m.AdapterID == "" {
		return eris.New("normalize: mapping missing adapter id")
	}
	if len(m.Fields) == 0 {
		return eris.Errorf("normalize: mapping for %s has no fields", m.AdapterID)
	}
	for src, canon := range m.Fields {
		if !canonicalFields[canon] {
			return eris.Errorf("normalize: mapping %s: %q targets unknown canonical field %q", m.AdapterID, src, canon)
		}
	}
	for _, req := range m.Required {
		if _, ok := m.Fields[req]; !ok {
			return eris.Errorf("normalize: mapping %s: required key %q is not mapped", m.AdapterID, req)
		}
	}
	return nil
}
