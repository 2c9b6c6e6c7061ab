package normalize

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
)

// SchemaMismatchError marks a record missing a field its mapping declares
// required. The record is rejected individually; the batch continues.
type SchemaMismatchError struct {
	AdapterID string
	Key       string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("normalize: %s record missing required key %q", e.AdapterID, e.Key)
}

// Normalize maps one raw record through the adapter's mapping into the
// canonical shape. Pure over its inputs aside from the generated lead id.
// Fields absent from the mapping stay empty, never defaulted. The caller
// decides routing for unidentifiable results via lead.Identifiable().
func Normalize(raw model.RawLead, mapping Mapping) (model.NormalizedLead, error) {
	for _, req := range mapping.Required {
		if coerce(raw.Fields[req]) == "" {
			return model.NormalizedLead{}, &SchemaMismatchError{AdapterID: mapping.AdapterID, Key: req}
		}
	}

	lead := model.NormalizedLead{
		ID:              uuid.New().String(),
		SourceAdapterID: raw.SourceAdapterID,
	}

	for srcKey, canon := range mapping.Fields {
		v := coerce(raw.Fields[srcKey])
		if v == "" {
			continue
		}
		switch canon {
		case FieldEmail:
			lead.Email = CleanEmail(v)
		case FieldPhone:
			lead.Phone = CleanPhone(v)
		case FieldLinkedInURL:
			lead.LinkedInURL = CleanLinkedIn(v)
		case FieldCompanyName:
			lead.CompanyName = CollapseSpaces(v)
		case FieldCompanyDomain:
			lead.CompanyDomain = CleanDomain(v)
		case FieldWebsite:
			lead.Website = v
			if lead.CompanyDomain == "" {
				lead.CompanyDomain = CleanDomain(v)
			}
		case FieldFullName:
			lead.FullName = CollapseSpaces(v)
		case FieldTitle:
			lead.Title = CollapseSpaces(v)
		case FieldIndustry:
			lead.Industry = CollapseSpaces(v)
		case FieldCountry:
			lead.Country = CollapseSpaces(v)
		}
	}

	return lead, nil
}

// coerce flattens the arbitrary string/number/null values a duck-typed
// source emits into a trimmed string.
func coerce(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return CollapseSpaces(s)
}
