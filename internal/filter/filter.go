// Package filter applies an operator-chosen, ordered sequence of named
// predicates to a lead set and records the funnel. Filters run strictly in
// the supplied order; nothing is ever applied implicitly.
package filter

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
)

// Known filter names.
const (
	RequireEmail           = "require_email"
	RequireCountry         = "require_country"
	RemovePhoneDiscrepancy = "remove_phone_discrepancy"
	ExcludeTitlesByTier    = "exclude_titles_by_seniority_tier"
	IncludeIndustries      = "include_industries"
	ExcludeIndustries      = "exclude_industries"
	RequireWebsite         = "require_website"
	RemoveForeignTLD       = "remove_foreign_tld"
)

// Spec names one filter plus its parameters. Malformed specs are
// programmer/operator errors and fail Build; data-quality issues never do.
type Spec struct {
	Name   string   `yaml:"name" json:"name"`
	Values []string `yaml:"values,omitempty" json:"values,omitempty"`
}

// Predicate reports whether a lead is kept.
type Predicate func(model.NormalizedLead) bool

// Build validates an ordered spec list and compiles it into predicates.
func Build(specs []Spec) ([]Predicate, error) {
	includeSeen, excludeSeen := false, false
	preds := make([]Predicate, 0, len(specs))

	for _, s := range specs {
		switch s.Name {
		case RequireEmail:
			preds = append(preds, keepValidEmail)
		case RequireWebsite:
			preds = append(preds, func(l model.NormalizedLead) bool {
				return l.Website != "" || l.CompanyDomain != ""
			})
		case RequireCountry:
			if len(s.Values) != 1 || s.Values[0] == "" {
				return nil, eris.Errorf("filter: %s requires exactly one country value", RequireCountry)
			}
			want := s.Values[0]
			preds = append(preds, func(l model.NormalizedLead) bool {
				return strings.EqualFold(InferCountry(l), want)
			})
		case RemovePhoneDiscrepancy:
			preds = append(preds, keepPhoneConsistent)
		case ExcludeTitlesByTier:
			if len(s.Values) == 0 {
				return nil, eris.Errorf("filter: %s requires at least one tier", ExcludeTitlesByTier)
			}
			excluded := make(map[string]bool, len(s.Values))
			for _, t := range s.Values {
				tier := strings.ToLower(strings.TrimSpace(t))
				if !validSeniorityTier(tier) {
					return nil, eris.Errorf("filter: unknown seniority tier %q", t)
				}
				excluded[tier] = true
			}
			preds = append(preds, func(l model.NormalizedLead) bool {
				return !excluded[SeniorityTier(l.Title)]
			})
		case IncludeIndustries, ExcludeIndustries:
			if s.Name == IncludeIndustries {
				includeSeen = true
			} else {
				excludeSeen = true
			}
			if includeSeen && excludeSeen {
				return nil, eris.New("filter: include_industries and exclude_industries are mutually exclusive per run")
			}
			if len(s.Values) == 0 {
				return nil, eris.Errorf("filter: %s requires a non-empty industry list", s.Name)
			}
			set := make(map[string]bool, len(s.Values))
			for _, v := range s.Values {
				set[strings.ToLower(strings.TrimSpace(v))] = true
			}
			include := s.Name == IncludeIndustries
			preds = append(preds, func(l model.NormalizedLead) bool {
				in := set[strings.ToLower(l.Industry)]
				if include {
					return in
				}
				return !in
			})
		case RemoveForeignTLD:
			if len(s.Values) != 1 || s.Values[0] == "" {
				return nil, eris.Errorf("filter: %s requires exactly one expected country", RemoveForeignTLD)
			}
			preds = append(preds, keepDomesticTLD(s.Values[0]))
		default:
			return nil, eris.Errorf("filter: unknown filter %q", s.Name)
		}
	}

	return preds, nil
}

// Apply runs the compiled plan over leads, recording per-stage counts
// before the next stage runs. The returned report is immutable; removed
// leads carry the filter name as their reason.
func Apply(leads []model.NormalizedLead, specs []Spec) (*model.FilterReport, error) {
	preds, err := Build(specs)
	if err != nil {
		return nil, err
	}

	report := &model.FilterReport{}
	current := make([]model.NormalizedLead, len(leads))
	copy(current, leads)

	for i, pred := range preds {
		stage := model.FilterStage{
			FilterName:  specs[i].Name,
			CountBefore: len(current),
		}
		next := current[:0:0]
		for _, l := range current {
			if pred(l) {
				next = append(next, l)
				continue
			}
			report.Removed = append(report.Removed, model.Removal{Lead: l, Reason: specs[i].Name})
		}
		stage.CountRemoved = len(current) - len(next)
		report.Stages = append(report.Stages, stage)
		current = next
	}

	report.Kept = current
	report.FinalLen = len(current)
	return report, nil
}

// WouldRemove counts the leads one spec would drop if applied now, in
// isolation. The quality analyzer uses this for independent per-filter
// impact so the operator can compare before choosing an order.
func WouldRemove(leads []model.NormalizedLead, spec Spec) (int, error) {
	preds, err := Build([]Spec{spec})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range leads {
		if !preds[0](l) {
			n++
		}
	}
	return n, nil
}
