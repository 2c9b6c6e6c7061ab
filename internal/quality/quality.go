// Package quality computes descriptive statistics over a lead set without
// mutating it. The report is the operator's evidence for choosing filters;
// nothing here ever removes a lead.
package quality

import (
	"sort"
	"strings"

	"github.com/kmicpaps/lead-gen-sub001/internal/filter"
	"github.com/kmicpaps/lead-gen-sub001/internal/model"
	"github.com/kmicpaps/lead-gen-sub001/internal/normalize"
)

// Context supplies expectations derived from the source query: the country
// the scrape targeted and the titles the campaign is after.
type Context struct {
	ExpectedCountry string
	TargetTitles    []string
	// CandidateFilters enumerates every filter the operator might apply;
	// the report counts each one's impact independently.
	CandidateFilters []filter.Spec
	// NativeFilters lists the predicates the primary adapter enforced at
	// fetch time, for the gap analysis section.
	NativeFilters []string
}

// EmailStats breaks down email coverage.
type EmailStats struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// PhoneStats breaks down phone coverage against the expected country.
type PhoneStats struct {
	Present         int `json:"present"`
	Absent          int `json:"absent"`
	MatchesExpected int `json:"matches_expected"`
	Foreign         int `json:"foreign"`
	UnknownCode     int `json:"unknown_code"`
}

// FilterImpact records what one candidate filter would remove if applied
// now, computed in isolation rather than cumulatively.
type FilterImpact struct {
	Spec        filter.Spec `json:"spec"`
	WouldRemove int         `json:"would_remove"`
	// Native marks filters the primary source already enforced at fetch
	// time; a non-zero WouldRemove on one of these points at backup-source
	// records.
	Native bool `json:"native"`
}

// Report is the full read-only quality report.
type Report struct {
	Total        int            `json:"total"`
	Email        EmailStats     `json:"email"`
	Phone        PhoneStats     `json:"phone"`
	TitleMatched int            `json:"title_matched"`
	Industries   map[string]int `json:"industries"`
	Impacts      []FilterImpact `json:"impacts"`
}

// Analyze computes the report. Pure: leads are read, never reordered or
// modified.
func Analyze(leads []model.NormalizedLead, ctx Context) (*Report, error) {
	r := &Report{
		Total:      len(leads),
		Industries: make(map[string]int),
	}

	native := make(map[string]bool, len(ctx.NativeFilters))
	for _, n := range ctx.NativeFilters {
		native[n] = true
	}

	for _, l := range leads {
		if l.Email == "" {
			r.Email.Absent++
		} else {
			r.Email.Present++
			if normalize.ValidEmail(l.Email) {
				r.Email.Valid++
			} else {
				r.Email.Invalid++
			}
		}

		if l.Phone == "" {
			r.Phone.Absent++
		} else {
			r.Phone.Present++
			switch pc := filter.PhoneCountry(l.Phone); {
			case pc == "":
				r.Phone.UnknownCode++
			case ctx.ExpectedCountry != "" && strings.EqualFold(pc, ctx.ExpectedCountry):
				r.Phone.MatchesExpected++
			case ctx.ExpectedCountry != "":
				r.Phone.Foreign++
			default:
				r.Phone.UnknownCode++
			}
		}

		if titleMatches(l.Title, ctx.TargetTitles) {
			r.TitleMatched++
		}

		if l.Industry != "" {
			r.Industries[strings.ToLower(l.Industry)]++
		}
	}

	for _, spec := range ctx.CandidateFilters {
		n, err := filter.WouldRemove(leads, spec)
		if err != nil {
			return nil, err
		}
		r.Impacts = append(r.Impacts, FilterImpact{
			Spec:        spec,
			WouldRemove: n,
			Native:      native[spec.Name],
		})
	}

	return r, nil
}

// TitleMatchRate returns the matched fraction, 0 for an empty set.
func (r *Report) TitleMatchRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.TitleMatched) / float64(r.Total)
}

// TopIndustries returns industries sorted by descending count, then name.
func (r *Report) TopIndustries(limit int) []string {
	names := make([]string, 0, len(r.Industries))
	for name := range r.Industries {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if r.Industries[names[i]] != r.Industries[names[j]] {
			return r.Industries[names[i]] > r.Industries[names[j]]
		}
		return names[i] < names[j]
	})
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names
}

func titleMatches(title string, targets []string) bool {
	if title == "" || len(targets) == 0 {
		return false
	}
	t := strings.ToLower(title)
	for _, target := range targets {
		if strings.Contains(t, strings.ToLower(strings.TrimSpace(target))) {
			return true
		}
	}
	return false
}
