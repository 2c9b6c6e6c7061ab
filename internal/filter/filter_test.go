package filter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
)

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name    string
		specs   []Spec
		wantErr string
	}{
		{
			name:    "unknown filter",
			specs:   []Spec{{Name: "no_such_filter"}},
			wantErr: "unknown filter",
		},
		{
			name:    "require_country needs one value",
			specs:   []Spec{{Name: RequireCountry}},
			wantErr: "exactly one country",
		},
		{
			name: "include and exclude industries are mutually exclusive",
			specs: []Spec{
				{Name: IncludeIndustries, Values: []string{"logistics"}},
				{Name: ExcludeIndustries, Values: []string{"retail"}},
			},
			wantErr: "mutually exclusive",
		},
		{
			name:    "unknown seniority tier",
			specs:   []Spec{{Name: ExcludeTitlesByTier, Values: []string{"archduke"}}},
			wantErr: "unknown seniority tier",
		},
		{
			name:    "exclude titles needs tiers",
			specs:   []Spec{{Name: ExcludeTitlesByTier}},
			wantErr: "at least one tier",
		},
		{
			name:    "remove_foreign_tld needs a country",
			specs:   []Spec{{Name: RemoveForeignTLD}},
			wantErr: "exactly one expected country",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.specs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildValid(t *testing.T) {
	preds, err := Build([]Spec{
		{Name: RequireEmail},
		{Name: RequireCountry, Values: []string{"Latvia"}},
		{Name: RemovePhoneDiscrepancy},
		{Name: ExcludeTitlesByTier, Values: []string{TierIndividual, TierUnknown}},
		{Name: IncludeIndustries, Values: []string{"Logistics"}},
		{Name: RequireWebsite},
		{Name: RemoveForeignTLD, Values: []string{"Latvia"}},
	})
	require.NoError(t, err)
	assert.Len(t, preds, 7)
}

func TestApplyOrderedFunnel(t *testing.T) {
	// 500 leads: 50 without a valid email, then 100 of the remainder
	// outside Latvia. Applied in order the funnel reads 500 -> 450 -> 350.
	var leads []model.NormalizedLead
	for i := 0; i < 500; i++ {
		l := model.NormalizedLead{
			ID:      fmt.Sprintf("lead-%03d", i),
			Email:   fmt.Sprintf("p%d@corp.lv", i),
			Country: "Latvia",
		}
		if i < 50 {
			l.Email = ""
		} else if i < 150 {
			l.Country = "Estonia"
		}
		leads = append(leads, l)
	}

	report, err := Apply(leads, []Spec{
		{Name: RequireEmail},
		{Name: RequireCountry, Values: []string{"Latvia"}},
	})
	require.NoError(t, err)

	require.Len(t, report.Stages, 2)
	assert.Equal(t, RequireEmail, report.Stages[0].FilterName)
	assert.Equal(t, 500, report.Stages[0].CountBefore)
	assert.Equal(t, 50, report.Stages[0].CountRemoved)
	assert.Equal(t, RequireCountry, report.Stages[1].FilterName)
	assert.Equal(t, 450, report.Stages[1].CountBefore)
	assert.Equal(t, 100, report.Stages[1].CountRemoved)
	assert.Equal(t, 350, report.FinalLen)
	assert.Len(t, report.Kept, 350)
	assert.Len(t, report.Removed, 150)
}

func TestApplyFunnelIsMonotone(t *testing.T) {
	var leads []model.NormalizedLead
	for i := 0; i < 60; i++ {
		leads = append(leads, model.NormalizedLead{
			ID:       fmt.Sprintf("l%d", i),
			Email:    fmt.Sprintf("x%d@acme.com", i%20),
			Country:  []string{"Latvia", "Estonia", ""}[i%3],
			Phone:    []string{"+37120000000", "", "+37251234567"}[i%3],
			Industry: []string{"Logistics", "Retail"}[i%2],
		})
	}

	report, err := Apply(leads, []Spec{
		{Name: RequireEmail},
		{Name: RemovePhoneDiscrepancy},
		{Name: RequireCountry, Values: []string{"Latvia"}},
		{Name: ExcludeIndustries, Values: []string{"Retail"}},
	})
	require.NoError(t, err)

	prev := len(leads)
	for _, stage := range report.Stages {
		assert.Equal(t, prev, stage.CountBefore)
		assert.GreaterOrEqual(t, stage.CountRemoved, 0)
		prev = stage.CountBefore - stage.CountRemoved
	}
	assert.Equal(t, prev, report.FinalLen)
}

func TestApplyRemovalsCarryFilterName(t *testing.T) {
	leads := []model.NormalizedLead{
		{ID: "a", Email: "a@x.com", Country: "Latvia"},
		{ID: "b", Country: "Latvia"},
	}

	report, err := Apply(leads, []Spec{{Name: RequireEmail}})
	require.NoError(t, err)
	require.Len(t, report.Removed, 1)
	assert.Equal(t, "b", report.Removed[0].Lead.ID)
	assert.Equal(t, RequireEmail, report.Removed[0].Reason)
}

func TestApplyEmptyPlanKeepsAll(t *testing.T) {
	leads := []model.NormalizedLead{{ID: "a"}, {ID: "b"}}
	report, err := Apply(leads, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.FinalLen)
	assert.Empty(t, report.Stages)
}

func TestWouldRemoveIsolated(t *testing.T) {
	leads := []model.NormalizedLead{
		{ID: "a", Email: "a@x.com"},
		{ID: "b"},
		{ID: "c", Email: "not-an-email"},
	}

	n, err := WouldRemove(leads, Spec{Name: RequireEmail})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// The source slice is untouched.
	assert.Len(t, leads, 3)
}

func TestPhoneCountry(t *testing.T) {
	tests := []struct {
		phone string
		want  string
	}{
		{"+37120000000", "Latvia"},
		{"+37251234567", "Estonia"},
		{"+4915112345678", "Germany"},
		{"+12125551234", "United States"},
		{"37120000000", ""}, // no + prefix
		{"+999123", ""},     // unknown code
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, PhoneCountry(tt.phone))
		})
	}
}

func TestRemovePhoneDiscrepancy(t *testing.T) {
	leads := []model.NormalizedLead{
		{ID: "match", Email: "m@x.com", Phone: "+37120000000", Country: "Latvia"},
		{ID: "mismatch", Email: "m2@x.com", Phone: "+37251234567", Country: "Latvia"},
		{ID: "no-phone", Email: "m3@x.com", Country: "Latvia"},
		{ID: "no-country", Email: "m4@x.com", Phone: "+37120000000"},
	}

	report, err := Apply(leads, []Spec{{Name: RemovePhoneDiscrepancy}})
	require.NoError(t, err)
	require.Len(t, report.Removed, 1)
	assert.Equal(t, "mismatch", report.Removed[0].Lead.ID)
}

func TestRemoveForeignTLD(t *testing.T) {
	leads := []model.NormalizedLead{
		{ID: "domestic", CompanyDomain: "acme.lv"},
		{ID: "generic", CompanyDomain: "acme.com"},
		{ID: "foreign", CompanyDomain: "acme.ee"},
		{ID: "no-domain"},
	}

	report, err := Apply(leads, []Spec{{Name: RemoveForeignTLD, Values: []string{"Latvia"}}})
	require.NoError(t, err)
	require.Len(t, report.Removed, 1)
	assert.Equal(t, "foreign", report.Removed[0].Lead.ID)
}

func TestSeniorityTier(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Owner & CEO", TierOwner},
		{"Founder", TierOwner},
		{"Chief Executive Officer", TierCSuite},
		{"CEO", TierCSuite},
		{"VP of Sales", TierVP},
		{"Senior Vice President", TierVP},
		{"Director of Operations", TierDirector},
		{"Head of Marketing", TierDirector},
		{"Sales Manager", TierManager},
		{"Software Developer", TierIndividual},
		{"Accountant", TierIndividual},
		{"", TierUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, SeniorityTier(tt.title))
		})
	}
}

// "vp" must match only as a standalone word, never inside another word.
func TestSeniorityTierWordBoundary(t *testing.T) {
	assert.Equal(t, TierIndividual, SeniorityTier("Developer"))
	assert.Equal(t, TierVP, SeniorityTier("VP, Engineering"))
}

func TestExcludeTitlesByTier(t *testing.T) {
	leads := []model.NormalizedLead{
		{ID: "owner", Title: "Owner"},
		{ID: "dev", Title: "Developer"},
		{ID: "untitled"},
	}

	report, err := Apply(leads, []Spec{
		{Name: ExcludeTitlesByTier, Values: []string{TierIndividual, TierUnknown}},
	})
	require.NoError(t, err)
	require.Len(t, report.Kept, 1)
	assert.Equal(t, "owner", report.Kept[0].ID)
}
