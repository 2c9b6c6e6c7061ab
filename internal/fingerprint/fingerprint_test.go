package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
)

func TestComputeTierOrder(t *testing.T) {
	lead := model.NormalizedLead{
		Email:         "jane@acme.lv",
		LinkedInURL:   "linkedin.com/in/jane",
		FullName:      "Jane Doe",
		CompanyDomain: "acme.lv",
	}

	keys := Compute(lead, DefaultConfig())
	require.Len(t, keys, 3)
	assert.Equal(t, Key{Tier: TierEmail, Value: "jane@acme.lv"}, keys[0])
	assert.Equal(t, Key{Tier: TierLinkedIn, Value: "linkedin.com/in/jane"}, keys[1])
	assert.Equal(t, Key{Tier: TierNameDom, Value: "acme.lv|jane doe"}, keys[2])
}

func TestComputePartialKeys(t *testing.T) {
	tests := []struct {
		name string
		lead model.NormalizedLead
		want int
	}{
		{"email only", model.NormalizedLead{Email: "a@b.lv"}, 1},
		{"linkedin only", model.NormalizedLead{LinkedInURL: "linkedin.com/in/x"}, 1},
		{"name without domain yields nothing", model.NormalizedLead{FullName: "Jane Doe"}, 0},
		{"domain without name yields nothing", model.NormalizedLead{CompanyDomain: "acme.lv"}, 0},
		{"no fields", model.NormalizedLead{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Compute(tt.lead, DefaultConfig()), tt.want)
		})
	}
}

func TestComputeDiacriticFolding(t *testing.T) {
	accented := model.NormalizedLead{FullName: "Jānis Bērziņš", CompanyDomain: "acme.lv"}
	plain := model.NormalizedLead{FullName: "janis berzins", CompanyDomain: "acme.lv"}

	a := Compute(accented, DefaultConfig())
	b := Compute(plain, DefaultConfig())
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0], b[0])

	// With stripping disabled the two leads key differently.
	off := Config{StripDiacritics: false}
	assert.NotEqual(t, Compute(accented, off)[0], Compute(plain, off)[0])
}

func TestComputeCollapseInitials(t *testing.T) {
	withInitial := model.NormalizedLead{FullName: "John Q Public", CompanyDomain: "acme.lv"}
	without := model.NormalizedLead{FullName: "John Public", CompanyDomain: "acme.lv"}

	strict := DefaultConfig()
	assert.NotEqual(t, Compute(withInitial, strict)[0], Compute(without, strict)[0])

	loose := Config{StripDiacritics: true, CollapseInitials: true}
	assert.Equal(t, Compute(withInitial, loose)[0], Compute(without, loose)[0])
}
