package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlan(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadPlan(t *testing.T) {
	path := writePlan(t, `
filters:
  - name: require_email
  - name: require_country
    values: ["Latvia", "Estonia"]
  - name: exclude_titles_by_seniority_tier
    values: ["individual"]
`)
	plan, err := LoadPlan(path)
	require.NoError(t, err)
	require.Len(t, plan.Filters, 3)
	assert.Equal(t, "require_country", plan.Filters[1].Name)
	assert.Equal(t, []string{"Latvia", "Estonia"}, plan.Filters[1].Values)
}

func TestLoadPlanErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPlan(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadPlan(writePlan(t, "filters: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("empty plan", func(t *testing.T) {
		_, err := LoadPlan(writePlan(t, "filters: []"))
		assert.ErrorContains(t, err, "names no filters")
	})

	t.Run("invalid spec rejected", func(t *testing.T) {
		_, err := LoadPlan(writePlan(t, "filters:\n  - name: require_country\n"))
		assert.Error(t, err)
	})
}
