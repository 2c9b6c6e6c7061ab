package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kmicpaps/lead-gen-sub001/internal/acquire"
	"github.com/kmicpaps/lead-gen-sub001/internal/dedup"
	"github.com/kmicpaps/lead-gen-sub001/internal/fingerprint"
	"github.com/kmicpaps/lead-gen-sub001/internal/model"
	"github.com/kmicpaps/lead-gen-sub001/internal/normalize"
	"github.com/kmicpaps/lead-gen-sub001/internal/source"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type stubStore struct {
	mu        sync.Mutex
	campaigns []model.Campaign
	runs      map[string]model.RunReport
}

func (s *stubStore) ListCampaigns(_ context.Context, clientID string) ([]model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Campaign
	for _, c := range s.campaigns {
		if c.ClientID == clientID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubStore) CommitCampaign(_ context.Context, clientID string, leads []model.NormalizedLead, _ model.CampaignMeta) (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := model.Campaign{ClientID: clientID, CampaignID: "camp-new", LeadCount: len(leads), Leads: leads}
	s.campaigns = append(s.campaigns, c)
	return &c, nil
}

func (s *stubStore) SaveRun(_ context.Context, report *model.RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runs == nil {
		s.runs = make(map[string]model.RunReport)
	}
	s.runs[report.RunID] = *report
	return nil
}

func (s *stubStore) GetRun(_ context.Context, runID string) (*model.RunReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.runs[runID]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *stubStore) ListRuns(_ context.Context, clientID string, _ int) ([]model.RunReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.RunReport
	for _, r := range s.runs {
		if r.ClientID == clientID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubStore) Migrate(context.Context) error { return nil }
func (s *stubStore) Close() error                  { return nil }

type stubSource struct{}

func (stubSource) ID() string { return "stub" }

func (stubSource) Fetch(_ context.Context, _ source.Query, maxResults int) ([]model.RawLead, error) {
	leads := make([]model.RawLead, 0, maxResults)
	for i := 0; i < maxResults; i++ {
		leads = append(leads, model.RawLead{
			SourceAdapterID: "stub",
			Fields:          map[string]any{"name": "Person", "email": "p@corp.lv"},
		})
	}
	return leads, nil
}

func (stubSource) Mapping() normalize.Mapping {
	return normalize.Mapping{
		AdapterID: "stub",
		Fields:    map[string]string{"name": normalize.FieldFullName, "email": normalize.FieldEmail},
	}
}

func (stubSource) NativeFilters() []string { return nil }

func testServer(t *testing.T, store *stubStore) http.Handler {
	t.Helper()
	reg := source.NewRegistry()
	require.NoError(t, reg.Register(stubSource{}))
	orch := acquire.New(acquire.Config{Primary: "stub"}, reg, store, dedup.New(fingerprint.DefaultConfig()))
	return New(orch, store).Router()
}

func TestHealthEndpoint(t *testing.T) {
	h := testServer(t, &stubStore{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestStartRunValidation(t *testing.T) {
	h := testServer(t, &stubStore{})

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{brok"},
		{"missing client", `{"target": 100}`},
		{"zero target", `{"client_id": "acme"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestStartRunAccepted(t *testing.T) {
	store := &stubStore{}
	h := testServer(t, store)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs",
		strings.NewReader(`{"client_id": "acme", "target": 3}`)))

	assert.Equal(t, http.StatusAccepted, rec.Code)

	// The 202 body carries the run id so the client can poll it.
	var accepted struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.RunID)

	// The run completes asynchronously under that id.
	require.Eventually(t, func() bool {
		report, err := store.GetRun(context.Background(), accepted.RunID)
		if err != nil || report == nil {
			return false
		}
		return report.State == model.RunDone
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetRun(t *testing.T) {
	store := &stubStore{runs: map[string]model.RunReport{
		"run-1": {RunID: "run-1", ClientID: "acme", State: model.RunDone, Final: 7},
	}}
	h := testServer(t, store)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/run-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 7, got.Final)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCampaignsSummary(t *testing.T) {
	store := &stubStore{campaigns: []model.Campaign{
		{
			ClientID:   "acme",
			CampaignID: "camp-1",
			CreatedAt:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			LeadCount:  12,
			Leads:      []model.NormalizedLead{{ID: "l1"}},
		},
	}}
	h := testServer(t, store)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/campaigns?client=acme", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "camp-1", got[0]["campaign_id"])
	assert.EqualValues(t, 12, got[0]["lead_count"])
	assert.NotContains(t, rec.Body.String(), `"l1"`, "lead snapshots are not exposed")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/campaigns", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "client parameter is required")
}
