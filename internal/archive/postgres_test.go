package archive

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresMigrate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS campaigns").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListCampaigns(t *testing.T) {
	store, mock := newMockStore(t)

	leads := []model.NormalizedLead{{ID: "l1", Email: "a@acme.lv"}}
	leadsJSON, err := json.Marshal(leads)
	require.NoError(t, err)

	created := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"campaign_id", "client_id", "lead_count", "leads", "created_at"}).
		AddRow("camp-1", "acme", 1, leadsJSON, created)

	mock.ExpectQuery("SELECT campaign_id, client_id, lead_count, leads, created_at").
		WithArgs("acme").
		WillReturnRows(rows)

	campaigns, err := store.ListCampaigns(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "camp-1", campaigns[0].CampaignID)
	assert.Equal(t, created, campaigns[0].CreatedAt)
	require.Len(t, campaigns[0].Leads, 1)
	assert.Equal(t, "a@acme.lv", campaigns[0].Leads[0].Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCommitCampaignTransactional(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO campaigns").
		WithArgs(pgxmock.AnyArg(), "acme", "spring", "acquire", 1, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback() // deferred rollback after commit is a no-op

	leads := []model.NormalizedLead{{ID: "l1", Email: "a@acme.lv"}}
	campaign, err := store.CommitCampaign(context.Background(), "acme", leads,
		model.CampaignMeta{Label: "spring", Source: "acquire"})
	require.NoError(t, err)
	assert.NotEmpty(t, campaign.CampaignID)
	assert.Equal(t, 1, campaign.LeadCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCommitCampaignEmptyRefused(t *testing.T) {
	store, mock := newMockStore(t)

	_, err := store.CommitCampaign(context.Background(), "acme", nil, model.CampaignMeta{})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(), "no SQL runs for an empty batch")
}

func TestPostgresCommitCampaignInsertFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO campaigns").
		WithArgs(pgxmock.AnyArg(), "acme", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := store.CommitCampaign(context.Background(), "acme",
		[]model.NormalizedLead{{ID: "l1"}}, model.CampaignMeta{})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveRun(t *testing.T) {
	store, mock := newMockStore(t)

	report := &model.RunReport{RunID: "run-1", ClientID: "acme", State: model.RunDone}

	mock.ExpectExec("INSERT INTO runs").
		WithArgs("run-1", "acme", string(model.RunDone), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.SaveRun(context.Background(), report))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRun(t *testing.T) {
	store, mock := newMockStore(t)

	report := model.RunReport{RunID: "run-1", ClientID: "acme", State: model.RunDone, Final: 42}
	reportJSON, err := json.Marshal(report)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT report FROM runs").
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"report"}).AddRow(reportJSON))

	got, err := store.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 42, got.Final)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListRuns(t *testing.T) {
	store, mock := newMockStore(t)

	r1, _ := json.Marshal(model.RunReport{RunID: "r1", State: model.RunDone})
	r2, _ := json.Marshal(model.RunReport{RunID: "r2", State: model.RunAborted})

	mock.ExpectQuery("SELECT report FROM runs").
		WithArgs("acme", 10).
		WillReturnRows(pgxmock.NewRows([]string{"report"}).AddRow(r1).AddRow(r2))

	runs, err := store.ListRuns(context.Background(), "acme", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r1", runs[0].RunID)
	assert.Equal(t, model.RunAborted, runs[1].State)

	assert.NoError(t, mock.ExpectationsWereMet())
}
