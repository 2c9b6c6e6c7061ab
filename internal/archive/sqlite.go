package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. The default
// backend for single-operator use.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS campaigns (
	campaign_id TEXT PRIMARY KEY,
	client_id   TEXT NOT NULL,
	label       TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	lead_count  INTEGER NOT NULL,
	leads       TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	state      TEXT NOT NULL,
	report     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_campaigns_client ON campaigns(client_id, created_at);
CREATE INDEX IF NOT EXISTS idx_runs_client ON runs(client_id, created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListCampaigns(ctx context.Context, clientID string) ([]model.Campaign, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT campaign_id, client_id, lead_count, leads, created_at
		 FROM campaigns WHERE client_id = ? ORDER BY created_at ASC`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list campaigns %s", clientID)
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		var c model.Campaign
		var leadsJSON string
		if err := rows.Scan(&c.CampaignID, &c.ClientID, &c.LeadCount, &leadsJSON, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan campaign")
		}
		if err := json.Unmarshal([]byte(leadsJSON), &c.Leads); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal leads for %s", c.CampaignID)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, eris.Wrap(rows.Err(), "sqlite: iterate campaigns")
}

func (s *SQLiteStore) CommitCampaign(ctx context.Context, clientID string, leads []model.NormalizedLead, meta model.CampaignMeta) (*model.Campaign, error) {
	if len(leads) == 0 {
		return nil, eris.New("sqlite: refusing to commit empty campaign")
	}

	campaign := &model.Campaign{
		ClientID:   clientID,
		CampaignID: uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
		LeadCount:  len(leads),
		Leads:      leads,
	}

	leadsJSON, err := json.Marshal(leads)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal leads")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO campaigns (campaign_id, client_id, label, source, lead_count, leads, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		campaign.CampaignID, clientID, meta.Label, meta.Source, campaign.LeadCount, string(leadsJSON), campaign.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert campaign")
	}
	return campaign, nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, report *model.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run report")
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, client_id, state, report, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET state = excluded.state, report = excluded.report, updated_at = excluded.updated_at`,
		report.RunID, report.ClientID, string(report.State), string(reportJSON), now, now,
	)
	return eris.Wrapf(err, "sqlite: save run %s", report.RunID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.RunReport, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM runs WHERE run_id = ?`, runID).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal run %s", runID)
	}
	return &report, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, clientID string, limit int) ([]model.RunReport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT report FROM runs WHERE client_id = ? ORDER BY created_at DESC LIMIT ?`,
		clientID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list runs %s", clientID)
	}
	defer rows.Close()

	var reports []model.RunReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		var r model.RunReport
		if err := json.Unmarshal([]byte(reportJSON), &r); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal run")
		}
		reports = append(reports, r)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}
