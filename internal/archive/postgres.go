package archive

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
)

// Pool abstracts the pgx pool surface the store needs, so pgxmock can
// stand in during tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool, for teams sharing one
// archive across operators.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (used by tests).
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS campaigns (
	campaign_id TEXT PRIMARY KEY,
	client_id   TEXT NOT NULL,
	label       TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	lead_count  INTEGER NOT NULL,
	leads       JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	state      TEXT NOT NULL,
	report     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_campaigns_client ON campaigns(client_id, created_at);
CREATE INDEX IF NOT EXISTS idx_runs_client ON runs(client_id, created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListCampaigns(ctx context.Context, clientID string) ([]model.Campaign, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT campaign_id, client_id, lead_count, leads, created_at
		 FROM campaigns WHERE client_id = $1 ORDER BY created_at ASC`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list campaigns %s", clientID)
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		var c model.Campaign
		var leadsJSON []byte
		if err := rows.Scan(&c.CampaignID, &c.ClientID, &c.LeadCount, &leadsJSON, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan campaign")
		}
		if err := json.Unmarshal(leadsJSON, &c.Leads); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal leads for %s", c.CampaignID)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, eris.Wrap(rows.Err(), "postgres: iterate campaigns")
}

// CommitCampaign appends a campaign inside a transaction so a failed run
// can never leave a partial record.
func (s *PostgresStore) CommitCampaign(ctx context.Context, clientID string, leads []model.NormalizedLead, meta model.CampaignMeta) (*model.Campaign, error) {
	if len(leads) == 0 {
		return nil, eris.New("postgres: refusing to commit empty campaign")
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
		return nil, eris.Wrap(err, "postgres: marshal leads")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin commit")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx,
		`INSERT INTO campaigns (campaign_id, client_id, label, source, lead_count, leads, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		campaign.CampaignID, clientID, meta.Label, meta.Source, campaign.LeadCount, leadsJSON, campaign.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert campaign")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit campaign")
	}
	return campaign, nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, report *model.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run report")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (run_id, client_id, state, report, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (run_id) DO UPDATE SET state = EXCLUDED.state, report = EXCLUDED.report, updated_at = now()`,
		report.RunID, report.ClientID, string(report.State), reportJSON,
	)
	return eris.Wrapf(err, "postgres: save run %s", report.RunID)
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.RunReport, error) {
	var reportJSON []byte
	err := s.pool.QueryRow(ctx, `SELECT report FROM runs WHERE run_id = $1`, runID).Scan(&reportJSON)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	var report model.RunReport
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal run %s", runID)
	}
	return &report, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, clientID string, limit int) ([]model.RunReport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT report FROM runs WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2`,
		clientID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list runs %s", clientID)
	}
	defer rows.Close()

	var reports []model.RunReport
	for rows.Next() {
		var reportJSON []byte
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		var r model.RunReport
		if err := json.Unmarshal(reportJSON, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal run")
		}
		reports = append(reports, r)
	}
	return reports, eris.Wrap(rows.Err(), "postgres: iterate runs")
}
