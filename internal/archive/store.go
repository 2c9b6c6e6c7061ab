// Package archive persists committed campaigns and acquisition run
// records. Campaigns are append-only: cross-campaign dedup reads prior
// entries and writes a new one, never edits in place.
package archive

import (
	"context"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
)

// Store is the campaign archive boundary. Each campaign row keeps a
// normalized-field snapshot of its leads, enough for future
// cross-campaign fingerprinting without re-fetching raw source data.
type Store interface {
	// ListCampaigns returns the client's campaigns sorted by CreatedAt
	// ascending. Chronological order is a dedup correctness requirement,
	// not a presentation nicety.
	ListCampaigns(ctx context.Context, clientID string) ([]model.Campaign, error)

	// CommitCampaign atomically appends a new campaign. A failed run must
	// never leave a partial campaign record.
	CommitCampaign(ctx context.Context, clientID string, leads []model.NormalizedLead, meta model.CampaignMeta) (*model.Campaign, error)

	// Runs
	SaveRun(ctx context.Context, report *model.RunReport) error
	GetRun(ctx context.Context, runID string) (*model.RunReport, error)
	ListRuns(ctx context.Context, clientID string, limit int) ([]model.RunReport, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
