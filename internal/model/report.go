package model

import "time"

// Removal reason codes. duplicate_of carries the representative id as a
// suffix (see DuplicateOf).
const (
	ReasonUnidentifiable = "unidentifiable"
	ReasonSchemaMismatch = "schema_mismatch"
)

// DuplicateOf builds the removal reason for a lead folded into repID's
// equivalence class.
func DuplicateOf(repID string) string {
	return "duplicate_of:" + repID
}

// Removal records one lead dropped by dedup or filtering, with enough
// context for the operator to audit the decision.
type Removal struct {
	Lead           NormalizedLead `json:"lead"`
	Reason         string         `json:"reason"`
	MatchedAgainst string         `json:"matched_against,omitempty"`
	Tier           int            `json:"tier,omitempty"`
}

// FilterStage is one row of the funnel: counts observed before the next
// stage ran, so the funnel is order-sensitive and reproducible.
type FilterStage struct {
	FilterName   string `json:"filter_name"`
	CountBefore  int    `json:"count_before"`
	CountRemoved int    `json:"count_removed"`
}

// FilterReport is the immutable outcome of one filter application.
type FilterReport struct {
	Stages   []FilterStage    `json:"stages"`
	Kept     []NormalizedLead `json:"kept"`
	Removed  []Removal        `json:"removed"`
	FinalLen int              `json:"final_len"`
}

// SourceYield records one adapter's contribution to an acquisition run.
type SourceYield struct {
	AdapterID string `json:"adapter_id"`
	Requested int    `json:"requested"`
	Obtained  int    `json:"obtained"`
	// Survived counts this source's leads still present after both dedup
	// stages, so per-source loss is visible alongside the raw yield.
	Survived int    `json:"survived"`
	Cause    string `json:"cause,omitempty"` // non-empty when the source contributed zero
}

// RunState tracks the acquisition orchestrator state machine.
type RunState string

const (
	RunPendingPrimary    RunState = "pending_primary"
	RunPrimaryOK         RunState = "primary_ok"
	RunPrimaryShort      RunState = "primary_short"
	RunPrimaryAuthFailed RunState = "primary_auth_failed"
	RunGapFill           RunState = "gap_fill"
	RunMerging           RunState = "merging"
	RunDone              RunState = "done"
	RunAborted           RunState = "aborted"
)

// RunReport is the final funnel summary of one acquisition run. Emitted on
// every run, including partial failures, so the operator always sees where
// leads were lost.
type RunReport struct {
	RunID          string        `json:"run_id"`
	ClientID       string        `json:"client_id"`
	State          RunState      `json:"state"`
	Target         int           `json:"target"`
	Sources        []SourceYield `json:"sources"`
	Obtained       int           `json:"obtained"`
	Unidentifiable int           `json:"unidentifiable"`
	SchemaRejects  int           `json:"schema_rejects"`
	DedupedBatch   int           `json:"deduped_batch"`    // removed by internal dedup
	DedupedHistory int           `json:"deduped_history"`  // removed by cross-campaign dedup
	Final          int           `json:"final"`
	CampaignID     string        `json:"campaign_id,omitempty"` // set only when committed
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	Error          string        `json:"error,omitempty"`
}

// Shortfall returns how many leads the run is short of target.
func (r RunReport) Shortfall() int {
	if r.Final >= r.Target {
		return 0
	}
	return r.Target - r.Final
}
