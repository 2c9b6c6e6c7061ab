// Package acquire drives source adapters in priority order to hit a
// numeric lead target: primary first, then concurrent oversampled backup
// fan-out for any shortfall, then normalization and two-stage dedup.
package acquire

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kmicpaps/lead-gen-sub001/internal/archive"
	"github.com/kmicpaps/lead-gen-sub001/internal/dedup"
	"github.com/kmicpaps/lead-gen-sub001/internal/model"
	"github.com/kmicpaps/lead-gen-sub001/internal/normalize"
	"github.com/kmicpaps/lead-gen-sub001/internal/resilience"
	"github.com/kmicpaps/lead-gen-sub001/internal/source"
)

// BackupSource configures one backup adapter in the gap-fill fan-out.
type BackupSource struct {
	AdapterID string `yaml:"adapter_id" mapstructure:"adapter_id"`
	// Oversample multiplies the shortfall when requesting from this
	// source, compensating for its expected dedup/filter loss. Static
	// configuration, not derived dynamically.
	Oversample float64 `yaml:"oversample" mapstructure:"oversample"`
}

// Config tunes one acquisition run.
type Config struct {
	Primary       string         `yaml:"primary" mapstructure:"primary"`
	Backups       []BackupSource `yaml:"backups" mapstructure:"backups"`
	MaxParallel   int            `yaml:"max_parallel" mapstructure:"max_parallel"`
	SourceTimeout time.Duration  `yaml:"source_timeout" mapstructure:"source_timeout"`
	// KeepRaw retains every fetched raw payload under AuditDir, one JSON
	// file per run, so removals can be audited against source output.
	KeepRaw  bool   `yaml:"keep_raw" mapstructure:"keep_raw"`
	AuditDir string `yaml:"audit_dir" mapstructure:"audit_dir"`
}

// Orchestrator runs the acquisition state machine.
type Orchestrator struct {
	cfg      Config
	registry *source.Registry
	store    archive.Store
	engine   *dedup.Engine
}

// New creates an orchestrator. store may be nil for fully offline runs
// (no history, no commit).
func New(cfg Config, registry *source.Registry, store archive.Store, engine *dedup.Engine) *Orchestrator {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 3
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 2 * time.Minute
	}
	return &Orchestrator{cfg: cfg, registry: registry, store: store, engine: engine}
}

// Result pairs the final lead set with the run report.
type Result struct {
	Report *model.RunReport
	Leads  []model.NormalizedLead
}

// Run executes one acquisition for clientID against target. When commit
// is false the run is a preview: identical computation, nothing written
// to the archive except the run record itself.
//
// An authentication failure on the primary adapter aborts the run:
// backups have weaker filter coverage and must never be substituted
// silently.
func (o *Orchestrator) Run(ctx context.Context, clientID string, q source.Query, target int, commit bool) (*Result, error) {
	return o.RunWithID(ctx, uuid.New().String(), clientID, q, target, commit)
}

// RunWithID is Run with a caller-supplied run id, so callers that answer
// before the run completes can hand out a pollable handle up front.
func (o *Orchestrator) RunWithID(ctx context.Context, runID, clientID string, q source.Query, target int, commit bool) (*Result, error) {
	if target <= 0 {
		return nil, eris.Errorf("acquire: target must be positive (got %d)", target)
	}
	if runID == "" {
		runID = uuid.New().String()
	}
	primary := o.registry.Get(o.cfg.Primary)
	if primary == nil {
		return nil, eris.Errorf("acquire: primary adapter %q not registered", o.cfg.Primary)
	}

	report := &model.RunReport{
		RunID:     runID,
		ClientID:  clientID,
		State:     model.RunPendingPrimary,
		Target:    target,
		StartedAt: time.Now().UTC(),
	}
	o.saveRun(ctx, report)

	log := zap.L().With(
		zap.String("run_id", report.RunID),
		zap.String("client_id", clientID),
	)
	log.Info("acquire: starting run", zap.Int("target", target))

	// --- PENDING_PRIMARY ---
	raw, primaryYield, err := o.fetchSource(ctx, primary, q, target)
	report.Sources = append(report.Sources, primaryYield)
	if err != nil && resilience.IsAuth(err) {
		// Fail fast: the operator must opt in to backup-only runs.
		report.State = model.RunPrimaryAuthFailed
		o.finish(ctx, report, err)
		return &Result{Report: report}, err
	}

	// --- PRIMARY_OK / PRIMARY_SHORT ---
	if primaryYield.Obtained >= target {
		report.State = model.RunPrimaryOK
	} else {
		report.State = model.RunPrimaryShort
		shortfall := target - primaryYield.Obtained
		log.Info("acquire: primary short, filling gap",
			zap.Int("shortfall", shortfall),
			zap.Int("backups", len(o.cfg.Backups)),
		)

		// --- GAP_FILL ---
		report.State = model.RunGapFill
		raw = append(raw, o.gapFill(ctx, q, shortfall, report)...)
	}

	if o.cfg.KeepRaw {
		o.auditRaw(report.RunID, raw)
	}

	// --- MERGING ---
	report.State = model.RunMerging
	o.saveRun(ctx, report)
	leads, err := o.merge(ctx, clientID, raw, report)
	if err != nil {
		report.State = model.RunAborted
		o.finish(ctx, report, err)
		return &Result{Report: report}, err
	}

	report.Final = len(leads)

	// Commit only after the whole pipeline has succeeded, and only when
	// the operator asked for it.
	if commit && o.store != nil && len(leads) > 0 {
		campaign, err := o.store.CommitCampaign(ctx, clientID, leads, model.CampaignMeta{Source: "acquire"})
		if err != nil {
			report.State = model.RunAborted
			o.finish(ctx, report, err)
			return &Result{Report: report, Leads: leads}, err
		}
		report.CampaignID = campaign.CampaignID
	}

	report.State = model.RunDone
	o.finish(ctx, report, nil)

	log.Info("acquire: run complete",
		zap.Int("obtained", report.Obtained),
		zap.Int("final", report.Final),
		zap.Int("target", report.Target),
		zap.Bool("committed", report.CampaignID != ""),
	)
	return &Result{Report: report, Leads: leads}, nil
}

// fetchSource calls one adapter with the per-source timeout. Errors are
// converted to a zero-yield cause; only auth errors propagate.
func (o *Orchestrator) fetchSource(ctx context.Context, a source.Adapter, q source.Query, max int) ([]model.RawLead, model.SourceYield, error) {
	yield := model.SourceYield{AdapterID: a.ID(), Requested: max}

	fetchCtx, cancel := context.WithTimeout(ctx, o.cfg.SourceTimeout)
	defer cancel()

	raw, err := a.Fetch(fetchCtx, q, max)
	if err != nil {
		// Partial output from a failed or timed-out fetch is discarded
		// rather than merged: truncated records corrupt dedup.
		yield.Cause = eris.Cause(err).Error()
		return nil, yield, err
	}
	yield.Obtained = len(raw)
	return raw, yield, nil
}

// gapFill fans out to every backup source concurrently with bounded
// parallelism. Each source is independently optional: one failure or
// timeout never cancels the others.
func (o *Orchestrator) gapFill(ctx context.Context, q source.Query, shortfall int, report *model.RunReport) []model.RawLead {
	var (
		mu       sync.Mutex
		combined []model.RawLead
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxParallel)

	for _, backup := range o.cfg.Backups {
		adapter := o.registry.Get(backup.AdapterID)
		mult := backup.Oversample
		if mult <= 0 {
			mult = 1
		}
		adjusted := int(float64(shortfall) * mult)

		if adapter == nil {
			mu.Lock()
			report.Sources = append(report.Sources, model.SourceYield{
				AdapterID: backup.AdapterID,
				Requested: adjusted,
				Cause:     "adapter not registered",
			})
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			raw, yield, err := o.fetchSource(gctx, adapter, q, adjusted)
			if err != nil {
				zap.L().Warn("acquire: backup source failed",
					zap.String("adapter", adapter.ID()),
					zap.Error(err),
				)
			}
			mu.Lock()
			report.Sources = append(report.Sources, yield)
			combined = append(combined, raw...)
			mu.Unlock()
			return nil // backup failures never abort the group
		})
	}

	_ = g.Wait()
	return combined
}

// merge normalizes every raw record through its adapter's mapping, then
// runs internal dedup and, when the client has prior campaigns,
// cross-campaign dedup.
func (o *Orchestrator) merge(ctx context.Context, clientID string, raw []model.RawLead, report *model.RunReport) ([]model.NormalizedLead, error) {
	var batch []model.NormalizedLead
	for _, r := range raw {
		adapter := o.registry.Get(r.SourceAdapterID)
		if adapter == nil {
			report.SchemaRejects++
			continue
		}
		lead, err := normalize.Normalize(r, adapter.Mapping())
		if err != nil {
			report.SchemaRejects++
			continue
		}
		batch = append(batch, lead)
	}
	report.Obtained = len(batch)

	// Stage 1: internal dedup merges the scrapers' overlapping output.
	internal := o.engine.Run(batch, nil)
	report.DedupedBatch = len(internal.Removed)
	report.Unidentifiable = len(internal.Unidentifiable)

	// Stage 2: cross-campaign dedup against the client's full archive.
	kept := internal.Kept
	if o.store != nil {
		history, err := o.store.ListCampaigns(ctx, clientID)
		if err != nil {
			return nil, eris.Wrap(err, "acquire: load campaign history")
		}
		if len(history) > 0 {
			cross := o.engine.Run(kept, history)
			report.DedupedHistory = len(cross.Removed)
			kept = cross.Kept
		}
	}

	// Per-source survivor counts, so the report shows each source's yield
	// both before and after dedup.
	survived := make(map[string]int)
	for _, l := range kept {
		survived[l.SourceAdapterID]++
	}
	for i := range report.Sources {
		report.Sources[i].Survived = survived[report.Sources[i].AdapterID]
	}

	return kept, nil
}

// auditRaw is best effort: a retention failure is logged, never fatal.
func (o *Orchestrator) auditRaw(runID string, raw []model.RawLead) {
	dir := o.cfg.AuditDir
	if dir == "" {
		dir = "audit"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		zap.L().Warn("acquire: audit dir", zap.Error(err))
		return
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		zap.L().Warn("acquire: marshal raw payloads", zap.Error(err))
		return
	}
	path := filepath.Join(dir, runID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		zap.L().Warn("acquire: write raw payloads", zap.String("path", path), zap.Error(err))
	}
}

func (o *Orchestrator) finish(ctx context.Context, report *model.RunReport, err error) {
	report.FinishedAt = time.Now().UTC()
	if err != nil {
		report.Error = err.Error()
		if report.State != model.RunPrimaryAuthFailed {
			report.State = model.RunAborted
		}
	}
	o.saveRun(ctx, report)
}

func (o *Orchestrator) saveRun(ctx context.Context, report *model.RunReport) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveRun(ctx, report); err != nil {
		zap.L().Warn("acquire: failed to save run record",
			zap.String("run_id", report.RunID),
			zap.Error(err),
		)
	}
}
