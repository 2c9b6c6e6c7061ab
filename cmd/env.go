package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/kmicpaps/lead-gen-sub001/internal/acquire"
	"github.com/kmicpaps/lead-gen-sub001/internal/archive"
	"github.com/kmicpaps/lead-gen-sub001/internal/dedup"
	"github.com/kmicpaps/lead-gen-sub001/internal/fingerprint"
	"github.com/kmicpaps/lead-gen-sub001/internal/model"
	"github.com/kmicpaps/lead-gen-sub001/internal/source"
)

// env bundles the wired components shared by the commands.
type env struct {
	Registry *source.Registry
	Store    archive.Store
	Engine   *dedup.Engine
	Orch     *acquire.Orchestrator
}

func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv wires the source registry, archive store, dedup engine and
// orchestrator from config. Adapters with no credentials configured are
// still registered; they fail with an auth error at fetch time, which the
// orchestrator reports per source.
func initEnv(ctx context.Context) (*env, error) {
	reg := source.NewRegistry()
	if err := reg.Register(source.NewApollo(cfg.Apollo.BaseURL, cfg.Apollo.APIKey, cfg.Apollo.RPS)); err != nil {
		return nil, err
	}
	if err := reg.Register(source.NewWebScrape(cfg.WebScrape.BaseURL, cfg.WebScrape.Token, cfg.WebScrape.RPS)); err != nil {
		return nil, err
	}
	if err := reg.Register(source.NewCSVDrop(cfg.CSVDrop.Addr, cfg.CSVDrop.User, cfg.CSVDrop.Password, cfg.CSVDrop.Dir)); err != nil {
		return nil, err
	}

	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	engine := dedup.New(fingerprintConfig())

	backups := make([]acquire.BackupSource, 0, len(cfg.Acquire.Backups))
	for _, b := range cfg.Acquire.Backups {
		backups = append(backups, acquire.BackupSource{
			AdapterID:  b.AdapterID,
			Oversample: b.Oversample,
		})
	}

	orch := acquire.New(acquire.Config{
		Primary:       cfg.Acquire.Primary,
		Backups:       backups,
		MaxParallel:   cfg.Acquire.MaxParallel,
		SourceTimeout: cfg.Acquire.SourceTimeout(),
		KeepRaw:       cfg.Audit.KeepRaw,
		AuditDir:      cfg.Audit.Dir,
	}, reg, store, engine)

	return &env{Registry: reg, Store: store, Engine: engine, Orch: orch}, nil
}

func openStore(ctx context.Context) (archive.Store, error) {
	switch cfg.Archive.Driver {
	case "postgres":
		store, err := archive.NewPostgres(ctx, cfg.Archive.DatabaseURL, &archive.PoolConfig{
			MaxConns: cfg.Archive.MaxConns,
			MinConns: cfg.Archive.MinConns,
		})
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case "sqlite", "":
		store, err := archive.NewSQLite(cfg.Archive.Path)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, eris.Errorf("env: unknown archive driver %q", cfg.Archive.Driver)
	}
}

func fingerprintConfig() fingerprint.Config {
	return fingerprint.Config{
		StripDiacritics:  cfg.Fingerprint.StripDiacritics,
		CollapseInitials: cfg.Fingerprint.CollapseInitials,
	}
}

// readLeads loads a JSON array of normalized leads from disk.
func readLeads(path string) ([]model.NormalizedLead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "env: read %s", path)
	}
	var leads []model.NormalizedLead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, eris.Wrapf(err, "env: parse %s", path)
	}
	// Lead ids are the dedup tie-break key, so operator files must carry
	// unique non-empty ids.
	seen := make(map[string]bool, len(leads))
	for i, l := range leads {
		if l.ID == "" {
			return nil, eris.Errorf("env: %s: lead %d has no id", path, i)
		}
		if seen[l.ID] {
			return nil, eris.Errorf("env: %s: duplicate lead id %q", path, l.ID)
		}
		seen[l.ID] = true
	}
	return leads, nil
}

// writeJSONFile marshals v with indentation and writes it to path.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "env: marshal")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "env: write %s", path)
	}
	return nil
}
