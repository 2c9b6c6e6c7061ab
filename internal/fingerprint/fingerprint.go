// Package fingerprint derives tiered match keys for lead identity
// resolution. Tier 1 (email) and Tier 2 (LinkedIn URL) are exact
// identifiers; Tier 3 (company domain + folded full name) is a weaker
// heuristic fallback with a documented false-merge mode: two different
// people at the same company whose names fold to the same string will
// collide.
package fingerprint

import (
	"strings"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
	"github.com/kmicpaps/lead-gen-sub001/internal/normalize"
)

// Confidence tiers, strongest first.
const (
	TierEmail    = 1
	TierLinkedIn = 2
	TierNameDom  = 3
)

// Key is one candidate match key for a lead.
type Key struct {
	Tier  int    `json:"tier"`
	Value string `json:"value"`
}

// Config exposes the Tier 3 name-fold aggressiveness as an explicit,
// tested setting rather than a hidden constant.
type Config struct {
	// StripDiacritics folds accented characters before keying.
	StripDiacritics bool `yaml:"strip_diacritics" mapstructure:"strip_diacritics"`
	// CollapseInitials drops single-letter name tokens ("john q public"
	// keys the same as "john public"). More aggressive, more collisions.
	CollapseInitials bool `yaml:"collapse_initials" mapstructure:"collapse_initials"`
}

// DefaultConfig matches the historical behavior: diacritics stripped,
// initials kept.
func DefaultConfig() Config {
	return Config{StripDiacritics: true}
}

// Compute returns the lead's match keys in tier order. A lead may carry
// multiple tiers simultaneously; a lead with none is unidentifiable and
// must be bucketed by the caller, not dropped.
func Compute(lead model.NormalizedLead, cfg Config) []Key {
	var keys []Key
	if lead.Email != "" {
		keys = append(keys, Key{Tier: TierEmail, Value: lead.Email})
	}
	if lead.LinkedInURL != "" {
		keys = append(keys, Key{Tier: TierLinkedIn, Value: lead.LinkedInURL})
	}
	if lead.CompanyDomain != "" && lead.FullName != "" {
		keys = append(keys, Key{Tier: TierNameDom, Value: lead.CompanyDomain + "|" + foldName(lead.FullName, cfg)})
	}
	return keys
}

func foldName(name string, cfg Config) string {
	if cfg.StripDiacritics {
		name = normalize.FoldName(name)
	} else {
		name = normalize.CollapseSpaces(strings.ToLower(name))
	}
	if cfg.CollapseInitials {
		fields := strings.Fields(name)
		kept := fields[:0]
		for _, f := range fields {
			if len(f) > 1 {
				kept = append(kept, f)
			}
		}
		if len(kept) > 0 {
			name = strings.Join(kept, " ")
		}
	}
	return name
}
