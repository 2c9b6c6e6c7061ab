// Package dedup merges leads that describe the same real-world entity,
// both within one acquisition batch and across a client's full campaign
// history. The partition is computed with a union-find over tiered
// fingerprint keys; tie-breaks are deterministic so a shuffled input
// always yields the same result.
package dedup

import (
	"sort"

	"go.uber.org/zap"

	"github.com/kmicpaps/lead-gen-sub001/internal/fingerprint"
	"github.com/kmicpaps/lead-gen-sub001/internal/model"
)

// Result is the outcome of one dedup invocation. Equivalence classes are
// dissolved on return; only the kept/removed resolution survives.
type Result struct {
	Kept           []model.NormalizedLead
	Removed        []model.Removal
	Unidentifiable []model.NormalizedLead
}

// Engine runs tiered union-find deduplication. The zero fingerprint config
// is not useful; construct with New.
type Engine struct {
	cfg fingerprint.Config
}

// New creates a dedup engine with the given fingerprint configuration.
func New(cfg fingerprint.Config) *Engine {
	return &Engine{cfg: cfg}
}

// candidate pairs a lead with its precomputed keys and batch membership.
type candidate struct {
	lead    model.NormalizedLead
	keys    []fingerprint.Key
	history bool
	// linkTier is the strongest tier that connected this lead to another
	// member of its class; 0 when never matched.
	linkTier int
}

// Run partitions batch (plus, in cross-campaign mode, every lead of every
// prior campaign in history) into equivalence classes and resolves each
// class to one canonical representative.
//
// History campaigns are timestamp-sorted before merging: the
// first-contact-wins tie-break depends on campaign chronology, so the
// ordering is a correctness requirement. History leads are read-only and
// are never reported as removed; only new-batch members of a class that
// contains history are.
func (e *Engine) Run(batch []model.NormalizedLead, history []model.Campaign) *Result {
	res := &Result{}

	// Hydrate candidates. Unidentifiable batch leads are bucketed and
	// excluded from automatic matching, never silently dropped.
	var cands []candidate
	for _, lead := range batch {
		if !lead.Identifiable() {
			res.Unidentifiable = append(res.Unidentifiable, lead)
			continue
		}
		cands = append(cands, candidate{lead: lead, keys: fingerprint.Compute(lead, e.cfg)})
	}

	sorted := make([]model.Campaign, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })
	for _, camp := range sorted {
		for _, lead := range camp.Leads {
			lead.CampaignID = camp.CampaignID
			lead.CampaignAt = camp.CreatedAt
			if !lead.Identifiable() {
				continue
			}
			cands = append(cands, candidate{lead: lead, keys: fingerprint.Compute(lead, e.cfg), history: true})
		}
	}

	// Canonical candidate order: the partition and every tie-break must be
	// independent of arrival order, so index by lead id before keying.
	// Stable, so operator-supplied files with duplicate ids still resolve
	// the same way run to run.
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].lead.ID < cands[j].lead.ID })

	uf := newUnionFind(len(cands))

	// Index: tier -> key value -> candidate indices.
	byKey := make(map[fingerprint.Key][]int)
	for i, c := range cands {
		for _, k := range c.keys {
			byKey[k] = append(byKey[k], i)
		}
	}
	keys := make([]fingerprint.Key, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Tier != keys[j].Tier {
			return keys[i].Tier < keys[j].Tier
		}
		return keys[i].Value < keys[j].Value
	})

	// Pass 1: Tier 1 and Tier 2 are equally authoritative and union
	// immediately. Track which leads were confirmed by an exact match.
	confirmed := make([]bool, len(cands))
	for _, k := range keys {
		if k.Tier == fingerprint.TierNameDom {
			continue
		}
		idxs := byKey[k]
		if len(idxs) < 2 {
			continue
		}
		for _, i := range idxs {
			confirmed[i] = true
		}
		for _, i := range idxs[1:] {
			uf.union(idxs[0], i)
		}
	}

	// Confirmed class roots. Pass 2 never merges a confirmed class, so
	// these roots are stable for the rest of the run.
	confirmedRoot := make(map[int]bool)
	for i := range cands {
		if confirmed[i] {
			confirmedRoot[uf.find(i)] = true
		}
	}

	// Pass 2: Tier 3 unions only when neither side's class already holds a
	// confirmed identity: the weak name+domain heuristic must not merge
	// two already-confirmed-distinct entities.
	for _, k := range keys {
		if k.Tier != fingerprint.TierNameDom {
			continue
		}
		idxs := byKey[k]
		for x := 0; x < len(idxs); x++ {
			for y := x + 1; y < len(idxs); y++ {
				a, b := idxs[x], idxs[y]
				if uf.find(a) == uf.find(b) {
					continue
				}
				if confirmedRoot[uf.find(a)] || confirmedRoot[uf.find(b)] {
					continue
				}
				uf.union(a, b)
			}
		}
	}

	// Record the strongest tier that linked each lead into its class.
	for _, k := range keys {
		idxs := byKey[k]
		if len(idxs) < 2 {
			continue
		}
		for x := 0; x < len(idxs); x++ {
			for y := x + 1; y < len(idxs); y++ {
				if uf.find(idxs[x]) != uf.find(idxs[y]) {
					continue
				}
				for _, i := range []int{idxs[x], idxs[y]} {
					if cands[i].linkTier == 0 || k.Tier < cands[i].linkTier {
						cands[i].linkTier = k.Tier
					}
				}
			}
		}
	}

	// Resolve classes.
	classes := make(map[int][]int)
	for i := range cands {
		root := uf.find(i)
		classes[root] = append(classes[root], i)
	}

	roots := make([]int, 0, len(classes))
	for root := range classes {
		roots = append(roots, root)
	}
	sort.Ints(roots)

	for _, root := range roots {
		members := classes[root]
		rep := electRepresentative(cands, members)

		if len(members) == 1 {
			if !cands[rep].history {
				res.Kept = append(res.Kept, cands[rep].lead)
			}
			continue
		}

		// Earliest history member, if any, for the re-contact guard.
		firstContact := -1
		for _, i := range members {
			if !cands[i].history {
				continue
			}
			if firstContact < 0 || cands[i].lead.CampaignAt.Before(cands[firstContact].lead.CampaignAt) {
				firstContact = i
			}
		}

		for _, i := range members {
			if cands[i].history {
				continue // campaigns are append-only, history is never removed
			}
			if i == rep {
				if firstContact < 0 {
					res.Kept = append(res.Kept, cands[i].lead)
					continue
				}
				// A batch lead can out-rank history on field count, but the
				// entity was already contacted: it never re-enters a campaign.
				res.Removed = append(res.Removed, model.Removal{
					Lead:           cands[i].lead,
					Reason:         model.DuplicateOf(cands[firstContact].lead.ID),
					MatchedAgainst: cands[firstContact].lead.ID,
					Tier:           cands[i].linkTier,
				})
				continue
			}
			res.Removed = append(res.Removed, model.Removal{
				Lead:           cands[i].lead,
				Reason:         model.DuplicateOf(cands[rep].lead.ID),
				MatchedAgainst: cands[rep].lead.ID,
				Tier:           cands[i].linkTier,
			})
		}
	}

	zap.L().Debug("dedup: resolved",
		zap.Int("candidates", len(cands)),
		zap.Int("kept", len(res.Kept)),
		zap.Int("removed", len(res.Removed)),
		zap.Int("unidentifiable", len(res.Unidentifiable)),
	)

	return res
}

// electRepresentative picks the canonical member of a class:
//  1. most populated canonical fields (richest record wins)
//  2. chronologically earliest campaign; new-batch leads (zero CampaignAt)
//     sort after all history (first contact wins, contact history survives)
//  3. lexicographically smallest lead id (reproducible runs)
func electRepresentative(cands []candidate, members []int) int {
	best := members[0]
	for _, i := range members[1:] {
		if repLess(cands[i], cands[best]) {
			best = i
		}
	}
	return best
}

// repLess reports whether a should be preferred over b as representative.
func repLess(a, b candidate) bool {
	af, bf := a.lead.FieldCount(), b.lead.FieldCount()
	if af != bf {
		return af > bf
	}
	at, bt := a.lead.CampaignAt, b.lead.CampaignAt
	switch {
	case at.IsZero() && !bt.IsZero():
		return false
	case !at.IsZero() && bt.IsZero():
		return true
	case !at.Equal(bt):
		return at.Before(bt)
	}
	return a.lead.ID < b.lead.ID
}
