package filter

import "strings"

// Seniority tiers, ordered roughly top-down. "unknown" covers titles that
// match no pattern; it is a valid tier so operators can exclude it
// explicitly.
const (
	TierOwner      = "owner"
	TierCSuite     = "c_suite"
	TierVP         = "vp"
	TierDirector   = "director"
	TierManager    = "manager"
	TierIndividual = "individual"
	TierUnknown    = "unknown"
)

var seniorityTiers = map[string]bool{
	TierOwner: true, TierCSuite: true, TierVP: true, TierDirector: true,
	TierManager: true, TierIndividual: true, TierUnknown: true,
}

func validSeniorityTier(t string) bool {
	return seniorityTiers[t]
}

// tierPatterns are checked in order; the first hit wins. Owner and C-suite
// come first so "Owner & CEO" classifies as owner.
var tierPatterns = []struct {
	tier     string
	patterns []string
}{
	{TierOwner, []string{"owner", "founder", "co-founder", "cofounder", "partner", "proprietor"}},
	{TierCSuite, []string{"ceo", "cto", "cfo", "coo", "cmo", "cio", "chief"}},
	{TierVP, []string{"vp", "vice president", "evp", "svp"}},
	{TierDirector, []string{"director", "head of"}},
	{TierManager, []string{"manager", "lead", "supervisor"}},
}

// SeniorityTier classifies a job title into one of the seniority tiers.
func SeniorityTier(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return TierUnknown
	}
	for _, tp := range tierPatterns {
		for _, p := range tp.patterns {
			if matchTitleWord(t, p) {
				return tp.tier
			}
		}
	}
	return TierIndividual
}

// matchTitleWord does a word-boundary-ish containment check so "vp" does
// not match inside "developer".
func matchTitleWord(title, pattern string) bool {
	if strings.Contains(pattern, " ") {
		return strings.Contains(title, pattern)
	}
	for _, f := range strings.FieldsFunc(title, func(r rune) bool {
		return r == ' ' || r == ',' || r == '/' || r == '&' || r == '-' || r == '(' || r == ')'
	}) {
		if f == pattern {
			return true
		}
	}
	return false
}
