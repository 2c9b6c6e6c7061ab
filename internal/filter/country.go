package filter

import (
	"strings"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
	"github.com/kmicpaps/lead-gen-sub001/internal/normalize"
)

// callingCodes maps phone country-calling codes to country names. Longest
// prefix wins during inference. Covers the markets the scrapers target;
// unknown codes infer nothing rather than guessing.
var callingCodes = map[string]string{
	"371": "Latvia",
	"370": "Lithuania",
	"372": "Estonia",
	"358": "Finland",
	"46":  "Sweden",
	"47":  "Norway",
	"45":  "Denmark",
	"48":  "Poland",
	"49":  "Germany",
	"44":  "United Kingdom",
	"353": "Ireland",
	"31":  "Netherlands",
	"32":  "Belgium",
	"33":  "France",
	"34":  "Spain",
	"39":  "Italy",
	"41":  "Switzerland",
	"43":  "Austria",
	"351": "Portugal",
	"420": "Czech Republic",
	"36":  "Hungary",
	"40":  "Romania",
	"380": "Ukraine",
	"1":   "United States",
	"61":  "Australia",
	"64":  "New Zealand",
}

// countryTLDs maps country names to their ccTLDs for foreign-TLD checks.
var countryTLDs = map[string]string{
	"latvia":         "lv",
	"lithuania":      "lt",
	"estonia":        "ee",
	"finland":        "fi",
	"sweden":         "se",
	"norway":         "no",
	"denmark":        "dk",
	"poland":         "pl",
	"germany":        "de",
	"united kingdom": "uk",
	"ireland":        "ie",
	"netherlands":    "nl",
	"belgium":        "be",
	"france":         "fr",
	"spain":          "es",
	"italy":          "it",
	"switzerland":    "ch",
	"austria":        "at",
	"portugal":       "pt",
	"czech republic": "cz",
	"hungary":        "hu",
	"romania":        "ro",
	"ukraine":        "ua",
	"united states":  "us",
	"australia":      "au",
	"new zealand":    "nz",
}

// genericTLDs are never treated as foreign regardless of expected country.
var genericTLDs = map[string]bool{
	"com": true, "org": true, "net": true, "io": true, "co": true,
	"eu": true, "info": true, "biz": true, "app": true, "dev": true,
}

// PhoneCountry infers a country from an international phone number's
// calling code. Returns "" when the number has no + prefix or the code is
// unknown: absence of data, not a discrepancy.
func PhoneCountry(phone string) string {
	if !strings.HasPrefix(phone, "+") {
		return ""
	}
	digits := strings.TrimPrefix(phone, "+")
	for l := 3; l >= 1; l-- {
		if len(digits) < l {
			continue
		}
		if c, ok := callingCodes[digits[:l]]; ok {
			return c
		}
	}
	return ""
}

// InferCountry resolves a lead's country: the explicit field wins, then
// the phone calling code.
func InferCountry(l model.NormalizedLead) string {
	if l.Country != "" {
		return l.Country
	}
	return PhoneCountry(l.Phone)
}

// keepValidEmail keeps leads with a present, syntactically valid email.
func keepValidEmail(l model.NormalizedLead) bool {
	return normalize.ValidEmail(l.Email)
}

// keepPhoneConsistent drops a lead only when both the phone calling-code
// country and the lead country are known and disagree. Leads with an
// unknown phone are kept; missing data is not penalized.
func keepPhoneConsistent(l model.NormalizedLead) bool {
	pc := PhoneCountry(l.Phone)
	if pc == "" || l.Country == "" {
		return true
	}
	return strings.EqualFold(pc, l.Country)
}

// keepDomesticTLD drops leads whose domain carries another country's
// ccTLD. Generic TLDs and unknown ccTLDs are kept.
func keepDomesticTLD(expected string) Predicate {
	expectedTLD := countryTLDs[strings.ToLower(strings.TrimSpace(expected))]
	return func(l model.NormalizedLead) bool {
		domain := l.CompanyDomain
		if domain == "" {
			return true
		}
		i := strings.LastIndex(domain, ".")
		if i < 0 {
			return true
		}
		tld := domain[i+1:]
		if genericTLDs[tld] || len(tld) != 2 {
			return true
		}
		if expectedTLD != "" && tld == expectedTLD {
			return true
		}
		// A two-letter TLD we don't recognize as the expected country's:
		// foreign only if it maps to some other known country.
		for _, cc := range countryTLDs {
			if cc == tld {
				return false
			}
		}
		return true
	}
}
