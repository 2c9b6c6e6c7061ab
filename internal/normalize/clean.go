package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

var phoneJunkRe = regexp.MustCompile(`[^\d+]`)

// CleanEmail lower-cases and trims an email address. Returns "" for values
// with no @: a bare name in an email column is noise, not an address.
func CleanEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.Contains(s, "@") {
		return ""
	}
	return s
}

// emailRe is deliberately loose: one @, non-empty local part, a dot in the
// domain. Syntactic validity feeds quality reporting, not acceptance.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail reports syntactic validity of an already-cleaned email.
func ValidEmail(s string) bool {
	return s != "" && emailRe.MatchString(s)
}

// CleanPhone strips punctuation and spacing while preserving a leading +
// and the country-calling-code digits.
func CleanPhone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	plus := strings.HasPrefix(s, "+")
	digits := phoneJunkRe.ReplaceAllString(s, "")
	digits = strings.ReplaceAll(digits, "+", "")
	if digits == "" {
		return ""
	}
	if plus {
		return "+" + digits
	}
	return digits
}

// CleanLinkedIn trims a LinkedIn URL to the canonical profile path: host
// lowered to linkedin.com, query and fragment dropped, trailing slash
// removed. Country and mobile subdomains collapse to the bare host.
func CleanLinkedIn(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if !strings.HasSuffix(host, "linkedin.com") {
		return ""
	}
	path := strings.TrimRight(u.Path, "/")
	if path == "" {
		return ""
	}
	return "linkedin.com" + strings.ToLower(path)
}

// CleanDomain derives a bare company domain from any URL-ish field:
// scheme, www prefix, port, path, and query are all stripped.
func CleanDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if d == "" {
		return ""
	}
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	for _, cut := range []string{"/", "?", "#"} {
		if i := strings.Index(d, cut); i >= 0 {
			d = d[:i]
		}
	}
	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	if !strings.Contains(d, ".") {
		return ""
	}
	return d
}

// CollapseSpaces trims and collapses runs of whitespace to single spaces.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
