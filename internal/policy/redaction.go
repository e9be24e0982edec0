// Package policy scrubs high-risk PII from chat text before it reaches the
// turn archive. Players drop real contact details into roleplay channels more
// often than one would hope.
package policy

import "regexp"

type redactionRule struct {
	pattern *regexp.Regexp
	label   string
}

// Card redaction runs before phone so long digit runs are not misread as
// phone numbers.
var redactionRules = []redactionRule{
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`), "[REDACTED_CARD]"},
	{regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`), "[REDACTED_PHONE]"},
}

// RedactPII masks emails, card numbers, and phone numbers in archived text.
func RedactPII(input string) (redacted string, changed bool) {
	out := input
	for _, rule := range redactionRules {
		next := rule.pattern.ReplaceAllString(out, rule.label)
		changed = changed || next != out
		out = next
	}
	return out, changed
}
