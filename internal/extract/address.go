package extract

import (
	"regexp"
	"strings"
)

// Patterns for names the text addresses rather than merely mentions.
var (
	greetingPrefixRe = regexp.MustCompile(`(?i)^\W*(?:hello|hi|hey|greetings|welcome|good\s+(?:morning|day|evening|night))[,!]?\s+(\p{Lu}[\p{L}'-]+)`)
	leadingVocRe     = regexp.MustCompile(`^\W*(\p{Lu}[\p{L}'-]+),\s+\p{L}`)
	trailingVocRe    = regexp.MustCompile(`,\s*(\p{Lu}[\p{L}'-]+)\s*[.!?…]*\s*$`)
	opinionAskRe     = regexp.MustCompile(`(?i)what\s+do\s+you\s+think,?\s+(\p{Lu}[\p{L}'-]+)`)
	actionTargetRe   = regexp.MustCompile(`(?i)(?:turns?\s+to(?:wards?)?|looks?\s+at|addresses|faces|gestures\s+(?:to|at))\s+(?:the\s+)?(\p{Lu}[\p{L}'-]+)`)
)

// Addressed returns the validated names the text appears to speak to:
// greeting prefixes, comma vocatives, "what do you think, X", and action
// markup that turns to, looks at, or addresses someone. First-appearance
// order, deduplicated case-insensitively.
func Addressed(text string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(raw string) {
		name, ok := ValidName(raw)
		if !ok {
			return
		}
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, name)
	}

	// Vocatives live in the spoken part of the message; dialogue quotes are
	// scanned as-is, action spans only through the dedicated patterns below.
	spoken := stripActionSpans(text)
	if m := greetingPrefixRe.FindStringSubmatch(spoken); m != nil {
		add(m[1])
	}
	if m := leadingVocRe.FindStringSubmatch(strings.TrimSpace(spoken)); m != nil {
		add(m[1])
	}
	if m := trailingVocRe.FindStringSubmatch(strings.TrimRight(spoken, " \t\"”")); m != nil {
		add(m[1])
	}
	for _, m := range opinionAskRe.FindAllStringSubmatch(spoken, -1) {
		add(m[1])
	}
	for _, span := range actionSpanRe.FindAllStringSubmatch(text, -1) {
		for _, m := range actionTargetRe.FindAllStringSubmatch(span[1], -1) {
			add(m[1])
		}
	}
	return out
}

func stripActionSpans(text string) string {
	return actionSpanRe.ReplaceAllString(text, " ")
}
