package extract

import (
	"regexp"
	"strings"
)

// Identity is the agent's own name and aliases. Participant tracking and
// direct-address checks both treat any of these, case-insensitively, as "the
// agent", never as a character.
type Identity struct {
	Name    string
	Aliases []string
}

// Matches reports whether the token is the agent's name or one of its
// aliases.
func (id Identity) Matches(token string) bool {
	tok := strings.ToLower(strings.Trim(strings.TrimSpace(token), "[]"))
	if tok == "" {
		return false
	}
	if tok == strings.ToLower(id.Name) {
		return true
	}
	for _, a := range id.Aliases {
		if tok == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// MentionedIn reports whether the text names the agent anywhere: plain word,
// vocative, or bracketed tag.
func (id Identity) MentionedIn(text string) bool {
	for _, tok := range wordRe.FindAllString(text, -1) {
		if id.Matches(tok) {
			return true
		}
	}
	return false
}

var wordRe = regexp.MustCompile(`[\p{L}'-]+`)
