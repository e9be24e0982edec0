package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Patterns for locating candidate character names in raw chat text. The
// extractor never fails: text with no recognizable name yields an empty
// result.
var (
	bracketTagRe = regexp.MustCompile(`\[([^\[\]]{1,64})\]`)
	actionSpanRe = regexp.MustCompile(`\*([^*]{1,256})\*`)

	// Name immediately before a speech or scene verb ("Fallo says ...",
	// "Maeve enters").
	verbAdjacentRe = regexp.MustCompile(`\b(\p{Lu}[\p{L}'-]+)\s+(?:says|said|asks|asked|replies|replied|whispers|shouts|exclaims|mutters|enters|arrives|nods|smiles|laughs|sighs|grins)\b`)

	capitalTokenRe = regexp.MustCompile(`\p{Lu}[\p{L}'-]+`)
)

// Names returns every validated character name mentioned in the text:
// bracketed speaker tags, names inside *action markup*, and names adjacent
// to speech/action verbs. Order of first appearance, deduplicated
// case-insensitively.
func Names(text string) []string {
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

	for _, m := range bracketTagRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range actionSpanRe.FindAllStringSubmatch(text, -1) {
		for _, tok := range capitalTokenRe.FindAllString(m[1], -1) {
			add(tok)
		}
	}
	for _, m := range verbAdjacentRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	return out
}

// SpeakerName pulls the speaker a message claims to be from, when the text
// opens with a bracketed speaker tag. Empty string when there is none.
func SpeakerName(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "[") {
		return ""
	}
	m := bracketTagRe.FindStringSubmatch(trimmed)
	if m == nil {
		return ""
	}
	name, ok := ValidName(m[1])
	if !ok {
		return ""
	}
	return name
}

// ValidName reports whether the token can be a character name, returning the
// normalized form. Rules: at least two letters after stripping brackets, not
// a stop word, only Latin letters (including the Nordic and Icelandic
// diacritic range) plus internal hyphens/apostrophes, and an uppercase first
// letter.
func ValidName(raw string) (string, bool) {
	tok := strings.Trim(strings.TrimSpace(raw), "[]")
	tok = strings.Trim(tok, ".,:;!?\"“”")
	if tok == "" {
		return "", false
	}
	runes := []rune(tok)
	letters := 0
	for i, r := range runes {
		switch {
		case isNameLetter(r):
			letters++
		case (r == '-' || r == '\'' || r == '’') && i > 0 && i < len(runes)-1:
			// internal separator only
		default:
			return "", false
		}
	}
	if letters < 2 {
		return "", false
	}
	if !unicode.IsUpper(runes[0]) {
		return "", false
	}
	if isStopWord(tok) {
		return "", false
	}
	return Normalize(tok), true
}

// Normalize capitalizes each hyphen- or apostrophe-delimited sub-word,
// preserving diacritics ("anna-LÍSA" -> "Anna-Lísa").
func Normalize(name string) string {
	var b strings.Builder
	startOfWord := true
	for _, r := range name {
		switch {
		case r == '-' || r == '\'' || r == '’':
			b.WriteRune(r)
			startOfWord = true
		case startOfWord:
			b.WriteRune(unicode.ToUpper(r))
			startOfWord = false
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// isNameLetter accepts ASCII Latin letters plus the Latin-1 letter range
// that covers Nordic and Icelandic diacritics (á, ð, þ, æ, ö, å, ø, ...).
func isNameLetter(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= 'À' && r <= 'Ö', r >= 'Ø' && r <= 'ö', r >= 'ø' && r <= 'ÿ':
		return true
	}
	return false
}
