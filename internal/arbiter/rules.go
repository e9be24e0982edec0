package arbiter

import (
	"regexp"
	"strings"
)

var (
	walkAwayRe = regexp.MustCompile(`(?i)\b(?:walks?\s+(?:away|out|off)|leaves?\s+the\s+(?:bar|room|tavern|inn|scene)|storms?\s+(?:out|off)|heads?\s+(?:for|to)\s+the\s+door|exits?|departs?)\b`)

	actionOnlyRe   = regexp.MustCompile(`^\s*(?:\*[^*]+\*\s*)+$`)
	quotedSpeechRe = regexp.MustCompile(`"[^"]+"|“[^”]+”`)

	orderVerbRe = regexp.MustCompile(`(?i)\b(?:orders?|pours?|brings?|fetch(?:es)?|refills?|serves?|slides?|taps?|raises?|gestures?|signals?|motions?|asks?\s+for|waves?\s+for)\b`)
	drinkNounRe = regexp.MustCompile(`(?i)\b(?:ale|mead|wine|beer|whiskey|whisky|drink|tankard|mug|glass|bottle|pint|round|bar|barkeep|counter)\b`)

	wordSplitRe = regexp.MustCompile(`\S+`)
)

var nonRoleplayIndicators = []string{
	"lol", "lmao", "rofl", "brb", "btw", "irl", "ooc", "afk",
	"http://", "https://", "imo", "tbh", "dm me", "nvm",
}

func containsWalkAway(text string) bool {
	return walkAwayRe.MatchString(text)
}

func wordCount(text string) int {
	return len(wordSplitRe.FindAllString(text, -1))
}

func containsNonRoleplayIndicator(text string) bool {
	lower := strings.ToLower(text)
	for _, ind := range nonRoleplayIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

// isSubtleServiceRequest matches messages that are nothing but action markup
// (no quoted dialogue) whose emote orders or requests something at the bar.
func isSubtleServiceRequest(text string) bool {
	if !actionOnlyRe.MatchString(text) || quotedSpeechRe.MatchString(text) {
		return false
	}
	return orderVerbRe.MatchString(text) && drinkNounRe.MatchString(text)
}

// containsWord does a word-boundary check inside a lowercased, space-padded
// haystack.
func containsWord(paddedLower, word string) bool {
	idx := 0
	for {
		i := strings.Index(paddedLower[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		before := paddedLower[start-1]
		after := paddedLower[end]
		if !isWordByte(before) && !isWordByte(after) {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '\'' || b == '-'
}
