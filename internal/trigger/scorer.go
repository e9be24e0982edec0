// Package trigger scores how strongly a message looks like the opening of a
// roleplay scene when no director post and no active session preceded it. A
// simple weighted-signal heuristic: each independent signal adds its weight,
// and the sum is clamped to [0, 1].
package trigger

import (
	"regexp"

	"github.com/jarlvik/barkeep/internal/extract"
	"github.com/jarlvik/barkeep/internal/ooc"
)

// DefaultThreshold opens a session when the score crosses it.
const DefaultThreshold = 0.55

var (
	actionMarkupRe = regexp.MustCompile(`\*[^*]+\*`)
	quotedSpeechRe = regexp.MustCompile(`"[^"]+"|“[^”]+”`)
	sceneVerbRe    = regexp.MustCompile(`(?i)\b(?:enters?|arrives?|sits\s+down|settles?\s+in|approaches|strides?\s+in|walks?\s+in|pushes?\s+open)\b`)
	barSettingRe   = regexp.MustCompile(`(?i)\b(?:tavern|inn|bar|hearth|counter|ale|mead|tankard)\b`)
)

// Scorer weighs roleplay signals against a threshold.
type Scorer struct {
	agent     extract.Identity
	threshold float64
}

func NewScorer(agent extract.Identity, threshold float64) *Scorer {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Scorer{agent: agent, threshold: threshold}
}

// Score rates the message's roleplay likelihood in [0, 1]. Out-of-character
// signals zero the score outright: a session must not open on a message that
// is explicitly out of character.
func (sc *Scorer) Score(text string) float64 {
	if v := ooc.Detect(text); v.ShouldExit {
		return 0
	}

	score := 0.0
	if actionMarkupRe.MatchString(text) {
		score += 0.40
	}
	if quotedSpeechRe.MatchString(text) {
		score += 0.20
	}
	if sc.agent.MentionedIn(text) {
		score += 0.35
	}
	if len(extract.Names(text)) > 0 {
		score += 0.15
	}
	if sceneVerbRe.MatchString(text) {
		score += 0.15
	}
	if barSettingRe.MatchString(text) {
		score += 0.10
	}
	if score > 1 {
		score = 1
	}
	return score
}

// ShouldOpen reports whether the score crosses the session-opening
// threshold.
func (sc *Scorer) ShouldOpen(text string) (float64, bool) {
	score := sc.Score(text)
	return score, score >= sc.threshold
}
