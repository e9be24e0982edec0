// Package convo keeps a short, ordered window of recent conversation turns
// and derives a cached tone/theme suggestion used to steer replies.
package convo

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// Kind classifies a message's composition.
type Kind string

const (
	KindPlain    Kind = "plain"
	KindAction   Kind = "contains-action"
	KindDialogue Kind = "contains-dialogue"
	KindMixed    Kind = "mixed"
	KindAgent    Kind = "agent-response"
)

var (
	actionRe   = regexp.MustCompile(`\*[^*]+\*`)
	dialogueRe = regexp.MustCompile(`"[^"]+"|“[^”]+”`)
)

// Classify inspects raw text for action markup and quoted dialogue.
func Classify(text string) Kind {
	action := actionRe.MatchString(text)
	dialogue := dialogueRe.MatchString(text)
	switch {
	case action && dialogue:
		return KindMixed
	case action:
		return KindAction
	case dialogue:
		return KindDialogue
	default:
		return KindPlain
	}
}

// Turn is one unit of conversation attributed to a single speaker.
type Turn struct {
	Speaker   string
	Text      string
	Number    int
	Timestamp time.Time
	Kind      Kind
	Addressee string
}

// Suggestion is the derived read on the recent conversation.
type Suggestion struct {
	Tone     string
	Approach string
	Themes   []string
}

const (
	maxTurns = 5
	// Re-analysis is throttled to roughly every other turn.
	analysisInterval = 2
)

// Memory is a bounded ring of recent turns. The channel's dispatch worker
// is the only writer of turns, but Clear can arrive from the session end
// hook on the janitor goroutine, so access is guarded.
type Memory struct {
	mu    sync.Mutex
	turns []Turn

	lastAnalysisTurn int
	cached           Suggestion
	analyzed         bool
}

func NewMemory() *Memory {
	return &Memory{}
}

// AddTurn appends a turn, evicting the oldest past the window bound.
func (m *Memory) AddTurn(speaker, text string, number int, addressee string, kind Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, Turn{
		Speaker:   speaker,
		Text:      text,
		Number:    number,
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Addressee: addressee,
	})
	if len(m.turns) > maxTurns {
		m.turns = m.turns[len(m.turns)-maxTurns:]
	}
}

// Turns returns a copy of the stored window, oldest first.
func (m *Memory) Turns() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// HasSufficientContext is true once at least two turns are stored.
func (m *Memory) HasSufficientContext() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns) >= 2
}

// LastTurnBy returns the most recent turn from the named speaker,
// case-insensitively.
func (m *Memory) LastTurnBy(speaker string) (Turn, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.turns) - 1; i >= 0; i-- {
		if strings.EqualFold(m.turns[i].Speaker, speaker) {
			return m.turns[i], true
		}
	}
	return Turn{}, false
}

// Suggest returns the derived tone/approach/themes. The analysis is
// recomputed only when the current turn is at least two turns past the last
// analysis; otherwise the cached suggestion is returned.
func (m *Memory) Suggest(currentTurn int) Suggestion {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.analyzed && currentTurn-m.lastAnalysisTurn < analysisInterval {
		return m.cached
	}
	m.cached = m.analyze()
	m.lastAnalysisTurn = currentTurn
	m.analyzed = true
	return m.cached
}

// Clear resets the window and the cached analysis on session end.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
	m.lastAnalysisTurn = 0
	m.cached = Suggestion{}
	m.analyzed = false
}

var themeWords = []struct {
	name  string
	words []string
}{
	{"drinks", []string{"ale", "mead", "wine", "beer", "whiskey", "drink", "tankard", "mug", "bottle", "pour"}},
	{"conflict", []string{"fight", "sword", "blade", "argue", "shout", "anger", "threat", "blood"}},
	{"travel", []string{"road", "journey", "ship", "voyage", "travel", "map", "north", "harbor"}},
	{"celebration", []string{"toast", "song", "dance", "laugh", "feast", "cheer", "celebrate"}},
	{"mystery", []string{"whisper", "secret", "rumor", "stranger", "hooded", "shadow", "hidden"}},
}

func (m *Memory) analyze() Suggestion {
	joined := strings.ToLower(joinTexts(m.turns))

	s := Suggestion{Tone: "neutral", Approach: "attentive"}
	exclaims := strings.Count(joined, "!")
	questions := strings.Count(joined, "?")
	switch {
	case exclaims >= 2 && exclaims > questions:
		s.Tone = "lively"
		s.Approach = "match-energy"
	case questions >= 2:
		s.Tone = "inquisitive"
		s.Approach = "forthcoming"
	case strings.Contains(joined, "...") || strings.Contains(joined, "sigh"):
		s.Tone = "somber"
		s.Approach = "gentle"
	}

	for _, theme := range themeWords {
		for _, w := range theme.words {
			if strings.Contains(joined, w) {
				s.Themes = append(s.Themes, theme.name)
				break
			}
		}
	}
	return s
}

func joinTexts(turns []Turn) string {
	parts := make([]string, len(turns))
	for i, t := range turns {
		parts[i] = t.Text
	}
	return strings.Join(parts, "\n")
}
