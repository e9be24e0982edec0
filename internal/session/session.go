// Package session holds the roleplay session state machine: channel
// binding, participant registry, turn history, addressing state, and the
// inactivity and listening timers.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jarlvik/barkeep/internal/extract"
)

// ChannelKind distinguishes where a conversation lives.
type ChannelKind string

const (
	KindDirectMessage ChannelKind = "dm"
	KindThread        ChannelKind = "thread"
	KindChannel       ChannelKind = "channel"
)

// Channel identifies the conversation a session is bound to. The binding is
// fixed at session start and never changes.
type Channel struct {
	ID   string
	Kind ChannelKind
}

// Mode records how the session started.
type Mode string

const (
	ModeRegular     Mode = "regular"
	ModeDirector    Mode = "director-initiated"
	ModeThreadBased Mode = "thread-based"
)

// Origin records how a participant first became known.
type Origin string

const (
	OriginMentioned Origin = "mentioned"
	OriginAddressed Origin = "addressed"
	OriginSpeaking  Origin = "speaking"
	OriginDirector  Origin = "director-mentioned"
)

// Participant is one tracked character. Name equality is case-insensitive.
type Participant struct {
	Name          string `json:"name"`
	Origin        Origin `json:"origin"`
	FirstSeenTurn int    `json:"first_seen_turn"`
	LastSeenTurn  int    `json:"last_seen_turn"`
}

// HistoryEntry is one turn in the bounded turn history.
type HistoryEntry struct {
	Turn    int    `json:"turn"`
	Speaker string `json:"speaker"`
	Agent   bool   `json:"agent"`
}

const (
	maxHistory = 10

	// DefaultInactivityTimeout ends a session with no channel activity.
	DefaultInactivityTimeout = 20 * time.Minute

	// Listening heartbeat bounds: consecutive silent turns before the agent
	// should emit a minimal presence action, and the hard ceiling on turn
	// distance since its last interjection.
	listeningFloorDirector = 5
	listeningFloorDefault  = 8
	interjectGapDirector   = 15
	interjectGapDefault    = 20
)

// Session is the unit of roleplay context for one channel. It is mutated by
// exactly one dispatch worker; the Coordinator guards only the map that owns
// it.
type Session struct {
	ID        string
	Channel   Channel
	Mode      Mode
	Listening bool
	StartedAt time.Time

	// Addressing state the implicit-response rule depends on.
	LastAddressedByAgent string
	LastSpeakerNonAgent  string

	agent        extract.Identity
	participants map[string]*Participant
	order        []string
	history      []HistoryEntry

	turnCounter          int
	consecutiveListening int
	lastInterjectionTurn int
	timeout              time.Duration

	// The activity clock is the one field shared with the janitor sweep;
	// everything else is touched only by the channel's dispatch worker.
	activityMu   sync.Mutex
	lastActivity time.Time
}

// New creates a session bound to the channel. The agent identity acts as the
// block-list keeping the agent out of its own participant registry.
func New(ch Channel, mode Mode, agent extract.Identity, timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = DefaultInactivityTimeout
	}
	now := time.Now().UTC()
	return &Session{
		ID:           uuid.NewString(),
		Channel:      ch,
		Mode:         mode,
		StartedAt:    now,
		agent:        agent,
		participants: make(map[string]*Participant),
		lastActivity: now,
		timeout:      timeout,
	}
}

// AllowsChannel checks channel isolation for a mutating event. A mismatch is
// rejected; a missing identifier on either side fails open and is reported
// as ambiguous so the caller can log it.
func (s *Session) AllowsChannel(ch Channel) (allowed, ambiguous bool) {
	if strings.TrimSpace(s.Channel.ID) == "" || strings.TrimSpace(ch.ID) == "" {
		return true, true
	}
	return s.Channel.ID == ch.ID, false
}

// NextTurn advances and returns the monotonic turn counter.
func (s *Session) NextTurn() int {
	s.turnCounter++
	return s.turnCounter
}

// CurrentTurn returns the latest turn number without advancing.
func (s *Session) CurrentTurn() int { return s.turnCounter }

// AddParticipant registers or refreshes a tracked character. The agent's own
// aliases and invalid names are ignored.
func (s *Session) AddParticipant(name string, origin Origin, turn int) {
	normalized, ok := extract.ValidName(name)
	if !ok || s.agent.Matches(normalized) {
		return
	}
	key := strings.ToLower(normalized)
	if p, exists := s.participants[key]; exists {
		p.LastSeenTurn = turn
		// Speaking is the strongest evidence of presence; upgrade to it.
		if origin == OriginSpeaking {
			p.Origin = OriginSpeaking
		}
		return
	}
	s.participants[key] = &Participant{
		Name:          normalized,
		Origin:        origin,
		FirstSeenTurn: turn,
		LastSeenTurn:  turn,
	}
	s.order = append(s.order, key)
}

// IsParticipant reports whether the name is a tracked non-agent character.
func (s *Session) IsParticipant(name string) bool {
	_, ok := s.participants[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Participants returns tracked characters in first-seen order.
func (s *Session) Participants() []Participant {
	out := make([]Participant, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, *s.participants[key])
	}
	return out
}

// ParticipantCount returns the number of tracked characters.
func (s *Session) ParticipantCount() int { return len(s.participants) }

// MarkTurn appends to the turn history, evicting the oldest entry past the
// bound.
func (s *Session) MarkTurn(speaker string, agent bool, turn int) {
	s.history = append(s.history, HistoryEntry{Turn: turn, Speaker: speaker, Agent: agent})
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
}

// History returns a copy of the turn history, oldest first.
func (s *Session) History() []HistoryEntry {
	out := make([]HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// AgentLastTurn returns the turn number of the agent's most recent entry in
// the history window.
func (s *Session) AgentLastTurn() (int, bool) {
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Agent {
			return s.history[i].Turn, true
		}
	}
	return 0, false
}

// SetEngaged flips to active speaking mode and resets the listening streak.
func (s *Session) SetEngaged() {
	s.Listening = false
	s.consecutiveListening = 0
}

// SetListening flips to passive mode and extends the listening streak.
func (s *Session) SetListening() {
	s.Listening = true
	s.consecutiveListening++
}

// NeedsInterjection reports whether the listening heartbeat should fire: the
// consecutive-listening streak reached the mode's floor, or the turn
// distance since the last interjection reached the ceiling.
func (s *Session) NeedsInterjection(currentTurn int) bool {
	if !s.Listening {
		return false
	}
	floor, gap := listeningFloorDefault, interjectGapDefault
	if s.Mode == ModeDirector {
		floor, gap = listeningFloorDirector, interjectGapDirector
	}
	if s.consecutiveListening >= floor {
		return true
	}
	return currentTurn-s.lastInterjectionTurn >= gap
}

// MarkInterjection records a presence action and resets the listening
// streak.
func (s *Session) MarkInterjection(turn int) {
	s.lastInterjectionTurn = turn
	s.consecutiveListening = 0
}

// Touch records channel activity at the given instant.
func (s *Session) Touch(now time.Time) {
	s.activityMu.Lock()
	s.lastActivity = now.UTC()
	s.activityMu.Unlock()
}

// LastActivity returns the most recent activity instant.
func (s *Session) LastActivity() time.Time {
	s.activityMu.Lock()
	defer s.activityMu.Unlock()
	return s.lastActivity
}

// ShouldAutoExit reports whether the inactivity timeout has elapsed. The
// check is pull-based: callers evaluate it when an event arrives.
func (s *Session) ShouldAutoExit(now time.Time) bool {
	return now.UTC().Sub(s.LastActivity()) >= s.timeout
}

// Snapshot is a serializable view of all session fields for debugging.
func (s *Session) Snapshot() map[string]any {
	return map[string]any{
		"session_id":              s.ID,
		"channel_id":              s.Channel.ID,
		"channel_kind":            string(s.Channel.Kind),
		"mode":                    string(s.Mode),
		"listening":               s.Listening,
		"started_at":              s.StartedAt,
		"last_activity":           s.LastActivity(),
		"turn":                    s.turnCounter,
		"participants":            s.Participants(),
		"history":                 s.History(),
		"last_addressed_by_agent": s.LastAddressedByAgent,
		"last_speaker_non_agent":  s.LastSpeakerNonAgent,
		"consecutive_listening":   s.consecutiveListening,
		"last_interjection_turn":  s.lastInterjectionTurn,
	}
}
