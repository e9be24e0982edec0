package arbiter

import (
	"testing"
	"time"

	"github.com/jarlvik/barkeep/internal/extract"
	"github.com/jarlvik/barkeep/internal/session"
)

var agent = extract.Identity{Name: "Brynhild", Aliases: []string{"barkeep", "bartender"}}

func newSession(mode session.Mode) *session.Session {
	return session.New(session.Channel{ID: "chan-1", Kind: session.KindChannel}, mode, agent, time.Hour)
}

func TestDirectorModePassiveUnlessAgentSpeaks(t *testing.T) {
	a := New(agent)
	s := newSession(session.ModeDirector)
	s.AddParticipant("Tavi", session.OriginDirector, 1)

	d := a.Decide(Message{Text: "[Tavi] pours out her story", Speaker: "Tavi"}, s, 2)
	if d.ShouldRespond || d.Reason != ReasonDirectorPassive {
		t.Fatalf("got %+v, want passive listening", d)
	}

	d = a.Decide(Message{Text: "[Brynhild] wipes the counter", Speaker: "Brynhild"}, s, 3)
	if !d.ShouldRespond || d.Reason != ReasonDirectorDirectAddress {
		t.Fatalf("got %+v, want director-direct-address", d)
	}
}

func TestDirectAddressByAlias(t *testing.T) {
	a := New(agent)
	s := newSession(session.ModeRegular)
	d := a.Decide(Message{Text: "Another ale, barkeep!", Speaker: "Tavi"}, s, 1)
	if !d.ShouldRespond || d.Reason != ReasonDirectAddress {
		t.Fatalf("got %+v, want direct-address", d)
	}
}

func TestExplicitRedirectionToKnownParticipant(t *testing.T) {
	a := New(agent)
	s := newSession(session.ModeRegular)
	s.AddParticipant("Maeve", session.OriginSpeaking, 1)
	s.AddParticipant("Tavi", session.OriginSpeaking, 1)

	d := a.Decide(Message{Text: "Maeve, what do you think?", Speaker: "Tavi"}, s, 2)
	if d.ShouldRespond || d.Reason != ReasonExplicitRedirection {
		t.Fatalf("got %+v, want explicit-redirection", d)
	}
}

func TestWalkingAway(t *testing.T) {
	a := New(agent)
	s := newSession(session.ModeRegular)
	s.AddParticipant("Tavi", session.OriginSpeaking, 1)
	s.AddParticipant("Maeve", session.OriginSpeaking, 1)

	d := a.Decide(Message{Text: "*finishes the mead and walks out into the night*", Speaker: "Tavi"}, s, 2)
	if d.ShouldRespond || d.Reason != ReasonWalkingAway {
		t.Fatalf("got %+v, want character-walking-away", d)
	}
}

func TestImplicitChainWindow(t *testing.T) {
	a := New(agent)
	s := newSession(session.ModeRegular)
	s.AddParticipant("Tavi", session.OriginSpeaking, 3)
	s.AddParticipant("Maeve", session.OriginSpeaking, 3)
	s.LastAddressedByAgent = "Tavi"
	s.MarkTurn(agent.Name, true, 5)

	msg := Message{Text: "it was a long road, truth be told", Speaker: "Tavi"}

	for _, turn := range []int{6, 7} {
		d := a.Decide(msg, s, turn)
		if !d.ShouldRespond || d.Reason != ReasonImplicitMulti {
			t.Fatalf("turn %d: got %+v, want implicit-multi-character", turn, d)
		}
	}

	d := a.Decide(msg, s, 8)
	if d.ShouldRespond {
		t.Fatalf("turn 8: got %+v, want window expired", d)
	}
}

func TestImplicitChainSingleParticipantReason(t *testing.T) {
	a := New(agent)
	s := newSession(session.ModeRegular)
	s.AddParticipant("Tavi", session.OriginSpeaking, 1)
	s.LastAddressedByAgent = "Tavi"
	s.MarkTurn(agent.Name, true, 2)

	d := a.Decide(Message{Text: "aye, that it was", Speaker: "Tavi"}, s, 3)
	if !d.ShouldRespond || d.Reason != ReasonImplicitSingle {
		t.Fatalf("got %+v, want implicit-single-character", d)
	}
}

func TestImplicitChainBrokenByOtherParticipantMention(t *testing.T) {
	a := New(agent)
	s := newSession(session.ModeRegular)
	s.AddParticipant("Tavi", session.OriginSpeaking, 3)
	s.AddParticipant("Maeve", session.OriginSpeaking, 3)
	s.LastAddressedByAgent = "Tavi"
	s.MarkTurn(agent.Name, true, 5)

	d := a.Decide(Message{Text: "*glances over at Maeve nervously*", Speaker: "Tavi"}, s, 6)
	if d.ShouldRespond {
		t.Fatalf("got %+v, a mention of another participant must break the chain", d)
	}
}

func TestThreadSubstantialMessage(t *testing.T) {
	a := New(agent)
	s := newSession(session.ModeThreadBased)
	s.AddParticipant("Tavi", session.OriginSpeaking, 1)
	s.AddParticipant("Maeve", session.OriginSpeaking, 1)

	long := Message{
		Text:    "The rain had not let up since the caravan crossed the old stone bridge at dusk",
		Speaker: "Tavi",
	}
	d := a.Decide(long, s, 2)
	if !d.ShouldRespond || d.Reason != ReasonThreadSubstantial {
		t.Fatalf("got %+v, want thread-substantial-message", d)
	}

	short := Message{Text: "fine by me", Speaker: "Tavi"}
	if d := a.Decide(short, s, 3); d.ShouldRespond {
		t.Fatalf("short thread message: got %+v, want listening", d)
	}

	meta := Message{
		Text:    "lol anyway that was a really wild session we should totally pick this up tomorrow night folks",
		Speaker: "Tavi",
	}
	if d := a.Decide(meta, s, 4); d.Reason == ReasonThreadSubstantial {
		t.Fatalf("non-roleplay indicator should block the thread rule, got %+v", d)
	}
}

func TestSingleCharacterSubstantial(t *testing.T) {
	a := New(agent)
	s := newSession(session.ModeRegular)
	s.AddParticipant("Tavi", session.OriginSpeaking, 1)

	d := a.Decide(Message{Text: "quiet in here tonight", Speaker: "Tavi"}, s, 2)
	if !d.ShouldRespond || d.Reason != ReasonSingleCharSubstantial {
		t.Fatalf("got %+v, want single-character-substantial", d)
	}
}

func TestSubtleBarService(t *testing.T) {
	a := New(agent)
	s := newSession(session.ModeRegular)
	s.AddParticipant("Tavi", session.OriginSpeaking, 1)
	s.AddParticipant("Maeve", session.OriginSpeaking, 1)
	s.AddParticipant("Fallo", session.OriginSpeaking, 1)

	d := a.Decide(Message{Text: "*raises an empty tankard toward the counter*", Speaker: "Fallo"}, s, 2)
	if !d.ShouldRespond || d.Reason != ReasonSubtleBarService {
		t.Fatalf("got %+v, want subtle-bar-service", d)
	}

	spoken := Message{Text: `*raises a tankard* "To the north road!"`, Speaker: "Fallo"}
	if d := a.Decide(spoken, s, 3); d.Reason == ReasonSubtleBarService {
		t.Fatalf("dialogue present, subtle-service must not fire: %+v", d)
	}
}

func TestDefaultListening(t *testing.T) {
	a := New(agent)
	s := newSession(session.ModeRegular)
	s.AddParticipant("Tavi", session.OriginSpeaking, 1)
	s.AddParticipant("Maeve", session.OriginSpeaking, 1)

	d := a.Decide(Message{Text: "the night wears on", Speaker: "Tavi"}, s, 2)
	if d.ShouldRespond || d.Reason != ReasonListening {
		t.Fatalf("got %+v, want listening", d)
	}
}
