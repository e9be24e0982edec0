// Package arbiter decides, per incoming message, whether the agent should
// speak and why. The decision procedure is a strict priority pipeline of
// independently testable rules; the arbiter itself never mutates session
// state; the dispatcher applies side effects after the decision.
package arbiter

import (
	"strings"

	"github.com/jarlvik/barkeep/internal/extract"
	"github.com/jarlvik/barkeep/internal/session"
)

// Reason is the machine-readable cause attached to every decision.
type Reason string

const (
	ReasonDirectorDirectAddress Reason = "director-direct-address"
	ReasonDirectorPassive       Reason = "director-passive-listening"
	ReasonDirectAddress         Reason = "direct-address"
	ReasonExplicitRedirection   Reason = "explicit-redirection"
	ReasonWalkingAway           Reason = "character-walking-away"
	ReasonImplicitSingle        Reason = "implicit-single-character"
	ReasonImplicitMulti         Reason = "implicit-multi-character"
	ReasonThreadSubstantial     Reason = "thread-substantial-message"
	ReasonSingleCharSubstantial Reason = "single-character-substantial"
	ReasonSubtleBarService      Reason = "subtle-bar-service"
	ReasonListening             Reason = "listening"
)

// Decision is the arbiter output. Pure value, never persisted.
type Decision struct {
	ShouldRespond bool
	Reason        Reason
}

// Message is the arbiter's view of one inbound chat message.
type Message struct {
	Text    string
	Speaker string
}

// Arbiter evaluates the priority-ordered response rules.
type Arbiter struct {
	agent extract.Identity
	rules []rule
}

type rule struct {
	name string
	eval func(*evalContext) (Decision, bool)
}

// evalContext carries per-message derived facts shared between rules.
type evalContext struct {
	msg       Message
	sess      *session.Session
	turn      int
	agent     extract.Identity
	addressed []string
}

func New(agent extract.Identity) *Arbiter {
	a := &Arbiter{agent: agent}
	a.rules = []rule{
		{"director-mode", ruleDirectorMode},
		{"direct-address", ruleDirectAddress},
		{"explicit-redirection", ruleExplicitRedirection},
		{"walking-away", ruleWalkingAway},
		{"implicit-chain", ruleImplicitChain},
		{"thread-substantial", ruleThreadSubstantial},
		{"single-character", ruleSingleCharacter},
		{"subtle-service", ruleSubtleService},
	}
	return a
}

// Decide runs the rules in priority order; the first rule that fires wins.
// No rule firing means the agent keeps listening.
func (a *Arbiter) Decide(msg Message, sess *session.Session, turn int) Decision {
	ctx := &evalContext{
		msg:       msg,
		sess:      sess,
		turn:      turn,
		agent:     a.agent,
		addressed: extract.Addressed(msg.Text),
	}
	for _, r := range a.rules {
		if d, ok := r.eval(ctx); ok {
			return d
		}
	}
	return Decision{ShouldRespond: false, Reason: ReasonListening}
}

// Rule 1: while the director runs the scene the agent stays passive unless
// the post speaks as the agent itself.
func ruleDirectorMode(ctx *evalContext) (Decision, bool) {
	if ctx.sess.Mode != session.ModeDirector {
		return Decision{}, false
	}
	if ctx.agent.Matches(ctx.msg.Speaker) {
		return Decision{ShouldRespond: true, Reason: ReasonDirectorDirectAddress}, true
	}
	return Decision{ShouldRespond: false, Reason: ReasonDirectorPassive}, true
}

// Rule 2: the message names or addresses the agent.
func ruleDirectAddress(ctx *evalContext) (Decision, bool) {
	if ctx.agent.MentionedIn(ctx.msg.Text) {
		return Decision{ShouldRespond: true, Reason: ReasonDirectAddress}, true
	}
	return Decision{}, false
}

// Rule 3: the message explicitly addresses a different known participant.
func ruleExplicitRedirection(ctx *evalContext) (Decision, bool) {
	if redirectsToParticipant(ctx) {
		return Decision{ShouldRespond: false, Reason: ReasonExplicitRedirection}, true
	}
	return Decision{}, false
}

func redirectsToParticipant(ctx *evalContext) bool {
	for _, name := range ctx.addressed {
		if ctx.agent.Matches(name) {
			continue
		}
		if ctx.sess.IsParticipant(name) {
			return true
		}
	}
	return false
}

// Rule 4: the character is leaving the scene.
func ruleWalkingAway(ctx *evalContext) (Decision, bool) {
	if containsWalkAway(ctx.msg.Text) {
		return Decision{ShouldRespond: false, Reason: ReasonWalkingAway}, true
	}
	return Decision{}, false
}

// Rule 5: the implicit-response chain. The agent keeps a dialogue going with
// whoever it last directly addressed, inside a two-turn window, as long as
// no other participant is pulled in.
func ruleImplicitChain(ctx *evalContext) (Decision, bool) {
	last := ctx.sess.LastAddressedByAgent
	if last == "" || !strings.EqualFold(ctx.msg.Speaker, last) {
		return Decision{}, false
	}
	agentTurn, ok := ctx.sess.AgentLastTurn()
	if !ok || ctx.turn-agentTurn > 2 {
		return Decision{}, false
	}
	if redirectsToParticipant(ctx) {
		return Decision{}, false
	}
	if mentionsOtherParticipant(ctx) {
		return Decision{}, false
	}
	reason := ReasonImplicitMulti
	if ctx.sess.ParticipantCount() <= 1 {
		reason = ReasonImplicitSingle
	}
	return Decision{ShouldRespond: true, Reason: reason}, true
}

// mentionsOtherParticipant reports whether any known participant other than
// the speaker appears anywhere in the message, emote or vocative.
func mentionsOtherParticipant(ctx *evalContext) bool {
	lower := " " + strings.ToLower(ctx.msg.Text) + " "
	for _, p := range ctx.sess.Participants() {
		if strings.EqualFold(p.Name, ctx.msg.Speaker) {
			continue
		}
		if containsWord(lower, strings.ToLower(p.Name)) {
			return true
		}
	}
	return false
}

// Rule 6: substantial in-character messages in a thread session.
func ruleThreadSubstantial(ctx *evalContext) (Decision, bool) {
	if ctx.sess.Mode != session.ModeThreadBased {
		return Decision{}, false
	}
	if wordCount(ctx.msg.Text) < 10 || containsNonRoleplayIndicator(ctx.msg.Text) {
		return Decision{}, false
	}
	return Decision{ShouldRespond: true, Reason: ReasonThreadSubstantial}, true
}

// Rule 7: a lone character talking to a non-empty room gets a reply.
func ruleSingleCharacter(ctx *evalContext) (Decision, bool) {
	if ctx.sess.ParticipantCount() > 1 {
		return Decision{}, false
	}
	if strings.TrimSpace(ctx.msg.Text) == "" {
		return Decision{}, false
	}
	return Decision{ShouldRespond: true, Reason: ReasonSingleCharSubstantial}, true
}

// Rule 8: a pure emote quietly ordering something from the bar.
func ruleSubtleService(ctx *evalContext) (Decision, bool) {
	if isSubtleServiceRequest(ctx.msg.Text) {
		return Decision{ShouldRespond: true, Reason: ReasonSubtleBarService}, true
	}
	return Decision{}, false
}
