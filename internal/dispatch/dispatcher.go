// Package dispatch runs the per-message control flow: director posts first,
// then session lifecycle, then arbitration and its side effects. One worker
// owns each channel, preserving in-order turn processing per channel while
// allowing cross-channel parallelism.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jarlvik/barkeep/internal/arbiter"
	"github.com/jarlvik/barkeep/internal/content"
	"github.com/jarlvik/barkeep/internal/convo"
	"github.com/jarlvik/barkeep/internal/director"
	"github.com/jarlvik/barkeep/internal/extract"
	"github.com/jarlvik/barkeep/internal/memory"
	"github.com/jarlvik/barkeep/internal/observability"
	"github.com/jarlvik/barkeep/internal/ooc"
	"github.com/jarlvik/barkeep/internal/policy"
	"github.com/jarlvik/barkeep/internal/protocol"
	"github.com/jarlvik/barkeep/internal/session"
	"github.com/jarlvik/barkeep/internal/strategy"
	"github.com/jarlvik/barkeep/internal/trigger"
)

// Outcome is everything one inbound message produced.
type Outcome struct {
	Processed bool                     `json:"processed"`
	Rejected  string                   `json:"rejected,omitempty"` // cause when dropped before arbitration
	Decision  *protocol.DecisionEvent  `json:"decision,omitempty"`
	Reply     *protocol.AgentReply     `json:"reply,omitempty"`
	Presence  *protocol.PresenceAction `json:"presence,omitempty"`
	Events    []protocol.SessionEvent  `json:"events,omitempty"`
}

// Dispatcher owns the end-to-end message pipeline.
type Dispatcher struct {
	log      *slog.Logger
	metrics  *observability.Metrics
	window   *observability.PipelineWindow
	sessions *session.Coordinator
	arbiter  *arbiter.Arbiter
	scorer   *trigger.Scorer
	strategy strategy.Adapter
	archive  memory.Store
	lore     content.Store
	agent    extract.Identity

	mu       sync.Mutex
	channels map[string]*channelState
}

// channelState is the per-channel worker context. Its lock serializes
// message processing for the channel.
type channelState struct {
	mu    sync.Mutex
	convo *convo.Memory
}

func New(
	log *slog.Logger,
	metrics *observability.Metrics,
	window *observability.PipelineWindow,
	sessions *session.Coordinator,
	arb *arbiter.Arbiter,
	scorer *trigger.Scorer,
	strat strategy.Adapter,
	archive memory.Store,
	lore content.Store,
	agent extract.Identity,
) *Dispatcher {
	d := &Dispatcher{
		log:      log,
		metrics:  metrics,
		window:   window,
		sessions: sessions,
		arbiter:  arb,
		scorer:   scorer,
		strategy: strat,
		archive:  archive,
		lore:     lore,
		agent:    agent,
		channels: make(map[string]*channelState),
	}
	// Every end path resets the channel's conversation window, including
	// ends the dispatcher never sees: the janitor sweep and the explicit
	// end endpoint.
	sessions.OnEnd(func(s *session.Session, _ session.EndCause) {
		d.resetChannel(s.Channel.ID)
	})
	return d
}

// resetChannel drops the channel's conversation window so a later session
// starts without stale turns or a stale tone suggestion.
func (d *Dispatcher) resetChannel(channelID string) {
	d.mu.Lock()
	state, ok := d.channels[channelID]
	d.mu.Unlock()
	if ok {
		state.convo.Clear()
	}
}

var presenceActions = []string{
	"*wipes down the counter*",
	"*refills the lantern behind the bar*",
	"*stacks clean tankards under the shelf*",
	"*stokes the hearth without a word*",
	"*polishes a glass, listening*",
}

// Handle processes one inbound chat message end to end.
func (d *Dispatcher) Handle(ctx context.Context, msg protocol.ChatMessage) (Outcome, error) {
	ch := d.channelOf(msg.Channel)
	state := d.stateFor(ch.ID)
	state.mu.Lock()
	defer state.mu.Unlock()

	started := time.Now()
	defer func() {
		d.window.Observe("turn_total", float64(time.Since(started).Microseconds())/1000)
	}()

	parseStart := time.Now()
	post := director.Parse(msg.Text, d.agent)
	d.window.Observe("director_parse", float64(time.Since(parseStart).Microseconds())/1000)

	if post.IsDirectorPost {
		return d.handleDirectorPost(ctx, msg, ch, state, post)
	}

	now := time.Now()
	sess, active := d.sessions.Lookup(ch.ID)
	if active && sess.ShouldAutoExit(now) {
		d.endSession(ch.ID, session.EndTimeout)
		active = false
		sess = nil
	}

	if !active {
		return d.handleInactive(ctx, msg, ch, state, now)
	}
	return d.handleActive(ctx, msg, ch, state, sess, now)
}

// handleDirectorPost applies scene control. Director posts override channel
// eligibility for starting sessions, except on direct-message channels.
func (d *Dispatcher) handleDirectorPost(ctx context.Context, msg protocol.ChatMessage, ch session.Channel, state *channelState, post director.Post) (Outcome, error) {
	d.metrics.DirectorPosts.WithLabelValues(string(post.Action)).Inc()

	switch post.Action {
	case director.ActionSceneEnd:
		out := Outcome{Processed: true}
		if sess, ok := d.sessions.Lookup(ch.ID); ok {
			d.endSession(ch.ID, session.EndDirector)
			out.Events = append(out.Events, protocol.SessionEvent{
				Type:      protocol.TypeSessionEvent,
				ChannelID: ch.ID,
				SessionID: sess.ID,
				Event:     "ended",
				Detail:    string(session.EndDirector),
			})
		}
		return out, nil

	case director.ActionPuppet:
		if msg.Channel.IsDirectMessage {
			return d.reject(ch.ID, "dm-director-restricted"), nil
		}
		sess, ok := d.sessions.Lookup(ch.ID)
		if !ok {
			sess = d.startSession(ch, session.ModeDirector, nil)
		}
		now := time.Now()
		sess.Touch(now)
		turn := sess.NextTurn()
		sess.MarkTurn(d.agent.Name, true, turn)
		sess.SetEngaged()
		state.convo.AddTurn(d.agent.Name, post.PuppetText, turn, "", convo.KindAgent)
		d.archiveTurn(ctx, memory.TurnRecord{
			ChannelID:  ch.ID,
			SessionID:  sess.ID,
			Speaker:    d.agent.Name,
			Role:       "agent",
			Content:    post.PuppetText,
			Reason:     "director-puppet",
			TurnNumber: turn,
		})
		return Outcome{
			Processed: true,
			Reply: &protocol.AgentReply{
				Type:      protocol.TypeAgentReply,
				ChannelID: ch.ID,
				SessionID: sess.ID,
				Turn:      turn,
				Text:      post.PuppetText,
				Reason:    "director-puppet",
			},
		}, nil

	default: // scene-set
		if msg.Channel.IsDirectMessage {
			return d.reject(ch.ID, "dm-director-restricted"), nil
		}
		sess := d.startSession(ch, session.ModeDirector, post.Characters)
		d.archiveTurn(ctx, memory.TurnRecord{
			ChannelID:  ch.ID,
			SessionID:  sess.ID,
			Speaker:    msg.Sender,
			Role:       "director",
			Content:    msg.Text,
			Reason:     string(director.ActionSceneSet),
			TurnNumber: 0,
		})
		return Outcome{
			Processed: true,
			Events: []protocol.SessionEvent{{
				Type:      protocol.TypeSessionEvent,
				ChannelID: ch.ID,
				SessionID: sess.ID,
				Event:     "started",
				Detail:    string(session.ModeDirector),
			}},
		}, nil
	}
}

// handleInactive runs while no session is bound: exit conditions suppress a
// session that is about to start, otherwise the trigger score decides.
func (d *Dispatcher) handleInactive(ctx context.Context, msg protocol.ChatMessage, ch session.Channel, state *channelState, now time.Time) (Outcome, error) {
	if v := ooc.Detect(msg.Text); v.ShouldExit {
		return d.reject(ch.ID, string(v.Reason)), nil
	}

	score, open := d.scorer.ShouldOpen(msg.Text)
	if !open {
		return Outcome{}, nil
	}

	mode := session.ModeRegular
	if msg.Channel.IsThread {
		mode = session.ModeThreadBased
	}
	sess := d.startSession(ch, mode, nil)
	d.log.Info("session opened by trigger score",
		"channel_id", ch.ID, "score", score, "mode", string(mode))

	out, err := d.handleActive(ctx, msg, ch, state, sess, now)
	out.Events = append([]protocol.SessionEvent{{
		Type:      protocol.TypeSessionEvent,
		ChannelID: ch.ID,
		SessionID: sess.ID,
		Event:     "started",
		Detail:    string(mode),
	}}, out.Events...)
	return out, err
}

// handleActive is the arbitration path for a bound session.
func (d *Dispatcher) handleActive(ctx context.Context, msg protocol.ChatMessage, ch session.Channel, state *channelState, sess *session.Session, now time.Time) (Outcome, error) {
	allowed, ambiguous := sess.AllowsChannel(ch)
	if ambiguous {
		// Fail open, but say so: isolation cannot be verified without both
		// channel identities.
		d.log.Warn("ambiguous channel context, allowing event",
			"bound_channel", sess.Channel.ID, "event_channel", ch.ID)
	}
	if !allowed {
		return d.reject(ch.ID, "busy-elsewhere"), nil
	}

	sess.Touch(now)
	turn := sess.NextTurn()

	extractStart := time.Now()
	speaker := extract.SpeakerName(msg.Text)
	if speaker == "" {
		speaker = displayName(msg)
	}
	mentioned := extract.Names(msg.Text)
	addressed := extract.Addressed(msg.Text)
	d.window.Observe("extract", float64(time.Since(extractStart).Microseconds())/1000)

	if !d.agent.Matches(speaker) {
		sess.AddParticipant(speaker, session.OriginSpeaking, turn)
		sess.LastSpeakerNonAgent = speaker
	}
	for _, name := range mentioned {
		sess.AddParticipant(name, session.OriginMentioned, turn)
	}
	for _, name := range addressed {
		sess.AddParticipant(name, session.OriginAddressed, turn)
	}

	var addressee string
	if len(addressed) > 0 {
		addressee = addressed[0]
	}
	state.convo.AddTurn(speaker, msg.Text, turn, addressee, convo.Classify(msg.Text))
	sess.MarkTurn(speaker, false, turn)
	d.archiveTurn(ctx, memory.TurnRecord{
		ChannelID:  ch.ID,
		SessionID:  sess.ID,
		Speaker:    speaker,
		Role:       "character",
		Content:    msg.Text,
		TurnNumber: turn,
	})

	decideStart := time.Now()
	decision := d.arbiter.Decide(arbiter.Message{Text: msg.Text, Speaker: speaker}, sess, turn)
	d.window.Observe("decide", float64(time.Since(decideStart).Microseconds())/1000)
	d.metrics.Decisions.WithLabelValues(string(decision.Reason)).Inc()
	d.window.ObserveReason(string(decision.Reason))

	out := Outcome{
		Processed: true,
		Decision: &protocol.DecisionEvent{
			Type:          protocol.TypeDecisionEvent,
			ChannelID:     ch.ID,
			Turn:          turn,
			ShouldRespond: decision.ShouldRespond,
			Reason:        string(decision.Reason),
		},
	}

	if !decision.ShouldRespond {
		sess.SetListening()
		if sess.NeedsInterjection(turn) {
			text := presenceActions[turn%len(presenceActions)]
			sess.MarkInterjection(turn)
			out.Presence = &protocol.PresenceAction{
				Type:      protocol.TypePresenceAction,
				ChannelID: ch.ID,
				SessionID: sess.ID,
				Text:      text,
			}
		}
		return out, nil
	}

	reply, err := d.generateReply(ctx, state, sess, ch, speaker, msg.Text, turn, decision)
	if err != nil {
		// Arbitration stands even when generation fails; the session stays
		// engaged with the speaker for the implicit chain.
		d.log.Error("reply generation failed", "channel_id", ch.ID, "error", err)
		sess.SetListening()
		return out, fmt.Errorf("generate reply: %w", err)
	}

	replyTurn := sess.NextTurn()
	sess.MarkTurn(d.agent.Name, true, replyTurn)
	sess.SetEngaged()
	if !d.agent.Matches(speaker) {
		sess.LastAddressedByAgent = speaker
	}
	state.convo.AddTurn(d.agent.Name, reply, replyTurn, speaker, convo.KindAgent)
	d.archiveTurn(ctx, memory.TurnRecord{
		ChannelID:  ch.ID,
		SessionID:  sess.ID,
		Speaker:    d.agent.Name,
		Role:       "agent",
		Content:    reply,
		Reason:     string(decision.Reason),
		TurnNumber: replyTurn,
	})

	out.Reply = &protocol.AgentReply{
		Type:      protocol.TypeAgentReply,
		ChannelID: ch.ID,
		SessionID: sess.ID,
		Turn:      replyTurn,
		Text:      reply,
		Reason:    string(decision.Reason),
	}
	return out, nil
}

func (d *Dispatcher) generateReply(ctx context.Context, state *channelState, sess *session.Session, ch session.Channel, speaker, text string, turn int, decision arbiter.Decision) (string, error) {
	suggestion := state.convo.Suggest(turn)
	recent := make([]string, 0, 5)
	for _, t := range state.convo.Turns() {
		recent = append(recent, fmt.Sprintf("%s: %s", t.Speaker, t.Text))
	}

	var loreText string
	for _, theme := range suggestion.Themes {
		entry, found, err := d.lore.Lookup(ctx, theme)
		if err != nil {
			d.log.Warn("reference text lookup failed", "subject", theme, "error", err)
			break
		}
		if found {
			loreText = entry
			break
		}
	}

	replyStart := time.Now()
	res, err := d.strategy.Reply(ctx, strategy.Request{
		SessionID: sess.ID,
		ChannelID: ch.ID,
		Turn:      turn,
		Reason:    string(decision.Reason),
		Speaker:   speaker,
		InputText: text,
		Recent:    recent,
		Tone:      suggestion.Tone,
		Approach:  suggestion.Approach,
		Themes:    suggestion.Themes,
		Lore:      loreText,
	})
	elapsed := time.Since(replyStart)
	d.metrics.ObserveStrategyLatency(elapsed)
	d.window.Observe("reply_generate", float64(elapsed.Microseconds())/1000)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(res.Text) == "" {
		return "", fmt.Errorf("strategy returned empty reply")
	}
	return res.Text, nil
}

func (d *Dispatcher) startSession(ch session.Channel, mode session.Mode, cast []string) *session.Session {
	sess := d.sessions.Start(ch, mode)
	for _, name := range cast {
		sess.AddParticipant(name, session.OriginDirector, 0)
	}
	d.metrics.SessionsStarted.WithLabelValues(string(mode)).Inc()
	d.metrics.ActiveSessions.Set(float64(d.sessions.ActiveCount()))
	return sess
}

// endSession delegates to the coordinator; end hooks own the conversation
// reset and the session-ended metrics, so every end path behaves the same.
func (d *Dispatcher) endSession(channelID string, cause session.EndCause) {
	if err := d.sessions.End(channelID, cause); err != nil {
		return
	}
	d.metrics.ActiveSessions.Set(float64(d.sessions.ActiveCount()))
}

func (d *Dispatcher) reject(channelID, cause string) Outcome {
	d.metrics.RejectedEvents.WithLabelValues(cause).Inc()
	return Outcome{Rejected: cause}
}

func (d *Dispatcher) archiveTurn(ctx context.Context, record memory.TurnRecord) {
	record.Content, _ = policy.RedactPII(record.Content)
	if err := d.archive.SaveTurn(ctx, record); err != nil {
		d.log.Warn("turn archive write failed", "channel_id", record.ChannelID, "error", err)
	}
}

func (d *Dispatcher) stateFor(channelID string) *channelState {
	d.mu.Lock()
	defer d.mu.Unlock()
	state, ok := d.channels[channelID]
	if !ok {
		state = &channelState{convo: convo.NewMemory()}
		d.channels[channelID] = state
	}
	return state
}

func (d *Dispatcher) channelOf(cc protocol.ChannelContext) session.Channel {
	kind := session.KindChannel
	switch {
	case cc.IsDirectMessage:
		kind = session.KindDirectMessage
	case cc.IsThread:
		kind = session.KindThread
	}
	return session.Channel{ID: cc.ChannelID, Kind: kind}
}

func displayName(msg protocol.ChatMessage) string {
	if name := strings.TrimSpace(msg.Channel.DisplayName); name != "" {
		return name
	}
	return strings.TrimSpace(msg.Sender)
}
