package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jarlvik/barkeep/internal/extract"
)

// EndCause explains why a session ended.
type EndCause string

const (
	EndDirector EndCause = "director-scene-end"
	EndTimeout  EndCause = "inactivity-timeout"
	EndExplicit EndCause = "explicit"
)

var ErrNotFound = errors.New("no session for channel")

// Coordinator owns the channel-to-session map: at most one active session
// per channel, each exclusively mutated by that channel's dispatch worker.
// The coordinator's lock guards only map membership, never turn processing.
type Coordinator struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	agent   extract.Identity
	timeout time.Duration
	onEnd   []func(*Session, EndCause)
}

func NewCoordinator(agent extract.Identity, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultInactivityTimeout
	}
	return &Coordinator{
		sessions: make(map[string]*Session),
		agent:    agent,
		timeout:  timeout,
	}
}

// OnEnd registers a callback invoked after any session ends, with its
// cause: explicit, director, replacement, and janitor expiry all fire it.
// Hooks run in registration order. Used for telemetry and per-channel
// cleanup.
func (c *Coordinator) OnEnd(hook func(*Session, EndCause)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEnd = append(c.onEnd, hook)
}

func (c *Coordinator) fireEnd(hooks []func(*Session, EndCause), s *Session, cause EndCause) {
	for _, hook := range hooks {
		hook(s, cause)
	}
}

// Start binds a new session to the channel. An existing session on the same
// channel is replaced: a fresh director scene supersedes whatever came
// before, and the old session ends with the explicit cause.
func (c *Coordinator) Start(ch Channel, mode Mode) *Session {
	c.mu.Lock()
	old := c.sessions[ch.ID]
	s := New(ch, mode, c.agent, c.timeout)
	c.sessions[ch.ID] = s
	hooks := c.onEnd
	c.mu.Unlock()

	if old != nil {
		c.fireEnd(hooks, old, EndExplicit)
	}
	return s
}

// Lookup returns the session bound to the channel, if any.
func (c *Coordinator) Lookup(channelID string) (*Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[channelID]
	return s, ok
}

// End removes the channel's session. Returns ErrNotFound when nothing is
// bound.
func (c *Coordinator) End(channelID string, cause EndCause) error {
	c.mu.Lock()
	s, ok := c.sessions[channelID]
	if ok {
		delete(c.sessions, channelID)
	}
	hooks := c.onEnd
	c.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	c.fireEnd(hooks, s, cause)
	return nil
}

// ActiveCount returns the number of bound sessions.
func (c *Coordinator) ActiveCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Snapshots returns a debug view of every bound session.
func (c *Coordinator) Snapshots() []map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]map[string]any, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s.Snapshot())
	}
	return out
}

// ExpireInactive ends every session past its inactivity timeout. The
// dispatch path also checks the timeout on arrival; the sweep covers
// channels that simply went quiet.
func (c *Coordinator) ExpireInactive(now time.Time) int {
	c.mu.Lock()
	var expired []*Session
	for id, s := range c.sessions {
		if s.ShouldAutoExit(now) {
			expired = append(expired, s)
			delete(c.sessions, id)
		}
	}
	hooks := c.onEnd
	c.mu.Unlock()

	for _, s := range expired {
		c.fireEnd(hooks, s, EndTimeout)
	}
	return len(expired)
}

// StartJanitor periodically sweeps for timed-out sessions until the context
// is done.
func (c *Coordinator) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.ExpireInactive(time.Now())
			}
		}
	}()
}
