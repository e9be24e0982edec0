package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/jarlvik/barkeep/internal/config"
	"github.com/jarlvik/barkeep/internal/dispatch"
	"github.com/jarlvik/barkeep/internal/memory"
	"github.com/jarlvik/barkeep/internal/observability"
	"github.com/jarlvik/barkeep/internal/protocol"
	"github.com/jarlvik/barkeep/internal/reliability"
	"github.com/jarlvik/barkeep/internal/session"
)

// Handler processes one inbound chat message end to end.
type Handler interface {
	Handle(ctx context.Context, msg protocol.ChatMessage) (dispatch.Outcome, error)
}

type Server struct {
	cfg      config.Config
	sessions *session.Coordinator
	handler  Handler
	archive  memory.Store
	metrics  *observability.Metrics
	window   *observability.PipelineWindow
	upgrader websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Coordinator, handler Handler, archive memory.Store, metrics *observability.Metrics, window *observability.PipelineWindow) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		handler:  handler,
		archive:  archive,
		metrics:  metrics,
		window:   window,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only same-origin browser connections. Protects the
				// chat stream if the service is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/messages", s.handlePostMessage)
	r.Get("/v1/chat/ws", s.handleChatWS)
	r.Get("/v1/sessions", s.handleListSessions)
	r.Get("/v1/sessions/{channelID}", s.handleGetSession)
	r.Post("/v1/sessions/{channelID}/end", s.handleEndSession)
	r.Get("/v1/channels/{channelID}/turns", s.handleChannelTurns)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"agent":  s.cfg.AgentName,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"active_sessions": s.sessions.ActiveCount(),
	})
}

// handlePostMessage ingests a single chat message over plain HTTP. The
// websocket endpoint is the primary transport; this one exists for scripted
// clients and tests.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var msg protocol.ChatMessage
	if err := decodeJSON(r, &msg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if msg.Type == "" {
		msg.Type = protocol.TypeChatMessage
	}
	if strings.TrimSpace(msg.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	out, err := s.handler.Handle(r.Context(), msg)
	if err != nil {
		respondError(w, http.StatusBadGateway, "processing_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"active":   s.sessions.ActiveCount(),
		"sessions": s.sessions.Snapshots(),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	sess, ok := s.sessions.Lookup(channelID)
	if !ok {
		respondError(w, http.StatusNotFound, "session_not_found", "no session bound to channel "+channelID)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	if err := s.sessions.End(channelID, session.EndExplicit); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	respondJSON(w, http.StatusOK, map[string]any{"status": "ended", "channel_id": channelID})
}

// handleChannelTurns exposes a channel's most recent archived turns. The
// archive keeps the redacted record, so what comes back here is what was
// stored, not the raw chat text.
func (s *Server) handleChannelTurns(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			respondError(w, http.StatusBadRequest, "invalid_request", "limit must be an integer in [1, 200]")
			return
		}
		limit = n
	}
	turns, err := s.archive.RecentTurns(r.Context(), channelID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "archive_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"channel_id": channelID,
		"turns":      turns,
	})
}

// handleChatWS is the streaming transport: inbound chat messages in, agent
// replies, presence actions, and lifecycle events out.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	outbound := make(chan any, 256)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	send := func(msg any) {
		select {
		case outbound <- msg:
		default:
			// Keep websocket writes single-threaded; drop when saturated.
		}
	}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && reliability.IsRecoverableClose(closeErr.Code) {
				// Client-side hiccup; it is expected to reconnect.
				s.metrics.RejectedEvents.WithLabelValues("ws-reconnectable-close").Inc()
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		msg, err := protocol.ParseInbound(data)
		if err != nil {
			s.metrics.RejectedEvents.WithLabelValues("invalid-message").Inc()
			send(protocol.ErrorEvent{
				Type:   protocol.TypeErrorEvent,
				Code:   "invalid_client_message",
				Detail: err.Error(),
			})
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		out, err := s.handler.Handle(ctx, msg)
		if err != nil {
			send(protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				ChannelID: msg.Channel.ChannelID,
				Code:      "processing_failed",
				Detail:    err.Error(),
			})
			continue
		}
		for _, ev := range out.Events {
			send(ev)
		}
		if out.Decision != nil {
			send(*out.Decision)
		}
		if out.Reply != nil {
			send(*out.Reply)
		}
		if out.Presence != nil {
			send(*out.Presence)
		}
	}

	cancel()
	close(outbound)
	<-writerDone
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
