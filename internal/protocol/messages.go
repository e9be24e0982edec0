// Package protocol defines the JSON envelopes exchanged with the chat
// transport: inbound chat messages with their channel context, and the
// outbound reply, presence, and telemetry events.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies payload variants on the stream.
type MessageType string

const (
	TypeChatMessage    MessageType = "chat_message"
	TypeAgentReply     MessageType = "agent_reply"
	TypePresenceAction MessageType = "presence_action"
	TypeDecisionEvent  MessageType = "decision_event"
	TypeSessionEvent   MessageType = "session_event"
	TypeErrorEvent     MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ChannelContext is the transport's description of where a message came
// from. ChannelID may legitimately be empty; the session layer treats that
// as ambiguous rather than invalid.
type ChannelContext struct {
	Kind            string `json:"kind"`
	IsThread        bool   `json:"is_thread"`
	IsDirectMessage bool   `json:"is_dm"`
	DisplayName     string `json:"display_name"`
	ChannelID       string `json:"channel_id"`
	SessionID       string `json:"session_id,omitempty"`
}

// ChatMessage is one inbound message from the monitored stream.
type ChatMessage struct {
	Type    MessageType    `json:"type"`
	Text    string         `json:"text"`
	Sender  string         `json:"sender"`
	Channel ChannelContext `json:"channel"`
	TSMs    int64          `json:"ts_ms"`
}

// AgentReply carries generated dialogue back to the transport.
type AgentReply struct {
	Type      MessageType `json:"type"`
	ChannelID string      `json:"channel_id"`
	SessionID string      `json:"session_id"`
	Turn      int         `json:"turn"`
	Text      string      `json:"text"`
	Reason    string      `json:"reason"`
}

// PresenceAction is the minimal non-verbal heartbeat emitted while
// listening.
type PresenceAction struct {
	Type      MessageType `json:"type"`
	ChannelID string      `json:"channel_id"`
	SessionID string      `json:"session_id"`
	Text      string      `json:"text"`
}

// DecisionEvent reports every arbitration outcome for telemetry.
type DecisionEvent struct {
	Type          MessageType `json:"type"`
	ChannelID     string      `json:"channel_id"`
	Turn          int         `json:"turn"`
	ShouldRespond bool        `json:"should_respond"`
	Reason        string      `json:"reason"`
}

// SessionEvent reports lifecycle changes (started, ended) with their cause.
type SessionEvent struct {
	Type      MessageType `json:"type"`
	ChannelID string      `json:"channel_id"`
	SessionID string      `json:"session_id"`
	Event     string      `json:"event"`
	Detail    string      `json:"detail,omitempty"`
}

// ErrorEvent reports a processing failure to the transport.
type ErrorEvent struct {
	Type      MessageType `json:"type"`
	ChannelID string      `json:"channel_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail"`
}

// ParseInbound decodes and validates one message from the transport.
func ParseInbound(raw []byte) (ChatMessage, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ChatMessage{}, fmt.Errorf("invalid envelope: %w", err)
	}
	if env.Type != TypeChatMessage {
		return ChatMessage{}, fmt.Errorf("%w: %q", ErrUnsupportedType, env.Type)
	}

	var msg ChatMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ChatMessage{}, fmt.Errorf("invalid chat_message: %w", err)
	}
	if msg.Text == "" {
		return ChatMessage{}, errors.New("chat_message requires text")
	}
	if msg.Sender == "" {
		return ChatMessage{}, errors.New("chat_message requires sender")
	}
	return msg, nil
}
