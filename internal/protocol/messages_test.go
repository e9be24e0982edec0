package protocol

import (
	"errors"
	"testing"
)

func TestParseInboundChatMessage(t *testing.T) {
	raw := []byte(`{
		"type": "chat_message",
		"text": "*Tavi enters the tavern*",
		"sender": "tavi#042",
		"channel": {"kind": "channel", "channel_id": "chan-1", "display_name": "the-tavern"},
		"ts_ms": 1700000000000
	}`)
	msg, err := ParseInbound(raw)
	if err != nil {
		t.Fatalf("ParseInbound() error = %v", err)
	}
	if msg.Sender != "tavi#042" || msg.Channel.ChannelID != "chan-1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseInboundAllowsEmptyChannelID(t *testing.T) {
	raw := []byte(`{"type":"chat_message","text":"hi","sender":"tavi","channel":{"kind":"channel"}}`)
	msg, err := ParseInbound(raw)
	if err != nil {
		t.Fatalf("ParseInbound() error = %v, empty channel id must be accepted", err)
	}
	if msg.Channel.ChannelID != "" {
		t.Fatalf("ChannelID = %q, want empty", msg.Channel.ChannelID)
	}
}

func TestParseInboundRejectsUnknownType(t *testing.T) {
	_, err := ParseInbound([]byte(`{"type":"client_control","text":"x","sender":"y"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseInboundRequiresTextAndSender(t *testing.T) {
	if _, err := ParseInbound([]byte(`{"type":"chat_message","sender":"tavi"}`)); err == nil {
		t.Fatalf("missing text should fail")
	}
	if _, err := ParseInbound([]byte(`{"type":"chat_message","text":"hi"}`)); err == nil {
		t.Fatalf("missing sender should fail")
	}
}

func TestParseInboundBadJSON(t *testing.T) {
	if _, err := ParseInbound([]byte(`{not json`)); err == nil {
		t.Fatalf("malformed JSON should fail")
	}
}
