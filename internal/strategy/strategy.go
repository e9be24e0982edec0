// Package strategy bridges arbitration to the language-model collaborator
// that turns a positive decision into reply text. The engine only consumes
// it after a decision says to respond.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Request is the normalized reply request.
type Request struct {
	SessionID string   `json:"session_id"`
	ChannelID string   `json:"channel_id"`
	Turn      int      `json:"turn"`
	Reason    string   `json:"reason"`
	Speaker   string   `json:"speaker"`
	InputText string   `json:"input_text"`
	Recent    []string `json:"recent,omitempty"`
	Tone      string   `json:"tone,omitempty"`
	Approach  string   `json:"approach,omitempty"`
	Themes    []string `json:"themes,omitempty"`
	Lore      string   `json:"lore,omitempty"`
}

// Response is the generated reply.
type Response struct {
	Text string `json:"text"`
}

// Adapter produces reply text for a respond decision.
type Adapter interface {
	Reply(ctx context.Context, req Request) (Response, error)
}

// Config controls adapter construction.
type Config struct {
	Mode    string
	HTTPURL string
}

func NewAdapter(cfg Config) (Adapter, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}
	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.HTTPURL) != "" {
			return NewHTTPAdapter(cfg.HTTPURL), nil
		}
		return NewMockAdapter(), nil
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("strategy HTTP url is required for http mode")
		}
		return NewHTTPAdapter(cfg.HTTPURL), nil
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported strategy adapter mode %q", cfg.Mode)
	}
}
