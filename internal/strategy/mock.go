package strategy

import (
	"context"
	"fmt"
)

// MockAdapter produces deterministic in-character replies for local runs and
// tests.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

func (a *MockAdapter) Reply(ctx context.Context, req Request) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	default:
	}
	return Response{Text: buildMockReply(req)}, nil
}

func buildMockReply(req Request) string {
	switch req.Reason {
	case "subtle-bar-service":
		return "*slides a fresh tankard down the counter without a word*"
	case "director-direct-address":
		if req.InputText != "" {
			return req.InputText
		}
		return "*nods and carries on*"
	default:
		if req.Speaker != "" {
			return fmt.Sprintf("*glances up at %s* Go on, I'm listening.", req.Speaker)
		}
		return "*polishes a glass, keeping half an ear on the room*"
	}
}
