// Package reliability classifies transient failures and computes retry
// backoff for the strategy collaborator and the chat-stream transport.
package reliability

import (
	"time"

	"github.com/gorilla/websocket"
)

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsRecoverableClose classifies websocket close codes after which the
// transport may reconnect and resume the stream.
func IsRecoverableClose(code int) bool {
	switch code {
	case websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseServiceRestart,
		websocket.CloseTryAgainLater:
		return true
	default:
		return false
	}
}

// ExponentialBackoff computes a deterministic capped backoff duration.
func ExponentialBackoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}
