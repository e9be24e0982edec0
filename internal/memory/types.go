package memory

import (
	"context"
	"time"
)

// TurnRecord archives one processed conversation turn. The archive is
// observability and context material; live session state is never restored
// from it.
type TurnRecord struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channel_id"`
	SessionID  string    `json:"session_id"`
	Speaker    string    `json:"speaker"`
	Role       string    `json:"role"` // "character", "agent", "director"
	Content    string    `json:"content"`
	Reason     string    `json:"reason,omitempty"`
	TurnNumber int       `json:"turn_number"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists and retrieves archived turns.
type Store interface {
	SaveTurn(ctx context.Context, record TurnRecord) error
	RecentTurns(ctx context.Context, channelID string, limit int) ([]TurnRecord, error)
	Close() error
}
