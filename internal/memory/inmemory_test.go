package memory

import (
	"context"
	"fmt"
	"testing"
)

func TestInMemoryStoreSaveAndRecent(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		err := s.SaveTurn(ctx, TurnRecord{
			ChannelID:  "chan-1",
			SessionID:  "sess-1",
			Speaker:    "Tavi",
			Role:       "character",
			Content:    fmt.Sprintf("line %d", i),
			TurnNumber: i,
		})
		if err != nil {
			t.Fatalf("SaveTurn() error = %v", err)
		}
	}

	got, err := s.RecentTurns(ctx, "chan-1", 2)
	if err != nil {
		t.Fatalf("RecentTurns() error = %v", err)
	}
	if len(got) != 2 || got[0].TurnNumber != 3 || got[1].TurnNumber != 4 {
		t.Fatalf("RecentTurns() = %+v, want turns 3 and 4 in order", got)
	}
	if got[0].ID == "" || got[0].CreatedAt.IsZero() {
		t.Fatalf("SaveTurn should assign id and timestamp")
	}

	other, err := s.RecentTurns(ctx, "chan-2", 5)
	if err != nil || other != nil {
		t.Fatalf("RecentTurns(other channel) = (%v, %v), want empty", other, err)
	}
}

func TestNewStoreDefaultsToInMemory(t *testing.T) {
	s, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, ok := s.(*InMemoryStore); !ok {
		t.Fatalf("store = %T, want *InMemoryStore", s)
	}
}
