package session

import (
	"testing"
	"time"
)

func TestCoordinatorStartLookupEnd(t *testing.T) {
	c := NewCoordinator(testAgent, time.Minute)
	s := c.Start(Channel{ID: "chan-1", Kind: KindChannel}, ModeRegular)
	if s.ID == "" {
		t.Fatalf("session ID should not be empty")
	}

	got, ok := c.Lookup("chan-1")
	if !ok || got.ID != s.ID {
		t.Fatalf("Lookup returned (%v, %v), want the started session", got, ok)
	}

	if err := c.End("chan-1", EndDirector); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if _, ok := c.Lookup("chan-1"); ok {
		t.Fatalf("session should be gone after End")
	}
	if err := c.End("chan-1", EndDirector); err != ErrNotFound {
		t.Fatalf("second End() error = %v, want ErrNotFound", err)
	}
}

func TestCoordinatorOneSessionPerChannel(t *testing.T) {
	c := NewCoordinator(testAgent, time.Minute)

	var endedCauses []EndCause
	c.OnEnd(func(_ *Session, cause EndCause) {
		endedCauses = append(endedCauses, cause)
	})

	first := c.Start(Channel{ID: "chan-1", Kind: KindChannel}, ModeRegular)
	second := c.Start(Channel{ID: "chan-1", Kind: KindChannel}, ModeDirector)
	if first.ID == second.ID {
		t.Fatalf("restart must create a fresh session")
	}
	if c.ActiveCount() != 1 {
		t.Fatalf("ActiveCount = %d, want 1", c.ActiveCount())
	}
	if len(endedCauses) != 1 || endedCauses[0] != EndExplicit {
		t.Fatalf("end hook causes = %v, want [explicit]", endedCauses)
	}
}

func TestCoordinatorEndHooksRunInOrder(t *testing.T) {
	c := NewCoordinator(testAgent, time.Minute)

	var order []string
	c.OnEnd(func(_ *Session, _ EndCause) {
		order = append(order, "first")
	})
	c.OnEnd(func(_ *Session, _ EndCause) {
		order = append(order, "second")
	})

	c.Start(Channel{ID: "chan-1", Kind: KindChannel}, ModeRegular)
	if err := c.End("chan-1", EndExplicit); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("hook order = %v, want [first second]", order)
	}
}

func TestCoordinatorExpireInactive(t *testing.T) {
	c := NewCoordinator(testAgent, time.Minute)

	var ended []EndCause
	c.OnEnd(func(_ *Session, cause EndCause) {
		ended = append(ended, cause)
	})

	s := c.Start(Channel{ID: "chan-1", Kind: KindChannel}, ModeRegular)
	s.Touch(time.Now().Add(-2 * time.Minute))

	if n := c.ExpireInactive(time.Now()); n != 1 {
		t.Fatalf("ExpireInactive = %d, want 1", n)
	}
	if _, ok := c.Lookup("chan-1"); ok {
		t.Fatalf("expired session should be removed")
	}
	if len(ended) != 1 || ended[0] != EndTimeout {
		t.Fatalf("end hook causes = %v, want [inactivity-timeout]", ended)
	}
}
