package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jarlvik/barkeep/internal/config"
)

func TestBuildWiresEverything(t *testing.T) {
	cfg := config.Config{
		BindAddr:                 ":0",
		MetricsNamespace:         fmt.Sprintf("barkeep_build_test_%d", time.Now().UnixNano()),
		AgentName:                "Brynhild",
		AgentAliases:             []string{"barkeep"},
		SessionInactivityTimeout: 20 * time.Minute,
		StrategyMode:             "mock",
	}

	result, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			t.Errorf("Cleanup() error = %v", err)
		}
	}()

	if result.API == nil || result.Dispatcher == nil || result.Sessions == nil {
		t.Fatalf("incomplete build result: %+v", result)
	}
	if result.Sessions.ActiveCount() != 0 {
		t.Fatalf("fresh coordinator has %d sessions", result.Sessions.ActiveCount())
	}
}

func TestBuildRejectsBadStrategyMode(t *testing.T) {
	cfg := config.Config{
		MetricsNamespace:         fmt.Sprintf("barkeep_build_err_%d", time.Now().UnixNano()),
		AgentName:                "Brynhild",
		SessionInactivityTimeout: 20 * time.Minute,
		StrategyMode:             "carrier-pigeon",
	}
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("Build() accepted strategy mode %q", cfg.StrategyMode)
	}
}
