package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want :8080", cfg.BindAddr)
	}
	if cfg.AgentName != "Brynhild" {
		t.Fatalf("AgentName = %q, want Brynhild", cfg.AgentName)
	}
	if len(cfg.AgentAliases) != 2 || cfg.AgentAliases[0] != "barkeep" {
		t.Fatalf("AgentAliases = %v, want [barkeep bartender]", cfg.AgentAliases)
	}
	if got := cfg.SessionInactivityTimeout.Minutes(); got != 20 {
		t.Fatalf("SessionInactivityTimeout = %v minutes, want 20", got)
	}
	if cfg.StrategyMode != "auto" {
		t.Fatalf("StrategyMode = %q, want auto", cfg.StrategyMode)
	}
	if cfg.TriggerThreshold != 0 {
		t.Fatalf("TriggerThreshold = %v, want 0 (adapter default)", cfg.TriggerThreshold)
	}
}

func TestLoadExplicitOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("AGENT_NAME", "Sigrún")
	t.Setenv("AGENT_ALIASES", "innkeeper, host")
	t.Setenv("APP_SESSION_INACTIVITY_TIMEOUT", "10m")
	t.Setenv("TRIGGER_THRESHOLD", "0.7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.AgentName != "Sigrún" {
		t.Fatalf("AgentName = %q", cfg.AgentName)
	}
	if len(cfg.AgentAliases) != 2 || cfg.AgentAliases[1] != "host" {
		t.Fatalf("AgentAliases = %v", cfg.AgentAliases)
	}
	if got := cfg.SessionInactivityTimeout.Minutes(); got != 10 {
		t.Fatalf("SessionInactivityTimeout = %v minutes, want 10", got)
	}
	if cfg.TriggerThreshold != 0.7 {
		t.Fatalf("TriggerThreshold = %v, want 0.7", cfg.TriggerThreshold)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"short timeout", "APP_SESSION_INACTIVITY_TIMEOUT", "2s"},
		{"bad duration", "APP_SESSION_INACTIVITY_TIMEOUT", "soon"},
		{"threshold above one", "TRIGGER_THRESHOLD", "1.5"},
		{"negative threshold", "TRIGGER_THRESHOLD", "-0.1"},
		{"empty agent name", "AGENT_NAME", " "},
		{"bad bool", "APP_ALLOW_ANY_ORIGIN", "maybe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() accepted %s=%q", tc.key, tc.value)
			}
		})
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_LOG_LEVEL",
		"APP_ALLOW_ANY_ORIGIN",
		"AGENT_NAME",
		"AGENT_ALIASES",
		"TRIGGER_THRESHOLD",
		"STRATEGY_ADAPTER_MODE",
		"STRATEGY_HTTP_URL",
		"DATABASE_URL",
		"CONTENT_DB_PATH",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}
