// Package app assembles the service from configuration: stores, strategy
// adapter, session coordinator, dispatcher, and HTTP API.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jarlvik/barkeep/internal/arbiter"
	"github.com/jarlvik/barkeep/internal/config"
	"github.com/jarlvik/barkeep/internal/content"
	"github.com/jarlvik/barkeep/internal/dispatch"
	"github.com/jarlvik/barkeep/internal/extract"
	"github.com/jarlvik/barkeep/internal/httpapi"
	"github.com/jarlvik/barkeep/internal/memory"
	"github.com/jarlvik/barkeep/internal/observability"
	"github.com/jarlvik/barkeep/internal/session"
	"github.com/jarlvik/barkeep/internal/strategy"
	"github.com/jarlvik/barkeep/internal/trigger"
)

type BuildResult struct {
	Config     config.Config
	Logger     *slog.Logger
	API        *httpapi.Server
	Sessions   *session.Coordinator
	Dispatcher *dispatch.Dispatcher
	Metrics    *observability.Metrics
	Window     *observability.PipelineWindow

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	logger := observability.NewLogger(cfg.LogLevel)
	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	window := observability.NewPipelineWindow(512)

	archive, err := memory.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("turn archive init failed: %w", err)
	}

	lore, err := content.NewStore(cfg.ContentDBPath)
	if err != nil {
		_ = archive.Close()
		return nil, fmt.Errorf("reference text store init failed: %w", err)
	}

	adapter, err := strategy.NewAdapter(strategy.Config{
		Mode:    cfg.StrategyMode,
		HTTPURL: cfg.StrategyHTTPURL,
	})
	if err != nil {
		_ = lore.Close()
		_ = archive.Close()
		return nil, fmt.Errorf("strategy adapter init failed: %w", err)
	}

	agent := extract.Identity{Name: cfg.AgentName, Aliases: cfg.AgentAliases}
	sessions := session.NewCoordinator(agent, cfg.SessionInactivityTimeout)
	sessions.OnEnd(func(_ *session.Session, cause session.EndCause) {
		metrics.SessionsEnded.WithLabelValues(string(cause)).Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	dispatcher := dispatch.New(
		logger,
		metrics,
		window,
		sessions,
		arbiter.New(agent),
		trigger.NewScorer(agent, cfg.TriggerThreshold),
		adapter,
		archive,
		lore,
		agent,
	)

	api := httpapi.New(cfg, sessions, dispatcher, archive, metrics, window)

	cleanup := func() error {
		var errs []string
		if err := lore.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := archive.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:     cfg,
		Logger:     logger,
		API:        api,
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Window:     window,
		Cleanup:    cleanup,
	}, nil
}
