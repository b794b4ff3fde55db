// Package trading wires the collaborators into a runnable analysis session.
package trading

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/dyike/NexusGo/config"
	"github.com/dyike/NexusGo/internal/agents"
	"github.com/dyike/NexusGo/internal/dataflows"
	"github.com/dyike/NexusGo/internal/display"
	"github.com/dyike/NexusGo/internal/graph"
	"github.com/dyike/NexusGo/internal/llm"
	"github.com/dyike/NexusGo/internal/memory"
	"github.com/dyike/NexusGo/internal/models"
	"github.com/dyike/NexusGo/internal/processing"
	"github.com/dyike/NexusGo/internal/storage"
)

// Session runs one full analysis for a ticker on a simulated date.
type Session struct {
	cfg    *config.Config
	ticker string
	date   string
	stream bool
}

func NewSession(cfg *config.Config, ticker, date string, stream bool) *Session {
	return &Session{
		cfg:    cfg,
		ticker: strings.ToUpper(strings.TrimSpace(ticker)),
		date:   date,
		stream: stream,
	}
}

// Execute builds the workflow, runs it to completion and persists the
// outcome: terminal display, markdown reports, the run record, and a memory
// entry when memory is on.
func (s *Session) Execute(ctx context.Context) error {
	if s.ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	if _, err := time.Parse("2006-01-02", s.date); err != nil {
		return fmt.Errorf("invalid analysis date %q: %w", s.date, err)
	}
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	if err := s.cfg.EnsureDirectories(); err != nil {
		return err
	}

	client, err := llm.NewClient(ctx, s.cfg)
	if err != nil {
		return fmt.Errorf("build model client: %w", err)
	}

	deps := &agents.Deps{
		Model:   client,
		Market:  dataflows.NewCompositeProvider(s.cfg),
		News:    dataflows.NewNewsProvider(s.cfg),
		Signals: processing.NewSignalProcessor(client),
	}

	var memStore *memory.Store
	if s.cfg.MemoryOn {
		memStore, err = memory.Open(filepath.Join(s.cfg.DataDir, "memory.db"))
		if err != nil {
			log.Printf("[Session] memory store unavailable, continuing without recall: %v", err)
		} else {
			defer memStore.Close()
			deps.Memory = memStore
		}
	}

	rc := s.cfg.RunConfig(s.date)
	exec, err := graph.BuildTradingGraph(deps, rc)
	if err != nil {
		return fmt.Errorf("build workflow: %w", err)
	}
	exec.SetDebug(s.cfg.Debug)

	state := models.NewAgentState(s.ticker, marketOf(s.ticker), rc)

	log.Printf("[Session] analyzing %s for %s (horizon %s, debate rounds %d, risk rounds %d)",
		s.ticker, s.date, rc.Horizon, rc.DebateRounds, rc.RiskRounds)

	final, err := s.run(ctx, exec, state)
	if err != nil {
		display.ShowError(err)
		return err
	}

	display.ShowResults(final)
	s.persist(ctx, final, memStore)
	return nil
}

func (s *Session) run(ctx context.Context, exec *graph.Executor, state *models.AgentState) (*models.AgentState, error) {
	if !s.stream {
		return exec.Run(ctx, graph.Entry, state)
	}

	events, errc := exec.RunStream(ctx, graph.Entry, state)
	var final *models.AgentState
	for ev := range events {
		display.ShowProgress(ev.Step)
		final = ev.State
	}
	if err := <-errc; err != nil {
		return nil, err
	}
	if final == nil {
		return nil, fmt.Errorf("stream produced no events")
	}
	return final, nil
}

// persist saves everything derived from a finished run. Failures here are
// logged, not fatal: the analysis already succeeded.
func (s *Session) persist(ctx context.Context, final *models.AgentState, memStore *memory.Store) {
	if err := storage.WriteRunReports(s.cfg.ResultsDir, final); err != nil {
		log.Printf("[Session] failed to write reports: %v", err)
	}

	store, err := storage.Open(s.cfg.DBPath)
	if err != nil {
		log.Printf("[Session] run store unavailable: %v", err)
	} else {
		defer store.Close()
		if _, err := store.SaveRun(ctx, final); err != nil {
			log.Printf("[Session] failed to record run: %v", err)
		}
	}

	if memStore == nil || final.Decision == nil {
		return
	}
	situation := situationOf(final)
	lesson := fmt.Sprintf("Decided %s at %.2f%% position size. %s",
		final.Decision.Action, final.Decision.PositionSizePct, final.Decision.Rationale)
	if err := memStore.StoreAnalysis(ctx, final.Ticker, situation, lesson); err != nil {
		log.Printf("[Session] failed to store memory: %v", err)
	}
}

func situationOf(state *models.AgentState) string {
	var parts []string
	for _, v := range state.Reports {
		parts = append(parts, v)
	}
	return strings.Join(parts, "\n\n")
}

func marketOf(ticker string) string {
	if dataflows.IsHKSymbol(ticker) {
		return "HK"
	}
	return "US"
}
