// Package agents implements the workflow steps: the analyst team, the
// research debate, the trader and the risk management team. Each step is a
// plain function returning a state delta; the graph package wires them into
// the edge table.
package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dyike/NexusGo/consts"
	"github.com/dyike/NexusGo/internal/dataflows"
	"github.com/dyike/NexusGo/internal/llm"
	"github.com/dyike/NexusGo/internal/memory"
	"github.com/dyike/NexusGo/internal/models"
	"github.com/dyike/NexusGo/internal/processing"
)

// Memory recalls lessons from comparable past situations.
type Memory interface {
	QuerySimilar(ctx context.Context, situation, ticker string, maxResults int, minSimilarity float64) ([]memory.Match, error)
}

// Deps bundles the collaborators every step draws on. Market, News and
// Memory may be nil; steps that need them degrade by noting the gap in
// their output instead of failing the run.
type Deps struct {
	Model   llm.Model
	Market  dataflows.MarketDataProvider
	News    dataflows.NewsProvider
	Memory  Memory
	Signals *processing.SignalProcessor
}

// Step mirrors the executor's step signature without importing the graph
// package.
type Step func(ctx context.Context, state *models.AgentState) (*models.Delta, error)

func parseSimulatedDate(state *models.AgentState) time.Time {
	t, err := time.Parse("2006-01-02", state.SimulatedDate)
	if err != nil {
		return time.Now()
	}
	return t
}

func horizonDays(state *models.AgentState) string {
	return fmt.Sprintf("%d", state.Horizon.TradingDays())
}

// reportBundle concatenates the analyst reports in pipeline order.
func reportBundle(state *models.AgentState) string {
	order := []struct{ key, title string }{
		{consts.ReportFundamental, "Fundamental report"},
		{consts.ReportTechnical, "Technical report"},
		{consts.ReportSentiment, "Sentiment report"},
		{consts.ReportNews, "News report"},
	}
	var b strings.Builder
	for _, r := range order {
		content, ok := state.Reports[r.key]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", r.title, content)
	}
	if b.Len() == 0 {
		return "(no analyst reports available)"
	}
	return strings.TrimSpace(b.String())
}

// pastMemories formats recalled lessons for a researcher prompt. Empty
// recall and disabled memory both read as "none" so the prompt template
// stays uniform.
func pastMemories(ctx context.Context, deps *Deps, state *models.AgentState) string {
	if deps.Memory == nil || !state.RunConfig.MemoryOn {
		return "(memory disabled)"
	}

	matches, err := deps.Memory.QuerySimilar(ctx, reportBundle(state), state.Ticker, 2, 0.2)
	if err != nil {
		return fmt.Sprintf("(memory recall failed: %v)", err)
	}
	if len(matches) == 0 {
		return "(no comparable past situations on record)"
	}

	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. %s\n", i+1, m.Lesson)
	}
	return strings.TrimSpace(b.String())
}

// riskMetricsText renders the risk metrics block for risk-team prompts.
func riskMetricsText(ctx context.Context, deps *Deps, state *models.AgentState) string {
	if deps.Market == nil {
		return "(risk metrics unavailable: no market data provider)"
	}
	m, err := deps.Market.RiskMetricsFor(ctx, state.Ticker, parseSimulatedDate(state))
	if err != nil {
		return fmt.Sprintf("(risk metrics unavailable: %v)", err)
	}
	return fmt.Sprintf(
		"Current price: %.2f\nAnnualized volatility: %.2f%%\nMax drawdown: %.2f%%\nRisk rating: %s",
		m.CurrentPrice, m.VolatilityPct, m.MaxDrawdownPct, m.RiskRating)
}

// disagreementNote surfaces a manager/trader split to the risk team. The
// engine records the split but never reconciles it.
func disagreementNote(state *models.AgentState) string {
	mgr := state.Metadata.ManagerRecommendation
	trd := state.Metadata.TraderRecommendation
	if mgr == models.ActionUnknown || trd == models.ActionUnknown || mgr == trd {
		return ""
	}
	return fmt.Sprintf(
		"Note: the research manager recommended %s but the trader chose %s. Weigh this disagreement in your assessment.",
		mgr, trd)
}
