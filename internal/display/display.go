// Package display renders run results and streaming progress to the
// terminal.
package display

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/NexusGo/consts"
	"github.com/dyike/NexusGo/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1).
			MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(80)

	buyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	sellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	holdStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)
)

// stepLabels maps node keys to what the terminal shows while streaming.
var stepLabels = map[string]string{
	consts.FundamentalAnalyst: "Fundamental analyst",
	consts.TechnicalAnalyst:   "Technical analyst",
	consts.SentimentAnalyst:   "Sentiment analyst",
	consts.NewsHarvester:      "News harvester",
	consts.BullResearcher:     "Bull researcher",
	consts.BearResearcher:     "Bear researcher",
	consts.ResearchManager:    "Research manager",
	consts.Trader:             "Trader",
	consts.AggressiveRisk:     "Aggressive risk analyst",
	consts.ConservativeRisk:   "Conservative risk analyst",
	consts.NeutralRisk:        "Neutral risk analyst",
	consts.RiskJudge:          "Risk judge",
}

func actionStyle(a models.Action) lipgloss.Style {
	switch a {
	case models.ActionBuy:
		return buyStyle
	case models.ActionSell:
		return sellStyle
	default:
		return holdStyle
	}
}

// ShowProgress prints one line per completed step during a streaming run.
func ShowProgress(step string) {
	label, ok := stepLabels[step]
	if !ok {
		label = step
	}
	fmt.Println(progressStyle.Render("  ✔ " + label))
}

// ShowResults renders the final run state.
func ShowResults(state *models.AgentState) {
	fmt.Println()
	fmt.Println(titleStyle.Render(fmt.Sprintf("Analysis results: %s (%s)", state.Ticker, state.SimulatedDate)))

	if d := state.Decision; d != nil {
		fmt.Println(panelStyle.Render(renderDecision(d)))
	}
	if note := renderLineage(state.Metadata); note != "" {
		fmt.Println(dimStyle.Render(note))
	}
	if gate, ok := state.Reports[consts.ReportRiskGate]; ok {
		fmt.Println(panelStyle.Render("Risk gate\n\n" + gate))
	}
	if state.FinalRiskDecision != "" {
		fmt.Println(panelStyle.Render("Final risk ruling\n\n" + truncate(state.FinalRiskDecision, 1200)))
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf(
		"Debate turns: research %d, risk %d | Reports: %d",
		state.InvestmentDebate.Count, state.RiskDebate.Count, len(state.Reports))))
}

func renderDecision(d *models.Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Decision: %s\n\n", actionStyle(d.Action).Render(string(d.Action)))
	fmt.Fprintf(&b, "Position size: %.2f%%\n", d.PositionSizePct)
	fmt.Fprintf(&b, "Entry: %s   Target: %s   Stop: %s\n",
		priceText(d.EntryPrice), priceText(d.TakeProfit), priceText(d.StopLoss))
	if d.Rationale != "" {
		fmt.Fprintf(&b, "\n%s", truncate(d.Rationale, 400))
	}
	return b.String()
}

func renderLineage(m models.RunMetadata) string {
	if m.OriginalAction == models.ActionUnknown {
		return ""
	}
	if m.Overrode {
		return fmt.Sprintf("Risk judge overrode the trader: %s -> %s (manager %s, trader %s)",
			m.OriginalAction, m.FinalAction, m.ManagerRecommendation, m.TraderRecommendation)
	}
	return fmt.Sprintf("Risk judge upheld the trader's %s (manager %s)",
		m.OriginalAction, m.ManagerRecommendation)
}

// ShowError renders a fatal run error.
func ShowError(err error) {
	fmt.Println(errorStyle.Render("✗ " + err.Error()))
}

func priceText(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *p)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	// Cut on a rune boundary so multi-byte text stays valid UTF-8.
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
