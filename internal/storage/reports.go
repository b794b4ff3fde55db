package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dyike/NexusGo/consts"
	"github.com/dyike/NexusGo/internal/models"
)

// WriteMarkdown writes one markdown file into dir, creating it as needed.
func WriteMarkdown(dir, fileName, content string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	log.Printf("[Storage] report written to: %s", path)
	return nil
}

// WriteRunReports saves every report the run produced, plus a summary of the
// final decision, under resultsDir/<TICKER>/<date>/.
func WriteRunReports(resultsDir string, state *models.AgentState) error {
	dir := filepath.Join(resultsDir, strings.ToUpper(state.Ticker), state.SimulatedDate)

	order := []string{
		consts.ReportFundamental,
		consts.ReportTechnical,
		consts.ReportSentiment,
		consts.ReportNews,
		consts.ReportRiskGate,
	}
	for _, key := range order {
		content, ok := state.Reports[key]
		if !ok {
			continue
		}
		if err := WriteMarkdown(dir, key+".md", content); err != nil {
			return err
		}
	}

	if state.InvestmentPlan != "" {
		if err := WriteMarkdown(dir, "investment_plan.md", state.InvestmentPlan); err != nil {
			return err
		}
	}
	if state.TraderPlan != "" {
		if err := WriteMarkdown(dir, "trader_plan.md", state.TraderPlan); err != nil {
			return err
		}
	}
	if state.FinalRiskDecision != "" {
		if err := WriteMarkdown(dir, "final_risk_decision.md", state.FinalRiskDecision); err != nil {
			return err
		}
	}

	return WriteMarkdown(dir, "summary.md", renderSummary(state))
}

func renderSummary(state *models.AgentState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s analysis for %s\n\n", strings.ToUpper(state.Ticker), state.SimulatedDate)
	fmt.Fprintf(&b, "Generated at %s\n\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Horizon: %s (%d trading days)\n", state.Horizon, state.Horizon.TradingDays())

	if d := state.Decision; d != nil {
		fmt.Fprintf(&b, "- Action: %s\n", d.Action)
		fmt.Fprintf(&b, "- Position size: %.2f%%\n", d.PositionSizePct)
		writePrice(&b, "Entry", d.EntryPrice)
		writePrice(&b, "Take profit", d.TakeProfit)
		writePrice(&b, "Stop loss", d.StopLoss)
		if d.Rationale != "" {
			fmt.Fprintf(&b, "\n## Rationale\n\n%s\n", d.Rationale)
		}
	}

	m := state.Metadata
	if m.OriginalAction != "" {
		fmt.Fprintf(&b, "\n## Decision lineage\n\n")
		fmt.Fprintf(&b, "- Manager recommendation: %s\n", m.ManagerRecommendation)
		fmt.Fprintf(&b, "- Trader recommendation: %s\n", m.TraderRecommendation)
		fmt.Fprintf(&b, "- Risk review: %s -> %s (overrode: %t)\n", m.OriginalAction, m.FinalAction, m.Overrode)
	}

	return b.String()
}

func writePrice(b *strings.Builder, label string, p *float64) {
	if p == nil {
		fmt.Fprintf(b, "- %s: n/a\n", label)
		return
	}
	fmt.Fprintf(b, "- %s: %.2f\n", label, *p)
}
