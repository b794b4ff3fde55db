package agents

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dyike/NexusGo/consts"
	"github.com/dyike/NexusGo/internal/llm"
	"github.com/dyike/NexusGo/internal/models"
)

var hundred = decimal.NewFromInt(100)

// FundamentalAnalyst assesses the company's business and valuation.
func FundamentalAnalyst(deps *Deps) Step {
	return func(ctx context.Context, state *models.AgentState) (*models.Delta, error) {
		prompt, err := LoadPromptWithContext("fundamental_analyst", map[string]string{
			"Ticker":      state.Ticker,
			"Market":      state.Market,
			"Date":        state.SimulatedDate,
			"HorizonDays": horizonDays(state),
		})
		if err != nil {
			return nil, err
		}

		report, err := deps.Model.Complete(ctx, prompt, llm.ThinkQuick)
		if err != nil {
			return nil, fmt.Errorf("fundamental analyst: %w", err)
		}

		return &models.Delta{
			Reports: map[string]string{consts.ReportFundamental: report},
		}, nil
	}
}

// TechnicalAnalyst interprets price history and derived risk metrics.
func TechnicalAnalyst(deps *Deps) Step {
	return func(ctx context.Context, state *models.AgentState) (*models.Delta, error) {
		prompt, err := LoadPromptWithContext("technical_analyst", map[string]string{
			"Ticker":       state.Ticker,
			"Date":         state.SimulatedDate,
			"HorizonDays":  horizonDays(state),
			"PriceSummary": priceSummary(ctx, deps, state),
		})
		if err != nil {
			return nil, err
		}

		report, err := deps.Model.Complete(ctx, prompt, llm.ThinkQuick)
		if err != nil {
			return nil, fmt.Errorf("technical analyst: %w", err)
		}

		return &models.Delta{
			Reports: map[string]string{consts.ReportTechnical: report},
		}, nil
	}
}

// SentimentAnalyst characterizes retail and social positioning. Runs only
// when socialOn routes the workflow through it.
func SentimentAnalyst(deps *Deps) Step {
	return func(ctx context.Context, state *models.AgentState) (*models.Delta, error) {
		prompt, err := LoadPromptWithContext("sentiment_analyst", map[string]string{
			"Ticker":      state.Ticker,
			"Date":        state.SimulatedDate,
			"HorizonDays": horizonDays(state),
		})
		if err != nil {
			return nil, err
		}

		report, err := deps.Model.Complete(ctx, prompt, llm.ThinkQuick)
		if err != nil {
			return nil, fmt.Errorf("sentiment analyst: %w", err)
		}

		return &models.Delta{
			Reports: map[string]string{consts.ReportSentiment: report},
		}, nil
	}
}

// NewsHarvester summarizes recent company news flow.
func NewsHarvester(deps *Deps) Step {
	return func(ctx context.Context, state *models.AgentState) (*models.Delta, error) {
		prompt, err := LoadPromptWithContext("news_harvester", map[string]string{
			"Ticker":      state.Ticker,
			"Date":        state.SimulatedDate,
			"HorizonDays": horizonDays(state),
			"Headlines":   headlines(ctx, deps, state),
		})
		if err != nil {
			return nil, err
		}

		report, err := deps.Model.Complete(ctx, prompt, llm.ThinkQuick)
		if err != nil {
			return nil, fmt.Errorf("news harvester: %w", err)
		}

		return &models.Delta{
			Reports: map[string]string{consts.ReportNews: report},
		}, nil
	}
}

// priceSummary renders a compact view of the trailing year of daily bars.
// Collaborator failures are folded into the prompt text so one flaky feed
// never kills a run.
func priceSummary(ctx context.Context, deps *Deps, state *models.AgentState) string {
	if deps.Market == nil {
		return "(price history unavailable: no market data provider)"
	}

	asOf := parseSimulatedDate(state)
	bars, err := deps.Market.DailyBars(ctx, state.Ticker, asOf.AddDate(-1, 0, 0), asOf)
	if err != nil || len(bars) == 0 {
		log.Printf("[Agents] price history for %s unavailable: %v", state.Ticker, err)
		return fmt.Sprintf("(price history unavailable: %v)", err)
	}

	first := bars[0]
	last := bars[len(bars)-1]
	high := bars[0].High
	low := bars[0].Low
	for _, b := range bars[1:] {
		if b.High.GreaterThan(high) {
			high = b.High
		}
		if b.Low.LessThan(low) {
			low = b.Low
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Bars: %d daily, %s to %s\n",
		len(bars), first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Close: %s (period start %s)\n", last.Close, first.Close)
	fmt.Fprintf(&b, "Range: low %s, high %s\n", low, high)
	if !first.Close.IsZero() {
		change := last.Close.Sub(first.Close).Div(first.Close).Mul(hundred)
		fmt.Fprintf(&b, "Period change: %s%%\n", change.Round(2))
	}
	b.WriteString(riskMetricsText(ctx, deps, state))
	return b.String()
}

// headlines renders recent news for the harvester prompt, capped to keep the
// prompt bounded.
func headlines(ctx context.Context, deps *Deps, state *models.AgentState) string {
	if deps.News == nil {
		return "(news unavailable: no news provider)"
	}

	asOf := parseSimulatedDate(state)
	articles, err := deps.News.CompanyNews(ctx, state.Ticker, asOf.AddDate(0, 0, -14), asOf)
	if err != nil {
		log.Printf("[Agents] news for %s unavailable: %v", state.Ticker, err)
		return fmt.Sprintf("(news unavailable: %v)", err)
	}
	if len(articles) == 0 {
		return "(no recent articles found)"
	}
	if len(articles) > 15 {
		articles = articles[:15]
	}

	var b strings.Builder
	for _, a := range articles {
		fmt.Fprintf(&b, "- [%s] %s (%s)", a.Source, a.Headline, a.PublishedAt.Format("2006-01-02"))
		if a.Summary != "" {
			fmt.Fprintf(&b, ": %s", a.Summary)
		}
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}
