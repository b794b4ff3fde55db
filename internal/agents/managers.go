package agents

import (
	"context"
	"fmt"
	"log"

	"github.com/dyike/NexusGo/internal/llm"
	"github.com/dyike/NexusGo/internal/models"
)

// ResearchManager judges the bull/bear debate and writes the investment
// plan the trader executes against.
func ResearchManager(deps *Deps) Step {
	return func(ctx context.Context, state *models.AgentState) (*models.Delta, error) {
		prompt, err := LoadPromptWithContext("research_manager", map[string]string{
			"Ticker":  state.Ticker,
			"History": orNone(state.InvestmentDebate.History),
			"Reports": reportBundle(state),
		})
		if err != nil {
			return nil, err
		}

		verdict, err := deps.Model.Complete(ctx, prompt, llm.ThinkDeep)
		if err != nil {
			return nil, fmt.Errorf("research manager: %w", err)
		}

		debate := state.InvestmentDebate
		debate.JudgeOutput = verdict

		delta := &models.Delta{
			InvestmentDebate: &debate,
			InvestmentPlan:   models.StringPtr(verdict),
		}

		action, err := deps.Signals.ExtractAction(ctx, verdict, state.Ticker)
		if err != nil {
			log.Printf("[Agents] manager recommendation extraction failed for %s: %v", state.Ticker, err)
		} else {
			delta.Metadata = &models.MetadataPatch{ManagerRecommendation: models.ActionPtr(action)}
		}
		return delta, nil
	}
}

// Trader turns the investment plan into a structured decision. The decision
// extractor absorbs malformed model output, so the step only fails on a
// model error.
func Trader(deps *Deps) Step {
	return func(ctx context.Context, state *models.AgentState) (*models.Delta, error) {
		prompt, err := LoadPromptWithContext("trader", map[string]string{
			"Ticker":         state.Ticker,
			"Date":           state.SimulatedDate,
			"HorizonDays":    horizonDays(state),
			"InvestmentPlan": orNone(state.InvestmentPlan),
			"MarketSnapshot": riskMetricsText(ctx, deps, state),
		})
		if err != nil {
			return nil, err
		}

		strategy, err := deps.Model.Complete(ctx, prompt, llm.ThinkDeep)
		if err != nil {
			return nil, fmt.Errorf("trader: %w", err)
		}

		decision := deps.Signals.ExtractDecision(ctx, strategy, state.Ticker)

		return &models.Delta{
			TraderPlan: models.StringPtr(strategy),
			Decision:   decision,
			Metadata:   &models.MetadataPatch{TraderRecommendation: models.ActionPtr(decision.Action)},
		}, nil
	}
}
