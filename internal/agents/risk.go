package agents

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dyike/NexusGo/consts"
	"github.com/dyike/NexusGo/internal/llm"
	"github.com/dyike/NexusGo/internal/models"
	"github.com/dyike/NexusGo/internal/processing"
)

// AggressiveRisk champions upside and pushes back on caution.
func AggressiveRisk(deps *Deps) Step {
	return riskAnalystStep(deps, "aggressive_risk", "Aggressive Analyst", models.SpeakerAggressive)
}

// ConservativeRisk protects capital and challenges optimistic sizing.
func ConservativeRisk(deps *Deps) Step {
	return riskAnalystStep(deps, "conservative_risk", "Conservative Analyst", models.SpeakerConservative)
}

// NeutralRisk looks for the balanced middle path.
func NeutralRisk(deps *Deps) Step {
	return riskAnalystStep(deps, "neutral_risk", "Neutral Analyst", models.SpeakerNeutral)
}

func riskAnalystStep(deps *Deps, promptName, label string, speaker models.Speaker) Step {
	return func(ctx context.Context, state *models.AgentState) (*models.Delta, error) {
		debate := state.RiskDebate

		prompt, err := LoadPromptWithContext(promptName, map[string]string{
			"Ticker":           state.Ticker,
			"TraderPlan":       orNone(state.TraderPlan),
			"RiskMetrics":      riskMetricsText(ctx, deps, state),
			"DisagreementNote": disagreementNote(state),
			"History":          orNone(debate.History),
		})
		if err != nil {
			return nil, err
		}

		argument, err := deps.Model.Complete(ctx, prompt, llm.ThinkQuick)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strings.ToLower(label), err)
		}
		argument = strings.TrimSpace(argument)
		if argument == "" {
			argument = "(no argument provided)"
		}
		labeled := label + ": " + argument

		debate.History = strings.TrimSpace(debate.History + "\n" + labeled)
		switch speaker {
		case models.SpeakerAggressive:
			debate.AggressiveHistory = strings.TrimSpace(debate.AggressiveHistory + "\n" + labeled)
		case models.SpeakerConservative:
			debate.ConservativeHistory = strings.TrimSpace(debate.ConservativeHistory + "\n" + labeled)
		case models.SpeakerNeutral:
			debate.NeutralHistory = strings.TrimSpace(debate.NeutralHistory + "\n" + labeled)
		}
		debate.LastSpeaker = speaker
		debate.Count++

		return &models.Delta{RiskDebate: &debate}, nil
	}
}

// RiskJudge closes the risk debate: it rules on the trader's action, applies
// the position-size and price-level gate, and records the decision lineage.
// When riskOn is off the ruling still happens but the gate adjustment is
// skipped.
func RiskJudge(deps *Deps) Step {
	return func(ctx context.Context, state *models.AgentState) (*models.Delta, error) {
		if state.Decision == nil {
			return nil, fmt.Errorf("risk judge: no trader decision in state")
		}

		prompt, err := LoadPromptWithContext("risk_judge", map[string]string{
			"Ticker":      state.Ticker,
			"History":     orNone(state.RiskDebate.History),
			"TraderPlan":  orNone(state.TraderPlan),
			"RiskMetrics": riskMetricsText(ctx, deps, state),
		})
		if err != nil {
			return nil, err
		}

		ruling, err := deps.Model.Complete(ctx, prompt, llm.ThinkDeep)
		if err != nil {
			return nil, fmt.Errorf("risk judge: %w", err)
		}

		original := state.Decision.Action
		final := original
		if action, err := deps.Signals.ExtractAction(ctx, ruling, state.Ticker); err != nil {
			log.Printf("[Agents] risk judge action extraction failed for %s, keeping %s: %v", state.Ticker, original, err)
		} else {
			final = action
		}

		decision := state.Decision.Clone()
		decision.Action = final

		delta := &models.Delta{
			FinalRiskDecision: models.StringPtr(ruling),
			Metadata: &models.MetadataPatch{
				OriginalAction: models.ActionPtr(original),
				FinalAction:    models.ActionPtr(final),
				Overrode:       models.BoolPtr(final != original),
			},
		}

		if state.RunConfig.RiskOn {
			rating := riskRating(ctx, deps, state)
			before := decision.PositionSizePct
			decision = processing.ApplyRiskGate(decision, rating)
			delta.Reports = map[string]string{
				consts.ReportRiskGate: riskGateNote(rating, before, decision),
			}
		}

		delta.Decision = decision
		return delta, nil
	}
}

func riskRating(ctx context.Context, deps *Deps, state *models.AgentState) string {
	if deps.Market == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	m, err := deps.Market.RiskMetricsFor(ctx, state.Ticker, parseSimulatedDate(state))
	if err != nil {
		log.Printf("[Agents] risk rating for %s unavailable, defaulting: %v", state.Ticker, err)
		return ""
	}
	return m.RiskRating
}

func riskGateNote(rating string, sizeBefore float64, d *models.Decision) string {
	if rating == "" {
		rating = "MODERATE (default)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Risk gate applied at rating %s (ceiling %.0f%%).\n", rating, processing.PositionCeiling(rating))
	fmt.Fprintf(&b, "- Position size: %.2f%% -> %.2f%%\n", sizeBefore, d.PositionSizePct)
	fmt.Fprintf(&b, "- Final action: %s\n", d.Action)
	if d.Action != models.ActionHold && d.EntryPrice != nil && d.StopLoss != nil && d.TakeProfit != nil {
		fmt.Fprintf(&b, "- Levels: entry %.2f, stop %.2f, target %.2f\n", *d.EntryPrice, *d.StopLoss, *d.TakeProfit)
	}
	return strings.TrimSpace(b.String())
}
