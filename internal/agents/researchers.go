package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyike/NexusGo/internal/llm"
	"github.com/dyike/NexusGo/internal/models"
)

// BullResearcher argues for the investment. Each turn appends one labeled
// argument to the shared transcript and the bull's private history, in a
// single delta so the debate state never updates partially.
func BullResearcher(deps *Deps) Step {
	return researcherStep(deps, "bull_researcher", "Bull Analyst", models.SpeakerBull)
}

// BearResearcher argues against the investment.
func BearResearcher(deps *Deps) Step {
	return researcherStep(deps, "bear_researcher", "Bear Analyst", models.SpeakerBear)
}

func researcherStep(deps *Deps, promptName, label string, speaker models.Speaker) Step {
	return func(ctx context.Context, state *models.AgentState) (*models.Delta, error) {
		debate := state.InvestmentDebate

		prompt, err := LoadPromptWithContext(promptName, map[string]string{
			"Ticker":          state.Ticker,
			"Reports":         reportBundle(state),
			"History":         orNone(debate.History),
			"CurrentResponse": orNone(lastArgument(debate.History)),
			"PastMemories":    pastMemories(ctx, deps, state),
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
		if speaker == models.SpeakerBull {
			debate.BullHistory = strings.TrimSpace(debate.BullHistory + "\n" + labeled)
		} else {
			debate.BearHistory = strings.TrimSpace(debate.BearHistory + "\n" + labeled)
		}
		debate.LastSpeaker = speaker
		debate.Count++

		return &models.Delta{InvestmentDebate: &debate}, nil
	}
}

// lastArgument returns the final turn of a transcript. Turns are delimited
// by the speaker labels, so a turn may span multiple lines.
func lastArgument(history string) string {
	history = strings.TrimSpace(history)
	idx := -1
	for _, label := range []string{
		"Bull Analyst: ", "Bear Analyst: ",
		"Aggressive Analyst: ", "Conservative Analyst: ", "Neutral Analyst: ",
	} {
		if i := strings.LastIndex(history, label); i > idx {
			idx = i
		}
	}
	if idx < 0 {
		return history
	}
	return history[idx:]
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none yet)"
	}
	return s
}
