package graph

import (
	"github.com/dyike/NexusGo/consts"
	"github.com/dyike/NexusGo/internal/models"
)

// ConditionalLogic supplies the routing decisions for the two debate cycles.
// Round counts are incremented by the speaking steps; the controller only
// reads them.
type ConditionalLogic struct {
	MaxDebateRounds int
	MaxRiskRounds   int
}

func NewConditionalLogic(debateRounds, riskRounds int) *ConditionalLogic {
	if debateRounds < 1 {
		debateRounds = 1
	}
	if riskRounds < 1 {
		riskRounds = 1
	}
	return &ConditionalLogic{
		MaxDebateRounds: debateRounds,
		MaxRiskRounds:   riskRounds,
	}
}

// NextDebateNode routes the bull/bear debate. One round is two turns, so the
// judge takes over once count reaches 2*maxRounds. Bull always opens.
func (cl *ConditionalLogic) NextDebateNode(state *models.AgentState) string {
	debate := state.InvestmentDebate
	if debate.Count >= 2*cl.MaxDebateRounds {
		return consts.ResearchManager
	}
	if debate.LastSpeaker == models.SpeakerBull {
		return consts.BearResearcher
	}
	// Bear just spoke, or nobody has.
	return consts.BullResearcher
}

// NextRiskNode routes the three-way risk debate in the fixed cycle
// Aggressive -> Conservative -> Neutral -> Aggressive. One round is three
// turns. Aggressive opens; after Neutral's final turn of the last round the
// debate goes straight to the judge instead of looping once more.
func (cl *ConditionalLogic) NextRiskNode(state *models.AgentState) string {
	debate := state.RiskDebate
	limit := 3 * cl.MaxRiskRounds
	if debate.Count >= limit {
		return consts.RiskJudge
	}
	switch debate.LastSpeaker {
	case models.SpeakerAggressive:
		return consts.ConservativeRisk
	case models.SpeakerConservative:
		return consts.NeutralRisk
	case models.SpeakerNeutral:
		if debate.Count >= limit-1 {
			return consts.RiskJudge
		}
		return consts.AggressiveRisk
	default:
		// Opening turn.
		return consts.AggressiveRisk
	}
}

// NextAfterTechnical skips the sentiment analyst when social analysis is
// switched off for the run.
func (cl *ConditionalLogic) NextAfterTechnical(state *models.AgentState) string {
	if state.RunConfig.SocialOn {
		return consts.SentimentAnalyst
	}
	return consts.NewsHarvester
}
