package graph

import (
	"testing"

	"github.com/dyike/NexusGo/consts"
	"github.com/dyike/NexusGo/internal/models"
)

func debateState(count int, last models.Speaker) *models.AgentState {
	s := models.NewAgentState("AAPL", "US", models.RunConfig{})
	s.InvestmentDebate = models.InvestDebateState{Count: count, LastSpeaker: last}
	return s
}

func riskState(count int, last models.Speaker) *models.AgentState {
	s := models.NewAgentState("AAPL", "US", models.RunConfig{})
	s.RiskDebate = models.RiskDebateState{Count: count, LastSpeaker: last}
	return s
}

func TestNextDebateNodeAlternatesAndCutsOff(t *testing.T) {
	cl := NewConditionalLogic(1, 1)

	cases := []struct {
		count int
		last  models.Speaker
		want  string
	}{
		{0, models.SpeakerNone, consts.BullResearcher},
		{1, models.SpeakerBull, consts.BearResearcher},
		{2, models.SpeakerBear, consts.ResearchManager},
	}
	for _, tc := range cases {
		if got := cl.NextDebateNode(debateState(tc.count, tc.last)); got != tc.want {
			t.Errorf("count=%d last=%s: got %s, want %s", tc.count, tc.last, got, tc.want)
		}
	}
}

func TestNextDebateNodeTwoRounds(t *testing.T) {
	cl := NewConditionalLogic(2, 1)

	if got := cl.NextDebateNode(debateState(2, models.SpeakerBear)); got != consts.BullResearcher {
		t.Errorf("after round one the bull should reopen, got %s", got)
	}
	if got := cl.NextDebateNode(debateState(4, models.SpeakerBear)); got != consts.ResearchManager {
		t.Errorf("after two full rounds the judge should take over, got %s", got)
	}
}

func TestNextRiskNodeRotation(t *testing.T) {
	cl := NewConditionalLogic(1, 1)

	cases := []struct {
		count int
		last  models.Speaker
		want  string
	}{
		{0, models.SpeakerNone, consts.AggressiveRisk},
		{1, models.SpeakerAggressive, consts.ConservativeRisk},
		{2, models.SpeakerConservative, consts.NeutralRisk},
		{3, models.SpeakerNeutral, consts.RiskJudge},
	}
	for _, tc := range cases {
		if got := cl.NextRiskNode(riskState(tc.count, tc.last)); got != tc.want {
			t.Errorf("count=%d last=%s: got %s, want %s", tc.count, tc.last, got, tc.want)
		}
	}
}

func TestNextRiskNodeNeutralShortCircuit(t *testing.T) {
	cl := NewConditionalLogic(1, 1)

	// One judge-bound turn early: neutral spoke and only the formality of
	// the count remains.
	if got := cl.NextRiskNode(riskState(2, models.SpeakerNeutral)); got != consts.RiskJudge {
		t.Errorf("got %s, want %s", got, consts.RiskJudge)
	}
}

func TestNextRiskNodeTwoRoundsLoops(t *testing.T) {
	cl := NewConditionalLogic(1, 2)

	if got := cl.NextRiskNode(riskState(3, models.SpeakerNeutral)); got != consts.AggressiveRisk {
		t.Errorf("after round one aggressive should reopen, got %s", got)
	}
	if got := cl.NextRiskNode(riskState(6, models.SpeakerNeutral)); got != consts.RiskJudge {
		t.Errorf("after two full rounds the judge should take over, got %s", got)
	}
}

func TestRoundsClampToOne(t *testing.T) {
	cl := NewConditionalLogic(0, -3)
	if cl.MaxDebateRounds != 1 || cl.MaxRiskRounds != 1 {
		t.Errorf("rounds = %d/%d, want 1/1", cl.MaxDebateRounds, cl.MaxRiskRounds)
	}
}

func TestNextAfterTechnical(t *testing.T) {
	cl := NewConditionalLogic(1, 1)

	s := models.NewAgentState("AAPL", "US", models.RunConfig{SocialOn: true})
	if got := cl.NextAfterTechnical(s); got != consts.SentimentAnalyst {
		t.Errorf("socialOn: got %s", got)
	}
	s.RunConfig.SocialOn = false
	if got := cl.NextAfterTechnical(s); got != consts.NewsHarvester {
		t.Errorf("social off: got %s", got)
	}
}
