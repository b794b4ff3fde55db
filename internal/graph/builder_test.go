package graph

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dyike/NexusGo/consts"
	"github.com/dyike/NexusGo/internal/agents"
	"github.com/dyike/NexusGo/internal/dataflows"
	"github.com/dyike/NexusGo/internal/llm"
	"github.com/dyike/NexusGo/internal/models"
	"github.com/dyike/NexusGo/internal/processing"
)

type scriptedModel struct{}

func (scriptedModel) Complete(ctx context.Context, prompt string, level llm.ThinkingLevel) (string, error) {
	return "BUY", nil
}

type buyClassifier struct{}

func (buyClassifier) ClassifySignal(ctx context.Context, text, ticker string) (string, error) {
	return "BUY", nil
}

type fixedMarket struct{}

func (fixedMarket) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]dataflows.Bar, error) {
	return nil, fmt.Errorf("no bars in test fixture")
}

func (fixedMarket) RiskMetricsFor(ctx context.Context, symbol string, asOf time.Time) (*dataflows.RiskMetrics, error) {
	return &dataflows.RiskMetrics{CurrentPrice: 100, VolatilityPct: 50, MaxDrawdownPct: 40, RiskRating: "HIGH"}, nil
}

func stubDeps() *agents.Deps {
	return &agents.Deps{
		Model:   scriptedModel{},
		Market:  fixedMarket{},
		Signals: processing.NewSignalProcessor(buyClassifier{}),
	}
}

func runWorkflow(t *testing.T, rc models.RunConfig) ([]string, *models.AgentState) {
	t.Helper()
	exec, err := BuildTradingGraph(stubDeps(), rc)
	if err != nil {
		t.Fatalf("BuildTradingGraph: %v", err)
	}

	state := models.NewAgentState("AAPL", "US", rc)
	events, errc := exec.RunStream(context.Background(), Entry, state)

	var sequence []string
	var last *models.AgentState
	for ev := range events {
		sequence = append(sequence, ev.Step)
		last = ev.State
	}
	if err := <-errc; err != nil {
		t.Fatalf("RunStream: %v", err)
	}
	return sequence, last
}

func TestFullWorkflowSequence(t *testing.T) {
	rc := models.RunConfig{
		SimulatedDate: "2026-08-25",
		Horizon:       models.HorizonMedium,
		DebateRounds:  1,
		RiskRounds:    1,
		RiskOn:        true,
		SocialOn:      true,
	}
	sequence, final := runWorkflow(t, rc)

	want := []string{
		consts.FundamentalAnalyst,
		consts.TechnicalAnalyst,
		consts.SentimentAnalyst,
		consts.NewsHarvester,
		consts.BullResearcher,
		consts.BearResearcher,
		consts.ResearchManager,
		consts.Trader,
		consts.AggressiveRisk,
		consts.ConservativeRisk,
		consts.NeutralRisk,
		consts.RiskJudge,
	}
	if fmt.Sprint(sequence) != fmt.Sprint(want) {
		t.Fatalf("sequence = %v\nwant %v", sequence, want)
	}

	d := final.Decision
	if d == nil {
		t.Fatal("expected a final decision")
	}
	if d.Action != models.ActionBuy {
		t.Errorf("action = %s", d.Action)
	}
	if d.PositionSizePct != 8 {
		t.Errorf("HIGH risk rating should gate size to 8, got %v", d.PositionSizePct)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("final decision invalid: %v", err)
	}

	if !strings.HasPrefix(final.InvestmentDebate.History, "Bull Analyst: ") {
		t.Errorf("bull should open the debate, history = %q", final.InvestmentDebate.History)
	}
	if final.InvestmentDebate.Count != 2 || final.RiskDebate.Count != 3 {
		t.Errorf("debate counts = %d/%d", final.InvestmentDebate.Count, final.RiskDebate.Count)
	}
	if final.Reports[consts.ReportRiskGate] == "" {
		t.Error("expected risk gate report")
	}
	if final.Metadata.FinalAction != models.ActionBuy || final.Metadata.Overrode {
		t.Errorf("metadata = %+v", final.Metadata)
	}
}

func TestWorkflowSkipsSentimentWhenSocialOff(t *testing.T) {
	rc := models.RunConfig{
		SimulatedDate: "2026-08-25",
		DebateRounds:  1,
		RiskRounds:    1,
		RiskOn:        true,
	}
	sequence, final := runWorkflow(t, rc)

	for _, step := range sequence {
		if step == consts.SentimentAnalyst {
			t.Fatal("sentiment analyst must be skipped when social is off")
		}
	}
	if _, ok := final.Reports[consts.ReportSentiment]; ok {
		t.Error("no sentiment report expected")
	}
	if len(sequence) != 11 {
		t.Errorf("sequence length = %d, want 11", len(sequence))
	}
}

func TestWorkflowRunsExtraDebateRounds(t *testing.T) {
	rc := models.RunConfig{
		SimulatedDate: "2026-08-25",
		DebateRounds:  2,
		RiskRounds:    1,
		RiskOn:        true,
	}
	sequence, final := runWorkflow(t, rc)

	var debateTurns []string
	for _, step := range sequence {
		if step == consts.BullResearcher || step == consts.BearResearcher {
			debateTurns = append(debateTurns, step)
		}
	}
	want := []string{consts.BullResearcher, consts.BearResearcher, consts.BullResearcher, consts.BearResearcher}
	if fmt.Sprint(debateTurns) != fmt.Sprint(want) {
		t.Errorf("debate turns = %v", debateTurns)
	}
	if final.InvestmentDebate.Count != 4 {
		t.Errorf("debate count = %d, want 4", final.InvestmentDebate.Count)
	}
}

func TestRunAndStreamProduceSameSequence(t *testing.T) {
	rc := models.RunConfig{
		SimulatedDate: "2026-08-25",
		DebateRounds:  1,
		RiskRounds:    1,
		RiskOn:        true,
		SocialOn:      true,
	}
	streamSeq, streamFinal := runWorkflow(t, rc)

	exec, err := BuildTradingGraph(stubDeps(), rc)
	if err != nil {
		t.Fatalf("BuildTradingGraph: %v", err)
	}
	final, err := exec.Run(context.Background(), Entry, models.NewAgentState("AAPL", "US", rc))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(streamSeq) == 0 {
		t.Fatal("empty stream sequence")
	}
	if final.Decision.Action != streamFinal.Decision.Action ||
		final.Decision.PositionSizePct != streamFinal.Decision.PositionSizePct {
		t.Error("Run and RunStream reached different decisions")
	}
}
