package models

import (
	"fmt"
	"time"
)

// Horizon is the configured forward-looking analysis window.
type Horizon string

const (
	HorizonShort  Horizon = "short"
	HorizonMedium Horizon = "medium"
	HorizonLong   Horizon = "long"
)

// TradingDays returns the trading-day count bound to the horizon.
func (h Horizon) TradingDays() int {
	switch h {
	case HorizonShort:
		return 10
	case HorizonLong:
		return 126
	default:
		return 21
	}
}

// Speaker identifies who produced the latest turn of a debate.
type Speaker string

const (
	SpeakerNone         Speaker = ""
	SpeakerBull         Speaker = "Bull"
	SpeakerBear         Speaker = "Bear"
	SpeakerAggressive   Speaker = "Aggressive"
	SpeakerConservative Speaker = "Conservative"
	SpeakerNeutral      Speaker = "Neutral"
)

// InvestDebateState tracks the bull/bear research debate.
type InvestDebateState struct {
	History     string  `json:"history"`
	BullHistory string  `json:"bull_history"`
	BearHistory string  `json:"bear_history"`
	LastSpeaker Speaker `json:"last_speaker"`
	Count       int     `json:"count"`
	JudgeOutput string  `json:"judge_output"`
}

// RiskDebateState tracks the three-way risk debate.
type RiskDebateState struct {
	History             string  `json:"history"`
	AggressiveHistory   string  `json:"aggressive_history"`
	ConservativeHistory string  `json:"conservative_history"`
	NeutralHistory      string  `json:"neutral_history"`
	LastSpeaker         Speaker `json:"last_speaker"`
	Count               int     `json:"count"`
}

// RunMetadata records the decision lineage of a run. Fields are written once
// and consumed only for observability; the engine never reconciles a
// manager/trader disagreement.
type RunMetadata struct {
	ManagerRecommendation Action `json:"manager_recommendation"`
	TraderRecommendation  Action `json:"trader_recommendation"`
	OriginalAction        Action `json:"risk_original_action"`
	FinalAction           Action `json:"risk_final_action"`
	Overrode              bool   `json:"risk_overrode_action"`
}

// RunConfig carries the read-only per-run flags consumed by conditional
// edges and the debate controller.
type RunConfig struct {
	SimulatedDate string  `json:"simulated_date"`
	Horizon       Horizon `json:"horizon"`
	DebateRounds  int     `json:"debate_rounds"`
	RiskRounds    int     `json:"risk_rounds"`
	RiskOn        bool    `json:"risk_on"`
	MemoryOn      bool    `json:"memory_on"`
	SocialOn      bool    `json:"social_on"`
}

// AgentState is the single mutable record threaded through one workflow
// invocation. Steps read it but never mutate it directly; each step returns
// a Delta which the executor merges.
type AgentState struct {
	Ticker        string  `json:"ticker"`
	Market        string  `json:"market"`
	SimulatedDate string  `json:"simulated_date"`
	Horizon       Horizon `json:"horizon"`

	RunConfig RunConfig `json:"run_config"`

	Reports map[string]string `json:"reports"`

	InvestmentDebate InvestDebateState `json:"investment_debate_state"`
	RiskDebate       RiskDebateState   `json:"risk_debate_state"`

	InvestmentPlan    string `json:"investment_plan"`
	TraderPlan        string `json:"trader_investment_plan"`
	FinalRiskDecision string `json:"final_risk_decision"`

	Decision *Decision   `json:"decision"`
	Metadata RunMetadata `json:"run_metadata"`
}

// NewAgentState creates a fresh run state.
func NewAgentState(ticker, market string, rc RunConfig) *AgentState {
	if rc.SimulatedDate == "" {
		rc.SimulatedDate = time.Now().Format("2006-01-02")
	}
	if rc.Horizon == "" {
		rc.Horizon = HorizonMedium
	}
	return &AgentState{
		Ticker:        ticker,
		Market:        market,
		SimulatedDate: rc.SimulatedDate,
		Horizon:       rc.Horizon,
		RunConfig:     rc,
		Reports:       make(map[string]string),
	}
}

// Clone returns a deep copy. Streaming emits clones so observers never see
// a state the executor is still writing.
func (s *AgentState) Clone() *AgentState {
	out := *s
	out.Reports = make(map[string]string, len(s.Reports))
	for k, v := range s.Reports {
		out.Reports[k] = v
	}
	if s.Decision != nil {
		d := s.Decision.Clone()
		out.Decision = d
	}
	return &out
}

// Delta is the write set a step hands back to the executor. nil fields mean
// "unchanged". Report entries are append-once: merging a key that already
// exists is an error, which keeps analyst output write-once per kind.
type Delta struct {
	Reports map[string]string

	InvestmentDebate *InvestDebateState
	RiskDebate       *RiskDebateState

	InvestmentPlan    *string
	TraderPlan        *string
	FinalRiskDecision *string

	Decision *Decision
	Metadata *MetadataPatch
}

// MetadataPatch sets individual RunMetadata fields.
type MetadataPatch struct {
	ManagerRecommendation *Action
	TraderRecommendation  *Action
	OriginalAction        *Action
	FinalAction           *Action
	Overrode              *bool
}

// Apply merges a step's delta into the state. Only the executor calls this.
func (s *AgentState) Apply(d *Delta) error {
	if d == nil {
		return nil
	}
	for k, v := range d.Reports {
		if _, exists := s.Reports[k]; exists {
			return fmt.Errorf("report %q already written", k)
		}
		s.Reports[k] = v
	}
	if d.InvestmentDebate != nil {
		s.InvestmentDebate = *d.InvestmentDebate
	}
	if d.RiskDebate != nil {
		s.RiskDebate = *d.RiskDebate
	}
	if d.InvestmentPlan != nil {
		s.InvestmentPlan = *d.InvestmentPlan
	}
	if d.TraderPlan != nil {
		s.TraderPlan = *d.TraderPlan
	}
	if d.FinalRiskDecision != nil {
		s.FinalRiskDecision = *d.FinalRiskDecision
	}
	if d.Decision != nil {
		s.Decision = d.Decision
	}
	if m := d.Metadata; m != nil {
		if m.ManagerRecommendation != nil {
			s.Metadata.ManagerRecommendation = *m.ManagerRecommendation
		}
		if m.TraderRecommendation != nil {
			s.Metadata.TraderRecommendation = *m.TraderRecommendation
		}
		if m.OriginalAction != nil {
			s.Metadata.OriginalAction = *m.OriginalAction
		}
		if m.FinalAction != nil {
			s.Metadata.FinalAction = *m.FinalAction
		}
		if m.Overrode != nil {
			s.Metadata.Overrode = *m.Overrode
		}
	}
	return nil
}

// StringPtr is a convenience for building deltas.
func StringPtr(s string) *string { return &s }

// ActionPtr is a convenience for building metadata patches.
func ActionPtr(a Action) *Action { return &a }

// BoolPtr is a convenience for building metadata patches.
func BoolPtr(b bool) *bool { return &b }
