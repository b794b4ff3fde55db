package graph

import (
	"github.com/dyike/NexusGo/consts"
	"github.com/dyike/NexusGo/internal/agents"
	"github.com/dyike/NexusGo/internal/models"
)

// Entry is the first step of the trading workflow.
const Entry = consts.FundamentalAnalyst

// BuildTradingGraph assembles the full workflow: analyst pipeline, bull/bear
// research debate, trader, and the three-way risk debate closed by the risk
// judge. Routing decisions live in ConditionalLogic; every routed edge
// declares the keys it may return so misrouting fails loudly at build or run
// time.
func BuildTradingGraph(deps *agents.Deps, rc models.RunConfig) (*Executor, error) {
	cl := NewConditionalLogic(rc.DebateRounds, rc.RiskRounds)

	steps := map[string]Step{
		consts.FundamentalAnalyst: Step(agents.FundamentalAnalyst(deps)),
		consts.TechnicalAnalyst:   Step(agents.TechnicalAnalyst(deps)),
		consts.SentimentAnalyst:   Step(agents.SentimentAnalyst(deps)),
		consts.NewsHarvester:      Step(agents.NewsHarvester(deps)),
		consts.BullResearcher:     Step(agents.BullResearcher(deps)),
		consts.BearResearcher:     Step(agents.BearResearcher(deps)),
		consts.ResearchManager:    Step(agents.ResearchManager(deps)),
		consts.Trader:             Step(agents.Trader(deps)),
		consts.AggressiveRisk:     Step(agents.AggressiveRisk(deps)),
		consts.ConservativeRisk:   Step(agents.ConservativeRisk(deps)),
		consts.NeutralRisk:        Step(agents.NeutralRisk(deps)),
		consts.RiskJudge:          Step(agents.RiskJudge(deps)),
	}

	edges := map[string]Edge{
		consts.FundamentalAnalyst: StaticEdge(consts.TechnicalAnalyst),
		consts.TechnicalAnalyst: RoutedEdge(cl.NextAfterTechnical,
			consts.SentimentAnalyst, consts.NewsHarvester),
		consts.SentimentAnalyst: StaticEdge(consts.NewsHarvester),
		consts.NewsHarvester:    StaticEdge(consts.BullResearcher),
		consts.BullResearcher: RoutedEdge(cl.NextDebateNode,
			consts.BearResearcher, consts.ResearchManager),
		consts.BearResearcher: RoutedEdge(cl.NextDebateNode,
			consts.BullResearcher, consts.ResearchManager),
		consts.ResearchManager: StaticEdge(consts.Trader),
		consts.Trader:          StaticEdge(consts.AggressiveRisk),
		consts.AggressiveRisk: RoutedEdge(cl.NextRiskNode,
			consts.ConservativeRisk, consts.RiskJudge),
		consts.ConservativeRisk: RoutedEdge(cl.NextRiskNode,
			consts.NeutralRisk, consts.RiskJudge),
		consts.NeutralRisk: RoutedEdge(cl.NextRiskNode,
			consts.AggressiveRisk, consts.RiskJudge),
		consts.RiskJudge: StaticEdge(End),
	}

	return NewExecutor(steps, edges)
}
