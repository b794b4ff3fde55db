package consts

// Workflow node keys. Edge tables and routing functions refer to steps by
// these names.
const (
	// Analyst team
	FundamentalAnalyst = "fundamental_analyst"
	TechnicalAnalyst   = "technical_analyst"
	SentimentAnalyst   = "sentiment_analyst"
	NewsHarvester      = "news_harvester"

	// Research team
	BullResearcher  = "bull_researcher"
	BearResearcher  = "bear_researcher"
	ResearchManager = "research_manager"

	// Execution
	Trader = "trader"

	// Risk management team
	AggressiveRisk   = "aggressive_risk"
	ConservativeRisk = "conservative_risk"
	NeutralRisk      = "neutral_risk"
	RiskJudge        = "risk_judge"
)

// Report keys under AgentState.Reports.
const (
	ReportFundamental = "fundamental_analyst"
	ReportTechnical   = "technical_analyst"
	ReportSentiment   = "sentiment_analyst"
	ReportNews        = "news_harvester"
	ReportRiskGate    = "risk_gate"
)
