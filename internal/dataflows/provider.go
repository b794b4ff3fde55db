package dataflows

import (
	"context"
	"log"
	"time"

	"github.com/dyike/NexusGo/config"
)

// CompositeProvider routes market-data requests by venue: Longport for .HK
// symbols when credentials exist, Yahoo for everything else.
type CompositeProvider struct {
	yahoo    *YahooClient
	longport *LongportClient
}

func NewCompositeProvider(cfg *config.Config) *CompositeProvider {
	p := &CompositeProvider{yahoo: NewYahooClient()}

	lp, err := NewLongportClient(cfg)
	if err != nil {
		log.Printf("[Dataflows] longport unavailable, HK symbols fall back to yahoo: %v", err)
	} else {
		p.longport = lp
	}
	return p
}

func (p *CompositeProvider) pick(symbol string) MarketDataProvider {
	if IsHKSymbol(symbol) && p.longport != nil {
		return p.longport
	}
	return p.yahoo
}

func (p *CompositeProvider) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	return p.pick(symbol).DailyBars(ctx, symbol, start, end)
}

func (p *CompositeProvider) RiskMetricsFor(ctx context.Context, symbol string, asOf time.Time) (*RiskMetrics, error) {
	return p.pick(symbol).RiskMetricsFor(ctx, symbol, asOf)
}

// NewNewsProvider prefers Finnhub when an API key is configured and falls
// back to scraping Google News otherwise.
func NewNewsProvider(cfg *config.Config) NewsProvider {
	if cfg.FinnhubAPIKey != "" {
		return NewFinnhubClient(cfg.FinnhubAPIKey)
	}
	return NewGoogleNewsClient()
}
