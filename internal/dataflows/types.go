package dataflows

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one daily candle.
type Bar struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// RiskMetrics summarizes a ticker's recent risk profile as of a date.
type RiskMetrics struct {
	CurrentPrice   float64 `json:"current_price"`
	VolatilityPct  float64 `json:"volatility_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	RiskRating     string  `json:"risk_rating"` // LOW, MODERATE, HIGH
}

// NewsArticle is one headline with its summary.
type NewsArticle struct {
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// MarketDataProvider supplies price history and derived risk metrics.
type MarketDataProvider interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error)
	RiskMetricsFor(ctx context.Context, symbol string, asOf time.Time) (*RiskMetrics, error)
}

// NewsProvider supplies recent company news.
type NewsProvider interface {
	CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]NewsArticle, error)
}
