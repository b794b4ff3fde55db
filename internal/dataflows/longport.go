package dataflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"
	"github.com/shopspring/decimal"

	"github.com/dyike/NexusGo/config"
)

// LongportClient fetches HK-market daily history through the Longport
// OpenAPI.
type LongportClient struct {
	quoteCtx *quote.QuoteContext
}

func NewLongportClient(cfg *config.Config) (*LongportClient, error) {
	if cfg.LongportAppKey == "" || cfg.LongportAppSecret == "" || cfg.LongportAccessToken == "" {
		return nil, errors.New("longport API credentials not configured")
	}

	conf, err := lpconfig.New(lpconfig.WithConfigKey(cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken))
	if err != nil {
		return nil, err
	}

	quoteContext, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, err
	}

	return &LongportClient{quoteCtx: quoteContext}, nil
}

func (lc *LongportClient) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	if lc.quoteCtx == nil {
		return nil, errors.New("longport quote context is nil")
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	sticks, err := lc.quoteCtx.Candlesticks(ctx, symbol, quote.PeriodDay, int32(days), quote.AdjustTypeNo)
	if err != nil {
		return nil, fmt.Errorf("longport candlesticks for %s: %w", symbol, err)
	}

	var bars []Bar
	for _, s := range sticks {
		date := time.Unix(s.Timestamp, 0)
		if date.Before(start) || date.After(end) {
			continue
		}
		open, _ := s.Open.Float64()
		high, _ := s.High.Float64()
		low, _ := s.Low.Float64()
		closePx, _ := s.Close.Float64()
		bars = append(bars, Bar{
			Date:   date,
			Open:   decimal.NewFromFloat(open),
			High:   decimal.NewFromFloat(high),
			Low:    decimal.NewFromFloat(low),
			Close:  decimal.NewFromFloat(closePx),
			Volume: s.Volume,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("longport returned no bars for %s", symbol)
	}
	return bars, nil
}

func (lc *LongportClient) RiskMetricsFor(ctx context.Context, symbol string, asOf time.Time) (*RiskMetrics, error) {
	bars, err := lc.DailyBars(ctx, symbol, asOf.AddDate(-1, 0, 0), asOf)
	if err != nil {
		return nil, err
	}
	return ComputeRiskMetrics(bars)
}
