package dataflows

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

// YahooClient fetches US-market daily history from Yahoo Finance.
type YahooClient struct{}

func NewYahooClient() *YahooClient {
	return &YahooClient{}
}

func (yc *YahooClient) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)
	var bars []Bar
	for iter.Next() {
		b := iter.Bar()
		bars = append(bars, Bar{
			Date:   time.Unix(int64(b.Timestamp), 0),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo chart for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo returned no bars for %s", symbol)
	}
	return bars, nil
}

func (yc *YahooClient) RiskMetricsFor(ctx context.Context, symbol string, asOf time.Time) (*RiskMetrics, error) {
	bars, err := yc.DailyBars(ctx, symbol, asOf.AddDate(-1, 0, 0), asOf)
	if err != nil {
		return nil, err
	}
	return ComputeRiskMetrics(bars)
}
