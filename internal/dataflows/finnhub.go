package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// FinnhubClient fetches company news from the Finnhub REST API.
type FinnhubClient struct {
	client *resty.Client
	apiKey string
}

func NewFinnhubClient(apiKey string) *FinnhubClient {
	client := resty.New()
	client.SetBaseURL("https://finnhub.io/api/v1")
	client.SetTimeout(30 * time.Second)

	return &FinnhubClient{client: client, apiKey: apiKey}
}

type finnhubNews struct {
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// CompanyNews returns articles about symbol published in [from, to].
func (fc *FinnhubClient) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]NewsArticle, error) {
	if fc.apiKey == "" {
		return nil, fmt.Errorf("finnhub API key not configured")
	}

	resp, err := fc.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"from":   from.Format("2006-01-02"),
			"to":     to.Format("2006-01-02"),
			"token":  fc.apiKey,
		}).
		Get("/company-news")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news for %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("finnhub API error %d: %s", resp.StatusCode(), resp.String())
	}

	var items []finnhubNews
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, fmt.Errorf("failed to parse news response: %w", err)
	}

	articles := make([]NewsArticle, 0, len(items))
	for _, it := range items {
		articles = append(articles, NewsArticle{
			Headline:    it.Headline,
			Summary:     it.Summary,
			Source:      it.Source,
			URL:         it.URL,
			PublishedAt: time.Unix(it.DateTime, 0),
		})
	}
	return articles, nil
}
