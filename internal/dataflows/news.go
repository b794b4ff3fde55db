package dataflows

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	PubDate     string    `xml:"pubDate"`
	Source      rssSource `xml:"source"`
}

type rssSource struct {
	URL  string `xml:"url,attr"`
	Text string `xml:",chardata"`
}

// GoogleNewsClient fetches company news via the Google News RSS feed.
// It needs no API key, which makes it the fallback when Finnhub is not
// configured.
type GoogleNewsClient struct {
	client *resty.Client
}

func NewGoogleNewsClient() *GoogleNewsClient {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	return &GoogleNewsClient{client: client}
}

// CompanyNews searches the RSS feed for articles mentioning symbol within
// [from, to].
func (gc *GoogleNewsClient) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]NewsArticle, error) {
	query := fmt.Sprintf("%s stock after:%s before:%s",
		symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))

	v := url.Values{}
	v.Set("q", query)
	v.Set("hl", "en")
	v.Set("gl", "US")
	v.Set("ceid", "US:en")
	feedURL := "https://news.google.com/rss/search?" + v.Encode()

	resp, err := gc.client.R().SetContext(ctx).Get(feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news feed for %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("news feed HTTP error %d", resp.StatusCode())
	}

	var feed rssFeed
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, fmt.Errorf("failed to parse news feed: %w", err)
	}

	articles := make([]NewsArticle, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		articles = append(articles, NewsArticle{
			Headline:    strings.TrimSpace(item.Title),
			Summary:     cleanHTMLContent(item.Description),
			Source:      itemSource(item),
			URL:         item.Link,
			PublishedAt: parsePubDate(item.PubDate),
		})
	}
	return articles, nil
}

func itemSource(item rssItem) string {
	if item.Source.Text != "" {
		return item.Source.Text
	}
	if u, err := url.Parse(item.Source.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return "Google News"
}

func parsePubDate(s string) time.Time {
	t, err := time.Parse(time.RFC1123Z, s)
	if err != nil {
		t, _ = time.Parse("Mon, 02 Jan 2006 15:04:05 MST", s)
	}
	if t.IsZero() {
		t = time.Now()
	}
	return t
}

// cleanHTMLContent extracts plain text from an RSS description, which Google
// emits as an HTML fragment.
func cleanHTMLContent(htmlContent string) string {
	if htmlContent == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return stripHTMLTags(htmlContent)
	}

	text := strings.TrimSpace(doc.Text())
	if text == "" {
		return stripHTMLTags(htmlContent)
	}
	return text
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

func stripHTMLTags(content string) string {
	content = htmlTagPattern.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "&nbsp;", " ")
	content = strings.ReplaceAll(content, "&amp;", "&")
	content = strings.ReplaceAll(content, "&lt;", "<")
	content = strings.ReplaceAll(content, "&gt;", ">")
	content = strings.ReplaceAll(content, "&quot;", "\"")
	content = strings.ReplaceAll(content, "&#39;", "'")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(content, " "))
}
