package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// GNewsClient 调用 gnews.io 的 top-headlines 接口
type GNewsClient struct {
	APIKey  string
	Keyword string
	Country string
	BaseURL string

	client *http.Client
}

func NewGNewsClient(apiKey string) *GNewsClient {
	return &GNewsClient{
		APIKey:  apiKey,
		BaseURL: "https://gnews.io",
		client:  &http.Client{Timeout: aggregatorClientTimeout},
	}
}

func (g *GNewsClient) ID() string {
	return "gnews"
}

func (g *GNewsClient) Configured() bool {
	return g.APIKey != ""
}

type gnewsResp struct {
	TotalArticles int `json:"totalArticles"`
	Articles      []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Image       string `json:"image"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"source"`
	} `json:"articles"`
}

func (g *GNewsClient) Fetch(ctx context.Context) ([]NewsItem, error) {
	if !g.Configured() {
		return nil, nil
	}

	q := url.Values{}
	q.Set("token", g.APIKey)
	q.Set("lang", "en")
	if g.Keyword != "" {
		q.Set("q", g.Keyword)
	}
	if g.Country != "" {
		q.Set("country", g.Country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/api/v4/top-headlines?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("gnews: build request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gnews: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("gnews: rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gnews: unexpected status %d", resp.StatusCode)
	}

	var out gnewsResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, aggregatorMaxResponseBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("gnews: decode: %w", err)
	}

	items := make([]NewsItem, 0, len(out.Articles))
	for _, a := range out.Articles {
		title := truncateRunes(strings.TrimSpace(a.Title), titleMaxRunes)
		if title == "" || a.URL == "" {
			continue
		}

		items = append(items, NewsItem{
			ID:            HashID(a.URL, title),
			Title:         title,
			Summary:       truncateRunes(stripHTML(a.Description), summaryMaxRunes),
			SourceName:    a.Source.Name,
			SourceURL:     a.URL,
			ImageURL:      a.Image,
			PublishedAt:   parseAggregatorTime(a.PublishedAt),
			Category:      "general",
			Region:        "global",
			SourceType:    SourceTypeAggregator,
			AggregatorTag: g.ID(),
		})
	}

	return items, nil
}
