package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	aggregatorClientTimeout   = 15 * time.Second
	aggregatorMaxResponseBytes = 1 << 20 // 1MB
)

// NewsDataClient 调用 newsdata.io 的 latest 接口
type NewsDataClient struct {
	APIKey  string
	Keyword string
	Country string
	BaseURL string

	client *http.Client
}

func NewNewsDataClient(apiKey string) *NewsDataClient {
	return &NewsDataClient{
		APIKey:  apiKey,
		BaseURL: "https://newsdata.io",
		client:  &http.Client{Timeout: aggregatorClientTimeout},
	}
}

func (n *NewsDataClient) ID() string {
	return "newsdata"
}

func (n *NewsDataClient) Configured() bool {
	return n.APIKey != ""
}

type newsDataResp struct {
	Status  string `json:"status"`
	Results []struct {
		Title       string   `json:"title"`
		Link        string   `json:"link"`
		Description string   `json:"description"`
		ImageURL    string   `json:"image_url"`
		PubDate     string   `json:"pubDate"`
		SourceID    string   `json:"source_id"`
		Category    []string `json:"category"`
		Country     []string `json:"country"`
		Keywords    []string `json:"keywords"`
	} `json:"results"`
}

func (n *NewsDataClient) Fetch(ctx context.Context) ([]NewsItem, error) {
	if !n.Configured() {
		return nil, nil
	}

	q := url.Values{}
	q.Set("apikey", n.APIKey)
	if n.Keyword != "" {
		q.Set("q", n.Keyword)
	}
	if n.Country != "" {
		q.Set("country", n.Country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+"/api/1/latest?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("newsdata: build request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsdata: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("newsdata: rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsdata: unexpected status %d", resp.StatusCode)
	}

	var out newsDataResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, aggregatorMaxResponseBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("newsdata: decode: %w", err)
	}

	items := make([]NewsItem, 0, len(out.Results))
	for _, r := range out.Results {
		title := truncateRunes(strings.TrimSpace(r.Title), titleMaxRunes)
		if title == "" || r.Link == "" {
			continue
		}

		category := "general"
		if len(r.Category) > 0 {
			category = r.Category[0]
		}
		region := "global"
		if len(r.Country) > 0 {
			region = r.Country[0]
		}

		items = append(items, NewsItem{
			ID:            HashID(r.Link, title),
			Title:         title,
			Summary:       truncateRunes(stripHTML(r.Description), summaryMaxRunes),
			SourceName:    r.SourceID,
			SourceURL:     r.Link,
			ImageURL:      r.ImageURL,
			PublishedAt:   parseAggregatorTime(r.PubDate),
			Category:      category,
			Region:        region,
			Tags:          r.Keywords,
			SourceType:    SourceTypeAggregator,
			AggregatorTag: n.ID(),
		})
	}

	return items, nil
}

// parseAggregatorTime 兼容聚合 API 返回的两种时间格式，解析失败返回零值
func parseAggregatorTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
