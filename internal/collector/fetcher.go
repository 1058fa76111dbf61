package collector

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// 条目来源类型
const (
	SourceTypeRSS        = "rss"
	SourceTypeAggregator = "aggregator"
	SourceTypePodcast    = "podcast"
)

// NewsItem 统一归一化后的条目结构；一轮抓取内不可变
type NewsItem struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Summary     string         `json:"summary"`
	SourceName  string         `json:"sourceName"`
	SourceURL   string         `json:"sourceUrl"`
	ImageURL    string         `json:"imageUrl,omitempty"`
	PublishedAt time.Time      `json:"publishedAt,omitempty"` // 零值表示上游未提供
	Category    string         `json:"category"`
	Region      string         `json:"region"`
	Tags        []string       `json:"tags,omitempty"`
	SourceType  string         `json:"sourceType"`
	AggregatorTag string       `json:"aggregatorTag,omitempty"`
	AudioURL    string         `json:"audioUrl,omitempty"` // 播客条目的音频附件
	RawData     map[string]any `json:"-"`
}

// Fetcher 抽象每一个数据源
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]NewsItem, error)
}

// AggregatorClient 抽象一个聚合 API 上游
type AggregatorClient interface {
	ID() string
	Configured() bool
	Fetch(ctx context.Context) ([]NewsItem, error)
}

// HashID 用链接 + 标题生成稳定 ID，同一条新闻多次抓取 ID 不变
func HashID(link, title string) string {
	h := sha1.New()
	h.Write([]byte(link))
	h.Write([]byte("|"))
	h.Write([]byte(title))
	return hex.EncodeToString(h.Sum(nil))
}
