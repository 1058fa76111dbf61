package processor

import (
	"sort"
	"strings"

	"github.com/LJTian/NewsWave/internal/collector"
)

// Filters 合并池上的可组合过滤条件，全部可选
type Filters struct {
	Category   string
	Source     string
	SourceType string
	Query      string
}

// Page 过滤排序之后再分页
type Page struct {
	Skip  int
	Limit int
}

// MergeResult Total 是分页前的过滤总数
type MergeResult struct {
	Results []collector.NewsItem `json:"results"`
	Total   int                  `json:"total"`
}

// Engine 合并 RSS / 聚合 / 播客三路条目：去重、过滤、排序、分页。
// 无状态，纯内存变换。
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Merge 按 ID 去重（先到先留），应用过滤器后排序分页。
// 带搜索词时标题命中的排在前面，其余按发布时间倒序。
func (e *Engine) Merge(rss, aggregator, podcast []collector.NewsItem, f Filters, p Page) MergeResult {
	pool := make([]collector.NewsItem, 0, len(rss)+len(aggregator)+len(podcast))
	seen := make(map[string]struct{}, cap(pool))

	appendTagged := func(items []collector.NewsItem, defaultType string) {
		for _, it := range items {
			if it.SourceType == "" {
				it.SourceType = defaultType
			}
			if _, ok := seen[it.ID]; ok {
				continue
			}
			seen[it.ID] = struct{}{}
			pool = append(pool, it)
		}
	}
	appendTagged(rss, collector.SourceTypeRSS)
	appendTagged(aggregator, collector.SourceTypeAggregator)
	appendTagged(podcast, collector.SourceTypePodcast)

	filtered := pool[:0]
	for _, it := range pool {
		if matches(it, f) {
			filtered = append(filtered, it)
		}
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	sort.SliceStable(filtered, func(i, j int) bool {
		if query != "" {
			ti := titleMatches(filtered[i], query)
			tj := titleMatches(filtered[j], query)
			if ti != tj {
				return ti
			}
		}
		return filtered[i].PublishedAt.After(filtered[j].PublishedAt)
	})

	total := len(filtered)

	skip := p.Skip
	if skip < 0 {
		skip = 0
	}
	if skip > total {
		skip = total
	}
	out := filtered[skip:]
	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}

	// 返回副本，调用方持有的切片不受后续合并影响
	results := make([]collector.NewsItem, len(out))
	copy(results, out)

	return MergeResult{Results: results, Total: total}
}

func matches(it collector.NewsItem, f Filters) bool {
	if f.Category != "" && !strings.EqualFold(it.Category, f.Category) {
		return false
	}
	if f.Source != "" && !strings.EqualFold(it.SourceName, f.Source) {
		return false
	}
	if f.SourceType != "" && it.SourceType != f.SourceType {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !titleMatches(it, q) && !bodyMatches(it, q) {
			return false
		}
	}
	return true
}

func titleMatches(it collector.NewsItem, loweredQuery string) bool {
	return strings.Contains(strings.ToLower(it.Title), loweredQuery)
}

// bodyMatches 在摘要 / 来源名 / 标签里找子串
func bodyMatches(it collector.NewsItem, loweredQuery string) bool {
	if strings.Contains(strings.ToLower(it.Summary), loweredQuery) {
		return true
	}
	if strings.Contains(strings.ToLower(it.SourceName), loweredQuery) {
		return true
	}
	for _, tag := range it.Tags {
		if strings.Contains(strings.ToLower(tag), loweredQuery) {
			return true
		}
	}
	return false
}
