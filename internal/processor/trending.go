package processor

import (
	"sort"

	"github.com/LJTian/NewsWave/internal/collector"
)

const trendingKeywordLimit = 12

// CategoryCount 某个分类在合并池里出现的次数
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// KeywordCount 某个关键词在标题里出现的次数
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// TrendingResult 合并池上的分类 / 关键词频次统计
type TrendingResult struct {
	Categories []CategoryCount `json:"categories"`
	Keywords   []KeywordCount  `json:"keywords"`
	ItemCount  int             `json:"itemCount"`
}

// Trending 对合并池做频次统计：分类计数全量返回，关键词取前 12
func (e *Engine) Trending(items []collector.NewsItem) TrendingResult {
	categories := make(map[string]int)
	keywords := make(map[string]int)

	for _, it := range items {
		if it.Category != "" {
			categories[it.Category]++
		}
		for _, w := range Tokenize(it.Title) {
			keywords[w]++
		}
	}

	out := TrendingResult{
		Categories: make([]CategoryCount, 0, len(categories)),
		Keywords:   make([]KeywordCount, 0, trendingKeywordLimit),
		ItemCount:  len(items),
	}

	for c, n := range categories {
		out.Categories = append(out.Categories, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		if out.Categories[i].Count != out.Categories[j].Count {
			return out.Categories[i].Count > out.Categories[j].Count
		}
		return out.Categories[i].Category < out.Categories[j].Category
	})

	for _, w := range topNByCount(keywords, trendingKeywordLimit) {
		out.Keywords = append(out.Keywords, KeywordCount{Keyword: w, Count: keywords[w]})
	}

	return out
}
