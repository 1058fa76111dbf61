package collector

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/LJTian/NewsWave/internal/source"
)

const (
	fetchConcurrency = 8
	// 宽松标题去重的前缀长度：同一条新闻被多家转载时标题开头基本一致
	titleDedupPrefix = 50
)

// Service 把注册表里的每个源装配成对应的 Fetcher，并提供并发抓取入口
type Service struct {
	registry *source.Registry
	fetchers map[string]Fetcher
}

func NewService(reg *source.Registry) *Service {
	fetchers := make(map[string]Fetcher, reg.Len())
	for _, src := range reg.All() {
		fetchers[src.DisplayName] = newFetcher(src)
	}
	return &Service{registry: reg, fetchers: fetchers}
}

func newFetcher(src source.FeedSource) Fetcher {
	if src.Kind == source.KindScrape {
		return NewScrapeFetcher(src)
	}
	return NewFeedFetcher(src)
}

// Fetch 抓取单个源；任何网络 / 解析失败都吞掉并记日志，只返回空列表。
// 一个源挂掉不能影响其它源。
func (s *Service) Fetch(ctx context.Context, displayName string) []NewsItem {
	f, ok := s.fetchers[displayName]
	if !ok {
		log.Printf("fetch %s: unknown source", displayName)
		return nil
	}
	items, err := f.Fetch(ctx)
	if err != nil {
		log.Printf("fetch %s error: %v", displayName, err)
		return nil
	}
	return items
}

// FetchAll 并发抓取全部源（可按分类收窄），合并后按发布时间倒序，
// 做宽松标题去重并截断到 limit。整体不会失败：坏源只是贡献 0 条。
func (s *Service) FetchAll(ctx context.Context, limit int, category string) []NewsItem {
	sources := s.registry.ByCategory(category)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, fetchConcurrency)
		all = make([]NewsItem, 0, len(sources)*rssMaxItems)
	)

	for _, src := range sources {
		wg.Add(1)
		sem <- struct{}{}
		go func(name string) {
			defer wg.Done()
			defer func() { <-sem }()

			items := s.Fetch(ctx, name)
			if len(items) == 0 {
				return
			}
			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
		}(src.DisplayName)
	}
	wg.Wait()

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})

	all = dedupByTitlePrefix(all)

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// dedupByTitlePrefix 按标题前 50 个小写字符去重，先出现的保留。
// 输入已按发布时间倒序，因此同一条新闻保留的是最新的那份。
func dedupByTitlePrefix(items []NewsItem) []NewsItem {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		key := strings.ToLower(it.Title)
		if rs := []rune(key); len(rs) > titleDedupPrefix {
			key = string(rs[:titleDedupPrefix])
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}
