package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LJTian/NewsWave/internal/source"
)

// stubFetcher 是测试用的数据源：固定返回一批条目或一个错误
type stubFetcher struct {
	name  string
	items []NewsItem
	err   error
}

func (s *stubFetcher) Name() string { return s.name }

func (s *stubFetcher) Fetch(ctx context.Context) ([]NewsItem, error) {
	return s.items, s.err
}

func stubItem(id, title, category string, age time.Duration) NewsItem {
	return NewsItem{
		ID:          id,
		Title:       title,
		Category:    category,
		SourceType:  SourceTypeRSS,
		PublishedAt: time.Now().Add(-age),
	}
}

func stubService(fetchers ...*stubFetcher) *Service {
	sources := make([]source.FeedSource, 0, len(fetchers))
	m := make(map[string]Fetcher, len(fetchers))
	for _, f := range fetchers {
		sources = append(sources, source.FeedSource{DisplayName: f.name, Category: "tech", Kind: source.KindFeed})
		m[f.name] = f
	}
	return &Service{registry: source.NewRegistry(sources), fetchers: m}
}

func TestFetchSwallowsErrors(t *testing.T) {
	svc := stubService(&stubFetcher{name: "broken", err: errors.New("connection refused")})

	items := svc.Fetch(context.Background(), "broken")
	if items != nil {
		t.Fatalf("failing source should yield nil, got %d items", len(items))
	}

	// 未注册的源同样只产出空结果
	if items := svc.Fetch(context.Background(), "missing"); items != nil {
		t.Fatalf("unknown source should yield nil")
	}
}

func TestFetchAllPartialFailure(t *testing.T) {
	svc := stubService(
		&stubFetcher{name: "good-1", items: []NewsItem{stubItem("a", "Alpha story", "tech", time.Hour)}},
		&stubFetcher{name: "bad", err: errors.New("timeout")},
		&stubFetcher{name: "good-2", items: []NewsItem{stubItem("b", "Beta story", "tech", 2*time.Hour)}},
	)

	items := svc.FetchAll(context.Background(), 10, "")
	if len(items) != 2 {
		t.Fatalf("expected items only from healthy sources, got %d", len(items))
	}
	// 按发布时间倒序
	if items[0].ID != "a" || items[1].ID != "b" {
		t.Fatalf("items not sorted by published desc: %v, %v", items[0].ID, items[1].ID)
	}
}

func TestFetchAllTitlePrefixDedup(t *testing.T) {
	long := "Breaking: a very long headline that definitely exceeds fifty characters in total length"
	svc := stubService(
		&stubFetcher{name: "s1", items: []NewsItem{stubItem("x1", long, "tech", time.Hour)}},
		&stubFetcher{name: "s2", items: []NewsItem{stubItem("x2", long+" (syndicated)", "tech", 2*time.Hour)}},
	)

	items := svc.FetchAll(context.Background(), 10, "")
	if len(items) != 1 {
		t.Fatalf("prefix duplicates should collapse to 1, got %d", len(items))
	}
	// 倒序后先出现的（最新的）保留
	if items[0].ID != "x1" {
		t.Fatalf("newest duplicate should win, got %s", items[0].ID)
	}
}

func TestFetchAllLimit(t *testing.T) {
	svc := stubService(&stubFetcher{name: "s1", items: []NewsItem{
		stubItem("1", "First distinct headline", "tech", time.Hour),
		stubItem("2", "Second distinct headline", "tech", 2*time.Hour),
		stubItem("3", "Third distinct headline", "tech", 3*time.Hour),
	}})

	items := svc.FetchAll(context.Background(), 2, "")
	if len(items) != 2 {
		t.Fatalf("limit not applied: got %d items", len(items))
	}
}

func TestHashIDStableAndDistinct(t *testing.T) {
	a1 := HashID("https://example.com/1", "Title")
	a2 := HashID("https://example.com/1", "Title")
	b := HashID("https://example.com/2", "Title")

	if a1 != a2 {
		t.Fatalf("HashID not deterministic: %q vs %q", a1, a2)
	}
	if a1 == b {
		t.Fatalf("HashID should differ for different links: %q", a1)
	}
}
