package processor

import (
	"reflect"
	"testing"
	"time"

	"github.com/LJTian/NewsWave/internal/collector"
)

func item(id, title, category, sourceName string, age time.Duration) collector.NewsItem {
	return collector.NewsItem{
		ID:          id,
		Title:       title,
		Summary:     "summary of " + title,
		Category:    category,
		SourceName:  sourceName,
		PublishedAt: time.Now().Add(-age),
	}
}

func TestMergeDedupFirstWins(t *testing.T) {
	e := NewEngine()

	rss := []collector.NewsItem{item("dup", "From RSS", "tech", "A", time.Hour)}
	agg := []collector.NewsItem{item("dup", "From aggregator", "tech", "B", time.Hour)}

	res := e.Merge(rss, agg, nil, Filters{}, Page{})
	if res.Total != 1 {
		t.Fatalf("duplicate id should survive once, total = %d", res.Total)
	}
	// 先遇到的（RSS 那条）保留
	if res.Results[0].Title != "From RSS" {
		t.Fatalf("first occurrence should win, got %q", res.Results[0].Title)
	}
	if res.Results[0].SourceType != collector.SourceTypeRSS {
		t.Fatalf("untagged rss input should be tagged, got %q", res.Results[0].SourceType)
	}
}

func TestMergeFilterComposable(t *testing.T) {
	e := NewEngine()
	pool := []collector.NewsItem{
		item("1", "Go releases", "tech", "Source A", time.Hour),
		item("2", "Election update", "politics", "Source B", 2*time.Hour),
		item("3", "Go modules deep dive", "tech", "Source B", 3*time.Hour),
	}

	res := e.Merge(pool, nil, nil, Filters{Category: "TECH", Source: "source b"}, Page{})
	if res.Total != 1 || res.Results[0].ID != "3" {
		t.Fatalf("case-insensitive category+source filter failed: %+v", res)
	}
}

func TestMergeFilterIdempotent(t *testing.T) {
	e := NewEngine()
	pool := []collector.NewsItem{
		item("1", "Go releases", "tech", "A", time.Hour),
		item("2", "Election update", "politics", "B", 2*time.Hour),
	}
	f := Filters{Category: "tech"}

	once := e.Merge(pool, nil, nil, f, Page{})
	twice := e.Merge(once.Results, nil, nil, f, Page{})
	if !reflect.DeepEqual(once.Results, twice.Results) {
		t.Fatalf("filtering twice by the same predicate changed the result")
	}
}

func TestMergeQueryRanksTitleMatchesFirst(t *testing.T) {
	e := NewEngine()
	pool := []collector.NewsItem{
		// 只在摘要里命中，但更新
		{ID: "body", Title: "Other headline", Summary: "quantum computing breakthrough", PublishedAt: time.Now()},
		// 标题命中，但更旧
		{ID: "title", Title: "Quantum leap announced", Summary: "details inside", PublishedAt: time.Now().Add(-48 * time.Hour)},
	}

	res := e.Merge(pool, nil, nil, Filters{Query: "quantum"}, Page{})
	if res.Total != 2 {
		t.Fatalf("both items match the query, total = %d", res.Total)
	}
	if res.Results[0].ID != "title" {
		t.Fatalf("title match must rank above body match, got %q first", res.Results[0].ID)
	}
}

func TestMergePaginationReportsPrePaginationTotal(t *testing.T) {
	e := NewEngine()
	pool := make([]collector.NewsItem, 0, 5)
	for i := 0; i < 5; i++ {
		pool = append(pool, item(string(rune('a'+i)), "Headline", "tech", "A", time.Duration(i)*time.Hour))
	}

	res := e.Merge(pool, nil, nil, Filters{}, Page{Skip: 2, Limit: 2})
	if res.Total != 5 {
		t.Fatalf("total should be pre-pagination count, got %d", res.Total)
	}
	if len(res.Results) != 2 {
		t.Fatalf("pagination window wrong, got %d results", len(res.Results))
	}

	// skip 越界时返回空页而不是报错
	res = e.Merge(pool, nil, nil, Filters{}, Page{Skip: 99, Limit: 2})
	if res.Total != 5 || len(res.Results) != 0 {
		t.Fatalf("out-of-range skip should yield empty page, got %+v", res)
	}
}

func TestTokenizeDropsStopWordsAndShortTokens(t *testing.T) {
	got := Tokenize("The quick brown fox and the lazy dog run")
	want := []string{"quick", "brown", "lazy"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestTrendingCounts(t *testing.T) {
	e := NewEngine()
	pool := []collector.NewsItem{
		item("1", "Climate summit opens", "world", "A", time.Hour),
		item("2", "Climate deal reached", "world", "B", time.Hour),
		item("3", "Chip makers rally", "tech", "C", time.Hour),
	}

	res := e.Trending(pool)
	if res.ItemCount != 3 {
		t.Fatalf("ItemCount = %d, want 3", res.ItemCount)
	}
	if res.Categories[0].Category != "world" || res.Categories[0].Count != 2 {
		t.Fatalf("top category wrong: %+v", res.Categories)
	}
	if res.Keywords[0].Keyword != "climate" || res.Keywords[0].Count != 2 {
		t.Fatalf("top keyword wrong: %+v", res.Keywords)
	}
}
