package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/LJTian/NewsWave/internal/source"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
<title>Test Feed</title>
<item>
  <title>First story</title>
  <link>https://example.com/1</link>
  <description>&lt;p&gt;Plain &lt;b&gt;text&lt;/b&gt; here&lt;/p&gt;</description>
  <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
  <media:content url="https://example.com/1.jpg" type="image/jpeg"/>
</item>
<item>
  <title>Second story</title>
  <link>https://example.com/2</link>
  <description>no markup</description>
</item>
<item>
  <title></title>
  <link>https://example.com/3</link>
</item>
</channel>
</rss>`

func rssTestSource(url string) source.FeedSource {
	return source.FeedSource{URL: url, DisplayName: "Test Feed", Category: "tech", Region: "us", Kind: source.KindFeed}
}

func TestFeedFetcherParsesAndNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	f := NewFeedFetcher(rssTestSource(srv.URL))
	items, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	// 空标题的条目应被跳过
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Title != "First story" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.ID == "" || first.ID != HashID("https://example.com/1", "First story") {
		t.Fatalf("stable id mismatch: %q", first.ID)
	}
	// 摘要应去除 HTML 标签
	if first.Summary != "Plain text here" {
		t.Fatalf("summary not stripped: %q", first.Summary)
	}
	if first.ImageURL != "https://example.com/1.jpg" {
		t.Fatalf("media:content image not picked: %q", first.ImageURL)
	}
	if first.PublishedAt.IsZero() {
		t.Fatalf("published time should be parsed")
	}
	if first.SourceType != SourceTypeRSS || first.Category != "tech" || first.Region != "us" {
		t.Fatalf("source metadata not applied: %+v", first)
	}

	// 没有发布时间的条目保持零值
	if !items[1].PublishedAt.IsZero() {
		t.Fatalf("missing pubDate should stay zero, got %v", items[1].PublishedAt)
	}
}

func TestFeedFetcherMalformedXMLReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not xml at all <<<"))
	}))
	defer srv.Close()

	f := NewFeedFetcher(rssTestSource(srv.URL))
	items, err := f.Fetch(context.Background())
	if err == nil {
		t.Fatalf("expected parse error for malformed payload")
	}
	if len(items) != 0 {
		t.Fatalf("malformed payload should yield 0 items, got %d", len(items))
	}
}

func TestFeedFetcherTimeoutBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	f := NewFeedFetcher(rssTestSource(srv.URL))
	f.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := f.Fetch(context.Background())
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("fetch not bounded by timeout, took %v", elapsed)
	}
}

func TestPickImageFallbackChain(t *testing.T) {
	// 附件兜底
	entry := &gofeed.Item{
		Enclosures: []*gofeed.Enclosure{
			{URL: "https://example.com/a.mp3", Type: "audio/mpeg"},
			{URL: "https://example.com/a.png", Type: "image/png"},
		},
	}
	if got := pickImage(entry); got != "https://example.com/a.png" {
		t.Fatalf("enclosure image not picked: %q", got)
	}
	if got := pickAudio(entry); got != "https://example.com/a.mp3" {
		t.Fatalf("audio enclosure not picked: %q", got)
	}

	// 什么都没有返回空串
	if got := pickImage(&gofeed.Item{}); got != "" {
		t.Fatalf("empty entry should yield empty image, got %q", got)
	}
}

func TestStripHTMLAndTruncate(t *testing.T) {
	if got := stripHTML("<p>Hello <a href='x'>world</a> &amp; more</p>"); got != "Hello world & more" {
		t.Fatalf("stripHTML = %q", got)
	}

	s := "你好，世界，这是一个很长的中文句子，用来测试截断逻辑。"
	out := truncateRunes(s, 5)
	if len([]rune(out)) != 6 { // 5 个字符 + 1 个省略号
		t.Fatalf("truncateRunes length = %d, want 6: %q", len([]rune(out)), out)
	}

	// limit 大于长度时不应截断
	if full := truncateRunes("短文本", 10); full != "短文本" {
		t.Fatalf("truncateRunes should keep original when under limit: %q", full)
	}
}
