package collector

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/LJTian/NewsWave/internal/source"
)

const (
	rssClientTimeout = 10 * time.Second
	rssMaxItems      = 15
	titleMaxRunes    = 200
	summaryMaxRunes  = 300
)

// FeedFetcher 通过 RSS/Atom 抓取一个源；Kind=podcast 的源走同一条解析路径
type FeedFetcher struct {
	Source  source.FeedSource
	Timeout time.Duration

	parser *gofeed.Parser
}

func NewFeedFetcher(src source.FeedSource) *FeedFetcher {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: rssClientTimeout}
	return &FeedFetcher{Source: src, Timeout: rssClientTimeout, parser: p}
}

func (f *FeedFetcher) Name() string {
	return f.Source.DisplayName
}

func (f *FeedFetcher) Fetch(ctx context.Context) ([]NewsItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(f.Source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: parse feed: %w", f.Source.DisplayName, err)
	}

	sourceType := SourceTypeRSS
	if f.Source.Kind == source.KindPodcast {
		sourceType = SourceTypePodcast
	}

	items := make([]NewsItem, 0, rssMaxItems)
	for _, entry := range feed.Items {
		if len(items) >= rssMaxItems {
			break
		}
		title := truncateRunes(strings.TrimSpace(entry.Title), titleMaxRunes)
		if title == "" {
			continue
		}

		items = append(items, NewsItem{
			ID:          HashID(entry.Link, title),
			Title:       title,
			Summary:     truncateRunes(stripHTML(entry.Description), summaryMaxRunes),
			SourceName:  f.Source.DisplayName,
			SourceURL:   entry.Link,
			ImageURL:    pickImage(entry),
			PublishedAt: publishedTime(entry),
			Category:    f.Source.Category,
			Region:      f.Source.Region,
			Tags:        entry.Categories,
			SourceType:  sourceType,
			AudioURL:    pickAudio(entry),
		})
	}

	return items, nil
}

// publishedTime 解析发布时间，上游没有则返回零值
func publishedTime(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	return time.Time{}
}

// pickImage 按 媒体扩展 → 附件 → 条目图片 的顺序取封面图，都没有返回空串
func pickImage(entry *gofeed.Item) string {
	if media, ok := entry.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			for _, e := range media[key] {
				if url := e.Attrs["url"]; url != "" {
					return url
				}
			}
		}
	}
	for _, enc := range entry.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	if entry.ITunesExt != nil && entry.ITunesExt.Image != "" {
		return entry.ITunesExt.Image
	}
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}
	return ""
}

// pickAudio 取播客条目的音频附件
func pickAudio(entry *gofeed.Item) string {
	for _, enc := range entry.Enclosures {
		if strings.HasPrefix(enc.Type, "audio/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

// stripHTML 去掉标签和多余空白，摘要里只留纯文本
func stripHTML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(b.String())), " ")
}

// truncateRunes 按 rune 数截断，超长时追加省略号
func truncateRunes(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 || s == "" {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit]) + "…"
}
