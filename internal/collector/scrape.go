package collector

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/LJTian/NewsWave/internal/source"
)

const scrapeTimeout = 10 * time.Second

// ScrapeFetcher 针对没有可用 feed 的站点做 HTML 抓取。
// 页面结构可能调整，解析是"尽力而为"：选不到就产出 0 条。
type ScrapeFetcher struct {
	Source source.FeedSource
}

func NewScrapeFetcher(src source.FeedSource) *ScrapeFetcher {
	return &ScrapeFetcher{Source: src}
}

func (s *ScrapeFetcher) Name() string {
	return s.Source.DisplayName
}

func (s *ScrapeFetcher) Fetch(ctx context.Context) ([]NewsItem, error) {
	base, err := url.Parse(s.Source.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: bad source url: %w", s.Source.DisplayName, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// colly 自带请求超时，这里不再透传 ctx 的剩余时限
	c := colly.NewCollector(
		colly.AllowedDomains(base.Host),
		colly.UserAgent("NewsWaveBot/1.0"),
	)
	c.SetRequestTimeout(scrapeTimeout)

	now := time.Now()
	items := make([]NewsItem, 0, rssMaxItems)

	c.OnHTML(s.Source.Selector, func(e *colly.HTMLElement) {
		if len(items) >= rssMaxItems {
			return
		}
		title := truncateRunes(strings.TrimSpace(e.ChildText(s.Source.TitleSelector)), titleMaxRunes)
		if title == "" {
			return
		}

		link := strings.TrimSpace(e.ChildAttr(s.Source.LinkSelector, "href"))
		switch {
		case link == "":
			link = s.Source.URL
		case !strings.HasPrefix(link, "http"):
			link = base.Scheme + "://" + base.Host + link
		}

		summary := truncateRunes(strings.TrimSpace(e.ChildText("p")), summaryMaxRunes)
		if summary == "" {
			summary = truncateRunes(longestText(e.DOM, title), summaryMaxRunes)
		}
		if summary == "" {
			summary = title
		}

		items = append(items, NewsItem{
			ID:          HashID(link, title),
			Title:       title,
			Summary:     summary,
			SourceName:  s.Source.DisplayName,
			SourceURL:   link,
			PublishedAt: now,
			Category:    s.Source.Category,
			Region:      s.Source.Region,
			SourceType:  SourceTypeRSS,
		})
	})

	if err := c.Visit(s.Source.URL); err != nil {
		return nil, fmt.Errorf("%s: visit: %w", s.Source.DisplayName, err)
	}
	c.Wait()

	return items, nil
}

// longestText 条目内没有明显摘要段落时，取最长的一段非标题文本兜底
func longestText(sel *goquery.Selection, title string) string {
	const minLen = 20
	var best string
	sel.Find("div, p, span").Each(func(i int, s *goquery.Selection) {
		t := strings.TrimSpace(s.Text())
		if t == "" || t == title || len(t) < minLen {
			return
		}
		if len(t) > len(best) {
			best = t
		}
	})
	return best
}
