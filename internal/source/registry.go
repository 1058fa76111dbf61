package source

// 源的抓取方式
const (
	KindFeed    = "feed"    // RSS / Atom
	KindPodcast = "podcast" // 带音频附件的 RSS
	KindScrape  = "scrape"  // 无可用 feed 的站点，走 HTML 抓取
)

// FeedSource 描述一个新闻源，启动时装载后不再修改
type FeedSource struct {
	URL         string
	DisplayName string
	Category    string
	Region      string
	Kind        string
	// Kind=scrape 时的条目选择器（colly OnHTML 使用）
	Selector string
	// Kind=scrape 时条目内的标题 / 链接选择器
	TitleSelector string
	LinkSelector  string
}

type Registry struct {
	sources []FeedSource
	byName  map[string]FeedSource
}

func NewRegistry(sources []FeedSource) *Registry {
	byName := make(map[string]FeedSource, len(sources))
	for _, s := range sources {
		byName[s.DisplayName] = s
	}
	return &Registry{sources: sources, byName: byName}
}

// Default 返回内置的源目录
func Default() *Registry {
	return NewRegistry([]FeedSource{
		{URL: "https://feeds.bbci.co.uk/news/world/rss.xml", DisplayName: "BBC World", Category: "world", Region: "uk", Kind: KindFeed},
		{URL: "https://feeds.bbci.co.uk/news/technology/rss.xml", DisplayName: "BBC Technology", Category: "tech", Region: "uk", Kind: KindFeed},
		{URL: "https://www.theguardian.com/world/rss", DisplayName: "The Guardian World", Category: "world", Region: "uk", Kind: KindFeed},
		{URL: "https://feeds.npr.org/1001/rss.xml", DisplayName: "NPR News", Category: "world", Region: "us", Kind: KindFeed},
		{URL: "https://feeds.npr.org/1014/rss.xml", DisplayName: "NPR Politics", Category: "politics", Region: "us", Kind: KindFeed},
		{URL: "https://techcrunch.com/feed/", DisplayName: "TechCrunch", Category: "tech", Region: "us", Kind: KindFeed},
		{URL: "https://www.wired.com/feed/rss", DisplayName: "Wired", Category: "tech", Region: "us", Kind: KindFeed},
		{URL: "https://hnrss.org/frontpage", DisplayName: "Hacker News", Category: "tech", Region: "global", Kind: KindFeed},
		{URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html", DisplayName: "CNBC Business", Category: "business", Region: "us", Kind: KindFeed},
		{URL: "https://www.aljazeera.com/xml/rss/all.xml", DisplayName: "Al Jazeera", Category: "world", Region: "asia", Kind: KindFeed},
		{URL: "https://www.sciencedaily.com/rss/all.xml", DisplayName: "ScienceDaily", Category: "science", Region: "us", Kind: KindFeed},
		{URL: "https://feeds.npr.org/500005/podcast.xml", DisplayName: "NPR News Now", Category: "world", Region: "us", Kind: KindPodcast},
		{URL: "https://podcasts.files.bbci.co.uk/p02nq0gn.rss", DisplayName: "BBC Global News Podcast", Category: "world", Region: "uk", Kind: KindPodcast},
		// 无 RSS 的站点走 HTML 抓取
		{
			URL: "https://github.com/trending", DisplayName: "GitHub Trending", Category: "tech", Region: "global", Kind: KindScrape,
			Selector: "article.Box-row", TitleSelector: "h2 a", LinkSelector: "h2 a",
		},
	})
}

// All 返回全部源的副本，调用方修改不影响目录本身
func (r *Registry) All() []FeedSource {
	out := make([]FeedSource, len(r.sources))
	copy(out, r.sources)
	return out
}

// ByCategory 按分类过滤；category 为空时返回全部
func (r *Registry) ByCategory(category string) []FeedSource {
	if category == "" {
		return r.All()
	}
	out := make([]FeedSource, 0, len(r.sources))
	for _, s := range r.sources {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) Find(displayName string) (FeedSource, bool) {
	s, ok := r.byName[displayName]
	return s, ok
}

func (r *Registry) Len() int {
	return len(r.sources)
}
