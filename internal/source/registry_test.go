package source

import "testing"

func testRegistry() *Registry {
	return NewRegistry([]FeedSource{
		{URL: "https://a.example.com/rss", DisplayName: "Source A", Category: "tech", Region: "us", Kind: KindFeed},
		{URL: "https://b.example.com/rss", DisplayName: "Source B", Category: "world", Region: "uk", Kind: KindFeed},
		{URL: "https://c.example.com/pod.xml", DisplayName: "Source C", Category: "tech", Region: "us", Kind: KindPodcast},
	})
}

func TestRegistryFindAndLen(t *testing.T) {
	r := testRegistry()
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}

	s, ok := r.Find("Source B")
	if !ok {
		t.Fatalf("Find(Source B) not found")
	}
	if s.Category != "world" {
		t.Fatalf("Source B category = %q, want world", s.Category)
	}

	if _, ok := r.Find("missing"); ok {
		t.Fatalf("Find(missing) should not succeed")
	}
}

func TestRegistryByCategory(t *testing.T) {
	r := testRegistry()

	tech := r.ByCategory("tech")
	if len(tech) != 2 {
		t.Fatalf("ByCategory(tech) = %d sources, want 2", len(tech))
	}

	// 空分类等价于全部
	all := r.ByCategory("")
	if len(all) != r.Len() {
		t.Fatalf("ByCategory(\"\") = %d sources, want %d", len(all), r.Len())
	}
}

func TestRegistryAllReturnsCopy(t *testing.T) {
	r := testRegistry()
	all := r.All()
	all[0].DisplayName = "mutated"

	again := r.All()
	if again[0].DisplayName == "mutated" {
		t.Fatalf("All() should return a copy, catalog was mutated")
	}
}

func TestDefaultRegistryHasPodcastAndScrapeSources(t *testing.T) {
	r := Default()
	if r.Len() == 0 {
		t.Fatalf("default registry is empty")
	}

	var podcasts, scrapes int
	for _, s := range r.All() {
		switch s.Kind {
		case KindPodcast:
			podcasts++
		case KindScrape:
			scrapes++
		}
		if s.URL == "" || s.DisplayName == "" || s.Category == "" {
			t.Fatalf("incomplete source in default registry: %+v", s)
		}
	}
	if podcasts == 0 {
		t.Fatalf("default registry should contain podcast sources")
	}
	if scrapes == 0 {
		t.Fatalf("default registry should contain scrape sources")
	}
}
