package main

import (
	"context"
	"log"
	"time"

	"github.com/LJTian/NewsWave/internal/cache"
	"github.com/LJTian/NewsWave/internal/collector"
	"github.com/LJTian/NewsWave/internal/config"
	"github.com/LJTian/NewsWave/internal/source"
)

// 一个只跑一轮抓取的命令行入口：调试数据源和聚合 API 配置时用
func main() {
	cfg := config.Load()

	registry := source.Default()
	feeds := collector.NewService(registry)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	items := feeds.FetchAll(ctx, 100, "")
	log.Printf("fetched %d items from %d sources", len(items), registry.Len())

	perSource := map[string]int{}
	for _, it := range items {
		perSource[it.SourceName]++
	}
	for name, n := range perSource {
		log.Printf("  %-28s %d items", name, n)
	}

	aggregators := cache.New([]collector.AggregatorClient{
		collector.NewNewsDataClient(cfg.NewsDataAPIKey),
		collector.NewGNewsClient(cfg.GNewsAPIKey),
	}, cache.DefaultTTL, time.Now)
	aggregators.RefreshAll(ctx)

	for id, st := range aggregators.Statuses() {
		if !st.Configured {
			log.Printf("aggregator %s: not configured, skipped", id)
			continue
		}
		log.Printf("aggregator %s: %d items cached", id, st.CachedCount)
	}
}
