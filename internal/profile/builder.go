package profile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LJTian/NewsWave/internal/processor"
	"github.com/LJTian/NewsWave/internal/storage"
)

// 档案构建的可调参数
const (
	historyLimit   = 100
	decayRate      = 0.1
	defaultAgeDays = 7 // 播放时间缺失时按一周前处理
	topCategories  = 8
	topSources     = 5
	topKeywords    = 15
)

// HistoryReader 档案构建需要的持久层能力
type HistoryReader interface {
	RecentEvents(ctx context.Context, userID string, limit int) ([]storage.ListeningEvent, error)
	Interests(ctx context.Context, userID string) ([]string, error)
}

// Profile 按请求即时构建的兴趣档案，从不缓存
type Profile struct {
	CategoryWeights map[string]float64 `json:"categoryWeights"`
	SourceWeights   map[string]float64 `json:"sourceWeights"`
	Keywords        []string           `json:"keywords"`
	Interests       []string           `json:"interests"`
	HistoryCount    int                `json:"historyCount"`
}

// Builder 把原始收听历史转成衰减加权的兴趣档案
type Builder struct {
	store HistoryReader
	now   func() time.Time
}

func NewBuilder(store HistoryReader, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{store: store, now: now}
}

// Build 读取最近 100 条历史构建档案。历史为空时各权重表为空，
// 调用方必须显式处理这种情况而不是拿空档案去打分。
func (b *Builder) Build(ctx context.Context, userID string) (Profile, error) {
	events, err := b.store.RecentEvents(ctx, userID, historyLimit)
	if err != nil {
		return Profile{}, fmt.Errorf("read listening history: %w", err)
	}

	interests, err := b.store.Interests(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("read preferences: %w", err)
	}

	p := Profile{
		CategoryWeights: map[string]float64{},
		SourceWeights:   map[string]float64{},
		Interests:       interests,
		HistoryCount:    len(events),
	}
	if len(events) == 0 {
		return p, nil
	}

	now := b.now()
	categories := map[string]float64{}
	sources := map[string]float64{}
	titles := make([]string, 0, len(events))

	for _, ev := range events {
		w := b.eventWeight(now, ev.PlayedAt)
		if ev.Category != "" {
			categories[ev.Category] += w
		}
		if ev.Source != "" {
			sources[ev.Source] += w
		}
		if ev.Title != "" {
			titles = append(titles, ev.Title)
		}
	}

	p.CategoryWeights = normalizeTop(categories, topCategories)
	p.SourceWeights = normalizeTop(sources, topSources)
	p.Keywords = processor.TopKeywords(titles, topKeywords)

	return p, nil
}

// eventWeight 越旧的事件权重越低：1 / (1 + ageDays * decayRate)
func (b *Builder) eventWeight(now, playedAt time.Time) float64 {
	ageDays := float64(defaultAgeDays)
	if !playedAt.IsZero() {
		ageDays = now.Sub(playedAt).Hours() / 24
		if ageDays < 1 {
			ageDays = 1
		}
	}
	return 1 / (1 + ageDays*decayRate)
}

// normalizeTop 取权重最高的 limit 项并归一到和为 1
func normalizeTop(weights map[string]float64, limit int) map[string]float64 {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if weights[keys[i]] != weights[keys[j]] {
			return weights[keys[i]] > weights[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}

	var sum float64
	for _, k := range keys {
		sum += weights[k]
	}

	out := make(map[string]float64, len(keys))
	if sum == 0 {
		return out
	}
	for _, k := range keys {
		out[k] = weights[k] / sum
	}
	return out
}

// TopN 权重表里最大的 n 个键，倒序
func TopN(weights map[string]float64, n int) []string {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if weights[keys[i]] != weights[keys[j]] {
			return weights[keys[i]] > weights[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
