package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/LJTian/NewsWave/internal/collector"
	"github.com/LJTian/NewsWave/internal/processor"
	"github.com/LJTian/NewsWave/internal/profile"
)

// 推荐策略
const (
	StrategyTrendingFallback = "trending_fallback"
	StrategyHybrid           = "hybrid_collaborative_ai"
)

// 打分用的固定启发式权重，不是学习出来的模型，按需调整
const (
	categoryWeightFactor = 40.0
	sourceWeightFactor   = 20.0
	keywordHitScore      = 5.0
	keywordHitCap        = 20.0
	interestBonus        = 15.0
	expandedTopicBonus   = 8.0
	recencyBonus6h       = 10.0
	recencyBonus24h      = 5.0

	// 已消费排除窗口：最近 30 条
	exclusionWindow = 30
	// 历史太少时不值得花一次 AI 调用
	minHistoryForExpansion = 3
)

// Expander 话题扩展能力；实现必须把失败降级为空列表
type Expander interface {
	Expand(ctx context.Context, p profile.Profile) []string
}

// ScoredItem 候选条目与它的得分
type ScoredItem struct {
	Item  collector.NewsItem `json:"item"`
	Score float64            `json:"score"`
}

// Summary 附在推荐结果上的档案摘要
type Summary struct {
	TopCategories  []string `json:"topCategories"`
	TopSources     []string `json:"topSources"`
	ExpandedTopics []string `json:"expandedTopics"`
	HistoryCount   int      `json:"historyCount"`
}

// Result 一次推荐的完整输出
type Result struct {
	Items    []ScoredItem `json:"items"`
	Strategy string       `json:"strategy"`
	Profile  *Summary     `json:"profileSummary"`
}

// Scorer 把合并池按用户档案打分排序。历史每次现读，不做缓存。
type Scorer struct {
	builder  *profile.Builder
	history  profile.HistoryReader
	expander Expander
	now      func() time.Time
}

func NewScorer(builder *profile.Builder, history profile.HistoryReader, expander Expander) *Scorer {
	return &Scorer{builder: builder, history: history, expander: expander, now: time.Now}
}

// Recommend 对候选池打分并返回前 limit 个。没有任何历史时退回
// trending_fallback：原顺序取前 limit 个，不打分，档案摘要为空。
func (s *Scorer) Recommend(ctx context.Context, userID string, pool []collector.NewsItem, limit int) (Result, error) {
	if limit <= 0 {
		limit = 10
	}

	p, err := s.builder.Build(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	if p.HistoryCount == 0 {
		items := pool
		if len(items) > limit {
			items = items[:limit]
		}
		out := make([]ScoredItem, len(items))
		for i, it := range items {
			out[i] = ScoredItem{Item: it}
		}
		return Result{Items: out, Strategy: StrategyTrendingFallback}, nil
	}

	var topics []string
	if s.expander != nil && p.HistoryCount >= minHistoryForExpansion {
		topics = s.expander.Expand(ctx, p)
		if len(topics) > maxExpandedTopics {
			topics = topics[:maxExpandedTopics]
		}
	}

	excluded, err := s.recentTrackIDs(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	topicWords := expandedTopicWords(topics)
	interests := lowerSet(p.Interests)
	now := s.now()

	scored := make([]ScoredItem, 0, len(pool))
	for _, it := range pool {
		if _, consumed := excluded[it.ID]; consumed {
			continue
		}
		scored = append(scored, ScoredItem{Item: it, Score: s.score(it, p, interests, topicWords, now)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		// 同分先比发布时间，再用 ID 兜底保证全序
		if !scored[i].Item.PublishedAt.Equal(scored[j].Item.PublishedAt) {
			return scored[i].Item.PublishedAt.After(scored[j].Item.PublishedAt)
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	return Result{
		Items:    scored,
		Strategy: StrategyHybrid,
		Profile: &Summary{
			TopCategories:  profile.TopN(p.CategoryWeights, 3),
			TopSources:     profile.TopN(p.SourceWeights, 3),
			ExpandedTopics: topics,
			HistoryCount:   p.HistoryCount,
		},
	}, nil
}

// recentTrackIDs 最近消费过的 trackId 集合，推荐结果里必须排掉
func (s *Scorer) recentTrackIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	events, err := s.history.RecentEvents(ctx, userID, exclusionWindow)
	if err != nil {
		return nil, fmt.Errorf("read exclusion window: %w", err)
	}
	out := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev.TrackID != "" {
			out[ev.TrackID] = struct{}{}
		}
	}
	return out, nil
}

func (s *Scorer) score(it collector.NewsItem, p profile.Profile, interests map[string]struct{}, topicWords []string, now time.Time) float64 {
	score := categoryWeightFactor * p.CategoryWeights[it.Category]
	score += sourceWeightFactor * p.SourceWeights[it.SourceName]

	title := strings.ToLower(it.Title)
	var hits float64
	for _, kw := range p.Keywords {
		if strings.Contains(title, kw) {
			hits++
		}
	}
	if bonus := keywordHitScore * hits; bonus > keywordHitCap {
		score += keywordHitCap
	} else {
		score += bonus
	}

	if _, ok := interests[strings.ToLower(it.Category)]; ok {
		score += interestBonus
	}

	// 扩展话题：标题或摘要里出现任一话题词加一次分，只加一次
	text := title + " " + strings.ToLower(it.Summary)
	for _, w := range topicWords {
		if strings.Contains(text, w) {
			score += expandedTopicBonus
			break
		}
	}

	if !it.PublishedAt.IsZero() {
		switch age := now.Sub(it.PublishedAt); {
		case age < 6*time.Hour:
			score += recencyBonus6h
		case age < 24*time.Hour:
			score += recencyBonus24h
		}
	}

	return score
}

// expandedTopicWords 把话题短语拆成可匹配的词
func expandedTopicWords(topics []string) []string {
	var out []string
	for _, t := range topics {
		out = append(out, processor.Tokenize(t)...)
	}
	return out
}

func lowerSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[strings.ToLower(v)] = struct{}{}
	}
	return out
}
