package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/NewsWave/internal/cache"
	"github.com/LJTian/NewsWave/internal/collector"
	"github.com/LJTian/NewsWave/internal/health"
	"github.com/LJTian/NewsWave/internal/processor"
	"github.com/LJTian/NewsWave/internal/recommend"
	"github.com/LJTian/NewsWave/internal/storage"
)

const (
	defaultLimit = 20
	maxLimit     = 100
	// 搜索 / 热点 / 推荐共用的候选池大小
	poolFetchLimit = 60

	trendingCacheKey = "news:trending:v1"
	trendingCacheTTL = 5 * time.Minute
)

type Server struct {
	feeds       *collector.Service
	aggregators *cache.AggregatorCache
	monitor     *health.Monitor
	engine      *processor.Engine
	recommender *recommend.Scorer
	store       *storage.Store
}

func NewServer(
	feeds *collector.Service,
	aggregators *cache.AggregatorCache,
	monitor *health.Monitor,
	engine *processor.Engine,
	recommender *recommend.Scorer,
	store *storage.Store,
) *Server {
	return &Server{
		feeds:       feeds,
		aggregators: aggregators,
		monitor:     monitor,
		engine:      engine,
		recommender: recommender,
		store:       store,
	}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/news", s.fetchNews)
		v1.GET("/news/search", s.searchNews)
		v1.GET("/news/trending", s.trending)
		v1.GET("/sources/health", s.sourceHealth)
		v1.POST("/sources/health/refresh", s.refreshSourceHealth)
		v1.GET("/aggregators/status", s.aggregatorStatus)
		v1.GET("/recommendations/:userId", s.recommendations)
		v1.POST("/users/:userId/history", s.addHistory)
		v1.GET("/users/:userId/preferences", s.getPreferences)
		v1.PUT("/users/:userId/preferences", s.putPreferences)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func clientError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": message})
}

func serverError(c *gin.Context, err error) {
	log.Printf("internal error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "message": "internal server error"})
}

func okJSON(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success", "data": data})
}

func parseLimit(c *gin.Context) (int, bool) {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(defaultLimit))
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		clientError(c, "limit must be a positive integer")
		return 0, false
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, true
}

// aggregatorItems 取请求里点名的聚合上游（缺省为全部）的缓存条目
func (s *Server) aggregatorItems(c *gin.Context, sources string) []collector.NewsItem {
	ids := s.aggregators.IDs()
	if sources != "" {
		ids = strings.Split(sources, ",")
	}
	var out []collector.NewsItem
	for _, id := range ids {
		out = append(out, s.aggregators.GetOrRefresh(c.Request.Context(), strings.TrimSpace(id))...)
	}
	return out
}

// fetchNews GET /api/v1/news?limit=&category=&aggregators=&aggregatorSources=
func (s *Server) fetchNews(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	category := c.Query("category")

	includeAggregators := true
	if v := c.Query("aggregators"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			clientError(c, "aggregators must be a boolean")
			return
		}
		includeAggregators = b
	}

	feedItems := s.feeds.FetchAll(c.Request.Context(), limit, category)

	var aggItems []collector.NewsItem
	if includeAggregators {
		aggItems = s.aggregatorItems(c, c.Query("aggregatorSources"))
	}

	res := s.engine.Merge(feedItems, aggItems, nil, processor.Filters{Category: category}, processor.Page{Limit: limit})
	okJSON(c, res)
}

// searchNews GET /api/v1/news/search?q=&category=&source=&sourceType=&skip=&limit=
func (s *Server) searchNews(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		clientError(c, "q is required")
		return
	}

	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	skip := 0
	if v := c.Query("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			clientError(c, "skip must be a non-negative integer")
			return
		}
		skip = n
	}

	sourceType := c.Query("sourceType")
	switch sourceType {
	case "", collector.SourceTypeRSS, collector.SourceTypeAggregator, collector.SourceTypePodcast:
	default:
		clientError(c, "sourceType must be one of rss, aggregator, podcast")
		return
	}

	feedItems := s.feeds.FetchAll(c.Request.Context(), poolFetchLimit, "")
	aggItems := s.aggregatorItems(c, "")

	res := s.engine.Merge(feedItems, aggItems, nil, processor.Filters{
		Category:   c.Query("category"),
		Source:     c.Query("source"),
		SourceType: sourceType,
		Query:      query,
	}, processor.Page{Skip: skip, Limit: limit})
	okJSON(c, res)
}

// trending GET /api/v1/news/trending（结果缓存 5 分钟）
func (s *Server) trending(c *gin.Context) {
	ctx := c.Request.Context()
	if bs, hit := s.store.CacheGet(ctx, trendingCacheKey); hit {
		c.Data(http.StatusOK, "application/json; charset=utf-8", bs)
		return
	}

	feedItems := s.feeds.FetchAll(ctx, poolFetchLimit, "")
	aggItems := s.aggregatorItems(c, "")
	merged := s.engine.Merge(feedItems, aggItems, nil, processor.Filters{}, processor.Page{})

	res := s.engine.Trending(merged.Results)

	payload, err := json.Marshal(gin.H{"code": "ok", "message": "success", "data": res})
	if err != nil {
		serverError(c, err)
		return
	}
	s.store.CacheSet(ctx, trendingCacheKey, payload, trendingCacheTTL)
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// sourceHealth GET /api/v1/sources/health
func (s *Server) sourceHealth(c *gin.Context) {
	okJSON(c, gin.H{
		"sources": s.monitor.Records(),
		"summary": s.monitor.Summarize(),
	})
}

// refreshSourceHealth POST /api/v1/sources/health/refresh
// 只触发一轮后台探测，立即返回
func (s *Server) refreshSourceHealth(c *gin.Context) {
	s.monitor.Refresh()
	c.JSON(http.StatusAccepted, gin.H{"code": "accepted", "message": "health refresh started"})
}

// aggregatorStatus GET /api/v1/aggregators/status
func (s *Server) aggregatorStatus(c *gin.Context) {
	okJSON(c, s.aggregators.Statuses())
}

// recommendations GET /api/v1/recommendations/:userId?limit=
func (s *Server) recommendations(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		clientError(c, "userId is required")
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	feedItems := s.feeds.FetchAll(ctx, poolFetchLimit, "")
	aggItems := s.aggregatorItems(c, "")
	merged := s.engine.Merge(feedItems, aggItems, nil, processor.Filters{}, processor.Page{})

	res, err := s.recommender.Recommend(ctx, userID, merged.Results, limit)
	if err != nil {
		// 历史 / 偏好读不出来没有安全的本地兜底，只能报错
		serverError(c, err)
		return
	}
	okJSON(c, res)
}

type historyRequest struct {
	TrackID     string    `json:"trackId"`
	Category    string    `json:"category"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	PlayedAt    time.Time `json:"playedAt"`
	DurationSec int       `json:"durationSec"`
}

// addHistory POST /api/v1/users/:userId/history
func (s *Server) addHistory(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		clientError(c, "userId is required")
		return
	}

	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		clientError(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.TrackID) == "" {
		clientError(c, "trackId is required")
		return
	}

	ev := &storage.ListeningEvent{
		UserID:      userID,
		TrackID:     req.TrackID,
		Category:    req.Category,
		Source:      req.Source,
		Title:       req.Title,
		PlayedAt:    req.PlayedAt,
		DurationSec: req.DurationSec,
	}
	if err := s.store.AddListeningEvent(c.Request.Context(), ev); err != nil {
		serverError(c, err)
		return
	}
	okJSON(c, ev)
}

type preferencesRequest struct {
	Interests []string `json:"interests"`
}

// getPreferences GET /api/v1/users/:userId/preferences
func (s *Server) getPreferences(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		clientError(c, "userId is required")
		return
	}
	interests, err := s.store.Interests(c.Request.Context(), userID)
	if err != nil {
		serverError(c, err)
		return
	}
	if interests == nil {
		interests = []string{}
	}
	okJSON(c, gin.H{"interests": interests})
}

// putPreferences PUT /api/v1/users/:userId/preferences
func (s *Server) putPreferences(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		clientError(c, "userId is required")
		return
	}
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		clientError(c, "invalid request body")
		return
	}
	if err := s.store.SaveInterests(c.Request.Context(), userID, req.Interests); err != nil {
		serverError(c, err)
		return
	}
	okJSON(c, gin.H{"interests": req.Interests})
}
