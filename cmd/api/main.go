package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/NewsWave/internal/api"
	"github.com/LJTian/NewsWave/internal/cache"
	"github.com/LJTian/NewsWave/internal/collector"
	"github.com/LJTian/NewsWave/internal/config"
	"github.com/LJTian/NewsWave/internal/health"
	"github.com/LJTian/NewsWave/internal/processor"
	"github.com/LJTian/NewsWave/internal/profile"
	"github.com/LJTian/NewsWave/internal/recommend"
	"github.com/LJTian/NewsWave/internal/scheduler"
	"github.com/LJTian/NewsWave/internal/source"
	"github.com/LJTian/NewsWave/internal/storage"
)

func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	registry := source.Default()
	feeds := collector.NewService(registry)
	monitor := health.NewMonitor(registry)

	// 聚合缓存由这里持有并注入，不做包级单例
	aggregators := cache.New([]collector.AggregatorClient{
		collector.NewNewsDataClient(cfg.NewsDataAPIKey),
		collector.NewGNewsClient(cfg.GNewsAPIKey),
	}, cache.DefaultTTL, time.Now)

	expander := recommend.NewTopicExpander(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)
	builder := profile.NewBuilder(store, time.Now)
	recommender := recommend.NewScorer(builder, store, expander)
	engine := processor.NewEngine()

	// 两个常驻后台循环：健康探测 + 聚合缓存刷新
	sched, err := scheduler.New([]scheduler.Job{
		{
			Name:     "health-probe",
			CronSpec: cfg.HealthCronSpec,
			Run: func() {
				monitor.RunPass(context.Background())
			},
		},
		{
			Name:     "aggregator-refresh",
			CronSpec: cfg.AggregatorCronSpec,
			Run: func() {
				aggregators.RefreshAll(context.Background())
			},
		},
	})
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	sched.Start()

	// API
	r := gin.Default()
	r.Use(api.RateLimitMiddleware(cfg.RateLimitPerMinute))
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer := api.NewServer(feeds, aggregators, monitor, engine, recommender, store)
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		log.Printf("starting api server at %s ...", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server exit: %v", err)
		}
	}()

	// 收到退出信号后先停调度器再关服务，后台任务不留孤儿
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("shutting down ...")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

// basicAuthMiddleware 为整个站点增加一个简单的 Basic Auth 访问密码。
// 仅当配置了 APP_BASIC_USER / APP_BASIC_PASS 时启用。
// /health 不做认证，便于健康检查。
func basicAuthMiddleware(user, pass string) gin.HandlerFunc {
	const realm = "Restricted"
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
