package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/LJTian/NewsWave/internal/collector"
)

// DefaultTTL 聚合缓存的默认有效期
const DefaultTTL = 600 * time.Second

// Clock 可注入的时钟，测试时替换
type Clock func() time.Time

// Status 单个聚合上游的缓存状态
type Status struct {
	Configured    bool       `json:"configured"`
	CachedCount   int        `json:"cachedCount"`
	LastFetchedAt *time.Time `json:"lastFetchedAt"`
	TTLSeconds    int        `json:"ttlSeconds"`
	Stale         bool       `json:"stale"`
}

type entry struct {
	items         []collector.NewsItem
	lastFetchedAt time.Time
}

// AggregatorCache 以 TTL 为界缓存聚合 API 的结果。
// 刷新走 singleflight：同一上游同一时刻最多一次在途请求，
// 其余调用方直接拿当前（可能过期的）缓存，不阻塞也不重复打上游。
// 刷新失败保留上一次的好数据，等下一轮重试（stale-while-revalidate）。
type AggregatorCache struct {
	clients map[string]collector.AggregatorClient
	ttl     time.Duration
	now     Clock

	mu         sync.RWMutex
	entries    map[string]entry
	refreshing map[string]bool

	group singleflight.Group
}

func New(clients []collector.AggregatorClient, ttl time.Duration, now Clock) *AggregatorCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	m := make(map[string]collector.AggregatorClient, len(clients))
	for _, c := range clients {
		m[c.ID()] = c
	}
	return &AggregatorCache{
		clients: m,
		ttl:     ttl,
		now:     now,
		entries:    make(map[string]entry, len(clients)),
		refreshing: make(map[string]bool, len(clients)),
	}
}

// IDs 返回全部已注册的聚合上游
func (c *AggregatorCache) IDs() []string {
	ids := make([]string, 0, len(c.clients))
	for id := range c.clients {
		ids = append(ids, id)
	}
	return ids
}

// GetOrRefresh 返回某个聚合上游的条目。缓存未过期直接返回；
// 过期则后台触发一次刷新并立即返回旧数据；完全没有缓存时同步拉一次。
func (c *AggregatorCache) GetOrRefresh(ctx context.Context, id string) []collector.NewsItem {
	client, ok := c.clients[id]
	if !ok || !client.Configured() {
		return nil
	}

	c.mu.RLock()
	e, exists := c.entries[id]
	c.mu.RUnlock()

	if exists {
		if c.now().Sub(e.lastFetchedAt) <= c.ttl {
			return e.items
		}
		// 过期：后台刷新，本次先用旧数据。
		// 同一上游同一时刻只允许一个刷新在途，靠互斥锁保护的标记保证。
		c.mu.Lock()
		if !c.refreshing[id] {
			c.refreshing[id] = true
			go func() {
				defer func() {
					c.mu.Lock()
					delete(c.refreshing, id)
					c.mu.Unlock()
				}()
				if err := c.Refresh(context.Background(), id); err != nil {
					log.Printf("aggregator %s background refresh error: %v", id, err)
				}
			}()
		}
		c.mu.Unlock()
		return e.items
	}

	// 冷启动：同步拉一次，并发调用共享同一个在途请求
	if err := c.Refresh(ctx, id); err != nil {
		log.Printf("aggregator %s initial fetch error: %v", id, err)
	}

	c.mu.RLock()
	e = c.entries[id]
	c.mu.RUnlock()
	return e.items
}

// Refresh 强制刷新一个上游；并发调用合并为一次上游请求。
// 只有成功才会覆盖缓存和时间戳，失败保留上一次的好数据。
func (c *AggregatorCache) Refresh(ctx context.Context, id string) error {
	client, ok := c.clients[id]
	if !ok || !client.Configured() {
		return nil
	}

	_, err, _ := c.group.Do(id, func() (any, error) {
		items, err := client.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[id] = entry{items: items, lastFetchedAt: c.now()}
		c.mu.Unlock()
		return nil, nil
	})
	return err
}

// RefreshAll 并发刷新全部上游，一个失败不影响其它；供定时任务调用
func (c *AggregatorCache) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	for id, client := range c.clients {
		if !client.Configured() {
			continue
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := c.Refresh(ctx, id); err != nil {
				log.Printf("aggregator %s refresh error: %v", id, err)
				return
			}
			c.mu.RLock()
			n := len(c.entries[id].items)
			c.mu.RUnlock()
			log.Printf("aggregator %s refreshed, %d items", id, n)
		}(id)
	}
	wg.Wait()
}

// Statuses 返回每个上游的缓存状态
func (c *AggregatorCache) Statuses() map[string]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Status, len(c.clients))
	for id, client := range c.clients {
		s := Status{
			Configured: client.Configured(),
			TTLSeconds: int(c.ttl / time.Second),
			Stale:      true,
		}
		if e, ok := c.entries[id]; ok {
			t := e.lastFetchedAt
			s.CachedCount = len(e.items)
			s.LastFetchedAt = &t
			s.Stale = c.now().Sub(t) > c.ttl
		}
		out[id] = s
	}
	return out
}
