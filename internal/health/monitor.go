package health

import (
	"context"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/LJTian/NewsWave/internal/source"
)

// 探测状态
const (
	StatusUnknown = "unknown"
	StatusGreen   = "green"
	StatusAmber   = "amber"
	StatusRed     = "red"
)

// 分类阈值：<500ms 绿，<3000ms 黄，其余（含错误 / 超时）红
const (
	greenLatencyLimit = 500 * time.Millisecond
	amberLatencyLimit = 3000 * time.Millisecond
	probeTimeout      = 5 * time.Second
)

// Record 单个源的最近一次探测结果，每轮原地覆盖
type Record struct {
	SourceName    string    `json:"sourceName"`
	Region        string    `json:"region"`
	Status        string    `json:"status"`
	LatencyMs     int64     `json:"latencyMs"`
	LastCheckedAt time.Time `json:"lastCheckedAt,omitempty"`
}

// StatusCounts 各状态的数量
type StatusCounts struct {
	Total int `json:"total"`
	Green int `json:"green"`
	Amber int `json:"amber"`
	Red   int `json:"red"`
}

// Summary 整体健康概览
type Summary struct {
	StatusCounts
	Unknown int                     `json:"unknown"`
	Regions map[string]StatusCounts `json:"regions"`
}

// Monitor 周期性探测注册表里的每个源并维护健康记录
type Monitor struct {
	registry *source.Registry
	client   *http.Client

	mu      sync.RWMutex
	records map[string]Record
}

func NewMonitor(reg *source.Registry) *Monitor {
	records := make(map[string]Record, reg.Len())
	for _, s := range reg.All() {
		records[s.DisplayName] = Record{
			SourceName: s.DisplayName,
			Region:     s.Region,
			Status:     StatusUnknown,
		}
	}
	return &Monitor{
		registry: reg,
		client:   &http.Client{Timeout: probeTimeout},
		records:  records,
	}
}

// RunPass 对全部源并发探测一轮；单个探测有独立超时，整轮时间有界
func (m *Monitor) RunPass(ctx context.Context) {
	start := time.Now()
	var wg sync.WaitGroup
	for _, s := range m.registry.All() {
		wg.Add(1)
		go func(src source.FeedSource) {
			defer wg.Done()
			rec := m.probe(ctx, src)
			m.mu.Lock()
			m.records[src.DisplayName] = rec
			m.mu.Unlock()
		}(s)
	}
	wg.Wait()
	log.Printf("health pass done, %d sources in %v", m.registry.Len(), time.Since(start).Round(time.Millisecond))
}

// Refresh 触发一轮后台探测，立即返回不阻塞调用方
func (m *Monitor) Refresh() {
	go m.RunPass(context.Background())
}

func (m *Monitor) probe(ctx context.Context, src source.FeedSource) Record {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	rec := Record{
		SourceName:    src.DisplayName,
		Region:        src.Region,
		LastCheckedAt: time.Now(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		rec.Status = StatusRed
		return rec
	}

	start := time.Now()
	resp, err := m.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		rec.Status = StatusRed
		rec.LatencyMs = latency.Milliseconds()
		return rec
	}
	resp.Body.Close()

	rec.LatencyMs = latency.Milliseconds()
	rec.Status = classify(latency, resp.StatusCode)
	return rec
}

func classify(latency time.Duration, statusCode int) string {
	if statusCode >= 500 {
		return StatusRed
	}
	switch {
	case latency < greenLatencyLimit:
		return StatusGreen
	case latency < amberLatencyLimit:
		return StatusAmber
	default:
		return StatusRed
	}
}

// Records 返回全部健康记录，按源名稳定排序
func (m *Monitor) Records() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceName < out[j].SourceName })
	return out
}

// Summarize 汇总整体与分区域的状态计数
func (m *Monitor) Summarize() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := Summary{Regions: make(map[string]StatusCounts)}
	for _, rec := range m.records {
		sum.Total++
		rc := sum.Regions[rec.Region]
		rc.Total++
		switch rec.Status {
		case StatusGreen:
			sum.Green++
			rc.Green++
		case StatusAmber:
			sum.Amber++
			rc.Amber++
		case StatusRed:
			sum.Red++
			rc.Red++
		default:
			sum.Unknown++
		}
		sum.Regions[rec.Region] = rc
	}
	return sum
}
