package api

import (
	"testing"
	"time"
)

func TestIPRateLimiterIsolatesClients(t *testing.T) {
	l := newIPRateLimiter(2)

	// 第一个 IP 烧完额度
	if !l.allow("1.1.1.1") || !l.allow("1.1.1.1") {
		t.Fatalf("first two requests should pass")
	}
	if l.allow("1.1.1.1") {
		t.Fatalf("third request within the window should be rejected")
	}

	// 其它 IP 不受影响
	if !l.allow("2.2.2.2") {
		t.Fatalf("another client must have its own bucket")
	}
}

func TestIPRateLimiterPrunesStaleVisitors(t *testing.T) {
	l := newIPRateLimiter(60)

	// 塞满到触发清理阈值，并把它们都标成过期
	expired := time.Now().Add(-visitorExpiry - time.Minute)
	for i := 0; i < visitorPruneThreshold+1; i++ {
		ip := "10.0." + string(rune('a'+i%26)) + "." + string(rune('a'+i/26))
		l.allow(ip)
		l.mu.Lock()
		l.visitors[ip].lastSeen = expired
		l.mu.Unlock()
	}

	// 下一次调用应把过期条目清掉
	l.allow("fresh-ip")
	l.mu.Lock()
	n := len(l.visitors)
	l.mu.Unlock()
	if n > 2 {
		t.Fatalf("stale visitors not pruned, map size = %d", n)
	}
}
