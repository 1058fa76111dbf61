package scheduler

import (
	"sync/atomic"
	"testing"
)

func TestNewRejectsBadCronSpec(t *testing.T) {
	_, err := New([]Job{{Name: "bad", CronSpec: "not a cron spec", Run: func() {}}})
	if err == nil {
		t.Fatalf("expected error for invalid cron spec")
	}
}

func TestRunOnceExecutesAllJobs(t *testing.T) {
	var a, b atomic.Int64
	s, err := New([]Job{
		{Name: "a", CronSpec: "*/5 * * * *", Run: func() { a.Add(1) }},
		{Name: "b", CronSpec: "*/10 * * * *", Run: func() { b.Add(1) }},
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	s.RunOnce()
	if a.Load() != 1 || b.Load() != 1 {
		t.Fatalf("RunOnce should execute every job once: a=%d b=%d", a.Load(), b.Load())
	}
}

func TestStopWaitsForCron(t *testing.T) {
	s, err := New([]Job{{Name: "noop", CronSpec: "*/5 * * * *", Run: func() {}}})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	s.cron.Start()
	// Stop 返回即表示没有在途任务
	s.Stop()
}
