package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job 一个周期性后台任务
type Job struct {
	Name     string
	CronSpec string
	Run      func()
}

// Scheduler 持有全部周期任务：启动时注册，进程退出时统一停掉，
// 不留游离的后台循环
type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

func New(jobs []Job) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, jobs: jobs}

	for _, j := range jobs {
		job := j
		if _, err := c.AddFunc(job.CronSpec, func() {
			log.Printf("job %s start", job.Name)
			job.Run()
			log.Printf("job %s done", job.Name)
		}); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮，避免和启动期的首批请求争抢资源
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, func() {
		go s.RunOnce()
	})
}

// RunOnce 立即把全部任务各跑一轮，供手动触发和一次性命令行入口使用
func (s *Scheduler) RunOnce() {
	for _, j := range s.jobs {
		log.Printf("job %s start", j.Name)
		j.Run()
		log.Printf("job %s done", j.Name)
	}
}

// Stop 停止调度并等待在途任务跑完
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("scheduler stopped")
}
