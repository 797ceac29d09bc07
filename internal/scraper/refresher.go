package scraper

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/cliffyan/go-problem-search/internal/config"
	"github.com/cliffyan/go-problem-search/internal/engine"
)

// Sink 接收一次完整抓取的结果，一般是 engine.Manager.Replace
type Sink func(problems []engine.Problem) error

// Refresher 按 cron 表达式定时重新抓取题库
type Refresher struct {
	cron    *cron.Cron
	manager *Manager
	jobs    []config.ScrapeJob
	sink    Sink

	// 定时任务使用的 ctx，Stop 时取消
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRefresher 创建定时刷新器，schedule 支持标准五段式和 @daily、@every 1h 等写法
func NewRefresher(schedule string, m *Manager, jobs []config.ScrapeJob, sink Sink) (*Refresher, error) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Refresher{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		manager: m,
		jobs:    jobs,
		sink:    sink,
		ctx:     ctx,
		cancel:  cancel,
	}

	if _, err := r.cron.AddFunc(schedule, r.runScheduled); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	return r, nil
}

// runScheduled 定时触发的抓取，Stop 后正在进行的抓取会被取消
func (r *Refresher) runScheduled() {
	if err := r.RunOnce(r.ctx); err != nil {
		log.Printf("❌ Scheduled refresh failed: %v", err)
	}
}

// RunOnce 立即执行一次抓取并写入 sink，没有抓到任何题目时保留旧题库
func (r *Refresher) RunOnce(ctx context.Context) error {
	log.Printf("🔄 Refreshing problem catalogue (%d job(s))", len(r.jobs))

	problems, err := r.manager.Run(ctx, r.jobs)
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		log.Printf("⚠️ Refresh produced no problems, keeping the current catalogue")
		return nil
	}

	if err := r.sink(problems); err != nil {
		return fmt.Errorf("store refreshed catalogue failed: %w", err)
	}
	return nil
}

// Start 启动定时任务
func (r *Refresher) Start() {
	r.cron.Start()
	log.Printf("⏰ Catalogue refresher started")
}

// Stop 停止定时任务并取消正在运行的抓取，返回的 ctx 在该任务退出后关闭
func (r *Refresher) Stop() context.Context {
	r.cancel()
	return r.cron.Stop()
}
