package scraper

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"golang.org/x/time/rate"

	"github.com/cliffyan/go-problem-search/internal/config"
	"github.com/cliffyan/go-problem-search/internal/engine"
)

// Manager 抓取器管理器
type Manager struct {
	scrapers map[string]Scraper
	config   *config.Config
	limiter  *rate.Limiter
	browser  *BrowserManager
	mu       sync.RWMutex
}

// NewManager 创建抓取器管理器并注册全部平台
func NewManager(cfg *config.Config) *Manager {
	m := newManager(cfg)

	proxyURL := cfg.GetProxyURL()
	language := cfg.Scraper.DefaultLanguage
	timeout := cfg.Scraper.Timeout

	// 静态页面抓取器
	m.Register(NewCodeforcesScraper(proxyURL, language, timeout))
	m.Register(NewCodeChefScraper(proxyURL, language, timeout))

	// 浏览器抓取器（如果启用）
	if cfg.IsBrowserEnabled() {
		m.browser = NewBrowserManager(proxyURL, cfg.IsBrowserHeadless(), 2*timeout)
		m.Register(NewLeetCodeScraper(m.browser, language))
		m.Register(NewHackerRankScraper(m.browser, language))
		log.Printf("🌐 Browser scrapers enabled (headless=%v)", cfg.IsBrowserHeadless())
	}

	log.Printf("✅ Initialized %d scraper(s): %v", len(m.scrapers), m.Names())
	return m
}

// NewManagerWithScrapers 使用给定抓取器创建管理器
func NewManagerWithScrapers(cfg *config.Config, scrapers ...Scraper) *Manager {
	m := newManager(cfg)
	for _, s := range scrapers {
		m.Register(s)
	}
	return m
}

func newManager(cfg *config.Config) *Manager {
	limit := rate.Inf
	if cfg.Scraper.RateLimit > 0 {
		limit = rate.Every(cfg.Scraper.RateLimit)
	}
	return &Manager{
		scrapers: make(map[string]Scraper),
		config:   cfg,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Register 注册抓取器
func (m *Manager) Register(s Scraper) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scrapers[s.Name()] = s
	log.Printf("📝 Registered scraper: %s", s.Name())
}

// Get 获取抓取器
func (m *Manager) Get(name string) (Scraper, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scrapers[name]
	return s, ok
}

// Names 返回已注册平台（有序）
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.scrapers))
	for name := range m.scrapers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run 并发执行抓取任务，结果按任务顺序合并并按链接去重
// 只有全部任务失败且没有任何结果时才返回错误
func (m *Manager) Run(ctx context.Context, jobs []config.ScrapeJob) ([]engine.Problem, error) {
	perJob := make([][]engine.Problem, len(jobs))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var lastErr error

	for i, job := range jobs {
		if !m.config.IsPlatformAllowed(job.Platform) {
			log.Printf("⚠️ Platform %s is not allowed, skipping", job.Platform)
			continue
		}

		s, ok := m.Get(job.Platform)
		if !ok {
			if config.IsBrowserPlatform(job.Platform) && !m.config.IsBrowserEnabled() {
				log.Printf("⚠️ %s needs a browser but browser.enabled=false, skipping", job.Platform)
			} else {
				log.Printf("⚠️ Scraper %s not found, skipping", job.Platform)
			}
			continue
		}

		wg.Add(1)
		go func(i int, job config.ScrapeJob, s Scraper) {
			defer wg.Done()

			if err := m.limiter.Wait(ctx); err != nil {
				mu.Lock()
				lastErr = err
				mu.Unlock()
				return
			}

			problems, err := s.Scrape(ctx, job.Topic, job.Limit)
			if err != nil {
				log.Printf("❌ Scrape %s (topic=%q) failed: %v", s.Name(), job.Topic, err)
				mu.Lock()
				lastErr = err
				mu.Unlock()
				return
			}

			mu.Lock()
			perJob[i] = problems
			mu.Unlock()
		}(i, job, s)
	}

	wg.Wait()

	var all []engine.Problem
	seen := make(map[string]bool)
	for _, problems := range perJob {
		for _, p := range problems {
			if p.Link != "" && seen[p.Link] {
				continue
			}
			seen[p.Link] = true
			all = append(all, p)
		}
	}

	if len(all) == 0 && lastErr != nil {
		return nil, fmt.Errorf("all scrape jobs failed, last error: %w", lastErr)
	}

	log.Printf("✅ Scraped %d unique problem(s) from %d job(s)", len(all), len(jobs))
	return all, nil
}

// Close 释放浏览器等资源
func (m *Manager) Close() {
	if m.browser != nil {
		m.browser.Close()
	}
}
