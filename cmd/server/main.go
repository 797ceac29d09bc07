package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/cliffyan/go-problem-search/internal/config"
	"github.com/cliffyan/go-problem-search/internal/engine"
	"github.com/cliffyan/go-problem-search/internal/scraper"
	"github.com/cliffyan/go-problem-search/internal/server"
	"github.com/cliffyan/go-problem-search/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("🔍 Starting problem search server...")

	// 加载配置
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 加载题库并构建索引
	catalogue := store.New(cfg.Index.DataFile)
	engineManager := engine.NewManager(cfg, catalogue)
	log.Printf("✅ Indexed %d problems from %s", engineManager.Count(), catalogue.Path())

	// 题库文件变更时自动重建索引
	if cfg.Index.Watch {
		go func() {
			if err := engineManager.Watch(ctx); err != nil {
				log.Printf("⚠️ Catalogue watcher stopped: %v", err)
			}
		}()
	}

	// 定时抓取
	if cfg.Scraper.Schedule != "" {
		scraperManager := scraper.NewManager(cfg)
		defer scraperManager.Close()

		refresher, err := scraper.NewRefresher(cfg.Scraper.Schedule, scraperManager, cfg.Scraper.Jobs, engineManager.Replace)
		if err != nil {
			log.Fatalf("❌ Invalid scrape schedule: %v", err)
		}
		refresher.Start()
		defer func() { <-refresher.Stop().Done() }()
	}

	// 创建并启动服务器
	srv := server.New(cfg, engineManager)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
	log.Println("👋 Server stopped")
}
