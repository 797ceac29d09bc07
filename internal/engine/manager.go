package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cliffyan/go-problem-search/internal/config"
)

// Catalogue 题库持久化接口
type Catalogue interface {
	Path() string
	Load() ([]Problem, error)
	Save(problems []Problem) error
}

// Manager 搜索索引管理器
type Manager struct {
	config    *config.Config
	catalogue Catalogue
	index     *Index
	mu        sync.RWMutex
}

// NewManager 创建索引管理器并加载题库，加载失败时以空索引启动
func NewManager(cfg *config.Config, catalogue Catalogue) *Manager {
	m := &Manager{
		config:    cfg,
		catalogue: catalogue,
		index:     NewIndex(nil),
	}

	if err := m.Reload(); err != nil {
		log.Printf("⚠️ Starting with an empty index: %v", err)
	}

	return m
}

// Reload 从题库重新构建索引
func (m *Manager) Reload() error {
	problems, err := m.catalogue.Load()
	if err != nil {
		return fmt.Errorf("load catalogue failed: %w", err)
	}
	m.swap(problems)
	return nil
}

// Replace 保存新的题库并重建索引
func (m *Manager) Replace(problems []Problem) error {
	if err := m.catalogue.Save(problems); err != nil {
		return fmt.Errorf("save catalogue failed: %w", err)
	}
	m.swap(problems)
	return nil
}

func (m *Manager) swap(problems []Problem) {
	ix := NewIndex(problems)
	m.mu.Lock()
	m.index = ix
	m.mu.Unlock()
	log.Printf("✅ Indexed %d problem(s)", ix.Len())
}

// Count 返回已索引题目数
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index.Len()
}

// Problems 返回当前索引中的全部题目
func (m *Manager) Problems() []Problem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index.Problems()
}

// Search 执行检索，无结果时返回空切片而不是 nil
func (m *Manager) Search(ctx context.Context, req SearchRequest) ([]Problem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	ix := m.index
	m.mu.RUnlock()

	results := ix.Search(req, m.config.Index.MaxResults)
	log.Printf("🔍 Search '%s' (difficulty=%q, language=%q) returned %d result(s)",
		req.Query, req.Difficulty, req.Language, len(results))
	return results, nil
}

// Watch 监听题库文件变化并自动重载，直到 ctx 取消
// 监听的是所在目录，这样重命名替换文件也能被捕获
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(m.catalogue.Path())
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}
	log.Printf("👀 Watching %s for changes", target)

	// 合并短时间内的多次写入
	const debounce = 200 * time.Millisecond
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(debounce)
			}
		case <-timer.C:
			if err := m.Reload(); err != nil {
				log.Printf("❌ Reload after change failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}
