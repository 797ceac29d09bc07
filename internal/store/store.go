package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/cliffyan/go-problem-search/internal/engine"
)

// ErrNotFound 题库文件不存在
var ErrNotFound = errors.New("problem catalogue not found")

// Store 基于 JSON 文件的题库存储
type Store struct {
	path string
}

// New 创建题库存储
func New(path string) *Store {
	return &Store{path: path}
}

// Path 返回题库文件路径
func (s *Store) Path() string {
	return s.path
}

// Load 读取题库
func (s *Store) Load() ([]engine.Problem, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("read catalogue failed: %w", err)
	}

	var problems []engine.Problem
	if err := json.Unmarshal(data, &problems); err != nil {
		return nil, fmt.Errorf("parse catalogue failed: %w", err)
	}

	log.Printf("📚 Loaded %d problems from %s", len(problems), s.path)
	return problems, nil
}

// Save 写入题库，先写临时文件再重命名，避免读到写了一半的文件
func (s *Store) Save(problems []engine.Problem) error {
	if problems == nil {
		problems = []engine.Problem{}
	}

	data, err := json.MarshalIndent(problems, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalogue failed: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create catalogue dir failed: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".problems-*.json")
	if err != nil {
		return fmt.Errorf("create temp file failed: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write catalogue failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close catalogue failed: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace catalogue failed: %w", err)
	}

	log.Printf("💾 Saved %d problems to %s", len(problems), s.path)
	return nil
}
