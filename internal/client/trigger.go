package client

import (
	"context"
	"errors"
	"log"
	"net/url"
	"sync"

	"github.com/cliffyan/go-problem-search/internal/engine"
)

// 表单字段名
const (
	FieldQuery      = "query"
	FieldDifficulty = "difficulty"
	FieldLanguage   = "language"
)

// ErrSuperseded 结果返回前已有更新的搜索发起，本次结果被丢弃
var ErrSuperseded = errors.New("search superseded by a newer one")

// Form 搜索表单的输入来源
type Form interface {
	Value(field string) string
}

// ValuesForm 将 url.Values 适配为 Form
type ValuesForm url.Values

// Value 返回字段的第一个值
func (f ValuesForm) Value(field string) string {
	return url.Values(f).Get(field)
}

// Searcher 执行搜索请求
type Searcher interface {
	Search(ctx context.Context, req engine.SearchRequest) ([]engine.Problem, error)
}

// Container 结果输出区域，每次 Show 完整替换之前的内容
type Container interface {
	Show(v View)
}

// State 输出区域的状态
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// View 一次渲染的完整输入
type View struct {
	State   State
	Results []engine.Problem
	Err     error
	// Seq 产生该视图的搜索序号，Idle 为 0
	Seq uint64
}

// Trigger 读取表单、发起搜索、渲染结果
type Trigger struct {
	form     Form
	searcher Searcher
	out      Container

	mu  sync.Mutex
	seq uint64
}

// NewTrigger 创建搜索触发器，输出区域初始为 Idle
func NewTrigger(form Form, searcher Searcher, out Container) *Trigger {
	out.Show(View{State: StateIdle})
	return &Trigger{
		form:     form,
		searcher: searcher,
		out:      out,
	}
}

// ReadRequest 按当前表单值构造请求，不做裁剪或默认值替换
func ReadRequest(form Form) engine.SearchRequest {
	return engine.SearchRequest{
		Query:      form.Value(FieldQuery),
		Difficulty: form.Value(FieldDifficulty),
		Language:   form.Value(FieldLanguage),
	}
}

// Fire 执行一次完整的 请求-渲染 周期
// 表单只在调用时读取一次；若等待期间有更新的 Fire 发起，本次结果不渲染并返回 ErrSuperseded
func (t *Trigger) Fire(ctx context.Context) error {
	req := ReadRequest(t.form)

	t.mu.Lock()
	t.seq++
	seq := t.seq
	t.out.Show(View{State: StateLoading, Seq: seq})
	t.mu.Unlock()

	results, err := t.searcher.Search(ctx, req)

	v := View{State: StateSuccess, Results: results, Seq: seq}
	if err != nil {
		v = View{State: StateError, Err: err, Seq: seq}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if seq != t.seq {
		log.Printf("⚠️ Dropping stale search response #%d (latest #%d)", seq, t.seq)
		return ErrSuperseded
	}

	t.out.Show(v)
	return err
}
