package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliffyan/go-problem-search/internal/engine"
)

// mapForm 以 map 模拟页面输入框
type mapForm map[string]string

func (f mapForm) Value(field string) string { return f[field] }

// parseList 将容器内容包进 <ul id="results"> 后解析
func parseList(t *testing.T, l *HTMLList) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<ul id="results">` + string(l.HTML()) + `</ul>`))
	require.NoError(t, err)
	return doc.Find("#results")
}

func TestTriggerScenarioA(t *testing.T) {
	srv, requests := newSearchServer(t, http.StatusOK,
		`[{"title":"Two Sum","link":"https://x/1","difficulty":"easy"}]`)

	out := NewHTMLList()
	form := mapForm{"query": "two sum", "difficulty": "easy", "language": "python"}
	tr := NewTrigger(form, New(srv.URL+"/search", time.Second), out)

	require.NoError(t, tr.Fire(context.Background()))
	require.Len(t, *requests, 1)
	assert.JSONEq(t, `{"query":"two sum","difficulty":"easy","language":"python"}`, string((*requests)[0].body))

	list := parseList(t, out)
	require.Equal(t, 1, list.Children().Length())

	a := list.Find("li > a")
	require.Equal(t, 1, a.Length())
	href, _ := a.Attr("href")
	target, _ := a.Attr("target")
	assert.Equal(t, "https://x/1", href)
	assert.Equal(t, "_blank", target)
	assert.Equal(t, "Two Sum [easy]", a.Text())
	assert.Equal(t, StateSuccess, out.View().State)
}

func TestTriggerScenarioBEmptyResponse(t *testing.T) {
	srv, _ := newSearchServer(t, http.StatusOK, `[]`)

	out := NewHTMLList()
	tr := NewTrigger(mapForm{"query": "nothing"}, New(srv.URL, time.Second), out)

	require.NoError(t, tr.Fire(context.Background()))
	assert.Equal(t, 0, parseList(t, out).Children().Length())
	assert.Equal(t, StateSuccess, out.View().State)
}

func TestTriggerScenarioCKeepsResponseOrder(t *testing.T) {
	srv, _ := newSearchServer(t, http.StatusOK, `[
		{"title":"Zeta","link":"https://x/z","difficulty":"hard"},
		{"title":"Alpha","link":"https://x/a","difficulty":"easy"}
	]`)

	for _, form := range []mapForm{
		{"query": "q", "difficulty": "medium", "language": "go"},
		{"query": "q", "difficulty": "", "language": ""},
	} {
		out := NewHTMLList()
		tr := NewTrigger(form, New(srv.URL, time.Second), out)
		require.NoError(t, tr.Fire(context.Background()))

		items := parseList(t, out).Find("li")
		require.Equal(t, 2, items.Length())
		assert.Equal(t, "Zeta [hard]", items.Eq(0).Text())
		assert.Equal(t, "Alpha [easy]", items.Eq(1).Text())
	}
}

func TestTriggerReplacesPreviousRender(t *testing.T) {
	srv, _ := newSearchServer(t, http.StatusOK, `[
		{"title":"A","link":"https://x/a","difficulty":"easy"},
		{"title":"B","link":"https://x/b","difficulty":"easy"}
	]`)

	out := NewHTMLList()
	tr := NewTrigger(mapForm{"query": "q"}, New(srv.URL, time.Second), out)

	require.NoError(t, tr.Fire(context.Background()))
	require.NoError(t, tr.Fire(context.Background()))
	assert.Equal(t, 2, parseList(t, out).Find("li").Length())
}

func TestTriggerReadsFormAtInvocation(t *testing.T) {
	form := mapForm{"query": "first"}
	s := &fakeSearcher{}
	tr := NewTrigger(form, s, NewHTMLList())

	require.NoError(t, tr.Fire(context.Background()))
	form["query"] = "second"
	require.NoError(t, tr.Fire(context.Background()))

	require.Len(t, s.requests, 2)
	assert.Equal(t, "first", s.requests[0].Query)
	assert.Equal(t, "second", s.requests[1].Query)
}

func TestTriggerRendersErrorState(t *testing.T) {
	srv, _ := newSearchServer(t, http.StatusOK, `not json`)

	out := NewHTMLList()
	tr := NewTrigger(mapForm{"query": "q"}, New(srv.URL, time.Second), out)

	err := tr.Fire(context.Background())
	require.ErrorIs(t, err, ErrMalformedResponse)

	list := parseList(t, out)
	require.Equal(t, 1, list.Children().Length())
	assert.Equal(t, 1, list.Find("li.error").Length())
	assert.Contains(t, list.Find("li.error").Text(), "malformed search response")
	assert.Equal(t, StateError, out.View().State)
}

// fakeSearcher 可控的 Searcher，按调用顺序取出 gate 等待放行
type fakeSearcher struct {
	requests []engine.SearchRequest
	gates    []chan []engine.Problem
	started  chan struct{}
}

func (f *fakeSearcher) Search(ctx context.Context, req engine.SearchRequest) ([]engine.Problem, error) {
	f.requests = append(f.requests, req)
	if len(f.gates) == 0 {
		return []engine.Problem{}, nil
	}
	gate := f.gates[0]
	f.gates = f.gates[1:]
	if f.started != nil {
		f.started <- struct{}{}
	}
	return <-gate, nil
}

func TestTriggerDropsStaleResponses(t *testing.T) {
	first := make(chan []engine.Problem)
	second := make(chan []engine.Problem)
	s := &fakeSearcher{gates: []chan []engine.Problem{first, second}, started: make(chan struct{})}

	out := NewHTMLList()
	tr := NewTrigger(mapForm{"query": "q"}, s, out)

	firstDone := make(chan error, 1)
	go func() { firstDone <- tr.Fire(context.Background()) }()
	<-s.started

	secondDone := make(chan error, 1)
	go func() { secondDone <- tr.Fire(context.Background()) }()
	<-s.started

	second <- []engine.Problem{{Title: "New", Link: "https://x/new", Difficulty: "easy"}}
	require.NoError(t, <-secondDone)

	first <- []engine.Problem{{Title: "Old", Link: "https://x/old", Difficulty: "hard"}}
	require.ErrorIs(t, <-firstDone, ErrSuperseded)

	items := parseList(t, out).Find("li")
	require.Equal(t, 1, items.Length())
	assert.Equal(t, "New [easy]", items.Text())
	assert.Equal(t, uint64(2), out.View().Seq)
}

func TestHTMLListStates(t *testing.T) {
	out := NewHTMLList()
	NewTrigger(mapForm{}, &fakeSearcher{}, out)
	assert.Equal(t, StateIdle, out.View().State)
	assert.Empty(t, string(out.HTML()))

	out.Show(View{State: StateLoading, Seq: 1})
	assert.Equal(t, 1, parseList(t, out).Find("li.loading").Length())
}

func TestHTMLListMissingFields(t *testing.T) {
	out := NewHTMLList()
	out.Show(View{State: StateSuccess, Results: []engine.Problem{
		{Link: "https://x/1"},
		{Title: "No Link", Difficulty: "hard"},
		{Title: "<script>alert(1)</script>", Link: "https://x/2", Difficulty: "easy"},
	}})

	items := parseList(t, out).Find("li")
	require.Equal(t, 3, items.Length())
	assert.Equal(t, "https://x/1 [Unknown]", items.Eq(0).Find("a").Text())
	assert.Equal(t, 0, items.Eq(1).Find("a").Length())
	assert.Equal(t, "No Link [hard]", items.Eq(1).Text())
	assert.Equal(t, "<script>alert(1)</script> [easy]", items.Eq(2).Find("a").Text())
	assert.Equal(t, 0, items.Find("script").Length())
}

func TestHTMLListKeepsLinksVerbatim(t *testing.T) {
	links := []string{
		"https://x/a b",
		"https://x/ü",
		"https://x/q?a=1&b=\"2\"",
		"/problems/two-sum/",
	}
	results := make([]engine.Problem, 0, len(links))
	for _, link := range links {
		results = append(results, engine.Problem{Title: "T", Link: link, Difficulty: "easy"})
	}

	out := NewHTMLList()
	out.Show(View{State: StateSuccess, Results: results})

	anchors := parseList(t, out).Find("li a")
	require.Equal(t, len(links), anchors.Length())
	for i, link := range links {
		href, ok := anchors.Eq(i).Attr("href")
		require.True(t, ok)
		assert.Equal(t, link, href)
	}
}

func TestHTMLListRejectsUnsafeSchemes(t *testing.T) {
	out := NewHTMLList()
	out.Show(View{State: StateSuccess, Results: []engine.Problem{
		{Title: "A", Link: "javascript:alert(1)"},
		{Title: "B", Link: " JavaScript:alert(1)"},
		{Title: "C", Link: "data:text/html,hi"},
		{Title: "D", Link: "mailto:me@example.com"},
	}})

	anchors := parseList(t, out).Find("li a")
	require.Equal(t, 4, anchors.Length())
	for i := 0; i < 3; i++ {
		href, _ := anchors.Eq(i).Attr("href")
		assert.Equal(t, unsafeHref, href)
	}
	href, _ := anchors.Eq(3).Attr("href")
	assert.Equal(t, "mailto:me@example.com", href)
}

func TestTerminalList(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	out := NewTerminalList(&buf)

	out.Show(View{State: StateSuccess, Results: []engine.Problem{
		{Title: "Two Sum", Link: "https://x/1", Difficulty: "Easy"},
	}})
	assert.Equal(t, " 1. Two Sum [Easy]\n    https://x/1\n", buf.String())

	buf.Reset()
	out.Show(View{State: StateSuccess})
	assert.Equal(t, "No problems found.\n", buf.String())

	buf.Reset()
	out.Show(View{State: StateError, Err: errors.New("connection refused")})
	assert.Equal(t, "❌ Search failed: connection refused\n", buf.String())
}

func TestValuesForm(t *testing.T) {
	form := ValuesForm(url.Values{"query": {"two sum"}, "language": {""}})
	req := ReadRequest(form)
	assert.Equal(t, engine.SearchRequest{Query: "two sum"}, req)
}
