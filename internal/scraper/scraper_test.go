package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliffyan/go-problem-search/internal/engine"
)

const codeforcesPage = `<html><body>
<table class="problems">
  <tr><th>#</th><th>Name</th><th></th><th>Rating</th><th>Solved</th></tr>
  <tr>
    <td class="id"><a href="/problemset/problem/4/A">4A</a></td>
    <td>
      <div style="float:left;"><a href="/problemset/problem/4/A"> Watermelon </a></div>
      <div style="float:right;"><a href="/problemset?tags=math" class="notice">math</a></div>
    </td>
    <td></td>
    <td><span class="ProblemRating">800</span></td>
    <td><a href="/problemset/status/4/problem/A">x300000</a></td>
  </tr>
  <tr>
    <td class="id"><a href="/problemset/problem/71/A">71A</a></td>
    <td><div><a href="/problemset/problem/71/A">Way Too Long Words</a></div></td>
    <td>x1</td>
  </tr>
  <tr><td>broken row</td></tr>
  <tr>
    <td class="id"><a href="/problemset/problem/1/A">1A</a></td>
    <td><div><a href="/problemset/problem/1/A">Theatre Square</a></div></td>
    <td></td>
  </tr>
</table>
</body></html>`

const codechefPage = `<html><body><table>
  <tr><th>Name</th><th>Code</th><th>Successful</th></tr>
  <tr><td><a href="/problems/FLOW001">Add Two Numbers</a></td><td>FLOW001</td><td class="num">1200</td></tr>
  <tr><td><a href="https://www.codechef.com/problems/TEST">Life, the Universe, and Everything</a></td><td>TEST</td></tr>
  <tr><td><a href="/practice">Practice</a></td></tr>
</table></body></html>`

const leetcodePage = `<html><body><div role="rowgroup">
  <div role="row"><div>Title</div></div>
  <div role="row">
    <a href="/problems/two-sum/">1. Two Sum</a>
    <span class="text-difficulty-easy">Easy</span><span>51.2%</span>
  </div>
  <div role="row">
    <a href="/problems/add-two-numbers/">2. Add Two Numbers</a>
    <span class="text-difficulty-medium">Medium</span>
  </div>
  <div role="row"><a href="/problems/median/">4. Median of Two Sorted Arrays</a></div>
</div></body></html>`

const hackerrankPage = `<html><body>
  <div class="challenge"><a href="/challenges/solve-me-first">Solve Me First</a><span class="Difficulty-label">Easy</span></div>
  <div class="challenge"><a href="/challenges/solve-me-first">Solve Me First</a></div>
  <div class="challenge"><a href="/challenges/ab">AB</a></div>
  <div class="challenge"><a href="/challenges/simple-array-sum">Simple Array Sum</a></div>
  <div class="challenge"><a href="/challenges/compare-the-triplets">Compare the Triplets</a></div>
</body></html>`

// fakeRenderer 代替真实浏览器返回固定页面
type fakeRenderer struct {
	html    string
	err     error
	url     string
	wait    string
	scrolls int
}

func (f *fakeRenderer) RenderedHTML(ctx context.Context, pageURL, waitSelector string, scrolls int) (string, error) {
	f.url, f.wait, f.scrolls = pageURL, waitSelector, scrolls
	return f.html, f.err
}

func TestCodeforcesScraper(t *testing.T) {
	var gotPath, gotTags, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTags = r.URL.Query().Get("tags")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(codeforcesPage))
	}))
	defer srv.Close()

	s := NewCodeforcesScraper("", "C++", 5*time.Second)
	s.baseURL = srv.URL

	problems, err := s.Scrape(context.Background(), "DP", 10)
	require.NoError(t, err)
	assert.Equal(t, "/problemset", gotPath)
	assert.Equal(t, "dp", gotTags)
	assert.Contains(t, gotUA, "Mozilla")

	require.Len(t, problems, 3)
	assert.Equal(t, engine.Problem{
		Title:      "Watermelon",
		Link:       srv.URL + "/problemset/problem/4/A",
		Difficulty: "800",
		Platform:   "Codeforces",
		Language:   "C++",
		Topic:      "DP",
	}, problems[0])
	assert.Equal(t, "x1", problems[1].Difficulty)
	assert.Equal(t, "Unknown", problems[2].Difficulty)

	limited, err := s.Scrape(context.Background(), "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "General", limited[0].Topic)
}

func TestCodeforcesScraperStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewCodeforcesScraper("", "C++", 5*time.Second)
	s.baseURL = srv.URL

	_, err := s.Scrape(context.Background(), "", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCodeChefScraper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/problems/school", r.URL.Path)
		w.Write([]byte(codechefPage))
	}))
	defer srv.Close()

	s := NewCodeChefScraper("", "Python", 5*time.Second)
	s.baseURL = srv.URL

	problems, err := s.Scrape(context.Background(), "ignored", 10)
	require.NoError(t, err)
	require.Len(t, problems, 2)

	assert.Equal(t, "Add Two Numbers", problems[0].Title)
	assert.Equal(t, srv.URL+"/problems/FLOW001", problems[0].Link)
	assert.Equal(t, "1200", problems[0].Difficulty)
	assert.Equal(t, "School", problems[0].Topic)
	assert.Equal(t, "Python", problems[0].Language)

	assert.Equal(t, "https://www.codechef.com/problems/TEST", problems[1].Link)
	assert.Equal(t, "School", problems[1].Difficulty)
}

func TestLeetCodeScraper(t *testing.T) {
	r := &fakeRenderer{html: leetcodePage}
	s := NewLeetCodeScraper(r, "C++")

	problems, err := s.Scrape(context.Background(), "Array", 10)
	require.NoError(t, err)
	assert.Equal(t, "https://leetcode.com/problemset/all/?topicSlugs=array", r.url)
	assert.Equal(t, "[role='row']", r.wait)
	assert.Equal(t, 5, r.scrolls)

	require.Len(t, problems, 3)
	assert.Equal(t, "1. Two Sum", problems[0].Title)
	assert.Equal(t, "https://leetcode.com/problems/two-sum/", problems[0].Link)
	assert.Equal(t, "Easy", problems[0].Difficulty)
	assert.Equal(t, "Medium", problems[1].Difficulty)
	assert.Equal(t, "Unknown", problems[2].Difficulty)
	assert.Equal(t, "Array", problems[2].Topic)
}

func TestLeetCodeScraperRendererError(t *testing.T) {
	s := NewLeetCodeScraper(&fakeRenderer{err: context.DeadlineExceeded}, "C++")
	_, err := s.Scrape(context.Background(), "", 10)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHackerRankScraper(t *testing.T) {
	r := &fakeRenderer{html: hackerrankPage}
	s := NewHackerRankScraper(r, "Java")

	problems, err := s.Scrape(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Equal(t, "https://www.hackerrank.com/domains/algorithms", r.url)
	assert.Equal(t, 3, r.scrolls)

	require.Len(t, problems, 2)
	assert.Equal(t, "Solve Me First", problems[0].Title)
	assert.Equal(t, "Easy", problems[0].Difficulty)
	assert.Equal(t, "algorithms", problems[0].Topic)
	assert.Equal(t, "Simple Array Sum", problems[1].Title)
	assert.Equal(t, "Medium", problems[1].Difficulty)
	assert.Equal(t, "https://www.hackerrank.com/challenges/simple-array-sum", problems[1].Link)
}

func TestAbsURL(t *testing.T) {
	assert.Equal(t, "https://x.com/a", absURL("https://x.com/", "/a"))
	assert.Equal(t, "https://x.com/a", absURL("https://x.com", "a"))
	assert.Equal(t, "https://y.com/b", absURL("https://x.com", "https://y.com/b"))
}
