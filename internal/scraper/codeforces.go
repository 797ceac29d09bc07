package scraper

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cliffyan/go-problem-search/internal/engine"
)

// CodeforcesScraper Codeforces 题库抓取（静态页面）
type CodeforcesScraper struct {
	client   *http.Client
	baseURL  string
	language string
}

// NewCodeforcesScraper 创建 Codeforces 抓取器
func NewCodeforcesScraper(proxyURL, language string, timeout time.Duration) *CodeforcesScraper {
	return &CodeforcesScraper{
		client:   newHTTPClient(proxyURL, timeout),
		baseURL:  "https://codeforces.com",
		language: language,
	}
}

// Name 返回平台标识
func (s *CodeforcesScraper) Name() string {
	return "codeforces"
}

// Scrape 抓取题库页，topic 对应 Codeforces 的 tags 参数
func (s *CodeforcesScraper) Scrape(ctx context.Context, topic string, limit int) ([]engine.Problem, error) {
	pageURL := s.baseURL + "/problemset"
	if topic != "" {
		pageURL += "?tags=" + url.QueryEscape(strings.ToLower(topic))
	}

	log.Printf("🕷️ [Codeforces] Fetching %s", pageURL)
	doc, err := fetchDocument(ctx, s.client, pageURL)
	if err != nil {
		return nil, err
	}

	problems := parseCodeforces(doc, s.baseURL, topic, s.language, limit)
	log.Printf("✅ [Codeforces] Scraped %d problem(s)", len(problems))
	return problems, nil
}

// parseCodeforces 解析 table.problems，跳过表头行
func parseCodeforces(doc *goquery.Document, baseURL, topic, language string, limit int) []engine.Problem {
	var problems []engine.Problem

	table := doc.Find("table.problems").First()
	if table.Length() == 0 {
		log.Printf("⚠️ [Codeforces] Could not find problems table")
		return problems
	}

	rows := table.Find("tr")
	if rows.Length() < 2 {
		return problems
	}

	rows.Slice(1, goquery.ToEnd).EachWithBreak(func(i int, row *goquery.Selection) bool {
		if len(problems) >= limit {
			return false
		}

		cells := row.Find("td")
		if cells.Length() < 2 {
			return true
		}

		link := cells.Eq(1).Find("a[href]").First()
		href, ok := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if !ok || title == "" {
			return true
		}

		// 优先使用难度分，其次取最后一列
		difficulty := strings.TrimSpace(row.Find(".ProblemRating").First().Text())
		if difficulty == "" && cells.Length() > 2 {
			difficulty = strings.TrimSpace(cells.Last().Text())
		}
		if difficulty == "" {
			difficulty = "Unknown"
		}

		problems = append(problems, newProblem("Codeforces", title, absURL(baseURL, href), difficulty, topic, language))
		return true
	})

	return problems
}
