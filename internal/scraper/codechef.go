package scraper

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cliffyan/go-problem-search/internal/engine"
)

// CodeChefScraper CodeChef 练习题抓取
type CodeChefScraper struct {
	client   *http.Client
	baseURL  string
	language string
}

// NewCodeChefScraper 创建 CodeChef 抓取器
func NewCodeChefScraper(proxyURL, language string, timeout time.Duration) *CodeChefScraper {
	return &CodeChefScraper{
		client:   newHTTPClient(proxyURL, timeout),
		baseURL:  "https://www.codechef.com",
		language: language,
	}
}

// Name 返回平台标识
func (s *CodeChefScraper) Name() string {
	return "codechef"
}

// Scrape 抓取 school 分区，CodeChef 不按主题划分，topic 参数被忽略
func (s *CodeChefScraper) Scrape(ctx context.Context, topic string, limit int) ([]engine.Problem, error) {
	pageURL := s.baseURL + "/problems/school"

	log.Printf("🕷️ [CodeChef] Fetching %s", pageURL)
	doc, err := fetchDocument(ctx, s.client, pageURL)
	if err != nil {
		return nil, err
	}

	problems := parseCodeChef(doc, s.baseURL, s.language, limit)
	log.Printf("✅ [CodeChef] Scraped %d problem(s)", len(problems))
	return problems, nil
}

func parseCodeChef(doc *goquery.Document, baseURL, language string, limit int) []engine.Problem {
	var problems []engine.Problem

	doc.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if len(problems) >= limit {
			return false
		}

		link := row.Find("a[href*='/problems/']").First()
		href, ok := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if !ok || title == "" {
			return true
		}

		difficulty := strings.TrimSpace(row.Find("td[class*='num']").First().Text())
		if difficulty == "" {
			difficulty = "School"
		}

		problems = append(problems, newProblem("CodeChef", title, absURL(baseURL, href), difficulty, "School", language))
		return true
	})

	return problems
}
