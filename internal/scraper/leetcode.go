package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cliffyan/go-problem-search/internal/engine"
)

// LeetCodeScraper LeetCode 题库抓取，页面由 JavaScript 渲染
type LeetCodeScraper struct {
	renderer Renderer
	baseURL  string
	language string
}

// NewLeetCodeScraper 创建 LeetCode 抓取器
func NewLeetCodeScraper(renderer Renderer, language string) *LeetCodeScraper {
	return &LeetCodeScraper{
		renderer: renderer,
		baseURL:  "https://leetcode.com",
		language: language,
	}
}

// Name 返回平台标识
func (s *LeetCodeScraper) Name() string {
	return "leetcode"
}

// Scrape 抓取题库列表，topic 对应 topicSlugs 参数
func (s *LeetCodeScraper) Scrape(ctx context.Context, topic string, limit int) ([]engine.Problem, error) {
	pageURL := s.baseURL + "/problemset/all/"
	if topic != "" {
		pageURL += "?topicSlugs=" + url.QueryEscape(strings.ToLower(topic))
	}

	html, err := s.renderer.RenderedHTML(ctx, pageURL, "[role='row']", 5)
	if err != nil {
		return nil, err
	}

	problems, err := parseLeetCode(html, s.baseURL, topic, s.language, limit)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ [LeetCode] Scraped %d problem(s) for topic '%s'", len(problems), topic)
	return problems, nil
}

func parseLeetCode(html, baseURL, topic, language string, limit int) ([]engine.Problem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}

	var problems []engine.Problem
	doc.Find("div[role='row']").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if len(problems) >= limit {
			return false
		}

		link := row.Find("a[href]").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if href == "" || title == "" {
			return true
		}

		difficulty := strings.TrimSpace(row.Find("span[class*='text-difficulty']").First().Text())
		if difficulty == "" {
			difficulty = "Unknown"
		}

		problems = append(problems, newProblem("LeetCode", title, absURL(baseURL, href), difficulty, topic, language))
		return true
	})

	return problems, nil
}
