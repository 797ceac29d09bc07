package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/cliffyan/go-problem-search/internal/engine"
)

// HackerRankScraper HackerRank 题目抓取，topic 对应 domain
type HackerRankScraper struct {
	renderer Renderer
	baseURL  string
	language string
}

// NewHackerRankScraper 创建 HackerRank 抓取器
func NewHackerRankScraper(renderer Renderer, language string) *HackerRankScraper {
	return &HackerRankScraper{
		renderer: renderer,
		baseURL:  "https://www.hackerrank.com",
		language: language,
	}
}

// Name 返回平台标识
func (s *HackerRankScraper) Name() string {
	return "hackerrank"
}

// Scrape 抓取 domain 页面
func (s *HackerRankScraper) Scrape(ctx context.Context, topic string, limit int) ([]engine.Problem, error) {
	domain := topic
	if domain == "" {
		domain = "algorithms"
	}
	pageURL := s.baseURL + "/domains/" + url.PathEscape(domain)

	html, err := s.renderer.RenderedHTML(ctx, pageURL, "body", 3)
	if err != nil {
		return nil, err
	}

	problems, err := parseHackerRank(html, s.baseURL, domain, s.language, limit)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ [HackerRank] Scraped %d problem(s) from domain '%s'", len(problems), domain)
	return problems, nil
}

func parseHackerRank(html, baseURL, domain, language string, limit int) ([]engine.Problem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}

	var problems []engine.Problem
	if limit <= 0 {
		return problems, nil
	}
	seen := make(map[string]bool)

	// 多取一些候选，去重后再截断
	links := doc.Find("a[href*='/challenges/']")
	links.Slice(0, min(links.Length(), limit*2)).
		EachWithBreak(func(i int, link *goquery.Selection) bool {
			if len(problems) >= limit {
				return false
			}

			href, _ := link.Attr("href")
			if href == "" || seen[href] {
				return true
			}
			seen[href] = true

			title := strings.TrimSpace(link.Text())
			if utf8.RuneCountInString(title) <= 3 {
				return true
			}

			difficulty := "Medium"
			link.Parent().Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
				class, _ := span.Attr("class")
				if strings.Contains(strings.ToLower(class), "difficulty") {
					if text := strings.TrimSpace(span.Text()); text != "" {
						difficulty = text
					}
					return false
				}
				return true
			})

			problems = append(problems, newProblem("HackerRank", title, absURL(baseURL, href), difficulty, domain, language))
			return true
		})

	return problems, nil
}
