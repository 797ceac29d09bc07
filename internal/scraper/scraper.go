package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cliffyan/go-problem-search/internal/engine"
)

// Scraper 题目抓取器接口
type Scraper interface {
	// Name 返回平台标识
	Name() string
	// Scrape 抓取指定主题下最多 limit 道题目
	Scrape(ctx context.Context, topic string, limit int) ([]engine.Problem, error)
}

// Renderer 返回 JavaScript 渲染后的页面 HTML
type Renderer interface {
	RenderedHTML(ctx context.Context, pageURL, waitSelector string, scrolls int) (string, error)
}

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// newHTTPClient 创建带 cookie 和可选代理的 HTTP 客户端
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	jar, _ := cookiejar.New(nil)

	transport := &http.Transport{}
	if proxyURL != "" {
		if proxy, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxy)
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Jar:       jar,
		Transport: transport,
	}
}

// setHeaders 设置请求头
func setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
}

// fetchDocument 获取并解析静态页面
func fetchDocument(ctx context.Context, client *http.Client, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	setHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body[:min(len(body), 200)]))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}
	return doc, nil
}

// absURL 将站内相对链接补全为绝对地址
func absURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimRight(base, "/") + href
}

// newProblem 构造题目，空主题记为 General
func newProblem(platform, title, link, difficulty, topic, language string) engine.Problem {
	if topic == "" {
		topic = "General"
	}
	return engine.Problem{
		Title:      title,
		Link:       link,
		Difficulty: difficulty,
		Platform:   platform,
		Language:   language,
		Topic:      topic,
	}
}
