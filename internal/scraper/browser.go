package scraper

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserManager 共享的无头浏览器，每次渲染使用独立标签页
type BrowserManager struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	cancelFunc  context.CancelFunc
	mu          sync.Mutex
	initialized bool
	proxyURL    string
	headless    bool
	timeout     time.Duration
}

// NewBrowserManager 创建浏览器管理器，浏览器在首次渲染时才启动
func NewBrowserManager(proxyURL string, headless bool, timeout time.Duration) *BrowserManager {
	return &BrowserManager{
		proxyURL: proxyURL,
		headless: headless,
		timeout:  timeout,
	}
}

// findChromePath 查找 Chrome 可执行文件路径
func findChromePath() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}

	var paths []string

	switch runtime.GOOS {
	case "darwin":
		paths = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "linux":
		paths = []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	case "windows":
		paths = []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			os.Getenv("LOCALAPPDATA") + `\Google\Chrome\Application\chrome.exe`,
		}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			log.Printf("🔍 Found Chrome at: %s", p)
			return p
		}
	}

	return ""
}

// initialize 启动浏览器，调用方需持有锁
func (bm *BrowserManager) initialize() error {
	if bm.initialized {
		return nil
	}

	chromePath := findChromePath()
	if chromePath == "" {
		return fmt.Errorf("Chrome/Chromium not found. Please install Chrome browser or set CHROME_PATH")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(chromePath),

		chromedp.Flag("headless", bm.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),

		// 降低被识别为自动化的概率
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),

		chromedp.Flag("lang", "en-US"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)

	if bm.proxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(bm.proxyURL))
		log.Printf("🌐 Browser using proxy: %s", bm.proxyURL)
	}

	bm.allocCtx, bm.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	bm.browserCtx, bm.cancelFunc = chromedp.NewContext(bm.allocCtx,
		chromedp.WithLogf(log.Printf),
	)

	// 预热
	if err := chromedp.Run(bm.browserCtx); err != nil {
		bm.cancelFunc()
		bm.allocCancel()
		return fmt.Errorf("failed to start browser: %w", err)
	}

	bm.initialized = true
	log.Printf("✅ Browser initialized (headless=%v, path=%s)", bm.headless, chromePath)
	return nil
}

// newTab 创建带超时的标签页上下文，调用方 ctx 取消时标签页一并关闭
func (bm *BrowserManager) newTab(ctx context.Context) (context.Context, context.CancelFunc, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if err := bm.initialize(); err != nil {
		return nil, nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(bm.browserCtx)
	timeoutCtx, timeoutCancel := context.WithTimeout(tabCtx, bm.timeout)
	stop := context.AfterFunc(ctx, timeoutCancel)

	return timeoutCtx, func() {
		stop()
		timeoutCancel()
		tabCancel()
	}, nil
}

// RenderedHTML 打开页面、等待选择器出现、滚动 scrolls 次后返回整页 HTML
func (bm *BrowserManager) RenderedHTML(ctx context.Context, pageURL, waitSelector string, scrolls int) (string, error) {
	tabCtx, cancel, err := bm.newTab(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	actions := []chromedp.Action{
		chromedp.Navigate(pageURL),
		chromedp.WaitReady(waitSelector, chromedp.ByQuery),
		chromedp.Sleep(time.Second),
	}
	for i := 0; i < scrolls; i++ {
		actions = append(actions,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(time.Second),
		)
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	log.Printf("🌐 [Browser] Navigating to: %s", pageURL)
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return "", fmt.Errorf("browser navigation failed: %w", err)
	}

	log.Printf("🔍 [Browser] Got page HTML, size: %d bytes", len(html))
	return html, nil
}

// Close 关闭浏览器
func (bm *BrowserManager) Close() {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if !bm.initialized {
		return
	}
	bm.cancelFunc()
	bm.allocCancel()
	bm.initialized = false
	log.Printf("🔴 Browser closed")
}
