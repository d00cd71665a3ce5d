package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/gocolly/colly/v2"

	"annual-report-analyzer/internal/interfaces"
	"annual-report-analyzer/internal/logger"
)

var (
	_ interfaces.PageRenderer = (*ChromeRenderer)(nil)
	_ interfaces.PageRenderer = (*StaticRenderer)(nil)
)

// ChromeConfig configures the headless browser used for dynamic listing pages
type ChromeConfig struct {
	Headless      bool
	NoSandbox     bool
	UserAgent     string
	ReadySelector string // rendering waits until this selector is present
	Timeout       time.Duration
}

// ChromeRenderer renders pages in a headless Chrome. Each render launches
// its own browser and tears it down before returning.
type ChromeRenderer struct {
	cfg ChromeConfig
}

func NewChromeRenderer(cfg ChromeConfig) *ChromeRenderer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &ChromeRenderer{cfg: cfg}
}

func (r *ChromeRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", r.cfg.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.cfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, r.cfg.Timeout)
	defer cancelRun()

	actions := []chromedp.Action{chromedp.Navigate(pageURL)}
	if r.cfg.ReadySelector != "" {
		actions = append(actions, chromedp.WaitReady(r.cfg.ReadySelector, chromedp.ByQuery))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	start := time.Now()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return "", fmt.Errorf("chrome render %s: %w", pageURL, err)
	}
	logger.Debug(ctx, "Page rendered", "url", pageURL, "renderer", "chrome", "bytes", len(html), "duration", time.Since(start))
	return html, nil
}

// StaticRenderer fetches pages with a plain GET. It suits listing pages
// whose links are present in the served HTML.
type StaticRenderer struct {
	timeout time.Duration
	headers map[string]string
}

func NewStaticRenderer(timeout time.Duration, headers map[string]string) *StaticRenderer {
	return &StaticRenderer{timeout: timeout, headers: headers}
}

func (r *StaticRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	c := colly.NewCollector(
		colly.Async(false),
		colly.StdlibContext(ctx),
	)
	if r.timeout > 0 {
		c.SetRequestTimeout(r.timeout)
	}

	c.OnRequest(func(req *colly.Request) {
		for k, v := range r.headers {
			req.Headers.Set(k, v)
		}
	})

	var html string
	c.OnResponse(func(resp *colly.Response) {
		html = string(resp.Body)
	})

	c.OnError(func(resp *colly.Response, err error) {
		logger.Warn(ctx, "Listing fetch error", "url", pageURL, "status", resp.StatusCode, "error", err)
	})

	if err := c.Visit(pageURL); err != nil {
		return "", fmt.Errorf("failed to visit %s: %w", pageURL, err)
	}
	c.Wait()

	logger.Debug(ctx, "Page rendered", "url", pageURL, "renderer", "static", "bytes", len(html))
	return html, nil
}
