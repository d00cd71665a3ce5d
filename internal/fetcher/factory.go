package fetcher

import (
	"time"

	"annual-report-analyzer/internal/api"
	"annual-report-analyzer/internal/interfaces"
	"annual-report-analyzer/internal/store"
)

// NewRenderer picks the page renderer named by cfg.Renderer.
func NewRenderer(cfg *store.Config) interfaces.PageRenderer {
	if cfg.Renderer == "STATIC" {
		return NewStaticRenderer(cfg.RenderTimeout(), api.BrowserHeaders())
	}
	return NewChromeRenderer(ChromeConfig{
		Headless:      !cfg.Chrome.Headful,
		NoSandbox:     !cfg.Chrome.Sandbox,
		UserAgent:     cfg.Chrome.UserAgent,
		ReadySelector: cfg.Selectors.Ready,
		Timeout:       cfg.RenderTimeout(),
	})
}

func NewDiscoverer(cfg *store.Config, renderer interfaces.PageRenderer) interfaces.Discoverer {
	return NewListingDiscoverer(renderer, cfg.ListingURL, Selectors{
		Region:  cfg.Selectors.LinkRegion,
		Section: cfg.Selectors.LinkSection,
		Item:    cfg.Selectors.LinkItem,
		Label:   cfg.Selectors.Label,
	}, WindowFromConfig(cfg))
}

func WindowFromConfig(cfg *store.Config) Window {
	return Window{Start: cfg.Window.Start, End: cfg.Window.End}
}

func RetryPolicyFromConfig(cfg *store.Config) api.RetryPolicy {
	return api.RetryPolicy{
		MaxAttempts:   cfg.Download.MaxAttempts,
		Base:          cfg.Download.BackoffBase,
		Unit:          time.Duration(cfg.Download.BackoffUnitMs) * time.Millisecond,
		JitterMin:     time.Duration(cfg.Download.JitterMinMs) * time.Millisecond,
		JitterMax:     time.Duration(cfg.Download.JitterMaxMs) * time.Millisecond,
		RetryStatuses: cfg.Download.RetryStatuses,
	}
}

// NewRunDownloader returns a downloader with a fresh session writing to dir.
func NewRunDownloader(cfg *store.Config, dir string) *Downloader {
	client := api.NewClient(
		api.WithTimeout(cfg.DownloadTimeout()),
		api.WithHeaders(api.BrowserHeaders()),
		api.WithInsecureTLS(!cfg.Download.VerifyTLS),
		api.WithLogging(true),
	)
	return NewDownloader(client, dir, RetryPolicyFromConfig(cfg), NewHostLimiter(cfg.Download.RequestsPerSec, 1))
}
