package pipeline

import (
	"context"
	"time"

	"annual-report-analyzer/internal/classifier"
	"annual-report-analyzer/internal/classifier/classifierobs"
	"annual-report-analyzer/internal/extract"
	"annual-report-analyzer/internal/fetcher"
	"annual-report-analyzer/internal/interfaces"
	"annual-report-analyzer/internal/store"
)

// NewFromConfig wires the production collaborators described by cfg.
func NewFromConfig(ctx context.Context, cfg *store.Config) (*Analyzer, error) {
	sentiment, action, err := classifier.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	renderer := fetcher.NewRenderer(cfg)
	return New(
		fetcher.NewDiscoverer(cfg, renderer),
		func(dir string) interfaces.Downloader { return fetcher.NewRunDownloader(cfg, dir) },
		extract.New(),
		classifierobs.WrapSentiment(sentiment),
		classifierobs.WrapAction(action),
		Options{
			ListingURL:    cfg.ListingURL,
			OutputDir:     cfg.OutputDir,
			MaxConcurrent: cfg.MaxConcurrent,
			PolitenessMin: time.Duration(cfg.Politeness.MinMs) * time.Millisecond,
			PolitenessMax: time.Duration(cfg.Politeness.MaxMs) * time.Millisecond,
			LabelWindow:   fetcher.WindowFromConfig(cfg).Apply,
		},
	), nil
}
