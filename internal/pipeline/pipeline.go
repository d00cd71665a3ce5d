package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"annual-report-analyzer/internal/interfaces"
	"annual-report-analyzer/internal/logger"
	"annual-report-analyzer/internal/trace"
	"annual-report-analyzer/internal/types"
)

// ErrDiscovery wraps any failure to enumerate documents or labels.
var ErrDiscovery = errors.New("discovery failed")

// DownloaderFactory opens a download session writing into dir.
type DownloaderFactory func(dir string) interfaces.Downloader

// Options tunes a run. Zero values fall back to defaults.
type Options struct {
	ListingURL    string
	OutputDir     string
	MaxConcurrent int
	PolitenessMin time.Duration
	PolitenessMax time.Duration
	// LabelWindow clips labels to the same window the discoverer applies to
	// links. Nil keeps every label.
	LabelWindow func([]string) []string
}

var _ interfaces.Pipeline = (*Analyzer)(nil)

// Analyzer drives discovery, download, extraction and classification for
// one listing page.
type Analyzer struct {
	discoverer    interfaces.Discoverer
	newDownloader DownloaderFactory
	extractor     interfaces.SectionExtractor
	sentiment     interfaces.SentimentClassifier
	action        interfaces.ActionClassifier
	opts          Options

	mu      sync.Mutex
	history []types.RunState
}

func New(
	discoverer interfaces.Discoverer,
	newDownloader DownloaderFactory,
	extractor interfaces.SectionExtractor,
	sentiment interfaces.SentimentClassifier,
	action interfaces.ActionClassifier,
	opts Options,
) *Analyzer {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 3
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "pdfs"
	}
	if opts.PolitenessMax < opts.PolitenessMin {
		opts.PolitenessMax = opts.PolitenessMin
	}
	return &Analyzer{
		discoverer:    discoverer,
		newDownloader: newDownloader,
		extractor:     extractor,
		sentiment:     sentiment,
		action:        action,
		opts:          opts,
		history:       []types.RunState{types.StateIdle},
	}
}

// History returns the states visited by the most recent run.
func (a *Analyzer) History() []types.RunState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]types.RunState(nil), a.history...)
}

// State is the current run state.
func (a *Analyzer) State() types.RunState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.history[len(a.history)-1]
}

func (a *Analyzer) transition(ctx context.Context, state types.RunState) {
	a.mu.Lock()
	a.history = append(a.history, state)
	a.mu.Unlock()
	logger.Debug(ctx, "Run state changed", "state", state)
}

// Run processes every discovered document and returns the successful records
// in discovery order. Per-document failures are recorded as drops; only
// discovery failures fail the run, in which case the partial result is
// returned alongside the error. The download session is always closed.
func (a *Analyzer) Run(ctx context.Context) (result *types.RunResult, err error) {
	runID := uuid.NewString()
	ctx, span := trace.StartSpan(ctx, "pipeline.Run")
	defer span.End()

	a.mu.Lock()
	a.history = []types.RunState{types.StateIdle}
	a.mu.Unlock()

	result = &types.RunResult{
		RunID:      runID,
		ListingURL: a.opts.ListingURL,
		StartedAt:  time.Now(),
	}
	op := logger.StartOperation(ctx, "pipeline_run", "run_id", runID, "listing_url", a.opts.ListingURL)

	dl := a.newDownloader(filepath.Join(a.opts.OutputDir, runID))
	defer func() {
		if cerr := dl.Close(); cerr != nil {
			logger.WarnWithErr(ctx, "Failed to close download session", cerr, "run_id", runID)
		}
		a.transition(ctx, types.StateClosed)
		result.State = types.StateClosed
		result.FinishedAt = time.Now()
		if err != nil {
			op.EndWithError(err, "run_id", runID)
			return
		}
		op.End("run_id", runID, "discovered", result.Discovered, "succeeded", result.Succeeded)
		logger.Run(ctx, runID, result.Discovered, result.Succeeded, "dropped", len(result.Dropped))
	}()

	a.transition(ctx, types.StateDiscovering)
	refs, err := a.discover(ctx)
	if err != nil {
		return result, err
	}
	result.Discovered = len(refs)

	a.transition(ctx, types.StateDownloading)
	records, drops := a.processAll(ctx, dl, refs)

	for _, rec := range records {
		if rec != nil {
			result.Records = append(result.Records, rec)
		}
	}
	result.Succeeded = len(result.Records)
	result.Dropped = drops

	a.transition(ctx, types.StateAggregated)
	return result, nil
}

// discover pairs links with labels by index. Labels beyond the links are
// ignored and missing labels become types.UnknownCompany.
func (a *Analyzer) discover(ctx context.Context) ([]types.DocumentRef, error) {
	links, err := a.discoverer.DiscoverLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: links: %w", ErrDiscovery, err)
	}
	labels, err := a.discoverer.DiscoverLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: labels: %w", ErrDiscovery, err)
	}
	if a.opts.LabelWindow != nil {
		labels = a.opts.LabelWindow(labels)
	}
	if len(labels) != len(links) {
		logger.Warn(ctx, "Link and label counts differ", "links", len(links), "labels", len(labels))
	}

	refs := make([]types.DocumentRef, len(links))
	for i, link := range links {
		label := types.UnknownCompany
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		refs[i] = types.DocumentRef{URL: link, Label: label, Index: i}
	}
	logger.Info(ctx, "Documents discovered", "count", len(refs), "labels", len(labels))
	return refs, nil
}

// processAll runs one task per ref with at most MaxConcurrent in flight.
// Each task owns slot i of the returned records.
func (a *Analyzer) processAll(ctx context.Context, dl interfaces.Downloader, refs []types.DocumentRef) ([]*types.AnalysisRecord, []types.DropRecord) {
	records := make([]*types.AnalysisRecord, len(refs))
	sem := semaphore.NewWeighted(int64(a.opts.MaxConcurrent))

	var (
		dropMu sync.Mutex
		drops  []types.DropRecord
		once   sync.Once
	)
	drop := func(d types.DropRecord) {
		logger.Warn(ctx, "Document dropped", "index", d.Index, "url", d.URL, "stage", d.Stage, "reason", d.Reason)
		dropMu.Lock()
		drops = append(drops, d)
		dropMu.Unlock()
	}
	analyzing := func() {
		once.Do(func() { a.transition(ctx, types.StateAnalyzing) })
	}

	var g errgroup.Group
	for i, ref := range refs {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				drop(types.DropRecord{Index: i, URL: ref.URL, Stage: "cancelled", Reason: err.Error()})
				return nil
			}
			defer sem.Release(1)

			defer func() {
				if r := recover(); r != nil {
					records[i] = nil
					drop(types.DropRecord{Index: i, URL: ref.URL, Stage: "panic", Reason: fmt.Sprint(r)})
				}
			}()

			rec, d := a.process(ctx, dl, ref, analyzing)
			if d != nil {
				drop(*d)
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	g.Wait()

	sort.Slice(drops, func(i, j int) bool { return drops[i].Index < drops[j].Index })
	return records, drops
}

// process handles one document. It returns either a record or a drop.
func (a *Analyzer) process(ctx context.Context, dl interfaces.Downloader, ref types.DocumentRef, analyzing func()) (*types.AnalysisRecord, *types.DropRecord) {
	fail := func(stage string, err error) *types.DropRecord {
		return &types.DropRecord{Index: ref.Index, URL: ref.URL, Stage: stage, Reason: err.Error()}
	}

	doc, err := dl.Download(ctx, ref)
	if err != nil {
		logger.ErrorWithErr(ctx, "Download failed", err, "index", ref.Index, "url", ref.URL)
		return nil, fail("download", err)
	}
	if err := a.politenessDelay(ctx); err != nil {
		return nil, fail("cancelled", err)
	}

	analyzing()
	extracted, err := a.extractor.Extract(ctx, doc)
	if err != nil {
		logger.ErrorWithErr(ctx, "Extraction failed", err, "index", ref.Index, "path", doc.LocalPath)
		return nil, fail("extract", err)
	}
	extracted.CompanyName = ref.Label

	rec := &types.AnalysisRecord{
		Extracted:   *extracted,
		CompanyName: ref.Label,
		Sentiment:   make(map[string]types.SentimentResult, len(types.SectionNames)),
		Actions:     make(map[string]types.ActionLabel, len(types.SectionNames)),
	}
	for _, name := range types.SectionNames {
		text := extracted.Sections[name]

		sent, err := a.sentiment.ClassifySentiment(ctx, text)
		if err != nil {
			logger.WarnWithErr(ctx, "Sentiment classification failed", err, "index", ref.Index, "section", name)
			sent = types.NeutralSentiment()
		}
		rec.Sentiment[name] = sent

		act, err := a.action.ClassifyAction(ctx, text)
		if err != nil {
			logger.WarnWithErr(ctx, "Action classification failed", err, "index", ref.Index, "section", name)
			act = types.ActionNeutral
		}
		rec.Actions[name] = act
	}

	logger.Document(ctx, "analyzed", ref.URL, "index", ref.Index, "company", ref.Label, "pages", extracted.PageCount)
	return rec, nil
}

func (a *Analyzer) politenessDelay(ctx context.Context) error {
	d := a.opts.PolitenessMin
	if spread := a.opts.PolitenessMax - a.opts.PolitenessMin; spread > 0 {
		d += rand.N(spread)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
