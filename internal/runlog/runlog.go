package runlog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"annual-report-analyzer/internal/interfaces"
	"annual-report-analyzer/internal/logger"
	"annual-report-analyzer/internal/types"
)

var mu sync.Mutex

// Entry is one analyzed document as kept in the daily run log
type Entry struct {
	Time       string                        `json:"time"`
	RunID      string                        `json:"run_id"`
	Company    string                        `json:"company"`
	PDFURL     string                        `json:"pdf_url"`
	ReportDate string                        `json:"report_date"`
	Metrics    map[string]string             `json:"metrics"`
	Sentiment  map[string]map[string]float64 `json:"sentiment"`
	Actions    map[string]types.ActionLabel  `json:"actions"`
}

// SummaryEntry records the outcome of a whole run
type SummaryEntry struct {
	Time       string             `json:"time"`
	RunID      string             `json:"run_id"`
	ListingURL string             `json:"listing_url"`
	Discovered int                `json:"discovered"`
	Succeeded  int                `json:"succeeded"`
	Dropped    []types.DropRecord `json:"dropped,omitempty"`
	Seconds    float64            `json:"seconds"`
}

func dailyFilepath(dir string, t time.Time) string {
	return filepath.Join(dir, t.Format("2006-01-02")+".txt")
}

func runsFilepath(dir string, t time.Time) string {
	return filepath.Join(dir, "runs", t.Format("2006-01-02")+".txt")
}

func appendLine(p string, v any) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// Append writes one line per record to the day's log and a summary line to
// the day's runs log under dir.
func Append(dir string, res *types.RunResult) error {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now()
	stamp := now.Format("2006-01-02 15:04:05")
	for _, rec := range res.Records {
		e := Entry{
			Time:       stamp,
			RunID:      res.RunID,
			Company:    rec.CompanyName,
			PDFURL:     rec.Extracted.SourceURL,
			ReportDate: rec.Extracted.ReportDate,
			Metrics:    rec.Extracted.Metrics,
			Sentiment:  make(map[string]map[string]float64, len(rec.Sentiment)),
			Actions:    rec.Actions,
		}
		for name, s := range rec.Sentiment {
			e.Sentiment[name] = s.Percentages
		}
		if err := appendLine(dailyFilepath(dir, now), e); err != nil {
			return err
		}
	}

	return appendLine(runsFilepath(dir, now), SummaryEntry{
		Time:       stamp,
		RunID:      res.RunID,
		ListingURL: res.ListingURL,
		Discovered: res.Discovered,
		Succeeded:  res.Succeeded,
		Dropped:    res.Dropped,
		Seconds:    res.FinishedAt.Sub(res.StartedAt).Seconds(),
	})
}

// CompressOlder gzips .txt logs under dir last modified more than
// retentionDays ago.
func CompressOlder(dir string, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			_ = os.Remove(gz)
			return nil
		}
		_ = os.Remove(p)
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		out.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// recordingPipeline appends every completed run to the run log
type recordingPipeline struct {
	inner interfaces.Pipeline
	dir   string
}

var _ interfaces.Pipeline = (*recordingPipeline)(nil)

// Wrap returns a pipeline that logs each successful run under dir. Log
// write failures are reported but never fail the run.
func Wrap(inner interfaces.Pipeline, dir string) interfaces.Pipeline {
	return &recordingPipeline{inner: inner, dir: dir}
}

func (p *recordingPipeline) Run(ctx context.Context) (*types.RunResult, error) {
	res, err := p.inner.Run(ctx)
	if err != nil {
		return res, err
	}
	if lerr := Append(p.dir, res); lerr != nil {
		logger.WarnWithErr(ctx, "Failed to append run log", lerr, "run_id", res.RunID, "dir", p.dir)
	}
	return res, nil
}
