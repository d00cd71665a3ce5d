package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"annual-report-analyzer/internal/api"
	"annual-report-analyzer/internal/interfaces"
	"annual-report-analyzer/internal/logger"
	"annual-report-analyzer/internal/types"
)

const timestampLayout = "20060102_150405.000000"

var _ interfaces.Downloader = (*Downloader)(nil)

// Downloader stores documents under a run directory using one shared session.
type Downloader struct {
	client  *api.Client
	policy  api.RetryPolicy
	dir     string
	limiter *HostLimiter

	mu        sync.Mutex
	lastStamp time.Time
}

func NewDownloader(client *api.Client, dir string, policy api.RetryPolicy, limiter *HostLimiter) *Downloader {
	return &Downloader{
		client:  client,
		policy:  policy,
		dir:     dir,
		limiter: limiter,
	}
}

// Dir is the directory downloads are written to.
func (d *Downloader) Dir() string {
	return d.dir
}

// Download fetches ref into the run directory. Errors are *api.StatusError
// for rejected requests or wrap api.ErrRetriesExhausted.
func (d *Downloader) Download(ctx context.Context, ref types.DocumentRef) (*types.DownloadedDocument, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	if err := d.limiter.Wait(ctx, ref.URL); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	dest := filepath.Join(d.dir, FileName(ref.URL, d.stamp()))
	res, err := d.client.Download(ctx, ref.URL, dest, d.policy)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", ref.URL, err)
	}

	logger.Document(ctx, "downloaded", ref.URL,
		"index", ref.Index,
		"path", res.Path,
		"bytes", res.Size,
		"attempts", res.Attempts)

	return &types.DownloadedDocument{
		Ref:         ref,
		LocalPath:   res.Path,
		Size:        res.Size,
		Attempts:    res.Attempts,
		RetrievedAt: time.Now(),
	}, nil
}

// Close releases the shared session.
func (d *Downloader) Close() error {
	return d.client.Close()
}

// stamp returns a timestamp strictly later, at the file-name resolution,
// than any previously issued by this downloader.
func (d *Downloader) stamp() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now().Truncate(time.Microsecond)
	if !now.After(d.lastStamp) {
		now = d.lastStamp.Add(time.Microsecond)
	}
	d.lastStamp = now
	return now
}

// FileName builds "{timestamp}_{last path segment}" for a document URL.
func FileName(rawURL string, at time.Time) string {
	name := "document.pdf"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			name = base
		}
	}
	return at.Format(timestampLayout) + "_" + name
}
