package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ErrRetriesExhausted is returned when every attempt failed transiently
var ErrRetriesExhausted = errors.New("download retries exhausted")

const chunkSize = 8192

// DownloadResult describes a completed download
type DownloadResult struct {
	Path     string
	Size     int64
	Attempts int
}

// Download streams url into destPath. Transport errors, body-stream errors
// and retryable statuses are retried per policy; any other non-200 status
// fails at once with *StatusError. A failed download leaves no file behind.
func (c *Client) Download(ctx context.Context, url, destPath string, policy RetryPolicy) (*DownloadResult, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		start := time.Now()
		size, err := c.fetchOnce(ctx, url, destPath)
		if err == nil {
			c.logDebug(ctx, "Download complete",
				"url", url,
				"attempt", attempt+1,
				"bytes", size,
				"duration", time.Since(start))
			return &DownloadResult{Path: destPath, Size: size, Attempts: attempt + 1}, nil
		}
		_ = os.Remove(destPath)

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !policy.Retryable(statusErr.StatusCode) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err

		if attempt < policy.MaxAttempts-1 {
			wait := policy.Backoff(attempt)
			c.logWarn(ctx, "Download failed, retrying",
				"url", url,
				"attempt", attempt+1,
				"max_attempts", policy.MaxAttempts,
				"wait", wait,
				"error", err)
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, policy.MaxAttempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url, destPath string) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return 0, err
	}

	resp, err := c.session().Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, chunkSize))
		return 0, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	f, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	n, copyErr := io.CopyBuffer(f, resp.Body, make([]byte, chunkSize))
	closeErr := f.Close()
	if copyErr != nil {
		return 0, fmt.Errorf("failed to stream body: %w", copyErr)
	}
	if closeErr != nil {
		return 0, fmt.Errorf("failed to close %s: %w", destPath, closeErr)
	}
	return n, nil
}
