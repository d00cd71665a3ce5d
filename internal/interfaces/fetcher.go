package interfaces

import (
	"context"

	"annual-report-analyzer/internal/types"
)

// PageRenderer loads a listing page and returns its rendered HTML.
type PageRenderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Discoverer finds document links and company labels on the listing page.
type Discoverer interface {
	DiscoverLinks(ctx context.Context) ([]string, error)
	DiscoverLabels(ctx context.Context) ([]string, error)
}

// Downloader persists a discovered document to local storage. Close releases
// the network session shared by all downloads of a run.
type Downloader interface {
	Download(ctx context.Context, ref types.DocumentRef) (*types.DownloadedDocument, error)
	Close() error
}
