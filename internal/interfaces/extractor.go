package interfaces

import (
	"context"

	"annual-report-analyzer/internal/types"
)

// SectionExtractor turns a downloaded document into named sections and metrics.
type SectionExtractor interface {
	Extract(ctx context.Context, doc *types.DownloadedDocument) (*types.ExtractedSections, error)
}
