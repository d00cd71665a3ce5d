package interfaces

import (
	"context"

	"annual-report-analyzer/internal/types"
)

// Pipeline runs discovery, download, extraction and classification end to end.
type Pipeline interface {
	Run(ctx context.Context) (*types.RunResult, error)
}
