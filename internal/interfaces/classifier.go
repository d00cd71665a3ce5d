package interfaces

import (
	"context"

	"annual-report-analyzer/internal/types"
)

// SentimentClassifier labels every sentence of a text and reports the distribution.
type SentimentClassifier interface {
	ClassifySentiment(ctx context.Context, text string) (types.SentimentResult, error)
}

// ActionClassifier makes one buy/neutral/sell call over a text.
type ActionClassifier interface {
	ClassifyAction(ctx context.Context, text string) (types.ActionLabel, error)
}
