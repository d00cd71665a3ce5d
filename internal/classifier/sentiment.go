package classifier

import (
	"context"
	"fmt"
	"math"

	"annual-report-analyzer/internal/interfaces"
	"annual-report-analyzer/internal/types"
)

// SentenceLabeler assigns exactly one sentiment label to each sentence.
type SentenceLabeler interface {
	LabelSentences(ctx context.Context, sentences []string) ([]string, error)
}

var _ interfaces.SentimentClassifier = (*SentimentAnalyzer)(nil)

// SentimentAnalyzer segments text, labels every sentence and reports the distribution.
type SentimentAnalyzer struct {
	segmenter *Segmenter
	labeler   SentenceLabeler
}

func NewSentimentAnalyzer(labeler SentenceLabeler) *SentimentAnalyzer {
	return &SentimentAnalyzer{segmenter: NewSegmenter(), labeler: labeler}
}

func (a *SentimentAnalyzer) ClassifySentiment(ctx context.Context, text string) (types.SentimentResult, error) {
	sents, err := a.segmenter.Split(text)
	if err != nil {
		return types.SentimentResult{}, err
	}
	if len(sents) == 0 {
		return types.NeutralSentiment(), nil
	}

	labels, err := a.labeler.LabelSentences(ctx, sents)
	if err != nil {
		return types.SentimentResult{}, fmt.Errorf("label sentences: %w", err)
	}
	if len(labels) != len(sents) {
		return types.SentimentResult{}, fmt.Errorf("labeler returned %d labels for %d sentences", len(labels), len(sents))
	}
	return Tally(sents, labels), nil
}

// Tally converts per-sentence labels into rounded percentages and ordered
// insight buckets. Unrecognised labels count as neutral.
func Tally(sents, labels []string) types.SentimentResult {
	res := types.NeutralSentiment()
	if len(sents) == 0 {
		return res
	}

	counts := make(map[string]int, len(types.SentimentLabels))
	for i, sent := range sents {
		label := normalizeLabel(labels[i])
		counts[label]++
		res.Insights[label] = append(res.Insights[label], sent)
	}
	for _, label := range types.SentimentLabels {
		res.Percentages[label] = round2(float64(counts[label]) / float64(len(sents)) * 100)
	}
	return res
}

func normalizeLabel(label string) string {
	switch label {
	case types.SentimentPositive, types.SentimentNegative:
		return label
	}
	return types.SentimentNeutral
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
