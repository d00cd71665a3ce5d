package classifierobs

import (
	"context"
	"fmt"

	"annual-report-analyzer/internal/interfaces"
	"annual-report-analyzer/internal/logger"
	"annual-report-analyzer/internal/trace"
	"annual-report-analyzer/internal/types"
)

// observableSentiment wraps a SentimentClassifier with logging and tracing.
// Failures and panics degrade to a neutral result so one bad section never
// drops a document.
type observableSentiment struct {
	inner interfaces.SentimentClassifier
}

var _ interfaces.SentimentClassifier = (*observableSentiment)(nil)

func WrapSentiment(inner interfaces.SentimentClassifier) interfaces.SentimentClassifier {
	return &observableSentiment{inner: inner}
}

func (o *observableSentiment) ClassifySentiment(ctx context.Context, text string) (res types.SentimentResult, err error) {
	ctx, span := trace.StartSpan(ctx, "classifier.Sentiment")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorWithErr(ctx, "Sentiment classifier panicked", fmt.Errorf("panic: %v", r), "chars", len(text))
			res, err = types.NeutralSentiment(), nil
		}
	}()

	logger.Debug(ctx, "Classifying sentiment", "chars", len(text))

	res, err = o.inner.ClassifySentiment(ctx, text)
	if err != nil {
		logger.WarnWithErr(ctx, "Sentiment classification failed, using neutral", err, "chars", len(text))
		return types.NeutralSentiment(), nil
	}

	logger.Debug(ctx, "Sentiment classified",
		"positive", res.Percentages[types.SentimentPositive],
		"negative", res.Percentages[types.SentimentNegative],
		"neutral", res.Percentages[types.SentimentNeutral],
	)
	return res, nil
}

type observableAction struct {
	inner interfaces.ActionClassifier
}

var _ interfaces.ActionClassifier = (*observableAction)(nil)

// WrapAction wraps an ActionClassifier the same way; failures become Neutral.
func WrapAction(inner interfaces.ActionClassifier) interfaces.ActionClassifier {
	return &observableAction{inner: inner}
}

func (o *observableAction) ClassifyAction(ctx context.Context, text string) (label types.ActionLabel, err error) {
	ctx, span := trace.StartSpan(ctx, "classifier.Action")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorWithErr(ctx, "Action classifier panicked", fmt.Errorf("panic: %v", r), "chars", len(text))
			label, err = types.ActionNeutral, nil
		}
	}()

	label, err = o.inner.ClassifyAction(ctx, text)
	if err != nil {
		logger.WarnWithErr(ctx, "Action classification failed, using Neutral", err, "chars", len(text))
		return types.ActionNeutral, nil
	}

	logger.Debug(ctx, "Action classified", "action", label)
	return label, nil
}
