package classifierobs

import (
	"context"
	"errors"
	"testing"

	"annual-report-analyzer/internal/types"
)

type stubSentiment struct {
	res   types.SentimentResult
	err   error
	panic bool
}

func (s stubSentiment) ClassifySentiment(context.Context, string) (types.SentimentResult, error) {
	if s.panic {
		panic("model exploded")
	}
	return s.res, s.err
}

type stubAction struct {
	label types.ActionLabel
	err   error
	panic bool
}

func (s stubAction) ClassifyAction(context.Context, string) (types.ActionLabel, error) {
	if s.panic {
		panic("model exploded")
	}
	return s.label, s.err
}

func assertNeutral(t *testing.T, res types.SentimentResult) {
	t.Helper()
	for _, label := range types.SentimentLabels {
		if res.Percentages[label] != 0 {
			t.Errorf("%s: expected 0, got %.2f", label, res.Percentages[label])
		}
	}
}

func TestWrapSentimentPassesThrough(t *testing.T) {
	want := types.NeutralSentiment()
	want.Percentages[types.SentimentPositive] = 100
	res, err := WrapSentiment(stubSentiment{res: want}).ClassifySentiment(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Percentages[types.SentimentPositive] != 100 {
		t.Errorf("Expected positive 100, got %.2f", res.Percentages[types.SentimentPositive])
	}
}

func TestWrapSentimentErrorIsNeutral(t *testing.T) {
	res, err := WrapSentiment(stubSentiment{err: errors.New("rate limited")}).ClassifySentiment(context.Background(), "x")
	if err != nil {
		t.Fatalf("Expected error to be absorbed, got %v", err)
	}
	assertNeutral(t, res)
}

func TestWrapSentimentRecoversPanic(t *testing.T) {
	res, err := WrapSentiment(stubSentiment{panic: true}).ClassifySentiment(context.Background(), "x")
	if err != nil {
		t.Fatalf("Expected panic to be absorbed, got %v", err)
	}
	assertNeutral(t, res)
}

func TestWrapAction(t *testing.T) {
	tests := []struct {
		name  string
		inner stubAction
		want  types.ActionLabel
	}{
		{"pass through", stubAction{label: types.ActionSell}, types.ActionSell},
		{"error", stubAction{label: types.ActionBuy, err: errors.New("timeout")}, types.ActionNeutral},
		{"panic", stubAction{panic: true}, types.ActionNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WrapAction(tt.inner).ClassifyAction(context.Background(), "x")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
