package classifier

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"annual-report-analyzer/internal/store"
	"annual-report-analyzer/internal/types"
)

func TestSegmenterSplit(t *testing.T) {
	sents, err := NewSegmenter().Split("Revenue grew by 12 percent. Margins improved. Debt fell.")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(sents) != 3 {
		t.Fatalf("Expected 3 sentences, got %d: %q", len(sents), sents)
	}
	if sents[1] != "Margins improved." {
		t.Errorf("Expected second sentence %q, got %q", "Margins improved.", sents[1])
	}
}

func TestSegmenterBlank(t *testing.T) {
	sents, err := NewSegmenter().Split("   \n\t")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(sents) != 0 {
		t.Errorf("Expected no sentences, got %q", sents)
	}
}

func TestLexiconLabeler(t *testing.T) {
	tests := []struct {
		sentence string
		want     string
	}{
		{"Revenue growth was strong this year.", types.SentimentPositive},
		{"Losses in the export segment remain a concern.", types.SentimentNegative},
		{"The board met four times.", types.SentimentNeutral},
		{"Strong demand offset weak pricing.", types.SentimentNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.sentence, func(t *testing.T) {
			labels, err := LexiconLabeler{}.LabelSentences(context.Background(), []string{tt.sentence})
			if err != nil {
				t.Fatalf("LabelSentences: %v", err)
			}
			if labels[0] != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, labels[0])
			}
		})
	}
}

func TestClassifySentimentDistribution(t *testing.T) {
	a := NewSentimentAnalyzer(LexiconLabeler{})
	text := "Revenue growth was strong this year. Margins improved across segments. Losses in the export segment remain a concern."

	res, err := a.ClassifySentiment(context.Background(), text)
	if err != nil {
		t.Fatalf("ClassifySentiment: %v", err)
	}

	want := map[string]float64{
		types.SentimentPositive: 66.67,
		types.SentimentNegative: 33.33,
		types.SentimentNeutral:  0,
	}
	for label, pct := range want {
		if res.Percentages[label] != pct {
			t.Errorf("%s: expected %.2f, got %.2f", label, pct, res.Percentages[label])
		}
	}
	if len(res.Insights[types.SentimentPositive]) != 2 || res.Insights[types.SentimentPositive][0] != "Revenue growth was strong this year." {
		t.Errorf("Unexpected positive insights %q", res.Insights[types.SentimentPositive])
	}
	if len(res.Insights[types.SentimentNegative]) != 1 {
		t.Errorf("Expected 1 negative insight, got %d", len(res.Insights[types.SentimentNegative]))
	}
}

func TestClassifySentimentEmpty(t *testing.T) {
	res, err := NewSentimentAnalyzer(LexiconLabeler{}).ClassifySentiment(context.Background(), "")
	if err != nil {
		t.Fatalf("ClassifySentiment: %v", err)
	}
	for _, label := range types.SentimentLabels {
		if res.Percentages[label] != 0 {
			t.Errorf("%s: expected 0, got %.2f", label, res.Percentages[label])
		}
		if len(res.Insights[label]) != 0 {
			t.Errorf("%s: expected no insights, got %q", label, res.Insights[label])
		}
	}
}

func TestTallyPercentagesSum(t *testing.T) {
	labelSets := [][]string{
		{"positive"},
		{"positive", "negative", "neutral"},
		{"positive", "positive", "negative", "neutral", "neutral", "neutral", "negative"},
		{"negative", "unknown"},
	}
	for _, labels := range labelSets {
		sents := make([]string, len(labels))
		for i := range sents {
			sents[i] = strings.Repeat("x", i+1)
		}
		res := Tally(sents, labels)

		var sum float64
		for _, label := range types.SentimentLabels {
			sum += res.Percentages[label]
		}
		if math.Abs(sum-100) > 0.011 {
			t.Errorf("labels %v: expected percentages to sum to 100, got %.4f", labels, sum)
		}
	}
}

func TestTallyUnknownLabelIsNeutral(t *testing.T) {
	res := Tally([]string{"a", "b"}, []string{"negative", "mixed"})
	if res.Percentages[types.SentimentNeutral] != 50 {
		t.Errorf("Expected neutral 50, got %.2f", res.Percentages[types.SentimentNeutral])
	}
}

func TestLexiconActionClassifier(t *testing.T) {
	c := NewLexiconActionClassifier(512)
	tests := []struct {
		name string
		text string
		want types.ActionLabel
	}{
		{"positive", "Strong growth and improved margins.", types.ActionBuy},
		{"negative", "Losses widened amid weak demand and adverse currency.", types.ActionSell},
		{"balanced", "Strong exports but weak domestic sales.", types.ActionNeutral},
		{"no tone", "The meeting was held in Mumbai.", types.ActionNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ClassifyAction(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("ClassifyAction: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestLexiconActionTruncates(t *testing.T) {
	c := NewLexiconActionClassifier(3)
	got, _ := c.ClassifyAction(context.Background(), "steady steady steady losses losses losses")
	if got != types.ActionNeutral {
		t.Errorf("Expected words past the limit to be ignored, got %s", got)
	}
}

func TestTruncateWords(t *testing.T) {
	if got := TruncateWords("a  b c d", 2); got != "a b" {
		t.Errorf("Expected %q, got %q", "a b", got)
	}
	if got := TruncateWords("a b", 0); got != "a b" {
		t.Errorf("Expected text unchanged, got %q", got)
	}
}

type fakeCompleter struct {
	replies []string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func TestLLMLabelerBatches(t *testing.T) {
	fc := &fakeCompleter{replies: []string{
		"```json\n[\"positive\", \"Negative\"]\n```",
		`["neutral"]`,
	}}
	l := NewLLMLabeler(fc)
	l.batchSize = 2

	labels, err := l.LabelSentences(context.Background(), []string{"a.", "b.", "c."})
	if err != nil {
		t.Fatalf("LabelSentences: %v", err)
	}
	want := []string{"positive", "negative", "neutral"}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("label %d: expected %s, got %s", i, want[i], labels[i])
		}
	}
	if len(fc.prompts) != 2 {
		t.Errorf("Expected 2 requests, got %d", len(fc.prompts))
	}
}

func TestLLMLabelerCountMismatch(t *testing.T) {
	l := NewLLMLabeler(&fakeCompleter{replies: []string{`["positive"]`}})
	if _, err := l.LabelSentences(context.Background(), []string{"a.", "b."}); err == nil {
		t.Error("Expected error for label count mismatch")
	}
}

func TestLLMLabelerNoArray(t *testing.T) {
	l := NewLLMLabeler(&fakeCompleter{replies: []string{"I cannot help with that"}})
	if _, err := l.LabelSentences(context.Background(), []string{"a."}); !errors.Is(err, errNoJSONArray) {
		t.Errorf("Expected errNoJSONArray, got %v", err)
	}
}

func TestLLMActionClassifier(t *testing.T) {
	tests := []struct {
		reply string
		want  types.ActionLabel
	}{
		{"Buy", types.ActionBuy},
		{"sell.", types.ActionSell},
		{"**Neutral**", types.ActionNeutral},
		{"Hold", types.ActionNeutral},
		{"", types.ActionNeutral},
	}
	for _, tt := range tests {
		c := NewLLMActionClassifier(&fakeCompleter{replies: []string{tt.reply}}, 4)
		got, err := c.ClassifyAction(context.Background(), "one two three four five six")
		if err != nil {
			t.Fatalf("ClassifyAction(%q): %v", tt.reply, err)
		}
		if got != tt.want {
			t.Errorf("reply %q: expected %s, got %s", tt.reply, tt.want, got)
		}
	}
}

func TestLLMActionClassifierTruncatesPrompt(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"Buy"}}
	c := NewLLMActionClassifier(fc, 2)
	c.ClassifyAction(context.Background(), "one two three")
	if fc.prompts[0] != "one two" {
		t.Errorf("Expected truncated prompt %q, got %q", "one two", fc.prompts[0])
	}
}

func TestFactoryProviders(t *testing.T) {
	cfg := store.Default()
	if _, _, err := New(context.Background(), cfg); err != nil {
		t.Fatalf("lexicon provider: %v", err)
	}

	cfg.Classifier.Provider = "CLAUDE"
	cfg.Classifier.Model = "claude-sonnet-4-5"
	cfg.Classifier.APIKeyEnv = "ARA_TEST_MISSING_KEY"
	t.Setenv("ARA_TEST_MISSING_KEY", "")
	if _, _, err := New(context.Background(), cfg); err == nil {
		t.Error("Expected error when API key is missing")
	}

	t.Setenv("ARA_TEST_MISSING_KEY", "sk-test")
	sent, act, err := New(context.Background(), cfg)
	if err != nil || sent == nil || act == nil {
		t.Errorf("Expected claude classifiers, got %v", err)
	}
}
