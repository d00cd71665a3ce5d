package classifier

import (
	"context"
	"strings"
	"unicode"

	"annual-report-analyzer/internal/interfaces"
	"annual-report-analyzer/internal/types"
)

// Financial tone word lists after Loughran-McDonald.
var positiveWords = wordSet(
	"achieve", "achieved", "attain", "benefit", "better", "competitive", "delight",
	"enhance", "enhanced", "excellent", "exceptional", "expanded", "favorable", "favourable",
	"gain", "gains", "good", "great", "grew", "growth", "improve", "improved",
	"improvement", "increasing", "innovation", "innovative", "leader",
	"leading", "opportunity", "optimal", "optimistic", "outperform",
	"positive", "profitable", "progress", "prosper", "record", "remarkable",
	"resilient", "robust", "solid", "strength", "strong", "succeed", "success",
	"successful", "superior", "surpass", "tremendous", "upbeat", "valuable",
	"winning",
)

var negativeWords = wordSet(
	"abandon", "adverse", "adversely", "challenge", "challenging", "concern", "concerns",
	"crisis", "damage", "decline", "declined", "decrease", "deficit", "deteriorate",
	"difficult", "difficulty", "disappoint", "disappointing", "disadvantage",
	"downturn", "erode", "fail", "failure", "falling", "fear", "headwind", "headwinds",
	"impair", "impairment", "inability", "inadequate", "ineffective",
	"loss", "losses", "negative", "obstacle", "poor", "problem", "qualified", "recession",
	"restructuring", "slow", "slowdown", "uncertain", "uncertainty",
	"underperform", "unfavorable", "unprofitable", "volatile",
	"volatility", "weak", "weakness", "worse", "worsen", "worst",
)

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// tokenize splits lower-cased text into letter/number runs
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// tone counts positive and negative words in text.
func tone(text string) (pos, neg int) {
	for _, w := range tokenize(text) {
		if positiveWords[w] {
			pos++
		}
		if negativeWords[w] {
			neg++
		}
	}
	return pos, neg
}

// LexiconLabeler labels a sentence by whichever word list it hits more often.
type LexiconLabeler struct{}

func (LexiconLabeler) LabelSentences(_ context.Context, sents []string) ([]string, error) {
	labels := make([]string, len(sents))
	for i, s := range sents {
		pos, neg := tone(s)
		switch {
		case pos > neg:
			labels[i] = types.SentimentPositive
		case neg > pos:
			labels[i] = types.SentimentNegative
		default:
			labels[i] = types.SentimentNeutral
		}
	}
	return labels, nil
}

var _ interfaces.ActionClassifier = (*LexiconActionClassifier)(nil)

// LexiconActionClassifier calls Buy or Sell when the net tone of the
// truncated text passes a threshold, Neutral otherwise.
type LexiconActionClassifier struct {
	maxWords  int
	threshold float64
}

func NewLexiconActionClassifier(maxWords int) *LexiconActionClassifier {
	return &LexiconActionClassifier{maxWords: maxWords, threshold: 0.2}
}

func (c *LexiconActionClassifier) ClassifyAction(_ context.Context, text string) (types.ActionLabel, error) {
	pos, neg := tone(TruncateWords(text, c.maxWords))
	if pos+neg == 0 {
		return types.ActionNeutral, nil
	}
	net := float64(pos-neg) / float64(pos+neg)
	switch {
	case net > c.threshold:
		return types.ActionBuy, nil
	case net < -c.threshold:
		return types.ActionSell, nil
	}
	return types.ActionNeutral, nil
}

// TruncateWords keeps at most n whitespace-separated words. n <= 0 keeps everything.
func TruncateWords(text string, n int) string {
	if n <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}
