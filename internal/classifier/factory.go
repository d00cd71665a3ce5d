package classifier

import (
	"context"
	"fmt"
	"os"

	"annual-report-analyzer/internal/interfaces"
	"annual-report-analyzer/internal/store"
)

// New builds the sentiment and action classifiers named by cfg.Classifier.Provider.
func New(ctx context.Context, cfg *store.Config) (interfaces.SentimentClassifier, interfaces.ActionClassifier, error) {
	var completer Completer
	switch cfg.Classifier.Provider {
	case "CLAUDE", "GEMINI":
		apiKey := os.Getenv(cfg.Classifier.APIKeyEnv)
		if apiKey == "" {
			return nil, nil, fmt.Errorf("%s missing", cfg.Classifier.APIKeyEnv)
		}
		if cfg.Classifier.Provider == "CLAUDE" {
			completer = NewClaudeCompleter(apiKey, cfg.Classifier.Model, cfg.Classifier.MaxTokens)
		} else {
			gc, err := NewGeminiCompleter(ctx, apiKey, cfg.Classifier.Model)
			if err != nil {
				return nil, nil, err
			}
			completer = gc
		}
	default:
		return NewSentimentAnalyzer(LexiconLabeler{}), NewLexiconActionClassifier(cfg.Classifier.ActionMaxWords), nil
	}
	return NewSentimentAnalyzer(NewLLMLabeler(completer)), NewLLMActionClassifier(completer, cfg.Classifier.ActionMaxWords), nil
}
