package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/genai"

	"annual-report-analyzer/internal/interfaces"
	"annual-report-analyzer/internal/logger"
	"annual-report-analyzer/internal/types"
)

// Completer returns the model's text reply for one prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ClaudeCompleter calls the Anthropic Messages API.
type ClaudeCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewClaudeCompleter(apiKey, model string, maxTokens int) *ClaudeCompleter {
	return &ClaudeCompleter{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

func (c *ClaudeCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	logger.Debug(ctx, "Claude response received", "model", c.model, "latency_ms", time.Since(start).Milliseconds(), "chars", sb.Len())
	return sb.String(), nil
}

// GeminiCompleter calls the Gemini API through the genai client.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiCompleter{client: client, model: model}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(float32(0))}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	logger.Debug(ctx, "Gemini response received", "model", g.model, "latency_ms", time.Since(start).Milliseconds(), "chars", len(text))
	return text, nil
}

const sentimentSystem = "You label sentences from company annual reports. " +
	"Reply with a JSON array of strings, one per input sentence, each exactly positive, negative or neutral."

const actionSystem = "You are an equity analyst reading an excerpt of a company annual report. " +
	"Reply with exactly one word: Buy, Sell or Neutral."

// defaultBatchSize bounds how many sentences go into one labelling request.
const defaultBatchSize = 25

// LLMLabeler labels sentences in batches through a Completer.
type LLMLabeler struct {
	completer Completer
	batchSize int
}

func NewLLMLabeler(completer Completer) *LLMLabeler {
	return &LLMLabeler{completer: completer, batchSize: defaultBatchSize}
}

func (l *LLMLabeler) LabelSentences(ctx context.Context, sents []string) ([]string, error) {
	labels := make([]string, 0, len(sents))
	for start := 0; start < len(sents); start += l.batchSize {
		end := min(start+l.batchSize, len(sents))
		batch, err := l.labelBatch(ctx, sents[start:end])
		if err != nil {
			return nil, err
		}
		labels = append(labels, batch...)
	}
	return labels, nil
}

func (l *LLMLabeler) labelBatch(ctx context.Context, batch []string) ([]string, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, err
	}
	reply, err := l.completer.Complete(ctx, sentimentSystem,
		fmt.Sprintf("Sentences:\n%s\n\nRespond ONLY with the JSON array of %d labels.", payload, len(batch)))
	if err != nil {
		return nil, err
	}

	labels, err := parseLabels(reply)
	if err != nil {
		return nil, err
	}
	if len(labels) != len(batch) {
		return nil, fmt.Errorf("expected %d labels, got %d", len(batch), len(labels))
	}
	for i, label := range labels {
		labels[i] = normalizeLabel(strings.ToLower(strings.TrimSpace(label)))
	}
	return labels, nil
}

var errNoJSONArray = errors.New("no JSON array in model reply")

// parseLabels finds the first [...] span in reply and decodes it.
func parseLabels(reply string) ([]string, error) {
	t := strings.TrimSpace(reply)
	start := strings.Index(t, "[")
	end := strings.LastIndex(t, "]")
	if start < 0 || end <= start {
		return nil, errNoJSONArray
	}
	var labels []string
	if err := json.Unmarshal([]byte(t[start:end+1]), &labels); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	return labels, nil
}

var _ interfaces.ActionClassifier = (*LLMActionClassifier)(nil)

// LLMActionClassifier asks the model for a single Buy/Sell/Neutral word.
type LLMActionClassifier struct {
	completer Completer
	maxWords  int
}

func NewLLMActionClassifier(completer Completer, maxWords int) *LLMActionClassifier {
	return &LLMActionClassifier{completer: completer, maxWords: maxWords}
}

func (c *LLMActionClassifier) ClassifyAction(ctx context.Context, text string) (types.ActionLabel, error) {
	reply, err := c.completer.Complete(ctx, actionSystem, TruncateWords(text, c.maxWords))
	if err != nil {
		return types.ActionNeutral, err
	}
	return parseAction(reply), nil
}

// parseAction reads the first word of reply, ignoring case and punctuation.
func parseAction(reply string) types.ActionLabel {
	fields := strings.Fields(reply)
	if len(fields) == 0 {
		return types.ActionNeutral
	}
	word := strings.Trim(fields[0], ".,!:;\"'`*")
	if word == "" {
		return types.ActionNeutral
	}
	return types.ParseActionLabel(strings.ToUpper(word[:1]) + strings.ToLower(word[1:]))
}
