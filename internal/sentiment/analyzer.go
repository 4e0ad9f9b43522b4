package sentiment

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"kindred/pkg/apperr"
	"kindred/pkg/logger"
)

// Analyzer extracts topics and their polarity from free-form entry text
type Analyzer interface {
	AnalyzeText(ctx context.Context, content string) ([]TopicSentiment, error)
}

// LLMAnalyzer talks to an OpenAI-compatible endpoint (LiteLLM in front of
// whichever model is configured) to perform the extraction
type LLMAnalyzer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewLLMAnalyzer creates an analyzer against the given base URL and model
func NewLLMAnalyzer(baseURL, apiKey, modelID string) *LLMAnalyzer {
	// LiteLLM accepts a dummy key when none is configured
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL + "/v1"

	return &LLMAnalyzer{
		client: openai.NewClientWithConfig(config),
		model:  modelID,
		logger: logger.Get(),
	}
}

const extractionPrompt = `You extract topics from journal entries.
Given an entry, identify the main topics (single lowercase keywords) and the
sentiment the author expresses about each: "positive", "negative" or "neutral".
Respond with ONLY a JSON array, no prose, e.g.:
[{"keyword":"work","sentiment":"negative"},{"keyword":"running","sentiment":"positive"}]`

// AnalyzeText extracts (keyword, sentiment) pairs from entry content
func (a *LLMAnalyzer) AnalyzeText(ctx context.Context, content string) ([]TopicSentiment, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionPrompt},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
		Temperature: 0.1,
	}

	// Retry logic with linear backoff, matching the rest of our LLM calls
	var resp openai.ChatCompletionResponse
	var err error
	maxRetries := 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			a.logger.Warn("Retrying sentiment extraction",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			time.Sleep(backoff)
		}

		resp, err = a.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}

		a.logger.Error("Sentiment extraction request failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.String("model", a.model),
		)
	}

	if err != nil {
		return nil, apperr.NewAnalysisFailed(a.model, maxRetries, err)
	}

	if len(resp.Choices) == 0 {
		return nil, apperr.NewAnalysisFailed(a.model, 1, nil)
	}

	topics, err := parseExtraction(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, apperr.NewAnalysisFailed(a.model, 1, err)
	}

	a.logger.Debug("Sentiment extraction complete",
		zap.String("model", a.model),
		zap.Int("topics", len(topics)),
	)

	return topics, nil
}

// rawTopic is the wire shape the model is asked to produce
type rawTopic struct {
	Keyword   string `json:"keyword"`
	Sentiment string `json:"sentiment"`
}

// parseExtraction parses the model response into normalized topic pairs.
// Models occasionally wrap the JSON in a markdown fence; strip it before
// unmarshalling. Entries with unknown polarity markers or empty keywords
// are dropped rather than failing the whole extraction.
func parseExtraction(response string) ([]TopicSentiment, error) {
	cleaned := strings.TrimSpace(response)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	var raw []rawTopic
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, err
	}

	topics := make([]TopicSentiment, 0, len(raw))
	for _, rt := range raw {
		keyword := NormalizeKeyword(rt.Keyword)
		if keyword == "" {
			continue
		}
		polarity, ok := Parse(rt.Sentiment)
		if !ok {
			continue
		}
		topics = append(topics, TopicSentiment{Keyword: keyword, Sentiment: polarity})
	}

	return topics, nil
}
