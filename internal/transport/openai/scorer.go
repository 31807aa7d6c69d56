package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/marketdz/searchd/internal/domain"
	"github.com/marketdz/searchd/internal/metrics"
)

const systemPrompt = `You score classified-ad texts written in Arabic, French or both.
For each numbered text return a quality score (0=spam or empty, 1=complete and informative)
and a sentiment score (0=negative, 0.5=neutral, 1=positive).
Respond with JSON only: {"scores":[{"quality":0.8,"sentiment":0.5}, ...]}, one entry per text, in order.`

// Scorer is a content scoring provider using the OpenAI-compatible chat API.
type Scorer struct {
	client   *openai.Client
	model    string
	user     string
	provider string
	logger   *zap.Logger
}

// Config holds the scoring provider settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	User     string
	Provider string
	Logger   *zap.Logger
}

// NewScorer creates an OpenAI-compatible content scoring provider.
func NewScorer(cfg *Config) *Scorer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Scorer{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		user:     cfg.User,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// ScoreContent implements domain.ContentScorer with transport-level metrics.
func (s *Scorer) ScoreContent(ctx context.Context, texts []string) ([]domain.ContentScores, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: numberTexts(texts)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		User: s.user,
	}

	start := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.ScoringRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		metrics.ScoringErrorsTotal.WithLabelValues(s.provider, s.model, "api_error").Inc()
		return nil, parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.ScoringRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		metrics.ScoringErrorsTotal.WithLabelValues(s.provider, s.model, "empty_response").Inc()
		return nil, fmt.Errorf("empty scoring response: %w", domain.ErrScorerUnavailable)
	}

	scores, err := parseScores(resp.Choices[0].Message.Content, len(texts))
	if err != nil {
		metrics.ScoringRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		metrics.ScoringErrorsTotal.WithLabelValues(s.provider, s.model, "bad_payload").Inc()
		return nil, err
	}

	metrics.ScoringRequestsTotal.WithLabelValues(s.provider, s.model, "success").Inc()
	metrics.ScoringRequestDuration.WithLabelValues(s.provider, s.model).Observe(duration.Seconds())

	return scores, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (s *Scorer) HealthCheck(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func numberTexts(texts []string) string {
	var b strings.Builder
	for i, t := range texts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	return b.String()
}

// parseScores decodes the model reply and clamps each score into [0,1].
func parseScores(content string, want int) ([]domain.ContentScores, error) {
	var parsed struct {
		Scores []struct {
			Quality   float64 `json:"quality"`
			Sentiment float64 `json:"sentiment"`
		} `json:"scores"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("decode scoring response: %w: %w", err, domain.ErrScorerUnavailable)
	}
	if len(parsed.Scores) != want {
		return nil, fmt.Errorf("scoring response has %d entries, want %d: %w",
			len(parsed.Scores), want, domain.ErrScorerUnavailable)
	}

	scores := make([]domain.ContentScores, want)
	for i, s := range parsed.Scores {
		scores[i] = domain.ContentScores{
			Quality:   clamp01(s.Quality),
			Sentiment: clamp01(s.Sentiment),
		}
	}
	return scores, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrScorerUnavailable for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrScorerUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("scoring API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("scoring API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("scoring API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("scoring request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
