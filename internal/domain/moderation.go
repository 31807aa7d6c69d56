package domain

import "context"

// ContentScores carries per-text moderation signals, each in [0,1].
// Quality reflects how complete and well-formed the text is; Sentiment
// reflects its tone (0 negative, 0.5 neutral, 1 positive).
type ContentScores struct {
	Quality   float64
	Sentiment float64
}

// ContentScorer is the shared content moderation contract between layers.
// Implementations score texts positionally: result[i] belongs to texts[i].
type ContentScorer interface {
	ScoreContent(ctx context.Context, texts []string) ([]ContentScores, error)
}

// HealthChecker verifies scoring provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
