package domain

import (
	"context"

	"github.com/marketdz/searchd/internal/domain/arabic"
)

// Keyword lexicons for the built-in scorer. Bilingual by necessity: listings
// mix Arabic and French freely, often inside a single sentence.
var (
	positiveWords = map[string]struct{}{
		// Arabic (pre-normalized forms)
		"ممتاز": {}, "جديد": {}, "رائع": {}, "نظيف": {}, "مضمون": {},
		"اصلي": {}, "جيد": {}, "مميز": {},
		// French
		"excellent": {}, "neuf": {}, "parfait": {}, "impeccable": {},
		"propre": {}, "garanti": {}, "original": {}, "bon": {},
		// English spillover common in tech listings
		"new": {}, "perfect": {}, "clean": {},
	}

	negativeWords = map[string]struct{}{
		// Arabic
		"مكسور": {}, "مستعمل": {}, "خربان": {}, "قديم": {}, "معطل": {},
		// French
		"casse": {}, "cassé": {}, "panne": {}, "abime": {}, "abimé": {},
		"defectueux": {}, "défectueux": {}, "vieux": {},
		// English
		"broken": {}, "damaged": {},
	}
)

// Quality heuristics.
const (
	qualityMinWords  = 5
	qualityGoodWords = 20
)

// KeywordScorer scores content with bilingual keyword lexicons. It is the
// default provider: deterministic, dependency-free, and always available.
type KeywordScorer struct{}

// NewKeywordScorer creates the built-in lexicon scorer.
func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{}
}

// ScoreContent implements ContentScorer.
func (s *KeywordScorer) ScoreContent(_ context.Context, texts []string) ([]ContentScores, error) {
	scores := make([]ContentScores, len(texts))
	for i, text := range texts {
		scores[i] = scoreText(text)
	}
	return scores, nil
}

// HealthCheck implements HealthChecker; the lexicon scorer has no dependencies.
func (s *KeywordScorer) HealthCheck(context.Context) error { return nil }

func scoreText(text string) ContentScores {
	tokens := arabic.Tokens(text)

	var pos, neg int
	for _, tok := range tokens {
		if _, ok := positiveWords[tok]; ok {
			pos++
		}
		if _, ok := negativeWords[tok]; ok {
			neg++
		}
	}

	return ContentScores{
		Quality:   qualityScore(len(tokens)),
		Sentiment: sentimentScore(pos, neg),
	}
}

// qualityScore grows with text length: terse listings score low, anything
// at or beyond qualityGoodWords scores full.
func qualityScore(words int) float64 {
	switch {
	case words == 0:
		return 0
	case words < qualityMinWords:
		return 0.3
	case words >= qualityGoodWords:
		return 1
	default:
		return 0.3 + 0.7*float64(words-qualityMinWords)/float64(qualityGoodWords-qualityMinWords)
	}
}

// sentimentScore maps the positive/negative hit balance into [0,1] with 0.5
// neutral.
func sentimentScore(pos, neg int) float64 {
	if pos == 0 && neg == 0 {
		return 0.5
	}
	balance := float64(pos-neg) / float64(pos+neg)
	return 0.5 + 0.5*balance
}
