package match

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/talenthunt/screener/internal/ai"
)

// Assessment is the outcome of scoring a resume against a job description.
// It is computed once per screening session.
type Assessment struct {
	Score     float64
	Threshold float64
	Passed    bool
}

// Service scores resume/job-description pairs by cosine similarity of their
// embeddings.
type Service struct {
	embedder ai.Embedder
	logger   *zap.Logger
}

func NewService(embedder ai.Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embedder: embedder, logger: logger}
}

// Score returns the semantic similarity of the two texts, clamped to [0,1].
// Either input empty yields 0.0 without a provider call. A provider failure
// is reported as ai.ErrProviderUnavailable; the caller decides the fallback.
func (s *Service) Score(ctx context.Context, resumeText, jdText string) (float64, error) {
	if strings.TrimSpace(resumeText) == "" || strings.TrimSpace(jdText) == "" {
		return 0, nil
	}

	resumeVec, err := s.embedder.Embed(ctx, resumeText)
	if err != nil {
		return 0, ai.Unavailable(fmt.Errorf("embedding resume: %w", err))
	}

	jdVec, err := s.embedder.Embed(ctx, jdText)
	if err != nil {
		return 0, ai.Unavailable(fmt.Errorf("embedding job description: %w", err))
	}

	score := cosine(resumeVec, jdVec)

	// Cosine of text embeddings can drift slightly outside [0,1]; negative
	// similarity carries no meaning for matching.
	score = math.Max(0, math.Min(1, score))

	s.logger.Debug("match score computed",
		zap.Float64("score", score),
		zap.Int("resume_chars", len(resumeText)),
		zap.Int("jd_chars", len(jdText)),
	)

	return score, nil
}

// Assess scores the pair and applies the threshold.
func (s *Service) Assess(ctx context.Context, resumeText, jdText string, threshold float64) (*Assessment, error) {
	score, err := s.Score(ctx, resumeText, jdText)
	if err != nil {
		return nil, err
	}

	return &Assessment{
		Score:     score,
		Threshold: threshold,
		Passed:    score >= threshold,
	}, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
