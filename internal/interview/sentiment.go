package interview

import (
	"context"
	"encoding/json"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/talenthunt/screener/internal/ai"
)

//go:embed sentiment.md
var sentimentTemplate string

// fallbackSentiment is stored when the provider cannot judge the answers.
// Record persistence never waits on a working provider.
const fallbackSentiment = "Sentiment analysis unavailable."

// Summarizer produces a one-sentence confidence/competence judgment from
// the full question/answer set of an interview.
type Summarizer struct {
	provider ai.ChatProvider
	log      *zap.Logger
}

func NewSummarizer(provider ai.ChatProvider, log *zap.Logger) *Summarizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Summarizer{provider: provider, log: log}
}

// Summarize judges the answer set. It always returns a non-empty string.
func (s *Summarizer) Summarize(ctx context.Context, answers []Answer) string {
	if len(answers) == 0 {
		return fallbackSentiment
	}

	payload, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		return fallbackSentiment
	}

	prompt := strings.ReplaceAll(sentimentTemplate, "{{ANSWERS}}", string(payload))

	raw, err := s.provider.GenerateContent(ctx, prompt)
	if err != nil {
		s.log.Warn("sentiment analysis failed, storing fallback", zap.Error(err))
		return fallbackSentiment
	}

	summary := strings.TrimSpace(raw)
	if summary == "" {
		return fallbackSentiment
	}

	return summary
}
