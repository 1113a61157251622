package interview

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/talenthunt/screener/internal/ai"
	"github.com/talenthunt/screener/internal/logger"
)

//go:embed initial_questions.md
var initialQuestionsTemplate string

//go:embed follow_up.md
var followUpTemplate string

const (
	// fallbackProbe is returned when follow-up generation fails; it keeps
	// the interview moving without revealing the provider outage.
	fallbackProbe = "Could you elaborate on that?"

	// historyWindow bounds how many trailing turns are sent for follow-up
	// generation, keeping provider calls bounded regardless of interview
	// length.
	historyWindow = 4

	// promptInputLimit caps resume and job-description text inside prompts.
	promptInputLimit = 2000

	defaultMaxLogLength = 200
)

// defaultQuestions is the bank used to top up question lists when the
// provider's output cannot be parsed or comes up short.
var defaultQuestions = []string{
	"Tell me about your most challenging project.",
	"How do you handle deadlines?",
	"Describe a complex bug you have debugged.",
	"How do you keep your technical skills current?",
}

// Engine generates interview questions through a chat provider. Every
// operation has a deterministic fallback: a provider outage degrades
// question quality, it never breaks the screening flow.
type Engine struct {
	provider  ai.ChatProvider
	log       *zap.Logger
	maxLogLen int
}

func NewEngine(provider ai.ChatProvider, log *zap.Logger, maxLogLength int) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Engine{provider: provider, log: log, maxLogLen: maxLogLength}
}

// InitialQuestions asks the provider for exactly n questions probing the
// gaps between resume and job description. It always returns exactly n
// non-empty questions: a JSON array is preferred, then any lines containing
// a question mark, and finally the built-in bank tops up whatever is
// missing.
func (e *Engine) InitialQuestions(ctx context.Context, resumeText, jdText string, n int) []string {
	if n <= 0 {
		return nil
	}

	prompt := strings.NewReplacer(
		"{{JOB_DESCRIPTION}}", clip(jdText, promptInputLimit),
		"{{RESUME}}", clip(resumeText, promptInputLimit),
		"{{COUNT}}", strconv.Itoa(n),
	).Replace(initialQuestionsTemplate)

	raw, err := e.provider.GenerateContent(ctx, prompt)
	if err != nil {
		e.log.Warn("initial question generation failed, using defaults", zap.Error(err))
		return topUp(nil, n)
	}

	e.log.Debug("initial questions response",
		zap.String("model", e.provider.Model()),
		zap.String("preview", logger.TruncateForLog(raw, e.maxLogLen)),
	)

	questions := parseQuestionList(raw)
	if len(questions) == 0 {
		e.log.Warn("initial question response unparseable, using defaults",
			zap.String("preview", logger.TruncateForLog(raw, e.maxLogLen)),
		)
	}

	return topUp(questions, n)
}

// FollowUp generates the next question from the trailing conversation and
// the candidate's latest answer. Any provider failure yields a fixed probe.
func (e *Engine) FollowUp(ctx context.Context, history []Turn, lastAnswer string) string {
	window := history
	if len(window) > historyWindow {
		window = window[len(window)-historyWindow:]
	}

	var conversation strings.Builder
	for _, turn := range window {
		fmt.Fprintf(&conversation, "%s: %s\n", turn.Role, turn.Content)
	}

	prompt := strings.NewReplacer(
		"{{CONVERSATION}}", strings.TrimRight(conversation.String(), "\n"),
		"{{LAST_ANSWER}}", strings.TrimSpace(lastAnswer),
	).Replace(followUpTemplate)

	raw, err := e.provider.GenerateContent(ctx, prompt)
	if err != nil {
		e.log.Warn("follow-up generation failed, using fallback probe", zap.Error(err))
		return fallbackProbe
	}

	question := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"`))
	if question == "" {
		return fallbackProbe
	}

	e.log.Debug("follow-up generated",
		zap.String("model", e.provider.Model()),
		zap.String("preview", logger.TruncateForLog(question, e.maxLogLen)),
	)

	return question
}

func clip(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// topUp pads the list to exactly n entries from the default bank, skipping
// ones already present, and truncates overlong lists. The bank cycles if n
// exceeds everything available.
func topUp(questions []string, n int) []string {
	out := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
		if len(out) == n {
			return out
		}
	}

	for _, q := range defaultQuestions {
		if len(out) == n {
			return out
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}

	for i := 0; len(out) < n; i++ {
		out = append(out, defaultQuestions[i%len(defaultQuestions)])
	}

	return out
}
