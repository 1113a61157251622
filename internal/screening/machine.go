package screening

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/talenthunt/screener/internal/interview"
	"github.com/talenthunt/screener/internal/match"
)

// exitKeywords short-circuit an active interview to the finished stage.
// They are checked before any stage-specific logic.
var exitKeywords = map[string]struct{}{
	"exit":    {},
	"quit":    {},
	"bye":     {},
	"goodbye": {},
}

// QuestionEngine generates interview questions. Implementations never fail:
// they degrade to deterministic fallback questions.
type QuestionEngine interface {
	InitialQuestions(ctx context.Context, resumeText, jdText string, n int) []string
	FollowUp(ctx context.Context, history []interview.Turn, lastAnswer string) string
}

// Scorer computes the resume/job match assessment.
type Scorer interface {
	Assess(ctx context.Context, resumeText, jdText string, threshold float64) (*match.Assessment, error)
}

// Summarizer judges the finished answer set; never fails.
type Summarizer interface {
	Summarize(ctx context.Context, answers []interview.Answer) string
}

// Extractor converts a resume document into plain text; never fails.
type Extractor interface {
	Text(path string) string
}

// RecordStore persists finished screenings.
type RecordStore interface {
	Save(ctx context.Context, rec *Record) (int64, error)
}

// Indexer optionally indexes the selected job description for future
// multi-role matching. Best effort.
type Indexer interface {
	Add(ctx context.Context, id, text string) error
}

// Catalog resolves a role name to its job-description text.
type Catalog interface {
	Get(role string) (string, bool)
	Roles() []string
}

// Deps aggregates the collaborators injected into the machine.
type Deps struct {
	Questions  QuestionEngine
	Scorer     Scorer
	Summarizer Summarizer
	Extractor  Extractor
	Store      RecordStore
	Index      Indexer
	Jobs       Catalog
	Logger     *zap.Logger
}

// Config carries the tunables of the screening flow.
type Config struct {
	// MatchThreshold gates the interview; a score below it blocks.
	MatchThreshold float64
	// InitialQuestions seeds the queue at interview start.
	InitialQuestions int
	// MaxQuestions bounds the interview length.
	MaxQuestions int
}

// DefaultConfig mirrors the flow's stock tuning.
func DefaultConfig() Config {
	return Config{
		MatchThreshold:   0.4,
		InitialQuestions: 3,
		MaxQuestions:     DefaultMaxQuestions,
	}
}

// Reply is the assistant-authored output of one transition.
type Reply struct {
	Messages []string
	// RecordID is set once the finished record has been persisted.
	RecordID int64
}

// ValidationError reports missing or invalid intake input. It is recovered
// by re-prompting; it never advances the stage.
type ValidationError struct {
	Missing []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("required fields missing: %s", strings.Join(e.Missing, ", "))
}

// StageError reports an input delivered to the wrong stage.
type StageError struct {
	Stage Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("input not accepted in stage %q", e.Stage)
}

// Machine drives a screening session through its stages. A session is
// mutated by exactly one transition at a time; independent sessions are
// fully isolated from each other.
type Machine struct {
	deps Deps
	cfg  Config
}

func NewMachine(deps Deps, cfg Config) *Machine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.MaxQuestions <= 0 {
		cfg.MaxQuestions = DefaultMaxQuestions
	}
	if cfg.InitialQuestions <= 0 {
		cfg.InitialQuestions = 3
	}
	return &Machine{deps: deps, cfg: cfg}
}

// NewSession creates a session sized for this machine's configuration.
func (m *Machine) NewSession() *Session {
	return NewSession(m.cfg.MaxQuestions)
}

// SubmitProfile handles the registration stage: one combined submission of
// all intake fields, each validated non-empty.
func (m *Machine) SubmitProfile(s *Session, p Profile) (*Reply, error) {
	if s.Stage != StageRegistration {
		return nil, &StageError{Stage: s.Stage}
	}

	if missing := p.Missing(); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	s.Profile = p
	s.Stage = StageResumeUpload

	m.deps.Logger.Info("registration complete",
		zap.String("session_id", s.ID),
		zap.String("candidate", p.FullName),
	)

	return &Reply{Messages: []string{
		fmt.Sprintf("Welcome, %s. Please select a role and upload your resume.", p.FullName),
	}}, nil
}

// SubmitResume handles the resume-upload stage: the candidate picks a role
// from the catalog and provides a resume document. The resume is extracted
// and scored against the job description; a passing score auto-advances
// through interview start into the active interview.
func (m *Machine) SubmitResume(ctx context.Context, s *Session, role, resumePath string) (*Reply, error) {
	if s.Stage != StageResumeUpload {
		return nil, &StageError{Stage: s.Stage}
	}

	jd, ok := m.deps.Jobs.Get(role)
	if !ok {
		return nil, &ValidationError{Message: fmt.Sprintf("unknown role %q; available roles: %s", role, strings.Join(m.deps.Jobs.Roles(), ", "))}
	}

	s.Role = role
	s.ResumeText = m.deps.Extractor.Text(resumePath)

	if m.deps.Index != nil {
		if err := m.deps.Index.Add(ctx, role, jd); err != nil {
			m.deps.Logger.Debug("indexing job description failed", zap.String("role", role), zap.Error(err))
		}
	}

	assessment, err := m.deps.Scorer.Assess(ctx, s.ResumeText, jd, m.cfg.MatchThreshold)
	if err != nil {
		// The embedding provider is down; block progression without
		// failing the session.
		m.deps.Logger.Warn("match scoring unavailable",
			zap.String("session_id", s.ID),
			zap.Error(err),
		)
		return &Reply{Messages: []string{
			"Your resume could not be scored right now. Please try again in a moment.",
		}}, nil
	}

	s.Assessment = assessment

	m.deps.Logger.Info("resume scored",
		zap.String("session_id", s.ID),
		zap.String("role", role),
		zap.Float64("score", assessment.Score),
		zap.Float64("threshold", assessment.Threshold),
		zap.Bool("passed", assessment.Passed),
	)

	if !assessment.Passed {
		return &Reply{Messages: []string{
			fmt.Sprintf("Resume match score: %.2f. Unfortunately, your profile does not meet the minimum requirements for %s. You may try another role or resume.", assessment.Score, role),
		}}, nil
	}

	reply := &Reply{Messages: []string{
		fmt.Sprintf("Resume screened successfully! Match score: %.2f.", assessment.Score),
	}}

	s.Stage = StageInterviewStart
	m.startInterview(ctx, s, jd, reply)

	return reply, nil
}

// startInterview is the zero-input transition out of StageInterviewStart:
// it seeds the question queue, opens the transcript with the greeting and
// the first question, and activates the interview.
func (m *Machine) startInterview(ctx context.Context, s *Session, jd string, reply *Reply) {
	s.Queue = m.deps.Questions.InitialQuestions(ctx, s.ResumeText, jd, m.cfg.InitialQuestions)

	// The greeting is a system turn: assistant/user roles alternate
	// strictly from the first question onward.
	greeting := fmt.Sprintf("Hello %s! I've reviewed your resume. Let's dive into your experience.", s.Profile.FullName)
	s.appendTurn(interview.RoleSystem, greeting)

	first, _ := s.dequeue()
	s.appendTurn(interview.RoleAssistant, first)
	s.Asked = 1

	s.Stage = StageInterviewActive

	m.deps.Logger.Info("interview started",
		zap.String("session_id", s.ID),
		zap.Int("queued_questions", len(s.Queue)),
		zap.Int("max_questions", s.MaxQuestions),
	)

	reply.Messages = append(reply.Messages, greeting, first)
}

// SubmitAnswer handles one turn of the active interview. The exit keywords
// are honored before anything else; otherwise the answer is recorded and
// either the next question is produced or the screening completes and the
// record is persisted. A persistence failure is surfaced as retryable: the
// next input retries the save without duplicating turns.
func (m *Machine) SubmitAnswer(ctx context.Context, s *Session, input string) (*Reply, error) {
	if s.Stage != StageInterviewActive {
		return nil, &StageError{Stage: s.Stage}
	}

	input = strings.TrimSpace(input)

	if s.pendingRecord != nil {
		return m.persist(ctx, s, s.pendingRecord, nil)
	}

	if input == "" {
		return nil, &ValidationError{Message: "please type an answer"}
	}

	if _, exit := exitKeywords[strings.ToLower(input)]; exit {
		s.appendTurn(interview.RoleUser, input)
		farewell := "You've chosen to end the session. Goodbye!"
		s.appendTurn(interview.RoleAssistant, farewell)
		s.Stage = StageFinished

		m.deps.Logger.Info("session aborted by exit keyword",
			zap.String("session_id", s.ID),
			zap.Int("questions_asked", s.Asked),
		)

		return &Reply{Messages: []string{farewell}}, nil
	}

	s.appendTurn(interview.RoleUser, input)

	if s.Asked >= s.MaxQuestions {
		sentiment := m.deps.Summarizer.Summarize(ctx, s.answers())
		record := s.buildRecord(sentiment)

		closing := "Thank you for your detailed responses. We have everything we need. Our team will be in touch!"
		return m.persist(ctx, s, record, []string{closing})
	}

	next, ok := s.dequeue()
	if !ok {
		next = m.deps.Questions.FollowUp(ctx, s.Conversation, input)
	}
	s.appendTurn(interview.RoleAssistant, next)
	s.Asked++

	return &Reply{Messages: []string{next}}, nil
}

// persist finishes the screening: the closing message (when present) joins
// the transcript before the save, so a retry does not re-append it.
func (m *Machine) persist(ctx context.Context, s *Session, record *Record, closing []string) (*Reply, error) {
	if len(closing) > 0 {
		for _, msg := range closing {
			s.appendTurn(interview.RoleAssistant, msg)
		}
		record.Transcript = append(record.Transcript, s.Conversation[len(s.Conversation)-len(closing):]...)
	}

	id, err := m.deps.Store.Save(ctx, record)
	if err != nil {
		s.pendingRecord = record
		m.deps.Logger.Error("saving candidate record failed",
			zap.String("session_id", s.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("saving candidate record (send any message to retry): %w", err)
	}

	s.pendingRecord = nil
	s.Stage = StageFinished

	m.deps.Logger.Info("screening complete",
		zap.String("session_id", s.ID),
		zap.Int64("record_id", id),
		zap.Int("transcript_turns", len(record.Transcript)),
	)

	reply := &Reply{RecordID: id}
	if len(closing) > 0 {
		reply.Messages = closing
	} else {
		reply.Messages = []string{"Your interview has been saved. Thank you!"}
	}
	return reply, nil
}

// Reset reinitializes a finished (or abandoned) session in place.
func (m *Machine) Reset(s *Session) *Reply {
	s.Reset()
	s.MaxQuestions = m.cfg.MaxQuestions

	return &Reply{Messages: []string{
		"Session reset. Let's start with your registration details.",
	}}
}
