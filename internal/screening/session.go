package screening

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talenthunt/screener/internal/interview"
	"github.com/talenthunt/screener/internal/match"
)

// Stage is the screening session's position in the flow. Transitions are
// linear; a failed match keeps the session at StageResumeUpload.
type Stage string

const (
	StageRegistration    Stage = "registration"
	StageResumeUpload    Stage = "resume_upload"
	StageInterviewStart  Stage = "interview_start"
	StageInterviewActive Stage = "interview_active"
	StageFinished        Stage = "finished"
)

// DefaultMaxQuestions bounds how many questions an interview asks.
const DefaultMaxQuestions = 5

// Profile holds the structured intake fields. Every field is required and
// must be non-empty before the session may leave registration.
type Profile struct {
	FullName         string
	Email            string
	Phone            string
	YearsExperience  string
	DesiredPositions string
	Location         string
	TechStack        string
}

// requiredFields fixes the intake order; interactive collection must ask in
// exactly this order.
var requiredFields = []struct {
	label string
	value func(*Profile) string
}{
	{"Full Name", func(p *Profile) string { return p.FullName }},
	{"Email Address", func(p *Profile) string { return p.Email }},
	{"Phone Number", func(p *Profile) string { return p.Phone }},
	{"Years of Experience", func(p *Profile) string { return p.YearsExperience }},
	{"Desired Position(s)", func(p *Profile) string { return p.DesiredPositions }},
	{"Current Location", func(p *Profile) string { return p.Location }},
	{"Tech Stack", func(p *Profile) string { return p.TechStack }},
}

// FieldLabels lists the intake field labels in collection order.
func FieldLabels() []string {
	labels := make([]string, len(requiredFields))
	for i, f := range requiredFields {
		labels[i] = f.label
	}
	return labels
}

// Missing returns labels of required fields that are empty, in intake order.
func (p *Profile) Missing() []string {
	var missing []string
	for _, f := range requiredFields {
		if strings.TrimSpace(f.value(p)) == "" {
			missing = append(missing, f.label)
		}
	}
	return missing
}

// Session is the aggregate root of one screening. It is owned by the
// caller, mutated only by the Machine, and never shared across goroutines.
type Session struct {
	ID           string
	Stage        Stage
	Profile      Profile
	Role         string
	ResumeText   string
	Assessment   *match.Assessment
	Conversation []interview.Turn
	Queue        []string
	Asked        int
	MaxQuestions int

	// pendingRecord holds an assembled record whose save failed, so the
	// next input retries instead of duplicating turns.
	pendingRecord *Record
}

// NewSession creates a fresh session at the registration stage.
func NewSession(maxQuestions int) *Session {
	if maxQuestions <= 0 {
		maxQuestions = DefaultMaxQuestions
	}
	return &Session{
		ID:           uuid.NewString(),
		Stage:        StageRegistration,
		MaxQuestions: maxQuestions,
	}
}

// Reset reinitializes the session in place: all fields cleared, a new
// identity, stage back to registration.
func (s *Session) Reset() {
	*s = *NewSession(s.MaxQuestions)
}

func (s *Session) appendTurn(role, content string) {
	s.Conversation = append(s.Conversation, interview.Turn{Role: role, Content: content})
}

func (s *Session) dequeue() (string, bool) {
	if len(s.Queue) == 0 {
		return "", false
	}
	q := s.Queue[0]
	s.Queue = s.Queue[1:]
	return q, true
}

// answers pairs every asked question with the answer that followed it,
// skipping the greeting and the closing message.
func (s *Session) answers() []interview.Answer {
	var out []interview.Answer
	for i := 1; i < len(s.Conversation)-1; i++ {
		if s.Conversation[i].Role != interview.RoleAssistant {
			continue
		}
		if s.Conversation[i+1].Role == interview.RoleUser {
			out = append(out, interview.Answer{
				Question: s.Conversation[i].Content,
				Answer:   s.Conversation[i+1].Content,
			})
		}
	}
	return out
}

// Record is the persisted, write-once form of a finished screening.
type Record struct {
	ID               int64
	SessionID        string
	FullName         string
	Email            string
	Phone            string
	YearsExperience  string
	DesiredPositions string
	Location         string
	TechStack        string
	ResumeText       string
	MatchScore       float64
	TechnicalAnswers []interview.Answer
	Transcript       []interview.Turn
	Sentiment        string
	SubmittedAt      time.Time
}

func (s *Session) buildRecord(sentiment string) *Record {
	matchScore := 0.0
	if s.Assessment != nil {
		matchScore = s.Assessment.Score
	}

	positions := s.Role
	if positions == "" {
		positions = s.Profile.DesiredPositions
	}

	transcript := make([]interview.Turn, len(s.Conversation))
	copy(transcript, s.Conversation)

	return &Record{
		SessionID:        s.ID,
		FullName:         s.Profile.FullName,
		Email:            s.Profile.Email,
		Phone:            s.Profile.Phone,
		YearsExperience:  s.Profile.YearsExperience,
		DesiredPositions: positions,
		Location:         s.Profile.Location,
		TechStack:        s.Profile.TechStack,
		ResumeText:       s.ResumeText,
		MatchScore:       matchScore,
		TechnicalAnswers: s.answers(),
		Transcript:       transcript,
		Sentiment:        sentiment,
	}
}
