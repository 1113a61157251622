package screening

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/talenthunt/screener/internal/interview"
	"github.com/talenthunt/screener/internal/match"
)

type stubQuestions struct {
	initial       []string
	followUpCalls int
}

func (q *stubQuestions) InitialQuestions(_ context.Context, _, _ string, n int) []string {
	out := make([]string, 0, n)
	out = append(out, q.initial...)
	for i := len(out); i < n; i++ {
		out = append(out, fmt.Sprintf("Generated question %d?", i+1))
	}
	return out[:n]
}

func (q *stubQuestions) FollowUp(_ context.Context, _ []interview.Turn, _ string) string {
	q.followUpCalls++
	return fmt.Sprintf("Follow-up %d?", q.followUpCalls)
}

type stubScorer struct {
	score float64
	err   error
	calls int
}

func (s *stubScorer) Assess(_ context.Context, resumeText, jdText string, threshold float64) (*match.Assessment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	score := s.score
	if strings.TrimSpace(resumeText) == "" || strings.TrimSpace(jdText) == "" {
		score = 0
	}
	return &match.Assessment{Score: score, Threshold: threshold, Passed: score >= threshold}, nil
}

type stubSummarizer struct{ summary string }

func (s *stubSummarizer) Summarize(_ context.Context, answers []interview.Answer) string {
	if s.summary != "" {
		return s.summary
	}
	return fmt.Sprintf("Candidate answered %d questions confidently.", len(answers))
}

type stubExtractor struct{ text string }

func (e *stubExtractor) Text(string) string { return e.text }

type stubStore struct {
	records []*Record
	err     error
}

func (st *stubStore) Save(_ context.Context, rec *Record) (int64, error) {
	if st.err != nil {
		return 0, st.err
	}
	st.records = append(st.records, rec)
	return int64(len(st.records)), nil
}

type stubCatalog struct{ jobs map[string]string }

func (c *stubCatalog) Get(role string) (string, bool) {
	jd, ok := c.jobs[role]
	return jd, ok
}

func (c *stubCatalog) Roles() []string {
	roles := make([]string, 0, len(c.jobs))
	for role := range c.jobs {
		roles = append(roles, role)
	}
	return roles
}

type fixture struct {
	machine   *Machine
	session   *Session
	questions *stubQuestions
	scorer    *stubScorer
	store     *stubStore
}

func newFixture(t *testing.T, mutate func(*Deps, *Config)) *fixture {
	t.Helper()

	questions := &stubQuestions{initial: []string{"Q1?", "Q2?", "Q3?"}}
	scorer := &stubScorer{score: 0.9}
	store := &stubStore{}

	deps := Deps{
		Questions:  questions,
		Scorer:     scorer,
		Summarizer: &stubSummarizer{},
		Extractor:  &stubExtractor{text: "ten years of Go and SQL"},
		Store:      store,
		Jobs:       &stubCatalog{jobs: map[string]string{"Data Scientist": "analyze data with Python and SQL"}},
	}
	cfg := DefaultConfig()

	if mutate != nil {
		mutate(&deps, &cfg)
	}

	machine := NewMachine(deps, cfg)
	return &fixture{
		machine:   machine,
		session:   machine.NewSession(),
		questions: questions,
		scorer:    scorer,
		store:     store,
	}
}

func validProfile() Profile {
	return Profile{
		FullName:         "Ava",
		Email:            "ava@x.com",
		Phone:            "555-0100",
		YearsExperience:  "6",
		DesiredPositions: "Data Scientist",
		Location:         "Berlin",
		TechStack:        "Python, SQL",
	}
}

func (f *fixture) register(t *testing.T) {
	t.Helper()
	if _, err := f.machine.SubmitProfile(f.session, validProfile()); err != nil {
		t.Fatalf("registration failed: %v", err)
	}
}

func (f *fixture) upload(t *testing.T) *Reply {
	t.Helper()
	reply, err := f.machine.SubmitResume(context.Background(), f.session, "Data Scientist", "resume.pdf")
	if err != nil {
		t.Fatalf("resume upload failed: %v", err)
	}
	return reply
}

func TestRegistrationRequiresEveryField(t *testing.T) {
	t.Parallel()

	clear := []func(*Profile){
		func(p *Profile) { p.FullName = "" },
		func(p *Profile) { p.Email = " " },
		func(p *Profile) { p.Phone = "" },
		func(p *Profile) { p.YearsExperience = "" },
		func(p *Profile) { p.DesiredPositions = "" },
		func(p *Profile) { p.Location = "" },
		func(p *Profile) { p.TechStack = "" },
	}

	for i, blank := range clear {
		f := newFixture(t, nil)
		p := validProfile()
		blank(&p)

		_, err := f.machine.SubmitProfile(f.session, p)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
		if len(verr.Missing) != 1 {
			t.Fatalf("case %d: expected one missing field, got %v", i, verr.Missing)
		}
		if f.session.Stage != StageRegistration {
			t.Fatalf("case %d: stage advanced despite missing field: %s", i, f.session.Stage)
		}
	}
}

func TestRegistrationAdvancesWithFullProfile(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	reply, err := f.machine.SubmitProfile(f.session, validProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.session.Stage != StageResumeUpload {
		t.Fatalf("expected resume upload stage, got %s", f.session.Stage)
	}
	if len(reply.Messages) != 1 || !strings.Contains(reply.Messages[0], "Ava") {
		t.Fatalf("unexpected reply: %v", reply.Messages)
	}
}

func TestFieldOrderIsFixed(t *testing.T) {
	t.Parallel()

	want := []string{
		"Full Name", "Email Address", "Phone Number", "Years of Experience",
		"Desired Position(s)", "Current Location", "Tech Stack",
	}
	got := FieldLabels()
	if len(got) != len(want) {
		t.Fatalf("unexpected labels: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("field %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestUnknownRoleRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.register(t)

	_, err := f.machine.SubmitResume(context.Background(), f.session, "Astronaut", "resume.pdf")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if f.session.Stage != StageResumeUpload {
		t.Fatalf("stage changed on invalid role: %s", f.session.Stage)
	}
}

func TestBelowThresholdNeverReachesInterview(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(_ *Deps, cfg *Config) { cfg.MatchThreshold = 0.4 })
	f.scorer.score = 0.2
	f.register(t)

	reply := f.upload(t)
	if f.session.Stage != StageResumeUpload {
		t.Fatalf("expected to remain at resume upload, got %s", f.session.Stage)
	}
	if !strings.Contains(reply.Messages[0], "0.20") {
		t.Fatalf("numeric score not surfaced: %v", reply.Messages)
	}
	if len(f.session.Conversation) != 0 {
		t.Fatalf("interview transcript started despite failed match")
	}

	// A later pass still works from the same stage.
	f.scorer.score = 0.8
	f.upload(t)
	if f.session.Stage != StageInterviewActive {
		t.Fatalf("expected active interview after retry, got %s", f.session.Stage)
	}
}

func TestEmptyResumeBlocksWithoutProviderCall(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(deps *Deps, _ *Config) {
		deps.Extractor = &stubExtractor{text: ""}
	})
	f.register(t)

	reply := f.upload(t)
	if f.session.Stage != StageResumeUpload {
		t.Fatalf("expected blocked progression, got %s", f.session.Stage)
	}
	if !strings.Contains(reply.Messages[0], "0.00") {
		t.Fatalf("expected zero score surfaced, got %v", reply.Messages)
	}
}

func TestScorerUnavailableDegrades(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.scorer.err = errors.New("embedding provider down")
	f.register(t)

	reply := f.upload(t)
	if f.session.Stage != StageResumeUpload {
		t.Fatalf("expected to remain at resume upload, got %s", f.session.Stage)
	}
	if !strings.Contains(reply.Messages[0], "could not be scored") {
		t.Fatalf("unexpected degraded message: %v", reply.Messages)
	}
}

func TestPassingUploadStartsInterview(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.register(t)

	reply := f.upload(t)
	if f.session.Stage != StageInterviewActive {
		t.Fatalf("expected active interview, got %s", f.session.Stage)
	}

	// Score confirmation, greeting, first question.
	if len(reply.Messages) != 3 {
		t.Fatalf("unexpected reply shape: %v", reply.Messages)
	}
	if !strings.Contains(reply.Messages[1], "Hello Ava!") {
		t.Fatalf("greeting missing: %v", reply.Messages)
	}
	if reply.Messages[2] != "Q1?" {
		t.Fatalf("first question missing: %v", reply.Messages)
	}

	if len(f.session.Conversation) != 2 {
		t.Fatalf("expected greeting and first question in transcript, got %d turns", len(f.session.Conversation))
	}
	if f.session.Asked != 1 {
		t.Fatalf("expected asked count 1, got %d", f.session.Asked)
	}
	if len(f.session.Queue) != 2 {
		t.Fatalf("expected two queued questions, got %d", len(f.session.Queue))
	}
}

func runFullInterview(t *testing.T, f *fixture) *Reply {
	t.Helper()

	f.register(t)
	f.upload(t)

	var last *Reply
	for i := 1; ; i++ {
		reply, err := f.machine.SubmitAnswer(context.Background(), f.session, fmt.Sprintf("answer %d", i))
		if err != nil {
			t.Fatalf("answer %d failed: %v", i, err)
		}
		last = reply
		if f.session.Stage == StageFinished {
			return last
		}
		if i > 20 {
			t.Fatal("interview never finished")
		}
	}
}

func TestFullInterviewTranscriptArithmetic(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	runFullInterview(t, f)

	if len(f.store.records) != 1 {
		t.Fatalf("expected one saved record, got %d", len(f.store.records))
	}
	record := f.store.records[0]

	// Greeting + closing + one assistant/user pair per question.
	want := 2*f.session.MaxQuestions + 2
	if len(record.Transcript) != want {
		t.Fatalf("expected %d transcript entries, got %d", want, len(record.Transcript))
	}

	if record.Transcript[0].Role != interview.RoleSystem {
		t.Fatalf("transcript must open with the system greeting")
	}
	last := record.Transcript[len(record.Transcript)-1]
	if last.Role != interview.RoleAssistant || !strings.Contains(last.Content, "Our team will be in touch") {
		t.Fatalf("transcript must close with the closing message, got %+v", last)
	}

	// Strict alternation from the first question onward.
	for i := 1; i < len(record.Transcript)-1; i++ {
		wantRole := interview.RoleAssistant
		if i%2 == 0 {
			wantRole = interview.RoleUser
		}
		if record.Transcript[i].Role != wantRole {
			t.Fatalf("turn %d: expected role %s, got %s", i, wantRole, record.Transcript[i].Role)
		}
	}
}

func TestNeverAsksMoreThanMaxQuestions(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(_ *Deps, cfg *Config) { cfg.MaxQuestions = 3 })
	f.session = f.machine.NewSession()
	runFullInterview(t, f)

	if f.session.Asked != 3 {
		t.Fatalf("expected exactly 3 questions asked, got %d", f.session.Asked)
	}

	record := f.store.records[0]
	if got := len(record.TechnicalAnswers); got != 3 {
		t.Fatalf("expected 3 answer pairs, got %d", got)
	}
}

func TestQueueExhaustionFallsBackToFollowUps(t *testing.T) {
	t.Parallel()

	// Two seeded questions, five rounds: three follow-ups are generated.
	f := newFixture(t, func(_ *Deps, cfg *Config) { cfg.InitialQuestions = 2 })
	runFullInterview(t, f)

	if f.questions.followUpCalls != 3 {
		t.Fatalf("expected 3 follow-up calls, got %d", f.questions.followUpCalls)
	}
}

func TestRecordContents(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	reply := runFullInterview(t, f)

	if reply.RecordID != 1 {
		t.Fatalf("expected record id 1, got %d", reply.RecordID)
	}

	record := f.store.records[0]
	if record.FullName != "Ava" || record.Email != "ava@x.com" {
		t.Fatalf("profile fields lost: %+v", record)
	}
	if record.DesiredPositions != "Data Scientist" {
		t.Fatalf("expected selected role persisted, got %q", record.DesiredPositions)
	}
	if record.MatchScore != 0.9 {
		t.Fatalf("expected match score 0.9, got %v", record.MatchScore)
	}
	if record.ResumeText == "" {
		t.Fatalf("resume text missing")
	}
	if record.Sentiment == "" {
		t.Fatalf("sentiment must be non-empty")
	}
	if record.SessionID != f.session.ID {
		t.Fatalf("session id mismatch")
	}
	for i, qa := range record.TechnicalAnswers {
		if qa.Question == "" || qa.Answer == "" {
			t.Fatalf("answer pair %d incomplete: %+v", i, qa)
		}
	}
}

func TestExitKeywordShortCircuits(t *testing.T) {
	t.Parallel()

	for _, keyword := range []string{"exit", "quit", "bye", "goodbye", "QUIT"} {
		f := newFixture(t, nil)
		f.register(t)
		f.upload(t)

		// Answer once, then bail out mid-interview.
		if _, err := f.machine.SubmitAnswer(context.Background(), f.session, "an answer"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		reply, err := f.machine.SubmitAnswer(context.Background(), f.session, keyword)
		if err != nil {
			t.Fatalf("exit input failed: %v", err)
		}
		if f.session.Stage != StageFinished {
			t.Fatalf("keyword %q: expected finished, got %s", keyword, f.session.Stage)
		}
		if !strings.Contains(reply.Messages[0], "Goodbye") {
			t.Fatalf("keyword %q: unexpected farewell: %v", keyword, reply.Messages)
		}
		if len(f.store.records) != 0 {
			t.Fatalf("keyword %q: aborted session must not persist a record", keyword)
		}
	}
}

func TestPersistenceFailureIsRetryable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.register(t)
	f.upload(t)

	f.store.err = errors.New("disk full")

	var lastErr error
	for i := 1; i <= f.session.MaxQuestions; i++ {
		_, lastErr = f.machine.SubmitAnswer(context.Background(), f.session, fmt.Sprintf("answer %d", i))
	}
	if lastErr == nil {
		t.Fatal("expected surfaced persistence error")
	}
	if f.session.Stage != StageInterviewActive {
		t.Fatalf("session must not finish on failed save, got %s", f.session.Stage)
	}

	turnsAfterFailure := len(f.session.Conversation)

	// The store recovers; any input retries the save without duplicating turns.
	f.store.err = nil
	reply, err := f.machine.SubmitAnswer(context.Background(), f.session, "retry please")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if f.session.Stage != StageFinished {
		t.Fatalf("expected finished after retry, got %s", f.session.Stage)
	}
	if reply.RecordID != 1 {
		t.Fatalf("expected saved record id, got %d", reply.RecordID)
	}
	if len(f.session.Conversation) != turnsAfterFailure {
		t.Fatalf("retry duplicated transcript turns: %d vs %d", len(f.session.Conversation), turnsAfterFailure)
	}
	if want := 2*f.session.MaxQuestions + 2; len(f.store.records[0].Transcript) != want {
		t.Fatalf("expected %d transcript entries after retry, got %d", want, len(f.store.records[0].Transcript))
	}
}

func TestStageGating(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	var serr *StageError
	if _, err := f.machine.SubmitAnswer(context.Background(), f.session, "hello"); !errors.As(err, &serr) {
		t.Fatalf("expected StageError for answer during registration, got %v", err)
	}
	if _, err := f.machine.SubmitResume(context.Background(), f.session, "Data Scientist", "r.pdf"); !errors.As(err, &serr) {
		t.Fatalf("expected StageError for upload during registration, got %v", err)
	}

	f.register(t)
	if _, err := f.machine.SubmitProfile(f.session, validProfile()); !errors.As(err, &serr) {
		t.Fatalf("expected StageError for second registration, got %v", err)
	}
}

func TestResetStartsOver(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	runFullInterview(t, f)

	oldID := f.session.ID
	f.machine.Reset(f.session)

	if f.session.Stage != StageRegistration {
		t.Fatalf("expected registration after reset, got %s", f.session.Stage)
	}
	if f.session.ID == oldID {
		t.Fatal("reset must assign a new session identity")
	}
	if len(f.session.Conversation) != 0 || f.session.Asked != 0 || f.session.ResumeText != "" {
		t.Fatal("reset must clear all session state")
	}

	// The reset session can run a full screening again.
	runFullInterview(t, f)
	if len(f.store.records) != 2 {
		t.Fatalf("expected second record after reset, got %d", len(f.store.records))
	}
}
