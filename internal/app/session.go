package app

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"grownest-service/internal/domain"
)

// SessionState is the coarse lifecycle phase of a session.
type SessionState int

const (
	StateStartScreen SessionState = iota
	StateAnswering
	StateCompleted
)

// SessionConfig carries everything needed to construct a session. Questions
// are fixed for the session's lifetime once handed over.
type SessionConfig struct {
	Mode            domain.GameMode
	LessonID        string
	ModuleID        string
	Questions       []domain.Question
	Tree            *domain.TreeState
	ShowStartScreen bool
}

// Session is one play-through of the minigame: start screen, answering loop,
// mode-specific finalization, terminal completion. The mode strategy is
// chosen once at construction; no per-call mode branching.
type Session struct {
	id        string
	mode      domain.GameMode
	lessonID  string
	moduleID  string
	questions []domain.Question
	strategy  modeStrategy

	mu                 sync.Mutex
	state              SessionState
	currentIndex       int
	selectedAnswer     string
	score              int
	consecutiveCorrect int
	fertilizerBonuses  int
	growthPoints       int
	coins              int
	tree               *domain.TreeState
	submitting         bool
	pending            []domain.PendingAnswer
	result             *domain.SessionResult
}

// NewSession builds a session for the given mode. An empty question set
// completes immediately with zeroed rewards rather than erroring.
func NewSession(cfg SessionConfig, backend Backend) (*Session, error) {
	var strategy modeStrategy
	switch cfg.Mode {
	case domain.ModeWalkthrough:
		strategy = walkthroughMode{}
	case domain.ModeLesson:
		strategy = lessonMode{backend: backend}
	case domain.ModeFreeRoam:
		strategy = freeRoamMode{backend: backend}
	default:
		return nil, domain.ErrUnknownMode
	}

	s := &Session{
		id:        uuid.NewString(),
		mode:      cfg.Mode,
		lessonID:  cfg.LessonID,
		moduleID:  cfg.ModuleID,
		questions: cfg.Questions,
		strategy:  strategy,
		tree:      cfg.Tree,
		state:     StateAnswering,
	}
	if cfg.ShowStartScreen {
		s.state = StateStartScreen
	}
	if len(cfg.Questions) == 0 {
		s.state = StateCompleted
		s.result = s.buildResultLocked()
	}
	return s, nil
}

func (s *Session) ID() string            { return s.id }
func (s *Session) Mode() domain.GameMode { return s.mode }
func (s *Session) TotalQuestions() int   { return len(s.questions) }

// State returns the current lifecycle phase.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin leaves the start screen. Calling it while already answering is a no-op.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted {
		return domain.ErrSessionCompleted
	}
	s.state = StateAnswering
	return nil
}

// CurrentQuestion returns the question awaiting an answer and its index.
func (s *Session) CurrentQuestion() (domain.Question, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnswering || s.currentIndex >= len(s.questions) {
		return domain.Question{}, 0, false
	}
	return s.questions[s.currentIndex], s.currentIndex, true
}

// SubmitAnswer evaluates the given letter for the current question. A call
// while a submission is in flight is rejected without touching state or the
// network; a call for an already-answered question is likewise rejected.
func (s *Session) SubmitAnswer(ctx context.Context, letter string) (domain.EvaluationOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateStartScreen:
		return domain.EvaluationOutcome{}, domain.ErrSessionNotStarted
	case StateCompleted:
		return domain.EvaluationOutcome{}, domain.ErrSessionCompleted
	}
	if s.submitting {
		return domain.EvaluationOutcome{}, domain.ErrSubmissionInFlight
	}
	if s.selectedAnswer != "" {
		return domain.EvaluationOutcome{}, domain.ErrAlreadyAnswered
	}

	q := s.questions[s.currentIndex]
	s.selectedAnswer = letter
	outcome, err := s.strategy.submit(ctx, s, q, letter)
	if err != nil {
		s.selectedAnswer = ""
		return domain.EvaluationOutcome{}, err
	}
	return outcome, nil
}

// Advance moves to the next question, clearing the selected answer. Reaching
// the end runs the mode's finalization once and enters the terminal state;
// the returned bool reports completion.
func (s *Session) Advance(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateStartScreen:
		return false, domain.ErrSessionNotStarted
	case StateCompleted:
		return false, domain.ErrSessionCompleted
	}
	if s.submitting {
		return false, domain.ErrSubmissionInFlight
	}
	if s.selectedAnswer == "" {
		return false, domain.ErrNoAnswerSelected
	}

	s.currentIndex++
	s.selectedAnswer = ""
	if s.currentIndex < len(s.questions) {
		return false, nil
	}

	s.strategy.finalize(ctx, s)
	s.state = StateCompleted
	s.result = s.buildResultLocked()
	return true, nil
}

// Abort is a hard exit: the session becomes terminal with no result, as when
// the player backs out mid-quiz.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateCompleted
}

// Result returns the terminal payload once the session has completed its
// question loop. Aborted sessions have none.
func (s *Session) Result() (domain.SessionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.SessionResult{}, false
	}
	return *s.result, true
}

// Progress computes the current tree stage and percentage. Idempotent for
// unchanged session state.
func (s *Session) Progress() domain.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeProgress(s.tree, s.score, len(s.questions))
}

// Score is the count of correct answers known so far.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// ConsecutiveCorrect is the running correct-answer streak.
func (s *Session) ConsecutiveCorrect() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveCorrect
}

// FertilizerBonuses is the number of bonus events fired this session.
func (s *Session) FertilizerBonuses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fertilizerBonuses
}

// Answered is the number of questions with a recorded answer.
func (s *Session) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	answered := s.currentIndex
	if s.selectedAnswer != "" {
		answered++
	}
	return answered
}

// applyVerdictLocked updates score and streak from a known correctness
// decision and reports whether a fertilizer bonus fired. The bonus fires on
// every 3rd consecutive correct answer and does not reset the streak, so it
// can fire repeatedly at 3, 6, 9, ...
func (s *Session) applyVerdictLocked(correct bool) bool {
	if !correct {
		s.consecutiveCorrect = 0
		return false
	}
	s.score++
	s.consecutiveCorrect++
	if s.consecutiveCorrect%3 == 0 {
		s.fertilizerBonuses++
		return true
	}
	return false
}

func (s *Session) buildResultLocked() *domain.SessionResult {
	return &domain.SessionResult{
		Mode:               s.mode,
		LessonID:           s.lessonID,
		ModuleID:           s.moduleID,
		TotalQuestions:     len(s.questions),
		CorrectCount:       s.score,
		GrowthPointsEarned: s.growthPoints,
		CoinsEarned:        s.coins,
		FertilizerBonuses:  s.fertilizerBonuses,
		Tree:               s.tree,
		ConsecutiveCorrect: s.consecutiveCorrect,
		Progress:           ComputeProgress(s.tree, s.score, len(s.questions)),
	}
}
