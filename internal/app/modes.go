package app

import (
	"context"
	"log"

	"grownest-service/internal/domain"
)

// Backend is the slice of the learning-platform client the engine calls at
// answer and finalization time.
type Backend interface {
	SubmitLessonAnswers(ctx context.Context, lessonID string, batch domain.BatchSubmission) (domain.BatchResult, error)
	SaveFreeRoamProgress(ctx context.Context, moduleID string, sub domain.ProgressSubmission) (domain.ServerVerdict, error)
	FreeRoamState(ctx context.Context, moduleID string) (*domain.TreeState, error)
}

// modeStrategy implements the mode-specific halves of the session state
// machine. Both methods are called with s.mu held; implementations that do
// network IO set s.submitting and release the lock around the call.
type modeStrategy interface {
	submit(ctx context.Context, s *Session, q domain.Question, letter string) (domain.EvaluationOutcome, error)
	finalize(ctx context.Context, s *Session)
}

// walkthroughMode scores locally against the known correct letter. Nothing is
// persisted and finalization has nothing left to do.
type walkthroughMode struct{}

func (walkthroughMode) submit(_ context.Context, s *Session, q domain.Question, letter string) (domain.EvaluationOutcome, error) {
	verdict := domain.LocalVerdict{Correct: q.CorrectLetter != "" && q.CorrectLetter == letter}
	bonus := s.applyVerdictLocked(verdict.Correct)
	return domain.EvaluationOutcome{
		Correct:         verdict.Correct,
		FertilizerBonus: bonus,
		Explanation:     q.Explanation,
	}, nil
}

func (walkthroughMode) finalize(context.Context, *Session) {}

// lessonMode buffers answers and scores nothing until the final batch submit.
type lessonMode struct {
	backend Backend
}

func (lessonMode) submit(_ context.Context, s *Session, q domain.Question, letter string) (domain.EvaluationOutcome, error) {
	opt, ok := q.OptionByLetter(letter)
	if !ok {
		return domain.EvaluationOutcome{}, domain.ErrOptionNotFound
	}
	s.pending = append(s.pending, domain.PendingAnswer{QuestionID: q.ID, AnswerID: opt.AnswerID})
	return domain.EvaluationOutcome{Deferred: true, Explanation: q.Explanation}, nil
}

func (m lessonMode) finalize(ctx context.Context, s *Session) {
	batch := domain.BatchSubmission{Answers: s.pending, ConsecutiveCorrect: s.consecutiveCorrect}

	s.submitting = true
	s.mu.Unlock()
	res, err := m.backend.SubmitLessonAnswers(ctx, s.lessonID, batch)
	s.mu.Lock()
	s.submitting = false

	if err != nil {
		// The player still gets a completion screen; rewards stay at their
		// last known values.
		log.Printf("lesson batch submit failed, completing with local data: %v", err)
		return
	}
	s.score = res.CorrectCount
	s.growthPoints += res.GrowthPointsEarned
	s.coins += res.CoinsEarned
	if res.FertilizerBonus {
		s.fertilizerBonuses++
	}
	if res.Tree != nil {
		s.tree = res.Tree
	}
}

// freeRoamMode submits every answer individually and scores it from the
// server's verdict.
type freeRoamMode struct {
	backend Backend
}

func (m freeRoamMode) submit(ctx context.Context, s *Session, q domain.Question, letter string) (domain.EvaluationOutcome, error) {
	opt, ok := q.OptionByLetter(letter)
	if !ok {
		return domain.EvaluationOutcome{}, domain.ErrOptionNotFound
	}
	sub := domain.ProgressSubmission{
		QuestionID:         q.ID,
		AnswerID:           opt.AnswerID,
		IsCorrect:          false, // placeholder; the server's verdict is authoritative
		ConsecutiveCorrect: s.consecutiveCorrect,
	}

	s.submitting = true
	s.mu.Unlock()
	verdict, err := m.backend.SaveFreeRoamProgress(ctx, s.moduleID, sub)
	s.mu.Lock()
	s.submitting = false

	if err != nil {
		// Non-fatal: the answer counts as wrong, the streak breaks, and the
		// session continues. No retry.
		log.Printf("free roam submit failed, treating answer as incorrect: %v", err)
		s.consecutiveCorrect = 0
		return domain.EvaluationOutcome{Explanation: q.Explanation}, nil
	}

	bonus := s.applyVerdictLocked(verdict.Correct)
	s.growthPoints += verdict.GrowthPointsEarned
	s.coins += verdict.CoinsEarned
	if verdict.Tree != nil {
		s.tree = verdict.Tree
	}
	return domain.EvaluationOutcome{
		Correct:         verdict.Correct,
		FertilizerBonus: bonus,
		Explanation:     q.Explanation,
	}, nil
}

func (freeRoamMode) finalize(context.Context, *Session) {}
