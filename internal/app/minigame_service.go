package app

import (
	"context"
	"log"

	"grownest-service/internal/domain"
)

// SessionRepository abstracts how live sessions are stored (in-memory, Redis-backed).
type SessionRepository interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// QuestionSource loads question sets by mode and content ID (from cache,
// Postgres, or the learning platform).
type QuestionSource interface {
	Load(ctx context.Context, mode domain.GameMode, id string) (domain.QuestionSet, error)
}

// MinigameService owns session construction and routes interactions to the
// right session.
type MinigameService struct {
	sessions  SessionRepository
	questions QuestionSource
	backend   Backend
}

func NewMinigameService(sessions SessionRepository, questions QuestionSource, backend Backend) *MinigameService {
	return &MinigameService{sessions: sessions, questions: questions, backend: backend}
}

// StartParams describes a session init payload.
type StartParams struct {
	Mode          domain.GameMode
	LessonID      string
	ModuleID      string
	WalkthroughID string
	// Questions is an optional inline walkthrough set; when empty, content is
	// loaded by WalkthroughID and falls back to the built-in default set.
	Questions       []domain.WalkthroughQuestion
	ShowStartScreen bool
}

// StartSession loads the question set for the requested mode, builds a fresh
// session, and registers it. Lesson and free-roam load failures propagate;
// walkthrough content always degrades to the built-in set.
func (s *MinigameService) StartSession(ctx context.Context, params StartParams) (*Session, error) {
	cfg := SessionConfig{
		Mode:            params.Mode,
		LessonID:        params.LessonID,
		ModuleID:        params.ModuleID,
		ShowStartScreen: params.ShowStartScreen,
	}

	switch params.Mode {
	case domain.ModeWalkthrough:
		cfg.Questions = NormalizeWalkthrough(params.Questions)
		if len(params.Questions) == 0 && params.WalkthroughID != "" {
			set, err := s.questions.Load(ctx, domain.ModeWalkthrough, params.WalkthroughID)
			if err != nil {
				log.Printf("walkthrough set %q unavailable, using built-in set: %v", params.WalkthroughID, err)
			} else if len(set.Questions) > 0 {
				cfg.Questions = set.Questions
			}
		}
	case domain.ModeLesson:
		set, err := s.questions.Load(ctx, domain.ModeLesson, params.LessonID)
		if err != nil {
			return nil, err
		}
		cfg.Questions, cfg.Tree = set.Questions, set.Tree
	case domain.ModeFreeRoam:
		set, err := s.questions.Load(ctx, domain.ModeFreeRoam, params.ModuleID)
		if err != nil {
			return nil, err
		}
		cfg.Questions, cfg.Tree = set.Questions, set.Tree
		if cfg.Tree == nil && s.backend != nil {
			// Resume from the persisted tree when the question payload
			// carried no state.
			tree, err := s.backend.FreeRoamState(ctx, params.ModuleID)
			if err != nil {
				log.Printf("free roam state fetch failed for module %q: %v", params.ModuleID, err)
			} else {
				cfg.Tree = tree
			}
		}
	default:
		return nil, domain.ErrUnknownMode
	}

	session, err := NewSession(cfg, s.backend)
	if err != nil {
		return nil, err
	}
	s.sessions.Put(session)
	return session, nil
}

// Get returns a live session by ID.
func (s *MinigameService) Get(id string) (*Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// SubmitAnswer evaluates an answer for the session's current question.
func (s *MinigameService) SubmitAnswer(ctx context.Context, id, letter string) (domain.EvaluationOutcome, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return domain.EvaluationOutcome{}, domain.ErrSessionNotFound
	}
	return session.SubmitAnswer(ctx, letter)
}

// Advance moves the session to its next question or completion.
func (s *MinigameService) Advance(ctx context.Context, id string) (bool, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return false, domain.ErrSessionNotFound
	}
	return session.Advance(ctx)
}

// Abort hard-exits and discards a session; no result is produced.
func (s *MinigameService) Abort(id string) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	session.Abort()
	s.sessions.Delete(id)
}

// Finish discards a completed session after its result has been delivered.
func (s *MinigameService) Finish(id string) {
	s.sessions.Delete(id)
}
