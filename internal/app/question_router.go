package app

import (
	"context"

	"grownest-service/internal/domain"
)

// RoutedQuestionSource dispatches question loads by game mode: lesson and
// free-roam sets come from the learning platform, walkthrough sets from local
// content.
type RoutedQuestionSource struct {
	Remote      QuestionSource
	Walkthrough QuestionSource
}

func (r RoutedQuestionSource) Load(ctx context.Context, mode domain.GameMode, id string) (domain.QuestionSet, error) {
	switch mode {
	case domain.ModeLesson, domain.ModeFreeRoam:
		if r.Remote == nil {
			return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
		}
		return r.Remote.Load(ctx, mode, id)
	case domain.ModeWalkthrough:
		if r.Walkthrough == nil {
			return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
		}
		return r.Walkthrough.Load(ctx, mode, id)
	}
	return domain.QuestionSet{}, domain.ErrUnknownMode
}
