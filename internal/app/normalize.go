package app

import (
	"strconv"

	"grownest-service/internal/domain"
)

// RemoteQuestion is the question shape the learning platform returns for the
// lesson and free-roam endpoints. Option answer IDs are server-assigned
// tokens; the correct answer is never present.
type RemoteQuestion struct {
	ID          string          `json:"id"`
	Question    string          `json:"question"`
	Options     []domain.Option `json:"options"`
	Explanation string          `json:"explanation"`
}

// NormalizeRemote converts platform questions into the uniform internal
// representation. CorrectLetter stays empty: correctness is server-authoritative.
func NormalizeRemote(items []RemoteQuestion) []domain.Question {
	questions := make([]domain.Question, 0, len(items))
	for _, item := range items {
		questions = append(questions, domain.Question{
			ID:          item.ID,
			Prompt:      item.Question,
			Options:     item.Options,
			Explanation: item.Explanation,
		})
	}
	return questions
}

// NormalizeWalkthrough converts a walkthrough array into the uniform internal
// representation, populating CorrectLetter and leaving answer IDs empty. An
// empty or absent input falls back to the built-in default set; offline play
// must always have something to show.
func NormalizeWalkthrough(items []domain.WalkthroughQuestion) []domain.Question {
	if len(items) == 0 {
		return DefaultWalkthroughQuestions()
	}
	questions := make([]domain.Question, 0, len(items))
	for _, item := range items {
		options := make([]domain.Option, 0, len(item.Options))
		for _, opt := range item.Options {
			options = append(options, domain.Option{Letter: opt.Letter, Text: opt.Text})
		}
		questions = append(questions, domain.Question{
			ID:            strconv.Itoa(item.ID),
			Prompt:        item.Question,
			Options:       options,
			CorrectLetter: item.CorrectAnswer,
			Explanation:   item.Explanation,
		})
	}
	return questions
}

// DefaultWalkthroughQuestions is the hardcoded finance-literacy set used when
// no walkthrough content is supplied or loadable.
func DefaultWalkthroughQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:     "walkthrough-1",
			Prompt: "What is a budget?",
			Options: []domain.Option{
				{Letter: "A", Text: "A plan for how to spend and save your money"},
				{Letter: "B", Text: "A type of bank account"},
				{Letter: "C", Text: "A loan from the bank"},
			},
			CorrectLetter: "A",
			Explanation:   "A budget is a plan that helps you track income and expenses.",
		},
		{
			ID:     "walkthrough-2",
			Prompt: "Why is it important to save money?",
			Options: []domain.Option{
				{Letter: "A", Text: "So the bank earns interest"},
				{Letter: "B", Text: "To be prepared for unexpected expenses and future goals"},
				{Letter: "C", Text: "Because spending money is bad"},
			},
			CorrectLetter: "B",
			Explanation:   "Savings act as a safety net and fund longer-term goals.",
		},
		{
			ID:     "walkthrough-3",
			Prompt: "What does interest on a savings account mean?",
			Options: []domain.Option{
				{Letter: "A", Text: "A fee you pay the bank every month"},
				{Letter: "B", Text: "The bank's opening hours"},
				{Letter: "C", Text: "Money the bank pays you for keeping your savings there"},
			},
			CorrectLetter: "C",
			Explanation:   "Banks pay interest on deposits, so saved money grows over time.",
		},
	}
}
