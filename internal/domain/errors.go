package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no session exists for the given ID.
	ErrSessionNotFound = errors.New("minigame session not found")
	// ErrSessionCompleted is returned for interactions after the terminal state.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrSessionNotStarted is returned when answering from the start screen.
	ErrSessionNotStarted = errors.New("session not started")
	// ErrSubmissionInFlight guards against concurrent answer submissions.
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrAlreadyAnswered is returned when the current question has a selected answer.
	ErrAlreadyAnswered = errors.New("current question already answered")
	// ErrNoAnswerSelected is returned when advancing before answering.
	ErrNoAnswerSelected = errors.New("no answer selected for current question")
	// ErrQuestionSetNotFound indicates question content could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrOptionNotFound indicates a submitted answer letter is invalid.
	ErrOptionNotFound = errors.New("answer option not found")
	// ErrUnknownMode indicates an unsupported game mode tag.
	ErrUnknownMode = errors.New("unknown game mode")
	// ErrRejected marks a business-rule refusal from the learning platform
	// (HTTP 400: video not watched, lesson already played). Never retried.
	ErrRejected = errors.New("request rejected by learning platform")
)
