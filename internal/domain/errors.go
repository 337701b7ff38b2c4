package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no session exists for the given ID.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrSessionNotActive is returned when a command requires an active session.
	ErrSessionNotActive = errors.New("game session is not active")
	// ErrAlreadyStarted is returned when Start is called on a non-fresh session.
	ErrAlreadyStarted = errors.New("game already started")
	// ErrAlreadyEnded is returned when End is called on an ended session.
	ErrAlreadyEnded = errors.New("game already ended")
	// ErrQuestionMismatch is returned when a submission targets a question that
	// is not the session's current question.
	ErrQuestionMismatch = errors.New("question is not the current question")
	// ErrDuplicateAnswer is returned when a player resubmits for the same question.
	ErrDuplicateAnswer = errors.New("answer already submitted")
	// ErrInvalidChoice is returned when a choice does not belong to the question.
	ErrInvalidChoice = errors.New("choice not found for question")
	// ErrNoQuestions is returned when starting a quiz that has no questions.
	ErrNoQuestions = errors.New("quiz has no questions")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrRoomNotFound indicates an unknown room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrPlayerNotFound indicates an unknown roster member.
	ErrPlayerNotFound = errors.New("player not found")
)
