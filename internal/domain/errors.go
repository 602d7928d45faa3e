package domain

import "errors"

var (
	// ErrInvalidConfig is returned when a game configuration is rejected (blank or duplicate names, wrong player count).
	ErrInvalidConfig = errors.New("invalid game configuration")
	// ErrInvalidTransition is returned when an operation is not allowed in the current session state.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrNoQuestionsAvailable indicates the question bank is empty.
	ErrNoQuestionsAvailable = errors.New("no questions available")
	// ErrEmptyInput is returned for blank answers before any engine work happens.
	ErrEmptyInput = errors.New("empty input")
	// ErrTransport indicates the completion service could not be reached (including timeouts).
	ErrTransport = errors.New("completion service unreachable")
	// ErrService indicates the completion service answered with a non-success status.
	ErrService = errors.New("completion service error")
	// ErrSchema indicates a question store is missing required columns or holds malformed rows.
	ErrSchema = errors.New("question store schema error")
	// ErrStaleResponse is returned when an answer resolved after the session was reset.
	ErrStaleResponse = errors.New("stale response discarded")
	// ErrSessionNotFound is returned when a game session has not been opened.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrQuestionNotFound indicates a cached question ID no longer resolves.
	ErrQuestionNotFound = errors.New("question not found")
)
