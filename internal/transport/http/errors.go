package http

import (
	"errors"
	"fmt"

	"trivia-chat-service/internal/domain"
)

var errUnsupportedType = errors.New("unsupported message type")

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func errInvalidPayload(kind string) error {
	return fmt.Errorf("%w: invalid %s payload", domain.ErrInvalidTransition, kind)
}

func newErrorPayload(err error) errorPayload {
	return errorPayload{Message: err.Error(), Code: errorCode(err)}
}

// errorCode maps domain errors to the stable codes clients switch on.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, errUnsupportedType):
		return "invalid_transition"
	case errors.Is(err, domain.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, domain.ErrNoQuestionsAvailable):
		return "no_questions"
	case errors.Is(err, domain.ErrTransport):
		return "transport"
	case errors.Is(err, domain.ErrService):
		return "service"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "not_found"
	}
	return "internal"
}
