package app_test

import (
	"context"
	"fmt"
	"sync"

	"trivia-chat-service/internal/domain"
)

// scriptedCompleter replies from a fixed script and remembers every history it saw.
type scriptedCompleter struct {
	mu      sync.Mutex
	replies []string
	err     error
	seen    [][]domain.Message
}

func (s *scriptedCompleter) Complete(_ context.Context, history []domain.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, history)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", fmt.Errorf("%w: script exhausted", domain.ErrService)
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

// blockingCompleter parks every call until release is closed or the call is cancelled.
// While open is set it answers immediately.
type blockingCompleter struct {
	open    bool
	started chan struct{}
	release chan struct{}
}

func (b *blockingCompleter) Complete(ctx context.Context, _ []domain.Message) (string, error) {
	if b.open {
		return "Pregunta 1", nil
	}
	b.started <- struct{}{}
	select {
	case <-b.release:
		return "Evaluación: Correcta", nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", domain.ErrTransport, ctx.Err())
	}
}
