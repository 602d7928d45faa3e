package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"trivia-chat-service/internal/domain"
)

// SessionRepository abstracts where live game sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// HallOfFame stores the final scores of finished games.
type HallOfFame interface {
	Record(ctx context.Context, entry domain.ScoreEntry) error
	Top(ctx context.Context, limit int) ([]domain.ScoreEntry, error)
}

// Session binds a controller to its ID and engine kind.
type Session struct {
	ID         string
	Engine     EngineKind
	Controller *Controller
	CreatedAt  time.Time
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string, kind EngineKind, engines EngineFactory) *Session {
	return &Session{ID: id, Engine: kind, Controller: NewController(engines), CreatedAt: time.Now()}
}

// WelcomeText greets a freshly opened session.
const WelcomeText = "Bienvenido al juego de trivia.\n\nElige un modo de juego:\n- 1 jugador\n- 2 jugadores"

// GameService contains the session-level use cases.
type GameService struct {
	sessions SessionRepository
	engines  map[EngineKind]EngineFactory
	board    HallOfFame
	welcome  bool
	now      func() time.Time
}

// ServiceOption configures a GameService.
type ServiceOption func(*GameService)

// WithWelcome toggles the greeting returned by Open.
func WithWelcome(enabled bool) ServiceOption {
	return func(s *GameService) { s.welcome = enabled }
}

// WithClock is test-only for deterministic hall-of-fame timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *GameService) { s.now = now }
}

func NewGameService(store SessionRepository, engines map[EngineKind]EngineFactory, board HallOfFame, opts ...ServiceOption) *GameService {
	s := &GameService{
		sessions: store,
		engines:  engines,
		board:    board,
		welcome:  true,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a session backed by the given engine kind.
func (s *GameService) Open(_ context.Context, kind EngineKind) (string, domain.Directives, error) {
	engines, ok := s.engines[kind]
	if !ok {
		return "", domain.Directives{}, fmt.Errorf("%w: engine %q is not enabled", domain.ErrInvalidConfig, kind)
	}
	session := NewSession(uuid.NewString(), kind, engines)
	s.sessions.Put(session)

	dirs := domain.Directives{Entries: []domain.Message{}, Sidebar: session.Controller.Snapshot()}
	if s.welcome {
		dirs.Entries = append(dirs.Entries, domain.Message{Role: domain.RoleAssistant, Content: WelcomeText})
	}
	return session.ID, dirs, nil
}

// Handle forwards one intent to the session's controller.
func (s *GameService) Handle(ctx context.Context, sessionID string, intent domain.Intent) (domain.Directives, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Directives{}, domain.ErrSessionNotFound
	}
	ctrl := session.Controller

	switch intent.Kind {
	case domain.IntentConfigure:
		return ctrl.Configure(ctx, intent.Mode, intent.Names)
	case domain.IntentAnswer:
		dirs, err := ctrl.SubmitAnswer(ctx, intent.Text)
		if dirs.Sidebar.Finished && (err == nil || errors.Is(err, domain.ErrNoQuestionsAvailable)) {
			s.record(ctx, dirs.Sidebar)
		}
		return dirs, err
	case domain.IntentReset:
		return ctrl.Reset(), nil
	case domain.IntentEnd:
		dirs := ctrl.Reset()
		s.sessions.Delete(sessionID)
		return dirs, nil
	}
	return domain.Directives{Entries: []domain.Message{}, Sidebar: ctrl.Snapshot()}, fmt.Errorf("%w: unknown intent %q", domain.ErrInvalidTransition, intent.Kind)
}

// Snapshot returns the sidebar of an open session.
func (s *GameService) Snapshot(sessionID string) (domain.Sidebar, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Sidebar{}, domain.ErrSessionNotFound
	}
	return session.Controller.Snapshot(), nil
}

// HallOfFame returns the best recorded scores.
func (s *GameService) HallOfFame(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.board.Top(ctx, limit)
}

func (s *GameService) record(ctx context.Context, sidebar domain.Sidebar) {
	if s.board == nil || sidebar.Summary == nil {
		return
	}
	at := s.now()
	for _, ps := range sidebar.Summary.Scores {
		entry := domain.ScoreEntry{
			ID:         uuid.NewString(),
			Name:       ps.Name,
			Score:      ps.Score,
			Mode:       sidebar.Mode,
			RecordedAt: at,
		}
		if err := s.board.Record(ctx, entry); err != nil {
			log.Printf("hall of fame record failed for %s: %v", ps.Name, err)
		}
	}
}
