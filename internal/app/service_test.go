package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-chat-service/internal/app"
	"trivia-chat-service/internal/domain"
	"trivia-chat-service/internal/infra/memory"
	"trivia-chat-service/internal/quiz"
)

func newTestService(board app.HallOfFame) (*app.GameService, *memory.SessionStore) {
	store := memory.NewSessionStore()
	bank := memory.NewBankRepository(memory.NewStaticBankLoader(parisBank().questions), 0)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	service := app.NewGameService(store, map[app.EngineKind]app.EngineFactory{
		app.EngineDeterministic: app.DeterministicEngines(quiz.NewEngine(bank)),
	}, board, app.WithClock(func() time.Time { return fixed }))
	return service, store
}

func TestOpenGreetsAndStoresSession(t *testing.T) {
	service, store := newTestService(memory.NewHallOfFame())

	id, dirs, err := service.Open(context.Background(), app.EngineDeterministic)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.Get(id); !ok {
		t.Fatalf("expected session %s stored", id)
	}
	if len(dirs.Entries) != 1 || dirs.Entries[0].Content != app.WelcomeText {
		t.Fatalf("expected welcome entry, got %+v", dirs.Entries)
	}
	if dirs.Sidebar.State != domain.StateConfiguring {
		t.Fatalf("expected configuring, got %s", dirs.Sidebar.State)
	}

	if _, _, err := service.Open(context.Background(), app.EngineConversational); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected disabled engine to be rejected, got %v", err)
	}
}

func TestFinishedGameIsRecorded(t *testing.T) {
	ctx := context.Background()
	board := memory.NewHallOfFame()
	service, _ := newTestService(board)
	id, _, _ := service.Open(ctx, app.EngineDeterministic)

	steps := []domain.Intent{
		{Kind: domain.IntentConfigure, Mode: domain.ModeDuo, Names: []string{"Ana", "Beto"}},
		{Kind: domain.IntentAnswer, Text: "a"},
		{Kind: domain.IntentAnswer, Text: "a"},
		{Kind: domain.IntentAnswer, Text: "a"},
		{Kind: domain.IntentAnswer, Text: "d"},
	}
	var dirs domain.Directives
	for i, intent := range steps {
		var err error
		if dirs, err = service.Handle(ctx, id, intent); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if s := dirs.Sidebar.Summary; s == nil || s.Winner != "Ana" || s.FinalScore != 20 {
		t.Fatalf("expected Ana to win with 20, got %+v", dirs.Sidebar.Summary)
	}

	top, err := service.HallOfFame(ctx, 0)
	if err != nil {
		t.Fatalf("hall of fame: %v", err)
	}
	if len(top) != 2 || top[0].Name != "Ana" || top[0].Score != 20 || top[1].Name != "Beto" || top[1].Score != 10 {
		t.Fatalf("unexpected hall of fame %+v", top)
	}
	if top[0].Mode != domain.ModeDuo || top[0].ID == "" {
		t.Fatalf("expected mode and id on entries, got %+v", top[0])
	}

	// a rejected answer after the finish must not record again
	if _, err := service.Handle(ctx, id, domain.Intent{Kind: domain.IntentAnswer, Text: "a"}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if top, _ = service.HallOfFame(ctx, 0); len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
}

func TestEndRemovesSession(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(nil)
	id, _, _ := service.Open(ctx, app.EngineDeterministic)

	if _, err := service.Handle(ctx, id, domain.Intent{Kind: domain.IntentConfigure, Mode: domain.ModeSingle, Names: []string{"Ana"}}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	dirs, err := service.Handle(ctx, id, domain.Intent{Kind: domain.IntentReset})
	if err != nil || dirs.Sidebar.State != domain.StateConfiguring {
		t.Fatalf("reset: %+v %v", dirs.Sidebar, err)
	}

	if _, err := service.Handle(ctx, id, domain.Intent{Kind: domain.IntentEnd}); err != nil {
		t.Fatalf("end: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected session removed")
	}
	if _, err := service.Handle(ctx, id, domain.Intent{Kind: domain.IntentReset}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestUnknownIntentKeepsGame(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(nil)
	id, _, _ := service.Open(ctx, app.EngineDeterministic)
	if _, err := service.Handle(ctx, id, domain.Intent{Kind: domain.IntentConfigure, Mode: domain.ModeSingle, Names: []string{"Ana"}}); err != nil {
		t.Fatalf("configure: %v", err)
	}

	dirs, err := service.Handle(ctx, id, domain.Intent{Kind: "dance"})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if dirs.Sidebar.State != domain.StateInProgress {
		t.Fatalf("unknown intent must not reset the game, got %s", dirs.Sidebar.State)
	}
}
